package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayoutModel 创作者结算记录
type PayoutModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CreatorId int64 `json:"creator_id" gorm:"not null;index"`
	TopicId   int64 `json:"topic_id" gorm:"not null;index"`

	// 金额拆分: Amount = PlatformFee + NetAmount
	Amount      decimal.Decimal `json:"amount" gorm:"type:numeric(18,2);not null"`       // 总金额
	PlatformFee decimal.Decimal `json:"platform_fee" gorm:"type:numeric(18,2);not null"` // 平台手续费
	NetAmount   decimal.Decimal `json:"net_amount" gorm:"type:numeric(18,2);not null"`   // 创作者到手金额

	Status        PayoutStatus `json:"status" gorm:"default:'pending'"`
	TransferId    string       `json:"transfer_id"`
	FailureReason string       `json:"failure_reason" gorm:"type:text"`
	PaidAt        *time.Time   `json:"paid_at"`
}

// PayoutStatus 结算状态
type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "pending"    // 待处理
	PayoutStatusProcessing PayoutStatus = "processing" // 转账中
	PayoutStatusCompleted  PayoutStatus = "completed"  // 已完成
	PayoutStatusFailed     PayoutStatus = "failed"     // 失败
)

// TableName 自定义表名
func (PayoutModel) TableName() string {
	return "payout"
}
