package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RefundRecordModel 退款记录
type RefundRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TopicId        int64           `json:"topic_id" gorm:"not null;index"`
	ContributionId int64           `json:"contribution_id" gorm:"not null;uniqueIndex"`
	PaymentId      string          `json:"payment_id" gorm:"not null"`
	Amount         decimal.Decimal `json:"amount" gorm:"type:numeric(18,2);not null"`
	RefundId       string          `json:"refund_id"`                       // 网关退款单号
	Status         RefundStatus    `json:"status" gorm:"default:'pending'"` // pending, success, failed
	RefundReason   string          `json:"refund_reason" gorm:"type:text"`
}

// RefundStatus 退款状态
type RefundStatus string

const (
	RefundStatusPending RefundStatus = "pending" // 待处理
	RefundStatusSuccess RefundStatus = "success" // 成功
	RefundStatusFailed  RefundStatus = "failed"  // 失败
)

// TableName 自定义表名
func (RefundRecordModel) TableName() string {
	return "refund_record"
}
