package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContributionModel 出资记录
type ContributionModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TopicId       int64           `json:"topic_id" gorm:"not null;index"`
	UserId        int64           `json:"user_id" gorm:"not null"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:numeric(18,2);not null"`
	PaymentStatus PaymentStatus   `json:"payment_status" gorm:"default:'pending'"`
	PaymentId     string          `json:"payment_id" gorm:"uniqueIndex;not null"`
	ContributedAt time.Time       `json:"contributed_at"`
}

// PaymentStatus 支付状态
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // 待支付
	PaymentStatusSucceeded PaymentStatus = "succeeded" // 支付成功
	PaymentStatusFailed    PaymentStatus = "failed"    // 支付失败
	PaymentStatusRefunded  PaymentStatus = "refunded"  // 已退款
)

// TableName 自定义表名
func (ContributionModel) TableName() string {
	return "contribution"
}
