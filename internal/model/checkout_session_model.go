package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutSessionModel 支付会话暂存记录
// 新建话题的表单数据先落库, 等该会话的支付成功后由对账引擎消费一次, 生成话题
type CheckoutSessionModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	SessionId       string `json:"session_id" gorm:"uniqueIndex;not null"` // 网关 checkout session ID
	InitiatorUserId int64  `json:"initiator_user_id" gorm:"not null"`
	CreatorId       int64  `json:"creator_id" gorm:"not null"`

	// 暂存的话题数据
	Title            string          `json:"title" gorm:"not null"`
	Description      string          `json:"description" gorm:"type:text"`
	FundingThreshold decimal.Decimal `json:"funding_threshold" gorm:"type:numeric(18,2);not null"`
	Amount           decimal.Decimal `json:"amount" gorm:"type:numeric(18,2);not null"` // 首笔出资金额

	Consumed   bool       `json:"consumed" gorm:"default:false"`
	ConsumedAt *time.Time `json:"consumed_at"`
}

// TableName 自定义表名
func (CheckoutSessionModel) TableName() string {
	return "checkout_session"
}
