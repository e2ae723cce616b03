package model

import (
	"time"
)

// FundingEventModel 话题资金事件记录
type FundingEventModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TopicId   int64  `json:"topic_id" gorm:"not null;index"`
	EventType string `json:"event_type" gorm:"not null"`
	PaymentId string `json:"payment_id"`
	Data      string `json:"data" gorm:"type:text"`
}

// 资金事件类型
const (
	FundingEventContribution     = "contribution_recorded" // 出资入账
	FundingEventThresholdReached = "threshold_reached"     // 达到众筹目标
	FundingEventPayoutCompleted  = "payout_completed"      // 结算完成
	FundingEventTopicRefunded    = "topic_refunded"        // 话题退款
)

// TableName 自定义表名
func (FundingEventModel) TableName() string {
	return "funding_event"
}
