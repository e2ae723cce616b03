package model

import (
	"time"
)

// WebhookEventModel 网关 webhook 事件记录
// 网关按至少一次的语义投递, 这里只做审计留痕, 去重由账本的唯一约束保证
type WebhookEventModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	EventId        string     `json:"event_id" gorm:"index;not null"`
	EventType      string     `json:"event_type" gorm:"not null"`
	PaymentId      string     `json:"payment_id" gorm:"index"`
	Payload        string     `json:"payload" gorm:"type:text"`
	SignatureValid bool       `json:"signature_valid" gorm:"default:false"`
	ProcessedAt    *time.Time `json:"processed_at"`
	ProcessError   string     `json:"process_error" gorm:"type:text"`
}

// TableName 自定义表名
func (WebhookEventModel) TableName() string {
	return "webhook_event"
}
