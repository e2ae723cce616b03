package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TopicModel 话题众筹模型
type TopicModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Title       string `json:"title" gorm:"not null" binding:"required"`
	Description string `json:"description" gorm:"type:text"`

	// 众筹信息
	FundingThreshold decimal.Decimal `json:"funding_threshold" gorm:"type:numeric(18,2);not null" binding:"required"`
	CurrentFunding   decimal.Decimal `json:"current_funding" gorm:"type:numeric(18,2);default:0"`

	// 状态
	Status TopicStatus `json:"status" gorm:"default:'pending_approval';index"`

	// 参与方
	CreatorId       int64 `json:"creator_id" gorm:"not null;index"`
	InitiatorUserId int64 `json:"initiator_user_id" gorm:"not null"`

	// 内容交付
	ContentDeadline *time.Time `json:"content_deadline" gorm:"index"`
	ContentURL      string     `json:"content_url"`

	// 审核信息
	ApprovedAt *time.Time `json:"approved_at"`
	RejectedAt *time.Time `json:"rejected_at"`
}

// TopicStatus 话题状态
type TopicStatus string

const (
	TopicStatusPendingApproval TopicStatus = "pending_approval" // 待创作者审核
	TopicStatusActive          TopicStatus = "active"           // 众筹中
	TopicStatusFunded          TopicStatus = "funded"           // 已达标
	TopicStatusCompleted       TopicStatus = "completed"        // 内容已交付
	TopicStatusRejected        TopicStatus = "rejected"         // 创作者拒绝
	TopicStatusExpired         TopicStatus = "expired"          // 已过期
)

// TableName 自定义表名
func (TopicModel) TableName() string {
	return "topic"
}
