package handler

import (
	"github.com/shopspring/decimal"
)

// Response 统一响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Pagination 分页信息
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"total_page"`
}

// CreateTopicRequest 创建待审核话题请求
type CreateTopicRequest struct {
	Title            string          `json:"title" binding:"required"`
	Description      string          `json:"description"`
	FundingThreshold decimal.Decimal `json:"funding_threshold" binding:"required"`
	CreatorId        int64           `json:"creator_id" binding:"required"`
	InitiatorUserId  int64           `json:"initiator_user_id" binding:"required"`
}

// StageCheckoutSessionRequest 暂存支付会话请求
type StageCheckoutSessionRequest struct {
	SessionId        string          `json:"session_id" binding:"required"`
	InitiatorUserId  int64           `json:"initiator_user_id" binding:"required"`
	CreatorId        int64           `json:"creator_id" binding:"required"`
	Title            string          `json:"title" binding:"required"`
	Description      string          `json:"description"`
	FundingThreshold decimal.Decimal `json:"funding_threshold" binding:"required"`
	Amount           decimal.Decimal `json:"amount" binding:"required"`
}

// CreateCreatorRequest 创作者入驻请求
// fee_rate 缺省时使用平台默认费率
type CreateCreatorRequest struct {
	Name          string          `json:"name" binding:"required"`
	PayoutAccount string          `json:"payout_account"`
	PayoutEnabled bool            `json:"payout_enabled"`
	FeeRate       decimal.Decimal `json:"fee_rate"`
}

// RejectTopicRequest 拒绝话题请求
type RejectTopicRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// DeliverContentRequest 内容交付请求
type DeliverContentRequest struct {
	ContentURL string `json:"content_url" binding:"required"`
}
