package gateway

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// 支付用途, 写在支付单的 metadata 里
const (
	PurposeTopicCreation = "topic_creation" // 首笔出资, 话题尚未创建
	PurposeTopicFunding  = "topic_funding"  // 对已有话题出资
)

// Payment 网关侧的支付单
type Payment struct {
	Id       string          `json:"id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Status   string          `json:"status"` // succeeded, pending, failed
	Metadata PaymentMetadata `json:"metadata"`
}

// PaymentMetadata 支付单携带的业务元数据
type PaymentMetadata struct {
	Purpose   string `json:"purpose"`
	TopicId   int64  `json:"topic_id,string"`
	UserId    int64  `json:"user_id,string"`
	SessionId string `json:"session_id"`
	Amount    string `json:"amount"` // 下单时声明的金额, 用于与网关金额核对
}

// CheckoutSession 网关侧的支付会话
type CheckoutSession struct {
	Id        string          `json:"id"`
	PaymentId string          `json:"payment_id"`
	Metadata  PaymentMetadata `json:"metadata"`
}

// Transfer 网关侧的转账单
type Transfer struct {
	Id     string          `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Status string          `json:"status"`
}

// Refund 网关侧的退款单
type Refund struct {
	Id     string `json:"id"`
	Status string `json:"status"`
}

// PaymentSummary 支付单摘要, 用于对账回扫
type PaymentSummary struct {
	Id        string          `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// PaymentStatusSucceeded 网关侧支付成功状态
const PaymentStatusSucceeded = "succeeded"

// Gateway 支付网关接口
// 对账引擎和结算逻辑只依赖这个接口, 不关心网关的具体实现
type Gateway interface {
	// FetchPayment 按ID获取支付单, 这是金额和状态的唯一可信来源
	FetchPayment(ctx context.Context, paymentId string) (*Payment, error)
	// FetchCheckoutSessionByPayment 支付单缺少元数据时兜底查会话
	FetchCheckoutSessionByPayment(ctx context.Context, paymentId string) (*CheckoutSession, error)
	// CreateTransfer 向创作者账户发起转账
	CreateTransfer(ctx context.Context, destination string, amount decimal.Decimal, metadata map[string]string) (*Transfer, error)
	// CreateRefund 对一笔支付发起退款
	CreateRefund(ctx context.Context, paymentId string, reason string) (*Refund, error)
	// ListPayments 列出窗口内网关已确认成功的支付单
	ListPayments(ctx context.Context, since time.Time) ([]PaymentSummary, error)
}
