package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaylenmareko/topic-funding-sub001/internal/gateway"
	"github.com/jaylenmareko/topic-funding-sub001/internal/logger"
	"github.com/jaylenmareko/topic-funding-sub001/internal/logic"
	"github.com/jaylenmareko/topic-funding-sub001/internal/model"
	"gorm.io/gorm"
)

// SignatureHeader 网关签名头
const SignatureHeader = "X-Gateway-Signature"

// EventTypePaymentSucceeded 触发对账的事件类型
const EventTypePaymentSucceeded = "payment.succeeded"

// WebhookHandler 网关 webhook 接收器
// 只做验签和分发, 去重完全交给对账引擎和账本的唯一约束
type WebhookHandler struct {
	db        *gorm.DB
	reconcile *logic.ReconcileLogic
	secret    string
}

// NewWebhookHandler 创建 webhook 接收器
func NewWebhookHandler(db *gorm.DB, reconcile *logic.ReconcileLogic, secret string) *WebhookHandler {
	return &WebhookHandler{db: db, reconcile: reconcile, secret: secret}
}

// webhookEnvelope 网关事件信封
type webhookEnvelope struct {
	Id   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		PaymentId string `json:"payment_id"`
	} `json:"data"`
}

// HandlePaymentWebhook 处理网关支付事件
// 网关对非2xx响应会按自己的退避策略重发, 重复投递是常态输入
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "读取请求体失败")
		return
	}

	signature := c.GetHeader(SignatureHeader)
	if !h.verifySignature(body, signature) {
		// 验签失败不做任何处理, 留安全日志
		logger.Error("Webhook signature verification failed from %s", c.ClientIP())
		h.recordEvent(&model.WebhookEventModel{
			Payload:        string(body),
			SignatureValid: false,
			ProcessError:   "signature mismatch",
		})
		ErrorResponse(c, http.StatusBadRequest, "签名校验失败")
		return
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "事件格式非法")
		return
	}

	event := &model.WebhookEventModel{
		EventId:        envelope.Id,
		EventType:      envelope.Type,
		PaymentId:      envelope.Data.PaymentId,
		Payload:        string(body),
		SignatureValid: true,
	}

	// 只关心支付成功事件, 其余类型留痕后忽略
	if envelope.Type != EventTypePaymentSucceeded {
		logger.Info("Ignoring webhook event %s of type %s", envelope.Id, envelope.Type)
		h.recordEvent(event)
		SuccessResponse(c, http.StatusOK, "事件已忽略", nil)
		return
	}

	result, err := h.reconcile.ProcessPaymentSuccess(c.Request.Context(), envelope.Data.PaymentId)
	if err != nil {
		event.ProcessError = err.Error()
		h.recordEvent(event)

		if logic.IsValidation(err) {
			// 数据问题重发也不会好, 回200让网关停止重试, 留给运营排查
			logger.Error("Webhook %s validation failed: %v", envelope.Id, err)
			ErrorResponse(c, http.StatusOK, err.Error())
			return
		}
		if gateway.IsTransient(err) {
			// 回5xx让网关按退避策略重发
			ErrorResponse(c, http.StatusInternalServerError, "网关暂时不可达, 等待重试")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "处理失败")
		return
	}

	now := time.Now()
	event.ProcessedAt = &now
	h.recordEvent(event)

	// 新处理和幂等空操作都回200
	SuccessResponse(c, http.StatusOK, "处理成功", result)
}

// verifySignature 校验请求体的 HMAC-SHA256 签名
func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// recordEvent webhook 事件留痕, 失败不影响主流程
func (h *WebhookHandler) recordEvent(event *model.WebhookEventModel) {
	if err := h.db.Create(event).Error; err != nil {
		logger.Error("Failed to record webhook event %s: %v", event.EventId, err)
	}
}
