package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaylenmareko/topic-funding-sub001/internal/database"
	"github.com/jaylenmareko/topic-funding-sub001/internal/gateway"
	"github.com/jaylenmareko/topic-funding-sub001/internal/logic"
	"github.com/jaylenmareko/topic-funding-sub001/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testSecret = "whsec_test"

type stubGateway struct {
	payments map[string]*gateway.Payment
	down     bool
}

func (s *stubGateway) FetchPayment(_ context.Context, paymentId string) (*gateway.Payment, error) {
	if s.down {
		return nil, &gateway.TransientError{Op: "fetch_payment", Err: fmt.Errorf("timeout")}
	}
	p, ok := s.payments[paymentId]
	if !ok {
		return nil, gateway.ErrPaymentNotFound
	}
	return p, nil
}

func (s *stubGateway) FetchCheckoutSessionByPayment(context.Context, string) (*gateway.CheckoutSession, error) {
	return nil, gateway.ErrSessionNotFound
}

func (s *stubGateway) CreateTransfer(context.Context, string, decimal.Decimal, map[string]string) (*gateway.Transfer, error) {
	return &gateway.Transfer{Id: "tr_1", Status: "completed"}, nil
}

func (s *stubGateway) CreateRefund(context.Context, string, string) (*gateway.Refund, error) {
	return &gateway.Refund{Id: "re_1", Status: "succeeded"}, nil
}

func (s *stubGateway) ListPayments(context.Context, time.Time) ([]gateway.PaymentSummary, error) {
	return nil, nil
}

func setupWebhook(t *testing.T) (*gin.Engine, *gorm.DB, *stubGateway) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.Join(t.TempDir(), "ledger.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	gw := &stubGateway{payments: make(map[string]*gateway.Payment)}
	store := logic.NewLedgerStore(db)
	reconcile := logic.NewReconcileLogic(db, store, gw, nil, 48)

	r := gin.New()
	h := NewWebhookHandler(db, reconcile, testSecret)
	r.POST("/webhook/payment", h.HandlePaymentWebhook)
	return r, db, gw
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(r *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/payment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedWebhookTopic(t *testing.T, db *gorm.DB) *model.TopicModel {
	t.Helper()
	creator := &model.CreatorModel{
		Name:          "创作者",
		PayoutAccount: "acct_1",
		PayoutEnabled: true,
		FeeRate:       decimal.RequireFromString("0.10"),
	}
	require.NoError(t, db.Create(creator).Error)

	topic := &model.TopicModel{
		Title:            "话题",
		FundingThreshold: decimal.RequireFromString("100.00"),
		CurrentFunding:   decimal.Zero,
		Status:           model.TopicStatusActive,
		CreatorId:        creator.Id,
		InitiatorUserId:  1001,
	}
	require.NoError(t, db.Create(topic).Error)
	return topic
}

func TestWebhookProcessesPaymentSucceeded(t *testing.T) {
	r, db, gw := setupWebhook(t)
	topic := seedWebhookTopic(t, db)

	gw.payments["pay_w1"] = &gateway.Payment{
		Id:     "pay_w1",
		Amount: decimal.RequireFromString("20.00"),
		Status: gateway.PaymentStatusSucceeded,
		Metadata: gateway.PaymentMetadata{
			Purpose: gateway.PurposeTopicFunding,
			TopicId: topic.Id,
			UserId:  2001,
		},
	}

	body := []byte(`{"id":"evt_1","type":"payment.succeeded","data":{"payment_id":"pay_w1"}}`)
	w := postWebhook(r, body, sign(body))
	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, db.Model(&model.ContributionModel{}).Where("payment_id = ?", "pay_w1").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// 重复投递同一事件, 仍回200, 账本不变
	w = postWebhook(r, body, sign(body))
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, db.Model(&model.ContributionModel{}).Where("payment_id = ?", "pay_w1").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	r, db, gw := setupWebhook(t)
	topic := seedWebhookTopic(t, db)

	gw.payments["pay_w2"] = &gateway.Payment{
		Id:     "pay_w2",
		Amount: decimal.RequireFromString("20.00"),
		Status: gateway.PaymentStatusSucceeded,
		Metadata: gateway.PaymentMetadata{
			Purpose: gateway.PurposeTopicFunding,
			TopicId: topic.Id,
		},
	}

	body := []byte(`{"id":"evt_2","type":"payment.succeeded","data":{"payment_id":"pay_w2"}}`)

	// 签名错误和缺失都直接拒绝, 不触发任何处理
	w := postWebhook(r, body, "deadbeef")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = postWebhook(r, body, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	require.NoError(t, db.Model(&model.ContributionModel{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestWebhookIgnoresOtherEventTypes(t *testing.T) {
	r, db, _ := setupWebhook(t)

	body := []byte(`{"id":"evt_3","type":"payment.refunded","data":{"payment_id":"pay_w3"}}`)
	w := postWebhook(r, body, sign(body))
	assert.Equal(t, http.StatusOK, w.Code)

	// 留痕但不处理
	var event model.WebhookEventModel
	require.NoError(t, db.Where("event_id = ?", "evt_3").First(&event).Error)
	assert.True(t, event.SignatureValid)
	assert.Nil(t, event.ProcessedAt)
}

func TestWebhookTransientFailureReturns500(t *testing.T) {
	r, db, gw := setupWebhook(t)
	seedWebhookTopic(t, db)
	gw.down = true

	body := []byte(`{"id":"evt_4","type":"payment.succeeded","data":{"payment_id":"pay_w4"}}`)
	w := postWebhook(r, body, sign(body))
	// 5xx让网关按退避策略重发
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestWebhookValidationFailureReturns200(t *testing.T) {
	r, db, gw := setupWebhook(t)
	topic := seedWebhookTopic(t, db)

	// 声明金额与网关金额不符
	gw.payments["pay_w5"] = &gateway.Payment{
		Id:     "pay_w5",
		Amount: decimal.RequireFromString("12.00"),
		Status: gateway.PaymentStatusSucceeded,
		Metadata: gateway.PaymentMetadata{
			Purpose: gateway.PurposeTopicFunding,
			TopicId: topic.Id,
			Amount:  "10.00",
		},
	}

	body := []byte(`{"id":"evt_5","type":"payment.succeeded","data":{"payment_id":"pay_w5"}}`)
	w := postWebhook(r, body, sign(body))
	// 数据问题重发也不会好, 回200让网关停止重试
	assert.Equal(t, http.StatusOK, w.Code)

	var event model.WebhookEventModel
	require.NoError(t, db.Where("event_id = ?", "evt_5").First(&event).Error)
	assert.NotEmpty(t, event.ProcessError)

	var count int64
	require.NoError(t, db.Model(&model.ContributionModel{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
