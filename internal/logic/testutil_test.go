package logic

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jaylenmareko/topic-funding-sub001/internal/database"
	"github.com/jaylenmareko/topic-funding-sub001/internal/gateway"
	"github.com/jaylenmareko/topic-funding-sub001/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// openTestDB 打开临时文件上的 sqlite 账本
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", filepath.Join(t.TempDir(), "ledger.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, database.Migrate(db))
	return db
}

// fakeGateway 测试用网关
type fakeGateway struct {
	mu        sync.Mutex
	payments  map[string]*gateway.Payment
	sessions  map[string]*gateway.CheckoutSession
	summaries []gateway.PaymentSummary

	transient     bool
	failTransfer  bool
	transferCalls int
	refundCalls   int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		payments: make(map[string]*gateway.Payment),
		sessions: make(map[string]*gateway.CheckoutSession),
	}
}

func (f *fakeGateway) addPayment(p *gateway.Payment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments[p.Id] = p
}

func (f *fakeGateway) FetchPayment(_ context.Context, paymentId string) (*gateway.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transient {
		return nil, &gateway.TransientError{Op: "fetch_payment", Err: fmt.Errorf("connection refused")}
	}
	p, ok := f.payments[paymentId]
	if !ok {
		return nil, gateway.ErrPaymentNotFound
	}
	return p, nil
}

func (f *fakeGateway) FetchCheckoutSessionByPayment(_ context.Context, paymentId string) (*gateway.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transient {
		return nil, &gateway.TransientError{Op: "fetch_session", Err: fmt.Errorf("connection refused")}
	}
	s, ok := f.sessions[paymentId]
	if !ok {
		return nil, gateway.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeGateway) CreateTransfer(_ context.Context, _ string, amount decimal.Decimal, _ map[string]string) (*gateway.Transfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transferCalls++
	if f.transient {
		return nil, &gateway.TransientError{Op: "create_transfer", Err: fmt.Errorf("timeout")}
	}
	if f.failTransfer {
		return nil, fmt.Errorf("destination account blocked")
	}
	return &gateway.Transfer{
		Id:     fmt.Sprintf("tr_%d", f.transferCalls),
		Amount: amount,
		Status: "completed",
	}, nil
}

func (f *fakeGateway) CreateRefund(_ context.Context, paymentId string, _ string) (*gateway.Refund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refundCalls++
	if f.transient {
		return nil, &gateway.TransientError{Op: "create_refund", Err: fmt.Errorf("timeout")}
	}
	return &gateway.Refund{Id: "re_" + paymentId, Status: "succeeded"}, nil
}

func (f *fakeGateway) ListPayments(_ context.Context, _ time.Time) ([]gateway.PaymentSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transient {
		return nil, &gateway.TransientError{Op: "list_payments", Err: fmt.Errorf("timeout")}
	}
	return f.summaries, nil
}

// seedTopic 建一个众筹中的话题
func seedTopic(t *testing.T, db *gorm.DB, threshold string) *model.TopicModel {
	t.Helper()

	creator := seedCreator(t, db, "0.10", true)
	topic := &model.TopicModel{
		Title:            "测试话题",
		FundingThreshold: mustDecimal(t, threshold),
		CurrentFunding:   decimal.Zero,
		Status:           model.TopicStatusActive,
		CreatorId:        creator.Id,
		InitiatorUserId:  1001,
	}
	require.NoError(t, db.Create(topic).Error)
	return topic
}

// seedCreator 建一个创作者
func seedCreator(t *testing.T, db *gorm.DB, feeRate string, payoutEnabled bool) *model.CreatorModel {
	t.Helper()

	creator := &model.CreatorModel{
		Name:          "测试创作者",
		PayoutAccount: "acct_test",
		PayoutEnabled: payoutEnabled,
		FeeRate:       mustDecimal(t, feeRate),
		TotalEarnings: decimal.Zero,
	}
	require.NoError(t, db.Create(creator).Error)
	return creator
}

// seedContribution 直接落一笔成功出资并同步话题金额
func seedContribution(t *testing.T, db *gorm.DB, topicId int64, paymentId, amount string) *model.ContributionModel {
	t.Helper()

	contribution := &model.ContributionModel{
		TopicId:       topicId,
		UserId:        2001,
		Amount:        mustDecimal(t, amount),
		PaymentStatus: model.PaymentStatusSucceeded,
		PaymentId:     paymentId,
		ContributedAt: time.Now(),
	}
	require.NoError(t, db.Create(contribution).Error)
	require.NoError(t, NewLedgerStore(db).RecomputeTopicFunding(db, topicId))
	return contribution
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func succeededPayment(id, amount string, meta gateway.PaymentMetadata) *gateway.Payment {
	return &gateway.Payment{
		Id:       id,
		Amount:   decimal.RequireFromString(amount),
		Currency: "cny",
		Status:   gateway.PaymentStatusSucceeded,
		Metadata: meta,
	}
}
