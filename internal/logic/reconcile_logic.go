package logic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jaylenmareko/topic-funding-sub001/internal/gateway"
	"github.com/jaylenmareko/topic-funding-sub001/internal/logger"
	"github.com/jaylenmareko/topic-funding-sub001/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Notifier 下游通知接口, 尽力而为, 不参与事务
type Notifier interface {
	Dispatch(event string, payload map[string]interface{})
}

// ReconcileResult 对账结果
type ReconcileResult struct {
	AlreadyProcessed bool  `json:"already_processed"`
	TopicId          int64 `json:"topic_id"`
	ContributionId   int64 `json:"contribution_id"`
	ThresholdReached bool  `json:"threshold_reached"`
}

// ReconcileLogic 支付对账引擎
// 把一个网关确认成功的支付单号变成恰好一次的账本变更
// webhook、人工重放、定时回扫都走 ProcessPaymentSuccess 这一个入口
type ReconcileLogic struct {
	db          *gorm.DB
	store       *LedgerStore
	gw          gateway.Gateway
	notifier    Notifier
	gracePeriod time.Duration
}

// NewReconcileLogic 创建对账引擎
func NewReconcileLogic(db *gorm.DB, store *LedgerStore, gw gateway.Gateway, notifier Notifier, graceHours int) *ReconcileLogic {
	if graceHours <= 0 {
		graceHours = 48
	}
	return &ReconcileLogic{
		db:          db,
		store:       store,
		gw:          gw,
		notifier:    notifier,
		gracePeriod: time.Duration(graceHours) * time.Hour,
	}
}

// ProcessPaymentSuccess 处理一笔支付成功
// 任意次数、任意并发地调用, 最终只会产生一条成功出资记录和一次金额入账
func (r *ReconcileLogic) ProcessPaymentSuccess(ctx context.Context, paymentId string) (*ReconcileResult, error) {
	if paymentId == "" {
		return nil, NewValidationError("支付单号不能为空")
	}

	// 1. 幂等快路径: 已入账直接返回
	existing, err := r.store.GetSucceededContribution(paymentId)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &ReconcileResult{
			AlreadyProcessed: true,
			TopicId:          existing.TopicId,
			ContributionId:   existing.Id,
		}, nil
	}

	// 2. 以网关为准获取支付单, webhook 的内容只当触发信号
	payment, err := r.gw.FetchPayment(ctx, paymentId)
	if err != nil {
		if errors.Is(err, gateway.ErrPaymentNotFound) {
			return nil, NewValidationError("网关不存在支付单 %s", paymentId)
		}
		return nil, err
	}

	// 3. 网关侧未成功的支付不入账
	if payment.Status != gateway.PaymentStatusSucceeded {
		return nil, NewValidationError("支付单 %s 网关状态为 %s, 不是 succeeded", paymentId, payment.Status)
	}

	// 4. 元数据缺失时兜底查支付会话
	meta := payment.Metadata
	if meta.Purpose == "" {
		session, err := r.gw.FetchCheckoutSessionByPayment(ctx, paymentId)
		if err != nil {
			if errors.Is(err, gateway.ErrSessionNotFound) || errors.Is(err, gateway.ErrPaymentNotFound) {
				return nil, NewValidationError("支付单 %s 缺少元数据且查不到支付会话", paymentId)
			}
			return nil, err
		}
		meta = session.Metadata
		if meta.SessionId == "" {
			meta.SessionId = session.Id
		}
	}

	// 5. 核对下单时声明的金额与网关实际金额
	if meta.Amount != "" {
		declared, err := decimal.NewFromString(meta.Amount)
		if err != nil {
			return nil, NewValidationError("支付单 %s 声明金额非法: %s", paymentId, meta.Amount)
		}
		if !declared.Equal(payment.Amount) {
			return nil, NewValidationError("支付单 %s 金额不符: 声明 %s, 网关 %s",
				paymentId, declared.StringFixed(2), payment.Amount.StringFixed(2))
		}
	}

	switch meta.Purpose {
	case gateway.PurposeTopicCreation:
		return r.processTopicCreation(payment, meta)
	case gateway.PurposeTopicFunding:
		return r.processTopicFunding(payment, meta)
	default:
		return nil, NewValidationError("支付单 %s 用途未知: %q", paymentId, meta.Purpose)
	}
}

// processTopicCreation 首笔出资: 消费暂存会话, 建话题并入账
func (r *ReconcileLogic) processTopicCreation(payment *gateway.Payment, meta gateway.PaymentMetadata) (*ReconcileResult, error) {
	if meta.SessionId == "" {
		return nil, NewValidationError("支付单 %s 用途为建话题但缺少会话ID", payment.Id)
	}

	result := &ReconcileResult{}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		session, err := r.store.ConsumeCheckoutSession(tx, meta.SessionId)
		if err != nil {
			if errors.Is(err, ErrStateConflict) {
				// 会话已被消费, 说明这笔支付已经处理过
				return ErrDuplicateKey
			}
			if errors.Is(err, ErrSessionNotFound) {
				return NewValidationError("支付单 %s 引用的会话 %s 不存在", payment.Id, meta.SessionId)
			}
			return err
		}

		topic := &model.TopicModel{
			Title:            session.Title,
			Description:      session.Description,
			FundingThreshold: session.FundingThreshold,
			CurrentFunding:   decimal.Zero,
			Status:           model.TopicStatusActive,
			CreatorId:        session.CreatorId,
			InitiatorUserId:  session.InitiatorUserId,
		}
		if err := tx.Create(topic).Error; err != nil {
			return err
		}

		contributionId, err := r.recordContribution(tx, topic.Id, session.InitiatorUserId, payment)
		if err != nil {
			return err
		}

		reached, err := r.applyFunding(tx, topic.Id, payment.Id)
		if err != nil {
			return err
		}

		result.TopicId = topic.Id
		result.ContributionId = contributionId
		result.ThresholdReached = reached
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			return &ReconcileResult{AlreadyProcessed: true}, nil
		}
		return nil, err
	}

	r.dispatchAfterCommit(result, payment)
	return result, nil
}

// processTopicFunding 对已有话题的出资入账
func (r *ReconcileLogic) processTopicFunding(payment *gateway.Payment, meta gateway.PaymentMetadata) (*ReconcileResult, error) {
	if meta.TopicId <= 0 {
		return nil, NewValidationError("支付单 %s 缺少话题ID", payment.Id)
	}

	result := &ReconcileResult{TopicId: meta.TopicId}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var topic model.TopicModel
		if err := tx.First(&topic, meta.TopicId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewValidationError("支付单 %s 引用的话题 %d 不存在", payment.Id, meta.TopicId)
			}
			return err
		}

		// 达标后晚到的支付也入账, 保持 current_funding 等于成功出资之和
		if topic.Status != model.TopicStatusActive && topic.Status != model.TopicStatusFunded {
			return NewValidationError("话题 %d 状态为 %s, 不接受出资", topic.Id, topic.Status)
		}

		contributionId, err := r.recordContribution(tx, topic.Id, meta.UserId, payment)
		if err != nil {
			return err
		}

		reached, err := r.applyFunding(tx, topic.Id, payment.Id)
		if err != nil {
			return err
		}

		result.ContributionId = contributionId
		result.ThresholdReached = reached
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			return &ReconcileResult{AlreadyProcessed: true, TopicId: meta.TopicId}, nil
		}
		return nil, err
	}

	r.dispatchAfterCommit(result, payment)
	return result, nil
}

// recordContribution 插入成功出资记录并留痕
func (r *ReconcileLogic) recordContribution(tx *gorm.DB, topicId, userId int64, payment *gateway.Payment) (int64, error) {
	contribution := &model.ContributionModel{
		TopicId:       topicId,
		UserId:        userId,
		Amount:        payment.Amount,
		PaymentStatus: model.PaymentStatusSucceeded,
		PaymentId:     payment.Id,
		ContributedAt: time.Now(),
	}
	if err := r.store.InsertContribution(tx, contribution); err != nil {
		return 0, err
	}

	event := &model.FundingEventModel{
		TopicId:   topicId,
		EventType: model.FundingEventContribution,
		PaymentId: payment.Id,
		Data:      fmt.Sprintf(`{"amount":"%s","user_id":%d}`, payment.Amount.StringFixed(2), userId),
	}
	if err := r.store.InsertFundingEvent(tx, event); err != nil {
		return 0, err
	}
	return contribution.Id, nil
}

// applyFunding 重算已筹金额并在达标时迁移状态
// 与出资插入同一事务, 两笔并发出资不可能都看到未达标的旧余额
func (r *ReconcileLogic) applyFunding(tx *gorm.DB, topicId int64, paymentId string) (bool, error) {
	if err := r.store.RecomputeTopicFunding(tx, topicId); err != nil {
		return false, err
	}

	var topic model.TopicModel
	if err := tx.First(&topic, topicId).Error; err != nil {
		return false, err
	}

	if topic.Status != model.TopicStatusActive || topic.CurrentFunding.LessThan(topic.FundingThreshold) {
		return false, nil
	}

	deadline := time.Now().Add(r.gracePeriod)
	err := r.store.TransitionTopicStatus(tx, topicId,
		model.TopicStatusActive, model.TopicStatusFunded,
		map[string]interface{}{"content_deadline": &deadline})
	if err != nil {
		if errors.Is(err, ErrStateConflict) {
			// 并发事务已完成迁移
			return false, nil
		}
		return false, err
	}

	event := &model.FundingEventModel{
		TopicId:   topicId,
		EventType: model.FundingEventThresholdReached,
		PaymentId: paymentId,
		Data: fmt.Sprintf(`{"current_funding":"%s","funding_threshold":"%s"}`,
			topic.CurrentFunding.StringFixed(2), topic.FundingThreshold.StringFixed(2)),
	}
	if err := r.store.InsertFundingEvent(tx, event); err != nil {
		return false, err
	}
	return true, nil
}

// dispatchAfterCommit 提交后的尽力而为通知
func (r *ReconcileLogic) dispatchAfterCommit(result *ReconcileResult, payment *gateway.Payment) {
	if r.notifier == nil {
		return
	}
	r.notifier.Dispatch(model.FundingEventContribution, map[string]interface{}{
		"topic_id":        result.TopicId,
		"contribution_id": result.ContributionId,
		"payment_id":      payment.Id,
		"amount":          payment.Amount.StringFixed(2),
	})
	if result.ThresholdReached {
		r.notifier.Dispatch(model.FundingEventThresholdReached, map[string]interface{}{
			"topic_id": result.TopicId,
		})
	}
}

// ListUnprocessedPayments 列出网关已确认成功但账本缺失的支付单
// 供运营排查和定时回扫使用
func (r *ReconcileLogic) ListUnprocessedPayments(ctx context.Context, window time.Duration) ([]gateway.PaymentSummary, error) {
	payments, err := r.gw.ListPayments(ctx, time.Now().Add(-window))
	if err != nil {
		return nil, err
	}

	var missing []gateway.PaymentSummary
	for _, p := range payments {
		if p.Status != gateway.PaymentStatusSucceeded {
			continue
		}
		existing, err := r.store.GetSucceededContribution(p.Id)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		logger.Warn("Found %d succeeded payments missing from ledger", len(missing))
	}
	return missing, nil
}
