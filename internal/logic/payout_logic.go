package logic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jaylenmareko/topic-funding-sub001/internal/gateway"
	"github.com/jaylenmareko/topic-funding-sub001/internal/logger"
	"github.com/jaylenmareko/topic-funding-sub001/internal/model"
	"gorm.io/gorm"
)

// PayoutLogic 创作者结算逻辑
type PayoutLogic struct {
	db       *gorm.DB
	store    *LedgerStore
	gw       gateway.Gateway
	notifier Notifier
}

// NewPayoutLogic 创建结算逻辑
func NewPayoutLogic(db *gorm.DB, store *LedgerStore, gw gateway.Gateway, notifier Notifier) *PayoutLogic {
	return &PayoutLogic{db: db, store: store, gw: gw, notifier: notifier}
}

// InitiatePayout 对一个话题发起结算
// 先落 processing 记录再调网关转账, 中途崩溃会留下可追查的 processing 状态而不是悄无声息
func (p *PayoutLogic) InitiatePayout(ctx context.Context, topicId int64) (*model.PayoutModel, error) {
	var topic model.TopicModel
	if err := p.db.First(&topic, topicId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTopicNotFound
		}
		return nil, err
	}

	// 内容交付完成才可结算
	if topic.Status != model.TopicStatusCompleted {
		return nil, NewValidationError("话题 %d 状态为 %s, 未到可结算状态", topicId, topic.Status)
	}

	var creator model.CreatorModel
	if err := p.db.First(&creator, topic.CreatorId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCreatorNotFound
		}
		return nil, err
	}
	if !creator.PayoutEnabled {
		return nil, ErrPayoutDisabled
	}

	// 单一取整规则: 手续费四舍五入两位小数, 净额做减法, 两者之和严格等于总额
	gross := topic.CurrentFunding
	platformFee := gross.Mul(creator.FeeRate).Round(2)
	netAmount := gross.Sub(platformFee)

	payout := &model.PayoutModel{
		CreatorId:   creator.Id,
		TopicId:     topic.Id,
		Amount:      gross,
		PlatformFee: platformFee,
		NetAmount:   netAmount,
		Status:      model.PayoutStatusProcessing,
	}

	// 事务一: 占坑, 同话题的并发结算在这里被唯一性挡掉
	err := p.db.Transaction(func(tx *gorm.DB) error {
		return p.store.InsertPayout(tx, payout)
	})
	if err != nil {
		return nil, err
	}

	// 网关转账在事务外, 不把数据库事务横跨网络调用
	transfer, err := p.gw.CreateTransfer(ctx, creator.PayoutAccount, netAmount, map[string]string{
		"topic_id":  fmt.Sprintf("%d", topic.Id),
		"payout_id": fmt.Sprintf("%d", payout.Id),
	})
	if err != nil {
		logger.Error("Transfer failed for topic %d payout %d: %v", topic.Id, payout.Id, err)
		p.markFailed(payout, err.Error())
		return nil, fmt.Errorf("结算转账失败: %w", err)
	}

	// 事务二: 落账并累加创作者收入
	now := time.Now()
	err = p.db.Transaction(func(tx *gorm.DB) error {
		if err := p.store.UpdatePayoutStatus(tx, payout.Id,
			model.PayoutStatusProcessing, model.PayoutStatusCompleted,
			map[string]interface{}{"transfer_id": transfer.Id, "paid_at": &now}); err != nil {
			return err
		}

		if err := tx.Model(&model.CreatorModel{}).
			Where("id = ?", creator.Id).
			Update("total_earnings", gorm.Expr("total_earnings + ?", netAmount)).Error; err != nil {
			return err
		}

		return p.store.InsertFundingEvent(tx, &model.FundingEventModel{
			TopicId:   topic.Id,
			EventType: model.FundingEventPayoutCompleted,
			Data: fmt.Sprintf(`{"payout_id":%d,"net_amount":"%s","platform_fee":"%s"}`,
				payout.Id, netAmount.StringFixed(2), platformFee.StringFixed(2)),
		})
	})
	if err != nil {
		// 转账已发出但落账失败, 留在 processing 状态等运营核对
		logger.Error("Failed to finalize payout %d after transfer %s: %v", payout.Id, transfer.Id, err)
		return nil, err
	}

	payout.Status = model.PayoutStatusCompleted
	payout.TransferId = transfer.Id
	payout.PaidAt = &now

	logger.Info("Payout %d completed for topic %d: gross=%s fee=%s net=%s",
		payout.Id, topic.Id, gross.StringFixed(2), platformFee.StringFixed(2), netAmount.StringFixed(2))

	if p.notifier != nil {
		p.notifier.Dispatch(model.FundingEventPayoutCompleted, map[string]interface{}{
			"topic_id":   topic.Id,
			"payout_id":  payout.Id,
			"net_amount": netAmount.StringFixed(2),
		})
	}
	return payout, nil
}

// markFailed 转账失败后标记结算记录, 不自动重试
func (p *PayoutLogic) markFailed(payout *model.PayoutModel, reason string) {
	err := p.db.Transaction(func(tx *gorm.DB) error {
		return p.store.UpdatePayoutStatus(tx, payout.Id,
			model.PayoutStatusProcessing, model.PayoutStatusFailed,
			map[string]interface{}{"failure_reason": reason})
	})
	if err != nil {
		logger.Error("Failed to mark payout %d as failed: %v", payout.Id, err)
		return
	}
	payout.Status = model.PayoutStatusFailed
	payout.FailureReason = reason
}

// GetTopicPayouts 查询话题的结算记录
func (p *PayoutLogic) GetTopicPayouts(topicId int64) ([]model.PayoutModel, error) {
	var payouts []model.PayoutModel
	if err := p.db.Where("topic_id = ?", topicId).Order("created_at DESC").Find(&payouts).Error; err != nil {
		return nil, fmt.Errorf("获取结算记录失败: %w", err)
	}
	return payouts, nil
}
