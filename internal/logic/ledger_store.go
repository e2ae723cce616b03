package logic

import (
	"errors"
	"strings"
	"time"

	"github.com/jaylenmareko/topic-funding-sub001/internal/model"
	"gorm.io/gorm"
)

// LedgerStore 账本存储原语
// 唯一约束和条件更新都收敛在这一层, 上层逻辑不允许绕过
type LedgerStore struct {
	db *gorm.DB
}

// NewLedgerStore 创建账本存储
func NewLedgerStore(db *gorm.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// GetSucceededContribution 按支付单号查已入账的出资记录（幂等快路径）
func (s *LedgerStore) GetSucceededContribution(paymentId string) (*model.ContributionModel, error) {
	var contribution model.ContributionModel
	err := s.db.Where("payment_id = ? AND payment_status = ?", paymentId, model.PaymentStatusSucceeded).
		First(&contribution).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &contribution, nil
}

// InsertContribution 插入出资记录
// payment_id 的唯一约束在数据库层兜底, 冲突时返回 ErrDuplicateKey
func (s *LedgerStore) InsertContribution(tx *gorm.DB, contribution *model.ContributionModel) error {
	if err := tx.Create(contribution).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateKey
		}
		return err
	}
	return nil
}

// RecomputeTopicFunding 全量重算话题的已筹金额
// 不做增量累加, 任何历史上的部分失败都会被这次重算修正
// UPDATE 会拿住话题行锁, 同一话题的并发出资在这里被串行化
func (s *LedgerStore) RecomputeTopicFunding(tx *gorm.DB, topicId int64) error {
	result := tx.Exec(`
		UPDATE topic
		SET current_funding = (
			SELECT COALESCE(SUM(amount), 0)
			FROM contribution
			WHERE topic_id = ? AND payment_status = ?
		), updated_at = ?
		WHERE id = ?`,
		topicId, model.PaymentStatusSucceeded, time.Now(), topicId)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTopicNotFound
	}
	return nil
}

// TransitionTopicStatus 话题状态条件迁移
// expectedFrom 不再匹配说明别的事务已经迁移过, 返回 ErrStateConflict, 调用方按无操作成功处理
func (s *LedgerStore) TransitionTopicStatus(tx *gorm.DB, topicId int64, expectedFrom, to model.TopicStatus, extra map[string]interface{}) error {
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}

	result := tx.Model(&model.TopicModel{}).
		Where("id = ? AND status = ?", topicId, expectedFrom).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStateConflict
	}
	return nil
}

// InsertPayout 插入结算记录
// 同一话题最多存在一条非失败结算, 由部分唯一索引兜底
func (s *LedgerStore) InsertPayout(tx *gorm.DB, payout *model.PayoutModel) error {
	var count int64
	err := tx.Model(&model.PayoutModel{}).
		Where("topic_id = ? AND status <> ?", payout.TopicId, model.PayoutStatusFailed).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrAlreadyProcessed
	}

	if err := tx.Create(payout).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrAlreadyProcessed
		}
		return err
	}
	return nil
}

// UpdatePayoutStatus 结算状态条件迁移
func (s *LedgerStore) UpdatePayoutStatus(tx *gorm.DB, payoutId int64, expectedFrom, to model.PayoutStatus, extra map[string]interface{}) error {
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}

	result := tx.Model(&model.PayoutModel{}).
		Where("id = ? AND status = ?", payoutId, expectedFrom).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStateConflict
	}
	return nil
}

// ConsumeCheckoutSession 消费支付会话暂存记录, 只能成功一次
func (s *LedgerStore) ConsumeCheckoutSession(tx *gorm.DB, sessionId string) (*model.CheckoutSessionModel, error) {
	var session model.CheckoutSessionModel
	if err := tx.Where("session_id = ?", sessionId).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	now := time.Now()
	result := tx.Model(&model.CheckoutSessionModel{}).
		Where("session_id = ? AND consumed = ?", sessionId, false).
		Updates(map[string]interface{}{"consumed": true, "consumed_at": &now})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrStateConflict
	}
	return &session, nil
}

// InsertFundingEvent 记录资金事件
func (s *LedgerStore) InsertFundingEvent(tx *gorm.DB, event *model.FundingEventModel) error {
	return tx.Create(event).Error
}

// isDuplicateKey 识别唯一约束冲突
// gorm 的错误翻译覆盖 postgres, sqlite 驱动下兜底做字符串匹配
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
