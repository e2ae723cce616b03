package logic

import (
	"errors"
	"fmt"
	"time"

	"github.com/jaylenmareko/topic-funding-sub001/internal/logger"
	"github.com/jaylenmareko/topic-funding-sub001/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TopicLogic 话题业务逻辑
type TopicLogic struct {
	db     *gorm.DB
	store  *LedgerStore
	refund *RefundLogic
}

// NewTopicLogic 创建话题业务逻辑
func NewTopicLogic(db *gorm.DB, store *LedgerStore, refund *RefundLogic) *TopicLogic {
	return &TopicLogic{db: db, store: store, refund: refund}
}

// CreateTopic 创建待审核话题（无首笔支付的提案路径）
func (t *TopicLogic) CreateTopic(topic *model.TopicModel) error {
	if err := t.validateTopic(topic); err != nil {
		return err
	}

	topic.Status = model.TopicStatusPendingApproval
	topic.CurrentFunding = decimal.Zero
	topic.ContentDeadline = nil

	if err := t.db.Create(topic).Error; err != nil {
		return err
	}
	return nil
}

// StageCheckoutSession 暂存带首笔支付的建话题数据
// 等该会话的支付成功后由对账引擎消费, 替代把表单数据放在内存会话里的做法
func (t *TopicLogic) StageCheckoutSession(session *model.CheckoutSessionModel) error {
	if session.SessionId == "" {
		return NewValidationError("会话ID不能为空")
	}
	if session.Title == "" {
		return NewValidationError("话题标题不能为空")
	}
	if !session.FundingThreshold.IsPositive() {
		return NewValidationError("众筹目标金额必须大于0")
	}
	if !session.Amount.IsPositive() {
		return NewValidationError("首笔出资金额必须大于0")
	}

	if err := t.db.Create(session).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateKey
		}
		return err
	}
	return nil
}

// ApproveTopic 创作者通过审核, 话题开始众筹
func (t *TopicLogic) ApproveTopic(topicId int64) error {
	now := time.Now()
	err := t.db.Transaction(func(tx *gorm.DB) error {
		return t.store.TransitionTopicStatus(tx, topicId,
			model.TopicStatusPendingApproval, model.TopicStatusActive,
			map[string]interface{}{"approved_at": &now})
	})
	if errors.Is(err, ErrStateConflict) {
		return NewValidationError("话题 %d 不在待审核状态", topicId)
	}
	return err
}

// RejectTopic 创作者拒绝话题, 已有出资全部退款
func (t *TopicLogic) RejectTopic(topicId int64, reason string) error {
	now := time.Now()
	err := t.db.Transaction(func(tx *gorm.DB) error {
		return t.store.TransitionTopicStatus(tx, topicId,
			model.TopicStatusPendingApproval, model.TopicStatusRejected,
			map[string]interface{}{"rejected_at": &now})
	})
	if err != nil {
		if errors.Is(err, ErrStateConflict) {
			return NewValidationError("话题 %d 不在待审核状态", topicId)
		}
		return err
	}

	if _, err := t.refund.RefundTopic(topicId, reason); err != nil {
		return err
	}
	return nil
}

// DeliverContent 创作者在截止时间前交付内容, 话题进入已完成
func (t *TopicLogic) DeliverContent(topicId int64, contentURL string) error {
	if contentURL == "" {
		return NewValidationError("内容链接不能为空")
	}

	var topic model.TopicModel
	if err := t.db.First(&topic, topicId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTopicNotFound
		}
		return err
	}

	if topic.ContentDeadline != nil && time.Now().After(*topic.ContentDeadline) {
		return NewValidationError("话题 %d 已过交付截止时间", topicId)
	}

	err := t.db.Transaction(func(tx *gorm.DB) error {
		return t.store.TransitionTopicStatus(tx, topicId,
			model.TopicStatusFunded, model.TopicStatusCompleted,
			map[string]interface{}{"content_url": contentURL})
	})
	if errors.Is(err, ErrStateConflict) {
		return NewValidationError("话题 %d 不在已达标状态, 无法交付", topicId)
	}
	return err
}

// ExpireOverdueTopics 过期清扫: 达标但超过交付截止时间的话题置为过期并退款
// 对账引擎写下的 content_deadline 就是这里的清扫依据
func (t *TopicLogic) ExpireOverdueTopics() (int, error) {
	var topics []model.TopicModel
	err := t.db.Where("status = ? AND content_deadline IS NOT NULL AND content_deadline < ?",
		model.TopicStatusFunded, time.Now()).Find(&topics).Error
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, topic := range topics {
		err := t.db.Transaction(func(tx *gorm.DB) error {
			return t.store.TransitionTopicStatus(tx, topic.Id,
				model.TopicStatusFunded, model.TopicStatusExpired, nil)
		})
		if err != nil {
			if errors.Is(err, ErrStateConflict) {
				// 并发清扫或刚刚交付, 跳过
				continue
			}
			logger.Error("Failed to expire topic %d: %v", topic.Id, err)
			continue
		}

		if _, err := t.refund.RefundTopic(topic.Id, "内容未按期交付"); err != nil {
			logger.Error("Failed to create refunds for expired topic %d: %v", topic.Id, err)
			continue
		}
		expired++
	}
	return expired, nil
}

// GetTopic 获取话题详情
func (t *TopicLogic) GetTopic(id int64) (*model.TopicModel, error) {
	var topic model.TopicModel
	if err := t.db.First(&topic, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTopicNotFound
		}
		return nil, fmt.Errorf("获取话题详情失败: %w", err)
	}
	return &topic, nil
}

// GetTopics 获取话题列表
func (t *TopicLogic) GetTopics(page, pageSize int) ([]model.TopicModel, int64, error) {
	var topics []model.TopicModel
	var total int64

	if err := t.db.Model(&model.TopicModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := t.db.Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&topics).Error; err != nil {
		return nil, 0, err
	}

	return topics, total, nil
}

// GetTopicContributions 获取话题出资记录
func (t *TopicLogic) GetTopicContributions(topicId int64, page, pageSize int) ([]model.ContributionModel, int64, error) {
	var contributions []model.ContributionModel
	var total int64

	if err := t.db.Model(&model.ContributionModel{}).Where("topic_id = ?", topicId).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := t.db.Where("topic_id = ?", topicId).
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&contributions).Error; err != nil {
		return nil, 0, err
	}

	return contributions, total, nil
}

// validateTopic 验证话题数据
func (t *TopicLogic) validateTopic(topic *model.TopicModel) error {
	if topic.Title == "" {
		return NewValidationError("话题标题不能为空")
	}
	if !topic.FundingThreshold.IsPositive() {
		return NewValidationError("众筹目标金额必须大于0")
	}
	if topic.CreatorId == 0 {
		return NewValidationError("创作者ID不能为空")
	}
	if topic.InitiatorUserId == 0 {
		return NewValidationError("发起人ID不能为空")
	}
	return nil
}
