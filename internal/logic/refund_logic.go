package logic

import (
	"errors"
	"fmt"

	"github.com/jaylenmareko/topic-funding-sub001/internal/logger"
	"github.com/jaylenmareko/topic-funding-sub001/internal/model"
	"gorm.io/gorm"
)

// RefundLogic 退款逻辑
// 话题被拒绝或过期时, 把所有成功出资标记为已退款并生成待处理退款单
// 实际打款由退款任务驱动网关完成
type RefundLogic struct {
	db    *gorm.DB
	store *LedgerStore
}

// NewRefundLogic 创建退款逻辑
func NewRefundLogic(db *gorm.DB, store *LedgerStore) *RefundLogic {
	return &RefundLogic{db: db, store: store}
}

// RefundTopic 对话题下所有成功出资发起退款
func (r *RefundLogic) RefundTopic(topicId int64, reason string) (int, error) {
	var refunded int
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var topic model.TopicModel
		if err := tx.First(&topic, topicId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTopicNotFound
			}
			return err
		}

		var contributions []model.ContributionModel
		if err := tx.Where("topic_id = ? AND payment_status = ?",
			topicId, model.PaymentStatusSucceeded).Find(&contributions).Error; err != nil {
			return err
		}

		for _, c := range contributions {
			// 条件更新, 并发退款或外部退款已处理过的跳过
			result := tx.Model(&model.ContributionModel{}).
				Where("id = ? AND payment_status = ?", c.Id, model.PaymentStatusSucceeded).
				Update("payment_status", model.PaymentStatusRefunded)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				continue
			}

			record := &model.RefundRecordModel{
				TopicId:        topicId,
				ContributionId: c.Id,
				PaymentId:      c.PaymentId,
				Amount:         c.Amount,
				Status:         model.RefundStatusPending,
				RefundReason:   reason,
			}
			if err := tx.Create(record).Error; err != nil {
				if isDuplicateKey(err) {
					continue
				}
				return err
			}
			refunded++
		}

		// 成功出资都转为已退款后, 重算会把已筹金额归零
		if err := r.store.RecomputeTopicFunding(tx, topicId); err != nil {
			return err
		}

		return r.store.InsertFundingEvent(tx, &model.FundingEventModel{
			TopicId:   topicId,
			EventType: model.FundingEventTopicRefunded,
			Data:      fmt.Sprintf(`{"refunds":%d,"reason":%q}`, refunded, reason),
		})
	})
	if err != nil {
		return 0, err
	}

	logger.Info("Created %d refund records for topic %d: %s", refunded, topicId, reason)
	return refunded, nil
}

// GetTopicRefunds 查询话题的退款记录
func (r *RefundLogic) GetTopicRefunds(topicId int64) ([]model.RefundRecordModel, error) {
	var records []model.RefundRecordModel
	if err := r.db.Where("topic_id = ?", topicId).Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("获取退款记录失败: %w", err)
	}
	return records, nil
}
