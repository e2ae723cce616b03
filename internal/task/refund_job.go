package task

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jaylenmareko/topic-funding-sub001/internal/config"
	"github.com/jaylenmareko/topic-funding-sub001/internal/gateway"
	"github.com/jaylenmareko/topic-funding-sub001/internal/logger"
	"github.com/jaylenmareko/topic-funding-sub001/internal/model"
	"gorm.io/gorm"
)

// RefundJob 退款执行任务
// 把待处理的退款单逐笔提交给网关, 成功或失败都落回记录
type RefundJob struct {
	db     *gorm.DB
	config *config.Config
	gw     gateway.Gateway
}

// NewRefundJob 创建退款执行任务
func NewRefundJob(db *gorm.DB, cfg *config.Config, gw gateway.Gateway) *RefundJob {
	return &RefundJob{
		db:     db,
		config: cfg,
		gw:     gw,
	}
}

// GetName 获取任务名称
func (j *RefundJob) GetName() string {
	return "refund_processor"
}

// GetSchedule 获取调度配置
func (j *RefundJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *RefundJob) Execute() {
	logger.Info("Starting refund processing task")

	// 查找待退款的记录
	var refundRecords []model.RefundRecordModel
	err := j.db.Where("status = ?", model.RefundStatusPending).Find(&refundRecords).Error
	if err != nil {
		logger.Error("Failed to fetch pending refund records: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	refundedCount := 0

	for _, record := range refundRecords {
		refund, err := j.gw.CreateRefund(ctx, record.PaymentId, record.RefundReason)
		if err != nil {
			if gateway.IsTransient(err) {
				// 网关暂时不可达, 留在 pending 等下一轮
				logger.Warn("Gateway unavailable for refund %d, will retry: %v", record.Id, err)
				continue
			}
			logger.Error("Failed to process refund %d: %v", record.Id, err)
			j.updateRefundStatus(record.Id, model.RefundStatusFailed, err.Error())
			continue
		}

		updates := map[string]interface{}{
			"status":    model.RefundStatusSuccess,
			"refund_id": refund.Id,
		}
		if err := j.db.Model(&model.RefundRecordModel{}).Where("id = ?", record.Id).Updates(updates).Error; err != nil {
			logger.Error("Failed to update refund record %d: %v", record.Id, err)
			continue
		}

		logger.Info("Successfully refunded record %d, amount: %s, payment: %s",
			record.Id, record.Amount.StringFixed(2), record.PaymentId)
		refundedCount++
	}

	logger.Info("Refund processing task completed. Refunded %d records", refundedCount)
}

// updateRefundStatus 更新退款记录状态
func (j *RefundJob) updateRefundStatus(recordId int64, status model.RefundStatus, errorMsg string) {
	updates := map[string]interface{}{
		"status":        status,
		"refund_reason": gorm.Expr("refund_reason || ?", " | "+errorMsg),
	}

	if err := j.db.Model(&model.RefundRecordModel{}).Where("id = ?", recordId).Updates(updates).Error; err != nil {
		logger.Error("Failed to update refund record %d status: %v", recordId, err)
	}
}
