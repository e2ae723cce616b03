package task

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jaylenmareko/topic-funding-sub001/internal/config"
	"github.com/jaylenmareko/topic-funding-sub001/internal/gateway"
	"github.com/jaylenmareko/topic-funding-sub001/internal/logger"
	"github.com/jaylenmareko/topic-funding-sub001/internal/logic"
	"gorm.io/gorm"
)

// ReconcileSweepJob 对账回扫任务
// webhook 可能彻底丢失, 定期把网关已成功但账本缺失的支付单重新走一遍对账入口
type ReconcileSweepJob struct {
	config    *config.Config
	reconcile *logic.ReconcileLogic
}

// NewReconcileSweepJob 创建对账回扫任务
func NewReconcileSweepJob(db *gorm.DB, cfg *config.Config, gw gateway.Gateway) *ReconcileSweepJob {
	store := logic.NewLedgerStore(db)
	return &ReconcileSweepJob{
		config:    cfg,
		reconcile: logic.NewReconcileLogic(db, store, gw, nil, cfg.Payout.ContentGraceHours),
	}
}

// GetName 获取任务名称
func (j *ReconcileSweepJob) GetName() string {
	return "reconcile_sweeper"
}

// GetSchedule 获取调度配置
func (j *ReconcileSweepJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *ReconcileSweepJob) Execute() {
	logger.Info("Starting reconcile sweep task")

	window := time.Duration(j.config.Task.ReconcileWindow) * time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	missing, err := j.reconcile.ListUnprocessedPayments(ctx, window)
	if err != nil {
		logger.Error("Failed to list unprocessed payments: %v", err)
		return
	}

	processed := 0
	for _, payment := range missing {
		// 与 webhook 相同的对账入口, 重复处理会被幂等逻辑挡掉
		result, err := j.reconcile.ProcessPaymentSuccess(ctx, payment.Id)
		if err != nil {
			if gateway.IsTransient(err) {
				logger.Warn("Gateway unavailable while sweeping payment %s, will retry: %v", payment.Id, err)
				continue
			}
			logger.Error("Sweep failed for payment %s: %v", payment.Id, err)
			continue
		}
		if !result.AlreadyProcessed {
			processed++
		}
	}

	logger.Info("Reconcile sweep completed. Recovered %d payments", processed)
}
