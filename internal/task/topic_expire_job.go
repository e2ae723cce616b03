package task

import (
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jaylenmareko/topic-funding-sub001/internal/config"
	"github.com/jaylenmareko/topic-funding-sub001/internal/logger"
	"github.com/jaylenmareko/topic-funding-sub001/internal/logic"
	"gorm.io/gorm"
)

// TopicExpireJob 话题过期清扫任务
// 达标但超过内容交付截止时间的话题置为过期, 并为所有出资创建退款
type TopicExpireJob struct {
	config     *config.Config
	topicLogic *logic.TopicLogic
}

// NewTopicExpireJob 创建话题过期清扫任务
func NewTopicExpireJob(db *gorm.DB, cfg *config.Config) *TopicExpireJob {
	store := logic.NewLedgerStore(db)
	refundLogic := logic.NewRefundLogic(db, store)
	return &TopicExpireJob{
		config:     cfg,
		topicLogic: logic.NewTopicLogic(db, store, refundLogic),
	}
}

// GetName 获取任务名称
func (j *TopicExpireJob) GetName() string {
	return "topic_expire_sweeper"
}

// GetSchedule 获取调度配置
func (j *TopicExpireJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *TopicExpireJob) Execute() {
	logger.Info("Starting topic expire sweep")

	expired, err := j.topicLogic.ExpireOverdueTopics()
	if err != nil {
		logger.Error("Topic expire sweep failed: %v", err)
		return
	}

	logger.Info("Topic expire sweep completed. Expired %d topics", expired)
}
