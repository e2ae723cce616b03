package notify

import (
	"encoding/json"

	"github.com/jaylenmareko/topic-funding-sub001/internal/logger"
	"github.com/jaylenmareko/topic-funding-sub001/internal/model"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// Dispatcher 下游通知分发器
// 账本事务提交之后尽力而为地通知下游, 失败只记日志, 绝不反过来影响账本
type Dispatcher struct {
	pool *ants.Pool
	db   *gorm.DB
}

// NewDispatcher 创建通知分发器
func NewDispatcher(db *gorm.DB, poolSize int) (*Dispatcher, error) {
	if poolSize <= 0 {
		poolSize = 16
	}
	pool, err := ants.NewPool(poolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	return &Dispatcher{pool: pool, db: db}, nil
}

// Dispatch 提交一条通知到协程池
func (d *Dispatcher) Dispatch(event string, payload map[string]interface{}) {
	task := func() {
		d.deliver(event, payload)
	}
	if err := d.pool.Submit(task); err != nil {
		// 池满时降级为同步执行, 通知本身就是尽力而为
		logger.Warn("Notify pool saturated, delivering %s inline: %v", event, err)
		task()
	}
}

// deliver 投递一条通知
// 目前落事件表并记日志, 对接站内信/推送时在这里扩展
func (d *Dispatcher) deliver(event string, payload map[string]interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal notification %s: %v", event, err)
		return
	}

	logger.Info("Notification %s: %s", event, string(data))

	topicId, _ := payload["topic_id"].(int64)
	record := &model.FundingEventModel{
		TopicId:   topicId,
		EventType: "notify." + event,
		Data:      string(data),
	}
	if err := d.db.Create(record).Error; err != nil {
		logger.Error("Failed to record notification %s: %v", event, err)
	}
}

// Release 释放协程池
func (d *Dispatcher) Release() {
	d.pool.Release()
}
