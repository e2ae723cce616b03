package logic

import (
	"testing"
	"time"

	"github.com/jaylenmareko/topic-funding-sub001/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTopicLogic(db *gorm.DB) *TopicLogic {
	store := NewLedgerStore(db)
	return NewTopicLogic(db, store, NewRefundLogic(db, store))
}

func TestApproveAndRejectTopic(t *testing.T) {
	db := openTestDB(t)
	topicLogic := newTopicLogic(db)

	creator := seedCreator(t, db, "0.10", true)
	topic := &model.TopicModel{
		Title:            "提案话题",
		FundingThreshold: mustDecimal(t, "100.00"),
		CreatorId:        creator.Id,
		InitiatorUserId:  1001,
	}
	require.NoError(t, topicLogic.CreateTopic(topic))
	assert.Equal(t, model.TopicStatusPendingApproval, topic.Status)

	require.NoError(t, topicLogic.ApproveTopic(topic.Id))

	var fresh model.TopicModel
	require.NoError(t, db.First(&fresh, topic.Id).Error)
	assert.Equal(t, model.TopicStatusActive, fresh.Status)
	require.NotNil(t, fresh.ApprovedAt)

	// 状态迁移单向, 已通过的话题不能再拒绝
	err := topicLogic.RejectTopic(topic.Id, "不想做")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	require.NoError(t, db.First(&fresh, topic.Id).Error)
	assert.Equal(t, model.TopicStatusActive, fresh.Status)
}

func TestRejectTopicRefundsContributions(t *testing.T) {
	db := openTestDB(t)
	topicLogic := newTopicLogic(db)

	creator := seedCreator(t, db, "0.10", true)
	topic := &model.TopicModel{
		Title:            "将被拒绝的话题",
		FundingThreshold: mustDecimal(t, "100.00"),
		CreatorId:        creator.Id,
		InitiatorUserId:  1001,
	}
	require.NoError(t, topicLogic.CreateTopic(topic))
	seedContribution(t, db, topic.Id, "pay_r1", "40.00")

	require.NoError(t, topicLogic.RejectTopic(topic.Id, "主题不合适"))

	var fresh model.TopicModel
	require.NoError(t, db.First(&fresh, topic.Id).Error)
	assert.Equal(t, model.TopicStatusRejected, fresh.Status)
	assert.True(t, fresh.CurrentFunding.IsZero())

	var contribution model.ContributionModel
	require.NoError(t, db.Where("payment_id = ?", "pay_r1").First(&contribution).Error)
	assert.Equal(t, model.PaymentStatusRefunded, contribution.PaymentStatus)

	var refunds int64
	require.NoError(t, db.Model(&model.RefundRecordModel{}).
		Where("topic_id = ? AND status = ?", topic.Id, model.RefundStatusPending).
		Count(&refunds).Error)
	assert.Equal(t, int64(1), refunds)
}

func TestDeliverContent(t *testing.T) {
	db := openTestDB(t)
	topicLogic := newTopicLogic(db)

	topic := seedTopic(t, db, "100.00")
	deadline := time.Now().Add(24 * time.Hour)
	require.NoError(t, db.Model(topic).Updates(map[string]interface{}{
		"status":           model.TopicStatusFunded,
		"content_deadline": &deadline,
	}).Error)

	require.NoError(t, topicLogic.DeliverContent(topic.Id, "https://example.com/video"))

	var fresh model.TopicModel
	require.NoError(t, db.First(&fresh, topic.Id).Error)
	assert.Equal(t, model.TopicStatusCompleted, fresh.Status)
	assert.Equal(t, "https://example.com/video", fresh.ContentURL)
}

func TestDeliverContentPastDeadline(t *testing.T) {
	db := openTestDB(t)
	topicLogic := newTopicLogic(db)

	topic := seedTopic(t, db, "100.00")
	deadline := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(topic).Updates(map[string]interface{}{
		"status":           model.TopicStatusFunded,
		"content_deadline": &deadline,
	}).Error)

	err := topicLogic.DeliverContent(topic.Id, "https://example.com/late")
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	var fresh model.TopicModel
	require.NoError(t, db.First(&fresh, topic.Id).Error)
	assert.Equal(t, model.TopicStatusFunded, fresh.Status)
}

func TestExpireOverdueTopics(t *testing.T) {
	db := openTestDB(t)
	topicLogic := newTopicLogic(db)

	// 一个过期, 一个未到期
	overdue := seedTopic(t, db, "100.00")
	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(overdue).Updates(map[string]interface{}{
		"status":           model.TopicStatusFunded,
		"content_deadline": &past,
	}).Error)
	seedContribution(t, db, overdue.Id, "pay_e1", "120.00")

	ok := seedTopic(t, db, "100.00")
	future := time.Now().Add(24 * time.Hour)
	require.NoError(t, db.Model(ok).Updates(map[string]interface{}{
		"status":           model.TopicStatusFunded,
		"content_deadline": &future,
	}).Error)

	expired, err := topicLogic.ExpireOverdueTopics()
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	var fresh model.TopicModel
	require.NoError(t, db.First(&fresh, overdue.Id).Error)
	assert.Equal(t, model.TopicStatusExpired, fresh.Status)
	assert.True(t, fresh.CurrentFunding.IsZero())

	var refunds int64
	require.NoError(t, db.Model(&model.RefundRecordModel{}).
		Where("topic_id = ?", overdue.Id).Count(&refunds).Error)
	assert.Equal(t, int64(1), refunds)

	// 查第二个话题要用零值结构体, 复用会把上一次的主键带进查询条件
	var untouched model.TopicModel
	require.NoError(t, db.First(&untouched, ok.Id).Error)
	assert.Equal(t, model.TopicStatusFunded, untouched.Status)

	// 再跑一轮, 不会重复过期或重复退款
	expired, err = topicLogic.ExpireOverdueTopics()
	require.NoError(t, err)
	assert.Equal(t, 0, expired)
}

func TestStageCheckoutSessionDuplicate(t *testing.T) {
	db := openTestDB(t)
	topicLogic := newTopicLogic(db)

	session := &model.CheckoutSessionModel{
		SessionId:        "cs_dup",
		InitiatorUserId:  1001,
		CreatorId:        1,
		Title:            "话题",
		FundingThreshold: mustDecimal(t, "100.00"),
		Amount:           mustDecimal(t, "10.00"),
	}
	require.NoError(t, topicLogic.StageCheckoutSession(session))

	dup := &model.CheckoutSessionModel{
		SessionId:        "cs_dup",
		InitiatorUserId:  1001,
		CreatorId:        1,
		Title:            "话题",
		FundingThreshold: mustDecimal(t, "100.00"),
		Amount:           mustDecimal(t, "10.00"),
	}
	err := topicLogic.StageCheckoutSession(dup)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateKey)
}
