package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jaylenmareko/topic-funding-sub001/internal/logic"
	"github.com/jaylenmareko/topic-funding-sub001/internal/model"
)

// TopicHandler 话题处理器
type TopicHandler struct {
	topicLogic  *logic.TopicLogic
	payoutLogic *logic.PayoutLogic
}

// NewTopicHandler 创建话题处理器
func NewTopicHandler(topicLogic *logic.TopicLogic, payoutLogic *logic.PayoutLogic) *TopicHandler {
	return &TopicHandler{
		topicLogic:  topicLogic,
		payoutLogic: payoutLogic,
	}
}

// CreateTopic 创建待审核话题
func (h *TopicHandler) CreateTopic(c *gin.Context) {
	var req CreateTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	topic := &model.TopicModel{
		Title:            req.Title,
		Description:      req.Description,
		FundingThreshold: req.FundingThreshold,
		CreatorId:        req.CreatorId,
		InitiatorUserId:  req.InitiatorUserId,
	}
	if err := h.topicLogic.CreateTopic(topic); err != nil {
		if logic.IsValidation(err) {
			ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusCreated, "创建话题成功", topic)
}

// StageCheckoutSession 暂存带首笔支付的建话题数据
func (h *TopicHandler) StageCheckoutSession(c *gin.Context) {
	var req StageCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	session := &model.CheckoutSessionModel{
		SessionId:        req.SessionId,
		InitiatorUserId:  req.InitiatorUserId,
		CreatorId:        req.CreatorId,
		Title:            req.Title,
		Description:      req.Description,
		FundingThreshold: req.FundingThreshold,
		Amount:           req.Amount,
	}
	if err := h.topicLogic.StageCheckoutSession(session); err != nil {
		if errors.Is(err, logic.ErrDuplicateKey) {
			ErrorResponse(c, http.StatusConflict, "会话已存在")
			return
		}
		if logic.IsValidation(err) {
			ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusCreated, "暂存会话成功", session)
}

// GetTopics 获取话题列表
func (h *TopicHandler) GetTopics(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	topics, total, err := h.topicLogic.GetTopics(page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	pagination := Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}

	SuccessResponse(c, http.StatusOK, "获取话题列表成功", gin.H{
		"topics":     topics,
		"pagination": pagination,
	})
}

// GetTopic 获取话题详情
func (h *TopicHandler) GetTopic(c *gin.Context) {
	topicId, ok := h.parseTopicId(c)
	if !ok {
		return
	}

	topic, err := h.topicLogic.GetTopic(topicId)
	if err != nil {
		if errors.Is(err, logic.ErrTopicNotFound) {
			ErrorResponse(c, http.StatusNotFound, "话题不存在")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取话题详情成功", topic)
}

// GetTopicContributions 获取话题出资记录
func (h *TopicHandler) GetTopicContributions(c *gin.Context) {
	topicId, ok := h.parseTopicId(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	contributions, total, err := h.topicLogic.GetTopicContributions(topicId, page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	pagination := Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}

	SuccessResponse(c, http.StatusOK, "获取出资记录成功", gin.H{
		"contributions": contributions,
		"pagination":    pagination,
	})
}

// ApproveTopic 创作者通过审核
func (h *TopicHandler) ApproveTopic(c *gin.Context) {
	topicId, ok := h.parseTopicId(c)
	if !ok {
		return
	}

	if err := h.topicLogic.ApproveTopic(topicId); err != nil {
		if logic.IsValidation(err) {
			ErrorResponse(c, http.StatusConflict, err.Error())
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "话题已通过审核", nil)
}

// RejectTopic 创作者拒绝话题
func (h *TopicHandler) RejectTopic(c *gin.Context) {
	topicId, ok := h.parseTopicId(c)
	if !ok {
		return
	}

	var req RejectTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.topicLogic.RejectTopic(topicId, req.Reason); err != nil {
		if logic.IsValidation(err) {
			ErrorResponse(c, http.StatusConflict, err.Error())
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "话题已拒绝, 退款已创建", nil)
}

// DeliverContent 创作者交付内容, 随后发起结算
func (h *TopicHandler) DeliverContent(c *gin.Context) {
	topicId, ok := h.parseTopicId(c)
	if !ok {
		return
	}

	var req DeliverContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.topicLogic.DeliverContent(topicId, req.ContentURL); err != nil {
		if logic.IsValidation(err) {
			ErrorResponse(c, http.StatusConflict, err.Error())
			return
		}
		if errors.Is(err, logic.ErrTopicNotFound) {
			ErrorResponse(c, http.StatusNotFound, "话题不存在")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	// 交付完成即进入可结算状态, 顺手发起结算
	payout, err := h.payoutLogic.InitiatePayout(c.Request.Context(), topicId)
	if err != nil {
		if errors.Is(err, logic.ErrAlreadyProcessed) {
			SuccessResponse(c, http.StatusOK, "内容已交付, 结算已存在", nil)
			return
		}
		// 结算失败不回滚交付, 留给运营重新发起
		SuccessResponse(c, http.StatusOK, "内容已交付, 结算待发起: "+err.Error(), nil)
		return
	}

	SuccessResponse(c, http.StatusOK, "内容已交付, 结算完成", payout)
}

// parseTopicId 解析路径里的话题ID
func (h *TopicHandler) parseTopicId(c *gin.Context) (int64, bool) {
	topicId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || topicId <= 0 {
		ErrorResponse(c, http.StatusBadRequest, "无效的话题ID")
		return 0, false
	}
	return topicId, true
}
