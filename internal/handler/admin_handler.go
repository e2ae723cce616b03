package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaylenmareko/topic-funding-sub001/internal/gateway"
	"github.com/jaylenmareko/topic-funding-sub001/internal/logic"
)

// AdminHandler 运营工具处理器
type AdminHandler struct {
	reconcile   *logic.ReconcileLogic
	payoutLogic *logic.PayoutLogic
}

// NewAdminHandler 创建运营工具处理器
func NewAdminHandler(reconcile *logic.ReconcileLogic, payoutLogic *logic.PayoutLogic) *AdminHandler {
	return &AdminHandler{
		reconcile:   reconcile,
		payoutLogic: payoutLogic,
	}
}

// ListUnprocessedPayments 列出网关已成功但账本缺失的支付单
func (h *AdminHandler) ListUnprocessedPayments(c *gin.Context) {
	windowHours, err := strconv.Atoi(c.DefaultQuery("window_hours", "24"))
	if err != nil || windowHours <= 0 {
		ErrorResponse(c, http.StatusBadRequest, "无效的时间窗口")
		return
	}

	payments, err := h.reconcile.ListUnprocessedPayments(c.Request.Context(), time.Duration(windowHours)*time.Hour)
	if err != nil {
		if gateway.IsTransient(err) {
			ErrorResponse(c, http.StatusBadGateway, err.Error())
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取未入账支付单成功", gin.H{
		"payments": payments,
		"count":    len(payments),
	})
}

// ReprocessPayment 人工重放一笔支付
// 与 webhook 调同一个对账入口, 不存在第二条可能破坏幂等性的路径
func (h *AdminHandler) ReprocessPayment(c *gin.Context) {
	paymentId := c.Param("payment_id")
	if paymentId == "" {
		ErrorResponse(c, http.StatusBadRequest, "支付单号不能为空")
		return
	}

	result, err := h.reconcile.ProcessPaymentSuccess(c.Request.Context(), paymentId)
	if err != nil {
		if logic.IsValidation(err) {
			ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		if gateway.IsTransient(err) {
			ErrorResponse(c, http.StatusBadGateway, err.Error())
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	if result.AlreadyProcessed {
		SuccessResponse(c, http.StatusOK, "支付已入账, 无需重放", result)
		return
	}
	SuccessResponse(c, http.StatusOK, "重放成功", result)
}

// InitiatePayout 运营发起结算
func (h *AdminHandler) InitiatePayout(c *gin.Context) {
	topicId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || topicId <= 0 {
		ErrorResponse(c, http.StatusBadRequest, "无效的话题ID")
		return
	}

	payout, err := h.payoutLogic.InitiatePayout(c.Request.Context(), topicId)
	if err != nil {
		switch {
		case errors.Is(err, logic.ErrAlreadyProcessed):
			ErrorResponse(c, http.StatusConflict, "该话题已存在未失败的结算记录")
		case errors.Is(err, logic.ErrTopicNotFound):
			ErrorResponse(c, http.StatusNotFound, "话题不存在")
		case errors.Is(err, logic.ErrPayoutDisabled):
			ErrorResponse(c, http.StatusConflict, "创作者未开通收款能力")
		case logic.IsValidation(err):
			ErrorResponse(c, http.StatusConflict, err.Error())
		default:
			ErrorResponse(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	SuccessResponse(c, http.StatusOK, "结算完成", payout)
}
