package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jaylenmareko/topic-funding-sub001/internal/logic"
	"github.com/jaylenmareko/topic-funding-sub001/internal/model"
)

// CreatorHandler 创作者处理器
type CreatorHandler struct {
	creatorLogic *logic.CreatorLogic
}

// NewCreatorHandler 创建创作者处理器
func NewCreatorHandler(creatorLogic *logic.CreatorLogic) *CreatorHandler {
	return &CreatorHandler{creatorLogic: creatorLogic}
}

// CreateCreator 创作者入驻
func (h *CreatorHandler) CreateCreator(c *gin.Context) {
	var req CreateCreatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	creator := &model.CreatorModel{
		Name:          req.Name,
		PayoutAccount: req.PayoutAccount,
		PayoutEnabled: req.PayoutEnabled,
		FeeRate:       req.FeeRate,
	}
	if err := h.creatorLogic.CreateCreator(creator); err != nil {
		if logic.IsValidation(err) {
			ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusCreated, "创作者入驻成功", creator)
}

// GetCreator 获取创作者详情
func (h *CreatorHandler) GetCreator(c *gin.Context) {
	creatorId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || creatorId <= 0 {
		ErrorResponse(c, http.StatusBadRequest, "无效的创作者ID")
		return
	}

	creator, err := h.creatorLogic.GetCreator(creatorId)
	if err != nil {
		if errors.Is(err, logic.ErrCreatorNotFound) {
			ErrorResponse(c, http.StatusNotFound, "创作者不存在")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取创作者详情成功", creator)
}
