package handler

import (
	"github.com/gin-gonic/gin"
)

// SuccessResponse 按统一信封返回成功结果
// webhook 路由也复用这个信封, 网关只看状态码, message 给人看
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 按统一信封返回失败结果
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}
