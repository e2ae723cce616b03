package logic

import (
	"errors"
	"fmt"
)

// 账本层冲突类错误
// 对调用方来说这两个都意味着"别人已经做完了", 按成功处理
var (
	ErrDuplicateKey  = errors.New("记录已存在")
	ErrStateConflict = errors.New("状态已被其他操作变更")
)

var (
	ErrTopicNotFound    = errors.New("话题不存在")
	ErrCreatorNotFound  = errors.New("创作者不存在")
	ErrSessionNotFound  = errors.New("支付会话不存在")
	ErrAlreadyProcessed = errors.New("该话题已存在未失败的结算记录")
	ErrPayoutDisabled   = errors.New("创作者未开通收款能力")
)

// ValidationError 数据校验失败
// 进入运营处理队列, 不会自动重试
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// NewValidationError 创建校验错误
func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation 判断是否为校验错误
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
