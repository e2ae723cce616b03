package gateway

import (
	"errors"
	"fmt"
)

// TransientError 网关暂时不可达（网络错误、超时、5xx）
// 调用方可以安全重试, 账本侧不会留下任何半成品状态
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("gateway %s temporarily unavailable: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient 判断是否为可重试的网关错误
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// ErrPaymentNotFound 网关侧不存在该支付单
var ErrPaymentNotFound = errors.New("payment not found on gateway")

// ErrSessionNotFound 网关侧不存在该支付会话
var ErrSessionNotFound = errors.New("checkout session not found on gateway")
