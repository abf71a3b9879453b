package confidential

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoBalance 表示账户存在但尚无加密余额（handle 为零）。
// 这是合法的终态，不是失败
var ErrNoBalance = errors.New("confidential balance not initialized")

// ErrUserRejected 用户在钱包里拒绝了签名请求
var ErrUserRejected = errors.New("user rejected signature request")

// ErrAuthDenied 解密服务拒绝授权（allowance 未生效或已撤销）
var ErrAuthDenied = errors.New("decryption authorization denied")

// MalformedAccountDataError 账户字节长度不足，属于数据完整性故障，
// 必须向上传播而不能按零余额处理
type MalformedAccountDataError struct {
	Len int
}

func (e *MalformedAccountDataError) Error() string {
	return fmt.Sprintf("malformed account data: %d bytes, need at least %d", e.Len, MinAccountLen)
}

// AllowanceError allowance 服务调用失败，对当前解密流程是致命错误
type AllowanceError struct {
	Msg string
}

func (e *AllowanceError) Error() string {
	return "allowance setup failed: " + e.Msg
}

// 终止性错误关键词：出现这些说明是用户主动行为或授权状态问题，重试无意义
var terminalKeywords = []string{
	"user rejected",
	"user declined",
	"rejected the request",
	"access denied",
	"permission denied",
	"not authorized",
	"unauthorized",
}

// IsTerminal 判断解密错误是否应立即终止重试循环。
// 用户拒签和授权拒绝不可能靠重试解决；其余错误一律按临时故障处理
func IsTerminal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUserRejected) || errors.Is(err, ErrAuthDenied) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, kw := range terminalKeywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}
