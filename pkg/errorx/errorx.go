// Package errorx 定义带业务错误码的错误类型
// Service 层返回 *CodeError，Handler 层与 WebSocket 分发层据此决定返回给客户端的内容
package errorx

import (
	"errors"
	"fmt"
)

// CodeError 带业务错误码的自定义错误
// 实现了 error 接口，支持 %w 包装底层错误，且能被 errors.Is/errors.As 识别
type CodeError struct {
	Code  int    // 业务错误码
	Msg   string // 错误消息（可直接展示给客户端）
	cause error  // 被包装的底层错误，仅用于日志
}

// Error 实现 error 接口
// 存在底层错误时返回 "消息: 底层错误"，否则仅返回消息
func (e *CodeError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.cause)
	}
	return e.Msg
}

// Unwrap 支持 errors.Is/errors.As 向下追溯
func (e *CodeError) Unwrap() error {
	return e.cause
}

// Is 按错误码比较，使预定义错误实例可以直接用于 errors.Is
func (e *CodeError) Is(target error) bool {
	var t *CodeError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// New 创建一个新的 CodeError
func New(code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg}
}

// Newf 创建一个带格式化消息的 CodeError
func Newf(code int, format string, args ...any) *CodeError {
	return &CodeError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Wrap 包装底层错误，添加业务错误码和消息
// 用法: errorx.Wrap(err, CodeNotFound, "conversation not found")
func Wrap(err error, code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg, cause: err}
}

// Wrapf 包装底层错误，支持格式化消息
func Wrapf(err error, code int, format string, args ...any) *CodeError {
	return &CodeError{Code: code, Msg: fmt.Sprintf(format, args...), cause: err}
}

// GetCode 从错误中提取业务错误码，如果不是 CodeError 则返回 CodeServerBusy
func GetCode(err error) int {
	var codeErr *CodeError
	if errors.As(err, &codeErr) {
		return codeErr.Code
	}
	return CodeServerBusy
}

// HasCode 判断错误链上是否存在指定错误码
func HasCode(err error, code int) bool {
	var codeErr *CodeError
	return errors.As(err, &codeErr) && codeErr.Code == code
}

// 业务状态码
const (
	CodeSuccess          = 1000 // 成功
	CodeInvalidParam     = 1001 // 请求参数错误
	CodeUserExist        = 1002 // 用户已存在
	CodeUserNotExist     = 1003 // 用户不存在
	CodeInvalidPassword  = 1004 // 密码错误
	CodeServerBusy       = 1005 // 服务繁忙
	CodeUnauthorized     = 1006 // 未授权/认证失败
	CodeForbidden        = 1007 // 无权操作（非会话/通话参与者）
	CodeNotFound         = 1008 // 资源不存在
	CodeConflict         = 1009 // 状态冲突
	CodeDBError          = 1010 // 数据库错误
	CodeCacheError       = 1011 // 缓存错误
	CodeRecipientOffline = 1012 // 被叫方不在线
	CodeRecipientBusy    = 1013 // 被叫方正在通话
)

// 预定义常用错误实例
var (
	ErrInvalidParam     = New(CodeInvalidParam, "invalid request parameters")
	ErrServerBusy       = New(CodeServerBusy, "internal server error")
	ErrUnauthorized     = New(CodeUnauthorized, "authentication required")
	ErrRecipientOffline = New(CodeRecipientOffline, "User is offline")
	ErrRecipientBusy    = New(CodeRecipientBusy, "User is already in a call")
	ErrCallNotFound     = New(CodeNotFound, "Call not found")
)

// IsNotFound 检查错误是否为"未找到"类型（包括 gorm.ErrRecordNotFound 的文本）
func IsNotFound(err error) bool {
	if HasCode(err, CodeNotFound) {
		return true
	}
	return err != nil && err.Error() == "record not found"
}
