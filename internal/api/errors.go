package api

import "errors"

// Kind 网络边界错误类别
type Kind string

// 错误类别常量
const (
	KindValidation Kind = "validation" // 请求数据不合法
	KindAuth       Kind = "auth"       // 未认证或凭证失效
	KindNotFound   Kind = "not_found"  // 资源不存在
	KindConflict   Kind = "conflict"   // 业务冲突（如库存不足）
	KindNetwork    Kind = "network"    // 超时或传输失败
	KindServer     Kind = "server"     // 服务端 5xx
)

// Error 类型化网络错误
type Error struct {
	Kind    Kind   // 错误类别
	Status  int    // HTTP 状态码（没有响应时为 0）
	Code    string // 服务端机器码（如有）
	Message string // 错误描述
	Err     error  // 底层错误
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind) + ": " + e.Message
	}
	return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable 是否可重试（仅超时/传输失败与 5xx）
func (e *Error) Retryable() bool {
	return e.Kind == KindNetwork || e.Kind == KindServer
}

// NewError 创建类型化错误
func NewError(kind Kind, status int, code, message string, err error) *Error {
	return &Error{Kind: kind, Status: status, Code: code, Message: message, Err: err}
}

// AsError 提取类型化错误
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsKind 判断错误类别
func IsKind(err error, kind Kind) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == kind
}

// IsAuth 是否认证错误
func IsAuth(err error) bool { return IsKind(err, KindAuth) }

// IsNetwork 是否网络错误
func IsNetwork(err error) bool { return IsKind(err, KindNetwork) }

// IsServer 是否服务端错误
func IsServer(err error) bool { return IsKind(err, KindServer) }

// IsConflict 是否业务冲突
func IsConflict(err error) bool { return IsKind(err, KindConflict) }

// IsNotFound 是否资源不存在
func IsNotFound(err error) bool { return IsKind(err, KindNotFound) }
