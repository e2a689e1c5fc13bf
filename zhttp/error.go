package zhttp

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误分类，错误处理器只依据分类与状态码渲染响应
type Kind uint8

const (
	KindStatus      Kind = iota // 显式 HTTP 状态码（调用方有意为之）
	KindDeserialize             // query/form/JSON/path 输入格式错误
	KindTransport               // 底层 HTTP/连接层失败
	KindIO                      // 网络或流读写失败
	KindCustom                  // 兜底：handler/中间件自定义错误
)

func (k Kind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindDeserialize:
		return "deserialize"
	case KindTransport:
		return "transport"
	case KindIO:
		return "io"
	case KindCustom:
		return "custom"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ErrBodyConsumed 请求体的流已被取走但没有缓存结果（逻辑错误）
var ErrBodyConsumed = errors.New("zhttp: request body already consumed")

// Error 是核心内部统一的错误类型
type Error struct {
	Kind    Kind
	Code    int    // 仅 KindStatus 使用
	Message string // 可为空
	Err     error  // 原始错误，可为空
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		if e.Message != "" {
			return fmt.Sprintf("%d %s", e.Code, e.Message)
		}
		return fmt.Sprintf("%d %s", e.Code, http.StatusText(e.Code))
	case KindCustom:
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// StatusCode 按映射表返回状态码：Status 透传，Deserialize→400，其余→500
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindStatus:
		return e.Code
	case KindDeserialize:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// NewStatusError 带消息的状态码错误
func NewStatusError(code int, msg string) *Error {
	return &Error{Kind: KindStatus, Code: code, Message: msg}
}

// StatusCode 不带消息的状态码错误
func StatusCode(code int) *Error { return &Error{Kind: KindStatus, Code: code} }

// WrapStatus 状态码错误，同时保留底层错误以便 errors.Is 判断
func WrapStatus(code int, msg string, err error) *Error {
	return &Error{Kind: KindStatus, Code: code, Message: msg, Err: err}
}

func BadRequest(msg string) *Error    { return NewStatusError(http.StatusBadRequest, msg) }
func Unprocessable(msg string) *Error { return NewStatusError(http.StatusUnprocessableEntity, msg) }
func Internal(msg string) *Error      { return NewStatusError(http.StatusInternalServerError, msg) }

func DeserializeError(err error) *Error { return &Error{Kind: KindDeserialize, Err: err} }
func TransportError(err error) *Error   { return &Error{Kind: KindTransport, Err: err} }
func IOError(err error) *Error          { return &Error{Kind: KindIO, Err: err} }
func CustomError(msg string) *Error     { return &Error{Kind: KindCustom, Message: msg} }

// AsError 将任意错误归类；未分类的错误一律视为 Custom
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindCustom, Message: err.Error(), Err: err}
}
