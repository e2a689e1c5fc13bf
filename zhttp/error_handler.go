package zhttp

import (
	"fmt"
	"strconv"
	"strings"
)

// ErrorHandler 将分类错误转换为响应，由应用注册
type ErrorHandler interface {
	HandleError(err *Error) *Res
}

// ErrorHandlerFunc 函数形式的 ErrorHandler
type ErrorHandlerFunc func(err *Error) *Res

func (f ErrorHandlerFunc) HandleError(err *Error) *Res { return f(err) }

// DefaultErrorHandler 未注册时使用的纯文本策略
var DefaultErrorHandler ErrorHandler = TextErrorHandler{}

// TextErrorHandler 纯文本错误响应："<code> <message>"
type TextErrorHandler struct{}

func (TextErrorHandler) HandleError(err *Error) *Res {
	code := err.StatusCode()
	switch err.Kind {
	case KindStatus:
		if err.Message == "" {
			return String(code, StatusText(code))
		}
		return String(code, fmt.Sprintf("%d %s", code, err.Message))
	case KindDeserialize:
		return String(code, "deserialize error: "+detail(err))
	case KindTransport:
		return String(code, "HTTP error: "+detail(err))
	case KindIO:
		return String(code, "IO error: "+detail(err))
	}
	return String(code, err.Message)
}

// JSONErrorHandler 结构化错误响应：{"error":"<message>","status":<code>}
type JSONErrorHandler struct{}

func (JSONErrorHandler) HandleError(err *Error) *Res {
	code := err.StatusCode()
	var msg string
	switch err.Kind {
	case KindStatus:
		msg = err.Message
		if msg == "" {
			msg = StatusText(code)
		}
	case KindDeserialize:
		msg = "deserialize error: " + detail(err)
	case KindTransport:
		msg = "HTTP error: " + detail(err)
	case KindIO:
		msg = "IO error: " + detail(err)
	default:
		msg = err.Message
	}
	body := `{"error":"` + escapeJSON(msg) + `","status":` + strconv.Itoa(code) + `}`
	r := Empty(code)
	r.Header.Set("Content-Type", "application/json")
	r.Body = []byte(body)
	return r
}

// StatusText 错误响应使用的状态文本
func StatusText(code int) string {
	switch code {
	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorized"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 405:
		return "Method Not Allowed"
	case 413:
		return "Payload Too Large"
	case 422:
		return "Unprocessable Entity"
	case 500:
		return "Internal Server Error"
	case 502:
		return "Bad Gateway"
	case 503:
		return "Service Unavailable"
	}
	return "HTTP " + strconv.Itoa(code)
}

func detail(err *Error) string {
	if err.Err != nil {
		return err.Err.Error()
	}
	return err.Message
}

var jsonEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func escapeJSON(s string) string { return jsonEscaper.Replace(s) }
