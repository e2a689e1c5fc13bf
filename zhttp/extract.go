package zhttp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/schema"
)

// Extractor 从请求（及共享状态）中产出类型化的值，失败时返回分类错误
type Extractor[S, T any] func(req *Req, state S) (T, error)

// Bind 将只依赖请求的提取器提升为 Extractor
func Bind[S, T any](f func(req *Req) (T, error)) Extractor[S, T] {
	return func(req *Req, _ S) (T, error) { return f(req) }
}

// State 返回共享状态的副本；S 为指针时副本仍指向同一对象
func State[S any](_ *Req, state S) (S, error) { return state, nil }

const (
	mimeForm = "application/x-www-form-urlencoded"
	mimeJSON = "application/json"
)

// formDecoder 以 `form` 标签解码 url-encoded 数据，未知键忽略
var formDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.SetAliasTag("form")
	d.IgnoreUnknownKeys(true)
	return d
}()

// Query 将查询串解码到 T（结构体，字段用 `form:"name"` 标注）
//   - 没有查询串：400
//   - 解码失败：400
func Query[T any](req *Req) (T, error) {
	var v T
	raw, ok := req.RawQuery()
	if !ok {
		return v, BadRequest("missing query string")
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return v, WrapStatus(http.StatusBadRequest, fmt.Sprintf("invalid query parameters: %v", err), err)
	}
	if err := formDecoder.Decode(&v, values); err != nil {
		return v, WrapStatus(http.StatusBadRequest, fmt.Sprintf("invalid query parameters: %v", err), err)
	}
	return v, nil
}

// Form 将 application/x-www-form-urlencoded 请求体解码到 T
//   - Content-Type 不匹配：400
//   - 解码失败：422
func Form[T any](req *Req) (T, error) {
	var v T
	if !strings.HasPrefix(req.ContentType(), mimeForm) {
		return v, BadRequest("Content-Type must be " + mimeForm)
	}
	b, err := req.Body()
	if err != nil {
		return v, err
	}
	values, err := url.ParseQuery(string(b))
	if err != nil {
		return v, WrapStatus(http.StatusUnprocessableEntity, fmt.Sprintf("invalid form data: %v", err), err)
	}
	if err := formDecoder.Decode(&v, values); err != nil {
		return v, WrapStatus(http.StatusUnprocessableEntity, fmt.Sprintf("invalid form data: %v", err), err)
	}
	return v, nil
}

// JSONBody 将 application/json 请求体解码到 T
//   - Content-Type 不匹配：400
//   - 解析失败或结构不符：400
func JSONBody[T any](req *Req) (T, error) {
	var v T
	if !strings.HasPrefix(req.ContentType(), mimeJSON) {
		return v, BadRequest("Content-Type must be " + mimeJSON)
	}
	b, err := req.Body()
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, WrapStatus(http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err), err)
	}
	return v, nil
}

// Path 将路径参数解码到 T。
//
// 路径参数在捕获时总是字符串：这里先编码成 JSON 对象再解码到 T，不做类型转换。
// 数值字段需要声明为 string、使用 `json:",string"` 选项或自行实现 UnmarshalJSON。
func Path[T any](req *Req) (T, error) {
	var v T
	b, err := json.Marshal(req.Params())
	if err != nil {
		return v, WrapStatus(http.StatusBadRequest, fmt.Sprintf("failed to encode path parameters: %v", err), err)
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, WrapStatus(http.StatusBadRequest,
			fmt.Sprintf("invalid path parameters: %v (path parameters are strings, use string fields or a custom decoder)", err), err)
	}
	return v, nil
}

// Headers 返回请求头的副本，总是成功
func Headers(req *Req) (http.Header, error) {
	return req.Headers().Clone(), nil
}

// BodyBytes 返回原始请求体
func BodyBytes(req *Req) ([]byte, error) {
	return req.Body()
}

// With1 先执行提取器，成功后才运行 fn；任何失败都交给 ErrorHandler
func With1[S, A any](a Extractor[S, A], fn func(a A) (*Res, error)) Handler[S] {
	return func(req *Req, state S) (*Res, error) {
		va, err := a(req, state)
		if err != nil {
			return nil, err
		}
		return fn(va)
	}
}

// With2 按声明顺序执行提取器，第一个失败的提取器短路其余提取器与 fn
func With2[S, A, B any](a Extractor[S, A], b Extractor[S, B], fn func(a A, b B) (*Res, error)) Handler[S] {
	return func(req *Req, state S) (*Res, error) {
		va, err := a(req, state)
		if err != nil {
			return nil, err
		}
		vb, err := b(req, state)
		if err != nil {
			return nil, err
		}
		return fn(va, vb)
	}
}

func With3[S, A, B, C any](a Extractor[S, A], b Extractor[S, B], c Extractor[S, C], fn func(a A, b B, c C) (*Res, error)) Handler[S] {
	return func(req *Req, state S) (*Res, error) {
		va, err := a(req, state)
		if err != nil {
			return nil, err
		}
		vb, err := b(req, state)
		if err != nil {
			return nil, err
		}
		vc, err := c(req, state)
		if err != nil {
			return nil, err
		}
		return fn(va, vb, vc)
	}
}

func With4[S, A, B, C, D any](a Extractor[S, A], b Extractor[S, B], c Extractor[S, C], d Extractor[S, D], fn func(a A, b B, c C, d D) (*Res, error)) Handler[S] {
	return func(req *Req, state S) (*Res, error) {
		va, err := a(req, state)
		if err != nil {
			return nil, err
		}
		vb, err := b(req, state)
		if err != nil {
			return nil, err
		}
		vc, err := c(req, state)
		if err != nil {
			return nil, err
		}
		vd, err := d(req, state)
		if err != nil {
			return nil, err
		}
		return fn(va, vb, vc, vd)
	}
}
