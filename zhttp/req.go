package zhttp

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Req 一次入站请求的上下文。
//
// Req 在请求进入时创建一次，以独占方式沿中间件链传递，不会被并发共享。
// 请求体延迟读取：只有在提取器需要时才从网络读取，且最多读取一次。
type Req struct {
	ctx        context.Context
	method     string
	url        *url.URL
	header     http.Header
	params     map[string]string
	remoteAddr string
	ext        Extensions
	body       *body
}

// NewReq 由已解析的请求要素构造 Req，target 为 path+query
func NewReq(method, target string, header http.Header, body io.ReadCloser) (*Req, error) {
	u, err := url.ParseRequestURI(target)
	if err != nil {
		return nil, BadRequest("invalid request target")
	}
	if header == nil {
		header = make(http.Header)
	}
	return &Req{
		ctx:    context.Background(),
		method: method,
		url:    u,
		header: header,
		params: map[string]string{},
		body:   newBody(body),
	}, nil
}

// FromHTTP 由 net/http 的请求构造 Req
func FromHTTP(r *http.Request) *Req {
	return &Req{
		ctx:        r.Context(),
		method:     r.Method,
		url:        r.URL,
		header:     r.Header,
		params:     map[string]string{},
		remoteAddr: r.RemoteAddr,
		body:       newBody(r.Body),
	}
}

func (r *Req) Context() context.Context { return r.ctx }

// WithContext 替换请求关联的 context（如超时控制）
func (r *Req) WithContext(ctx context.Context) {
	if ctx != nil {
		r.ctx = ctx
	}
}

func (r *Req) Method() string { return r.method }
func (r *Req) URL() *url.URL { return r.url }
func (r *Req) Path() string { return r.url.Path }
func (r *Req) RemoteAddr() string { return r.remoteAddr }

// RawQuery 返回原始查询串；ok 为 false 表示请求没有查询串
func (r *Req) RawQuery() (string, bool) {
	if r.url.RawQuery == "" && !r.url.ForceQuery {
		return "", false
	}
	return r.url.RawQuery, true
}

func (r *Req) Query(key string) string { return r.url.Query().Get(key) }

func (r *Req) Header(name string) string { return r.header.Get(name) }
func (r *Req) Headers() http.Header { return r.header }

func (r *Req) Param(name string) string { return r.params[name] }
func (r *Req) Params() map[string]string { return r.params }

// SetParams 由路由层写入路径参数
func (r *Req) SetParams(p map[string]string) {
	if p == nil {
		p = map[string]string{}
	}
	r.params = p
}

func (r *Req) ContentType() string { return r.header.Get("Content-Type") }

// IsJSON Content-Type 是否为 JSON
func (r *Req) IsJSON() bool { return strings.Contains(r.ContentType(), "application/json") }

// Body 返回完整请求体。首次调用从网络读取并缓存，之后返回缓存；没有请求体时返回空切片。
func (r *Req) Body() ([]byte, error) { return r.body.bytes() }

// BodyConsumed 请求体是否已经读入内存
func (r *Req) BodyConsumed() bool { return r.body.isConsumed() }

func (r *Req) Extensions() *Extensions { return &r.ext }
