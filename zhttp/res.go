package zhttp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
)

// UpgradeFunc 在协议升级响应头写出之后，接管劫持到的原始连接
type UpgradeFunc func(conn net.Conn, rw *bufio.ReadWriter)

// Res 出站响应：状态码、响应头、响应体
type Res struct {
	Status int
	Header http.Header
	Body   []byte

	upgrade UpgradeFunc
}

// Empty 仅包含状态码的响应
func Empty(code int) *Res {
	return &Res{Status: code, Header: make(http.Header)}
}

// String 纯文本响应
func String(code int, s string) *Res {
	r := Empty(code)
	r.Header.Set("Content-Type", "text/plain; charset=utf-8")
	r.Body = []byte(s)
	return r
}

// HTML 响应
func HTML(code int, s string) *Res {
	r := Empty(code)
	r.Header.Set("Content-Type", "text/html; charset=utf-8")
	r.Body = []byte(s)
	return r
}

// Bytes 二进制响应
func Bytes(code int, b []byte) *Res {
	r := Empty(code)
	r.Header.Set("Content-Type", "application/octet-stream")
	r.Body = b
	return r
}

// JSON 序列化 v 作为响应体；序列化失败时返回 500 与 JSON 错误体
func JSON(code int, v any) *Res {
	r := Empty(code)
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	b, err := json.Marshal(v)
	if err != nil {
		r.Status = http.StatusInternalServerError
		r.Body = []byte(fmt.Sprintf(`{"error":"JSON serialization failed: %s"}`, escapeJSON(err.Error())))
		return r
	}
	r.Body = b
	return r
}

// WithHeader 设置响应头并返回自身，便于链式调用
func (r *Res) WithHeader(key, value string) *Res {
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	r.Header.Set(key, value)
	return r
}

// OnUpgrade 注册连接升级回调
func (r *Res) OnUpgrade(fn UpgradeFunc) *Res {
	r.upgrade = fn
	return r
}

// Upgrade 返回升级回调，普通响应为 nil
func (r *Res) Upgrade() UpgradeFunc { return r.upgrade }

// WriteTo 将响应写入 net/http 的 ResponseWriter（不处理升级）
func (r *Res) WriteTo(w http.ResponseWriter) error {
	h := w.Header()
	for k, vs := range r.Header {
		h[k] = append([]string(nil), vs...)
	}
	code := r.Status
	if code == 0 {
		code = http.StatusOK
	}
	w.WriteHeader(code)
	if len(r.Body) == 0 {
		return nil
	}
	_, err := w.Write(r.Body)
	return err
}
