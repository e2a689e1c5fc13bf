package zws

import (
	"bufio"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/SparkleBo/zapi/zhttp"
)

var (
	ErrNotUpgrade = errors.New("zws: not a websocket upgrade request")
	ErrMissingKey = errors.New("zws: missing Sec-WebSocket-Key header")
	ErrBadKey     = errors.New("zws: malformed Sec-WebSocket-Key header")
)

const acceptGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// Upgrade 协议升级提取器的结果，持有通过校验的握手 key
type Upgrade struct {
	key  string
	opts []ConnOption
}

// FromRequest 校验升级握手头：Connection 含 upgrade、Upgrade 为 websocket、
// Sec-WebSocket-Key 存在且 base64 解码后为 16 字节。失败时返回 400 错误。
func FromRequest(req *zhttp.Req) (*Upgrade, error) {
	if !headerHasToken(req.Headers(), "Connection", "upgrade") ||
		!headerHasToken(req.Headers(), "Upgrade", "websocket") {
		return nil, zhttp.WrapStatus(http.StatusBadRequest, "not a websocket upgrade request", ErrNotUpgrade)
	}
	key := strings.TrimSpace(req.Header("Sec-WebSocket-Key"))
	if key == "" {
		return nil, zhttp.WrapStatus(http.StatusBadRequest, "missing Sec-WebSocket-Key header", ErrMissingKey)
	}
	if raw, err := base64.StdEncoding.DecodeString(key); err != nil || len(raw) != 16 {
		return nil, zhttp.WrapStatus(http.StatusBadRequest, "malformed Sec-WebSocket-Key header", ErrBadKey)
	}
	return &Upgrade{key: key}, nil
}

// Key 客户端提供的握手 key
func (u *Upgrade) Key() string { return u.key }

// WithOptions 设置升级后 Conn 的选项
func (u *Upgrade) WithOptions(opts ...ConnOption) *Upgrade {
	u.opts = append(u.opts, opts...)
	return u
}

// Upgrade 返回 101 响应；握手响应写出后，由边界层把劫持的连接交给 handler。
// handler 返回后连接被关闭。
func (u *Upgrade) Upgrade(handler func(c *Conn)) *zhttp.Res {
	opts := u.opts
	res := zhttp.Empty(http.StatusSwitchingProtocols).
		WithHeader("Upgrade", "websocket").
		WithHeader("Connection", "Upgrade").
		WithHeader("Sec-WebSocket-Accept", AcceptKey(u.key))
	return res.OnUpgrade(func(conn net.Conn, rw *bufio.ReadWriter) {
		var c *Conn
		if rw != nil && rw.Reader != nil {
			c = NewConn(conn, rw.Reader, opts...)
		} else {
			c = NewConn(conn, nil, opts...)
		}
		defer conn.Close()
		handler(c)
	})
}

// AcceptKey 计算握手响应的 Sec-WebSocket-Accept
func AcceptKey(key string) string {
	sum := sha1.Sum([]byte(key + acceptGUID))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// headerHasToken 判断逗号分隔的头部值中是否包含 token（不区分大小写）
func headerHasToken(h http.Header, name, token string) bool {
	for _, v := range h.Values(name) {
		for _, t := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(t), token) {
				return true
			}
		}
	}
	return false
}
