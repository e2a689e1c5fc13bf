package zws

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrClosed 连接已关闭（收到或发送了关闭帧）
var ErrClosed = errors.New("zws: connection closed")

const readChunk = 4096

// OpError 收发过程中底层传输的错误
type OpError struct {
	Op  string // "read" 或 "write"
	Err error
}

func (e *OpError) Error() string { return fmt.Sprintf("zws: %s: %v", e.Op, e.Err) }
func (e *OpError) Unwrap() error { return e.Err }

// ConnOption 配置 Conn
type ConnOption func(*Conn)

// WithMaxMessageSize 限制单帧负载长度，n <= 0 表示不限制
func WithMaxMessageSize(n int) ConnOption {
	return func(c *Conn) { c.maxSize = n }
}

// Conn 升级后的消息连接，持有底层字节流与可复用的解码缓冲区。
//
// 读取端由单个 goroutine 独占；写入用互斥锁串行化，可以在其他 goroutine 中发送 Ping。
type Conn struct {
	rwc io.ReadWriteCloser
	r   io.Reader

	buf     []byte // 未解码的已读字节
	scratch []byte
	eof     bool
	closed  bool // 已收到关闭帧或读到 EOF
	maxSize int

	wmu       sync.Mutex
	wbuf      []byte
	closeSent bool
}

// NewConn 基于已升级的连接创建 Conn。r 为劫持时带出的缓冲读取器（可能已缓存了字节），为 nil 时直接读 rwc。
func NewConn(rwc io.ReadWriteCloser, r io.Reader, opts ...ConnOption) *Conn {
	if r == nil {
		r = rwc
	}
	c := &Conn{
		rwc:     rwc,
		r:       r,
		buf:     make([]byte, 0, 8192),
		scratch: make([]byte, readChunk),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Receive 读取下一条消息。
//
// 缓冲区不足一帧时继续从网络读取。收到关闭帧后连接进入关闭状态，之后返回 io.EOF；
// 对端关闭（EOF）同样返回 io.EOF。协议错误（非法操作码、非 UTF-8 文本）返回对应错误，调用方应断开连接。
func (c *Conn) Receive() (Message, error) {
	for {
		if c.closed {
			return Message{}, io.EOF
		}
		m, n, err := decodeFrame(c.buf, c.maxSize)
		if err != nil {
			c.closed = true
			return Message{}, err
		}
		if n > 0 {
			rest := copy(c.buf, c.buf[n:])
			c.buf = c.buf[:rest]
			if m.Op == OpClose {
				c.closed = true
			}
			return m, nil
		}
		if c.eof {
			c.closed = true
			return Message{}, io.EOF
		}

		k, err := c.r.Read(c.scratch)
		if k > 0 {
			c.buf = append(c.buf, c.scratch[:k]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.eof = true
				continue
			}
			c.closed = true
			return Message{}, &OpError{Op: "read", Err: err}
		}
	}
}

// Send 编码并发送一条消息。发送关闭帧后再发送返回 ErrClosed。
func (c *Conn) Send(m Message) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.closeSent {
		return ErrClosed
	}
	c.wbuf = AppendFrame(c.wbuf[:0], m)
	if _, err := c.rwc.Write(c.wbuf); err != nil {
		return &OpError{Op: "write", Err: err}
	}
	if m.Op == OpClose {
		c.closeSent = true
	}
	return nil
}

func (c *Conn) SendText(s string) error { return c.Send(TextMessage(s)) }
func (c *Conn) SendBinary(b []byte) error { return c.Send(BinaryMessage(b)) }
func (c *Conn) Ping(b []byte) error { return c.Send(PingMessage(b)) }
func (c *Conn) Pong(b []byte) error { return c.Send(PongMessage(b)) }

// Close 发送不带负载的关闭帧并关闭底层连接
func (c *Conn) Close() error {
	return c.closeWith(CloseMessageEmpty())
}

// CloseWith 发送带状态码与原因的关闭帧并关闭底层连接
func (c *Conn) CloseWith(code uint16, reason string) error {
	return c.closeWith(CloseMessage(code, reason))
}

func (c *Conn) closeWith(m Message) error {
	err := c.Send(m)
	if errors.Is(err, ErrClosed) {
		err = nil
	}
	if cerr := c.rwc.Close(); err == nil {
		err = cerr
	}
	return err
}
