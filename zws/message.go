package zws

import "fmt"

// Opcode 帧操作码
type Opcode uint8

const (
	OpContinuation Opcode = 0x0 // 分片续帧，不支持
	OpText         Opcode = 0x1
	OpBinary       Opcode = 0x2
	OpClose        Opcode = 0x8
	OpPing         Opcode = 0x9
	OpPong         Opcode = 0xA
)

func (op Opcode) String() string {
	switch op {
	case OpContinuation:
		return "continuation"
	case OpText:
		return "text"
	case OpBinary:
		return "binary"
	case OpClose:
		return "close"
	case OpPing:
		return "ping"
	case OpPong:
		return "pong"
	}
	return fmt.Sprintf("opcode(0x%x)", uint8(op))
}

// CloseFrame 关闭帧携带的状态码与原因
type CloseFrame struct {
	Code   uint16
	Reason string
}

// Message 一条完整消息：Text/Binary/Ping/Pong 使用 Data，Close 使用 Close（可为 nil）
type Message struct {
	Op    Opcode
	Data  []byte
	Close *CloseFrame
}

func TextMessage(s string) Message   { return Message{Op: OpText, Data: []byte(s)} }
func BinaryMessage(b []byte) Message { return Message{Op: OpBinary, Data: b} }
func PingMessage(b []byte) Message   { return Message{Op: OpPing, Data: b} }
func PongMessage(b []byte) Message   { return Message{Op: OpPong, Data: b} }

// CloseMessage 带状态码与原因的关闭消息
func CloseMessage(code uint16, reason string) Message {
	return Message{Op: OpClose, Close: &CloseFrame{Code: code, Reason: reason}}
}

// CloseMessageEmpty 不带负载的关闭消息
func CloseMessageEmpty() Message { return Message{Op: OpClose} }

// Text 以字符串形式返回负载
func (m Message) Text() string { return string(m.Data) }

// payload 编码时写入帧的负载
func (m Message) payload() []byte {
	if m.Op != OpClose {
		return m.Data
	}
	if m.Close == nil {
		return nil
	}
	p := make([]byte, 2, 2+len(m.Close.Reason))
	p[0] = byte(m.Close.Code >> 8)
	p[1] = byte(m.Close.Code)
	return append(p, m.Close.Reason...)
}
