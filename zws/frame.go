package zws

import (
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"unicode/utf8"
)

var (
	ErrInvalidOpcode = errors.New("zws: invalid opcode")
	ErrInvalidUTF8   = errors.New("zws: invalid UTF-8 in text frame")
	ErrFragmented    = errors.New("zws: fragmented messages are not supported")
	ErrFrameTooLarge = errors.New("zws: frame too large")
)

const (
	finBit   = 0x80
	maskBit  = 0x80
	len16    = 126
	len64    = 127
	maxHead  = 14 // 2 + 8 字节扩展长度 + 4 字节掩码
	maxLen7  = 125
	maxLen16 = math.MaxUint16
)

// AppendFrame 将 m 编码为一帧追加到 dst。fin 恒为 1，服务端帧不加掩码。
func AppendFrame(dst []byte, m Message) []byte {
	p := m.payload()
	dst = appendHeader(dst, m.Op, len(p), false)
	return append(dst, p...)
}

// AppendMaskedFrame 以 key 掩码编码一帧（客户端方向）
func AppendMaskedFrame(dst []byte, m Message, key [4]byte) []byte {
	p := m.payload()
	dst = appendHeader(dst, m.Op, len(p), true)
	dst = append(dst, key[:]...)
	start := len(dst)
	dst = append(dst, p...)
	maskBytes(key, dst[start:])
	return dst
}

func appendHeader(dst []byte, op Opcode, n int, masked bool) []byte {
	var mb byte
	if masked {
		mb = maskBit
	}
	dst = append(dst, finBit|byte(op))
	switch {
	case n <= maxLen7:
		dst = append(dst, mb|byte(n))
	case n <= maxLen16:
		dst = append(dst, mb|len16)
		dst = binary.BigEndian.AppendUint16(dst, uint16(n))
	default:
		dst = append(dst, mb|len64)
		dst = binary.BigEndian.AppendUint64(dst, uint64(n))
	}
	return dst
}

// maskBytes 与 4 字节掩码循环异或，掩码与解码互为逆运算
func maskBytes(key [4]byte, b []byte) {
	for i := range b {
		b[i] ^= key[i&3]
	}
}

// DecodeFrame 从 buf 头部解码一帧。
//
// 返回值 n 为消耗的字节数；n == 0 且 err == nil 表示数据不足，需要继续读取。
// 带掩码的帧先解掩码再解释负载。返回的 Message 不引用 buf。
func DecodeFrame(buf []byte) (m Message, n int, err error) {
	return decodeFrame(buf, 0)
}

// decodeFrame limit > 0 时限制负载长度
func decodeFrame(buf []byte, limit int) (Message, int, error) {
	if len(buf) < 2 {
		return Message{}, 0, nil
	}
	b0, b1 := buf[0], buf[1]
	op := Opcode(b0 & 0x0F)
	masked := b1&maskBit != 0

	head := 2
	var length uint64
	switch l := b1 & 0x7F; l {
	case len16:
		if len(buf) < 4 {
			return Message{}, 0, nil
		}
		length = uint64(binary.BigEndian.Uint16(buf[2:4]))
		head = 4
	case len64:
		if len(buf) < 10 {
			return Message{}, 0, nil
		}
		length = binary.BigEndian.Uint64(buf[2:10])
		head = 10
	default:
		length = uint64(l)
	}
	if length > uint64(math.MaxInt-maxHead) || (limit > 0 && length > uint64(limit)) {
		return Message{}, 0, ErrFrameTooLarge
	}

	maskAt := head
	if masked {
		head += 4
	}
	total := head + int(length)
	if len(buf) < total {
		return Message{}, 0, nil
	}

	if op == OpContinuation || b0&finBit == 0 {
		return Message{}, 0, ErrFragmented
	}

	payload := make([]byte, int(length))
	copy(payload, buf[head:total])
	if masked {
		var key [4]byte
		copy(key[:], buf[maskAt:maskAt+4])
		maskBytes(key, payload)
	}

	switch op {
	case OpText:
		if !utf8.Valid(payload) {
			return Message{}, 0, ErrInvalidUTF8
		}
		return Message{Op: OpText, Data: payload}, total, nil
	case OpBinary, OpPing, OpPong:
		return Message{Op: op, Data: payload}, total, nil
	case OpClose:
		m := Message{Op: OpClose}
		if len(payload) >= 2 {
			m.Close = &CloseFrame{
				Code:   binary.BigEndian.Uint16(payload[:2]),
				Reason: strings.ToValidUTF8(string(payload[2:]), "\uFFFD"),
			}
		}
		return m, total, nil
	}
	return Message{}, 0, ErrInvalidOpcode
}
