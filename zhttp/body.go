package zhttp

import (
	"errors"
	"io"
	"net/http"
	"sync"
)

// body 请求体的两种状态：Streaming（持有只能取一次的流）或 Consumed（已缓存的字节）。
// Streaming→Consumed 单向且幂等，底层流最多被读取一次。
type body struct {
	mu       sync.Mutex
	stream   io.ReadCloser // 取走后置 nil
	consumed bool
	data     []byte
}

func newBody(rc io.ReadCloser) *body {
	if rc == nil || rc == http.NoBody {
		return &body{consumed: true, data: []byte{}}
	}
	return &body{stream: rc}
}

// bytes 首次调用时读取整个流并缓存，之后直接返回缓存
func (b *body) bytes() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.consumed {
		return b.data, nil
	}
	rc := b.stream
	if rc == nil {
		// 流已被取走却没有缓存：上一次读取中途失败
		return nil, WrapStatus(http.StatusInternalServerError, "request body already consumed", ErrBodyConsumed)
	}
	b.stream = nil

	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, WrapStatus(http.StatusRequestEntityTooLarge, "request body too large", err)
		}
		return nil, IOError(err)
	}
	if data == nil {
		data = []byte{}
	}
	b.data = data
	b.consumed = true
	return b.data, nil
}

func (b *body) isConsumed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.consumed
}
