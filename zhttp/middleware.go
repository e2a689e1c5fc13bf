package zhttp

import "sync/atomic"

// HandlerFunc 一段可执行的链：终端（路由分发）或已组合的中间件链
type HandlerFunc[S any] func(req *Req, state S) *Res

// Handler 路由处理器，失败时返回错误交给 ErrorHandler
type Handler[S any] func(req *Req, state S) (*Res, error)

// Middleware 拦截器：拿到请求、共享状态与 next，产出响应。
// 要么调用 next.Run 恰好一次，要么自行返回响应（短路）。
type Middleware[S any] interface {
	Handle(req *Req, state S, next *Next[S]) *Res
}

// MiddlewareFunc 函数形式的 Middleware
type MiddlewareFunc[S any] func(req *Req, state S, next *Next[S]) *Res

func (f MiddlewareFunc[S]) Handle(req *Req, state S, next *Next[S]) *Res {
	return f(req, state, next)
}

// Next 只能使用一次的后续链
type Next[S any] struct {
	fn     HandlerFunc[S]
	state  S
	called atomic.Bool
}

// NewNext 将剩余链与共享状态绑定
func NewNext[S any](fn HandlerFunc[S], state S) *Next[S] {
	return &Next[S]{fn: fn, state: state}
}

// Run 执行剩余链。重复调用不会再次执行，返回 500 响应。
func (n *Next[S]) Run(req *Req) *Res {
	if !n.called.CompareAndSwap(false, true) {
		return DefaultErrorHandler.HandleError(Internal("next called more than once"))
	}
	return n.fn(req, n.state)
}

func (n *Next[S]) State() S { return n.state }

// Called 是否已执行过 Run
func (n *Next[S]) Called() bool { return n.called.Load() }

// Build 从终端开始逆序折叠：mws[0](mws[1](...(terminal)))，nil 中间件被忽略
func Build[S any](mws []Middleware[S], terminal HandlerFunc[S]) HandlerFunc[S] {
	if terminal == nil {
		panic("zhttp: nil terminal handler")
	}
	h := terminal
	for i := len(mws) - 1; i >= 0; i-- {
		mw := mws[i]
		if mw == nil {
			continue
		}
		inner := h
		h = func(req *Req, state S) *Res {
			return mw.Handle(req, state, NewNext(inner, state))
		}
	}
	return h
}

// Chain 中间件列表，第一个位于最外层（最先进入、最后退出）
type Chain[S any] []Middleware[S]

// NewChain 创建中间件链，nil 被忽略
func NewChain[S any](mws ...Middleware[S]) Chain[S] {
	return appendNonNil[S](nil, mws)
}

// With 追加中间件并返回新链，不修改接收者，也不共享底层数组
func (c Chain[S]) With(more ...Middleware[S]) Chain[S] {
	out := make(Chain[S], 0, len(c)+len(more))
	out = appendNonNil[S](out, c)
	return appendNonNil[S](out, more)
}

// Then 以 terminal 为终端构建可执行链
func (c Chain[S]) Then(terminal HandlerFunc[S]) HandlerFunc[S] {
	return Build[S](c, terminal)
}

// Handle 使 Chain 本身也是一个 Middleware：把整条链嵌套在外部 next 之外
func (c Chain[S]) Handle(req *Req, state S, next *Next[S]) *Res {
	return Build[S](c, func(r *Req, _ S) *Res { return next.Run(r) })(req, state)
}

// Conditional 条件中间件：谓词为 false 时直接调用 next，不附加任何行为
type Conditional[S any] struct {
	mw   Middleware[S]
	pred func(req *Req, state S) bool
}

// When 仅当 pred 成立时执行 mw
func When[S any](pred func(req *Req, state S) bool, mw Middleware[S]) *Conditional[S] {
	return &Conditional[S]{mw: mw, pred: pred}
}

func (c *Conditional[S]) Handle(req *Req, state S, next *Next[S]) *Res {
	if c.mw != nil && c.pred != nil && c.pred(req, state) {
		return c.mw.Handle(req, state, next)
	}
	return next.Run(req)
}

// ChainBuilder 链式组装中间件
type ChainBuilder[S any] struct {
	mws Chain[S]
}

func NewBuilder[S any]() *ChainBuilder[S] { return &ChainBuilder[S]{} }

func (b *ChainBuilder[S]) Add(mw Middleware[S]) *ChainBuilder[S] {
	if mw != nil {
		b.mws = append(b.mws, mw)
	}
	return b
}

func (b *ChainBuilder[S]) When(pred func(req *Req, state S) bool, mw Middleware[S]) *ChainBuilder[S] {
	return b.Add(When(pred, mw))
}

// Build 返回组合好的链（Chain 同时实现 Middleware）
func (b *ChainBuilder[S]) Build() Chain[S] {
	return NewChain[S](b.mws...)
}

// Endpoint 将返回错误的路由处理器适配为链终端，错误经 eh 转为响应
func Endpoint[S any](h Handler[S], eh ErrorHandler) HandlerFunc[S] {
	if h == nil {
		panic("zhttp: nil endpoint handler")
	}
	if eh == nil {
		eh = DefaultErrorHandler
	}
	return func(req *Req, state S) *Res {
		res, err := h(req, state)
		if err != nil {
			return eh.HandleError(AsError(err))
		}
		if res == nil {
			return eh.HandleError(Internal("handler returned no response"))
		}
		return res
	}
}

func appendNonNil[S any](dst Chain[S], src []Middleware[S]) Chain[S] {
	for _, mw := range src {
		if mw == nil {
			continue
		}
		dst = append(dst, mw)
	}
	return dst
}
