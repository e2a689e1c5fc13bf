package std

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/SparkleBo/zapi/zhttp"
	"github.com/SparkleBo/zapi/ziface"
	"github.com/SparkleBo/zapi/znet"
	"github.com/SparkleBo/zapi/zrouter"
)

// Option 配置 Server
type Option func(*options)

type options struct {
	logger       *slog.Logger
	errorHandler zhttp.ErrorHandler
}

func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

func WithErrorHandler(eh zhttp.ErrorHandler) Option {
	return func(o *options) { o.errorHandler = eh }
}

// Server 基于 net/http 的应用服务器：共享状态、路由、全局中间件与错误处理器
type Server[S any] struct {
	cfg    Config
	state  S
	router *zrouter.Router[zhttp.HandlerFunc[S]]
	mws    zhttp.Chain[S]
	logger *slog.Logger

	mu           sync.RWMutex
	errorHandler zhttp.ErrorHandler

	buildOnce sync.Once
	handler   zhttp.HandlerFunc[S]

	srv *znet.Server
}

// New 以默认配置创建服务器
func New[S any](addr string, state S, opts ...Option) *Server[S] {
	cfg := DefaultConfig()
	cfg.Addr = addr
	return NewFromConfig(cfg, state, opts...)
}

// NewFromConfig 以给定配置创建服务器
func NewFromConfig[S any](cfg Config, state S, opts ...Option) *Server[S] {
	o := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.errorHandler == nil {
		o.errorHandler = zhttp.DefaultErrorHandler
	}
	return &Server[S]{
		cfg:          cfg,
		state:        state,
		router:       zrouter.New[zhttp.HandlerFunc[S]](),
		logger:       o.logger,
		errorHandler: o.errorHandler,
	}
}

// Use 注册全局中间件；首个请求到达后链即固定，之后注册的中间件不生效
func (s *Server[S]) Use(mws ...zhttp.Middleware[S]) { s.mws = s.mws.With(mws...) }

// Route 注册路由与其专属中间件
func (s *Server[S]) Route(method, path string, h zhttp.Handler[S], mws ...zhttp.Middleware[S]) {
	s.route(s.router, method, path, h, zhttp.NewChain(mws...))
}

// Group 返回带前缀与中间件的子路由（便于模块化）
func (s *Server[S]) Group(prefix string, mws ...zhttp.Middleware[S]) *Group[S] {
	return &Group[S]{s: s, router: s.router.Group(prefix), mws: zhttp.NewChain(mws...)}
}

// SetErrorHandler 替换错误处理器，对已注册的路由同样生效
func (s *Server[S]) SetErrorHandler(eh zhttp.ErrorHandler) {
	if eh == nil {
		eh = zhttp.DefaultErrorHandler
	}
	s.mu.Lock()
	s.errorHandler = eh
	s.mu.Unlock()
}

// State 返回共享状态
func (s *Server[S]) State() S { return s.state }

func (s *Server[S]) handleError(err *zhttp.Error) *zhttp.Res {
	s.mu.RLock()
	eh := s.errorHandler
	s.mu.RUnlock()
	return eh.HandleError(err)
}

func (s *Server[S]) route(r ziface.Router[zhttp.HandlerFunc[S]], method, path string, h zhttp.Handler[S], mws zhttp.Chain[S]) {
	endpoint := zhttp.Endpoint(h, zhttp.ErrorHandlerFunc(s.handleError))
	r.Handle(method, path, mws.Then(endpoint))
}

// dispatch 链终端：路由匹配、写入路径参数、执行路由链
func (s *Server[S]) dispatch(req *zhttp.Req, state S) *zhttp.Res {
	h, params, ok := s.router.Find(req.Method(), req.Path())
	if !ok {
		return s.handleError(zhttp.StatusCode(http.StatusNotFound))
	}
	req.SetParams(params)
	return h(req, state)
}

func (s *Server[S]) build() zhttp.HandlerFunc[S] {
	s.buildOnce.Do(func() {
		s.handler = s.mws.Then(s.dispatch)
	})
	return s.handler
}

// ServeHTTP 实现 http.Handler
func (s *Server[S]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := acquireReq(w, r, s.cfg.MaxBodyBytes)
	res := s.build()(req, s.state)
	if res == nil {
		s.logger.Error("chain produced no response", "method", r.Method, "path", r.URL.Path)
		res = s.handleError(zhttp.Internal("no response"))
	}
	if err := writeRes(w, res); err != nil {
		if errors.Is(err, ErrUpgradeUnsupported) {
			_ = s.handleError(zhttp.Internal("upgrade not supported")).WriteTo(w)
		}
		s.logger.Warn("write response", "method", r.Method, "path", r.URL.Path, "err", err)
	}
}

// Start 启动 HTTP 服务器（非阻塞）
func (s *Server[S]) Start() error {
	if s.srv == nil {
		s.srv = znet.NewServer(s.cfg.Name, s,
			znet.WithAddr(s.cfg.Addr),
			znet.WithH2C(s.cfg.H2C),
			znet.WithReusePort(s.cfg.ReusePort),
			znet.WithReadHeaderTimeout(s.cfg.ReadHeaderTimeout),
			znet.WithIdleTimeout(s.cfg.IdleTimeout),
			znet.WithShutdownTimeout(s.cfg.ShutdownTimeout),
			znet.WithLogger(s.logger),
		)
	}
	return s.srv.Start()
}

// Stop 优雅停止 HTTP 服务器
func (s *Server[S]) Stop() error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Stop()
}

// Serve 启动并阻塞当前 goroutine
func (s *Server[S]) Serve() error {
	if err := s.Start(); err != nil {
		return err
	}
	return s.srv.Serve()
}

// Addr 实际监听地址
func (s *Server[S]) Addr() string {
	if s.srv == nil {
		return s.cfg.Addr
	}
	return s.srv.Addr()
}

var _ ziface.IServer = (*Server[struct{}])(nil)
