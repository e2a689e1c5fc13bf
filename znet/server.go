package znet

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/SparkleBo/zapi/ziface"
)

// Option 配置 Server
type Option func(*Server)

func WithAddr(addr string) Option { return func(s *Server) { s.addr = addr } }

// WithReusePort 监听前设置 SO_REUSEADDR/SO_REUSEPORT（仅 unix）
func WithReusePort(on bool) Option { return func(s *Server) { s.reusePort = on } }

// WithH2C 允许明文 HTTP/2（h2c），HTTP/1.1 请求不受影响
func WithH2C(on bool) Option { return func(s *Server) { s.h2c = on } }

func WithReadHeaderTimeout(d time.Duration) Option {
	return func(s *Server) { s.readHeaderTimeout = d }
}

func WithIdleTimeout(d time.Duration) Option { return func(s *Server) { s.idleTimeout = d } }

func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) { s.shutdownTimeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server 负责监听与接受连接，请求交给 handler
type Server struct {
	Name string

	addr              string
	reusePort         bool
	h2c               bool
	readHeaderTimeout time.Duration
	idleTimeout       time.Duration
	shutdownTimeout   time.Duration
	logger            *slog.Logger

	handler http.Handler

	mu         sync.Mutex
	ln         net.Listener
	httpServer *http.Server
	done       chan error
}

// NewServer 创建服务器，默认监听 127.0.0.1:8888
func NewServer(name string, handler http.Handler, opts ...Option) *Server {
	s := &Server{
		Name:              name,
		addr:              "127.0.0.1:8888",
		readHeaderTimeout: 5 * time.Second,
		idleTimeout:       60 * time.Second,
		shutdownTimeout:   5 * time.Second,
		logger:            slog.Default(),
		handler:           handler,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Start 监听地址并在后台接受连接（非阻塞）
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpServer != nil {
		return nil
	}
	lc := net.ListenConfig{Control: listenControl(s.reusePort)}
	ln, err := lc.Listen(context.Background(), "tcp", s.addr)
	if err != nil {
		return err
	}

	h := s.handler
	if s.h2c {
		h = h2c.NewHandler(h, &http2.Server{IdleTimeout: s.idleTimeout})
	}
	s.ln = ln
	s.httpServer = &http.Server{
		Handler:           h,
		ReadHeaderTimeout: s.readHeaderTimeout,
		IdleTimeout:       s.idleTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.done = make(chan error, 1)

	srv, done := s.httpServer, s.done
	s.logger.Info("server start", "name", s.Name, "addr", ln.Addr().String(), "h2c", s.h2c)
	go func() {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		if err != nil {
			s.logger.Error("server listen", "name", s.Name, "err", err)
		}
		done <- err
	}()
	return nil
}

// Stop 优雅停止，等待进行中的请求完成（超时后强制关闭）
func (s *Server) Stop() error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(ctx)
	if err != nil {
		s.logger.Error("server shutdown", "name", s.Name, "err", err)
		_ = srv.Close()
	}
	s.logger.Info("server stop", "name", s.Name)
	return err
}

// Serve 启动并阻塞，直到 Stop 或监听失败
func (s *Server) Serve() error {
	if err := s.Start(); err != nil {
		return err
	}
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	return <-done
}

// Addr 返回实际监听地址；未启动时返回配置的地址
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

var _ ziface.IServer = (*Server)(nil)
