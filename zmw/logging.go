package zmw

import (
	"log/slog"
	"time"

	"github.com/SparkleBo/zapi/zhttp"
)

// Logging 访问日志中间件：记录方法、路径、状态码、耗时
func Logging[S any](logger *slog.Logger) zhttp.Middleware[S] {
	if logger == nil {
		logger = slog.Default()
	}
	return zhttp.MiddlewareFunc[S](func(req *zhttp.Req, state S, next *zhttp.Next[S]) *zhttp.Res {
		start := time.Now()
		res := next.Run(req)
		status := 0
		if res != nil {
			status = res.Status
		}
		logger.Info("access",
			"method", req.Method(),
			"path", req.Path(),
			"status", status,
			"duration", time.Since(start),
		)
		return res
	})
}
