package zmw

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/SparkleBo/zapi/zhttp"
)

// Recovery 捕获 panic，输出 500 并记录堆栈；http.ErrAbortHandler 继续向上抛出
func Recovery[S any](logger *slog.Logger) zhttp.Middleware[S] {
	if logger == nil {
		logger = slog.Default()
	}
	return zhttp.MiddlewareFunc[S](func(req *zhttp.Req, state S, next *zhttp.Next[S]) (res *zhttp.Res) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if r == http.ErrAbortHandler {
				panic(r)
			}
			logger.Error("panic", "method", req.Method(), "path", req.Path(), "value", r, "stack", string(debug.Stack()))
			res = zhttp.String(http.StatusInternalServerError, fmt.Sprintf("internal error: %v", r))
		}()
		return next.Run(req)
	})
}
