package zmw

import (
	"time"

	"github.com/SparkleBo/zapi/zhttp"
)

// Timing 在响应头 X-Response-Time 中写入处理耗时
func Timing[S any]() zhttp.Middleware[S] {
	return zhttp.MiddlewareFunc[S](func(req *zhttp.Req, state S, next *zhttp.Next[S]) *zhttp.Res {
		start := time.Now()
		res := next.Run(req)
		if res != nil {
			res.WithHeader("X-Response-Time", time.Since(start).String())
		}
		return res
	})
}
