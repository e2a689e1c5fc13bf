package zmw

import (
	"net/http"

	"golang.org/x/time/rate"

	"github.com/SparkleBo/zapi/zhttp"
)

// RateLimit 令牌桶限流
// rps: 每秒产生的令牌数，burst: 桶容量
func RateLimit[S any](rps float64, burst int) zhttp.Middleware[S] {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return zhttp.MiddlewareFunc[S](func(req *zhttp.Req, state S, next *zhttp.Next[S]) *zhttp.Res {
		if !limiter.Allow() {
			return zhttp.String(http.StatusTooManyRequests, "too many requests")
		}
		return next.Run(req)
	})
}
