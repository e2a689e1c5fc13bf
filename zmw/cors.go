package zmw

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/SparkleBo/zapi/zhttp"
)

// CORSConfig 跨域策略
type CORSConfig struct {
	AllowOrigins     []string // 含 "*" 表示允许任意来源
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	MaxAge           int // 秒，<= 0 不输出 Access-Control-Max-Age
	AllowCredentials bool
}

// PermissiveCORS 允许任意来源、常用方法与任意请求头
func PermissiveCORS() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders: []string{"*"},
		MaxAge:       3600,
	}
}

// RestrictiveCORS 不允许任何来源，需通过 AllowOrigins 显式放行
func RestrictiveCORS() CORSConfig {
	return CORSConfig{
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Content-Type"},
		MaxAge:       600,
	}
}

func (c CORSConfig) wildcard() bool { return slices.Contains(c.AllowOrigins, "*") }

func (c CORSConfig) allowed(origin string) bool {
	return c.wildcard() || slices.Contains(c.AllowOrigins, origin)
}

// CORS 写入跨域响应头；预检请求（OPTIONS + Access-Control-Request-Method）直接返回 204
func CORS[S any](cfg CORSConfig) zhttp.Middleware[S] {
	return zhttp.MiddlewareFunc[S](func(req *zhttp.Req, state S, next *zhttp.Next[S]) *zhttp.Res {
		origin := req.Header("Origin")
		if req.Method() == http.MethodOptions && req.Header("Access-Control-Request-Method") != "" {
			res := zhttp.Empty(http.StatusNoContent)
			if origin != "" && cfg.allowed(origin) {
				cfg.setOrigin(res, origin)
				if len(cfg.AllowMethods) > 0 {
					res.Header.Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowMethods, ", "))
				}
				if len(cfg.AllowHeaders) > 0 {
					res.Header.Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowHeaders, ", "))
				}
				if cfg.MaxAge > 0 {
					res.Header.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
			}
			return res
		}

		res := next.Run(req)
		if res != nil && origin != "" && cfg.allowed(origin) {
			cfg.setOrigin(res, origin)
			if len(cfg.ExposeHeaders) > 0 {
				res.Header.Set("Access-Control-Expose-Headers", strings.Join(cfg.ExposeHeaders, ", "))
			}
		}
		return res
	})
}

func (c CORSConfig) setOrigin(res *zhttp.Res, origin string) {
	if c.wildcard() {
		res.WithHeader("Access-Control-Allow-Origin", "*")
	} else {
		res.WithHeader("Access-Control-Allow-Origin", origin)
		res.Header.Add("Vary", "Origin")
	}
	if c.AllowCredentials {
		res.Header.Set("Access-Control-Allow-Credentials", "true")
	}
}
