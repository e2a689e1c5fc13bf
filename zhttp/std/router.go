package std

import (
	"github.com/SparkleBo/zapi/zhttp"
	"github.com/SparkleBo/zapi/zrouter"
)

// Group 带前缀与中间件的子路由，注册写入父服务器的同一棵路由树
type Group[S any] struct {
	s      *Server[S]
	router *zrouter.Router[zhttp.HandlerFunc[S]]
	mws    zhttp.Chain[S]
}

// Route 注册路由：组中间件在外，路由中间件在内
func (g *Group[S]) Route(method, path string, h zhttp.Handler[S], mws ...zhttp.Middleware[S]) {
	g.s.route(g.router, method, path, h, g.mws.With(mws...))
}

// Group 创建嵌套子组，继承前缀与中间件
func (g *Group[S]) Group(prefix string, mws ...zhttp.Middleware[S]) *Group[S] {
	return &Group[S]{s: g.s, router: g.router.Group(prefix), mws: g.mws.With(mws...)}
}
