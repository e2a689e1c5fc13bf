package ziface

// Router 路由抽象，屏蔽具体路由树实现。H 为路由处理器类型。
type Router[H any] interface {
	Handle(method, path string, h H)
	// Find 根据方法与路径解析到处理器与路径参数
	Find(method, path string) (H, map[string]string, bool)
}
