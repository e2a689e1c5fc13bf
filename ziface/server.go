package ziface

// IServer 服务器生命周期
type IServer interface {
	// Start 启动服务（非阻塞）
	Start() error
	// Stop 优雅停止
	Stop() error
	// Serve 启动并阻塞，直到 Stop 被调用或监听失败
	Serve() error
}
