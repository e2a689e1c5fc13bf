//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package znet

import "syscall"

// listenControl 其他平台不支持 SO_REUSEPORT，忽略该选项
func listenControl(bool) func(network, address string, c syscall.RawConn) error {
	return nil
}
