package memory

import "errors"

var (
	// ErrBroken 管道已断开
	ErrBroken = errors.New("memory pipe broken")

	// ErrClosed 端点已关闭
	ErrClosed = errors.New("memory endpoint closed")
)
