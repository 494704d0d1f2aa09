package overlay

import "errors"

// 公共错误定义
var (
	// ErrPeerClosed 节点已关闭
	ErrPeerClosed = errors.New("peer closed")

	// ErrNilTransport 传输为空
	ErrNilTransport = errors.New("nil transport")

	// ErrInvalidOption 无效选项
	ErrInvalidOption = errors.New("invalid option")
)
