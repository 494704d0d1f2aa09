package types

import "errors"

var (
	// ErrInvalidPeerID 无效的节点标识
	ErrInvalidPeerID = errors.New("invalid peer id")

	// ErrInvalidAddress 无效的端点地址
	ErrInvalidAddress = errors.New("invalid endpoint address")

	// ErrUnsupportedKey 不支持的公钥类型
	ErrUnsupportedKey = errors.New("unsupported public key")
)
