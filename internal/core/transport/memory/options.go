package memory

import (
	"github.com/dep2p/go-overlay/internal/core/cbjx"
	"github.com/dep2p/go-overlay/pkg/types"
)

// EndpointConfig 单个端点的配置
type EndpointConfig struct {
	// Address 端点地址
	Address types.EndpointAddress

	// Signer 非空时对出站消息签名
	Signer *cbjx.Signer

	// Verifier 非空时验证入站消息；对端签名时必须设置
	Verifier *cbjx.Verifier

	// TLS 签名时声明 jxtatls:// 源地址
	TLS bool
}

// ByteObserver 线格式字节计数
type ByteObserver interface {
	LogSentBytes(n int)
	LogRecvBytes(n int)
}

type pipeOptions struct {
	bufferSize int
	inboxSize  int
	bytes      ByteObserver
}

func defaultPipeOptions() pipeOptions {
	return pipeOptions{bufferSize: 8, inboxSize: 16}
}

// Option 管道选项
type Option func(*pipeOptions)

// WithBufferSize 设置每个方向的帧缓冲容量
func WithBufferSize(n int) Option {
	return func(o *pipeOptions) {
		if n > 0 {
			o.bufferSize = n
		}
	}
}

// WithInboxSize 设置收件箱容量
func WithInboxSize(n int) Option {
	return func(o *pipeOptions) {
		if n > 0 {
			o.inboxSize = n
		}
	}
}

// WithByteObserver 设置字节计数
func WithByteObserver(b ByteObserver) Option {
	return func(o *pipeOptions) {
		o.bytes = b
	}
}
