package config

import (
	"errors"
	"time"
)

// MessengerConfig 异步发送器配置
type MessengerConfig struct {
	// QueueCapacity 出站队列容量
	QueueCapacity int `json:"queue_capacity"`

	// BlockingSendTimeout 阻塞发送的总等待上限
	BlockingSendTimeout Duration `json:"blocking_send_timeout"`

	// PollInterval 阻塞发送等待超过该间隔后输出一次慢等待日志
	PollInterval Duration `json:"poll_interval"`

	// EmitStateEvents 状态变化时发布 EvtMessengerStateChanged 事件
	EmitStateEvents bool `json:"emit_state_events"`
}

// DefaultMessengerConfig 返回默认发送器配置
func DefaultMessengerConfig() MessengerConfig {
	return MessengerConfig{
		QueueCapacity:       100,
		BlockingSendTimeout: Duration(60 * time.Second),
		PollInterval:        Duration(500 * time.Millisecond),
		EmitStateEvents:     true,
	}
}

// Validate 验证发送器配置
func (c MessengerConfig) Validate() error {
	if c.QueueCapacity <= 0 {
		return errors.New("queue capacity must be positive")
	}
	if c.BlockingSendTimeout <= 0 {
		return errors.New("blocking send timeout must be positive")
	}
	if c.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}
	return nil
}

// WithQueueCapacity 设置队列容量
func (c MessengerConfig) WithQueueCapacity(n int) MessengerConfig {
	c.QueueCapacity = n
	return c
}
