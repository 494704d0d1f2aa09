package messenger

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-overlay/config"
	pkgif "github.com/dep2p/go-overlay/pkg/interfaces"
)

// coreOptions Core 构造参数
type coreOptions struct {
	capacity        int
	blockingTimeout time.Duration
	pollInterval    time.Duration
	clock           clock.Clock
	emitter         pkgif.Emitter
	observer        Observer
}

func defaultCoreOptions() coreOptions {
	cfg := config.DefaultMessengerConfig()
	return coreOptions{
		capacity:        cfg.QueueCapacity,
		blockingTimeout: cfg.BlockingSendTimeout.Duration(),
		pollInterval:    cfg.PollInterval.Duration(),
		clock:           clock.New(),
		observer:        nopObserver{},
	}
}

// Option Core 构造选项
type Option func(*coreOptions)

// WithConfig 按配置设置队列容量与阻塞发送的时长参数
func WithConfig(cfg config.MessengerConfig) Option {
	return func(o *coreOptions) {
		if cfg.QueueCapacity > 0 {
			o.capacity = cfg.QueueCapacity
		}
		if cfg.BlockingSendTimeout > 0 {
			o.blockingTimeout = cfg.BlockingSendTimeout.Duration()
		}
		if cfg.PollInterval > 0 {
			o.pollInterval = cfg.PollInterval.Duration()
		}
	}
}

// WithQueueCapacity 设置出站队列容量
func WithQueueCapacity(n int) Option {
	return func(o *coreOptions) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithBlockingTimeout 设置阻塞发送的总等待上限
func WithBlockingTimeout(d time.Duration) Option {
	return func(o *coreOptions) {
		if d > 0 {
			o.blockingTimeout = d
		}
	}
}

// WithClock 替换时钟，测试中传入 clock.NewMock()
func WithClock(clk clock.Clock) Option {
	return func(o *coreOptions) {
		if clk != nil {
			o.clock = clk
		}
	}
}

// WithEmitter 设置 EvtMessengerStateChanged 发射器
func WithEmitter(em pkgif.Emitter) Option {
	return func(o *coreOptions) {
		o.emitter = em
	}
}

// WithObserver 设置指标观测
func WithObserver(obs Observer) Option {
	return func(o *coreOptions) {
		if obs != nil {
			o.observer = obs
		}
	}
}
