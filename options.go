package overlay

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-overlay/config"
	"github.com/dep2p/go-overlay/internal/core/identity"
)

// Option 用户配置选项函数
type Option func(*peerConfig) error

// peerConfig 内部选项结构
type peerConfig struct {
	config *config.Config

	// applyLog 用户显式给出了配置时覆盖环境变量中的日志设置
	applyLog bool

	credential     *identity.Credential
	clock          clock.Clock
	registerer     prometheus.Registerer
	disableMetrics bool

	userFxOptions []fx.Option
}

func newPeerConfig() *peerConfig {
	return &peerConfig{config: config.NewConfig()}
}

// WithConfig 使用完整配置
func WithConfig(cfg *config.Config) Option {
	return func(c *peerConfig) error {
		if cfg == nil {
			return fmt.Errorf("%w: nil config", ErrInvalidOption)
		}
		c.config = cfg
		c.applyLog = true
		return nil
	}
}

// WithConfigFile 从 JSON 文件加载配置
func WithConfigFile(path string) Option {
	return func(c *peerConfig) error {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		c.config = cfg
		c.applyLog = true
		return nil
	}
}

// WithKeyFile 设置私钥文件；文件不存在且允许自动生成时创建
func WithKeyFile(path string) Option {
	return func(c *peerConfig) error {
		c.config.Identity = c.config.Identity.WithKeyFile(path)
		return nil
	}
}

// WithCredential 直接使用给定凭证，忽略身份配置
func WithCredential(cred *identity.Credential) Option {
	return func(c *peerConfig) error {
		if cred == nil {
			return fmt.Errorf("%w: nil credential", ErrInvalidOption)
		}
		c.credential = cred
		return nil
	}
}

// WithQueueCapacity 设置信使出站队列容量
func WithQueueCapacity(n int) Option {
	return func(c *peerConfig) error {
		if n <= 0 {
			return fmt.Errorf("%w: queue capacity %d", ErrInvalidOption, n)
		}
		c.config.Messenger = c.config.Messenger.WithQueueCapacity(n)
		return nil
	}
}

// WithMarkTLS 出站签名声明 jxtatls:// 源地址
func WithMarkTLS(enable bool) Option {
	return func(c *peerConfig) error {
		c.config.CBJX.MarkTLS = enable
		return nil
	}
}

// WithLogLevel 设置日志级别，格式同 OVERLAY_LOG_LEVEL
func WithLogLevel(level string) Option {
	return func(c *peerConfig) error {
		c.config.Log.Level = level
		c.applyLog = true
		return nil
	}
}

// WithClock 替换信使使用的时钟
func WithClock(clk clock.Clock) Option {
	return func(c *peerConfig) error {
		c.clock = clk
		return nil
	}
}

// WithMetricsRegisterer 把指标注册到给定 Registerer
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(c *peerConfig) error {
		c.registerer = reg
		c.disableMetrics = false
		return nil
	}
}

// WithoutMetrics 不加载指标模块
func WithoutMetrics() Option {
	return func(c *peerConfig) error {
		c.disableMetrics = true
		return nil
	}
}

// WithFxOptions 追加自定义 fx 选项
func WithFxOptions(opts ...fx.Option) Option {
	return func(c *peerConfig) error {
		c.userFxOptions = append(c.userFxOptions, opts...)
		return nil
	}
}
