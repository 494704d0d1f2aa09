package config

import (
	"fmt"
	"strings"

	"github.com/dep2p/go-overlay/internal/util/logger"
)

// LogConfig 日志配置
//
// 环境变量 OVERLAY_LOG_* 的优先级高于此处配置。
type LogConfig struct {
	// Level 日志级别，支持按子系统设置，例如 "wire=debug,messenger=warn,info"
	Level string `json:"level"`

	// Format 输出格式：text 或 json
	Format string `json:"format"`

	// AddSource 输出调用位置
	AddSource bool `json:"add_source"`
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "text",
	}
}

// Validate 验证日志配置
func (c LogConfig) Validate() error {
	switch strings.ToLower(c.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.Format)
	}
	for _, part := range strings.Split(c.Level, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, lvl, ok := strings.Cut(part, "="); ok {
			part = lvl
		}
		if _, ok := logger.ParseLevel(part); !ok {
			return fmt.Errorf("invalid log level %q", part)
		}
	}
	return nil
}

// LoggerConfig 转换为 logger 包的配置
func (c LogConfig) LoggerConfig() *logger.Config {
	addSource := ""
	if c.AddSource {
		addSource = "true"
	}
	return logger.ParseConfig(c.Level, c.Format, addSource)
}
