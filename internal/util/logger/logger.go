// Package logger 提供 overlay 的统一日志系统
//
// 基于标准库 log/slog，支持：
//   - 按子系统配置日志级别（wire、cbjx、messenger ...）
//   - 环境变量配置（OVERLAY_LOG_LEVEL, OVERLAY_LOG_FORMAT, OVERLAY_LOG_ADD_SOURCE）
//   - 运行时切换输出目标与级别
//
// 使用示例:
//
//	var log = logger.Logger("messenger")
//
//	log.Debug("状态迁移", "from", old, "to", next)
//	log.Warn("传输失效，丢弃排队消息", "count", n)
//
// 环境变量配置:
//
//	# 全局 info，wire 子系统 debug
//	OVERLAY_LOG_LEVEL=wire=debug,info
//
//	# JSON 输出
//	OVERLAY_LOG_FORMAT=json
package logger

import (
	"io"
	"log/slog"
	"sync"
)

var (
	// loggers 缓存各子系统的 Logger
	loggers sync.Map // map[string]*slog.Logger

	// handlers 缓存各子系统的 Handler，用于动态调整级别
	handlers sync.Map // map[string]*subsystemHandler
)

// Logger 获取指定子系统的 Logger
//
// 同一子系统多次调用返回同一个实例，级别取自 OVERLAY_LOG_LEVEL。
func Logger(subsystem string) *slog.Logger {
	if l, ok := loggers.Load(subsystem); ok {
		return l.(*slog.Logger)
	}

	cfg := ConfigFromEnv()
	h := newHandler(subsystem, cfg.LevelForSubsystem(subsystem), cfg.Format, cfg.AddSource)

	actual, loaded := loggers.LoadOrStore(subsystem, slog.New(h))
	if !loaded {
		handlers.Store(subsystem, h)
	}
	return actual.(*slog.Logger)
}

// SetLevel 动态设置子系统的日志级别
func SetLevel(subsystem string, level slog.Level) {
	if h, ok := handlers.Load(subsystem); ok {
		h.(*subsystemHandler).SetLevel(level)
	}
}

// SetGlobalLevel 设置所有已创建子系统的日志级别
func SetGlobalLevel(level slog.Level) {
	handlers.Range(func(_, value any) bool {
		value.(*subsystemHandler).SetLevel(level)
		return true
	})
}

// Apply 将解析好的配置应用到所有已创建的子系统
//
// 之后新建的子系统仍按环境变量解析；需要统一覆盖时应在启动早期调用。
func Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	handlers.Range(func(key, value any) bool {
		value.(*subsystemHandler).SetLevel(cfg.LevelForSubsystem(key.(string)))
		return true
	})
}

// Discard 返回一个丢弃所有日志的 Logger
//
// 主要用于测试。
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

// SetOutput 设置全局日志输出目标
//
// 对已创建的 Logger 同样生效。
func SetOutput(w io.Writer) {
	output.set(w)
}
