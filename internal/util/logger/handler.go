package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

// ============================================================================
//                              输出目标
// ============================================================================

// switchWriter 可在运行时替换目标的 io.Writer，所有子系统共用一个
type switchWriter struct {
	mu sync.RWMutex
	w  io.Writer
}

var output = &switchWriter{w: os.Stderr}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.w.Write(p)
}

func (s *switchWriter) set(w io.Writer) {
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()
}

// ============================================================================
//                              子系统 Handler
// ============================================================================

// subsystemHandler 带子系统标签、级别可调的 slog.Handler
//
// level 在 With/WithGroup 派生出的 Handler 之间共享。
type subsystemHandler struct {
	slog.Handler
	level *slog.LevelVar
}

func newHandler(subsystem string, level slog.Level, format LogFormat, addSource bool) *subsystemHandler {
	lv := new(slog.LevelVar)
	lv.Set(level)

	opts := &slog.HandlerOptions{Level: lv, AddSource: addSource, ReplaceAttr: shortAttrs}
	var inner slog.Handler
	if format == FormatJSON {
		inner = slog.NewJSONHandler(output, opts)
	} else {
		inner = slog.NewTextHandler(output, opts)
	}
	return &subsystemHandler{
		Handler: inner.WithAttrs([]slog.Attr{slog.String("subsystem", subsystem)}),
		level:   lv,
	}
}

func (h *subsystemHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &subsystemHandler{Handler: h.Handler.WithAttrs(attrs), level: h.level}
}

func (h *subsystemHandler) WithGroup(name string) slog.Handler {
	return &subsystemHandler{Handler: h.Handler.WithGroup(name), level: h.level}
}

// SetLevel 调整级别，对全部派生 Handler 生效
func (h *subsystemHandler) SetLevel(level slog.Level) {
	h.level.Set(level)
}

// shortAttrs 时间键写作 ts，级别写作小写名
func shortAttrs(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		if lvl, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(levelName(lvl))
		}
	}
	return a
}

func levelName(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return "debug"
	case level < slog.LevelWarn:
		return "info"
	case level < slog.LevelError:
		return "warn"
	default:
		return "error"
	}
}

// discardHandler 丢弃一切记录
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
