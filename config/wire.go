package config

import (
	"errors"
	"math"
)

// WireConfig 线格式配置
type WireConfig struct {
	// MaxElementSize 解码时单个元素负载上限（字节）
	// 线格式本身的上限是 2^31-1
	MaxElementSize int64 `json:"max_element_size"`
}

// DefaultWireConfig 返回默认线格式配置
func DefaultWireConfig() WireConfig {
	return WireConfig{
		MaxElementSize: 64 << 20,
	}
}

// Validate 验证线格式配置
func (c WireConfig) Validate() error {
	if c.MaxElementSize <= 0 || c.MaxElementSize > math.MaxInt32 {
		return errors.New("max element size must be in (0, 2^31-1]")
	}
	return nil
}
