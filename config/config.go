// Package config 提供统一的配置管理
//
// 主 Config 结构体嵌入各子系统的子配置，每个子配置在独立文件中定义，
// 支持从 JSON 加载和保存。
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.Messenger.QueueCapacity = 256
//	cfg.CBJX.RequireCBID = false
//
//	// 从文件加载
//	cfg, err := config.LoadFile("overlay.json")
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Config 完整配置
//
// 配置按子系统组织：
//   - Identity: 签名凭证
//   - Wire: 线格式解码限制
//   - CBJX: 认证尾部验证
//   - Messenger: 异步发送队列
//   - Log: 日志
type Config struct {
	// Identity 凭证配置
	Identity IdentityConfig `json:"identity"`

	// Wire 线格式配置
	Wire WireConfig `json:"wire"`

	// CBJX 认证尾部配置
	CBJX CBJXConfig `json:"cbjx"`

	// Messenger 发送器配置
	Messenger MessengerConfig `json:"messenger"`

	// Log 日志配置
	Log LogConfig `json:"log"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Identity:  DefaultIdentityConfig(),
		Wire:      DefaultWireConfig(),
		CBJX:      DefaultCBJXConfig(),
		Messenger: DefaultMessengerConfig(),
		Log:       DefaultLogConfig(),
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := c.Identity.Validate(); err != nil {
		return fmt.Errorf("identity: %w", err)
	}
	if err := c.Wire.Validate(); err != nil {
		return fmt.Errorf("wire: %w", err)
	}
	if err := c.CBJX.Validate(); err != nil {
		return fmt.Errorf("cbjx: %w", err)
	}
	if err := c.Messenger.Validate(); err != nil {
		return fmt.Errorf("messenger: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// ============================================================================
//                              JSON
// ============================================================================

// FromJSON 从 JSON 数据创建配置
//
// 未出现的字段保留默认值。
//
// 示例 JSON:
//
//	{
//	  "messenger": {"queue_capacity": 256, "blocking_send_timeout": "30s"},
//	  "cbjx": {"require_cbid": true}
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// ToJSON 序列化配置
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// LoadFile 从 JSON 文件加载并验证配置
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := FromJSON(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
