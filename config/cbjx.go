package config

import "errors"

// CBJXConfig 认证尾部配置
type CBJXConfig struct {
	// CertCacheSize 已验证自签名证书的缓存容量
	CertCacheSize int `json:"cert_cache_size"`

	// RequireCBID 要求尾部声明的源标识等于证书公钥派生的标识
	RequireCBID bool `json:"require_cbid"`

	// MarkTLS 签名时使用 jxtatls:// 源地址形式
	MarkTLS bool `json:"mark_tls"`
}

// DefaultCBJXConfig 返回默认认证尾部配置
func DefaultCBJXConfig() CBJXConfig {
	return CBJXConfig{
		CertCacheSize: 256,
		RequireCBID:   true,
		MarkTLS:       false,
	}
}

// Validate 验证认证尾部配置
func (c CBJXConfig) Validate() error {
	if c.CertCacheSize <= 0 {
		return errors.New("cert cache size must be positive")
	}
	return nil
}
