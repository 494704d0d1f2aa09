package config

import (
	"errors"
	"time"
)

// IdentityConfig 凭证配置
type IdentityConfig struct {
	// KeyFile 私钥 PEM 文件路径
	// 为空时在内存中生成临时凭证
	KeyFile string `json:"key_file"`

	// AutoGenerate 密钥文件不存在时生成新密钥并写入 KeyFile
	AutoGenerate bool `json:"auto_generate"`

	// CertValidity 自签名证书有效期
	CertValidity Duration `json:"cert_validity"`
}

// DefaultIdentityConfig 返回默认凭证配置
func DefaultIdentityConfig() IdentityConfig {
	return IdentityConfig{
		KeyFile:      "",
		AutoGenerate: true,
		CertValidity: Duration(365 * 24 * time.Hour),
	}
}

// Validate 验证凭证配置
func (c IdentityConfig) Validate() error {
	if c.CertValidity <= 0 {
		return errors.New("cert validity must be positive")
	}
	if c.KeyFile == "" && !c.AutoGenerate {
		return errors.New("key file is required when auto generate is disabled")
	}
	return nil
}

// WithKeyFile 设置私钥文件路径
func (c IdentityConfig) WithKeyFile(path string) IdentityConfig {
	c.KeyFile = path
	return c
}

// WithAutoGenerate 设置是否自动生成密钥
func (c IdentityConfig) WithAutoGenerate(auto bool) IdentityConfig {
	c.AutoGenerate = auto
	return c
}
