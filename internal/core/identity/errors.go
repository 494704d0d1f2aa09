package identity

import "errors"

// ============================================================================
// 错误定义
// ============================================================================

var (
	// ErrNilPrivateKey 私钥为 nil
	ErrNilPrivateKey = errors.New("private key is nil")

	// ErrUnsupportedAlgorithm 凭证不支持请求的签名算法
	ErrUnsupportedAlgorithm = errors.New("unsupported signature algorithm")

	// ErrInvalidPEM 无效的 PEM 数据
	ErrInvalidPEM = errors.New("invalid PEM data")

	// ErrUnsupportedKeyType 不支持的密钥类型
	ErrUnsupportedKeyType = errors.New("unsupported key type")

	// ErrKeyNotFound 密钥文件不存在
	ErrKeyNotFound = errors.New("key not found")

	// ErrNoCredential 未配置凭证
	ErrNoCredential = errors.New("no credential configured")
)
