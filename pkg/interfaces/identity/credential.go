// Package identity 定义签名凭证相关接口
//
// 凭证（证书 + 签名能力）由外部成员/身份子系统提供；消息子系统只在单次
// 签名或验证调用期间以只读方式使用凭证。
package identity

import (
	"crypto/x509"

	"github.com/dep2p/go-overlay/pkg/types"
)

// SignatureAlgorithm 签名算法标识
type SignatureAlgorithm string

const (
	// AlgorithmEd25519 CBJX 尾部固定使用的签名算法
	AlgorithmEd25519 SignatureAlgorithm = "Ed25519"
)

// Credential 签名凭证
//
// ⚠️ 安全边界：实现不得通过本接口暴露私钥材料；签名只能经由 Sign 完成。
type Credential interface {
	// Certificate 返回凭证证书（自签名，公钥与签名私钥配对）
	Certificate() *x509.Certificate

	// PeerID 返回由证书公钥派生的节点标识
	PeerID() types.PeerID

	// Sign 使用指定算法对数据签名
	//
	// 算法与密钥不匹配时返回错误。
	Sign(alg SignatureAlgorithm, data []byte) ([]byte, error)
}

// CredentialSource 凭证提供者
type CredentialSource interface {
	// DefaultCredential 返回当前默认凭证
	DefaultCredential() (Credential, error)
}
