package types

import (
	"crypto"
	"crypto/x509"
	"fmt"
	"strings"

	sha256 "github.com/minio/sha256-simd"
)

// ============================================================================
//                              PeerID - 节点标识
// ============================================================================

// 标识前缀
const (
	// PeerURIPrefix 节点规范 URI 前缀
	PeerURIPrefix = "urn:jxta:"

	// TLSScheme 经由已认证传输会话（TLS）到达时使用的源地址前缀
	TLSScheme = "jxtatls://"

	// peerIDLen 解码后的标识长度（SHA256 摘要）
	peerIDLen = 32
)

// PeerID 节点唯一标识
//
// 值为 Base58(SHA256(SubjectPublicKeyInfo DER))，即"基于密码学的地址"：
// 任何持有证书的一方都能从证书公钥重算出标识，无需信任声明方。
type PeerID string

// EmptyPeerID 空标识
const EmptyPeerID PeerID = ""

// PeerIDFromPublicKey 从公钥派生 PeerID
func PeerIDFromPublicKey(pub crypto.PublicKey) (PeerID, error) {
	if pub == nil {
		return EmptyPeerID, ErrUnsupportedKey
	}
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return EmptyPeerID, fmt.Errorf("%w: %v", ErrUnsupportedKey, err)
	}
	sum := sha256.Sum256(der)
	return PeerID(Base58Encode(sum[:])), nil
}

// PeerIDFromCertificate 从证书公钥派生 PeerID
func PeerIDFromCertificate(cert *x509.Certificate) (PeerID, error) {
	if cert == nil {
		return EmptyPeerID, ErrUnsupportedKey
	}
	return PeerIDFromPublicKey(cert.PublicKey)
}

// ParsePeerID 解析裸标识（不带任何前缀）
func ParsePeerID(s string) (PeerID, error) {
	b, err := Base58Decode(s)
	if err != nil || len(b) != peerIDLen {
		return EmptyPeerID, fmt.Errorf("%w: %q", ErrInvalidPeerID, s)
	}
	return PeerID(s), nil
}

// CanonicalPeerID 将各种标识书写形式归一为裸标识
//
// 接受：
//   - 裸标识         5Q2STWvBFn...
//   - 规范 URI       urn:jxta:5Q2STWvBFn...
//   - TLS 源地址     jxtatls://5Q2STWvBFn...
//   - 端点地址       jxta://5Q2STWvBFn.../Service/Param
func CanonicalPeerID(s string) (PeerID, error) {
	switch {
	case strings.HasPrefix(s, PeerURIPrefix):
		s = strings.TrimPrefix(s, PeerURIPrefix)
	case strings.Contains(s, "://"):
		addr, err := ParseEndpointAddress(s)
		if err != nil {
			return EmptyPeerID, err
		}
		s = addr.Address
	}
	return ParsePeerID(s)
}

// String 返回裸标识
func (id PeerID) String() string {
	return string(id)
}

// ShortString 返回日志用短标识
func (id PeerID) ShortString() string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}

// URI 返回规范 URI 形式
func (id PeerID) URI() string {
	return PeerURIPrefix + string(id)
}

// TLSAddress 返回 TLS 会话源地址形式
func (id PeerID) TLSAddress() string {
	return TLSScheme + string(id)
}

// IsEmpty 检查是否为空
func (id PeerID) IsEmpty() bool {
	return id == EmptyPeerID
}
