package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"time"

	identityif "github.com/dep2p/go-overlay/pkg/interfaces/identity"
	"github.com/dep2p/go-overlay/pkg/types"
)

// DefaultCertValidity 默认证书有效期
const DefaultCertValidity = 365 * 24 * time.Hour

// Credential Ed25519 签名凭证
type Credential struct {
	priv   ed25519.PrivateKey
	cert   *x509.Certificate
	peerID types.PeerID
}

var _ identityif.Credential = (*Credential)(nil)

// Generate 生成新的密钥对并签发自签名证书
func Generate(validity time.Duration) (*Credential, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("生成密钥对失败: %w", err)
	}
	return FromPrivateKey(priv, validity)
}

// FromPrivateKey 用已有私钥签发自签名证书
func FromPrivateKey(priv ed25519.PrivateKey, validity time.Duration) (*Credential, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, ErrNilPrivateKey
	}
	if validity <= 0 {
		validity = DefaultCertValidity
	}

	pub := priv.Public()
	peerID, err := types.PeerIDFromPublicKey(pub)
	if err != nil {
		return nil, err
	}

	cert, err := selfSign(priv, peerID, validity)
	if err != nil {
		return nil, err
	}
	return &Credential{priv: priv, cert: cert, peerID: peerID}, nil
}

// selfSign 用私钥为自身公钥签发证书
//
// 证书公钥与签名私钥配对，标识可由任何持有证书的一方重算。
func selfSign(priv ed25519.PrivateKey, peerID types.PeerID, validity time.Duration) (*x509.Certificate, error) {
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 127))
	if err != nil {
		return nil, fmt.Errorf("生成证书序列号失败: %w", err)
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"go-overlay"},
			CommonName:   peerID.URI(),
		},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(validity),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, priv.Public(), priv)
	if err != nil {
		return nil, fmt.Errorf("创建证书失败: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("解析证书失败: %w", err)
	}
	return cert, nil
}

// Certificate 返回自签名证书
func (c *Credential) Certificate() *x509.Certificate {
	return c.cert
}

// PeerID 返回节点标识
func (c *Credential) PeerID() types.PeerID {
	return c.peerID
}

// Sign 签名；仅支持 Ed25519
func (c *Credential) Sign(alg identityif.SignatureAlgorithm, data []byte) ([]byte, error) {
	if alg != identityif.AlgorithmEd25519 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}
	return ed25519.Sign(c.priv, data), nil
}

// privateKey 返回私钥（仅供持久化使用）
func (c *Credential) privateKey() ed25519.PrivateKey {
	return c.priv
}
