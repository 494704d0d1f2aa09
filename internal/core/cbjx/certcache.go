package cbjx

import (
	"crypto/x509"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	sha256 "github.com/minio/sha256-simd"
)

// certCache 已通过自签名检查的证书缓存，键为 DER 的 SHA256
type certCache struct {
	cache *lru.Cache[[32]byte, *x509.Certificate]
}

func newCertCache(size int) (*certCache, error) {
	c, err := lru.New[[32]byte, *x509.Certificate](size)
	if err != nil {
		return nil, fmt.Errorf("create cert cache: %w", err)
	}
	return &certCache{cache: c}, nil
}

// load 解析并检查证书；缓存命中时跳过解析与自签名检查
func (c *certCache) load(der []byte) (*x509.Certificate, error) {
	key := sha256.Sum256(der)
	if cert, ok := c.cache.Get(key); ok {
		return cert, nil
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCertificate, err)
	}
	if err := cert.CheckSignature(cert.SignatureAlgorithm, cert.RawTBSCertificate, cert.Signature); err != nil {
		return nil, fmt.Errorf("%w: self-signature: %v", ErrBadCertificate, err)
	}

	c.cache.Add(key, cert)
	return cert, nil
}

func (c *certCache) len() int {
	return c.cache.Len()
}
