package cbjx

import (
	"bytes"
	"crypto/x509"
	"sync"

	"github.com/dep2p/go-overlay/internal/core/message"
)

// PropertyKey 验证集合属性键
type PropertyKey string

// 验证集合属性键
const (
	// PropVerifiedAddresses 已验证源地址集合（*AddressSet）
	PropVerifiedAddresses PropertyKey = "cbjx.verified-addresses"

	// PropVerifiedCertificates 已验证签名证书集合（*CertificateSet）
	PropVerifiedCertificates PropertyKey = "cbjx.verified-certificates"
)

// ============================================================================
//                              AddressSet
// ============================================================================

// AddressSet 只增不减的地址集合，按加入顺序保存
type AddressSet struct {
	mu    sync.RWMutex
	items []string
}

// Add 加入地址；已存在时返回 false
func (s *AddressSet) Add(addr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.items {
		if a == addr {
			return false
		}
	}
	s.items = append(s.items, addr)
	return true
}

// Contains 是否包含地址
func (s *AddressSet) Contains(addr string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.items {
		if a == addr {
			return true
		}
	}
	return false
}

// List 返回副本
func (s *AddressSet) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.items...)
}

// Len 集合大小
func (s *AddressSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// ============================================================================
//                              CertificateSet
// ============================================================================

// CertificateSet 只增不减的证书集合，按 DER 去重
type CertificateSet struct {
	mu    sync.RWMutex
	items []*x509.Certificate
}

// Add 加入证书；已存在时返回 false
func (s *CertificateSet) Add(cert *x509.Certificate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.items {
		if bytes.Equal(c.Raw, cert.Raw) {
			return false
		}
	}
	s.items = append(s.items, cert)
	return true
}

// List 返回副本
func (s *CertificateSet) List() []*x509.Certificate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*x509.Certificate(nil), s.items...)
}

// Len 集合大小
func (s *CertificateSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// ============================================================================
//                              消息属性访问
// ============================================================================

func addressSet(msg *message.Message) *AddressSet {
	return msg.PropertyOrInit(PropVerifiedAddresses, func() any { return new(AddressSet) }).(*AddressSet)
}

func certificateSet(msg *message.Message) *CertificateSet {
	return msg.PropertyOrInit(PropVerifiedCertificates, func() any { return new(CertificateSet) }).(*CertificateSet)
}

// initVerificationSets 确保两个集合属性存在
func initVerificationSets(msg *message.Message) {
	addressSet(msg)
	certificateSet(msg)
}

// recordVerified 记录一次成功的验证
func recordVerified(msg *message.Message, source string, cert *x509.Certificate) {
	addressSet(msg).Add(source)
	certificateSet(msg).Add(cert)
}

// VerifiedAddresses 返回消息上已验证的源地址
func VerifiedAddresses(msg *message.Message) []string {
	if s, ok := msg.GetProperty(PropVerifiedAddresses).(*AddressSet); ok {
		return s.List()
	}
	return nil
}

// VerifiedCertificates 返回消息上已验证的签名证书
func VerifiedCertificates(msg *message.Message) []*x509.Certificate {
	if s, ok := msg.GetProperty(PropVerifiedCertificates).(*CertificateSet); ok {
		return s.List()
	}
	return nil
}

// IsVerified 消息是否至少通过了一层验证
func IsVerified(msg *message.Message) bool {
	s, ok := msg.GetProperty(PropVerifiedAddresses).(*AddressSet)
	return ok && s.Len() > 0
}

// HasVerificationSets 两个验证集合属性是否都存在
func HasVerificationSets(msg *message.Message) bool {
	_, a := msg.GetProperty(PropVerifiedAddresses).(*AddressSet)
	_, c := msg.GetProperty(PropVerifiedCertificates).(*CertificateSet)
	return a && c
}
