package cbjx

import (
	"bytes"
	"crypto/ed25519"
	"crypto/x509"
	"fmt"
	"sync"

	"github.com/dep2p/go-overlay/config"
	"github.com/dep2p/go-overlay/internal/core/message"
	"github.com/dep2p/go-overlay/internal/core/wire"
	pkgif "github.com/dep2p/go-overlay/pkg/interfaces"
	"github.com/dep2p/go-overlay/pkg/types"
)

// Observer 验证结果观测者（指标）
type Observer interface {
	VerificationSucceeded()
	VerificationFailed(step string)
}

// ============================================================================
//                              Verifier
// ============================================================================

// Verifier 入站消息验证器
//
// Verifier 并发安全，可在多个接收协程间共享。
type Verifier struct {
	certs          *certCache
	requireCBID    bool
	maxElementSize int64

	mu       sync.RWMutex
	emitter  pkgif.Emitter
	observer Observer
}

// NewVerifier 创建验证器
func NewVerifier(cfg config.CBJXConfig, wireCfg config.WireConfig) (*Verifier, error) {
	certs, err := newCertCache(cfg.CertCacheSize)
	if err != nil {
		return nil, err
	}
	maxSize := wireCfg.MaxElementSize
	if maxSize <= 0 {
		maxSize = wire.DefaultMaxElementSize
	}
	return &Verifier{
		certs:          certs,
		requireCBID:    cfg.RequireCBID,
		maxElementSize: maxSize,
	}, nil
}

// SetEmitter 设置验证失败事件发射器
func (v *Verifier) SetEmitter(em pkgif.Emitter) {
	v.mu.Lock()
	v.emitter = em
	v.mu.Unlock()
}

// SetObserver 设置验证结果观测者
func (v *Verifier) SetObserver(o Observer) {
	v.mu.Lock()
	v.observer = o
	v.mu.Unlock()
}

// Verify 验证带尾部的线格式字节
//
// 外层消息格式错误时返回错误。认证失败不返回错误，返回的消息没有
// 任何元素，只带两个空的验证集合属性。
func (v *Verifier) Verify(data []byte) (*message.Message, error) {
	msg, verr, err := v.verify(data)
	if err != nil {
		return nil, err
	}
	if verr != nil {
		v.reject(verr)
		return emptyVerified(), nil
	}

	v.mu.RLock()
	o := v.observer
	v.mu.RUnlock()
	if o != nil {
		o.VerificationSucceeded()
	}
	return msg, nil
}

// verify 返回三种结果之一：格式错误、认证失败、验证通过的消息
func (v *Verifier) verify(data []byte) (*message.Message, *VerificationError, error) {
	msg, unsigned, rest, err := v.split(data)
	if err != nil {
		return nil, nil, err
	}

	t, err := ParseTrailer(rest)
	if err != nil {
		return nil, fail(StepTrailer, err), nil
	}
	cert, verr := v.check(unsigned, t)
	if verr != nil {
		return nil, verr, nil
	}

	initVerificationSets(msg)
	recordVerified(msg, t.Source, cert)

	if verr := v.checkRouter(msg); verr != nil {
		return nil, verr, nil
	}
	return msg, nil, nil
}

// split 解码消息并切分出未签名字节与尾部字节
func (v *Verifier) split(data []byte) (*message.Message, []byte, []byte, error) {
	rd := bytes.NewReader(data)
	msg, err := wire.Decode(rd, wire.WithStrictCount(), wire.WithMaxElementSize(v.maxElementSize))
	if err != nil {
		return nil, nil, nil, err
	}
	n := len(data) - rd.Len()
	return msg, data[:n], data[n:], nil
}

// check 验证一层尾部：证书自签名、签名、源标识
func (v *Verifier) check(unsigned []byte, t *Trailer) (*x509.Certificate, *VerificationError) {
	cert, err := v.certs.load(t.Certificate)
	if err != nil {
		return nil, fail(StepCertificate, err)
	}

	pub, ok := cert.PublicKey.(ed25519.PublicKey)
	if !ok {
		return nil, fail(StepAlgorithm, fmt.Errorf("%w: %T", ErrUnsupportedKey, cert.PublicKey))
	}
	if len(t.Signature) == 0 {
		return nil, fail(StepSignature, fmt.Errorf("%w: empty signature", ErrBadSignature))
	}
	if !ed25519.Verify(pub, signedBytes([][]byte{unsigned}, t), t.Signature) {
		return nil, fail(StepSignature, ErrBadSignature)
	}

	if v.requireCBID {
		if err := matchIdentity(t.Source, cert); err != nil {
			return nil, fail(StepIdentity, err)
		}
	}
	return cert, nil
}

// matchIdentity 要求 claimed 归一后等于证书公钥派生的标识
func matchIdentity(claimed string, cert *x509.Certificate) error {
	id, err := types.CanonicalPeerID(claimed)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIdentityMismatch, err)
	}
	derived, err := types.PeerIDFromCertificate(cert)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIdentityMismatch, err)
	}
	if id != derived {
		return fmt.Errorf("%w: claimed %s, certificate %s", ErrIdentityMismatch, id.ShortString(), derived.ShortString())
	}
	return nil
}

// reject 记录一次认证失败
func (v *Verifier) reject(verr *VerificationError) {
	log.Debug("消息验证失败", "step", verr.Step, "err", verr.Err)

	v.mu.RLock()
	em, o := v.emitter, v.observer
	v.mu.RUnlock()

	if o != nil {
		o.VerificationFailed(string(verr.Step))
	}
	if em != nil {
		if err := em.Emit(types.EvtMessageVerificationFailed{Step: string(verr.Step), Reason: verr.Err.Error()}); err != nil {
			log.Debug("发布验证失败事件失败", "err", err)
		}
	}
}

// CachedCertificates 已缓存的证书数
func (v *Verifier) CachedCertificates() int {
	return v.certs.len()
}

// emptyVerified 认证失败时返回的消息
func emptyVerified() *message.Message {
	msg := message.New()
	initVerificationSets(msg)
	return msg
}
