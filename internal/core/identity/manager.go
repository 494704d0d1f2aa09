package identity

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dep2p/go-overlay/config"
	"github.com/dep2p/go-overlay/internal/util/logger"
	identityif "github.com/dep2p/go-overlay/pkg/interfaces/identity"
	"github.com/dep2p/go-overlay/pkg/types"
)

var log = logger.Logger("identity")

// ============================================================================
//                              Manager 实现
// ============================================================================

// Manager 凭证管理器
//
// 按配置加载或生成默认凭证。Manager 只持有一份凭证；调用 Rotate
// 可以替换它，已经在进行中的签名调用继续使用旧凭证。
type Manager struct {
	cfg config.IdentityConfig

	mu   sync.RWMutex
	cred *Credential
}

var _ identityif.CredentialSource = (*Manager)(nil)

// NewManager 按配置创建管理器并准备默认凭证
//
// 优先级：KeyFile 存在则加载；不存在且 AutoGenerate 时生成并保存；
// 未配置 KeyFile 时生成内存凭证。
func NewManager(cfg config.IdentityConfig) (*Manager, error) {
	m := &Manager{cfg: cfg}
	validity := cfg.CertValidity.Duration()

	switch {
	case cfg.KeyFile != "":
		cred, err := LoadKey(cfg.KeyFile, validity)
		if errors.Is(err, ErrKeyNotFound) && cfg.AutoGenerate {
			if cred, err = Generate(validity); err != nil {
				return nil, err
			}
			if err := SaveKey(cred, cfg.KeyFile); err != nil {
				return nil, fmt.Errorf("保存私钥失败: %w", err)
			}
			log.Info("已生成新凭证", "peer", cred.PeerID().ShortString(), "file", cfg.KeyFile)
		} else if err != nil {
			return nil, fmt.Errorf("加载私钥失败: %w", err)
		}
		m.cred = cred
	case cfg.AutoGenerate:
		cred, err := Generate(validity)
		if err != nil {
			return nil, err
		}
		m.cred = cred
		log.Debug("已生成临时凭证", "peer", cred.PeerID().ShortString())
	default:
		return nil, ErrNoCredential
	}
	return m, nil
}

// NewManagerWithCredential 使用已有凭证创建管理器
func NewManagerWithCredential(cred *Credential) *Manager {
	return &Manager{cfg: config.DefaultIdentityConfig(), cred: cred}
}

// DefaultCredential 返回当前默认凭证
func (m *Manager) DefaultCredential() (identityif.Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cred == nil {
		return nil, ErrNoCredential
	}
	return m.cred, nil
}

// PeerID 返回当前凭证的节点标识
func (m *Manager) PeerID() types.PeerID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cred == nil {
		return types.EmptyPeerID
	}
	return m.cred.PeerID()
}

// Rotate 替换默认凭证
func (m *Manager) Rotate(cred *Credential) error {
	if cred == nil {
		return ErrNilPrivateKey
	}
	m.mu.Lock()
	m.cred = cred
	m.mu.Unlock()
	log.Info("凭证已替换", "peer", cred.PeerID().ShortString())
	return nil
}
