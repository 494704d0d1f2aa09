package overlay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-overlay/internal/core/cbjx"
	"github.com/dep2p/go-overlay/internal/core/eventbus"
	"github.com/dep2p/go-overlay/internal/core/identity"
	"github.com/dep2p/go-overlay/internal/core/message"
	"github.com/dep2p/go-overlay/internal/core/messenger"
	"github.com/dep2p/go-overlay/internal/core/metrics"
	"github.com/dep2p/go-overlay/internal/util/logger"
	pkgif "github.com/dep2p/go-overlay/pkg/interfaces"
	"github.com/dep2p/go-overlay/pkg/types"
)

var log = logger.Logger("overlay")

const (
	startTimeout = 15 * time.Second
	stopTimeout  = 15 * time.Second
)

// ════════════════════════════════════════════════════════════════════════════
//                              Peer
// ════════════════════════════════════════════════════════════════════════════

// Peer 覆盖网络节点
//
// 持有本地凭证、签名器与验证器，并为每个目标端点创建信使。
type Peer struct {
	config *peerConfig
	app    *fx.App

	mu     sync.Mutex
	closed bool

	identity *identity.Manager
	signer   *cbjx.Signer
	verifier *cbjx.Verifier
	factory  *messenger.Factory
	bus      *eventbus.Bus
	metrics  *metrics.Metrics
}

// New 创建并启动节点
func New(opts ...Option) (*Peer, error) {
	cfg := newPeerConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}
	if cfg.applyLog {
		logger.Apply(cfg.config.Log.LoggerConfig())
	}

	p := &Peer{config: cfg}

	var err error
	p.app, err = buildFxApp(cfg, p)
	if err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()
	if err := p.app.Start(ctx); err != nil {
		log.Error("节点启动失败", "error", err)
		return nil, fmt.Errorf("start fx app: %w", err)
	}

	log.Info("节点已启动", "peer", p.identity.PeerID())
	return p, nil
}

// ID 返回节点 ID
func (p *Peer) ID() types.PeerID {
	return p.identity.PeerID()
}

// Address 返回节点的 jxta:// 地址
func (p *Peer) Address() types.EndpointAddress {
	return types.PeerAddress(p.ID())
}

// NewMessenger 为目标端点创建信使
func (p *Peer) NewMessenger(dest types.EndpointAddress, t messenger.Transport, opts ...messenger.Option) (*messenger.Core, error) {
	if t == nil {
		return nil, ErrNilTransport
	}
	if p.isClosed() {
		return nil, ErrPeerClosed
	}
	return p.factory.New(dest, t, opts...)
}

// Sign 编码消息并附加 CBJX 认证尾部
func (p *Peer) Sign(msg *message.Message) ([]byte, error) {
	signed, err := p.signer.SignMessage(msg, false)
	if err != nil {
		return nil, err
	}
	return signed.Bytes()
}

// Verify 解码带认证尾部的字节
//
// 仅格式错误返回 error；认证失败得到不含元素的空消息，可用 cbjx.IsVerified 判断。
func (p *Peer) Verify(data []byte) (*message.Message, error) {
	return p.verifier.Verify(data)
}

// Signer 返回签名器
func (p *Peer) Signer() *cbjx.Signer {
	return p.signer
}

// Verifier 返回验证器
func (p *Peer) Verifier() *cbjx.Verifier {
	return p.verifier
}

// Events 返回事件总线
func (p *Peer) Events() pkgif.EventBus {
	return p.bus
}

// Metrics 返回指标；使用 WithoutMetrics 时为 nil
func (p *Peer) Metrics() *metrics.Metrics {
	return p.metrics
}

// Messengers 返回仍未进入终态的信使
func (p *Peer) Messengers() []*messenger.Core {
	return p.factory.Messengers()
}

// Close 关闭所有信使并停止节点
func (p *Peer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	// 信使须在事件总线之前关闭
	err := p.factory.Close()
	if stopErr := p.app.Stop(ctx); stopErr != nil {
		err = multierr.Append(err, fmt.Errorf("stop fx app: %w", stopErr))
	}
	if err != nil {
		log.Error("节点关闭出错", "error", err)
		return err
	}
	log.Info("节点已关闭", "peer", p.ID())
	return nil
}

func (p *Peer) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
