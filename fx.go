package overlay

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-overlay/internal/core/cbjx"
	"github.com/dep2p/go-overlay/internal/core/eventbus"
	"github.com/dep2p/go-overlay/internal/core/identity"
	"github.com/dep2p/go-overlay/internal/core/messenger"
	"github.com/dep2p/go-overlay/internal/core/metrics"
)

// buildFxApp 构建 fx 应用
//
// 加载顺序（按依赖）：
//  1. 配置注入
//  2. EventBus → Identity → Metrics（可选）
//  3. CBJX → Messenger
//  4. 用户自定义 fx 选项
func buildFxApp(cfg *peerConfig, p *Peer) (*fx.App, error) {
	if err := cfg.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	modules := []fx.Option{
		fx.Supply(cfg.config),

		eventbus.Module(),
		identity.Module(),
	}

	if cfg.credential != nil {
		modules = append(modules, fx.Supply(cfg.credential))
	}
	if cfg.clock != nil {
		clk := cfg.clock
		modules = append(modules, fx.Provide(func() clock.Clock { return clk }))
	}

	if !cfg.disableMetrics {
		if cfg.registerer != nil {
			reg := cfg.registerer
			modules = append(modules, fx.Provide(func() prometheus.Registerer { return reg }))
		}
		modules = append(modules, metrics.Module())
	}

	modules = append(modules,
		cbjx.Module(),
		messenger.Module(),
	)

	if len(cfg.userFxOptions) > 0 {
		modules = append(modules, cfg.userFxOptions...)
	}

	modules = append(modules,
		fx.Invoke(injectPeerComponents(p)),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	return fx.New(modules...), nil
}

type peerInjectParams struct {
	fx.In

	Identity *identity.Manager
	Signer   *cbjx.Signer
	Verifier *cbjx.Verifier
	Factory  *messenger.Factory
	Bus      *eventbus.Bus

	Metrics *metrics.Metrics `optional:"true"`
}

func injectPeerComponents(p *Peer) any {
	return func(params peerInjectParams) {
		p.identity = params.Identity
		p.signer = params.Signer
		p.verifier = params.Verifier
		p.factory = params.Factory
		p.bus = params.Bus
		p.metrics = params.Metrics
	}
}
