package cbjx

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/dep2p/go-overlay/config"
	pkgif "github.com/dep2p/go-overlay/pkg/interfaces"
	identityif "github.com/dep2p/go-overlay/pkg/interfaces/identity"
	"github.com/dep2p/go-overlay/pkg/types"
)

// ============================================================================
//                              模块输入依赖
// ============================================================================

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Config   *config.Config              `optional:"true"`
	Source   identityif.CredentialSource `optional:"true"`
	EventBus pkgif.EventBus              `optional:"true"`
	Observer Observer                    `optional:"true"`
}

// ============================================================================
//                              模块输出服务
// ============================================================================

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Signer   *Signer
	Verifier *Verifier
}

// ProvideServices 提供模块服务
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	cfg := config.NewConfig()
	if input.Config != nil {
		cfg = input.Config
	}

	verifier, err := NewVerifier(cfg.CBJX, cfg.Wire)
	if err != nil {
		return ModuleOutput{}, err
	}
	if input.EventBus != nil {
		em, err := input.EventBus.Emitter(new(types.EvtMessageVerificationFailed))
		if err != nil {
			return ModuleOutput{}, fmt.Errorf("create verification emitter: %w", err)
		}
		verifier.SetEmitter(em)
	}
	if input.Observer != nil {
		verifier.SetObserver(input.Observer)
	}

	return ModuleOutput{
		Signer:   NewSigner(input.Source, cfg.CBJX),
		Verifier: verifier,
	}, nil
}

// ============================================================================
//                              模块定义
// ============================================================================

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module(Name,
		fx.Provide(ProvideServices),
		fx.Invoke(registerLifecycle),
	)
}

type lifecycleInput struct {
	fx.In
	LC       fx.Lifecycle
	Verifier *Verifier
}

func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			input.Verifier.mu.Lock()
			em := input.Verifier.emitter
			input.Verifier.emitter = nil
			input.Verifier.mu.Unlock()
			if em != nil {
				return em.Close()
			}
			return nil
		},
	})
}

// 模块元信息常量
const (
	// Version 模块版本
	Version = "1.0.0"
	// Name 模块名称
	Name = "cbjx"
	// Description 模块描述
	Description = "CBJX 认证尾部模块，提供出站签名与入站验证"
)
