package identity

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-overlay/config"
	identityif "github.com/dep2p/go-overlay/pkg/interfaces/identity"
)

// ============================================================================
//                              模块输入依赖
// ============================================================================

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	// 配置（可选，使用默认配置）
	Config *config.Config `optional:"true"`

	// Credential 直接注入的凭证（可选，优先于配置）
	Credential *Credential `optional:"true"`
}

// ============================================================================
//                              模块输出服务
// ============================================================================

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Manager *Manager
	Source  identityif.CredentialSource
}

// ProvideServices 提供模块服务
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	if input.Credential != nil {
		m := NewManagerWithCredential(input.Credential)
		return ModuleOutput{Manager: m, Source: m}, nil
	}

	cfg := config.DefaultIdentityConfig()
	if input.Config != nil {
		cfg = input.Config.Identity
	}
	m, err := NewManager(cfg)
	if err != nil {
		return ModuleOutput{}, err
	}
	return ModuleOutput{Manager: m, Source: m}, nil
}

// ============================================================================
//                              模块定义
// ============================================================================

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module(Name,
		fx.Provide(ProvideServices),
	)
}

// 模块元信息常量
const (
	// Version 模块版本
	Version = "1.0.0"
	// Name 模块名称
	Name = "identity"
	// Description 模块描述
	Description = "凭证模块，提供 Ed25519 自签名证书与 CBJX 签名能力"
)
