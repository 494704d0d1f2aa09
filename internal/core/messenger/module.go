package messenger

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-overlay/config"
	pkgif "github.com/dep2p/go-overlay/pkg/interfaces"
)

// ============================================================================
//                              模块输入依赖
// ============================================================================

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Config   *config.Config `optional:"true"`
	Clock    clock.Clock    `optional:"true"`
	Observer Observer       `optional:"true"`
	EventBus pkgif.EventBus `optional:"true"`
}

// ============================================================================
//                              模块输出服务
// ============================================================================

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Factory *Factory
}

// ProvideServices 提供模块服务
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	cfg := config.DefaultMessengerConfig()
	if input.Config != nil {
		cfg = input.Config.Messenger
	}
	f, err := NewFactory(cfg, input.Clock, input.Observer, input.EventBus)
	if err != nil {
		return ModuleOutput{}, err
	}
	return ModuleOutput{Factory: f}, nil
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
	LC      fx.Lifecycle
	Factory *Factory
}

func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return input.Factory.Close()
		},
	})
}

// 模块元信息常量
const (
	// Version 模块版本
	Version = "1.0.0"
	// Name 模块名称
	Name = "messenger"
	// Description 模块描述
	Description = "异步信使模块，提供有界队列、连接状态机与投递结果通知"
)
