package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-overlay/internal/core/cbjx"
	"github.com/dep2p/go-overlay/internal/core/messenger"
)

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Registerer prometheus.Registerer `optional:"true"`
}

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Metrics              *Metrics
	MessengerObserver    messenger.Observer
	VerificationObserver cbjx.Observer
}

// ProvideServices 提供模块服务
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	m, err := New(input.Registerer)
	if err != nil {
		return ModuleOutput{}, err
	}
	return ModuleOutput{
		Metrics:              m,
		MessengerObserver:    m,
		VerificationObserver: m,
	}, nil
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module(Name, fx.Provide(ProvideServices))
}

// 模块元信息常量
const (
	// Version 模块版本
	Version = "1.0.0"
	// Name 模块名称
	Name = "metrics"
	// Description 模块描述
	Description = "Prometheus 指标模块，观测信使、验证与线格式字节"
)
