package messenger

import (
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	"github.com/dep2p/go-overlay/config"
	pkgif "github.com/dep2p/go-overlay/pkg/interfaces"
	"github.com/dep2p/go-overlay/pkg/types"
)

// Factory 按统一配置创建信使核心
//
// 所有 Core 共享同一个时钟、指标观测与状态事件发射器。
type Factory struct {
	cfg      config.MessengerConfig
	clock    clock.Clock
	observer Observer
	emitter  pkgif.Emitter

	mu     sync.Mutex
	cores  map[string]*Core
	closed bool
}

// NewFactory 创建工厂；clk、obs、bus 均可为 nil
func NewFactory(cfg config.MessengerConfig, clk clock.Clock, obs Observer, bus pkgif.EventBus) (*Factory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("messenger: %w", err)
	}
	if clk == nil {
		clk = clock.New()
	}
	if obs == nil {
		obs = nopObserver{}
	}

	f := &Factory{
		cfg:      cfg,
		clock:    clk,
		observer: obs,
		cores:    make(map[string]*Core),
	}
	if bus != nil && cfg.EmitStateEvents {
		em, err := bus.Emitter(new(types.EvtMessengerStateChanged))
		if err != nil {
			return nil, fmt.Errorf("create state emitter: %w", err)
		}
		f.emitter = em
	}
	return f, nil
}

// New 为目标地址创建信使核心；opts 覆盖工厂默认值
func (f *Factory) New(dest types.EndpointAddress, t Transport, opts ...Option) (*Core, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrMessengerClosed
	}

	base := []Option{
		WithConfig(f.cfg),
		WithClock(f.clock),
		WithObserver(f.observer),
		WithEmitter(f.emitter),
	}
	c := NewCore(dest, t, append(base, opts...)...)

	f.pruneLocked()
	f.cores[c.ID()] = c
	log.Debug("创建信使", "messenger", c.ID(), "dest", dest)
	return c, nil
}

// Messengers 返回仍未进入终态的信使
func (f *Factory) Messengers() []*Core {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pruneLocked()
	out := make([]*Core, 0, len(f.cores))
	for _, c := range f.cores {
		out = append(out, c)
	}
	return out
}

func (f *Factory) pruneLocked() {
	for id, c := range f.cores {
		if c.State().IsTerminal() {
			delete(f.cores, id)
		}
	}
}

// Close 关闭全部信使与状态事件发射器
func (f *Factory) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	cores := f.cores
	f.cores = nil
	f.mu.Unlock()

	for _, c := range cores {
		c.Close()
	}
	var err error
	if f.emitter != nil {
		err = multierr.Append(err, f.emitter.Close())
	}
	return err
}
