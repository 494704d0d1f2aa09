package eventbus

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	pkgif "github.com/dep2p/go-overlay/pkg/interfaces"
)

// ============================================================================
// Subscription 实现
// ============================================================================

// Subscription 订阅
type Subscription struct {
	bus       *Bus
	typ       reflect.Type
	out       chan any
	closeOnce sync.Once
}

var _ pkgif.Subscription = (*Subscription)(nil)

// Out 返回事件通道；订阅关闭后通道被关闭
func (s *Subscription) Out() <-chan any {
	return s.out
}

// Close 取消订阅，可重复调用
//
// 先从主题摘除，保证之后没有发射者再写入，然后关闭通道。
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		s.bus.release(s.typ, func(n *node) {
			for i, sink := range n.sinks {
				if sink == s {
					n.sinks = append(n.sinks[:i], n.sinks[i+1:]...)
					break
				}
			}
		})
		close(s.out)
	})
	return nil
}

// ============================================================================
// Emitter 实现
// ============================================================================

// Emitter 事件发射器
type Emitter struct {
	bus       *Bus
	node      *node
	closed    atomic.Bool
	closeOnce sync.Once
}

var _ pkgif.Emitter = (*Emitter)(nil)

// Emit 发射事件；事件类型必须与发射器类型一致
func (e *Emitter) Emit(event any) error {
	if e.closed.Load() {
		return ErrClosed
	}
	if reflect.TypeOf(event) != e.node.typ {
		return fmt.Errorf("%w: got %T, want %s", ErrWrongEventType, event, e.node.typ)
	}
	e.node.emit(event)
	return nil
}

// Close 关闭发射器，可重复调用
func (e *Emitter) Close() error {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		e.bus.release(e.node.typ, func(n *node) {
			n.nEmitters--
		})
	})
	return nil
}

// ============================================================================
// 选项
// ============================================================================

// BufSize 设置订阅缓冲区大小，等同 pkg/interfaces.BufSize
func BufSize(size int) pkgif.SubscriptionOpt {
	return pkgif.BufSize(size)
}

// Stateful 设置发射器为有状态模式，等同 pkg/interfaces.Stateful
func Stateful() pkgif.EmitterOpt {
	return pkgif.Stateful()
}
