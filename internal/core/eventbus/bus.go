package eventbus

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/dep2p/go-overlay/internal/util/logger"
	pkgif "github.com/dep2p/go-overlay/pkg/interfaces"
)

var log = logger.Logger("eventbus")

// ============================================================================
// 错误定义
// ============================================================================

var (
	// ErrClosed 事件总线或发射器已关闭
	ErrClosed = errors.New("eventbus closed")
	// ErrInvalidEventType 无效的事件类型
	ErrInvalidEventType = errors.New("invalid event type")
	// ErrNonPointerType 非指针类型
	ErrNonPointerType = errors.New("event type must be a pointer")
	// ErrWrongEventType 发射的事件与发射器类型不符
	ErrWrongEventType = errors.New("event does not match emitter type")
)

// defaultBufSize 默认订阅缓冲区大小
const defaultBufSize = 16

// ============================================================================
// Bus 实现
// ============================================================================

// Bus 事件总线
type Bus struct {
	mu     sync.Mutex
	nodes  map[reflect.Type]*node
	closed bool
}

var _ pkgif.EventBus = (*Bus)(nil)

// node 单个事件类型的主题
type node struct {
	mu        sync.Mutex
	typ       reflect.Type
	sinks     []*Subscription
	nEmitters int
	keepLast  bool
	last      any
	dropped   atomic.Int64
}

// NewBus 创建事件总线
func NewBus() *Bus {
	return &Bus{nodes: make(map[reflect.Type]*node)}
}

// eventTypeOf 从指针零值取得事件类型
func eventTypeOf(eventType any) (reflect.Type, error) {
	if eventType == nil {
		return nil, ErrInvalidEventType
	}
	typ := reflect.TypeOf(eventType)
	if typ.Kind() != reflect.Ptr {
		return nil, fmt.Errorf("%w: %s", ErrNonPointerType, typ)
	}
	return typ.Elem(), nil
}

// Subscribe 订阅事件
func (b *Bus) Subscribe(eventType any, opts ...pkgif.SubscriptionOpt) (pkgif.Subscription, error) {
	typ, err := eventTypeOf(eventType)
	if err != nil {
		return nil, err
	}
	settings := pkgif.SubscriptionSettings{Buffer: defaultBufSize}
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.Buffer < 0 {
		settings.Buffer = 0
	}

	sub := &Subscription{bus: b, typ: typ, out: make(chan any, settings.Buffer)}
	err = b.withNode(typ, func(n *node) {
		n.sinks = append(n.sinks, sub)
		if n.keepLast && n.last != nil {
			select {
			case sub.out <- n.last:
			default:
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Emitter 获取发射器
func (b *Bus) Emitter(eventType any, opts ...pkgif.EmitterOpt) (pkgif.Emitter, error) {
	typ, err := eventTypeOf(eventType)
	if err != nil {
		return nil, err
	}
	var settings pkgif.EmitterSettings
	for _, opt := range opts {
		opt(&settings)
	}

	var n *node
	err = b.withNode(typ, func(nd *node) {
		n = nd
		n.nEmitters++
		if settings.Stateful {
			n.keepLast = true
		}
	})
	if err != nil {
		return nil, err
	}
	return &Emitter{bus: b, node: n}, nil
}

// Close 关闭总线：关闭所有订阅，之后的订阅与获取发射器返回 ErrClosed
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	var subs []*Subscription
	for _, n := range b.nodes {
		n.mu.Lock()
		subs = append(subs, n.sinks...)
		n.mu.Unlock()
	}
	b.mu.Unlock()

	for _, s := range subs {
		_ = s.Close()
	}
	return nil
}

// DroppedEvents 返回指定事件类型因订阅者缓冲区满而丢弃的事件数
func (b *Bus) DroppedEvents(eventType any) int64 {
	typ, err := eventTypeOf(eventType)
	if err != nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if n, ok := b.nodes[typ]; ok {
		return n.dropped.Load()
	}
	return 0
}

// withNode 在节点锁内执行 cb，节点不存在时创建
func (b *Bus) withNode(typ reflect.Type, cb func(*node)) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	n, ok := b.nodes[typ]
	if !ok {
		n = &node{typ: typ}
		b.nodes[typ] = n
	}
	n.mu.Lock()
	b.mu.Unlock()

	cb(n)
	n.mu.Unlock()
	return nil
}

// release 在节点锁内执行 cb，之后若节点无人使用则回收
func (b *Bus) release(typ reflect.Type, cb func(*node)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, ok := b.nodes[typ]
	if !ok {
		return
	}
	n.mu.Lock()
	cb(n)
	unused := len(n.sinks) == 0 && n.nEmitters == 0
	n.mu.Unlock()

	if unused {
		delete(b.nodes, typ)
	}
}

// emit 投递事件到所有订阅者
func (n *node) emit(event any) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.keepLast {
		n.last = event
	}
	for _, sub := range n.sinks {
		select {
		case sub.out <- event:
		default:
			// 每丢弃 100 个事件警告一次
			if dropped := n.dropped.Add(1); dropped%100 == 1 {
				log.Warn("慢消费者检测", "dropped", dropped, "type", n.typ)
			}
		}
	}
}
