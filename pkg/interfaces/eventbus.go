package interfaces

// EventBus 事件总线接口
//
// 以事件的具体类型作为主题：Subscribe/Emitter 传入事件类型的指针零值，
// 例如 new(types.EvtMessengerStateChanged)。
type EventBus interface {
	// Subscribe 订阅指定类型的事件
	Subscribe(eventType any, opts ...SubscriptionOpt) (Subscription, error)

	// Emitter 获取指定事件类型的发射器
	Emitter(eventType any, opts ...EmitterOpt) (Emitter, error)
}

// Subscription 事件订阅
type Subscription interface {
	// Out 返回接收事件的通道
	Out() <-chan any

	// Close 取消订阅，可重复调用
	Close() error
}

// Emitter 事件发射器
type Emitter interface {
	// Emit 发射事件；订阅者缓冲区满时丢弃，不阻塞发射者
	Emit(event any) error

	// Close 关闭发射器
	Close() error
}

// SubscriptionOpt 订阅选项
type SubscriptionOpt func(*SubscriptionSettings)

// EmitterOpt 发射器选项
type EmitterOpt func(*EmitterSettings)

// SubscriptionSettings 订阅设置
type SubscriptionSettings struct {
	Buffer int
}

// EmitterSettings 发射器设置
type EmitterSettings struct {
	Stateful bool
}

// BufSize 设置订阅缓冲区大小
func BufSize(size int) SubscriptionOpt {
	return func(s *SubscriptionSettings) {
		s.Buffer = size
	}
}

// Stateful 设置发射器为有状态模式：新订阅者立即收到最后一个事件
func Stateful() EmitterOpt {
	return func(s *EmitterSettings) {
		s.Stateful = true
	}
}
