// Package eventbus 实现进程内事件总线
//
// 以事件的具体类型作为主题，支持：
//   - 多订阅者，订阅者缓冲区满时丢弃事件，不阻塞发射者
//   - 有状态发射器：新订阅者立即收到最后一个事件
//   - 发射器与订阅者引用计数，无人使用的主题自动回收
//
// 信使核心用它发布 EvtMessengerStateChanged，CBJX 验证器用它发布
// EvtMessageVerificationFailed。
//
// # 快速开始
//
//	bus := eventbus.NewBus()
//
//	sub, _ := bus.Subscribe(new(types.EvtMessengerStateChanged))
//	defer sub.Close()
//
//	em, _ := bus.Emitter(new(types.EvtMessengerStateChanged), eventbus.Stateful())
//	defer em.Close()
//	em.Emit(types.EvtMessengerStateChanged{...})
//
//	evt := (<-sub.Out()).(types.EvtMessengerStateChanged)
package eventbus
