package messenger

import "github.com/dep2p/go-overlay/pkg/types"

// SendResult 非阻塞写原语的结果
type SendResult int

const (
	// Accepted 传输已接收消息，所有权转给传输
	Accepted SendResult = iota
	// Saturated 传输缓冲区暂满，稍后经 PullMessages 重试
	Saturated
	// Rejected 传输拒绝此消息
	Rejected
)

func (r SendResult) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case Saturated:
		return "saturated"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Transport 具体传输提供给信使核心的能力
//
// 所有方法都不得阻塞超过可忽略的时长，它们可能在排空循环内被调用。
type Transport interface {
	// TrySend 尝试把消息写入传输自己的缓冲区
	//
	// 返回 Accepted 后传输负责调用 QueuedMessage.Complete 回报最终结果。
	TrySend(item *QueuedMessage) SendResult

	// RequestClose 异步请求优雅关闭
	//
	// 完成后调用 Upcalls.ConnectionClosed；关闭过程中出错则调用 ConnectionFailed。
	RequestClose()

	// LocalAddress 本端地址，写入出站消息的源地址元素
	LocalAddress() types.EndpointAddress
}

// Upcalls 信使核心暴露给传输的回调入口
type Upcalls interface {
	// PullMessages 传输缓冲区恢复可写
	PullMessages()

	// ConnectionUp 连接建立
	ConnectionUp()

	// ConnectionFailed 连接失败或异常断开
	ConnectionFailed()

	// ConnectionClosed 优雅关闭完成
	ConnectionClosed()
}

// Binder 需要回调入口的传输实现此接口，Core 构造时调用 Bind
type Binder interface {
	Bind(up Upcalls)
}

// Connector 可以（重新）建立连接的传输实现此接口
//
// 未实现时 connect 动作立即视为连接失败。Connect 必须立即返回，
// 结果经 ConnectionUp / ConnectionFailed 异步回报。
type Connector interface {
	Connect()
}

// Observer 信使指标观测
type Observer interface {
	MessageQueued()
	MessageAccepted()
	MessageFailed(cause error)
	QueueOverflow()
	QueueDepth(n int)
	StateChanged(old, new types.MessengerState)
}

type nopObserver struct{}

func (nopObserver) MessageQueued() {}
func (nopObserver) MessageAccepted() {}
func (nopObserver) MessageFailed(error) {}
func (nopObserver) QueueOverflow() {}
func (nopObserver) QueueDepth(int) {}
func (nopObserver) StateChanged(_, _ types.MessengerState) {}
