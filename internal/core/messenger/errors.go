package messenger

import "errors"

var (
	// ErrQueueOverflow 出站队列已满
	ErrQueueOverflow = errors.New("outbound queue overflow")

	// ErrMessengerClosed 信使已关闭，不再接受消息
	ErrMessengerClosed = errors.New("messenger is closed")

	// ErrUnexpectedlyClosed 传输异常断开时排队中的消息统一以此失败
	ErrUnexpectedlyClosed = errors.New("messenger unexpectedly closed")

	// ErrSendTimeout 阻塞发送超过总等待上限
	ErrSendTimeout = errors.New("blocking send timed out")

	// ErrRejected 传输拒绝了消息
	ErrRejected = errors.New("message rejected by transport")

	// ErrDeliveryFailed 未给出原因的投递失败
	ErrDeliveryFailed = errors.New("delivery failed")

	// ErrNotDone 结果尚未确定
	ErrNotDone = errors.New("delivery outcome not yet known")

	// ErrAlreadyResolved 重复判定投递结果（编程错误，以 panic 抛出）
	ErrAlreadyResolved = errors.New("notifier already resolved")

	// ErrNilMessage 消息为空
	ErrNilMessage = errors.New("nil message")
)
