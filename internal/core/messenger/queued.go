package messenger

import (
	"time"

	"github.com/google/uuid"

	"github.com/dep2p/go-overlay/internal/core/message"
	"github.com/dep2p/go-overlay/pkg/types"
)

// QueuedMessage 一次发送尝试：消息及其通知器
//
// 每次发送恰好一个实例，不会被复制或重新入队。队列持有它直到传输接受
// （所有权转给传输，结果由传输通过 Complete 回报），或因失败被逐出。
type QueuedMessage struct {
	// ID 用于日志关联
	ID uuid.UUID

	Message     *message.Message
	Destination types.EndpointAddress
	Notifier    *Notifier

	// EnqueuedAt 入队时间（信使时钟）
	EnqueuedAt time.Time
}

// Complete 由传输回报最终结果：err 为 nil 表示成功
//
// 结果已确定时无效果并返回 false（例如发送方已超时放弃）。
func (q *QueuedMessage) Complete(err error) bool {
	if err == nil {
		return q.Notifier.resolve(OutcomeSucceeded, nil)
	}
	return q.Notifier.resolve(OutcomeFailed, err)
}

func (q *QueuedMessage) fail(cause error) bool {
	return q.Notifier.resolve(OutcomeFailed, cause)
}
