package messenger

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-overlay/internal/core/message"
)

// ============================================================================
//                              投递结果
// ============================================================================

// Outcome 投递结果状态
type Outcome int

const (
	// OutcomePending 尚未确定
	OutcomePending Outcome = iota
	// OutcomeSucceeded 投递成功
	OutcomeSucceeded
	// OutcomeFailed 投递失败
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	default:
		return "pending"
	}
}

// DeliveryOutcome 消息上记录的投递结果
type DeliveryOutcome struct {
	Outcome Outcome
	Cause   error
}

type deliveryOutcomeKey struct{}

// DeliveryOutcomeOf 返回消息最近一次发送的投递结果
func DeliveryOutcomeOf(msg *message.Message) DeliveryOutcome {
	if o, ok := msg.GetProperty(deliveryOutcomeKey{}).(DeliveryOutcome); ok {
		return o
	}
	return DeliveryOutcome{Outcome: OutcomePending}
}

// ============================================================================
//                              Notifier
// ============================================================================

// Notifier 单次赋值的投递结果
//
// pending 只会迁移一次到 succeeded 或 failed。迁移时在同一把锁内把结果
// 写到消息的投递结果属性上，随后关闭 Done 通道。
type Notifier struct {
	clock clock.Clock
	msg   *message.Message
	done  chan struct{}

	mu      sync.Mutex
	outcome Outcome
	cause   error
}

// NewNotifier 创建通知器；msg 可以为 nil
func NewNotifier(msg *message.Message, clk clock.Clock) *Notifier {
	if clk == nil {
		clk = clock.New()
	}
	return &Notifier{clock: clk, msg: msg, done: make(chan struct{})}
}

// Done 结果确定时关闭
func (n *Notifier) Done() <-chan struct{} {
	return n.done
}

// Await 阻塞直到结果确定或 ctx 结束
func (n *Notifier) Await(ctx context.Context) error {
	select {
	case <-n.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AwaitTimeout 最多等待 d，返回结果是否已确定
func (n *Notifier) AwaitTimeout(d time.Duration) bool {
	select {
	case <-n.done:
		return true
	default:
	}
	t := n.clock.Timer(d)
	defer t.Stop()
	select {
	case <-n.done:
		return true
	case <-t.C:
		return n.IsDone()
	}
}

// IsDone 结果是否已确定
func (n *Notifier) IsDone() bool {
	select {
	case <-n.done:
		return true
	default:
		return false
	}
}

// Succeeded 是否投递成功；结果未确定时返回 ErrNotDone
func (n *Notifier) Succeeded() (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.outcome == OutcomePending {
		return false, ErrNotDone
	}
	return n.outcome == OutcomeSucceeded, nil
}

// FailureCause 失败原因；未失败时为 nil
func (n *Notifier) FailureCause() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cause
}

// Outcome 当前结果
func (n *Notifier) Outcome() DeliveryOutcome {
	n.mu.Lock()
	defer n.mu.Unlock()
	return DeliveryOutcome{Outcome: n.outcome, Cause: n.cause}
}

// MarkSuccess 判定成功；重复判定会 panic
func (n *Notifier) MarkSuccess() {
	if !n.resolve(OutcomeSucceeded, nil) {
		panic(ErrAlreadyResolved)
	}
}

// MarkFailure 判定失败；重复判定会 panic
func (n *Notifier) MarkFailure(cause error) {
	if !n.resolve(OutcomeFailed, cause) {
		panic(ErrAlreadyResolved)
	}
}

// resolve 先到先得地确定结果，返回本次调用是否生效
//
// 超时、溢出、fail-all 与传输回报可能并发到达，内部路径都走这里。
func (n *Notifier) resolve(outcome Outcome, cause error) bool {
	if outcome == OutcomeFailed && cause == nil {
		cause = ErrDeliveryFailed
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.outcome != OutcomePending {
		return false
	}
	n.outcome = outcome
	n.cause = cause
	if n.msg != nil {
		n.msg.SetProperty(deliveryOutcomeKey{}, DeliveryOutcome{Outcome: outcome, Cause: cause})
	}
	close(n.done)
	return true
}
