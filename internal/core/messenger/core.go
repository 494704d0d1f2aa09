package messenger

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dep2p/go-overlay/internal/core/message"
	"github.com/dep2p/go-overlay/internal/util/logger"
	pkgif "github.com/dep2p/go-overlay/pkg/interfaces"
	"github.com/dep2p/go-overlay/pkg/types"
)

var log = logger.Logger("messenger")

// 出站消息的寻址元素（jxta 命名空间）
const (
	DestinationElementName = "EndpointDestinationAddress"
	SourceElementName      = "EndpointSourceAddress"
)

// ============================================================================
//                              Core
// ============================================================================

// Core 异步信使核心
//
// 一个 Core 对应一个目标端点。mu 保护状态、队列与各标志位，状态机事件在
// mu 内串行处理；TrySend、RequestClose、Connect 与通知器判定都在锁外执行。
type Core struct {
	id        string
	dest      types.EndpointAddress
	transport Transport
	connector Connector

	opts     coreOptions
	observer Observer
	emitter  pkgif.Emitter

	mu             sync.Mutex
	state          types.MessengerState
	queue          *queue
	inputClosed    bool
	closeRequested bool
	// changed 在状态变化或队列腾出空间时关闭并替换
	changed chan struct{}

	draining      atomic.Bool
	pullRequested atomic.Bool
}

var _ Upcalls = (*Core)(nil)

// NewCore 创建信使核心，初始状态 UNRESOLVED
//
// 传输实现 Binder 时在返回前调用 Bind，传输可在 Bind 内直接回调 ConnectionUp。
func NewCore(dest types.EndpointAddress, t Transport, opts ...Option) *Core {
	o := defaultCoreOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Core{
		id:        uuid.NewString(),
		dest:      dest,
		transport: t,
		opts:      o,
		observer:  o.observer,
		emitter:   o.emitter,
		state:     types.Unresolved,
		queue:     newQueue(o.capacity),
		changed:   make(chan struct{}),
	}
	if conn, ok := t.(Connector); ok {
		c.connector = conn
	}
	if b, ok := t.(Binder); ok {
		b.Bind(c)
	}
	return c
}

// ID 实例标识
func (c *Core) ID() string {
	return c.id
}

// DestinationAddress 目标地址
func (c *Core) DestinationAddress() types.EndpointAddress {
	return c.dest
}

// LocalAddress 本端地址
func (c *Core) LocalAddress() types.EndpointAddress {
	return c.transport.LocalAddress()
}

// State 当前状态
func (c *Core) State() types.MessengerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsClosed 是否已停止接受新消息
func (c *Core) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closedLocked()
}

func (c *Core) closedLocked() bool {
	return c.inputClosed || c.state.IsTerminal()
}

// QueueLen 排队中（尚未被传输接受）的消息数
func (c *Core) QueueLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.len()
}

// WaitState 阻塞直到状态落在 mask 内或 ctx 结束
func (c *Core) WaitState(ctx context.Context, mask types.MessengerState) (types.MessengerState, error) {
	for {
		c.mu.Lock()
		state, ch := c.state, c.changed
		c.mu.Unlock()
		if state.Is(mask) {
			return state, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return state, ctx.Err()
		}
	}
}

// Close 请求关闭：停止接受新消息，排空剩余消息后关闭传输
func (c *Core) Close() {
	c.fire(evClose)
}

// ============================================================================
//                              传输回调
// ============================================================================

// PullMessages 传输缓冲区恢复可写时调用
func (c *Core) PullMessages() {
	c.pull()
}

// ConnectionUp 连接建立时调用
func (c *Core) ConnectionUp() {
	c.fire(evUp)
}

// ConnectionFailed 连接失败或异常断开时调用
func (c *Core) ConnectionFailed() {
	c.fire(evDown)
}

// ConnectionClosed 优雅关闭完成时调用
func (c *Core) ConnectionClosed() {
	c.fire(evShut)
}

// ============================================================================
//                              发送
// ============================================================================

// SendNonBlocking 非阻塞发送，返回消息是否入队
//
// 队满时触发 saturated 事件并把消息判定为 ErrQueueOverflow 失败。
// 结果可经 DeliveryOutcomeOf(msg) 查看。
func (c *Core) SendNonBlocking(msg *message.Message, service, param string) bool {
	_, ok := c.SendAsync(msg, service, param)
	return ok
}

// SendAsync 非阻塞发送，同时返回消息的通知器
//
// 未入队时通知器已判定失败。
func (c *Core) SendAsync(msg *message.Message, service, param string) (*Notifier, bool) {
	item := c.prepare(msg, service, param)
	if item.Notifier.IsDone() {
		return item.Notifier, false
	}

	c.mu.Lock()
	if c.closedLocked() {
		c.mu.Unlock()
		c.failItem(item, ErrMessengerClosed)
		return item.Notifier, false
	}
	if !c.queue.push(item) {
		c.mu.Unlock()
		c.observer.QueueOverflow()
		c.fire(evSaturated)
		c.failItem(item, ErrQueueOverflow)
		return item.Notifier, false
	}
	c.enqueuedLocked(item)
	c.mu.Unlock()

	c.fire(evMsgs)
	c.pull()
	return item.Notifier, true
}

// SendBlocking 阻塞发送，直到得到投递结果
//
// 队满时等待腾出空间。整个过程（含等待空间与等待结果）不超过阻塞发送
// 上限，超时返回 ErrSendTimeout；ctx 结束时返回 ctx.Err()。两种情况下
// 消息都被判定失败，仍在队列中的会在排空时被逐出。
func (c *Core) SendBlocking(ctx context.Context, msg *message.Message, service, param string) error {
	item := c.prepare(msg, service, param)
	if item.Notifier.IsDone() {
		return item.Notifier.FailureCause()
	}

	deadline := c.opts.clock.Timer(c.opts.blockingTimeout)
	defer deadline.Stop()
	poll := c.opts.clock.Ticker(c.opts.pollInterval)
	defer poll.Stop()
	start := c.opts.clock.Now()

	giveUp := func(cause error) error {
		if c.failItem(item, cause) {
			return cause
		}
		// 已有其他路径先判定
		return item.Notifier.FailureCause()
	}

	for {
		c.mu.Lock()
		if c.closedLocked() {
			c.mu.Unlock()
			return giveUp(ErrMessengerClosed)
		}
		if c.queue.push(item) {
			c.enqueuedLocked(item)
			c.mu.Unlock()
			break
		}
		ch := c.changed
		c.mu.Unlock()

		select {
		case <-ch:
		case <-poll.C:
			log.Debug("阻塞发送等待队列空间", "messenger", c.id, "msg", item.ID, "waited", c.opts.clock.Since(start))
		case <-ctx.Done():
			return giveUp(ctx.Err())
		case <-deadline.C:
			return giveUp(ErrSendTimeout)
		}
	}

	c.fire(evMsgs)
	c.pull()

	for {
		select {
		case <-item.Notifier.Done():
			return item.Notifier.FailureCause()
		case <-poll.C:
			log.Debug("阻塞发送等待投递结果", "messenger", c.id, "msg", item.ID, "waited", c.opts.clock.Since(start))
		case <-ctx.Done():
			return giveUp(ctx.Err())
		case <-deadline.C:
			return giveUp(ErrSendTimeout)
		}
	}
}

// prepare 写入寻址元素并创建 QueuedMessage；出错时通知器已判定失败
func (c *Core) prepare(msg *message.Message, service, param string) *QueuedMessage {
	item := &QueuedMessage{
		ID:          uuid.New(),
		Message:     msg,
		Destination: c.dest.WithService(service, param),
		Notifier:    NewNotifier(msg, c.opts.clock),
		EnqueuedAt:  c.opts.clock.Now(),
	}
	if msg == nil {
		c.failItem(item, ErrNilMessage)
		return item
	}

	dst, err := message.NewStringElement(DestinationElementName, item.Destination.String(), nil)
	if err == nil {
		_, err = msg.ReplaceElement(message.NamespaceJXTA, dst)
	}
	if err == nil {
		var src *message.Element
		src, err = message.NewStringElement(SourceElementName, c.LocalAddress().String(), nil)
		if err == nil {
			_, err = msg.ReplaceElement(message.NamespaceJXTA, src)
		}
	}
	if err != nil {
		c.failItem(item, err)
	}
	return item
}

func (c *Core) enqueuedLocked(item *QueuedMessage) {
	c.observer.MessageQueued()
	c.observer.QueueDepth(c.queue.len())
	log.Debug("消息入队", "messenger", c.id, "msg", item.ID, "dest", item.Destination, "depth", c.queue.len())
}

func (c *Core) failItem(item *QueuedMessage, cause error) bool {
	if !item.fail(cause) {
		return false
	}
	c.observer.MessageFailed(cause)
	return true
}

// ============================================================================
//                              排空
// ============================================================================

// pull 单飞排空
//
// 拿不到排空许可时只留下 pullRequested 标记，由正在排空的一方在释放许可
// 后重新检查，不会丢失唤醒。
func (c *Core) pull() {
	c.pullRequested.Store(true)
	for c.pullRequested.Load() {
		if !c.draining.CompareAndSwap(false, true) {
			return
		}
		c.pullRequested.Store(false)
		c.drainPass()
		c.draining.Store(false)
	}
}

// drainPass 一轮排空
func (c *Core) drainPass() {
	for {
		c.mu.Lock()
		if !c.state.Is(types.SendableStates) {
			c.mu.Unlock()
			return
		}
		item := c.queue.peek()
		if item == nil {
			closeOut := c.inputClosed && !c.closeRequested
			if closeOut {
				c.closeRequested = true
			}
			c.mu.Unlock()

			c.fire(evIdle)
			if closeOut {
				c.requestClose()
			}
			return
		}
		c.mu.Unlock()

		if item.Notifier.IsDone() {
			// 已被超时等路径判定失败：弹出后由 pull 立即重跑，后续消息不必等下一次唤醒
			c.evict(item)
			c.pullRequested.Store(true)
			return
		}

		switch c.transport.TrySend(item) {
		case Accepted:
			c.evict(item)
			c.observer.MessageAccepted()
			log.Debug("传输接受消息", "messenger", c.id, "msg", item.ID)
			c.fire(evMsgs)
		case Rejected:
			c.evict(item)
			c.failItem(item, ErrRejected)
			log.Debug("传输拒绝消息", "messenger", c.id, "msg", item.ID)
		default:
			// 传输缓冲区满：队首保留，等待 PullMessages
			return
		}
	}
}

// evict 弹出队首 item 并唤醒等待空间的发送方
func (c *Core) evict(item *QueuedMessage) {
	c.mu.Lock()
	if c.queue.popIf(item) {
		c.observer.QueueDepth(c.queue.len())
		c.broadcastLocked()
	}
	c.mu.Unlock()
}

func (c *Core) requestClose() {
	log.Debug("请求传输关闭", "messenger", c.id, "dest", c.dest)
	c.transport.RequestClose()
}

// ============================================================================
//                              事件处理
// ============================================================================

// fire 在锁内推进状态机，锁外执行动作
func (c *Core) fire(ev event) {
	var (
		failed    []*QueuedMessage
		failCause error
		post      action
	)

	c.mu.Lock()
	for {
		next, acts := step(c.state, ev)
		if next != c.state {
			c.setStateLocked(next, ev)
		}
		if acts&actCloseInput != 0 {
			c.inputClosed = true
		}
		if acts&actFailAll != 0 {
			failed = append(failed, c.queue.drain()...)
			failCause = ErrMessengerClosed
			if c.state == types.Broken {
				failCause = ErrUnexpectedlyClosed
			}
		}
		post |= acts & (actStart | actCloseOutput)
		if acts&actConnect != 0 {
			if c.connector == nil {
				// 核心本身不发起连接，视为连接立即失败
				ev = evDown
				continue
			}
			post |= actConnect
		}
		break
	}
	closeOut := post&actCloseOutput != 0 && !c.closeRequested
	if closeOut {
		c.closeRequested = true
	}
	if len(failed) > 0 {
		c.observer.QueueDepth(0)
		c.broadcastLocked()
	}
	c.mu.Unlock()

	if len(failed) > 0 {
		log.Warn("信使关闭，排队消息全部失败", "messenger", c.id, "count", len(failed), "cause", failCause)
		for _, item := range failed {
			c.failItem(item, failCause)
		}
	}
	if post&actConnect != 0 {
		c.connector.Connect()
	}
	if closeOut {
		c.requestClose()
	}
	if post&actStart != 0 {
		c.pull()
	}
}

func (c *Core) setStateLocked(next types.MessengerState, ev event) {
	old := c.state
	c.state = next
	c.broadcastLocked()
	c.observer.StateChanged(old, next)

	if next.IsTerminal() {
		log.Info("信使进入终态", "messenger", c.id, "dest", c.dest, "state", next, "event", ev)
	} else {
		log.Debug("信使状态迁移", "messenger", c.id, "old", old, "new", next, "event", ev)
	}

	if c.emitter != nil {
		evt := types.EvtMessengerStateChanged{MessengerID: c.id, Destination: c.dest, Old: old, New: next}
		if err := c.emitter.Emit(evt); err != nil {
			log.Debug("发布状态事件失败", "messenger", c.id, "err", err)
		}
	}
}

func (c *Core) broadcastLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}
