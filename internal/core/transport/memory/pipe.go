package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dep2p/go-overlay/internal/core/message"
	"github.com/dep2p/go-overlay/internal/core/messenger"
	"github.com/dep2p/go-overlay/internal/core/wire"
	"github.com/dep2p/go-overlay/internal/util/logger"
	"github.com/dep2p/go-overlay/pkg/types"
)

var log = logger.Logger("transport/memory")

// frame 缓冲中的一条线格式消息
type frame struct {
	data []byte
	item *messenger.QueuedMessage
}

// Delivery 对端投递到收件箱的消息
type Delivery struct {
	// Message 解码（或验证）后的消息
	Message *message.Message
	// From 发送端地址
	From types.EndpointAddress
	// Size 线格式字节数
	Size int
}

// pipe 两个端点共享的断开状态
type pipe struct {
	opts      pipeOptions
	dead      chan struct{}
	breakOnce sync.Once
	ends      [2]*Endpoint
}

func (p *pipe) isDead() bool {
	select {
	case <-p.dead:
		return true
	default:
		return false
	}
}

// ============================================================================
//                              Endpoint
// ============================================================================

// Endpoint 管道的一端
type Endpoint struct {
	cfg  EndpointConfig
	pipe *pipe
	peer *Endpoint

	mu        sync.Mutex
	up        messenger.Upcalls
	outClosed bool

	// out 本端发往对端的帧缓冲
	out chan frame
	// outDone 对端读完 out 后关闭
	outDone chan struct{}
	// wantPull 本端曾因缓冲满返回 Saturated
	wantPull  atomic.Bool
	closeOnce sync.Once

	// inbox 来自对端的消息，对端关闭输出后关闭
	inbox chan Delivery
}

var (
	_ messenger.Transport = (*Endpoint)(nil)
	_ messenger.Binder    = (*Endpoint)(nil)
)

// NewPipe 创建一对相连的端点
func NewPipe(a, b EndpointConfig, opts ...Option) (*Endpoint, *Endpoint) {
	o := defaultPipeOptions()
	for _, opt := range opts {
		opt(&o)
	}

	p := &pipe{opts: o, dead: make(chan struct{})}
	ea, eb := newEndpoint(a, p), newEndpoint(b, p)
	ea.peer, eb.peer = eb, ea
	p.ends = [2]*Endpoint{ea, eb}

	go ea.readLoop(eb)
	go eb.readLoop(ea)
	return ea, eb
}

func newEndpoint(cfg EndpointConfig, p *pipe) *Endpoint {
	return &Endpoint{
		cfg:     cfg,
		pipe:    p,
		out:     make(chan frame, p.opts.bufferSize),
		outDone: make(chan struct{}),
		inbox:   make(chan Delivery, p.opts.inboxSize),
	}
}

// LocalAddress 本端地址
func (e *Endpoint) LocalAddress() types.EndpointAddress {
	return e.cfg.Address
}

// RemoteAddress 对端地址
func (e *Endpoint) RemoteAddress() types.EndpointAddress {
	return e.peer.cfg.Address
}

// Bind 记录信使回调；管道完好时立即报告连接建立
func (e *Endpoint) Bind(up messenger.Upcalls) {
	e.mu.Lock()
	e.up = up
	e.mu.Unlock()

	if e.pipe.isDead() {
		up.ConnectionFailed()
		return
	}
	up.ConnectionUp()
}

func (e *Endpoint) upcalls() messenger.Upcalls {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.up
}

// ============================================================================
//                              发送
// ============================================================================

// TrySend 编码并放入帧缓冲，不阻塞
func (e *Endpoint) TrySend(item *messenger.QueuedMessage) messenger.SendResult {
	if e.pipe.isDead() {
		item.Complete(ErrBroken)
		return messenger.Rejected
	}
	if len(e.out) == cap(e.out) {
		e.wantPull.Store(true)
		if len(e.out) == cap(e.out) {
			return messenger.Saturated
		}
	}

	data, err := e.encode(item.Message)
	if err != nil {
		log.Debug("编码出站消息失败", "msg", item.ID, "err", err)
		item.Complete(err)
		return messenger.Rejected
	}
	fr := frame{data: data, item: item}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.outClosed {
		item.Complete(ErrClosed)
		return messenger.Rejected
	}
	select {
	case e.out <- fr:
	default:
		e.wantPull.Store(true)
		// 设置标记前对端可能刚取走一帧
		select {
		case e.out <- fr:
		default:
			return messenger.Saturated
		}
	}
	if b := e.pipe.opts.bytes; b != nil {
		b.LogSentBytes(len(data))
	}
	return messenger.Accepted
}

func (e *Endpoint) encode(msg *message.Message) ([]byte, error) {
	if e.cfg.Signer != nil {
		signed, err := e.cfg.Signer.SignMessage(msg, e.cfg.TLS)
		if err != nil {
			return nil, err
		}
		return signed.Bytes()
	}
	return wire.EncodeToBytes(msg)
}

// pulled 对端取走一帧后调用
func (e *Endpoint) pulled() {
	if !e.wantPull.CompareAndSwap(true, false) {
		return
	}
	if up := e.upcalls(); up != nil {
		up.PullMessages()
	}
}

// ============================================================================
//                              接收
// ============================================================================

// readLoop 读取 from 发来的帧
func (e *Endpoint) readLoop(from *Endpoint) {
	defer close(from.outDone)
	defer close(e.inbox)

	for {
		select {
		case <-e.pipe.dead:
			from.failPending()
			return
		case fr, ok := <-from.out:
			if !ok {
				return
			}
			from.pulled()
			e.deliver(from, fr)
		}
	}
}

func (e *Endpoint) deliver(from *Endpoint, fr frame) {
	if b := e.pipe.opts.bytes; b != nil {
		b.LogRecvBytes(len(fr.data))
	}

	msg, err := e.decode(fr.data)
	if err != nil {
		log.Debug("入站消息格式错误", "from", from.cfg.Address, "err", err)
		fr.item.Complete(err)
		return
	}

	select {
	case e.inbox <- Delivery{Message: msg, From: from.cfg.Address, Size: len(fr.data)}:
		fr.item.Complete(nil)
	case <-e.pipe.dead:
		fr.item.Complete(ErrBroken)
	}
}

func (e *Endpoint) decode(data []byte) (*message.Message, error) {
	if e.cfg.Verifier != nil {
		return e.cfg.Verifier.Verify(data)
	}
	return wire.DecodeBytes(data)
}

// Receive 取出下一条入站消息；对端关闭输出且收件箱为空时返回 ErrClosed
func (e *Endpoint) Receive(ctx context.Context) (Delivery, error) {
	select {
	case d, ok := <-e.inbox:
		if !ok {
			return Delivery{}, ErrClosed
		}
		return d, nil
	case <-ctx.Done():
		return Delivery{}, ctx.Err()
	}
}

// Inbox 入站消息通道
func (e *Endpoint) Inbox() <-chan Delivery {
	return e.inbox
}

// ============================================================================
//                              关闭
// ============================================================================

// RequestClose 异步关闭本端输出
//
// 对端取完缓冲中的全部帧后回调 ConnectionClosed。
func (e *Endpoint) RequestClose() {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		if !e.outClosed {
			e.outClosed = true
			close(e.out)
		}
		e.mu.Unlock()

		go func() {
			<-e.outDone
			if e.pipe.isDead() {
				return
			}
			log.Debug("端点输出已关闭", "addr", e.cfg.Address)
			if up := e.upcalls(); up != nil {
				up.ConnectionClosed()
			}
		}()
	})
}

// Break 模拟传输死亡
func (e *Endpoint) Break() {
	e.pipe.breakOnce.Do(func() {
		close(e.pipe.dead)
		log.Debug("管道断开", "a", e.pipe.ends[0].cfg.Address, "b", e.pipe.ends[1].cfg.Address)
		for _, end := range e.pipe.ends {
			end.failPending()
			if up := end.upcalls(); up != nil {
				up.ConnectionFailed()
			}
		}
	})
}

// failPending 未被对端取走的帧全部失败
func (e *Endpoint) failPending() {
	for {
		select {
		case fr, ok := <-e.out:
			if !ok {
				return
			}
			fr.item.Complete(ErrBroken)
		default:
			return
		}
	}
}
