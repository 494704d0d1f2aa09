package messenger

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-overlay/internal/core/message"
	"github.com/dep2p/go-overlay/pkg/types"
)

var (
	testDest  = types.MustParseEndpointAddress("jxta://remote-peer/EndpointService/group")
	testLocal = types.MustParseEndpointAddress("jxta://local-peer")
)

// fakeTransport 可控的内存传输
type fakeTransport struct {
	mu        sync.Mutex
	up        Upcalls
	saturated bool
	reject    bool
	complete  bool
	autoClose bool
	attempts  []*QueuedMessage
	accepted  []*QueuedMessage
	closes    int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{autoClose: true}
}

func (f *fakeTransport) Bind(up Upcalls) {
	f.mu.Lock()
	f.up = up
	f.mu.Unlock()
}

func (f *fakeTransport) TrySend(item *QueuedMessage) SendResult {
	f.mu.Lock()
	f.attempts = append(f.attempts, item)
	if f.reject {
		f.mu.Unlock()
		return Rejected
	}
	if f.saturated {
		f.mu.Unlock()
		return Saturated
	}
	f.accepted = append(f.accepted, item)
	complete := f.complete
	f.mu.Unlock()

	if complete {
		item.Complete(nil)
	}
	return Accepted
}

func (f *fakeTransport) RequestClose() {
	f.mu.Lock()
	f.closes++
	up, auto := f.up, f.autoClose
	f.mu.Unlock()
	if auto && up != nil {
		up.ConnectionClosed()
	}
}

func (f *fakeTransport) LocalAddress() types.EndpointAddress {
	return testLocal
}

func (f *fakeTransport) setSaturated(v bool) {
	f.mu.Lock()
	f.saturated = v
	f.mu.Unlock()
}

func (f *fakeTransport) setComplete(v bool) {
	f.mu.Lock()
	f.complete = v
	f.mu.Unlock()
}

func (f *fakeTransport) acceptedLabels() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.accepted))
	for _, item := range f.accepted {
		out = append(out, labelOf(item.Message))
	}
	return out
}

func (f *fakeTransport) attemptLabels() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.attempts))
	for _, item := range f.attempts {
		out = append(out, labelOf(item.Message))
	}
	return out
}

func (f *fakeTransport) acceptedItems() []*QueuedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*QueuedMessage(nil), f.accepted...)
}

func (f *fakeTransport) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

// connectingTransport 实现 Connector，Connect 时立即回报连接成功
type connectingTransport struct {
	*fakeTransport
	connects int
}

func (c *connectingTransport) Connect() {
	c.mu.Lock()
	c.connects++
	up := c.up
	c.mu.Unlock()
	up.ConnectionUp()
}

// recordingObserver 记录指标回调
type recordingObserver struct {
	mu          sync.Mutex
	queued      int
	accepted    int
	failed      []error
	overflows   int
	transitions []types.MessengerState
}

func (r *recordingObserver) MessageQueued() {
	r.mu.Lock()
	r.queued++
	r.mu.Unlock()
}

func (r *recordingObserver) MessageAccepted() {
	r.mu.Lock()
	r.accepted++
	r.mu.Unlock()
}

func (r *recordingObserver) MessageFailed(cause error) {
	r.mu.Lock()
	r.failed = append(r.failed, cause)
	r.mu.Unlock()
}

func (r *recordingObserver) QueueOverflow() {
	r.mu.Lock()
	r.overflows++
	r.mu.Unlock()
}

func (r *recordingObserver) QueueDepth(int) {}

func (r *recordingObserver) StateChanged(_, next types.MessengerState) {
	r.mu.Lock()
	r.transitions = append(r.transitions, next)
	r.mu.Unlock()
}

func newMsg(t *testing.T, label string) *message.Message {
	t.Helper()
	msg := message.New()
	el, err := message.NewStringElement("label", label, nil)
	require.NoError(t, err)
	require.NoError(t, msg.AddElement("app", el))
	return msg
}

func labelOf(msg *message.Message) string {
	if el := msg.GetElement("app", "label"); el != nil {
		return el.Text()
	}
	return ""
}

func newConnectedCore(t *testing.T, ft Transport, opts ...Option) *Core {
	t.Helper()
	c := NewCore(testDest, ft, opts...)
	c.ConnectionUp()
	require.Equal(t, types.Connected, c.State())
	return c
}
