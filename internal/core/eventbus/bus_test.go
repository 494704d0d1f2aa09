package eventbus

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgif "github.com/dep2p/go-overlay/pkg/interfaces"
	"github.com/dep2p/go-overlay/pkg/types"
)

type testEvent struct{ Value int }

func receive(t *testing.T, sub pkgif.Subscription) any {
	t.Helper()
	select {
	case evt := <-sub.Out():
		return evt
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
		return nil
	}
}

// ============================================================================
// 基础功能
// ============================================================================

func TestBus_EmitAndReceive(t *testing.T) {
	bus := NewBus()

	sub, err := bus.Subscribe(new(types.EvtMessengerStateChanged))
	require.NoError(t, err)
	defer sub.Close()

	em, err := bus.Emitter(new(types.EvtMessengerStateChanged))
	require.NoError(t, err)
	defer em.Close()

	evt := types.EvtMessengerStateChanged{MessengerID: "m1", Old: types.Unresolved, New: types.Resolving}
	require.NoError(t, em.Emit(evt))
	assert.Equal(t, evt, receive(t, sub))
}

func TestBus_InvalidTypes(t *testing.T) {
	bus := NewBus()

	_, err := bus.Subscribe(nil)
	assert.ErrorIs(t, err, ErrInvalidEventType)

	_, err = bus.Subscribe(testEvent{})
	assert.ErrorIs(t, err, ErrNonPointerType)

	_, err = bus.Emitter(testEvent{})
	assert.ErrorIs(t, err, ErrNonPointerType)

	em, err := bus.Emitter(new(testEvent))
	require.NoError(t, err)
	assert.ErrorIs(t, em.Emit("not an event"), ErrWrongEventType)
}

func TestBus_MultipleSubscribers(t *testing.T) {
	bus := NewBus()
	em, err := bus.Emitter(new(testEvent))
	require.NoError(t, err)

	subs := make([]pkgif.Subscription, 3)
	for i := range subs {
		subs[i], err = bus.Subscribe(new(testEvent))
		require.NoError(t, err)
	}

	require.NoError(t, em.Emit(testEvent{Value: 7}))
	for _, sub := range subs {
		assert.Equal(t, testEvent{Value: 7}, receive(t, sub))
	}
}

func TestBus_Stateful(t *testing.T) {
	bus := NewBus()
	em, err := bus.Emitter(new(testEvent), Stateful())
	require.NoError(t, err)
	defer em.Close()

	require.NoError(t, em.Emit(testEvent{Value: 1}))
	require.NoError(t, em.Emit(testEvent{Value: 2}))

	// 后订阅者立即收到最后一个事件
	sub, err := bus.Subscribe(new(testEvent))
	require.NoError(t, err)
	defer sub.Close()
	assert.Equal(t, testEvent{Value: 2}, receive(t, sub))
}

func TestBus_SlowSubscriberDropped(t *testing.T) {
	bus := NewBus()
	sub, err := bus.Subscribe(new(testEvent), BufSize(1))
	require.NoError(t, err)
	defer sub.Close()

	em, err := bus.Emitter(new(testEvent))
	require.NoError(t, err)
	defer em.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, em.Emit(testEvent{Value: i}))
	}
	assert.Equal(t, int64(4), bus.DroppedEvents(new(testEvent)))
	assert.Equal(t, testEvent{Value: 0}, receive(t, sub))
}

// ============================================================================
// 关闭与回收
// ============================================================================

func TestSubscription_Close(t *testing.T) {
	bus := NewBus()
	sub, err := bus.Subscribe(new(testEvent))
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	_, ok := <-sub.Out()
	assert.False(t, ok)

	bus.mu.Lock()
	assert.Empty(t, bus.nodes)
	bus.mu.Unlock()
}

func TestEmitter_Close(t *testing.T) {
	bus := NewBus()
	em, err := bus.Emitter(new(testEvent))
	require.NoError(t, err)

	require.NoError(t, em.Close())
	require.NoError(t, em.Close())
	assert.ErrorIs(t, em.Emit(testEvent{}), ErrClosed)

	bus.mu.Lock()
	assert.Empty(t, bus.nodes)
	bus.mu.Unlock()
}

func TestBus_Close(t *testing.T) {
	bus := NewBus()
	sub, err := bus.Subscribe(new(testEvent))
	require.NoError(t, err)

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	_, ok := <-sub.Out()
	assert.False(t, ok)

	_, err = bus.Subscribe(new(testEvent))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = bus.Emitter(new(testEvent))
	assert.ErrorIs(t, err, ErrClosed)
}

// TestBus_ConcurrentEmitClose 并发发射与取消订阅不会 panic
func TestBus_ConcurrentEmitClose(t *testing.T) {
	bus := NewBus()
	em, err := bus.Emitter(new(testEvent))
	require.NoError(t, err)
	defer em.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = em.Emit(testEvent{Value: j})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				sub, err := bus.Subscribe(new(testEvent), BufSize(4))
				if err != nil {
					return
				}
				_ = sub.Close()
			}
		}()
	}
	wg.Wait()
}
