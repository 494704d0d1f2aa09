package overlay

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-overlay/config"
	"github.com/dep2p/go-overlay/internal/core/cbjx"
	"github.com/dep2p/go-overlay/internal/core/identity"
	"github.com/dep2p/go-overlay/internal/core/message"
	"github.com/dep2p/go-overlay/internal/core/transport/memory"
	"github.com/dep2p/go-overlay/pkg/types"
)

func newTestPeer(t *testing.T, opts ...Option) *Peer {
	t.Helper()
	p, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func textMessage(t *testing.T, text string) *message.Message {
	t.Helper()
	msg := message.New()
	el, err := message.NewStringElement("text", text, nil)
	require.NoError(t, err)
	require.NoError(t, msg.AddElement("chat", el))
	return msg
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestNew(t *testing.T) {
	p := newTestPeer(t)

	assert.NotEmpty(t, p.ID())
	assert.Equal(t, "jxta", p.Address().Protocol)
	assert.NotNil(t, p.Metrics())
	assert.NotNil(t, p.Events())
	assert.NotNil(t, p.Signer())
	assert.NotNil(t, p.Verifier())

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	_, err := p.NewMessenger(p.Address(), nil)
	assert.ErrorIs(t, err, ErrNilTransport)
}

func TestPeer_ClosedRejectsMessengers(t *testing.T) {
	p := newTestPeer(t)
	require.NoError(t, p.Close())

	ea, _ := memory.NewPipe(
		memory.EndpointConfig{Address: types.MustParseEndpointAddress("mem://a")},
		memory.EndpointConfig{Address: types.MustParseEndpointAddress("mem://b")},
	)
	defer ea.Break()
	_, err := p.NewMessenger(ea.RemoteAddress(), ea)
	assert.ErrorIs(t, err, ErrPeerClosed)
}

func TestPeer_SignVerify(t *testing.T) {
	alice, bob := newTestPeer(t), newTestPeer(t)

	data, err := alice.Sign(textMessage(t, "hi bob"))
	require.NoError(t, err)

	t.Run("验证通过", func(t *testing.T) {
		msg, err := bob.Verify(data)
		require.NoError(t, err)
		assert.True(t, cbjx.IsVerified(msg))
		assert.Equal(t, []string{alice.ID().URI()}, cbjx.VerifiedAddresses(msg))
		assert.Equal(t, "hi bob", msg.GetElement("chat", "text").Text())
	})

	t.Run("篡改后失败关闭", func(t *testing.T) {
		tampered := append([]byte(nil), data...)
		tampered[len(tampered)-1] ^= 0x01
		msg, err := bob.Verify(tampered)
		require.NoError(t, err)
		assert.Equal(t, 0, msg.Len())
		assert.False(t, cbjx.IsVerified(msg))
	})

	t.Run("格式错误返回错误", func(t *testing.T) {
		_, err := bob.Verify([]byte("jxmg"))
		assert.Error(t, err)
	})
}

func TestPeer_MessengerOverMemoryPipe(t *testing.T) {
	alice, bob := newTestPeer(t), newTestPeer(t)

	ea, eb := memory.NewPipe(
		memory.EndpointConfig{Address: alice.Address(), Signer: alice.Signer()},
		memory.EndpointConfig{Address: bob.Address(), Verifier: bob.Verifier()},
		memory.WithByteObserver(alice.Metrics()),
	)
	defer ea.Break()

	sub, err := alice.Events().Subscribe(new(types.EvtMessengerStateChanged))
	require.NoError(t, err)
	defer sub.Close()

	m, err := alice.NewMessenger(bob.Address(), ea)
	require.NoError(t, err)
	require.Equal(t, types.Connected, m.State())
	assert.Len(t, alice.Messengers(), 1)

	require.NoError(t, m.SendBlocking(testContext(t), textMessage(t, "over the pipe"), "Chat", ""))

	d, err := eb.Receive(testContext(t))
	require.NoError(t, err)
	assert.True(t, cbjx.IsVerified(d.Message))
	assert.Equal(t, []string{alice.ID().URI()}, cbjx.VerifiedAddresses(d.Message))
	assert.Equal(t, "over the pipe", d.Message.GetElement("chat", "text").Text())

	select {
	case raw := <-sub.Out():
		evt := raw.(types.EvtMessengerStateChanged)
		assert.Equal(t, m.ID(), evt.MessengerID)
		assert.Equal(t, types.Connected, evt.New)
	case <-time.After(5 * time.Second):
		t.Fatal("未收到状态事件")
	}

	require.NoError(t, alice.Close())
	state, err := m.WaitState(testContext(t), types.TerminalStates)
	require.NoError(t, err)
	assert.Equal(t, types.Closed, state)
}

func TestOptions(t *testing.T) {
	t.Run("WithCredential", func(t *testing.T) {
		cred, err := identity.Generate(time.Hour)
		require.NoError(t, err)
		p := newTestPeer(t, WithCredential(cred))
		assert.Equal(t, cred.PeerID(), p.ID())
	})

	t.Run("WithKeyFile 持久化身份", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "peer.key")
		first := newTestPeer(t, WithKeyFile(path))
		_, err := os.Stat(path)
		require.NoError(t, err)
		require.NoError(t, first.Close())

		second := newTestPeer(t, WithKeyFile(path))
		assert.Equal(t, first.ID(), second.ID())
	})

	t.Run("WithoutMetrics", func(t *testing.T) {
		p := newTestPeer(t, WithoutMetrics())
		assert.Nil(t, p.Metrics())
	})

	t.Run("WithMetricsRegisterer", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		p := newTestPeer(t, WithMetricsRegisterer(reg))
		assert.Same(t, reg, p.Metrics().Gatherer())
	})

	t.Run("无效选项", func(t *testing.T) {
		_, err := New(WithConfig(nil))
		assert.ErrorIs(t, err, ErrInvalidOption)
		_, err = New(WithQueueCapacity(0))
		assert.ErrorIs(t, err, ErrInvalidOption)
		_, err = New(WithCredential(nil))
		assert.ErrorIs(t, err, ErrInvalidOption)
	})

	t.Run("配置校验失败", func(t *testing.T) {
		cfg := config.NewConfig()
		cfg.Messenger.QueueCapacity = -1
		_, err := New(WithConfig(cfg))
		assert.Error(t, err)
	})
}

func TestVersionInfo(t *testing.T) {
	assert.Contains(t, VersionInfo(), Version)
}
