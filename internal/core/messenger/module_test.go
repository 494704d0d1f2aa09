package messenger

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/dep2p/go-overlay/config"
	"github.com/dep2p/go-overlay/internal/core/eventbus"
	pkgif "github.com/dep2p/go-overlay/pkg/interfaces"
	"github.com/dep2p/go-overlay/pkg/types"
)

func TestFactory(t *testing.T) {
	cfg := config.DefaultMessengerConfig().WithQueueCapacity(1)
	f, err := NewFactory(cfg, clock.NewMock(), nil, nil)
	require.NoError(t, err)

	ft := newFakeTransport()
	ft.setSaturated(true)
	c, err := f.New(testDest, ft)
	require.NoError(t, err)
	c.ConnectionUp()

	t.Run("继承工厂配置", func(t *testing.T) {
		require.True(t, c.SendNonBlocking(newMsg(t, "A"), "", ""))
		assert.False(t, c.SendNonBlocking(newMsg(t, "B"), "", ""))
	})

	t.Run("选项覆盖", func(t *testing.T) {
		ft2 := newFakeTransport()
		ft2.setSaturated(true)
		c2, err := f.New(testDest, ft2, WithQueueCapacity(3))
		require.NoError(t, err)
		c2.ConnectionUp()
		for _, label := range []string{"A", "B", "C"} {
			assert.True(t, c2.SendNonBlocking(newMsg(t, label), "", ""))
		}
		assert.Len(t, f.Messengers(), 2)
	})

	t.Run("关闭后拒绝创建", func(t *testing.T) {
		require.NoError(t, f.Close())
		assert.True(t, c.IsClosed())
		_, err := f.New(testDest, newFakeTransport())
		assert.ErrorIs(t, err, ErrMessengerClosed)
		assert.NoError(t, f.Close())
	})
}

func TestFactory_InvalidConfig(t *testing.T) {
	_, err := NewFactory(config.MessengerConfig{}, nil, nil, nil)
	assert.Error(t, err)
}

func TestModule(t *testing.T) {
	var (
		factory *Factory
		bus     pkgif.EventBus
	)
	app := fxtest.New(t,
		fx.WithLogger(func() fxevent.Logger { return &fxevent.ZapLogger{Logger: zap.NewNop()} }),
		fx.Supply(config.NewConfig()),
		eventbus.Module(),
		Module(),
		fx.Populate(&factory, &bus),
	)
	app.RequireStart()

	sub, err := bus.Subscribe(new(types.EvtMessengerStateChanged))
	require.NoError(t, err)
	defer sub.Close()

	ft := newFakeTransport()
	c, err := factory.New(testDest, ft)
	require.NoError(t, err)
	c.ConnectionUp()

	select {
	case raw := <-sub.Out():
		evt := raw.(types.EvtMessengerStateChanged)
		assert.Equal(t, types.Connected, evt.New)
	case <-time.After(5 * time.Second):
		t.Fatal("未收到状态事件")
	}

	app.RequireStop()
	assert.Equal(t, types.Closed, c.State())
}
