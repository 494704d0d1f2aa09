package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	pkgif "github.com/dep2p/go-overlay/pkg/interfaces"
)

func TestModule(t *testing.T) {
	var bus pkgif.EventBus
	var concrete *Bus

	app := fxtest.New(t,
		fx.WithLogger(func() fxevent.Logger { return &fxevent.ZapLogger{Logger: zap.NewNop()} }),
		Module(),
		fx.Populate(&bus, &concrete),
	)
	app.RequireStart()

	require.NotNil(t, bus)
	assert.Same(t, concrete, bus.(*Bus))

	sub, err := bus.Subscribe(new(testEvent))
	require.NoError(t, err)

	// 停止时关闭总线与所有订阅
	app.RequireStop()
	_, ok := <-sub.Out()
	assert.False(t, ok)
}
