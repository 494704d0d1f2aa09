package cbjx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/dep2p/go-overlay/config"
	"github.com/dep2p/go-overlay/internal/core/eventbus"
	"github.com/dep2p/go-overlay/internal/core/identity"
	pkgif "github.com/dep2p/go-overlay/pkg/interfaces"
	"github.com/dep2p/go-overlay/pkg/types"
)

func TestModule(t *testing.T) {
	var (
		signer   *Signer
		verifier *Verifier
		bus      pkgif.EventBus
	)
	app := fxtest.New(t,
		fx.WithLogger(func() fxevent.Logger { return &fxevent.ZapLogger{Logger: zap.NewNop()} }),
		fx.Supply(config.NewConfig()),
		eventbus.Module(),
		identity.Module(),
		Module(),
		fx.Populate(&signer, &verifier, &bus),
	)
	app.RequireStart()
	defer app.RequireStop()

	sub, err := bus.Subscribe(new(types.EvtMessageVerificationFailed))
	require.NoError(t, err)
	defer sub.Close()

	msg := sampleMessage(t)
	data := signedBytesOf(t, signer, msg, false)

	got, err := verifier.Verify(data)
	require.NoError(t, err)
	assert.True(t, msg.Equal(got))
	assert.True(t, IsVerified(got))

	data[len(data)-1] ^= 0x01
	got, err = verifier.Verify(data)
	require.NoError(t, err)
	requireFailClosed(t, got)

	select {
	case evt := <-sub.Out():
		assert.Equal(t, string(StepSignature), evt.(types.EvtMessageVerificationFailed).Step)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for verification event")
	}
}
