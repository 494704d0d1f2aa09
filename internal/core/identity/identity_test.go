package identity

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/dep2p/go-overlay/config"
	identityif "github.com/dep2p/go-overlay/pkg/interfaces/identity"
	"github.com/dep2p/go-overlay/pkg/types"
)

// ============================================================================
// 凭证
// ============================================================================

func TestGenerate(t *testing.T) {
	cred, err := Generate(time.Hour)
	require.NoError(t, err)

	cert := cred.Certificate()
	require.NotNil(t, cert)
	assert.Equal(t, cred.PeerID().URI(), cert.Subject.CommonName)

	// 自签名可验证
	require.NoError(t, cert.CheckSignatureFrom(cert))

	// 标识从证书公钥派生
	derived, err := types.PeerIDFromCertificate(cert)
	require.NoError(t, err)
	assert.Equal(t, derived, cred.PeerID())

	t.Run("签名可用证书公钥验证", func(t *testing.T) {
		data := []byte("hello")
		sig, err := cred.Sign(identityif.AlgorithmEd25519, data)
		require.NoError(t, err)
		pub, ok := cert.PublicKey.(ed25519.PublicKey)
		require.True(t, ok)
		assert.True(t, ed25519.Verify(pub, data, sig))
	})

	t.Run("不支持的算法", func(t *testing.T) {
		_, err := cred.Sign("SHA1withRSA", []byte("x"))
		assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
	})
}

func TestFromPrivateKey(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	a, err := FromPrivateKey(priv, 0)
	require.NoError(t, err)
	b, err := FromPrivateKey(priv, 0)
	require.NoError(t, err)

	// 同一私钥派生同一标识，证书序列号不同
	assert.Equal(t, a.PeerID(), b.PeerID())
	assert.NotEqual(t, a.Certificate().SerialNumber, b.Certificate().SerialNumber)

	_, err = FromPrivateKey(nil, 0)
	assert.ErrorIs(t, err, ErrNilPrivateKey)
}

// ============================================================================
// 持久化
// ============================================================================

func TestSaveLoadKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.pem")

	cred, err := Generate(time.Hour)
	require.NoError(t, err)
	require.NoError(t, SaveKey(cred, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadKey(path, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, cred.PeerID(), loaded.PeerID())

	t.Run("文件不存在", func(t *testing.T) {
		_, err := LoadKey(filepath.Join(t.TempDir(), "none.pem"), time.Hour)
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("不是 PEM", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.pem")
		require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0600))
		_, err := LoadKey(bad, time.Hour)
		assert.ErrorIs(t, err, ErrInvalidPEM)
	})
}

// ============================================================================
// Manager
// ============================================================================

func TestNewManager(t *testing.T) {
	t.Run("内存凭证", func(t *testing.T) {
		m, err := NewManager(config.DefaultIdentityConfig())
		require.NoError(t, err)
		cred, err := m.DefaultCredential()
		require.NoError(t, err)
		assert.Equal(t, cred.PeerID(), m.PeerID())
	})

	t.Run("自动生成并落盘，再次加载得到同一标识", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "node.pem")
		cfg := config.DefaultIdentityConfig().WithKeyFile(path)

		first, err := NewManager(cfg)
		require.NoError(t, err)
		_, err = os.Stat(path)
		require.NoError(t, err)

		second, err := NewManager(cfg)
		require.NoError(t, err)
		assert.Equal(t, first.PeerID(), second.PeerID())
	})

	t.Run("文件不存在且禁止生成", func(t *testing.T) {
		cfg := config.DefaultIdentityConfig().
			WithKeyFile(filepath.Join(t.TempDir(), "missing.pem")).
			WithAutoGenerate(false)
		_, err := NewManager(cfg)
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("无任何来源", func(t *testing.T) {
		_, err := NewManager(config.DefaultIdentityConfig().WithAutoGenerate(false))
		assert.ErrorIs(t, err, ErrNoCredential)
	})
}

func TestManager_Rotate(t *testing.T) {
	m, err := NewManager(config.DefaultIdentityConfig())
	require.NoError(t, err)
	before := m.PeerID()

	next, err := Generate(time.Hour)
	require.NoError(t, err)
	require.NoError(t, m.Rotate(next))
	assert.NotEqual(t, before, m.PeerID())
	assert.Equal(t, next.PeerID(), m.PeerID())

	assert.ErrorIs(t, m.Rotate(nil), ErrNilPrivateKey)
}

// ============================================================================
// Fx 模块
// ============================================================================

func TestModule(t *testing.T) {
	var source identityif.CredentialSource
	app := fxtest.New(t,
		fx.WithLogger(func() fxevent.Logger { return &fxevent.ZapLogger{Logger: zap.NewNop()} }),
		fx.Supply(config.NewConfig()),
		Module(),
		fx.Populate(&source),
	)
	app.RequireStart()
	defer app.RequireStop()

	cred, err := source.DefaultCredential()
	require.NoError(t, err)
	assert.False(t, cred.PeerID().IsEmpty())
}

func TestModule_InjectedCredential(t *testing.T) {
	cred, err := Generate(time.Hour)
	require.NoError(t, err)

	var m *Manager
	app := fxtest.New(t,
		fx.WithLogger(func() fxevent.Logger { return &fxevent.ZapLogger{Logger: zap.NewNop()} }),
		fx.Supply(cred),
		Module(),
		fx.Populate(&m),
	)
	app.RequireStart()
	defer app.RequireStop()

	assert.Equal(t, cred.PeerID(), m.PeerID())
}
