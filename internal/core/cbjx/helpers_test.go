package cbjx

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-overlay/config"
	"github.com/dep2p/go-overlay/internal/core/identity"
	"github.com/dep2p/go-overlay/internal/core/message"
	identityif "github.com/dep2p/go-overlay/pkg/interfaces/identity"
	"github.com/dep2p/go-overlay/pkg/types"
)

// staticSource 固定凭证
type staticSource struct {
	cred identityif.Credential
	err  error
}

func (s staticSource) DefaultCredential() (identityif.Credential, error) {
	return s.cred, s.err
}

// brokenSigner 证书正常但签名总是失败的凭证
type brokenSigner struct {
	identityif.Credential
}

func (brokenSigner) Sign(identityif.SignatureAlgorithm, []byte) ([]byte, error) {
	return nil, errors.New("hsm offline")
}

// forgedCredential 证书由另一把密钥签发、签名使用证书公钥对应私钥
type forgedCredential struct {
	cert *x509.Certificate
	priv ed25519.PrivateKey
	id   types.PeerID
}

func (f *forgedCredential) Certificate() *x509.Certificate { return f.cert }
func (f *forgedCredential) PeerID() types.PeerID           { return f.id }
func (f *forgedCredential) Sign(_ identityif.SignatureAlgorithm, data []byte) ([]byte, error) {
	return ed25519.Sign(f.priv, data), nil
}

func newForgedCredential(t *testing.T) *forgedCredential {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	_, otherPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(7),
		Subject:               pkix.Name{CommonName: "forged"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		BasicConstraintsValid: true,
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, pub, otherPriv)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	id, err := types.PeerIDFromPublicKey(pub)
	require.NoError(t, err)
	return &forgedCredential{cert: cert, priv: priv, id: id}
}

// recordingEmitter 记录发射的事件
type recordingEmitter struct {
	mu     sync.Mutex
	events []any
	closed bool
}

func (e *recordingEmitter) Emit(evt any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, evt)
	return nil
}

func (e *recordingEmitter) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	return nil
}

func (e *recordingEmitter) snapshot() []any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]any(nil), e.events...)
}

// countingObserver 统计验证结果
type countingObserver struct {
	mu        sync.Mutex
	succeeded int
	failed    map[string]int
}

func (o *countingObserver) VerificationSucceeded() {
	o.mu.Lock()
	o.succeeded++
	o.mu.Unlock()
}

func (o *countingObserver) VerificationFailed(step string) {
	o.mu.Lock()
	if o.failed == nil {
		o.failed = make(map[string]int)
	}
	o.failed[step]++
	o.mu.Unlock()
}

func newCredential(t *testing.T) *identity.Credential {
	t.Helper()
	cred, err := identity.Generate(time.Hour)
	require.NoError(t, err)
	return cred
}

func newSigner(cred identityif.Credential) *Signer {
	return NewSigner(staticSource{cred: cred}, config.DefaultCBJXConfig())
}

func newVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier(config.DefaultCBJXConfig(), config.DefaultWireConfig())
	require.NoError(t, err)
	return v
}

func sampleMessage(t *testing.T) *message.Message {
	t.Helper()
	msg := message.New()
	require.NoError(t, msg.AddElement(message.NamespaceJXTA, message.MustElement("payload", "", []byte{0, 1, 2, 3}, nil)))
	require.NoError(t, msg.AddElement("app", message.MustElement("note", types.MimeText, []byte("hello"), nil)))
	return msg
}

func signedBytesOf(t *testing.T, s *Signer, msg *message.Message, tls bool) []byte {
	t.Helper()
	signed, err := s.SignMessage(msg, tls)
	require.NoError(t, err)
	data, err := signed.Bytes()
	require.NoError(t, err)
	return data
}

// requireFailClosed 断言得到了认证失败的空消息
func requireFailClosed(t *testing.T, msg *message.Message) {
	t.Helper()
	require.NotNil(t, msg)
	require.Zero(t, msg.Len())
	require.True(t, HasVerificationSets(msg))
	require.Empty(t, VerifiedAddresses(msg))
	require.Empty(t, VerifiedCertificates(msg))
	require.Len(t, msg.PropertyKeys(), 2)
}
