package cbjx

import (
	"fmt"
	"io"
	"net"

	"github.com/dep2p/go-overlay/config"
	"github.com/dep2p/go-overlay/internal/core/message"
	"github.com/dep2p/go-overlay/internal/core/wire"
	"github.com/dep2p/go-overlay/internal/util/logger"
	identityif "github.com/dep2p/go-overlay/pkg/interfaces/identity"
	"github.com/dep2p/go-overlay/pkg/types"
)

var log = logger.Logger("cbjx")

// ============================================================================
//                              尾部构造
// ============================================================================

// SourceFor 返回凭证对应的源标识；tls 为 true 时使用 jxtatls:// 形式
func SourceFor(id types.PeerID, tls bool) string {
	if tls {
		return id.TLSAddress()
	}
	return id.URI()
}

// BuildTrailer 为未签名字节构造尾部
//
// 签名失败时返回签名字段为空的尾部而不是错误。cred 为 nil 时证书与签名都为空。
func BuildTrailer(unsigned [][]byte, cred identityif.Credential, source string) *Trailer {
	t := &Trailer{Source: source}
	if cred == nil {
		return t
	}
	if cert := cred.Certificate(); cert != nil {
		t.Certificate = cert.Raw
	}

	sig, err := cred.Sign(identityif.AlgorithmEd25519, signedBytes(unsigned, t))
	if err != nil {
		log.Warn("签名失败，尾部签名置空", "source", source, "err", err)
		sig = nil
	}
	t.Signature = sig
	return t
}

// signedBytes 拼接被签名覆盖的全部字节
//
// 顺序为未签名消息字节、证书 DER、源标识，均不带长度前缀。
func signedBytes(unsigned [][]byte, t *Trailer) []byte {
	size := len(t.Certificate) + len(t.Source)
	for _, b := range unsigned {
		size += len(b)
	}
	out := make([]byte, 0, size)
	for _, b := range unsigned {
		out = append(out, b...)
	}
	out = append(out, t.Certificate...)
	return append(out, t.Source...)
}

// ============================================================================
//                              Signer
// ============================================================================

// Signer 出站消息签名器
type Signer struct {
	source  identityif.CredentialSource
	markTLS bool
}

// NewSigner 创建签名器
func NewSigner(source identityif.CredentialSource, cfg config.CBJXConfig) *Signer {
	return &Signer{source: source, markTLS: cfg.MarkTLS}
}

// SignedMessage 已签名的出站消息：线格式字节 + 尾部
//
// 视图语义与 wire.Serialized 相同：消息在签名后被修改则返回
// wire.ErrMessageModified。
type SignedMessage struct {
	serialized *wire.Serialized
	trailer    []byte
	source     string
}

// Source 返回尾部声明的源标识
func (s *SignedMessage) Source() string {
	return s.source
}

// Len 返回总字节数
func (s *SignedMessage) Len() (int64, error) {
	n, err := s.serialized.Len()
	if err != nil {
		return 0, err
	}
	return n + int64(len(s.trailer)), nil
}

// Buffers 返回零拷贝字节区间，尾部是最后一个区间
func (s *SignedMessage) Buffers() (net.Buffers, error) {
	bufs, err := s.serialized.Buffers()
	if err != nil {
		return nil, err
	}
	return append(bufs, s.trailer), nil
}

// WriteTo 写出签名消息
func (s *SignedMessage) WriteTo(w io.Writer) (int64, error) {
	bufs, err := s.Buffers()
	if err != nil {
		return 0, err
	}
	return bufs.WriteTo(w)
}

// Bytes 返回连续字节
func (s *SignedMessage) Bytes() ([]byte, error) {
	bufs, err := s.Buffers()
	if err != nil {
		return nil, err
	}
	var out []byte
	for _, b := range bufs {
		out = append(out, b...)
	}
	return out, nil
}

// SignMessage 编码并签名消息
//
// tls 为 true 或配置了 MarkTLS 时源标识使用 jxtatls:// 形式。
// 只有编码失败时返回错误。取不到凭证或签名失败都按签名失败处理，
// 得到一个必然验证失败的尾部，发送照常进行。
func (s *Signer) SignMessage(msg *message.Message, tls bool) (*SignedMessage, error) {
	serialized, err := wire.Encode(msg)
	if err != nil {
		return nil, err
	}
	unsigned, err := serialized.Buffers()
	if err != nil {
		return nil, err
	}

	t := s.trailer(unsigned, tls)
	return &SignedMessage{serialized: serialized, trailer: t.Encode(), source: t.Source}, nil
}

// SignBytes 为已编码的消息字节追加尾部，返回新切片
func (s *Signer) SignBytes(unsigned []byte, tls bool) []byte {
	t := s.trailer([][]byte{unsigned}, tls)
	out := make([]byte, 0, len(unsigned)+t.Len())
	out = append(out, unsigned...)
	return append(out, t.Encode()...)
}

func (s *Signer) trailer(unsigned [][]byte, tls bool) *Trailer {
	cred, err := s.credential()
	if err != nil {
		log.Warn("取不到签名凭证，尾部签名置空", "err", err)
		return BuildTrailer(unsigned, nil, "")
	}
	return BuildTrailer(unsigned, cred, SourceFor(cred.PeerID(), tls || s.markTLS))
}

func (s *Signer) credential() (identityif.Credential, error) {
	if s.source == nil {
		return nil, ErrNoCredential
	}
	cred, err := s.source.DefaultCredential()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoCredential, err)
	}
	if cred == nil {
		return nil, ErrNoCredential
	}
	return cred, nil
}
