package cbjx

import (
	"fmt"

	"github.com/dep2p/go-overlay/internal/core/message"
	"github.com/dep2p/go-overlay/internal/core/wire"
	"github.com/dep2p/go-overlay/pkg/types"
)

// 转发信封
const (
	// RouterElementName 转发信封元素名（jxta 命名空间）
	RouterElementName = "EndpointRouterMsg"

	// RouterSourceElementName 信封内声明原始发送方的元素名（jxta 命名空间）
	RouterSourceElementName = "Src"

	// PropRouterEnvelope 验证通过的转发信封（*message.Message）
	PropRouterEnvelope PropertyKey = "cbjx.router-envelope"
)

// SignRouterEnvelope 把信封签名成可由中间路由转发的元素
//
// 信封中的 jxta:Src 被设置为 src；src 为空时使用签名者自己的 URI。
// 返回的元素负载是"信封线格式字节 + 尾部"，MIME 类型为 types.MimeSignedEnvelope。
// 传入的信封不会被修改。
func (s *Signer) SignRouterEnvelope(envelope *message.Message, src string) (*message.Element, error) {
	if src == "" {
		if cred, err := s.credential(); err == nil {
			src = cred.PeerID().URI()
		}
	}

	env := envelope.Clone()
	srcEl, err := message.NewStringElement(RouterSourceElementName, src, nil)
	if err != nil {
		return nil, err
	}
	if _, err := env.ReplaceElement(message.NamespaceJXTA, srcEl); err != nil {
		return nil, err
	}

	raw, err := wire.EncodeToBytes(env)
	if err != nil {
		return nil, fmt.Errorf("encode router envelope: %w", err)
	}
	return message.NewElement(RouterElementName, types.MimeSignedEnvelope, s.SignBytes(raw, false), nil)
}

// AttachRouterEnvelope 把签名信封放入消息（替换已有的信封）
func AttachRouterEnvelope(msg *message.Message, el *message.Element) error {
	_, err := msg.ReplaceElement(message.NamespaceJXTA, el)
	return err
}

// RouterEnvelope 返回验证通过的转发信封
func RouterEnvelope(msg *message.Message) (*message.Message, bool) {
	env, ok := msg.GetProperty(PropRouterEnvelope).(*message.Message)
	return env, ok
}

// checkRouter 对转发信封做第二层验证
//
// 没有信封元素，或元素类型不是签名信封时不做检查。
func (v *Verifier) checkRouter(msg *message.Message) *VerificationError {
	el := msg.GetElement(message.NamespaceJXTA, RouterElementName)
	if el == nil || el.MimeType() != types.MimeSignedEnvelope {
		return nil
	}

	env, unsigned, rest, err := v.split(el.Bytes())
	if err != nil {
		return fail(StepRouter, fmt.Errorf("%w: %w", ErrRouterEnvelope, err))
	}
	t, err := ParseTrailer(rest)
	if err != nil {
		return fail(StepRouter, err)
	}
	cert, verr := v.check(unsigned, t)
	if verr != nil {
		return fail(StepRouter, verr)
	}

	srcEl := env.GetElement(message.NamespaceJXTA, RouterSourceElementName)
	if srcEl == nil {
		return fail(StepRouter, fmt.Errorf("%w: missing %s", ErrRouterEnvelope, RouterSourceElementName))
	}
	if err := matchIdentity(srcEl.Text(), cert); err != nil {
		return fail(StepRouter, err)
	}

	recordVerified(msg, t.Source, cert)
	msg.SetProperty(PropRouterEnvelope, env)
	return nil
}
