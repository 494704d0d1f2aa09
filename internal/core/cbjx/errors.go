package cbjx

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedTrailer 尾部结构损坏
	ErrMalformedTrailer = errors.New("malformed cbjx trailer")

	// ErrBadCertificate 证书无法解析或自签名无效
	ErrBadCertificate = errors.New("invalid signer certificate")

	// ErrUnsupportedKey 证书公钥不是固定签名算法的密钥
	ErrUnsupportedKey = errors.New("unsupported signer key")

	// ErrBadSignature 签名无效
	ErrBadSignature = errors.New("signature verification failed")

	// ErrIdentityMismatch 源标识与证书派生的标识不一致
	ErrIdentityMismatch = errors.New("source identity does not match certificate")

	// ErrRouterEnvelope 转发信封无效
	ErrRouterEnvelope = errors.New("invalid router envelope")

	// ErrNoCredential 没有可用的签名凭证
	ErrNoCredential = errors.New("no signing credential")
)

// Step 验证步骤
type Step string

// 验证步骤
const (
	StepTrailer     Step = "trailer"
	StepCertificate Step = "certificate"
	StepAlgorithm   Step = "algorithm"
	StepSignature   Step = "signature"
	StepIdentity    Step = "identity"
	StepRouter      Step = "router"
)

// VerificationError 验证失败
//
// 只在包内流转；对外的 Verify 把它折叠成空消息。
type VerificationError struct {
	Step Step
	Err  error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("cbjx %s: %v", e.Step, e.Err)
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

func fail(step Step, err error) *VerificationError {
	return &VerificationError{Step: step, Err: err}
}
