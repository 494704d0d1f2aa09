package message

import (
	"bytes"
	"fmt"
	"math"

	"github.com/dep2p/go-overlay/pkg/types"
)

// MaxPayloadSize 单个元素负载的最大字节数
//
// 线格式的负载长度字段是有符号 32 位整数且必须非负。
const MaxPayloadSize = math.MaxInt32

// Element 消息元素
//
// 元素构造后不可变。负载要么是原始字节，要么是嵌套消息
// （MIME 类型为 types.MimeWireMessage 时）。签名元素本身也是一个 Element。
type Element struct {
	name      string
	mimeType  string
	data      []byte
	nested    *Message
	signature *Element
}

// NewElement 创建字节负载元素
//
// mimeType 为空表示默认类型 application/octet-stream；types.MimeWireMessage
// 返回 ErrRawNestedPayload，嵌套消息只能通过 NewMessageElement 构造。
// data 不会被复制，调用方在元素生命周期内不得修改它。
func NewElement(name, mimeType string, data []byte, signature *Element) (*Element, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if mimeType == types.MimeWireMessage {
		return nil, fmt.Errorf("%w: element %q", ErrRawNestedPayload, name)
	}
	if int64(len(data)) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(data))
	}
	if mimeType == types.MimeOctetStream {
		mimeType = ""
	}
	return &Element{
		name:      name,
		mimeType:  mimeType,
		data:      data,
		signature: signature,
	}, nil
}

// NewStringElement 创建 UTF-8 文本元素
func NewStringElement(name, value string, signature *Element) (*Element, error) {
	return NewElement(name, types.MimeText, []byte(value), signature)
}

// NewMessageElement 创建嵌套消息元素
//
// 嵌套消息长度在编码时才确定；超过上限的错误由编码器报告。
func NewMessageElement(name string, nested *Message, signature *Element) (*Element, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if nested == nil {
		nested = New()
	}
	return &Element{
		name:      name,
		mimeType:  types.MimeWireMessage,
		nested:    nested,
		signature: signature,
	}, nil
}

// MustElement 创建元素，失败时 panic（用于常量负载与测试）
func MustElement(name, mimeType string, data []byte, signature *Element) *Element {
	el, err := NewElement(name, mimeType, data, signature)
	if err != nil {
		panic(err)
	}
	return el
}

// Name 返回元素名
func (e *Element) Name() string {
	return e.name
}

// MimeType 返回 MIME 类型；未声明时返回 application/octet-stream
func (e *Element) MimeType() string {
	if e.mimeType == "" {
		return types.MimeOctetStream
	}
	return e.mimeType
}

// HasExplicitType 是否显式声明了 MIME 类型
func (e *Element) HasExplicitType() bool {
	return e.mimeType != ""
}

// Bytes 返回原始负载；嵌套消息元素返回 nil
func (e *Element) Bytes() []byte {
	return e.data
}

// Text 以字符串返回负载
func (e *Element) Text() string {
	return string(e.data)
}

// Message 返回嵌套消息；非嵌套元素返回 nil
func (e *Element) Message() *Message {
	return e.nested
}

// IsNested 是否为嵌套消息元素
func (e *Element) IsNested() bool {
	return e.nested != nil
}

// Signature 返回签名元素，可能为 nil
func (e *Element) Signature() *Element {
	return e.signature
}

// Equal 结构相等：名称、类型、负载、嵌套结构、签名逐一比较
func (e *Element) Equal(other *Element) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.name != other.name || e.MimeType() != other.MimeType() {
		return false
	}
	if e.IsNested() != other.IsNested() {
		return false
	}
	if e.IsNested() {
		if !e.nested.Equal(other.nested) {
			return false
		}
	} else if !bytes.Equal(e.data, other.data) {
		return false
	}
	return e.signature.Equal(other.signature)
}

// String 返回调试表示
func (e *Element) String() string {
	if e.IsNested() {
		return fmt.Sprintf("%s(%s, %d elements)", e.name, e.MimeType(), e.nested.Len())
	}
	return fmt.Sprintf("%s(%s, %d bytes)", e.name, e.MimeType(), len(e.data))
}
