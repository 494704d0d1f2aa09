package message

import "errors"

var (
	// ErrPayloadTooLarge 负载超过线格式长度字段上限
	ErrPayloadTooLarge = errors.New("element payload exceeds wire format limit")

	// ErrEmptyName 元素名为空
	ErrEmptyName = errors.New("element name must not be empty")

	// ErrRawNestedPayload 以线格式类型构造原始字节元素
	//
	// 该类型的负载必须是嵌套消息，应使用 NewMessageElement。
	ErrRawNestedPayload = errors.New("wire message type requires a nested message element")

	// ErrNilElement 元素为空
	ErrNilElement = errors.New("nil element")
)
