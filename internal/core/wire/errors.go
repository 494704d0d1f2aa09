package wire

import "errors"

var (
	// ErrCorrupt 线格式损坏（所有解码格式错误都包装此错误）
	ErrCorrupt = errors.New("corrupt wire message")

	// ErrUnsupportedVersion 不支持的格式版本
	ErrUnsupportedVersion = errors.New("unsupported wire format version")

	// ErrTooManyNamespaces 命名空间表超过上限
	ErrTooManyNamespaces = errors.New("too many namespaces")

	// ErrTooManyElements 元素数超过上限
	ErrTooManyElements = errors.New("too many elements")

	// ErrStringTooLong 字符串超过 uint16 长度前缀上限
	ErrStringTooLong = errors.New("string exceeds length prefix limit")

	// ErrInvalidString 字符串不是合法 UTF-8
	ErrInvalidString = errors.New("string is not valid UTF-8")

	// ErrPayloadTooLarge 负载超过格式上限或解码配置上限
	ErrPayloadTooLarge = errors.New("element payload too large")

	// ErrCyclicMessage 嵌套消息存在环
	ErrCyclicMessage = errors.New("cyclic nested message")

	// ErrMessageModified 序列化快照之后消息被修改（本地状态错误）
	ErrMessageModified = errors.New("message modified after serialization snapshot")

	// ErrTrailingData 消息之后存在多余字节
	ErrTrailingData = errors.New("trailing data after message")
)
