package wire

import "github.com/dep2p/go-overlay/internal/core/message"

// 线格式常量
const (
	// Version 支持的格式版本
	Version byte = 0

	// MaxExtraNamespaces 隐式命名空间之外的最大命名空间数
	MaxExtraNamespaces = 253

	// MaxElements 单条消息最大元素数（uint16）
	MaxElements = 0xFFFF

	// MaxStringLen 长度前缀字符串的最大字节数（uint16）
	MaxStringLen = 0xFFFF

	// MaxPayloadSize 单个元素负载上限（非负 int32）
	MaxPayloadSize = message.MaxPayloadSize

	// DefaultMaxElementSize 解码时默认允许的单个元素负载上限
	DefaultMaxElementSize = 64 << 20

	// maxNestingDepth 嵌套消息与签名元素的最大递归深度
	maxNestingDepth = 32
)

var (
	messageMagic = [4]byte{'j', 'x', 'm', 'g'}
	elementMagic = [4]byte{'j', 'x', 'e', 'l'}
)

// 元素标志位
const (
	flagHasType      byte = 1 << 0
	flagHasEncoding  byte = 1 << 1
	flagHasSignature byte = 1 << 2

	knownFlags = flagHasType | flagHasEncoding | flagHasSignature
)

// implicitNamespaces 隐式命名空间，按 id 排列
var implicitNamespaces = []string{message.NamespaceDefault, message.NamespaceJXTA}
