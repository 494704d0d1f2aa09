package types

// 元素 MIME 类型
const (
	// MimeOctetStream 未声明类型时的默认类型
	MimeOctetStream = "application/octet-stream"

	// MimeText UTF-8 文本
	MimeText = "text/plain;charset=UTF-8"

	// MimeWireMessage 二进制线格式自身的类型；该类型的元素负载是一条嵌套消息
	MimeWireMessage = "application/x-jxta-msg"

	// MimeSignedEnvelope 带 CBJX 尾部的已签名信封
	MimeSignedEnvelope = "application/x-jxta-cbjx"
)
