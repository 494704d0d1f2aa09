package wire

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-overlay/internal/core/message"
	"github.com/dep2p/go-overlay/pkg/types"
)

// ============================================================================
// 编解码往返
// ============================================================================

// TestRoundTrip_PayloadWithSignature 两个 jxta 元素：payload 带签名 sig
func TestRoundTrip_PayloadWithSignature(t *testing.T) {
	msg := message.New()
	sig := message.MustElement("sig", "", []byte("sig-bytes"), nil)
	require.NoError(t, msg.AddElement(message.NamespaceJXTA, message.MustElement("payload", "", []byte{0, 1, 2, 3}, sig)))

	data, err := EncodeToBytes(msg)
	require.NoError(t, err)

	decoded, err := DecodeBytes(data)
	require.NoError(t, err)

	payload := decoded.GetElement(message.NamespaceJXTA, "payload")
	require.NotNil(t, payload)
	assert.Equal(t, []byte{0, 1, 2, 3}, payload.Bytes())
	require.NotNil(t, payload.Signature())
	assert.Equal(t, "sig", payload.Signature().Name())
	assert.Equal(t, []byte("sig-bytes"), payload.Signature().Bytes())
}

func TestRoundTrip(t *testing.T) {
	t.Run("多命名空间与嵌套", func(t *testing.T) {
		msg := newSampleMessage(t)
		data, err := EncodeToBytes(msg)
		require.NoError(t, err)

		decoded, err := DecodeBytes(data)
		require.NoError(t, err)
		assert.True(t, msg.Equal(decoded))

		nested := decoded.GetElement("app", "nested")
		require.NotNil(t, nested)
		require.True(t, nested.IsNested())
		assert.Equal(t, "hello", nested.Message().GetElement("inner", "deep").Text())
		assert.Equal(t, types.MimeText, nested.Message().GetElement("inner", "deep").MimeType())
	})

	t.Run("签名元素本身带签名", func(t *testing.T) {
		sig2 := message.MustElement("sig2", "", []byte{2}, nil)
		sig1 := message.MustElement("sig1", "t/s", []byte{1}, sig2)
		msg := message.New()
		require.NoError(t, msg.AddElement("x", message.MustElement("data", "", []byte{0}, sig1)))

		data, err := EncodeToBytes(msg)
		require.NoError(t, err)
		decoded, err := DecodeBytes(data)
		require.NoError(t, err)

		got := decoded.GetElement("x", "data")
		require.NotNil(t, got)
		assert.Equal(t, "sig1", got.Signature().Name())
		assert.Equal(t, "t/s", got.Signature().MimeType())
		assert.Equal(t, "sig2", got.Signature().Signature().Name())
	})

	t.Run("显式 octet-stream 类型等价于默认类型", func(t *testing.T) {
		msg := message.New()
		require.NoError(t, msg.AddElement("", message.MustElement("a", types.MimeOctetStream, []byte{1}, nil)))
		data, err := EncodeToBytes(msg)
		require.NoError(t, err)
		// 标志位为 0：未写出类型
		assert.Equal(t, byte(0), data[14])

		decoded, err := DecodeBytes(data)
		require.NoError(t, err)
		assert.Equal(t, types.MimeOctetStream, decoded.GetElement("", "a").MimeType())
	})

	t.Run("重名元素保持顺序", func(t *testing.T) {
		msg := message.New()
		require.NoError(t, msg.AddElement("", message.MustElement("dup", "", []byte{1}, nil)))
		require.NoError(t, msg.AddElement("", message.MustElement("dup", "", []byte{2}, nil)))
		data, err := EncodeToBytes(msg)
		require.NoError(t, err)
		decoded, err := DecodeBytes(data)
		require.NoError(t, err)
		els := decoded.ElementsIn("")
		require.Len(t, els, 2)
		assert.Equal(t, []byte{1}, els[0].Bytes())
		assert.Equal(t, []byte{2}, els[1].Bytes())
	})

	t.Run("大负载分块读取", func(t *testing.T) {
		big := bytes.Repeat([]byte{0xAB}, 300<<10)
		msg := message.New()
		require.NoError(t, msg.AddElement("", message.MustElement("big", "", big, nil)))
		data, err := EncodeToBytes(msg)
		require.NoError(t, err)
		decoded, err := DecodeBytes(data)
		require.NoError(t, err)
		assert.Equal(t, big, decoded.GetElement("", "big").Bytes())
	})
}

// TestDecode_StopsAtMessageEnd 解码器恰好消费一条消息
func TestDecode_StopsAtMessageEnd(t *testing.T) {
	data, err := EncodeToBytes(newSampleMessage(t))
	require.NoError(t, err)

	rd := bytes.NewReader(append(append([]byte{}, data...), "tail"...))
	_, err = Decode(rd)
	require.NoError(t, err)

	rest, err := io.ReadAll(rd)
	require.NoError(t, err)
	assert.Equal(t, []byte("tail"), rest)

	_, err = DecodeBytes(append(append([]byte{}, data...), 0))
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.ErrorIs(t, err, ErrTrailingData)
}

// ============================================================================
// 元素数为 0 的消息
// ============================================================================

// unboundedMessage 手工构造声明元素数为 0 的消息
func unboundedMessage(t *testing.T, names ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write([]byte{'j', 'x', 'm', 'g', 0, 0, 0, 0, 0})
	for _, n := range names {
		msg := message.New()
		require.NoError(t, msg.AddElement("", message.MustElement(n, "", []byte(n), nil)))
		data, err := EncodeToBytes(msg)
		require.NoError(t, err)
		// 跳过 9 字节消息头
		buf.Write(data[9:])
	}
	return buf.Bytes()
}

func TestDecode_ZeroCount(t *testing.T) {
	t.Run("读到流末尾", func(t *testing.T) {
		decoded, err := DecodeBytes(unboundedMessage(t, "a", "b", "c"))
		require.NoError(t, err)
		require.Equal(t, 3, decoded.Len())
		assert.Equal(t, "c", decoded.GetElement("", "c").Text())
	})

	t.Run("元素中途截断", func(t *testing.T) {
		data := unboundedMessage(t, "a", "b")
		_, err := DecodeBytes(data[:len(data)-1])
		assert.ErrorIs(t, err, ErrCorrupt)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("严格计数不读取后续元素", func(t *testing.T) {
		data := unboundedMessage(t, "a")
		rd := bytes.NewReader(data)
		decoded, err := Decode(rd, WithStrictCount())
		require.NoError(t, err)
		assert.Zero(t, decoded.Len())
		assert.Equal(t, len(data)-9, rd.Len())
	})
}

func TestDecode_CountMismatch(t *testing.T) {
	msg := message.New()
	require.NoError(t, msg.AddElement("", message.MustElement("a", "", nil, nil)))
	require.NoError(t, msg.AddElement("", message.MustElement("b", "", nil, nil)))
	data, err := EncodeToBytes(msg)
	require.NoError(t, err)

	// 声明 3 个元素，只有 2 个
	binary.BigEndian.PutUint16(data[7:9], 3)
	_, err = DecodeBytes(data)
	assert.ErrorIs(t, err, ErrCorrupt)
}

// ============================================================================
// 损坏输入
// ============================================================================

func TestDecode_Corrupt(t *testing.T) {
	valid := func() []byte {
		msg := message.New()
		require.NoError(t, msg.AddElement("", message.MustElement("a", "", []byte("x"), nil)))
		data, err := EncodeToBytes(msg)
		require.NoError(t, err)
		return data
	}

	tests := []struct {
		name   string
		mutate func([]byte) []byte
		target error
	}{
		{"消息魔数错误", func(b []byte) []byte { b[0] = 'X'; return b }, ErrCorrupt},
		{"版本不支持", func(b []byte) []byte { b[4] = 1; return b }, ErrUnsupportedVersion},
		{"元素魔数错误", func(b []byte) []byte { b[12] = 'X'; return b }, ErrCorrupt},
		{"未知命名空间 id", func(b []byte) []byte { b[13] = 2; return b }, ErrCorrupt},
		{"未知标志位", func(b []byte) []byte { b[14] = 0x80; return b }, ErrCorrupt},
		{"内容编码标志", func(b []byte) []byte { b[14] = flagHasEncoding; return b }, ErrCorrupt},
		{"空元素名", func(b []byte) []byte {
			// 名称长度改为 0，并去掉名称字节
			out := append([]byte{}, b[:15]...)
			out = append(out, 0, 0)
			return append(out, b[18:]...)
		}, ErrCorrupt},
		{"负长度", func(b []byte) []byte {
			binary.BigEndian.PutUint32(b[18:22], 0x80000000)
			return b
		}, ErrCorrupt},
		{"非法 UTF-8 名称", func(b []byte) []byte { b[17] = 0xff; return b }, ErrInvalidString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBytes(tt.mutate(valid()))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCorrupt)
			assert.ErrorIs(t, err, tt.target)
		})
	}

	t.Run("命名空间数超过上限", func(t *testing.T) {
		data := []byte{'j', 'x', 'm', 'g', 0, 0x00, 0xFE}
		_, err := DecodeBytes(data)
		assert.ErrorIs(t, err, ErrCorrupt)
		assert.ErrorIs(t, err, ErrTooManyNamespaces)
	})
}

// TestDecode_Truncated 任意前缀截断都是格式错误
func TestDecode_Truncated(t *testing.T) {
	data, err := EncodeToBytes(newSampleMessage(t))
	require.NoError(t, err)

	for i := 0; i < len(data); i++ {
		_, err := DecodeBytes(data[:i])
		require.Error(t, err, "prefix %d", i)
		assert.ErrorIs(t, err, ErrCorrupt, "prefix %d", i)
	}
}

func TestDecode_MaxElementSize(t *testing.T) {
	msg := message.New()
	require.NoError(t, msg.AddElement("", message.MustElement("a", "", make([]byte, 1024), nil)))
	data, err := EncodeToBytes(msg)
	require.NoError(t, err)

	_, err = DecodeBytes(data, WithMaxElementSize(1023))
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)

	_, err = DecodeBytes(data, WithMaxElementSize(1024))
	assert.NoError(t, err)

	t.Run("声明长度远超实际数据", func(t *testing.T) {
		short := append([]byte{}, data[:22]...)
		binary.BigEndian.PutUint32(short[18:22], 32<<20)
		_, err := DecodeBytes(short)
		assert.ErrorIs(t, err, ErrCorrupt)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})
}

// rawNestedElement 编码一条只含元素 n 的消息，n 的类型为线格式类型、负载为任意原始字节
//
// 元素构造拒绝这种组合，这里先用等长的占位类型编码再改写类型字符串。
func rawNestedElement(t *testing.T, payload []byte) []byte {
	t.Helper()
	placeholder := types.MimeWireMessage[:len(types.MimeWireMessage)-1] + "_"

	msg := message.New()
	require.NoError(t, msg.AddElement("", message.MustElement("n", placeholder, payload, nil)))
	data, err := EncodeToBytes(msg)
	require.NoError(t, err)

	require.Equal(t, 1, bytes.Count(data, []byte(placeholder)))
	return bytes.Replace(data, []byte(placeholder), []byte(types.MimeWireMessage), 1)
}

func TestDecode_Nested(t *testing.T) {
	t.Run("嵌套负载必须恰好是一条消息", func(t *testing.T) {
		inner, err := EncodeToBytes(newSampleMessage(t))
		require.NoError(t, err)

		padded := append(append([]byte{}, inner...), 0xEE)
		data := rawNestedElement(t, padded)

		_, err = DecodeBytes(data)
		assert.ErrorIs(t, err, ErrCorrupt)
		assert.ErrorIs(t, err, ErrTrailingData)
	})

	t.Run("原始字节按消息类型解码为嵌套消息", func(t *testing.T) {
		inner := newSampleMessage(t)
		raw, err := EncodeToBytes(inner)
		require.NoError(t, err)

		decoded, err := DecodeBytes(rawNestedElement(t, raw))
		require.NoError(t, err)
		el := decoded.GetElement("", "n")
		require.True(t, el.IsNested())
		assert.True(t, inner.Equal(el.Message()))
	})

	t.Run("原始垃圾负载为格式错误", func(t *testing.T) {
		_, err := DecodeBytes(rawNestedElement(t, []byte{1, 2, 3}))
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("嵌套过深", func(t *testing.T) {
		msg := message.New()
		for i := 0; i <= maxNestingDepth; i++ {
			outer := message.New()
			el, err := message.NewMessageElement("n", msg, nil)
			require.NoError(t, err)
			require.NoError(t, outer.AddElement("", el))
			msg = outer
		}
		_, err := Encode(msg)
		assert.ErrorIs(t, err, ErrCyclicMessage)
	})
}
