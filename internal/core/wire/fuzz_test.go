package wire

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-overlay/internal/core/message"
)

// FuzzDecode 解码任意输入不得 panic；解码成功的消息再编码后必须能原样解码
func FuzzDecode(f *testing.F) {
	sample := message.New()
	sig := message.MustElement("sig", "", []byte("s"), nil)
	_ = sample.AddElement(message.NamespaceJXTA, message.MustElement("payload", "", []byte{0, 1, 2, 3}, sig))
	_ = sample.AddElement("app", message.MustElement("text", "text/plain", []byte("hi"), nil))
	seed, _ := EncodeToBytes(sample)

	f.Add(seed)
	f.Add([]byte{'j', 'x', 'm', 'g', 0, 0, 0, 0, 0})
	f.Add([]byte("jxmg"))
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		msg, err := DecodeBytes(data)
		if err != nil {
			return
		}
		again, err := EncodeToBytes(msg)
		require.NoError(t, err)

		decoded, err := DecodeBytes(again)
		require.NoError(t, err)
		require.True(t, msg.Equal(decoded))
	})
}
