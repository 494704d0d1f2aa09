package wire

import "io"

// CountingReader 记录已读取字节数的 io.Reader
//
// 与 Decode 配合使用：Decode 不做预读，解码返回后 Count 即消息的线格式长度。
type CountingReader struct {
	r io.Reader
	n int64
}

// NewCountingReader 包装 r
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{r: r}
}

// Read 实现 io.Reader
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Count 返回已读取的字节数
func (c *CountingReader) Count() int64 {
	return c.n
}
