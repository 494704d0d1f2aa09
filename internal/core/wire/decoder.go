package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/dep2p/go-overlay/internal/core/message"
	"github.com/dep2p/go-overlay/pkg/types"
)

// ============================================================================
//                              解码选项
// ============================================================================

type decodeOptions struct {
	maxElementSize int64
	strictCount    bool
}

// DecodeOption 解码选项
type DecodeOption func(*decodeOptions)

// WithMaxElementSize 设置单个元素负载上限（默认 64 MiB，不超过格式上限）
func WithMaxElementSize(n int64) DecodeOption {
	return func(o *decodeOptions) {
		if n > 0 && n <= MaxPayloadSize {
			o.maxElementSize = n
		}
	}
}

// WithStrictCount 顶层消息严格按声明的元素数读取
//
// 声明数为 0 时不再"读到流末尾"，而是立即结束。用于消息之后还有其他数据
// （例如 CBJX 尾部）的场景。
func WithStrictCount() DecodeOption {
	return func(o *decodeOptions) {
		o.strictCount = true
	}
}

// ============================================================================
//                              解码入口
// ============================================================================

// Decode 从 r 解码一条消息
//
// 解码器不做预读：返回时 r 恰好停在消息最后一个字节之后。
func Decode(r io.Reader, opts ...DecodeOption) (*message.Message, error) {
	o := decodeOptions{maxElementSize: DefaultMaxElementSize}
	for _, opt := range opts {
		opt(&o)
	}
	d := &decoder{r: r, opts: o}
	return d.message(0, o.strictCount)
}

// DecodeBytes 从字节切片解码一条消息，消息之后不得有多余字节
func DecodeBytes(data []byte, opts ...DecodeOption) (*message.Message, error) {
	rd := bytes.NewReader(data)
	msg, err := Decode(rd, opts...)
	if err != nil {
		return nil, err
	}
	if rd.Len() != 0 {
		return nil, fmt.Errorf("%w: %w: %d bytes", ErrCorrupt, ErrTrailingData, rd.Len())
	}
	return msg, nil
}

// ============================================================================
//                              decoder
// ============================================================================

type decoder struct {
	r    io.Reader
	opts decodeOptions
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
}

// truncated 将中途 EOF 统一为 io.ErrUnexpectedEOF 并标记为格式错误
func truncated(err error, what string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated %s: %w", ErrCorrupt, what, io.ErrUnexpectedEOF)
	}
	return fmt.Errorf("read %s: %w", what, err)
}

func (d *decoder) message(depth int, strict bool) (*message.Message, error) {
	if depth > maxNestingDepth {
		return nil, corrupt("nesting deeper than %d", maxNestingDepth)
	}

	var magic [4]byte
	if _, err := io.ReadFull(d.r, magic[:]); err != nil {
		return nil, truncated(err, "message magic")
	}
	if magic != messageMagic {
		return nil, corrupt("bad message magic %q", magic[:])
	}

	version, err := d.readByte("version")
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, fmt.Errorf("%w: %w: %d", ErrCorrupt, ErrUnsupportedVersion, version)
	}

	nsCount, err := d.readUint16("namespace count")
	if err != nil {
		return nil, err
	}
	if nsCount > MaxExtraNamespaces {
		return nil, fmt.Errorf("%w: %w: %d", ErrCorrupt, ErrTooManyNamespaces, nsCount)
	}

	table := make([]string, 0, len(implicitNamespaces)+int(nsCount))
	table = append(table, implicitNamespaces...)
	for i := 0; i < int(nsCount); i++ {
		ns, err := d.readString("namespace")
		if err != nil {
			return nil, err
		}
		table = append(table, ns)
	}

	elCount, err := d.readUint16("element count")
	if err != nil {
		return nil, err
	}

	msg := message.New()
	for decoded := 0; elCount == 0 || decoded < int(elCount); decoded++ {
		if elCount == 0 && strict {
			break
		}
		if decoded == MaxElements {
			return nil, fmt.Errorf("%w: %w: more than %d", ErrCorrupt, ErrTooManyElements, MaxElements)
		}
		nsID, el, err := d.element(table, depth, true)
		if errors.Is(err, io.EOF) {
			if elCount == 0 {
				break
			}
			return nil, corrupt("element count mismatch: declared %d, decoded %d", elCount, decoded)
		}
		if err != nil {
			return nil, err
		}
		if err := msg.AddElement(table[nsID], el); err != nil {
			return nil, err
		}
	}
	return msg, nil
}

// element 解码一个元素
//
// atBoundary 为 true 时，读取魔数前恰好遇到 EOF 返回裸 io.EOF（正常结束信号）。
func (d *decoder) element(table []string, depth int, atBoundary bool) (byte, *message.Element, error) {
	var magic [4]byte
	n, err := io.ReadFull(d.r, magic[:])
	if err != nil {
		if atBoundary && n == 0 && errors.Is(err, io.EOF) {
			return 0, nil, io.EOF
		}
		return 0, nil, truncated(err, "element magic")
	}
	if magic != elementMagic {
		return 0, nil, corrupt("bad element magic %q", magic[:])
	}

	nsID, err := d.readByte("namespace id")
	if err != nil {
		return 0, nil, err
	}
	if int(nsID) >= len(table) {
		return 0, nil, corrupt("unknown namespace id %d", nsID)
	}

	flags, err := d.readByte("flags")
	if err != nil {
		return 0, nil, err
	}
	if flags&^knownFlags != 0 {
		return 0, nil, corrupt("unknown element flags %#x", flags)
	}
	if flags&flagHasEncoding != 0 {
		return 0, nil, corrupt("content encoding is not supported")
	}

	name, err := d.readString("element name")
	if err != nil {
		return 0, nil, err
	}
	if name == "" {
		return 0, nil, corrupt("empty element name")
	}

	mimeType := ""
	if flags&flagHasType != 0 {
		if mimeType, err = d.readString("element type"); err != nil {
			return 0, nil, err
		}
	}

	payload, err := d.payload(name)
	if err != nil {
		return 0, nil, err
	}

	var nested *message.Message
	if mimeType == types.MimeWireMessage {
		sub := &decoder{r: bytes.NewReader(payload), opts: d.opts}
		if nested, err = sub.message(depth+1, false); err != nil {
			return 0, nil, fmt.Errorf("nested element %q: %w", name, err)
		}
		if rest := sub.r.(*bytes.Reader).Len(); rest != 0 {
			return 0, nil, fmt.Errorf("nested element %q: %w: %w: %d bytes", name, ErrCorrupt, ErrTrailingData, rest)
		}
	}

	var sig *message.Element
	if flags&flagHasSignature != 0 {
		if depth+1 > maxNestingDepth {
			return 0, nil, corrupt("signature nesting deeper than %d", maxNestingDepth)
		}
		if _, sig, err = d.element(table, depth+1, false); err != nil {
			return 0, nil, fmt.Errorf("signature of %q: %w", name, err)
		}
	}

	var el *message.Element
	if nested != nil {
		el, err = message.NewMessageElement(name, nested, sig)
	} else {
		el, err = message.NewElement(name, mimeType, payload, sig)
	}
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return nsID, el, nil
}

func (d *decoder) payload(name string) ([]byte, error) {
	var length int32
	if err := binary.Read(d.r, binary.BigEndian, &length); err != nil {
		return nil, truncated(err, "payload length")
	}
	if length < 0 {
		return nil, corrupt("negative payload length %d for %q", length, name)
	}
	if int64(length) > d.opts.maxElementSize {
		return nil, fmt.Errorf("%w: %w: %q declares %d bytes", ErrCorrupt, ErrPayloadTooLarge, name, length)
	}
	if length == 0 {
		return nil, nil
	}

	// 按块增长读取，声明的长度不可信，避免一次性分配
	const chunk = 64 << 10
	if length <= chunk {
		buf := make([]byte, length)
		if _, err := io.ReadFull(d.r, buf); err != nil {
			return nil, truncated(err, "payload")
		}
		return buf, nil
	}
	var buf bytes.Buffer
	buf.Grow(chunk)
	if _, err := io.CopyN(&buf, d.r, int64(length)); err != nil {
		return nil, truncated(err, "payload")
	}
	return buf.Bytes(), nil
}

func (d *decoder) readByte(what string) (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(d.r, b[:]); err != nil {
		return 0, truncated(err, what)
	}
	return b[0], nil
}

func (d *decoder) readUint16(what string) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(d.r, b[:]); err != nil {
		return 0, truncated(err, what)
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

func (d *decoder) readString(what string) (string, error) {
	n, err := d.readUint16(what + " length")
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return "", truncated(err, what)
	}
	if !utf8.Valid(buf) {
		return "", fmt.Errorf("%w: %w: %s", ErrCorrupt, ErrInvalidString, what)
	}
	return string(buf), nil
}
