package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"unicode/utf8"

	"github.com/dep2p/go-overlay/internal/core/message"
)

// ============================================================================
//                              Serialized
// ============================================================================

// Serialized 一次编码的结果
//
// 三种视图（WriteTo、Buffers、Len）共享同一份序列化结果。每次取用视图时都会
// 核对编码时记录的修改计数（含嵌套消息）；消息在快照之后被修改则返回
// ErrMessageModified，不写出任何字节。
type Serialized struct {
	parts     [][]byte
	size      int64
	snapshots []snapshot
}

type snapshot struct {
	msg      *message.Message
	modCount uint64
}

// Encode 编码消息
//
// 负载字节按引用放入结果，不复制；元素不可变保证了这样做的安全性。
func Encode(msg *message.Message) (*Serialized, error) {
	e := &encoder{visiting: make(map[*message.Message]struct{})}
	parts, size, err := e.message(msg, 0)
	if err != nil {
		return nil, err
	}
	return &Serialized{parts: parts, size: size, snapshots: e.snapshots}, nil
}

// EncodeToBytes 编码消息并返回连续字节
func EncodeToBytes(msg *message.Message) ([]byte, error) {
	s, err := Encode(msg)
	if err != nil {
		return nil, err
	}
	return s.Bytes()
}

// check 核对快照是否仍然有效
func (s *Serialized) check() error {
	for _, snap := range s.snapshots {
		if snap.msg.ModCount() != snap.modCount {
			return ErrMessageModified
		}
	}
	return nil
}

// Len 返回序列化总字节数
func (s *Serialized) Len() (int64, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	return s.size, nil
}

// Buffers 返回零拷贝字节区间
//
// 返回值是区间列表的新副本，可直接交给 net.Buffers.WriteTo 消费。
func (s *Serialized) Buffers() (net.Buffers, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	out := make(net.Buffers, len(s.parts))
	copy(out, s.parts)
	return out, nil
}

// WriteTo 将序列化结果写入 w
func (s *Serialized) WriteTo(w io.Writer) (int64, error) {
	bufs, err := s.Buffers()
	if err != nil {
		return 0, err
	}
	return bufs.WriteTo(w)
}

// Bytes 返回连续字节副本
func (s *Serialized) Bytes() ([]byte, error) {
	bufs, err := s.Buffers()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, s.size)
	for _, b := range bufs {
		out = append(out, b...)
	}
	return out, nil
}

// ============================================================================
//                              encoder
// ============================================================================

type encoder struct {
	snapshots []snapshot
	visiting  map[*message.Message]struct{}
}

func (e *encoder) message(msg *message.Message, depth int) ([][]byte, int64, error) {
	if depth > maxNestingDepth {
		return nil, 0, ErrCyclicMessage
	}
	if _, ok := e.visiting[msg]; ok {
		return nil, 0, ErrCyclicMessage
	}
	e.visiting[msg] = struct{}{}
	defer delete(e.visiting, msg)

	elements, modCount := msg.Snapshot()
	e.snapshots = append(e.snapshots, snapshot{msg: msg, modCount: modCount})

	if len(elements) > MaxElements {
		return nil, 0, fmt.Errorf("%w: %d", ErrTooManyElements, len(elements))
	}

	ids := make(map[string]byte, len(implicitNamespaces))
	for i, ns := range implicitNamespaces {
		ids[ns] = byte(i)
	}
	var extra []string
	for _, ne := range elements {
		if _, ok := ids[ne.Namespace]; ok {
			continue
		}
		if len(extra) == MaxExtraNamespaces {
			return nil, 0, fmt.Errorf("%w: more than %d", ErrTooManyNamespaces, MaxExtraNamespaces)
		}
		ids[ne.Namespace] = byte(len(implicitNamespaces) + len(extra))
		extra = append(extra, ne.Namespace)
	}

	var hdr bytes.Buffer
	hdr.Write(messageMagic[:])
	hdr.WriteByte(Version)
	writeUint16(&hdr, uint16(len(extra)))
	for _, ns := range extra {
		if err := writeString(&hdr, ns); err != nil {
			return nil, 0, fmt.Errorf("namespace %q: %w", ns, err)
		}
	}
	writeUint16(&hdr, uint16(len(elements)))

	parts := [][]byte{hdr.Bytes()}
	size := int64(hdr.Len())
	for _, ne := range elements {
		elParts, elSize, err := e.element(ne.Element, ids[ne.Namespace], depth)
		if err != nil {
			return nil, 0, err
		}
		parts = append(parts, elParts...)
		size += elSize
	}
	return parts, size, nil
}

func (e *encoder) element(el *message.Element, nsID byte, depth int) ([][]byte, int64, error) {
	var flags byte
	if el.HasExplicitType() {
		flags |= flagHasType
	}
	if el.Signature() != nil {
		flags |= flagHasSignature
	}

	var (
		payload    [][]byte
		payloadLen int64
	)
	if el.IsNested() {
		var err error
		payload, payloadLen, err = e.message(el.Message(), depth+1)
		if err != nil {
			return nil, 0, fmt.Errorf("element %q: %w", el.Name(), err)
		}
	} else if data := el.Bytes(); len(data) > 0 {
		payload = [][]byte{data}
		payloadLen = int64(len(data))
	}
	if payloadLen > MaxPayloadSize {
		return nil, 0, fmt.Errorf("element %q: %w: %d bytes", el.Name(), ErrPayloadTooLarge, payloadLen)
	}

	var hdr bytes.Buffer
	hdr.Write(elementMagic[:])
	hdr.WriteByte(nsID)
	hdr.WriteByte(flags)
	if err := writeString(&hdr, el.Name()); err != nil {
		return nil, 0, fmt.Errorf("element name: %w", err)
	}
	if flags&flagHasType != 0 {
		if err := writeString(&hdr, el.MimeType()); err != nil {
			return nil, 0, fmt.Errorf("element %q type: %w", el.Name(), err)
		}
	}
	_ = binary.Write(&hdr, binary.BigEndian, int32(payloadLen))

	parts := append([][]byte{hdr.Bytes()}, payload...)
	size := int64(hdr.Len()) + payloadLen

	if sig := el.Signature(); sig != nil {
		if depth+1 > maxNestingDepth {
			return nil, 0, ErrCyclicMessage
		}
		sigParts, sigSize, err := e.element(sig, nsID, depth+1)
		if err != nil {
			return nil, 0, fmt.Errorf("element %q signature: %w", el.Name(), err)
		}
		parts = append(parts, sigParts...)
		size += sigSize
	}
	return parts, size, nil
}

// ============================================================================
//                              编码辅助
// ============================================================================

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > MaxStringLen {
		return fmt.Errorf("%w: %d bytes", ErrStringTooLong, len(s))
	}
	if !utf8.ValidString(s) {
		return ErrInvalidString
	}
	writeUint16(buf, uint16(len(s)))
	buf.WriteString(s)
	return nil
}
