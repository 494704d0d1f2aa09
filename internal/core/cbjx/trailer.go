package cbjx

import (
	"encoding/binary"
	"fmt"
)

// Trailer 认证尾部
type Trailer struct {
	// Certificate 签名者证书 DER
	Certificate []byte

	// Source 声明的源标识（urn:jxta:<id> 或 jxtatls://<id>）
	Source string

	// Signature 签名，签名失败时为空
	Signature []byte
}

// Encode 编码尾部：三个字段各带 4 字节长度前缀
func (t *Trailer) Encode() []byte {
	out := make([]byte, 0, t.Len())
	out = appendField(out, t.Certificate)
	out = appendField(out, []byte(t.Source))
	return appendField(out, t.Signature)
}

// Len 编码后的字节数
func (t *Trailer) Len() int {
	return 12 + len(t.Certificate) + len(t.Source) + len(t.Signature)
}

// ParseTrailer 解析尾部；data 必须恰好是一个完整尾部
func ParseTrailer(data []byte) (*Trailer, error) {
	cert, rest, err := readField(data, "certificate")
	if err != nil {
		return nil, err
	}
	source, rest, err := readField(rest, "source")
	if err != nil {
		return nil, err
	}
	sig, rest, err := readField(rest, "signature")
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedTrailer, len(rest))
	}
	return &Trailer{Certificate: cert, Source: string(source), Signature: sig}, nil
}

func appendField(dst, field []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(field)))
	return append(dst, field...)
}

func readField(data []byte, what string) ([]byte, []byte, error) {
	if len(data) < 4 {
		return nil, nil, fmt.Errorf("%w: truncated %s length", ErrMalformedTrailer, what)
	}
	n := binary.BigEndian.Uint32(data)
	data = data[4:]
	if uint64(n) > uint64(len(data)) {
		return nil, nil, fmt.Errorf("%w: %s declares %d bytes, %d available", ErrMalformedTrailer, what, n, len(data))
	}
	return data[:n], data[n:], nil
}
