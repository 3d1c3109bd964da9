package zbytes

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// Built-in codecs for primitive types.
//
// Numbers are fixed-width little-endian: two's complement for integers,
// IEEE-754 for floats, no padding. A bool is a single 0 or 1 byte. A
// string is its bare UTF-8 bytes and must be valid UTF-8 both ways. Raw
// and Buffer pass bytes through unchanged.
var (
	Bool Codec[bool] = boolCodec{}

	Int8 Codec[int8] = fixedCodec[int8]{
		kind: KindInt8,
		put:  func(dst []byte, v int8) []byte { return append(dst, byte(v)) },
		get:  func(s string) int8 { return int8(s[0]) },
	}
	Int16 Codec[int16] = fixedCodec[int16]{
		kind: KindInt16,
		put:  func(dst []byte, v int16) []byte { return binary.LittleEndian.AppendUint16(dst, uint16(v)) },
		get:  func(s string) int16 { return int16(le16(s)) },
	}
	Int32 Codec[int32] = fixedCodec[int32]{
		kind: KindInt32,
		put:  func(dst []byte, v int32) []byte { return binary.LittleEndian.AppendUint32(dst, uint32(v)) },
		get:  func(s string) int32 { return int32(le32(s)) },
	}
	Int64 Codec[int64] = fixedCodec[int64]{
		kind: KindInt64,
		put:  func(dst []byte, v int64) []byte { return binary.LittleEndian.AppendUint64(dst, uint64(v)) },
		get:  func(s string) int64 { return int64(le64(s)) },
	}

	Uint8 Codec[uint8] = fixedCodec[uint8]{
		kind: KindUint8,
		put:  func(dst []byte, v uint8) []byte { return append(dst, v) },
		get:  func(s string) uint8 { return s[0] },
	}
	Uint16 Codec[uint16] = fixedCodec[uint16]{
		kind: KindUint16,
		put:  binary.LittleEndian.AppendUint16,
		get:  le16,
	}
	Uint32 Codec[uint32] = fixedCodec[uint32]{
		kind: KindUint32,
		put:  binary.LittleEndian.AppendUint32,
		get:  le32,
	}
	Uint64 Codec[uint64] = fixedCodec[uint64]{
		kind: KindUint64,
		put:  binary.LittleEndian.AppendUint64,
		get:  le64,
	}

	Float32 Codec[float32] = fixedCodec[float32]{
		kind: KindFloat32,
		put: func(dst []byte, v float32) []byte {
			return binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
		},
		get: func(s string) float32 { return math.Float32frombits(le32(s)) },
	}
	Float64 Codec[float64] = fixedCodec[float64]{
		kind: KindFloat64,
		put: func(dst []byte, v float64) []byte {
			return binary.LittleEndian.AppendUint64(dst, math.Float64bits(v))
		},
		get: func(s string) float64 { return math.Float64frombits(le64(s)) },
	}

	String Codec[string] = stringCodec{}
	Raw    Codec[[]byte] = rawCodec{}
	Buffer Codec[Bytes]  = bufferCodec{}
)

type fixedCodec[T any] struct {
	kind Kind
	put  func([]byte, T) []byte
	get  func(string) T
}

func (c fixedCodec[T]) Type() Type {
	return PrimitiveType(c.kind)
}

func (c fixedCodec[T]) AppendBytes(dst []byte, v T) ([]byte, error) {
	return c.put(dst, v), nil
}

func (c fixedCodec[T]) Decode(b Bytes, _ *Registry) (v T, err error) {
	if err = checkWidth(c.kind, b); err != nil {
		return
	}
	return c.get(b.data), nil
}

func checkWidth(k Kind, b Bytes) error {
	if want := k.width(); b.Len() != want {
		return fmt.Errorf("%w: %s needs exactly %d bytes, got %d", ErrMalformedPayload, k, want, b.Len())
	}
	return nil
}

type boolCodec struct{}

func (boolCodec) Type() Type {
	return PrimitiveType(KindBool)
}

func (boolCodec) AppendBytes(dst []byte, v bool) ([]byte, error) {
	if v {
		return append(dst, 1), nil
	}
	return append(dst, 0), nil
}

func (boolCodec) Decode(b Bytes, _ *Registry) (bool, error) {
	if err := checkWidth(KindBool, b); err != nil {
		return false, err
	}
	switch b.data[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, fmt.Errorf("%w: bool byte must be 0 or 1, got %#x", ErrMalformedPayload, b.data[0])
}

type stringCodec struct{}

func (stringCodec) Type() Type {
	return PrimitiveType(KindString)
}

func (stringCodec) AppendBytes(dst []byte, v string) ([]byte, error) {
	if !utf8.ValidString(v) {
		return nil, fmt.Errorf("%w: string is not valid UTF-8", ErrMalformedPayload)
	}
	return append(dst, v...), nil
}

func (stringCodec) Decode(b Bytes, _ *Registry) (string, error) {
	if !utf8.ValidString(b.data) {
		return "", fmt.Errorf("%w: string is not valid UTF-8", ErrMalformedPayload)
	}
	return strings.Clone(b.data), nil
}

type rawCodec struct{}

func (rawCodec) Type() Type {
	return PrimitiveType(KindBytes)
}

func (rawCodec) AppendBytes(dst []byte, v []byte) ([]byte, error) {
	return append(dst, v...), nil
}

func (rawCodec) Decode(b Bytes, _ *Registry) ([]byte, error) {
	return b.ToSlice(), nil
}

type bufferCodec struct{}

func (bufferCodec) Type() Type {
	return PrimitiveType(KindBytes)
}

func (bufferCodec) AppendBytes(dst []byte, v Bytes) ([]byte, error) {
	return v.AppendTo(dst), nil
}

func (bufferCodec) Decode(b Bytes, _ *Registry) (Bytes, error) {
	return Bytes{data: strings.Clone(b.data)}, nil
}

func le16(s string) uint16 {
	_ = s[1]
	return uint16(s[0]) | uint16(s[1])<<8
}

func le32(s string) uint32 {
	_ = s[3]
	return uint32(s[0]) | uint32(s[1])<<8 | uint32(s[2])<<16 | uint32(s[3])<<24
}

func le64(s string) uint64 {
	_ = s[7]
	return uint64(le32(s)) | uint64(le32(s[4:]))<<32
}
