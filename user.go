package zbytes

import (
	"fmt"
)

// Marshaler is implemented by user-defined types that convert themselves
// to Bytes. It must be implemented on the value receiver.
type Marshaler interface {
	MarshalZBytes() (Bytes, error)
}

// Unmarshaler is implemented by pointers to user-defined types that can
// rebuild themselves from Bytes produced by their Marshaler.
type Unmarshaler interface {
	UnmarshalZBytes(Bytes) error
}

// UnmarshalerPtr constrains PT to be *T and to implement Unmarshaler.
type UnmarshalerPtr[T any] interface {
	*T
	Unmarshaler
}

type userCodec[T Marshaler, PT UnmarshalerPtr[T]] struct {
	typ Type
}

// User returns the codec of a user-defined type, described as
// NamedType(id). Both conversions are resolved at compile time:
//
//	type Foo struct{ Name string }
//
//	func (f Foo) MarshalZBytes() (zbytes.Bytes, error) { ... }
//	func (f *Foo) UnmarshalZBytes(b zbytes.Bytes) error { ... }
//
//	var FooCodec = zbytes.User[Foo]("example.Foo")
//
// The codec does not interpret the Bytes a Marshaler returns. In a
// composite, they are framed like any other element.
func User[T Marshaler, PT UnmarshalerPtr[T]](id string) Codec[T] {
	return userCodec[T, PT]{typ: NamedType(id)}
}

func (c userCodec[T, PT]) Type() Type {
	return c.typ
}

func (c userCodec[T, PT]) AppendBytes(dst []byte, v T) ([]byte, error) {
	b, err := v.MarshalZBytes()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.typ, err)
	}
	return b.AppendTo(dst), nil
}

func (c userCodec[T, PT]) Decode(b Bytes, _ *Registry) (T, error) {
	var v T
	if err := PT(&v).UnmarshalZBytes(b); err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", c.typ, err)
	}
	return v, nil
}

type funcCodec[T any] struct {
	typ Type
	enc func(T) (Bytes, error)
	dec func(Bytes) (T, error)
}

// Func builds a codec for T from an explicit pair of conversions. A nil
// enc or dec makes the corresponding direction fail with
// ErrUnsupportedType.
func Func[T any](t Type, enc func(T) (Bytes, error), dec func(Bytes) (T, error)) Codec[T] {
	return funcCodec[T]{typ: t, enc: enc, dec: dec}
}

func (c funcCodec[T]) Type() Type {
	return c.typ
}

func (c funcCodec[T]) AppendBytes(dst []byte, v T) ([]byte, error) {
	if c.enc == nil {
		return nil, fmt.Errorf("%w: %s has no conversion to bytes", ErrUnsupportedType, c.typ)
	}
	b, err := c.enc(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.typ, err)
	}
	return b.AppendTo(dst), nil
}

func (c funcCodec[T]) Decode(b Bytes, _ *Registry) (v T, err error) {
	if c.dec == nil {
		err = fmt.Errorf("%w: %s has no conversion from bytes", ErrUnsupportedType, c.typ)
		return
	}
	if v, err = c.dec(b); err != nil {
		err = fmt.Errorf("%s: %w", c.typ, err)
	}
	return
}
