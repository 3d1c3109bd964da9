package zbytes

import (
	"bytes"
	"fmt"
	"slices"
)

type dynamicCodec struct {
	typ Type
}

// Dynamic returns a codec driven by the descriptor t instead of a Go type.
// Values are represented as:
//
//	bool, int8 ... uint64, float32, float64, string  primitives
//	[]byte                                           bytes (Bytes accepted on encode)
//	[]any                                            list
//	[]Pair[any, any]                                 map, in wire order
//	Pair[any, any], Triple[any, any, any]            pair, triple
//	Marshaler                                        named, encode only
//
// Maps are also accepted on encode as map[string]any or map[any]any, in
// which case entries are ordered like [Map] does. A Named type can only be
// decoded through a registry entry.
func Dynamic(t Type) Codec[any] {
	return dynamicCodec{typ: t}
}

// EncodeAny serializes v as the type t describes.
func EncodeAny(t Type, v any) (Bytes, error) {
	return Serialize(Dynamic(t), v)
}

// DecodeAny deserializes b as the type t describes.
func DecodeAny(t Type, b Bytes, opts ...DecodeOption) (any, error) {
	return Deserialize(Dynamic(t), b, opts...)
}

func (c dynamicCodec) Type() Type {
	return c.typ
}

func (c dynamicCodec) mismatch(v any) error {
	return fmt.Errorf("%w: %s cannot encode a Go %T", ErrUnsupportedType, c.typ, v)
}

func appendAs[T any](dst []byte, codec Codec[T], v any, onMismatch func(any) error) ([]byte, error) {
	typed, ok := v.(T)
	if !ok {
		return nil, onMismatch(v)
	}
	return codec.AppendBytes(dst, typed)
}

func decodeAs[T any](codec Codec[T], b Bytes, reg *Registry) (any, error) {
	v, err := codec.Decode(b, reg)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (c dynamicCodec) AppendBytes(dst []byte, v any) ([]byte, error) {
	switch c.typ.kind {
	case KindBool:
		return appendAs(dst, Bool, v, c.mismatch)
	case KindInt8:
		return appendAs(dst, Int8, v, c.mismatch)
	case KindInt16:
		return appendAs(dst, Int16, v, c.mismatch)
	case KindInt32:
		return appendAs(dst, Int32, v, c.mismatch)
	case KindInt64:
		return appendAs(dst, Int64, v, c.mismatch)
	case KindUint8:
		return appendAs(dst, Uint8, v, c.mismatch)
	case KindUint16:
		return appendAs(dst, Uint16, v, c.mismatch)
	case KindUint32:
		return appendAs(dst, Uint32, v, c.mismatch)
	case KindUint64:
		return appendAs(dst, Uint64, v, c.mismatch)
	case KindFloat32:
		return appendAs(dst, Float32, v, c.mismatch)
	case KindFloat64:
		return appendAs(dst, Float64, v, c.mismatch)
	case KindString:
		return appendAs(dst, String, v, c.mismatch)
	case KindBytes:
		if buf, ok := v.(Bytes); ok {
			return buf.AppendTo(dst), nil
		}
		return appendAs(dst, Raw, v, c.mismatch)
	case KindList:
		return c.appendList(dst, v)
	case KindMap:
		return c.appendMap(dst, v)
	case KindPair:
		p, ok := v.(Pair[any, any])
		if !ok {
			return nil, c.mismatch(v)
		}
		return PairOf(Dynamic(c.typ.args[0]), Dynamic(c.typ.args[1])).AppendBytes(dst, p)
	case KindTriple:
		t, ok := v.(Triple[any, any, any])
		if !ok {
			return nil, c.mismatch(v)
		}
		codec := TripleOf(Dynamic(c.typ.args[0]), Dynamic(c.typ.args[1]), Dynamic(c.typ.args[2]))
		return codec.AppendBytes(dst, t)
	case KindNamed:
		m, ok := v.(Marshaler)
		if !ok {
			return nil, fmt.Errorf("%w: %s needs a Marshaler, got a Go %T", ErrUnsupportedType, c.typ, v)
		}
		b, err := m.MarshalZBytes()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.typ, err)
		}
		return b.AppendTo(dst), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, c.typ)
}

func (c dynamicCodec) appendList(dst []byte, v any) ([]byte, error) {
	values, ok := v.([]any)
	if !ok {
		return nil, c.mismatch(v)
	}
	return List(Dynamic(c.typ.args[0])).AppendBytes(dst, values)
}

func (c dynamicCodec) appendMap(dst []byte, v any) ([]byte, error) {
	keyCodec := Dynamic(c.typ.args[0])
	valueCodec := Dynamic(c.typ.args[1])

	var entries []Pair[any, any]
	switch m := v.(type) {
	case []Pair[any, any]:
		return Entries(keyCodec, valueCodec).AppendBytes(dst, m)
	case map[string]any:
		entries = make([]Pair[any, any], 0, len(m))
		for k, v := range m {
			entries = append(entries, NewPair[any, any](k, v))
		}
	case map[any]any:
		entries = make([]Pair[any, any], 0, len(m))
		for k, v := range m {
			entries = append(entries, NewPair(k, v))
		}
	default:
		return nil, c.mismatch(v)
	}

	type encoded struct {
		key   []byte
		value any
	}
	sorted := make([]encoded, 0, len(entries))
	for _, e := range entries {
		key, err := keyCodec.AppendBytes(nil, e.First)
		if err != nil {
			return nil, fmt.Errorf("map key: %w", err)
		}
		sorted = append(sorted, encoded{key: key, value: e.Second})
	}
	slices.SortFunc(sorted, func(a, b encoded) int {
		return bytes.Compare(a.key, b.key)
	})

	var err error
	for _, e := range sorted {
		if dst, err = appendRawFrame(dst, e.key); err != nil {
			return nil, fmt.Errorf("map key: %w", err)
		}
		if dst, err = appendFrame(dst, valueCodec, e.value); err != nil {
			return nil, fmt.Errorf("map value: %w", err)
		}
	}
	return dst, nil
}

func (c dynamicCodec) Decode(b Bytes, reg *Registry) (any, error) {
	switch c.typ.kind {
	case KindBool:
		return decodeAs(Bool, b, reg)
	case KindInt8:
		return decodeAs(Int8, b, reg)
	case KindInt16:
		return decodeAs(Int16, b, reg)
	case KindInt32:
		return decodeAs(Int32, b, reg)
	case KindInt64:
		return decodeAs(Int64, b, reg)
	case KindUint8:
		return decodeAs(Uint8, b, reg)
	case KindUint16:
		return decodeAs(Uint16, b, reg)
	case KindUint32:
		return decodeAs(Uint32, b, reg)
	case KindUint64:
		return decodeAs(Uint64, b, reg)
	case KindFloat32:
		return decodeAs(Float32, b, reg)
	case KindFloat64:
		return decodeAs(Float64, b, reg)
	case KindString:
		return decodeAs(String, b, reg)
	case KindBytes:
		return decodeAs(Raw, b, reg)
	case KindList:
		return decodeAs(List(Dynamic(c.typ.args[0])), b, reg)
	case KindMap:
		// Entries keep wire order, and non-comparable keys such as []byte
		// stay representable.
		return decodeAs(Entries(Dynamic(c.typ.args[0]), Dynamic(c.typ.args[1])), b, reg)
	case KindPair:
		return decodeAs(PairOf(Dynamic(c.typ.args[0]), Dynamic(c.typ.args[1])), b, reg)
	case KindTriple:
		codec := TripleOf(Dynamic(c.typ.args[0]), Dynamic(c.typ.args[1]), Dynamic(c.typ.args[2]))
		return decodeAs(codec, b, reg)
	case KindNamed:
		return nil, fmt.Errorf("%w: no decoder registered for %s", ErrUnsupportedType, c.typ)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, c.typ)
}
