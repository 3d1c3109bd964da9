package zbytes

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses Core Deterministic Encoding (RFC 8949 §4.2): sorted map
// keys, smallest integer encoding, no indefinite-length items.
var cborEncMode cbor.EncMode

// cborDecMode rejects duplicate map keys so a payload has exactly one
// meaning.
var cborDecMode cbor.DecMode

func init() {
	var err error

	cborEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("zbytes: CBOR encoder initialization failed: " + err.Error())
	}

	cborDecMode, err = cbor.DecOptions{
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("zbytes: CBOR decoder initialization failed: " + err.Error())
	}
}

type cborCodec[T any] struct {
	typ Type
}

// CBOR returns a codec for a Go type that carries no conversion of its
// own, described as NamedType(id). The value is encoded as deterministic
// CBOR, so struct tags (`cbor:"..."`, or `json:"..."` as a fallback)
// control the layout.
func CBOR[T any](id string) Codec[T] {
	return cborCodec[T]{typ: NamedType(id)}
}

func (c cborCodec[T]) Type() Type {
	return c.typ
}

func (c cborCodec[T]) AppendBytes(dst []byte, v T) ([]byte, error) {
	buf, err := cborEncMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnsupportedType, c.typ, err)
	}
	return append(dst, buf...), nil
}

func (c cborCodec[T]) Decode(b Bytes, _ *Registry) (v T, err error) {
	if err = cborDecMode.Unmarshal(b.ToSlice(), &v); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %s: %w", ErrMalformedPayload, c.typ, err)
	}
	return v, nil
}
