package zbytes

// Codec converts values of a statically known Go type T to and from Bytes.
//
// Implementations MUST be stateless and safe for concurrent use: every
// call only depends on its arguments.
//
// AppendBytes appends the encoding of v to dst. Composite codecs call it
// for their elements, so it MUST NOT inspect or modify dst[:len(dst)].
//
// Decode is given exactly the bytes of one value. It receives the registry
// so composite codecs can resolve their element types through it; the
// registry lookup for the codec's own Type has already happened when
// Decode is called through [Deserialize] or by a composite codec.
type Codec[T any] interface {
	Type() Type
	AppendBytes(dst []byte, v T) ([]byte, error)
	Decode(b Bytes, reg *Registry) (T, error)
}

// Serialize encodes v with c. It fails with ErrUnsupportedType when no
// rule applies to v, and with ErrMalformedPayload when v holds a string
// that is not valid UTF-8.
func Serialize[T any](c Codec[T], v T) (Bytes, error) {
	buf, err := c.AppendBytes(nil, v)
	if err != nil {
		return Empty, err
	}
	return Of(buf), nil
}

// Deserialize decodes b as the type described by c.
//
// Resolution order, first match wins:
//
//  1. a decoder registered for c.Type() in the registry passed with
//     [WithRegistry];
//  2. the built-in rule for primitives and composites, splitting
//     length-prefixed elements and resolving each element type again
//     from step 1;
//  3. the reverse conversion of a user-defined type;
//  4. otherwise [ErrUnsupportedType].
//
// A failed decode never returns a partially filled composite.
func Deserialize[T any](c Codec[T], b Bytes, opts ...DecodeOption) (T, error) {
	var cfg decodeConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return decodeWith(c, b, cfg.registry)
}

// MustSerialize is like Serialize but panics on error. It is meant for
// constant payloads in tests and examples.
func MustSerialize[T any](c Codec[T], v T) Bytes {
	b, err := Serialize(c, v)
	if err != nil {
		panic(err)
	}
	return b
}
