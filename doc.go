// Package zbytes converts between `Bytes`, the opaque payload carried by
// every publication, reply, attachment and query parameter of a pub/sub
// fabric, and the typed values applications actually work with.
//
// ## How it works
//
// A `Codec[T]` knows how to turn a statically known Go type `T` into
// `Bytes` and back. Built-in codecs cover the sized numeric types, `bool`,
// `string` and raw buffers; `List`, `Map`, `Entries`, `PairOf` and
// `TripleOf` compose them into arbitrarily nested composites; `User`,
// `Func`, `Proto` and `CBOR` plug in user-defined types.
//
//	codec := zbytes.Map(zbytes.String, zbytes.List(zbytes.Int32))
//	payload, err := zbytes.Serialize(codec, map[string][]int32{"a": {1, 2}})
//	...
//	decoded, err := zbytes.Deserialize(codec, payload)
//
// Every codec carries a `Type` descriptor, such as `map<string,list<i32>>`.
// Descriptors are what a `Registry` is keyed by: a caller can override the
// decoding of any type, primitives included, and the override applies at
// every nesting level. The same descriptors drive `Dynamic`, which decodes
// without a Go type at hand (inspection tools, bridges).
//
// ## Wire format
//
// There is no type tag in the payload: the receiver must know what it
// asks for, and the same bytes can legally decode as different types.
//
// * Numbers are fixed-width little-endian, two's complement or IEEE-754.
// * A `bool` is one byte, 0 or 1.
// * A `string` is its UTF-8 bytes, with no length prefix.
// * Raw buffers are copied as is.
// * A list is the concatenation of its elements, each preceded by its
// length as a 4-byte little-endian unsigned integer. An empty list is
// zero bytes.
// * A map is the concatenation of its entries, each a length-prefixed key
// followed by a length-prefixed value, in ascending bytewise order of the
// encoded keys. `Entries` writes the same layout in caller order.
// * Pairs and triples are their length-prefixed components, in order.
//
// This layout is a compatibility contract between independently built
// peers, not an implementation detail.
//
// ## Errors
//
// Decoding fails with `ErrMalformedPayload` when the bytes do not have the
// shape of the requested type (wrong width for a number, truncated frame,
// trailing bytes, invalid UTF-8) and with `ErrUnsupportedType` when no rule
// applies to the requested type. A failed decode never returns a
// partially filled composite.
//
// ## Concurrency
//
// Codecs are stateless values. `Serialize` and `Deserialize` perform no
// I/O, keep no cache and can be called from any number of goroutines.
// `Bytes` is immutable and can be shared freely.
package zbytes
