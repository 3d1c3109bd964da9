package zbytes

import (
	"bytes"
	"fmt"
	"slices"
)

// Pair is a fixed-arity heterogeneous 2-tuple.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Triple is a fixed-arity heterogeneous 3-tuple.
type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

func NewPair[A, B any](first A, second B) Pair[A, B] {
	return Pair[A, B]{First: first, Second: second}
}

func NewTriple[A, B, C any](first A, second B, third C) Triple[A, B, C] {
	return Triple[A, B, C]{First: first, Second: second, Third: third}
}

type listCodec[T any] struct {
	elem Codec[T]
	typ  Type
}

// List encodes a slice as the concatenation of its length-prefixed
// elements. The empty (or nil) slice encodes to zero bytes and zero bytes
// decode to an empty, non-nil slice.
func List[T any](elem Codec[T]) Codec[[]T] {
	return listCodec[T]{elem: elem, typ: ListType(elem.Type())}
}

func (c listCodec[T]) Type() Type {
	return c.typ
}

func (c listCodec[T]) AppendBytes(dst []byte, values []T) ([]byte, error) {
	var err error
	for i, v := range values {
		dst, err = appendFrame(dst, c.elem, v)
		if err != nil {
			return nil, fmt.Errorf("list element %d: %w", i, err)
		}
	}
	return dst, nil
}

func (c listCodec[T]) Decode(b Bytes, reg *Registry) ([]T, error) {
	r := newFrameReader(b)
	out := make([]T, 0)
	for i := 0; r.more(); i++ {
		frame, err := r.next()
		if err != nil {
			return nil, err
		}
		v, err := decodeWith(c.elem, frame, reg)
		if err != nil {
			return nil, fmt.Errorf("list element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

type mapCodec[K comparable, V any] struct {
	key   Codec[K]
	value Codec[V]
	typ   Type
}

// Map encodes a map as a sequence of entries, each a length-prefixed key
// immediately followed by a length-prefixed value: the concatenation of
// the entries encoded as pairs.
//
// Entries are written in ascending bytewise order of their encoded key,
// so equal maps always produce equal Bytes. Callers who need their own
// order, or duplicate keys, use [Entries], which shares the layout and the
// descriptor; decoding duplicates as a Map keeps the last value.
func Map[K comparable, V any](key Codec[K], value Codec[V]) Codec[map[K]V] {
	return mapCodec[K, V]{
		key:   key,
		value: value,
		typ:   MapType(key.Type(), value.Type()),
	}
}

func (c mapCodec[K, V]) Type() Type {
	return c.typ
}

func (c mapCodec[K, V]) AppendBytes(dst []byte, m map[K]V) ([]byte, error) {
	type entry struct {
		key   []byte
		value V
	}

	entries := make([]entry, 0, len(m))
	for k, v := range m {
		encoded, err := c.key.AppendBytes(nil, k)
		if err != nil {
			return nil, fmt.Errorf("map key: %w", err)
		}
		entries = append(entries, entry{key: encoded, value: v})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		return bytes.Compare(a.key, b.key)
	})

	var err error
	for _, e := range entries {
		if dst, err = appendRawFrame(dst, e.key); err != nil {
			return nil, fmt.Errorf("map key: %w", err)
		}
		if dst, err = appendFrame(dst, c.value, e.value); err != nil {
			return nil, fmt.Errorf("map value: %w", err)
		}
	}
	return dst, nil
}

func (c mapCodec[K, V]) Decode(b Bytes, reg *Registry) (map[K]V, error) {
	out := make(map[K]V)
	err := readEntries(b, func(i int, keyFrame, valueFrame Bytes) error {
		k, err := decodeWith(c.key, keyFrame, reg)
		if err != nil {
			return fmt.Errorf("map entry %d key: %w", i, err)
		}
		v, err := decodeWith(c.value, valueFrame, reg)
		if err != nil {
			return fmt.Errorf("map entry %d value: %w", i, err)
		}
		out[k] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type entriesCodec[K, V any] struct {
	key   Codec[K]
	value Codec[V]
	typ   Type
}

// Entries is the insertion-ordered form of a map: entries are written in
// slice order, duplicates included, and decoded back in wire order. Its
// descriptor is MapType(key, value) and its bytes are interchangeable with
// those of [Map].
func Entries[K, V any](key Codec[K], value Codec[V]) Codec[[]Pair[K, V]] {
	return entriesCodec[K, V]{
		key:   key,
		value: value,
		typ:   MapType(key.Type(), value.Type()),
	}
}

func (c entriesCodec[K, V]) Type() Type {
	return c.typ
}

func (c entriesCodec[K, V]) AppendBytes(dst []byte, entries []Pair[K, V]) ([]byte, error) {
	var err error
	for i, e := range entries {
		if dst, err = appendFrame(dst, c.key, e.First); err != nil {
			return nil, fmt.Errorf("map entry %d key: %w", i, err)
		}
		if dst, err = appendFrame(dst, c.value, e.Second); err != nil {
			return nil, fmt.Errorf("map entry %d value: %w", i, err)
		}
	}
	return dst, nil
}

func (c entriesCodec[K, V]) Decode(b Bytes, reg *Registry) ([]Pair[K, V], error) {
	out := make([]Pair[K, V], 0)
	err := readEntries(b, func(i int, keyFrame, valueFrame Bytes) error {
		k, err := decodeWith(c.key, keyFrame, reg)
		if err != nil {
			return fmt.Errorf("map entry %d key: %w", i, err)
		}
		v, err := decodeWith(c.value, valueFrame, reg)
		if err != nil {
			return fmt.Errorf("map entry %d value: %w", i, err)
		}
		out = append(out, NewPair(k, v))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// readEntries walks the key/value frame pairs of a map.
func readEntries(b Bytes, each func(i int, key, value Bytes) error) error {
	r := newFrameReader(b)
	for i := 0; r.more(); i++ {
		keyFrame, err := r.next()
		if err != nil {
			return err
		}
		if !r.more() {
			return fmt.Errorf("%w: map entry %d has a key but no value", ErrMalformedPayload, i)
		}
		valueFrame, err := r.next()
		if err != nil {
			return err
		}
		if err := each(i, keyFrame, valueFrame); err != nil {
			return err
		}
	}
	return nil
}

type pairCodec[A, B any] struct {
	first  Codec[A]
	second Codec[B]
	typ    Type
}

// PairOf encodes a Pair as two positional length-prefixed frames.
func PairOf[A, B any](first Codec[A], second Codec[B]) Codec[Pair[A, B]] {
	return pairCodec[A, B]{
		first:  first,
		second: second,
		typ:    PairType(first.Type(), second.Type()),
	}
}

func (c pairCodec[A, B]) Type() Type {
	return c.typ
}

func (c pairCodec[A, B]) AppendBytes(dst []byte, p Pair[A, B]) ([]byte, error) {
	dst, err := appendFrame(dst, c.first, p.First)
	if err != nil {
		return nil, fmt.Errorf("pair first: %w", err)
	}
	if dst, err = appendFrame(dst, c.second, p.Second); err != nil {
		return nil, fmt.Errorf("pair second: %w", err)
	}
	return dst, nil
}

func (c pairCodec[A, B]) Decode(b Bytes, reg *Registry) (p Pair[A, B], err error) {
	frames, err := newFrameReader(b).exactly(2, "pair")
	if err != nil {
		return
	}
	first, err := decodeWith(c.first, frames[0], reg)
	if err != nil {
		return p, fmt.Errorf("pair first: %w", err)
	}
	second, err := decodeWith(c.second, frames[1], reg)
	if err != nil {
		return p, fmt.Errorf("pair second: %w", err)
	}
	return NewPair(first, second), nil
}

type tripleCodec[A, B, C any] struct {
	first  Codec[A]
	second Codec[B]
	third  Codec[C]
	typ    Type
}

// TripleOf encodes a Triple as three positional length-prefixed frames.
func TripleOf[A, B, C any](first Codec[A], second Codec[B], third Codec[C]) Codec[Triple[A, B, C]] {
	return tripleCodec[A, B, C]{
		first:  first,
		second: second,
		third:  third,
		typ:    TripleType(first.Type(), second.Type(), third.Type()),
	}
}

func (c tripleCodec[A, B, C]) Type() Type {
	return c.typ
}

func (c tripleCodec[A, B, C]) AppendBytes(dst []byte, t Triple[A, B, C]) ([]byte, error) {
	dst, err := appendFrame(dst, c.first, t.First)
	if err != nil {
		return nil, fmt.Errorf("triple first: %w", err)
	}
	if dst, err = appendFrame(dst, c.second, t.Second); err != nil {
		return nil, fmt.Errorf("triple second: %w", err)
	}
	if dst, err = appendFrame(dst, c.third, t.Third); err != nil {
		return nil, fmt.Errorf("triple third: %w", err)
	}
	return dst, nil
}

func (c tripleCodec[A, B, C]) Decode(b Bytes, reg *Registry) (t Triple[A, B, C], err error) {
	frames, err := newFrameReader(b).exactly(3, "triple")
	if err != nil {
		return
	}
	first, err := decodeWith(c.first, frames[0], reg)
	if err != nil {
		return t, fmt.Errorf("triple first: %w", err)
	}
	second, err := decodeWith(c.second, frames[1], reg)
	if err != nil {
		return t, fmt.Errorf("triple second: %w", err)
	}
	third, err := decodeWith(c.third, frames[2], reg)
	if err != nil {
		return t, fmt.Errorf("triple third: %w", err)
	}
	return NewTriple(first, second, third), nil
}
