package zbytes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDynamic_MatchesTypedCodecs(t *testing.T) {
	t.Run("primitives", func(t *testing.T) {
		b, err := EncodeAny(PrimitiveType(KindInt32), int32(1234))
		require.NoError(t, err)
		require.Equal(t, MustSerialize(Int32, 1234), b)

		v, err := DecodeAny(PrimitiveType(KindInt32), b)
		require.NoError(t, err)
		require.Equal(t, int32(1234), v)
	})

	t.Run("list", func(t *testing.T) {
		typ := MustParseType("list<string>")
		b, err := EncodeAny(typ, []any{"sample1", "sample2"})
		require.NoError(t, err)
		require.Equal(t, MustSerialize(List(String), []string{"sample1", "sample2"}), b)

		v, err := DecodeAny(typ, b)
		require.NoError(t, err)
		require.Equal(t, []any{"sample1", "sample2"}, v)
	})

	t.Run("map from a Go map is sorted like Map", func(t *testing.T) {
		typ := MustParseType("map<string,i32>")
		b, err := EncodeAny(typ, map[string]any{"b": int32(2), "a": int32(1)})
		require.NoError(t, err)
		require.Equal(t, MustSerialize(Map(String, Int32), map[string]int32{"a": 1, "b": 2}), b)

		v, err := DecodeAny(typ, b)
		require.NoError(t, err)
		require.Equal(t, []Pair[any, any]{
			NewPair[any, any]("a", int32(1)),
			NewPair[any, any]("b", int32(2)),
		}, v)
	})

	t.Run("map from entries keeps their order", func(t *testing.T) {
		typ := MustParseType("map<bytes,bool>")
		entries := []Pair[any, any]{
			NewPair[any, any]([]byte{2}, true),
			NewPair[any, any]([]byte{1}, false),
		}
		b, err := EncodeAny(typ, entries)
		require.NoError(t, err)

		v, err := DecodeAny(typ, b)
		require.NoError(t, err)
		require.Equal(t, entries, v)
	})

	t.Run("pair and triple", func(t *testing.T) {
		typ := MustParseType("triple<u8,pair<string,f64>,bytes>")
		value := NewTriple[any, any, any](uint8(7), NewPair[any, any]("pi", 3.14), []byte("raw"))
		b, err := EncodeAny(typ, value)
		require.NoError(t, err)

		typed := TripleOf(Uint8, PairOf(String, Float64), Raw)
		decoded, err := Deserialize(typed, b)
		require.NoError(t, err)
		require.Equal(t, NewTriple(uint8(7), NewPair("pi", 3.14), []byte("raw")), decoded)

		v, err := DecodeAny(typ, b)
		require.NoError(t, err)
		require.Equal(t, value, v)
	})

	t.Run("named encodes through Marshaler", func(t *testing.T) {
		b, err := EncodeAny(NamedType("example.Foo"), Foo{Name: "example"})
		require.NoError(t, err)
		require.Equal(t, FromString("example"), b)
	})
}

func TestDynamic_Errors(t *testing.T) {
	t.Run("Go value of the wrong type", func(t *testing.T) {
		_, err := EncodeAny(PrimitiveType(KindInt32), 1234)
		require.ErrorIs(t, err, ErrUnsupportedType)

		_, err = EncodeAny(MustParseType("list<i8>"), []int8{1})
		require.ErrorIs(t, err, ErrUnsupportedType)

		_, err = EncodeAny(MustParseType("list<i8>"), []any{int8(1), "two"})
		require.ErrorIs(t, err, ErrUnsupportedType)

		_, err = EncodeAny(NamedType("example.Bar"), struct{}{})
		require.ErrorIs(t, err, ErrUnsupportedType)
	})

	t.Run("invalid descriptor", func(t *testing.T) {
		_, err := EncodeAny(Type{}, nil)
		require.ErrorIs(t, err, ErrUnsupportedType)
		_, err = DecodeAny(Type{}, Empty)
		require.ErrorIs(t, err, ErrUnsupportedType)
	})

	t.Run("malformed payload", func(t *testing.T) {
		_, err := DecodeAny(MustParseType("map<string,string>"), Of(frame("dangling")))
		require.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("registry applies to dynamic elements", func(t *testing.T) {
		reg := NewRegistry().Register(PrimitiveType(KindString), func(b Bytes) (any, error) {
			return "redacted", nil
		})
		v, err := DecodeAny(MustParseType("list<string>"), MustSerialize(List(String), []string{"a", "b"}), WithRegistry(reg))
		require.NoError(t, err)
		require.Equal(t, []any{"redacted", "redacted"}, v)
	})
}
