package zbytes

import (
	"fmt"
	"reflect"
)

// Into serializes a value whose Go type alone selects the encoding: the
// sized numeric types, bool, string, []byte, Bytes and any Marshaler.
//
// Platform-sized int and uint are rejected with ErrUnsupportedType since
// their width on the wire would depend on the host; convert them to a
// sized type first. Composites need a descriptor, use a Codec.
func Into(v any) (Bytes, error) {
	switch x := v.(type) {
	case bool:
		return Serialize(Bool, x)
	case int8:
		return Serialize(Int8, x)
	case int16:
		return Serialize(Int16, x)
	case int32:
		return Serialize(Int32, x)
	case int64:
		return Serialize(Int64, x)
	case uint8:
		return Serialize(Uint8, x)
	case uint16:
		return Serialize(Uint16, x)
	case uint32:
		return Serialize(Uint32, x)
	case uint64:
		return Serialize(Uint64, x)
	case float32:
		return Serialize(Float32, x)
	case float64:
		return Serialize(Float64, x)
	case string:
		return Serialize(String, x)
	case []byte:
		return Of(x), nil
	case Bytes:
		return x, nil
	case Marshaler:
		return x.MarshalZBytes()
	case nil:
		return Empty, fmt.Errorf("%w: nil", ErrUnsupportedType)
	}
	return Empty, fmt.Errorf("%w: Go type %T", ErrUnsupportedType, v)
}

// Infer returns the built-in codec of a primitive Go type.
func Infer[T any]() (Codec[T], error) {
	var zero T
	var codec any
	switch any(zero).(type) {
	case bool:
		codec = Bool
	case int8:
		codec = Int8
	case int16:
		codec = Int16
	case int32:
		codec = Int32
	case int64:
		codec = Int64
	case uint8:
		codec = Uint8
	case uint16:
		codec = Uint16
	case uint32:
		codec = Uint32
	case uint64:
		codec = Uint64
	case float32:
		codec = Float32
	case float64:
		codec = Float64
	case string:
		codec = String
	case []byte:
		codec = Raw
	case Bytes:
		codec = Buffer
	default:
		return nil, fmt.Errorf("%w: no built-in codec for Go type %s", ErrUnsupportedType, reflect.TypeFor[T]())
	}
	return codec.(Codec[T]), nil
}
