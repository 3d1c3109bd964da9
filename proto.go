package zbytes

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

type protoCodec[M proto.Message] struct {
	typ Type
}

// Proto returns the codec of a protobuf message type, described as
// NamedType of the message's full name. Messages are marshaled
// deterministically so equal messages produce equal Bytes.
func Proto[M proto.Message]() Codec[M] {
	var zero M
	name := zero.ProtoReflect().Descriptor().FullName()
	return protoCodec[M]{typ: NamedType(string(name))}
}

func (c protoCodec[M]) Type() Type {
	return c.typ
}

func (c protoCodec[M]) AppendBytes(dst []byte, msg M) ([]byte, error) {
	buf, err := proto.MarshalOptions{Deterministic: true}.MarshalAppend(dst, msg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.typ, err)
	}
	return buf, nil
}

func (c protoCodec[M]) Decode(b Bytes, _ *Registry) (M, error) {
	var allocated M
	allocated = allocated.ProtoReflect().New().Interface().(M)
	if err := proto.Unmarshal(b.ToSlice(), allocated); err != nil {
		var zero M
		return zero, fmt.Errorf("%w: %s: %w", ErrMalformedPayload, c.typ, err)
	}
	return allocated, nil
}
