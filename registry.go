package zbytes

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// DecodeFunc is a custom decoder registered for a requested Type. A nil
// result is only accepted where the value is requested as an interface,
// such as through [Dynamic].
type DecodeFunc func(Bytes) (any, error)

// Registry maps requested types to custom decoders.
//
// A Registry is consulted before any built-in rule, at every nesting level
// of a composite: registering a decoder for i32 also changes how the
// elements of a list<i32> are decoded. It has no default entries and the
// nil *Registry is a valid, empty registry.
//
// Register must not be called concurrently with decoding. Once populated,
// a Registry can be shared by any number of goroutines.
type Registry struct {
	decoders map[string]registered
}

type registered struct {
	typ Type
	fn  DecodeFunc
}

func NewRegistry() *Registry {
	return &Registry{
		decoders: make(map[string]registered),
	}
}

// Register sets the decoder for t, replacing any previous one, and returns
// the registry so calls can be chained.
func (r *Registry) Register(t Type, fn DecodeFunc) *Registry {
	if !t.IsValid() {
		panic("zbytes: cannot register a decoder for an invalid type")
	}
	if fn == nil {
		panic("zbytes: nil DecodeFunc for " + t.String())
	}
	if r.decoders == nil {
		r.decoders = make(map[string]registered)
	}
	r.decoders[t.sig] = registered{typ: t, fn: fn}
	return r
}

// RegisterFunc registers a typed decoder for t.
func RegisterFunc[T any](r *Registry, t Type, fn func(Bytes) (T, error)) *Registry {
	return r.Register(t, func(b Bytes) (any, error) {
		return fn(b)
	})
}

func (r *Registry) Lookup(t Type) (DecodeFunc, bool) {
	if r == nil || len(r.decoders) == 0 {
		return nil, false
	}
	entry, ok := r.decoders[t.sig]
	return entry.fn, ok
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.decoders)
}

// Types returns the registered types sorted by signature.
func (r *Registry) Types() []Type {
	if r == nil {
		return nil
	}
	types := make([]Type, 0, len(r.decoders))
	for _, entry := range r.decoders {
		types = append(types, entry.typ)
	}
	slices.SortFunc(types, func(a, b Type) int {
		return strings.Compare(a.sig, b.sig)
	})
	return types
}

// decodeWith resolves the requested type of c: registry first, then the
// codec's own rule.
func decodeWith[T any](c Codec[T], b Bytes, reg *Registry) (result T, err error) {
	t := c.Type()
	fn, ok := reg.Lookup(t)
	if !ok {
		return c.Decode(b, reg)
	}

	decoded, err := fn(b)
	if err != nil {
		err = fmt.Errorf("zbytes: registry decoder for %s: %w", t, err)
		return
	}
	if decoded == nil && reflect.TypeFor[T]().Kind() == reflect.Interface {
		return result, nil
	}
	typed, ok := decoded.(T)
	if !ok {
		typed, ok = convertBuffer[T](decoded)
	}
	if !ok {
		err = fmt.Errorf(
			"%w: registry decoder for %s returned %T instead of %s",
			ErrUnsupportedType,
			t,
			decoded,
			reflect.TypeFor[T]().String(),
		)
		return
	}
	return typed, nil
}

// convertBuffer lets a registry decoder for bytes serve both the Raw and
// the Buffer codecs, which share the same descriptor.
func convertBuffer[T any](v any) (out T, ok bool) {
	switch target := any(&out).(type) {
	case *Bytes:
		if raw, isRaw := v.([]byte); isRaw {
			*target = Of(raw)
			return out, true
		}
	case *[]byte:
		if buf, isBuf := v.(Bytes); isBuf {
			*target = buf.ToSlice()
			return out, true
		}
	}
	return out, false
}
