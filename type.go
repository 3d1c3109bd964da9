package zbytes

import (
	"fmt"
	"strings"
)

// Kind is the tag of a Type descriptor.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindString
	KindBytes
	KindList
	KindMap
	KindPair
	KindTriple
	KindNamed
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindBool:    "bool",
	KindInt8:    "i8",
	KindInt16:   "i16",
	KindInt32:   "i32",
	KindInt64:   "i64",
	KindUint8:   "u8",
	KindUint16:  "u16",
	KindUint32:  "u32",
	KindUint64:  "u64",
	KindFloat32: "f32",
	KindFloat64: "f64",
	KindString:  "string",
	KindBytes:   "bytes",
	KindList:    "list",
	KindMap:     "map",
	KindPair:    "pair",
	KindTriple:  "triple",
	KindNamed:   "named",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsPrimitive reports whether k has a built-in, non-composite encoding.
func (k Kind) IsPrimitive() bool {
	return k >= KindBool && k <= KindBytes
}

// width is the fixed encoded size of numeric and boolean kinds, 0 otherwise.
func (k Kind) width() int {
	switch k {
	case KindBool, KindInt8, KindUint8:
		return 1
	case KindInt16, KindUint16:
		return 2
	case KindInt32, KindUint32, KindFloat32:
		return 4
	case KindInt64, KindUint64, KindFloat64:
		return 8
	}
	return 0
}

// arity is the number of type arguments a composite kind takes.
func (k Kind) arity() int {
	switch k {
	case KindList:
		return 1
	case KindMap, KindPair:
		return 2
	case KindTriple:
		return 3
	}
	return 0
}

// Type describes the statically requested shape of a value:
// Primitive(kind), List(elem), Map(key, value), Pair(a, b),
// Triple(a, b, c) or Named(id).
//
// Types are immutable. Two Types are equal when their canonical
// signatures are equal, see [Type.Equal] and [Type.String].
type Type struct {
	kind Kind
	name string
	args []Type
	sig  string
}

// PrimitiveType panics if k is not a primitive kind.
func PrimitiveType(k Kind) Type {
	if !k.IsPrimitive() {
		panic(fmt.Sprintf("zbytes: %s is not a primitive kind", k))
	}
	return Type{kind: k, sig: k.String()}
}

func ListType(elem Type) Type {
	return composite(KindList, elem)
}

func MapType(key, value Type) Type {
	return composite(KindMap, key, value)
}

func PairType(first, second Type) Type {
	return composite(KindPair, first, second)
}

func TripleType(first, second, third Type) Type {
	return composite(KindTriple, first, second, third)
}

// NamedType describes a user-defined type identified by id. It panics if
// id does not match the identifier grammar of [ParseType] or is the name
// of a built-in kind, such as "i32" or "list".
func NamedType(id string) Type {
	if !isIdent(id) {
		panic(fmt.Sprintf("zbytes: %q is not a valid type identifier", id))
	}
	if _, builtin := kindByName[id]; builtin {
		panic(fmt.Sprintf("zbytes: %q is a built-in type, not a named one", id))
	}
	return Type{kind: KindNamed, name: id, sig: id}
}

func composite(k Kind, args ...Type) Type {
	var sb strings.Builder
	sb.WriteString(k.String())
	sb.WriteByte('<')
	for i, arg := range args {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(arg.sig)
	}
	sb.WriteByte('>')
	return Type{kind: k, args: args, sig: sb.String()}
}

func (t Type) Kind() Kind {
	return t.kind
}

// Name is the identifier of a Named type, "" otherwise.
func (t Type) Name() string {
	return t.name
}

// NumArgs is the number of type arguments of a composite.
func (t Type) NumArgs() int {
	return len(t.args)
}

// Arg returns the i-th type argument of a composite, in positional order
// (element for lists, key then value for maps).
func (t Type) Arg(i int) Type {
	return t.args[i]
}

func (t Type) IsValid() bool {
	return t.kind != KindInvalid
}

func (t Type) Equal(other Type) bool {
	return t.sig == other.sig
}

// String returns the canonical signature, e.g. "map<string,list<i32>>".
func (t Type) String() string {
	if t.kind == KindInvalid {
		return kindNames[KindInvalid]
	}
	return t.sig
}
