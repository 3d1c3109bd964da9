package zbytes

import (
	"fmt"
)

var kindByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k := KindBool; k <= KindTriple; k++ {
		m[k.String()] = k
	}
	return m
}()

// ParseType parses the textual form produced by [Type.String].
//
//	type  = ident [ "<" type { "," type } ">" ]
//	ident = letter { letter | digit | "_" | "." | "-" | "/" }
//
// Primitive names are bool, i8, i16, i32, i64, u8, u16, u32, u64, f32,
// f64, string and bytes. The composites list, map, pair and triple take
// 1, 2, 2 and 3 type arguments. Any other identifier is a Named type.
// Blanks between tokens are ignored.
func ParseType(expr string) (Type, error) {
	p := typeParser{src: expr}
	t, err := p.parseType()
	if err != nil {
		return Type{}, err
	}
	p.skipBlanks()
	if p.pos != len(p.src) {
		return Type{}, p.errorf("unexpected %q after type", p.src[p.pos:])
	}
	return t, nil
}

// MustParseType is like ParseType but panics on error.
func MustParseType(expr string) Type {
	t, err := ParseType(expr)
	if err != nil {
		panic(err)
	}
	return t
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: offset %d: %s", ErrTypeSyntax, p.pos, fmt.Sprintf(format, args...))
}

func (p *typeParser) skipBlanks() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *typeParser) peek() (byte, bool) {
	p.skipBlanks()
	if p.pos >= len(p.src) {
		return 0, false
	}
	return p.src[p.pos], true
}

func (p *typeParser) expect(c byte) error {
	got, ok := p.peek()
	if !ok {
		return p.errorf("expected %q, got end of input", c)
	}
	if got != c {
		return p.errorf("expected %q, got %q", c, got)
	}
	p.pos++
	return nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '/'
}

func isIdent(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentPart(s[i]) {
			return false
		}
	}
	return true
}

func (p *typeParser) ident() (string, error) {
	c, ok := p.peek()
	if !ok {
		return "", p.errorf("expected a type, got end of input")
	}
	if !isIdentStart(c) {
		return "", p.errorf("expected a type, got %q", c)
	}
	start := p.pos
	for p.pos < len(p.src) && isIdentPart(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos], nil
}

func (p *typeParser) parseType() (Type, error) {
	name, err := p.ident()
	if err != nil {
		return Type{}, err
	}

	kind, known := kindByName[name]
	if known && kind.IsPrimitive() {
		return PrimitiveType(kind), nil
	}
	if !known {
		if c, ok := p.peek(); ok && c == '<' {
			return Type{}, p.errorf("named type %q cannot take arguments", name)
		}
		return NamedType(name), nil
	}

	if err := p.expect('<'); err != nil {
		return Type{}, err
	}
	args := make([]Type, 0, kind.arity())
	for {
		arg, err := p.parseType()
		if err != nil {
			return Type{}, err
		}
		args = append(args, arg)

		c, ok := p.peek()
		if ok && c == ',' {
			p.pos++
			continue
		}
		if err := p.expect('>'); err != nil {
			return Type{}, err
		}
		break
	}
	if len(args) != kind.arity() {
		return Type{}, p.errorf("%s takes %d type arguments, got %d", kind, kind.arity(), len(args))
	}
	return composite(kind, args...), nil
}
