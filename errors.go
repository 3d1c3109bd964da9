package zbytes

import (
	"errors"
)

var (
	// ErrUnsupportedType is returned when neither the registry, a built-in
	// rule nor a user conversion applies to the requested type.
	ErrUnsupportedType = errors.New("zbytes: unsupported type")

	// ErrMalformedPayload is returned when a buffer does not match the
	// structure expected by the requested type.
	ErrMalformedPayload = errors.New("zbytes: malformed payload")

	// ErrElementTooLarge is returned when an encoded element is longer
	// than a 4-byte length prefix can describe.
	ErrElementTooLarge = errors.New("zbytes: element does not fit a 4-byte length prefix")

	// ErrTypeSyntax is returned by ParseType for an expression that does
	// not follow the type grammar.
	ErrTypeSyntax = errors.New("zbytes: invalid type expression")
)

// IsUnsupported reports whether err is (or wraps) ErrUnsupportedType.
func IsUnsupported(err error) bool { return errors.Is(err, ErrUnsupportedType) }

// IsMalformed reports whether err is (or wraps) ErrMalformedPayload.
func IsMalformed(err error) bool { return errors.Is(err, ErrMalformedPayload) }
