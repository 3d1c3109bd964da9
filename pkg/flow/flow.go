// Package flow carries zbytes payloads over unidirectional flows: QUIC
// streams between peers or buffered channels inside a process.
//
// A [Sender] and a [Receiver] wrap a raw flow with a typed, thread-safe
// API. The [Encoder] and [Decoder] they use decide how values are turned
// into frames; [PayloadCodec] does it with a [zbytes.Codec].
package flow

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/raskyld/zbytes"
)

var (
	ErrFlowClosed     = errors.New("flow: flow closed")
	ErrTypeMismatch   = errors.New("flow: message type mismatch")
	ErrFrameTooLarge  = errors.New("flow: frame too large")
	ErrMalformedFrame = errors.New("flow: malformed frame")
)

// Raw is a bidirectional raw flow.
//
// Most users should not use it directly but wrap it
// in a [Sender] and [Receiver] for a better DX.
type Raw struct {
	RawReceiver
	RawSender
}

func (r Raw) Close() error {
	return errors.Join(r.RawReceiver.Close(), r.RawSender.Close())
}

// isPayloadError reports whether err only concerns the content of one
// frame, in which case the flow itself is still usable.
func isPayloadError(err error) bool {
	return zbytes.IsMalformed(err) || zbytes.IsUnsupported(err) || errors.Is(err, ErrTypeMismatch)
}

func mismatch[T any](msg any) error {
	return fmt.Errorf("%w: got %T, want %s", ErrTypeMismatch, msg, reflect.TypeFor[T]().String())
}
