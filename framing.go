package zbytes

import (
	"encoding/binary"
	"fmt"
	"math"
)

// PrefixSize is the width of the little-endian length prefix written
// before every element of a composite.
const PrefixSize = 4

// appendFrame appends the length-prefixed encoding of v to dst.
func appendFrame[T any](dst []byte, c Codec[T], v T) ([]byte, error) {
	start := len(dst)
	dst = append(dst, 0, 0, 0, 0)
	dst, err := c.AppendBytes(dst, v)
	if err != nil {
		return nil, err
	}
	return sealFrame(dst, start)
}

// appendRawFrame appends elem, already encoded, with its length prefix.
func appendRawFrame(dst []byte, elem []byte) ([]byte, error) {
	start := len(dst)
	dst = append(dst, 0, 0, 0, 0)
	dst = append(dst, elem...)
	return sealFrame(dst, start)
}

// sealFrame writes the prefix reserved at dst[start:start+PrefixSize].
func sealFrame(dst []byte, start int) ([]byte, error) {
	n := uint64(len(dst) - start - PrefixSize)
	if n > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes", ErrElementTooLarge, n)
	}
	binary.LittleEndian.PutUint32(dst[start:], uint32(n))
	return dst, nil
}

// frameReader splits a buffer into length-prefixed frames.
type frameReader struct {
	src Bytes
	off int
}

func newFrameReader(b Bytes) *frameReader {
	return &frameReader{src: b}
}

func (r *frameReader) more() bool {
	return r.off < r.src.Len()
}

// next returns the next frame, without copying.
func (r *frameReader) next() (Bytes, error) {
	remaining := r.src.Len() - r.off
	if remaining < PrefixSize {
		return Empty, fmt.Errorf(
			"%w: truncated length prefix at offset %d (%d bytes left)",
			ErrMalformedPayload, r.off, remaining,
		)
	}
	size := uint64(le32(r.src.data[r.off:]))
	remaining -= PrefixSize
	if size > uint64(remaining) {
		return Empty, fmt.Errorf(
			"%w: frame at offset %d declares %d bytes but only %d remain",
			ErrMalformedPayload, r.off, size, remaining,
		)
	}
	from := r.off + PrefixSize
	to := from + int(size)
	r.off = to
	return r.src.slice(from, to), nil
}

// exactly reads n frames and fails if any byte remains.
func (r *frameReader) exactly(n int, what string) ([]Bytes, error) {
	frames := make([]Bytes, 0, n)
	for i := 0; i < n; i++ {
		if !r.more() {
			return nil, fmt.Errorf("%w: %s needs %d frames, got %d", ErrMalformedPayload, what, n, i)
		}
		frame, err := r.next()
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	if r.more() {
		return nil, fmt.Errorf(
			"%w: %d trailing bytes after %s",
			ErrMalformedPayload, r.src.Len()-r.off, what,
		)
	}
	return frames, nil
}

// Frames splits b into its length-prefixed frames, without interpreting
// them. It fails on the same conditions as a list decode.
func Frames(b Bytes) ([]Bytes, error) {
	r := newFrameReader(b)
	var frames []Bytes
	for r.more() {
		frame, err := r.next()
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

// Join frames parts the way a list is framed.
func Join(parts ...Bytes) (Bytes, error) {
	var buf []byte
	var err error
	for _, part := range parts {
		start := len(buf)
		buf = append(buf, 0, 0, 0, 0)
		buf = part.AppendTo(buf)
		if buf, err = sealFrame(buf, start); err != nil {
			return Empty, err
		}
	}
	return Of(buf), nil
}
