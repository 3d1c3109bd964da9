package flow

import (
	"encoding/binary"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

// DefaultMaxFrameSize bounds the frames a decoder accepts when no limit is
// configured.
const DefaultMaxFrameSize = 16 << 20

// writeFrame writes payload prefixed by its length as a protobuf varint,
// in a single Write. It returns the number of bytes written on the wire.
func writeFrame(w io.Writer, payload []byte) (int, error) {
	buf := make([]byte, 0, binary.MaxVarintLen64+len(payload))
	buf = protowire.AppendVarint(buf, uint64(len(payload)))
	buf = append(buf, payload...)
	n, err := w.Write(buf)
	return n, err
}

// readFrame reads one varint-prefixed frame. The prefix is consumed one
// byte at a time so nothing past the frame is read from r.
func readFrame(r io.Reader, maxSize uint64) ([]byte, error) {
	var prefix [binary.MaxVarintLen64]byte
	n := 0
	for {
		if n == len(prefix) {
			return nil, fmt.Errorf("%w: length prefix overflows a varint", ErrMalformedFrame)
		}
		if _, err := io.ReadFull(r, prefix[n:n+1]); err != nil {
			if n > 0 && err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		n++
		if prefix[n-1] < 0x80 {
			break
		}
	}

	size, m := protowire.ConsumeVarint(prefix[:n])
	if err := protowire.ParseError(m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}
	if size > maxSize {
		return nil, fmt.Errorf("%w: %d bytes, limit is %d", ErrFrameTooLarge, size, maxSize)
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf, nil
}
