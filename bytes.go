package zbytes

import (
	"encoding/hex"
	"io"
	"log/slog"
	"strings"
)

// maxLoggedBytes bounds how much of a payload ends up in a log line.
const maxLoggedBytes = 32

// Bytes is an immutable, owned buffer of raw octets.
//
// It is the unit of exchange at every boundary: payloads, attachments and
// query parameters all travel as Bytes. Two Bytes are equal when their
// content is equal, so Bytes can be compared with == and used as map keys.
// The zero value is the empty buffer.
type Bytes struct {
	data string
}

// Empty is the zero-length Bytes.
var Empty = Bytes{}

// Of copies buf into a new Bytes. Later writes to buf are not observed.
func Of(buf []byte) Bytes {
	return Bytes{data: string(buf)}
}

// FromString returns the UTF-8 bytes of s, without any framing.
func FromString(s string) Bytes {
	return Bytes{data: s}
}

func (b Bytes) Len() int {
	return len(b.data)
}

func (b Bytes) IsEmpty() bool {
	return len(b.data) == 0
}

// ToSlice returns a fresh copy of the content.
func (b Bytes) ToSlice() []byte {
	return []byte(b.data)
}

// AppendTo appends the content to dst and returns the extended slice.
func (b Bytes) AppendTo(dst []byte) []byte {
	return append(dst, b.data...)
}

func (b Bytes) Equal(other Bytes) bool {
	return b.data == other.data
}

// Reader returns a reader over the content.
func (b Bytes) Reader() io.Reader {
	return strings.NewReader(b.data)
}

func (b Bytes) Hex() string {
	return hex.EncodeToString([]byte(b.data))
}

// String renders the content as lowercase hexadecimal.
func (b Bytes) String() string {
	return b.Hex()
}

func (b Bytes) LogValue() slog.Value {
	head := b.data
	if len(head) > maxLoggedBytes {
		head = head[:maxLoggedBytes]
	}
	return slog.GroupValue(
		slog.Int("len", len(b.data)),
		slog.String("head", hex.EncodeToString([]byte(head))),
	)
}

// slice returns the sub-buffer [from, to) without copying.
func (b Bytes) slice(from, to int) Bytes {
	return Bytes{data: b.data[from:to]}
}
