package flow

import (
	"log/slog"

	"github.com/raskyld/zbytes"
	"github.com/raskyld/zbytes/pkg/telemetry"
)

// Sample is what a publisher emits on a key expression: an opaque
// payload and an optional attachment, both produced by zbytes codecs.
type Sample struct {
	KeyExpr    string
	Payload    zbytes.Bytes
	Attachment zbytes.Bytes
}

func (s Sample) LogValue() slog.Value {
	return slog.GroupValue(
		telemetry.LabelKeyExpr.L(s.KeyExpr),
		telemetry.LabelPayload.L(s.Payload),
		slog.Int("attachment_len", s.Attachment.Len()),
	)
}

// SampleCodec encodes a Sample as triple<string,bytes,bytes>.
var SampleCodec zbytes.Codec[Sample] = sampleCodec{
	inner: zbytes.TripleOf(zbytes.String, zbytes.Buffer, zbytes.Buffer),
}

type sampleCodec struct {
	inner zbytes.Codec[zbytes.Triple[string, zbytes.Bytes, zbytes.Bytes]]
}

func (c sampleCodec) Type() zbytes.Type {
	return c.inner.Type()
}

func (c sampleCodec) AppendBytes(dst []byte, s Sample) ([]byte, error) {
	return c.inner.AppendBytes(dst, zbytes.NewTriple(s.KeyExpr, s.Payload, s.Attachment))
}

func (c sampleCodec) Decode(b zbytes.Bytes, reg *zbytes.Registry) (Sample, error) {
	t, err := c.inner.Decode(b, reg)
	if err != nil {
		return Sample{}, err
	}
	return Sample{KeyExpr: t.First, Payload: t.Second, Attachment: t.Third}, nil
}

// NewSample encodes payload and attachment with their codecs.
func NewSample[P, A any](keyExpr string, payload zbytes.Codec[P], p P, attachment zbytes.Codec[A], a A) (Sample, error) {
	pb, err := zbytes.Serialize(payload, p)
	if err != nil {
		return Sample{}, err
	}
	ab, err := zbytes.Serialize(attachment, a)
	if err != nil {
		return Sample{}, err
	}
	return Sample{KeyExpr: keyExpr, Payload: pb, Attachment: ab}, nil
}
