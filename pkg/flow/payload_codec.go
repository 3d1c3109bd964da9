package flow

import (
	"fmt"

	"github.com/hashicorp/go-metrics"
	"github.com/klauspost/compress/zstd"
	"github.com/quic-go/quic-go"
	"github.com/raskyld/zbytes"
	"github.com/raskyld/zbytes/pkg/telemetry"
)

// PayloadCodec frames values of type T encoded with a [zbytes.Codec].
//
// Each value is one varint-prefixed frame whose content is the codec's
// output, optionally compressed with zstd. It implements both [Encoder]
// and [Decoder] and is safe for concurrent use.
type PayloadCodec[T any] struct {
	codec zbytes.Codec[T]
	opts  codecOptions

	zenc *zstd.Encoder
	zdec *zstd.Decoder
}

var (
	_ Encoder = (*PayloadCodec[int32])(nil)
	_ Decoder = (*PayloadCodec[int32])(nil)
)

func NewPayloadCodec[T any](codec zbytes.Codec[T], opts ...CodecOption) (*PayloadCodec[T], error) {
	pc := &PayloadCodec[T]{
		codec: codec,
		opts: codecOptions{
			maxFrameSize: DefaultMaxFrameSize,
			msink:        &metrics.BlackholeSink{},
		},
	}
	for _, opt := range opts {
		opt(&pc.opts)
	}

	if pc.opts.compress {
		var err error
		pc.zenc, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("flow: zstd encoder: %w", err)
		}
		pc.zdec, err = zstd.NewReader(nil,
			zstd.WithDecoderMaxMemory(pc.opts.maxFrameSize),
			zstd.WithDecoderConcurrency(0),
		)
		if err != nil {
			return nil, fmt.Errorf("flow: zstd decoder: %w", err)
		}
	}
	return pc, nil
}

// Type is the descriptor of the values carried by the codec.
func (pc *PayloadCodec[T]) Type() zbytes.Type {
	return pc.codec.Type()
}

func (pc *PayloadCodec[T]) labels() []metrics.Label {
	return telemetry.With(pc.opts.metricLabels, telemetry.LabelType.M(pc.codec.Type().String()))
}

func (pc *PayloadCodec[T]) Encode(stream quic.SendStream, msg any) error {
	value, ok := msg.(T)
	if !ok {
		return mismatch[T](msg)
	}

	buf, err := pc.codec.AppendBytes(nil, value)
	if err != nil {
		pc.opts.msink.IncrCounterWithLabels(telemetry.MetricFlowEncodeErrors, 1, pc.labels())
		return err
	}
	if pc.zenc != nil {
		buf = pc.zenc.EncodeAll(buf, nil)
	}

	n, err := writeFrame(stream, buf)
	if err != nil {
		return err
	}
	labels := pc.labels()
	pc.opts.msink.IncrCounterWithLabels(telemetry.MetricFlowFramesOut, 1, labels)
	pc.opts.msink.IncrCounterWithLabels(telemetry.MetricFlowBytesOut, float32(n), labels)
	return nil
}

func (pc *PayloadCodec[T]) Decode(stream quic.ReceiveStream) (any, error) {
	buf, err := readFrame(stream, pc.opts.maxFrameSize)
	if err != nil {
		return nil, err
	}
	labels := pc.labels()
	pc.opts.msink.IncrCounterWithLabels(telemetry.MetricFlowFramesIn, 1, labels)
	pc.opts.msink.IncrCounterWithLabels(telemetry.MetricFlowBytesIn, float32(len(buf)), labels)

	value, err := pc.decodePayload(buf)
	if err != nil {
		pc.opts.msink.IncrCounterWithLabels(telemetry.MetricFlowDecodeErrors, 1, labels)
		return nil, err
	}
	return value, nil
}

func (pc *PayloadCodec[T]) decodePayload(buf []byte) (value T, err error) {
	if pc.zdec != nil {
		buf, err = pc.zdec.DecodeAll(buf, nil)
		if err != nil {
			err = fmt.Errorf("%w: zstd: %w", zbytes.ErrMalformedPayload, err)
			return
		}
	}
	return zbytes.Deserialize(pc.codec, zbytes.Of(buf), zbytes.WithRegistry(pc.opts.registry))
}

// ProcessLocal is used by in-process flows. With [WithLocalCopy], the
// message goes through the codec and back so sender and receiver share
// no memory. Compression is skipped.
func (pc *PayloadCodec[T]) ProcessLocal(msg any) (any, error) {
	value, ok := msg.(T)
	if !ok {
		return nil, mismatch[T](msg)
	}
	if !pc.opts.localCopy {
		return value, nil
	}

	b, err := zbytes.Serialize(pc.codec, value)
	if err != nil {
		return nil, err
	}
	return zbytes.Deserialize(pc.codec, b, zbytes.WithRegistry(pc.opts.registry))
}

// Close releases the zstd decoder, if any.
func (pc *PayloadCodec[T]) Close() {
	if pc.zdec != nil {
		pc.zdec.Close()
	}
}
