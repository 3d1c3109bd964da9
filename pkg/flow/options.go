package flow

import (
	"log/slog"

	"github.com/hashicorp/go-metrics"
	"github.com/raskyld/zbytes"
)

type options struct {
	bufferSize   uint
	logHandler   slog.Handler
	msink        metrics.MetricSink
	metricLabels []metrics.Label
}

func defaultOptions() options {
	return options{
		bufferSize: 16,
		msink:      &metrics.BlackholeSink{},
	}
}

func (o *options) logger() *slog.Logger {
	if o.logHandler == nil {
		return slog.Default()
	}
	return slog.New(o.logHandler)
}

// Option to pass to [NewSender] and [NewReceiver].
type Option func(*options)

// WithBufferSize sets how many messages can be queued before Send blocks
// or before the receiving loop stops reading the flow.
func WithBufferSize(size uint) Option {
	return func(o *options) {
		o.bufferSize = size
	}
}

// WithLog specifies which `slog.Handler` to use.
func WithLog(handler slog.Handler) Option {
	return func(o *options) {
		o.logHandler = handler
	}
}

// WithMetricSink allows you to chose how to collect the metrics emitted
// by the flow.
func WithMetricSink(ms metrics.MetricSink) Option {
	return func(o *options) {
		if ms == nil {
			ms = &metrics.BlackholeSink{}
		}
		o.msink = ms
	}
}

// WithMetricLabels adds static labels to all metrics produced by the flow.
func WithMetricLabels(labels []metrics.Label) Option {
	return func(o *options) {
		o.metricLabels = labels
	}
}

type codecOptions struct {
	localCopy    bool
	compress     bool
	maxFrameSize uint64
	registry     *zbytes.Registry
	msink        metrics.MetricSink
	metricLabels []metrics.Label
}

// CodecOption to pass to [NewPayloadCodec].
type CodecOption func(*codecOptions)

// WithLocalCopy makes in-process flows hand a deep copy of every message
// to the receiver instead of the value the sender passed.
func WithLocalCopy() CodecOption {
	return func(o *codecOptions) {
		o.localCopy = true
	}
}

// WithCompression compresses every frame with zstd. Both ends of a flow
// must agree on it.
func WithCompression() CodecOption {
	return func(o *codecOptions) {
		o.compress = true
	}
}

// WithMaxFrameSize bounds the size of the frames the codec accepts, and
// of their decompressed content. Zero restores [DefaultMaxFrameSize].
func WithMaxFrameSize(size uint64) CodecOption {
	return func(o *codecOptions) {
		if size == 0 {
			size = DefaultMaxFrameSize
		}
		o.maxFrameSize = size
	}
}

// WithRegistry makes the codec decode through reg.
func WithRegistry(reg *zbytes.Registry) CodecOption {
	return func(o *codecOptions) {
		o.registry = reg
	}
}

// WithCodecMetrics sets where the codec reports frame counts and sizes.
func WithCodecMetrics(ms metrics.MetricSink, labels []metrics.Label) CodecOption {
	return func(o *codecOptions) {
		if ms == nil {
			ms = &metrics.BlackholeSink{}
		}
		o.msink = ms
		o.metricLabels = labels
	}
}
