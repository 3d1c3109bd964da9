package flow

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hashicorp/go-metrics"
	"github.com/quic-go/quic-go"
	"github.com/raskyld/zbytes/pkg/telemetry"
)

// RawReceiver is a non-thread safe and blocking flow which should
// only be used by power users.
//
// Methods MUST NOT be called concurrently.
type RawReceiver interface {
	Recv(Decoder) (any, error)
	Close() error
}

// Decoder can decode messages from a `quic.ReceiveStream`.
//
// Decode is supposed to return an error wrapping
// [zbytes.ErrMalformedPayload] or [zbytes.ErrUnsupportedType] when a whole
// frame was consumed but its content could not be decoded. Any other
// error is final.
type Decoder interface {
	Decode(quic.ReceiveStream) (any, error)
}

// Receiver is a thread-safe and typed flow reader.
//
// Frames that do not decode, or decode to another type than T, are logged,
// counted and skipped. Any other failure closes the Receiver: the messages
// already read are still returned by Recv, then the failure.
type Receiver[T any] struct {
	raw    RawReceiver
	dec    Decoder
	logger *slog.Logger
	msink  metrics.MetricSink
	labels []metrics.Label

	readCh     chan T
	closeCh    chan struct{}
	mainLoopWg sync.WaitGroup

	// handle Close sync.
	err    error
	closed bool
	lk     sync.Mutex
}

func NewReceiver[T any](raw RawReceiver, dec Decoder, opts ...Option) *Receiver[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	r := &Receiver[T]{
		raw:    raw,
		dec:    dec,
		logger: o.logger(),
		msink:  o.msink,
		labels: o.metricLabels,

		readCh:  make(chan T, o.bufferSize),
		closeCh: make(chan struct{}),
	}

	r.mainLoopWg.Add(1)
	go r.run()

	return r
}

func (r *Receiver[T]) Recv(ctx context.Context) (result T, err error) {
	r.lk.Lock()
	if r.closed {
		r.lk.Unlock()
		return result, ErrFlowClosed
	}
	r.lk.Unlock()

	select {
	case <-ctx.Done():
		return result, ctx.Err()
	case elem, ok := <-r.readCh:
		if !ok {
			return result, r.err
		}
		return elem, nil
	}
}

// Close stops reading and closes the raw flow. Messages not yet returned
// by Recv are discarded.
func (r *Receiver[T]) Close() error {
	r.lk.Lock()
	r.closed = true
	r.lk.Unlock()
	return r.closeWith(ErrFlowClosed, true)
}

func (r *Receiver[T]) closeWith(cause error, mustWait bool) error {
	r.lk.Lock()
	if r.err != nil {
		r.lk.Unlock()
		return nil
	}
	r.err = cause
	close(r.closeCh)
	err := r.raw.Close()
	r.lk.Unlock()
	if mustWait {
		r.mainLoopWg.Wait()
	}
	close(r.readCh)
	return err
}

func (r *Receiver[T]) run() {
	defer r.mainLoopWg.Done()
	for {
		elem, err := r.raw.Recv(r.dec)
		if err != nil {
			if isPayloadError(err) {
				r.logger.Warn("skipping undecodable frame", telemetry.LabelError.L(err))
				continue
			}
			_ = r.closeWith(err, false)
			return
		}

		msg, ok := elem.(T)
		if !ok {
			err := mismatch[T](elem)
			r.msink.IncrCounterWithLabels(telemetry.MetricFlowTypeMismatches, 1, r.labels)
			r.logger.Warn("skipping message of unexpected type", telemetry.LabelError.L(err))
			continue
		}

		select {
		case <-r.closeCh:
			return
		case r.readCh <- msg:
		}
	}
}
