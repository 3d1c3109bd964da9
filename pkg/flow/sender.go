package flow

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/hashicorp/go-metrics"
	"github.com/quic-go/quic-go"
	"github.com/raskyld/zbytes/pkg/telemetry"
)

// RawSender is a non-thread safe and blocking flow which should
// only be used by power users.
//
// Methods MUST NOT be called concurrently.
type RawSender interface {
	Send(Encoder, any) error
	Close() error
}

// Encoder can encode messages on a `quic.SendStream`.
//
// Encode is supposed to return an error wrapping
// [zbytes.ErrMalformedPayload], [zbytes.ErrUnsupportedType] or
// [ErrTypeMismatch] when nothing was written and the stream can still be
// used. Any other error is final.
type Encoder interface {
	Encode(quic.SendStream, any) error
	ProcessLocal(any) (any, error)
}

// Sender is a thread-safe and typed flow writer.
//
// Messages are queued by Send and written by a background loop. A message
// the encoder rejects is logged and dropped; any other failure closes the
// Sender and is returned by the next calls to Send.
type Sender[T any] struct {
	raw    RawSender
	enc    Encoder
	logger *slog.Logger
	msink  metrics.MetricSink
	labels []metrics.Label

	writeCh    chan T
	closeCh    chan struct{}
	mainLoopWg sync.WaitGroup

	// handle Close sync.
	writer   sync.WaitGroup
	err      error
	closeErr error
	lk       sync.Mutex
}

func NewSender[T any](raw RawSender, enc Encoder, opts ...Option) *Sender[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	w := &Sender[T]{
		raw:    raw,
		enc:    enc,
		logger: o.logger(),
		msink:  o.msink,
		labels: o.metricLabels,

		writeCh: make(chan T, o.bufferSize),
		closeCh: make(chan struct{}),
	}

	w.mainLoopWg.Add(1)
	go w.run()

	return w
}

func (w *Sender[T]) Send(ctx context.Context, msg T) error {
	w.lk.Lock()
	if w.err != nil {
		w.lk.Unlock()
		return w.err
	}
	w.writer.Add(1)
	defer w.writer.Done()
	w.lk.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-w.closeCh:
		return w.err
	case w.writeCh <- msg:
	}

	return nil
}

// Close stops accepting messages, waits for the queued ones to be written
// and closes the raw flow.
func (w *Sender[T]) Close() error {
	w.closeWith(ErrFlowClosed)
	w.mainLoopWg.Wait()
	return w.closeErr
}

func (w *Sender[T]) closeWith(cause error) {
	w.lk.Lock()
	defer w.lk.Unlock()
	if w.err != nil {
		return
	}
	w.err = cause
	close(w.closeCh)
	w.writer.Wait()
	close(w.writeCh)
}

func (w *Sender[T]) run() {
	defer w.mainLoopWg.Done()
	defer func() {
		w.closeErr = w.raw.Close()
	}()

	for msg := range w.writeCh {
		err := w.raw.Send(w.enc, msg)
		if err == nil {
			continue
		}
		if isPayloadError(err) {
			if errors.Is(err, ErrTypeMismatch) {
				w.msink.IncrCounterWithLabels(telemetry.MetricFlowTypeMismatches, 1, w.labels)
			}
			w.logger.Warn("dropping message the encoder rejected", telemetry.LabelError.L(err))
			continue
		}
		w.logger.Error("closing sender", telemetry.LabelError.L(err))
		w.closeWith(err)
		return
	}
}
