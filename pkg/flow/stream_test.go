package flow

import (
	"bytes"
	"io"
	"strings"
	"sync"

	"github.com/hashicorp/go-metrics"
	"github.com/quic-go/quic-go"
	"github.com/stretchr/testify/mock"
)

// memSendStream records what is written on a QUIC send stream.
type memSendStream struct {
	quic.SendStream

	lk     sync.Mutex
	buf    bytes.Buffer
	closed bool
	err    error
}

func (s *memSendStream) Write(p []byte) (int, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	return s.buf.Write(p)
}

func (s *memSendStream) Close() error {
	s.lk.Lock()
	defer s.lk.Unlock()
	s.closed = true
	return nil
}

func (s *memSendStream) Bytes() []byte {
	s.lk.Lock()
	defer s.lk.Unlock()
	return bytes.Clone(s.buf.Bytes())
}

func (s *memSendStream) Closed() bool {
	s.lk.Lock()
	defer s.lk.Unlock()
	return s.closed
}

// memReceiveStream serves a QUIC receive stream from a reader.
type memReceiveStream struct {
	quic.ReceiveStream

	r         io.Reader
	lk        sync.Mutex
	cancelled []quic.StreamErrorCode
}

func newReceiveStream(data []byte) *memReceiveStream {
	return &memReceiveStream{r: bytes.NewReader(data)}
}

func (s *memReceiveStream) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

func (s *memReceiveStream) CancelRead(code quic.StreamErrorCode) {
	s.lk.Lock()
	defer s.lk.Unlock()
	s.cancelled = append(s.cancelled, code)
}

// mockSink asserts on counters and ignores every other metric.
type mockSink struct {
	metrics.BlackholeSink
	mock.Mock
}

func (m *mockSink) IncrCounterWithLabels(key []string, val float32, labels []metrics.Label) {
	m.Called(strings.Join(key, "."), val, labels)
}
