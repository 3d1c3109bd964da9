package flow

import (
	"github.com/quic-go/quic-go"
)

// StreamCancelled is the application error code sent to the peer when a
// receiver stops reading a stream.
const StreamCancelled quic.StreamErrorCode = 0xC

// RemoteSender writes frames on a QUIC stream. Closing it closes the write
// direction of the stream.
type RemoteSender struct {
	quic.SendStream
}

var _ RawSender = RemoteSender{}

func (s RemoteSender) Send(enc Encoder, msg any) error {
	return enc.Encode(s.SendStream, msg)
}

// RemoteReceiver reads frames from a QUIC stream.
type RemoteReceiver struct {
	quic.ReceiveStream
}

var _ RawReceiver = RemoteReceiver{}

func (r RemoteReceiver) Recv(dec Decoder) (any, error) {
	return dec.Decode(r.ReceiveStream)
}

func (r RemoteReceiver) Close() error {
	r.CancelRead(StreamCancelled)
	return nil
}
