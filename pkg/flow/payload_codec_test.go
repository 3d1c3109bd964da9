package flow

import (
	"bytes"
	"testing"

	"github.com/hashicorp/go-metrics"
	"github.com/raskyld/zbytes"
	"github.com/raskyld/zbytes/pkg/telemetry"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

var readingsCodec = zbytes.Map(zbytes.String, zbytes.List(zbytes.Int32))

func TestPayloadCodec_Stream(t *testing.T) {
	value := map[string][]int32{
		"kitchen": {19, 20, 21},
		"garage":  {},
		"attic":   {-4},
	}

	for _, tc := range []struct {
		name string
		opts []CodecOption
	}{
		{"plain", nil},
		{"zstd", []CodecOption{WithCompression()}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			codec, err := NewPayloadCodec(readingsCodec, tc.opts...)
			require.NoError(t, err)
			defer codec.Close()

			out := &memSendStream{}
			require.NoError(t, codec.Encode(out, value))
			require.NoError(t, codec.Encode(out, map[string][]int32{}))

			in := newReceiveStream(out.Bytes())
			first, err := codec.Decode(in)
			require.NoError(t, err)
			require.Equal(t, value, first)

			second, err := codec.Decode(in)
			require.NoError(t, err)
			require.Equal(t, map[string][]int32{}, second)
		})
	}
}

func TestPayloadCodec_Layout(t *testing.T) {
	codec, err := NewPayloadCodec(zbytes.List(zbytes.String))
	require.NoError(t, err)

	out := &memSendStream{}
	require.NoError(t, codec.Encode(out, []string{"sample1", "sample2"}))

	payload := zbytes.MustSerialize(zbytes.List(zbytes.String), []string{"sample1", "sample2"})
	want := protowire.AppendVarint(nil, uint64(payload.Len()))
	want = payload.AppendTo(want)
	require.Equal(t, want, out.Bytes())
}

func TestPayloadCodec_Errors(t *testing.T) {
	t.Run("wrong Go type is a mismatch", func(t *testing.T) {
		codec, err := NewPayloadCodec(zbytes.Int32)
		require.NoError(t, err)

		err = codec.Encode(&memSendStream{}, "1234")
		require.ErrorIs(t, err, ErrTypeMismatch)

		_, err = codec.ProcessLocal(int64(1))
		require.ErrorIs(t, err, ErrTypeMismatch)
	})

	t.Run("malformed payload keeps the stream usable", func(t *testing.T) {
		codec, err := NewPayloadCodec(zbytes.Int32)
		require.NoError(t, err)

		var data bytes.Buffer
		_, _ = writeFrame(&data, []byte{1, 2, 3})
		_, _ = writeFrame(&data, []byte{1, 0, 0, 0})

		in := newReceiveStream(data.Bytes())
		_, err = codec.Decode(in)
		require.ErrorIs(t, err, zbytes.ErrMalformedPayload)
		require.True(t, isPayloadError(err))

		v, err := codec.Decode(in)
		require.NoError(t, err)
		require.Equal(t, int32(1), v)
	})

	t.Run("frame limit", func(t *testing.T) {
		codec, err := NewPayloadCodec(zbytes.String, WithMaxFrameSize(4))
		require.NoError(t, err)

		out := &memSendStream{}
		require.NoError(t, codec.Encode(out, "way too long"))

		_, err = codec.Decode(newReceiveStream(out.Bytes()))
		require.ErrorIs(t, err, ErrFrameTooLarge)
		require.False(t, isPayloadError(err))
	})

	t.Run("garbage instead of zstd", func(t *testing.T) {
		codec, err := NewPayloadCodec(zbytes.String, WithCompression())
		require.NoError(t, err)
		defer codec.Close()

		var data bytes.Buffer
		_, _ = writeFrame(&data, []byte("not zstd"))
		_, err = codec.Decode(newReceiveStream(data.Bytes()))
		require.ErrorIs(t, err, zbytes.ErrMalformedPayload)
	})
}

func TestPayloadCodec_Registry(t *testing.T) {
	reg := zbytes.NewRegistry()
	zbytes.RegisterFunc(reg, zbytes.PrimitiveType(zbytes.KindInt32), func(zbytes.Bytes) (int32, error) {
		return -1, nil
	})
	codec, err := NewPayloadCodec(zbytes.List(zbytes.Int32), WithRegistry(reg))
	require.NoError(t, err)

	out := &memSendStream{}
	require.NoError(t, codec.Encode(out, []int32{1, 2}))
	v, err := codec.Decode(newReceiveStream(out.Bytes()))
	require.NoError(t, err)
	require.Equal(t, []int32{-1, -1}, v)
}

func TestPayloadCodec_LocalCopy(t *testing.T) {
	t.Run("shared without copy", func(t *testing.T) {
		codec, err := NewPayloadCodec(zbytes.Raw)
		require.NoError(t, err)

		msg := []byte{1, 2, 3}
		local, err := codec.ProcessLocal(msg)
		require.NoError(t, err)
		msg[0] = 9
		require.Equal(t, []byte{9, 2, 3}, local)
	})

	t.Run("deep copy through the codec", func(t *testing.T) {
		codec, err := NewPayloadCodec(zbytes.List(zbytes.Raw), WithLocalCopy())
		require.NoError(t, err)

		msg := [][]byte{{1, 2, 3}}
		local, err := codec.ProcessLocal(msg)
		require.NoError(t, err)
		msg[0][0] = 9
		require.Equal(t, [][]byte{{1, 2, 3}}, local)
	})
}

func TestPayloadCodec_Metrics(t *testing.T) {
	sink := &mockSink{}
	static := []metrics.Label{telemetry.LabelFlow.M("test")}
	labels := []metrics.Label{telemetry.LabelFlow.M("test"), telemetry.LabelType.M("i64")}

	sink.On("IncrCounterWithLabels", "zbytes.flow.frames.out.count", float32(1), labels).Once()
	sink.On("IncrCounterWithLabels", "zbytes.flow.out.bytes", float32(9), labels).Once()
	sink.On("IncrCounterWithLabels", "zbytes.flow.frames.in.count", float32(1), labels).Once()
	sink.On("IncrCounterWithLabels", "zbytes.flow.in.bytes", float32(8), labels).Once()

	codec, err := NewPayloadCodec(zbytes.Int64, WithCodecMetrics(sink, static))
	require.NoError(t, err)

	out := &memSendStream{}
	require.NoError(t, codec.Encode(out, int64(42)))
	v, err := codec.Decode(newReceiveStream(out.Bytes()))
	require.NoError(t, err)
	require.Equal(t, int64(42), v)

	sink.AssertExpectations(t)

	sink.On("IncrCounterWithLabels", "zbytes.flow.frames.in.count", float32(1), labels).Once()
	sink.On("IncrCounterWithLabels", "zbytes.flow.in.bytes", float32(2), labels).Once()
	sink.On("IncrCounterWithLabels", "zbytes.flow.decode.error.count", float32(1), labels).Once()

	var data bytes.Buffer
	_, _ = writeFrame(&data, []byte{1, 2})
	_, err = codec.Decode(newReceiveStream(data.Bytes()))
	require.ErrorIs(t, err, zbytes.ErrMalformedPayload)

	sink.AssertExpectations(t)
}
