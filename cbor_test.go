package zbytes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type reading struct {
	Sensor string            `cbor:"sensor"`
	Value  float64           `cbor:"value"`
	Tags   map[string]string `cbor:"tags,omitempty"`
}

func TestCBOR(t *testing.T) {
	codec := CBOR[reading]("example.Reading")

	t.Run("round trip", func(t *testing.T) {
		r := reading{Sensor: "temp-1", Value: 21.5, Tags: map[string]string{"room": "lab"}}
		require.Equal(t, r, roundTrip(t, codec, r))
		require.Equal(t, "example.Reading", codec.Type().String())
	})

	t.Run("deterministic encoding", func(t *testing.T) {
		tags := map[string]string{"z": "1", "a": "2", "m": "3"}
		first := MustSerialize(codec, reading{Sensor: "s", Tags: tags})
		for i := 0; i < 10; i++ {
			require.Equal(t, first, MustSerialize(codec, reading{Sensor: "s", Tags: tags}))
		}
	})

	t.Run("framed inside composites", func(t *testing.T) {
		m := map[string]reading{
			"kitchen": {Sensor: "k", Value: 19},
			"garage":  {Sensor: "g", Value: -2.25},
		}
		require.Equal(t, m, roundTrip(t, Map(String, codec), m))
	})

	t.Run("garbage is malformed", func(t *testing.T) {
		_, err := Deserialize(codec, Of([]byte{0xff, 0x00}))
		require.ErrorIs(t, err, ErrMalformedPayload)
	})
}
