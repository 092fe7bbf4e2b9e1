package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Seq     int      `msgpack:"seq"`
	Channel string   `msgpack:"channel"`
	Payload []byte   `msgpack:"payload"`
	Tags    []string `msgpack:"tags,omitempty"`
}

func TestCodec_RoundTrip(t *testing.T) {
	bb := newBuffer(t, 0, 64)
	enc := NewEncoder(NewWriter(bb, 0))
	dec := NewDecoder(NewReader(bb, 0))

	in := []sample{
		{Seq: 1, Channel: "audio", Payload: []byte{1, 2, 3}},
		{Seq: 2, Channel: "ctrl", Tags: []string{"a", "b"}},
		{Seq: 3, Channel: "audio", Payload: make([]byte, 200)},
	}
	for _, s := range in {
		require.NoError(t, enc.Encode(s))
	}
	assert.GreaterOrEqual(t, bb.Cap(), bb.UsedSize())

	for _, want := range in {
		var got sample
		require.NoError(t, dec.Decode(&got))
		assert.Equal(t, want.Seq, got.Seq)
		assert.Equal(t, want.Channel, got.Channel)
		assert.Equal(t, len(want.Payload), len(got.Payload))
		assert.Equal(t, want.Tags, got.Tags)
	}

	var extra sample
	assert.ErrorIs(t, dec.Decode(&extra), ErrIncomplete)
}

func TestCodec_BadRecordIsConsumed(t *testing.T) {
	bb := newBuffer(t, 64, 64)
	w := NewWriter(bb, 0)
	require.NoError(t, w.WriteFrame([]byte{0xc1})) // never used by msgpack
	require.NoError(t, NewEncoder(w).Encode(sample{Seq: 9}))

	dec := NewDecoder(NewReader(bb, 0))
	var got sample
	require.Error(t, dec.Decode(&got))
	require.NoError(t, dec.Decode(&got))
	assert.Equal(t, 9, got.Seq)
}
