package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeafRoundtrip(t *testing.T) {
	samples := []float64{1.5, -2.25, 0, 3.125, 1e-9}
	meta := []byte("<trace><gps><sats>5</sats></gps></trace>")

	frame, err := EncodeLeaf(samples, meta, false)
	require.NoError(t, err)

	got, gotMeta, err := DecodeLeaf(frame)
	require.NoError(t, err)
	assert.Equal(t, samples, got)
	assert.Equal(t, meta, gotMeta)
}

func TestLeafRoundtripCompressed(t *testing.T) {
	// Repetitive payload so LZ4 actually shrinks it.
	samples := make([]float64, 512)
	for i := range samples {
		samples[i] = float64(i % 4)
	}

	frame, err := EncodeLeaf(samples, []byte("m"), true)
	require.NoError(t, err)
	assert.Less(t, len(frame), 8*len(samples))

	got, gotMeta, err := DecodeLeaf(frame)
	require.NoError(t, err)
	assert.Equal(t, samples, got)
	assert.Equal(t, []byte("m"), gotMeta)
}

func TestLeafEmptySamples(t *testing.T) {
	frame, err := EncodeLeaf(nil, nil, true)
	require.NoError(t, err)

	got, gotMeta, err := DecodeLeaf(frame)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, gotMeta)
}

func TestDecodeLeafCorrupt(t *testing.T) {
	frame, err := EncodeLeaf([]float64{1, 2, 3}, []byte("meta"), false)
	require.NoError(t, err)

	// Flip one body byte: CRC must catch it.
	frame[leafHeaderSize] ^= 0xff
	_, _, err = DecodeLeaf(frame)
	var cme *ChecksumMismatchError
	require.ErrorAs(t, err, &cme)
}

func TestDecodeLeafBadFrames(t *testing.T) {
	frame, err := EncodeLeaf([]float64{1}, nil, false)
	require.NoError(t, err)

	_, _, err = DecodeLeaf(frame[:10])
	assert.Error(t, err) // truncated

	bad := append([]byte(nil), frame...)
	copy(bad[0:4], "XXXX")
	_, _, err = DecodeLeaf(bad)
	assert.Error(t, err) // magic

	bad = append([]byte(nil), frame...)
	bad[4] = 99
	_, _, err = DecodeLeaf(bad)
	assert.Error(t, err) // version
}
