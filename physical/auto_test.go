package physical

import (
	"testing"

	"github.com/maplibre/mlt-go/endian"
	"github.com/stretchr/testify/require"
)

func TestChooseEncodingPrunesFastPFORFor64Bit(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	sample := []uint64{1, 2, 3, 1 << 40, 1 << 50}

	enc, err := ChooseEncoding(engine, sample, 64)
	require.NoError(t, err)
	require.NotEqual(t, FastPFOR, enc)
}

func TestChooseEncodingPicksVarIntForSmallSparseValues(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	sample := make([]uint64, 64)
	for i := range sample {
		sample[i] = uint64(i % 3)
	}

	enc, err := ChooseEncoding(engine, sample, 32)
	require.NoError(t, err)
	require.Equal(t, VarInt, enc)

	size, err := trialEncodeSize(engine, enc, sample, 32)
	require.NoError(t, err)

	for _, candidate := range []Encoding{None, VarInt, FastPFOR} {
		other, err := trialEncodeSize(engine, candidate, sample, 32)
		require.NoError(t, err)
		require.LessOrEqual(t, size, other)
	}
}

func TestChooseEncodingEmptySample(t *testing.T) {
	engine := endian.GetLittleEndianEngine()

	enc, err := ChooseEncoding(engine, nil, 32)
	require.NoError(t, err)
	require.Contains(t, []Encoding{None, VarInt, FastPFOR}, enc)
}
