package physical

import (
	"math/rand"
	"testing"

	"github.com/maplibre/mlt-go/endian"
	"github.com/stretchr/testify/require"
)

func TestNoneU32Roundtrip(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	values := []uint32{0, 1, 42, 4096, 1 << 30}

	data := encodeNoneU32(engine, values)
	got, err := decodeNoneU32(engine, data, len(values))
	require.NoError(t, err)
	require.Equal(t, values, got)
}

func TestVarIntU32Roundtrip(t *testing.T) {
	values := []uint32{0, 1, 127, 128, 1 << 20}

	data := encodeVarIntU32(values)
	got, err := decodeVarIntU32(data, len(values))
	require.NoError(t, err)
	require.Equal(t, values, got)
}

func TestFastPFORRoundtripSmall(t *testing.T) {
	values := []uint32{0, 1, 2, 3, 100, 4096, 13, 42}

	data := EncodeFastPFOR(values)
	got, err := DecodeFastPFOR(data, len(values))
	require.NoError(t, err)
	require.Equal(t, values, got)
}

func TestFastPFORRoundtripExactBlock(t *testing.T) {
	values := make([]uint32, blockSize)
	r := rand.New(rand.NewSource(1))
	for i := range values {
		values[i] = uint32(r.Intn(1 << 20))
	}

	data := EncodeFastPFOR(values)
	got, err := DecodeFastPFOR(data, len(values))
	require.NoError(t, err)
	require.Equal(t, values, got)
}

func TestFastPFORRoundtripMultiBlockWithTail(t *testing.T) {
	values := make([]uint32, blockSize*3+37)
	r := rand.New(rand.NewSource(2))
	for i := range values {
		values[i] = uint32(r.Intn(1 << 28))
	}
	// Force some large outliers to exercise the exception path.
	values[5] = 1 << 31
	values[blockSize+1] = 1 << 30

	data := EncodeFastPFOR(values)
	got, err := DecodeFastPFOR(data, len(values))
	require.NoError(t, err)
	require.Equal(t, values, got)
}

func TestFastPFORAllZero(t *testing.T) {
	values := make([]uint32, blockSize)

	data := EncodeFastPFOR(values)
	got, err := DecodeFastPFOR(data, len(values))
	require.NoError(t, err)
	require.Equal(t, values, got)
}

func TestDecodeU64FastPFORUnsupported(t *testing.T) {
	_, err := DecodeU64(FastPFOR, endian.GetLittleEndianEngine(), nil, 4)
	require.Error(t, err)
}
