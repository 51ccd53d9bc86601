package rle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunsOfExpandRoundtrip(t *testing.T) {
	values := []uint64{5, 5, 5, 7, 7, 1, 1, 1, 1}

	lens, vals := RunsOf(values)
	got, err := Expand(lens, vals)
	require.NoError(t, err)
	require.Equal(t, values, got)
}

func TestByteRLERoundtrip(t *testing.T) {
	data := []byte{1, 1, 1, 1, 1, 2, 3, 4, 5, 6, 7, 7, 7}

	encoded := EncodeByteRLE(data)
	decoded, n, err := DecodeByteRLE(encoded, len(data))
	require.NoError(t, err)
	require.Equal(t, len(encoded), n)
	require.Equal(t, data, decoded)
}

func TestDecodeByteRLESpec(t *testing.T) {
	// §4.1: control byte 0x03 is a run of 3+3=6 copies of 0x01; asking for
	// 5 bytes stops the run after 5 copies, having consumed both input bytes.
	result, n, err := DecodeByteRLE([]byte{0x03, 0x01}, 5)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []byte{1, 1, 1, 1, 1}, result)
}

func TestBooleanRLERoundtrip(t *testing.T) {
	bits := []bool{true, false, true, true, false, false, false, true, true}

	encoded := EncodeBooleanRLE(bits)
	decoded, _, err := DecodeBooleanRLE(encoded, len(bits))
	require.NoError(t, err)
	require.Equal(t, bits, decoded)
}
