package fsst

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildTable(t *testing.T, symbols ...string) Table {
	var bytes []byte
	var lengths []uint8

	for _, s := range symbols {
		bytes = append(bytes, []byte(s)...)
		lengths = append(lengths, uint8(len(s)))
	}

	tbl, err := NewTable(bytes, lengths)
	require.NoError(t, err)

	return tbl
}

func TestDecodeBasic(t *testing.T) {
	tbl := buildTable(t, "hello", "world", " ")

	// index 0 = "hello", index 2 = " ", index 1 = "world"
	encoded := []byte{0, 2, 1}

	decoded, err := tbl.Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(decoded))
}

func TestDecodeEscape(t *testing.T) {
	tbl := buildTable(t, "ab")

	encoded := []byte{escapeByte, 'x', 0, escapeByte, 'y'}

	decoded, err := tbl.Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, "xaby", string(decoded))
}

func TestDecodeOutOfRangeIndex(t *testing.T) {
	tbl := buildTable(t, "a")

	_, err := tbl.Decode([]byte{5})
	require.Error(t, err)
}

func TestEncodeDecodeRoundtrip(t *testing.T) {
	tbl := buildTable(t, "the", "quick", "brown", "fox", " ")

	inputs := []string{
		"the quick brown fox",
		"quick the fox fox fox",
		"zzz not in table zzz",
		"",
	}

	for _, s := range inputs {
		encoded := tbl.Encode([]byte(s))

		decoded, err := tbl.Decode(encoded)
		require.NoError(t, err)
		require.Equal(t, s, string(decoded))
	}
}

func TestNewTableRejectsOversizedTable(t *testing.T) {
	lengths := make([]uint8, 256)
	for i := range lengths {
		lengths[i] = 1
	}

	_, err := NewTable(make([]byte, 256), lengths)
	require.Error(t, err)
}

func TestNewTableRejectsInconsistentLengths(t *testing.T) {
	_, err := NewTable([]byte{'a'}, []uint8{5})
	require.Error(t, err)
}
