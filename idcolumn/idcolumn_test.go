package idcolumn

import (
	"testing"

	"github.com/maplibre/mlt-go/endian"
	"github.com/maplibre/mlt-go/format"
	"github.com/stretchr/testify/require"
)

func u64p(v uint64) *uint64 { return &v }

func TestIdColumnRoundtripAbsent(t *testing.T) {
	data, err := EncodeSubStreams(nil)
	require.NoError(t, err)

	subs, n, err := DecodeSubStreams(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Nil(t, subs)
}

func TestIdColumnRoundtripPresent(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	col := Column{u64p(10), nil, u64p(30)}

	subs, err := EncodeToSubStreams(col, Width64, engine)
	require.NoError(t, err)

	data, err := EncodeSubStreams(subs)
	require.NoError(t, err)

	parsedSubs, n, err := DecodeSubStreams(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)

	got, err := DecodeFromSubStreams(parsedSubs, Width64, engine)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, uint64(10), *got[0])
	require.Nil(t, got[1])
	require.Equal(t, uint64(30), *got[2])
}

func TestWidthForColumnType(t *testing.T) {
	w, err := WidthForColumnType(format.OptId)
	require.NoError(t, err)
	require.Equal(t, Width32, w)

	w, err = WidthForColumnType(format.LongId)
	require.NoError(t, err)
	require.Equal(t, Width64, w)

	_, err = WidthForColumnType(format.Str)
	require.Error(t, err)
}

func TestDecodeSubStreamsRejectsBadNumStreams(t *testing.T) {
	_, _, err := DecodeSubStreams([]byte{3})
	require.Error(t, err)
}
