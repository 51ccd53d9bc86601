package stream

import (
	"testing"

	"github.com/maplibre/mlt-go/endian"
	"github.com/maplibre/mlt-go/format"
	"github.com/maplibre/mlt-go/logical"
	"github.com/maplibre/mlt-go/physical"
	"github.com/stretchr/testify/require"
)

func TestMetaRoundtripPlain(t *testing.T) {
	meta := Meta{
		Type:       format.DataStream(format.DictNone),
		Logical1:   logical.None,
		Logical2:   logical.None,
		Physical:   physical.VarInt,
		NumValues:  5,
		ByteLength: 7,
	}

	buf := meta.AppendTo(nil)
	got, n, err := ParseMeta(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, meta, got)
}

func TestMetaRoundtripMorton(t *testing.T) {
	meta := Meta{
		Type:            format.DataStream(format.DictMorton),
		Logical1:        logical.Morton,
		Logical2:        logical.None,
		Physical:        physical.None,
		NumValues:       10,
		ByteLength:      40,
		NumBits:         12,
		CoordinateShift: 256,
	}

	buf := meta.AppendTo(nil)
	got, n, err := ParseMeta(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, meta, got)
}

func TestMetaRoundtripRle(t *testing.T) {
	meta := Meta{
		Type:         format.LengthStream(format.LengthGeometries),
		Logical1:     logical.Delta,
		Logical2:     logical.Rle,
		Physical:     physical.VarInt,
		NumValues:    9,
		ByteLength:   6,
		Runs:         3,
		NumRleValues: 9,
	}

	buf := meta.AppendTo(nil)
	got, n, err := ParseMeta(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, meta, got)
}

func TestEncodeDecodeValuesPlain(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	values := []uint64{1, 2, 3, 100, 4096}

	meta := Meta{
		Type:     format.DataStream(format.DictNone),
		Logical1: logical.None,
		Logical2: logical.None,
		Physical: physical.VarInt,
	}

	payload, err := EncodeValues(&meta, values, engine, 32)
	require.NoError(t, err)

	got, err := DecodeValues(meta, payload, engine, 32)
	require.NoError(t, err)
	require.Equal(t, values, got)
}

func TestEncodeDecodeValuesDelta(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	values := []uint64{100, 105, 90, 90, 200, 0}

	meta := Meta{
		Type:     format.DataStream(format.DictNone),
		Logical1: logical.Delta,
		Logical2: logical.None,
		Physical: physical.VarInt,
	}

	payload, err := EncodeValues(&meta, values, engine, 32)
	require.NoError(t, err)

	got, err := DecodeValues(meta, payload, engine, 32)
	require.NoError(t, err)
	require.Equal(t, values, got)
}

func TestEncodeDecodeValuesDeltaRle(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	values := []uint64{10, 10, 10, 20, 20, 20, 20, 5}

	meta := Meta{
		Type:     format.DataStream(format.DictNone),
		Logical1: logical.Delta,
		Logical2: logical.Rle,
		Physical: physical.VarInt,
	}

	payload, err := EncodeValues(&meta, values, engine, 32)
	require.NoError(t, err)
	require.Equal(t, uint32(len(values)), meta.NumValues)

	got, err := DecodeValues(meta, payload, engine, 32)
	require.NoError(t, err)
	require.Equal(t, values, got)
}

func TestEncodeDecodeValuesRle(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	values := []uint64{7, 7, 7, 7, 3, 3, 9}

	meta := Meta{
		Type:     format.LengthStream(format.LengthParts),
		Logical1: logical.Rle,
		Logical2: logical.None,
		Physical: physical.VarInt,
	}

	payload, err := EncodeValues(&meta, values, engine, 32)
	require.NoError(t, err)

	got, err := DecodeValues(meta, payload, engine, 32)
	require.NoError(t, err)
	require.Equal(t, values, got)
}

func TestEncodeDecodeValuesComponentwiseDelta(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	xy := []uint64{10, 20, 15, 25, 15, 30}

	meta := Meta{
		Type:     format.DataStream(format.DictVertex),
		Logical1: logical.ComponentwiseDelta,
		Logical2: logical.None,
		Physical: physical.VarInt,
	}

	payload, err := EncodeValues(&meta, xy, engine, 32)
	require.NoError(t, err)

	got, err := DecodeValues(meta, payload, engine, 32)
	require.NoError(t, err)
	require.Equal(t, xy, got)
}

func TestEncodeDecodeValuesMorton(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	xy := []uint64{0, 0, 5, 12, 1023, 1023}

	meta := Meta{
		Type:            format.DataStream(format.DictMorton),
		Logical1:        logical.Morton,
		Logical2:        logical.None,
		Physical:        physical.VarInt,
		NumBits:         12,
		CoordinateShift: 0,
	}

	payload, err := EncodeValues(&meta, xy, engine, 32)
	require.NoError(t, err)
	require.Equal(t, uint32(3), meta.NumValues)

	got, err := DecodeValues(meta, payload, engine, 32)
	require.NoError(t, err)
	require.Equal(t, xy, got)
}

func TestParseMetaRejectsInvalidPairing(t *testing.T) {
	// Morton+Rle: encoding_byte bits [7:5]=Morton(4), [4:2]=Rle(3), [1:0]=VarInt(2)
	data := []byte{format.DataStream(format.DictMorton).Byte(), 4<<5 | 3<<2 | 2, 0x00, 0x00}
	_, _, err := ParseMeta(data)
	require.Error(t, err)
}
