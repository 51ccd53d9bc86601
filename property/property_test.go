package property

import (
	"testing"

	"github.com/maplibre/mlt-go/endian"
	"github.com/maplibre/mlt-go/format"
	"github.com/maplibre/mlt-go/logical"
	"github.com/maplibre/mlt-go/physical"
	"github.com/maplibre/mlt-go/stream"
	"github.com/stretchr/testify/require"
)

func encodeFor(t *testing.T, kind Kind, v Value) (stream.Meta, []byte) {
	t.Helper()

	meta := stream.Meta{
		Type:     format.DataStream(format.DictNone),
		Logical1: logical.None,
		Logical2: logical.None,
		Physical: physical.VarInt,
	}

	payload, err := EncodeScalar(kind, &meta, v, endian.GetLittleEndianEngine())
	require.NoError(t, err)

	return meta, payload
}

func TestScalarRoundtripI32(t *testing.T) {
	v := I32Values{-5, 0, 17, -12345, 2147483647}
	meta, payload := encodeFor(t, KindI32, v)

	got, err := DecodeScalar(KindI32, meta, payload, endian.GetLittleEndianEngine())
	require.NoError(t, err)
	require.Equal(t, v, got)
}

func TestScalarRoundtripU64(t *testing.T) {
	v := U64Values{0, 1, 1 << 40, 1<<64 - 1}
	meta, payload := encodeFor(t, KindU64, v)

	got, err := DecodeScalar(KindU64, meta, payload, endian.GetLittleEndianEngine())
	require.NoError(t, err)
	require.Equal(t, v, got)
}

func TestScalarRoundtripBool(t *testing.T) {
	v := BoolValues{true, false, false, true, true}
	meta, payload := encodeFor(t, KindBool, v)

	got, err := DecodeScalar(KindBool, meta, payload, endian.GetLittleEndianEngine())
	require.NoError(t, err)
	require.Equal(t, v, got)
}

func TestScalarRoundtripF64(t *testing.T) {
	v := F64Values{0, 3.14159, -2.5, 1e300}
	meta, payload := encodeFor(t, KindF64, v)

	got, err := DecodeScalar(KindF64, meta, payload, endian.GetLittleEndianEngine())
	require.NoError(t, err)
	require.Equal(t, v, got)
}

func TestToRawU64WidthByKind(t *testing.T) {
	raw32, width32, err := ToRawU64(KindI32, I32Values{-1, 1})
	require.NoError(t, err)
	require.Equal(t, 32, width32)
	require.Equal(t, []uint64{1, 2}, raw32) // ZigZag(-1)=1, ZigZag(1)=2

	raw64, width64, err := ToRawU64(KindU64, U64Values{1 << 40})
	require.NoError(t, err)
	require.Equal(t, 64, width64)
	require.Equal(t, []uint64{1 << 40}, raw64)
}

func TestToRawU64UnknownKind(t *testing.T) {
	_, _, err := ToRawU64(Kind(99), nil)
	require.Error(t, err)
}

func TestApplyPresent(t *testing.T) {
	present := []bool{true, false, true, true, false}
	values := []int32{10, 20, 30}

	out, err := ApplyPresent(present, values)
	require.NoError(t, err)
	require.Len(t, out, 5)
	require.Equal(t, int32(10), *out[0])
	require.Nil(t, out[1])
	require.Equal(t, int32(20), *out[2])
	require.Equal(t, int32(30), *out[3])
	require.Nil(t, out[4])
}

func TestApplyPresentCountMismatch(t *testing.T) {
	present := []bool{true, true, false}
	values := []int32{1}

	_, err := ApplyPresent(present, values)
	require.Error(t, err)
}

func TestPresentRoundtrip(t *testing.T) {
	present := []bool{true, true, false, false, true, true, true, true, false}

	encoded := EncodePresent(present)
	got, err := DecodePresent(encoded, len(present))
	require.NoError(t, err)
	require.Equal(t, present, got)
}

func makeIntStream(t *testing.T, st format.StreamType, values []uint32) stream.SubStream {
	t.Helper()

	meta := stream.Meta{
		Type:     st,
		Logical1: logical.None,
		Logical2: logical.None,
		Physical: physical.VarInt,
	}

	u64s := make([]uint64, len(values))
	for i, v := range values {
		u64s[i] = uint64(v)
	}

	payload, err := stream.EncodeValues(&meta, u64s, endian.GetLittleEndianEngine(), 32)
	require.NoError(t, err)

	return stream.SubStream{Type: st, Meta: meta, Payload: payload}
}

func TestDecodeStringColumnPlain(t *testing.T) {
	data := []byte("AAABBBCC")
	lengths := []uint32{3, 3, 2}

	subs := []stream.SubStream{
		{Type: format.DataStream(format.DictNone), Meta: stream.Meta{Type: format.DataStream(format.DictNone)}, Payload: data},
		makeIntStream(t, format.LengthStream(format.LengthVarBinary), lengths),
	}

	got, err := DecodeStringColumn(subs, endian.GetLittleEndianEngine())
	require.NoError(t, err)
	require.Equal(t, StrValues{"AAA", "BBB", "CC"}, got)
}

func TestDecodeStringColumnDictionary(t *testing.T) {
	dictData := []byte("ABC")
	dictLengths := []uint32{1, 1, 1}
	offsets := []uint32{0, 1, 0, 2}

	subs := []stream.SubStream{
		{Type: format.DataStream(format.DictSingle), Payload: dictData},
		makeIntStream(t, format.LengthStream(format.LengthDictionary), dictLengths),
		makeIntStream(t, format.OffsetStream(format.OffsetString), offsets),
	}

	got, err := DecodeStringColumn(subs, endian.GetLittleEndianEngine())
	require.NoError(t, err)
	require.Equal(t, StrValues{"A", "B", "A", "C"}, got)
}

func TestDecodeStringColumnMissing(t *testing.T) {
	_, err := DecodeStringColumn(nil, endian.GetLittleEndianEngine())
	require.Error(t, err)
}
