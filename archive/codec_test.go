package archive

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func getAllCodecs() map[string]Codec {
	return map[string]Codec{
		"none": NewNoOpCompressor(),
		"zstd": NewZstdCompressor(),
		"s2":   NewS2Compressor(),
		"lz4":  NewLZ4Compressor(),
	}
}

func TestCompressionType_String(t *testing.T) {
	require.Equal(t, "None", CompressionNone.String())
	require.Equal(t, "Zstd", CompressionZstd.String())
	require.Equal(t, "S2", CompressionS2.String())
	require.Equal(t, "LZ4", CompressionLZ4.String())
	require.Contains(t, CompressionType(99).String(), "CompressionType(99)")
}

func TestGetCodec(t *testing.T) {
	for _, ct := range []CompressionType{CompressionNone, CompressionZstd, CompressionS2, CompressionLZ4} {
		codec, err := GetCodec(ct)
		require.NoError(t, err)
		require.NotNil(t, codec)
	}

	_, err := GetCodec(CompressionType(99))
	require.Error(t, err)
}

func TestAllCodecs_EmptyData(t *testing.T) {
	for name, codec := range getAllCodecs() {
		t.Run(name, func(t *testing.T) {
			compressed, err := codec.Compress(nil)
			require.NoError(t, err)

			decompressed, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Empty(t, decompressed)
		})
	}
}

func TestAllCodecs_RoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{name: "small_text", data: []byte("Hello, MapLibre Tile!")},
		{name: "repeated_pattern", data: bytes.Repeat([]byte("ABCD"), 100)},
		{name: "binary_data", data: []byte{0x00, 0x01, 0x02, 0x03, 0xFF, 0xFE, 0xFD, 0xFC}},
		{name: "single_byte", data: []byte{0x42}},
		{name: "medium_payload", data: bytes.Repeat([]byte("layer column stream present data offset length"), 256)},
		{name: "highly_compressible", data: make([]byte, 64*1024)},
	}

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			for _, tc := range testCases {
				t.Run(tc.name, func(t *testing.T) {
					compressed, err := codec.Compress(tc.data)
					require.NoError(t, err)

					decompressed, err := codec.Decompress(compressed)
					require.NoError(t, err)
					require.Equal(t, tc.data, decompressed)
				})
			}
		})
	}
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	tile := bytes.Repeat([]byte("mock encoded tile bytes"), 64)

	for _, ct := range []CompressionType{CompressionNone, CompressionZstd, CompressionS2, CompressionLZ4} {
		t.Run(ct.String(), func(t *testing.T) {
			archived, err := Compress(tile, ct)
			require.NoError(t, err)
			require.Equal(t, uint8(ct), archived[0])

			got, err := Decompress(archived)
			require.NoError(t, err)
			require.Equal(t, tile, got)
		})
	}
}

func TestDecompressRejectsEmptyInput(t *testing.T) {
	_, err := Decompress(nil)
	require.Error(t, err)
}

func TestDecompressRejectsUnknownCodecTag(t *testing.T) {
	_, err := Decompress([]byte{99, 0x01, 0x02})
	require.Error(t, err)
}

func TestLZ4Decompress_GrowsBuffer(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 1<<20) // forces the geometric buffer growth path

	codec := NewLZ4Compressor()

	compressed, err := codec.Compress(data)
	require.NoError(t, err)

	got, err := codec.Decompress(compressed)
	require.NoError(t, err)
	require.Equal(t, data, got)
}
