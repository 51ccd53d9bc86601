// Package archive wraps a complete encoded tile (the output of
// layer.WriteTile) with whole-file storage/transport compression. It
// sits one level above the wire format: it never touches stream
// headers or the byte-exact roundtrip contract of the core codec,
// operating only on opaque tile bytes, analogous to gzipping a file at
// rest.
package archive

import "fmt"

// CompressionType identifies a whole-tile compression algorithm.
type CompressionType uint8

const (
	CompressionNone CompressionType = iota
	CompressionZstd
	CompressionS2
	CompressionLZ4
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return fmt.Sprintf("CompressionType(%d)", uint8(c))
	}
}

// Compressor compresses a complete tile's bytes.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses Compressor.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions for one algorithm.
type Codec interface {
	Compressor
	Decompressor
}

var builtinCodecs = map[CompressionType]Codec{
	CompressionNone: NewNoOpCompressor(),
	CompressionZstd: NewZstdCompressor(),
	CompressionS2:   NewS2Compressor(),
	CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves a built-in Codec for the given compression type.
func GetCodec(ct CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[ct]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("archive: unsupported compression type: %s", ct)
}

// Compress wraps a complete encoded tile with the chosen algorithm,
// prefixing a one-byte codec tag so Decompress can self-identify it.
func Compress(tileBytes []byte, ct CompressionType) ([]byte, error) {
	codec, err := GetCodec(ct)
	if err != nil {
		return nil, err
	}

	body, err := codec.Compress(tileBytes)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(body)+1)
	out = append(out, uint8(ct))
	out = append(out, body...)

	return out, nil
}

// Decompress reverses Compress: it reads the leading codec tag and
// dispatches to the matching Codec's Decompress.
func Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("archive: empty input, missing codec tag")
	}

	codec, err := GetCodec(CompressionType(data[0]))
	if err != nil {
		return nil, err
	}

	return codec.Decompress(data[1:])
}
