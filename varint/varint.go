// Package varint implements the canonical unsigned varint and zigzag
// transforms used as the innermost wire primitive of every MLT stream.
//
// Unlike encoding/binary's Uvarint, ReadUvarint rejects non-canonical
// encodings (a final byte of 0x00 after more than one byte consumed) since
// the byte-exact roundtrip contract (spec §8 property 1) depends on every
// parse producing exactly the bytes that were written.
package varint

import (
	"fmt"

	"github.com/maplibre/mlt-go/errs"
)

// MaxVarintLen64 is the maximum number of bytes a 64-bit varint can occupy.
const MaxVarintLen64 = 10

// AppendUvarint appends the canonical varint encoding of v to buf and
// returns the extended slice.
func AppendUvarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}

	return append(buf, byte(v))
}

// UvarintLen returns the number of bytes required to encode v as a varint,
// without allocating.
func UvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}

	return n
}

// ReadUvarint reads a canonical uvarint from the front of data.
//
// Returns the decoded value, the number of bytes consumed, and an error if
// the stream is truncated or the encoding is non-canonical.
func ReadUvarint(data []byte) (uint64, int, error) {
	var x uint64

	var s uint

	for i := 0; i < len(data); i++ {
		b := data[i]
		if i == MaxVarintLen64-1 && b >= 0x80 {
			return 0, 0, fmt.Errorf("%w: varint overflows 64 bits", errs.ErrParsing7BitInt)
		}

		if b < 0x80 {
			x |= uint64(b) << s
			n := i + 1
			// Canonicality: the terminating byte must be nonzero whenever more
			// than one byte was consumed, otherwise a shorter encoding of the
			// same value exists and roundtrip would not be byte-exact.
			if n > 1 && b == 0 {
				return 0, 0, fmt.Errorf("%w", errs.ErrNonCanonicalVarInt)
			}

			return x, n, nil
		}

		x |= uint64(b&0x7f) << s
		s += 7
	}

	return 0, 0, fmt.Errorf("%w", errs.ErrParsing7BitInt)
}

// ZigZagEncode maps a signed value to an unsigned value so that small
// magnitude values (positive or negative) stay small after encoding.
func ZigZagEncode(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

// ZigZagDecode is the inverse of ZigZagEncode.
func ZigZagDecode(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}

// ZigZagEncode32 is the 32-bit variant used for vertex coordinates.
func ZigZagEncode32(v int32) uint32 {
	return uint32((v << 1) ^ (v >> 31))
}

// ZigZagDecode32 is the inverse of ZigZagEncode32.
func ZigZagDecode32(v uint32) int32 {
	return int32(v>>1) ^ -int32(v&1)
}

// ReadString reads a varint-length-prefixed UTF-8 string (layer and
// column names use this framing) and returns the decoded string and
// the number of bytes consumed, including the length prefix.
func ReadString(data []byte) (string, int, error) {
	n, pos, err := ReadUvarint(data)
	if err != nil {
		return "", 0, err
	}

	end := pos + int(n)
	if end > len(data) {
		return "", 0, fmt.Errorf("%w: need %d bytes, have %d", errs.ErrUnableToTake, end-pos, len(data)-pos)
	}

	return string(data[pos:end]), end, nil
}

// AppendString is the inverse of ReadString.
func AppendString(buf []byte, s string) []byte {
	buf = AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}
