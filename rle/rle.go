// Package rle implements the two run-length encodings used by the MLT wire
// format: a typed integer RLE (runs + values, both length `runs`) used by
// the Rle logical encoding, and a byte-RLE used for presence bitmaps and
// preserved here for the legacy decode path.
package rle

import (
	"fmt"

	"github.com/maplibre/mlt-go/errs"
)

// RunsOf groups consecutive equal values in values into (length, value)
// pairs, the inverse of Expand.
func RunsOf(values []uint64) (lens []uint64, vals []uint64) {
	for i := 0; i < len(values); {
		j := i + 1
		for j < len(values) && values[j] == values[i] {
			j++
		}

		lens = append(lens, uint64(j-i))
		vals = append(vals, values[i])
		i = j
	}

	return lens, vals
}

// Expand reconstructs the flat value sequence from parallel run-length and
// value slices, as produced by RunsOf.
//
// lens and vals must have equal length (the `runs` count from StreamMeta).
func Expand(lens, vals []uint64) ([]uint64, error) {
	if len(lens) != len(vals) {
		return nil, fmt.Errorf("%w: rle lens/vals length mismatch: %d vs %d", errs.ErrStreamDataMismatch, len(lens), len(vals))
	}

	total := uint64(0)
	for _, l := range lens {
		total += l
	}

	out := make([]uint64, 0, total)
	for i, l := range lens {
		for n := uint64(0); n < l; n++ {
			out = append(out, vals[i])
		}
	}

	return out, nil
}

// EncodeByteRLE encodes data using the control-byte byte-RLE scheme:
//   - control byte c >= 128: next (256-c) bytes are literal
//   - control byte c < 128: next byte repeats (c+3) times
func EncodeByteRLE(data []byte) []byte {
	out := make([]byte, 0, len(data)/2+2)

	i := 0
	for i < len(data) {
		runLen := 1
		for i+runLen < len(data) && data[i+runLen] == data[i] && runLen < 130 {
			runLen++
		}

		if runLen >= 3 {
			out = append(out, byte(runLen-3), data[i])
			i += runLen

			continue
		}

		// Accumulate a literal run until we hit a repeat of length >= 3 or run out.
		litStart := i
		litLen := 0
		for i < len(data) && litLen < 128 {
			next := 1
			for i+next < len(data) && data[i+next] == data[i] && next < 3 {
				next++
			}

			if next >= 3 {
				break
			}

			i++
			litLen++
		}

		out = append(out, byte(256-litLen))
		out = append(out, data[litStart:litStart+litLen]...)
	}

	return out
}

// DecodeByteRLE decodes numBytes decoded bytes from the front of data using
// the control-byte byte-RLE scheme. Returns the decoded bytes and the number
// of input bytes consumed.
func DecodeByteRLE(data []byte, numBytes int) ([]byte, int, error) {
	result := make([]byte, 0, numBytes)
	pos := 0

	for len(result) < numBytes {
		if pos >= len(data) {
			return nil, 0, fmt.Errorf("%w: byte-rle control byte truncated", errs.ErrBufferUnderflow)
		}

		header := data[pos]
		pos++

		if header <= 0x7F {
			numRuns := int(header) + 3
			if pos >= len(data) {
				return nil, 0, fmt.Errorf("%w: byte-rle run value truncated", errs.ErrBufferUnderflow)
			}

			value := data[pos]
			pos++

			end := len(result) + numRuns
			if end > numBytes {
				end = numBytes
			}

			for len(result) < end {
				result = append(result, value)
			}
		} else {
			numLiterals := 256 - int(header)
			for n := 0; n < numLiterals && len(result) < numBytes; n++ {
				if pos >= len(data) {
					return nil, 0, fmt.Errorf("%w: byte-rle literal truncated", errs.ErrBufferUnderflow)
				}

				result = append(result, data[pos])
				pos++
			}
		}
	}

	return result, pos, nil
}

// DecodeBooleanRLE decodes numBooleans bits (packed bitwise, LSB-first
// within each byte) via DecodeByteRLE and returns them as a []bool.
func DecodeBooleanRLE(data []byte, numBooleans int) ([]bool, int, error) {
	numBytes := (numBooleans + 7) / 8

	packed, consumed, err := DecodeByteRLE(data, numBytes)
	if err != nil {
		return nil, 0, err
	}

	out := make([]bool, numBooleans)
	for i := 0; i < numBooleans; i++ {
		byteIdx := i / 8
		bitIdx := uint(i % 8)
		out[i] = packed[byteIdx]&(1<<bitIdx) != 0
	}

	return out, consumed, nil
}

// EncodeBooleanRLE packs bits LSB-first into bytes and byte-RLE encodes
// them, the inverse of DecodeBooleanRLE.
func EncodeBooleanRLE(bits []bool) []byte {
	numBytes := (len(bits) + 7) / 8
	packed := make([]byte, numBytes)

	for i, b := range bits {
		if b {
			packed[i/8] |= 1 << uint(i%8)
		}
	}

	return EncodeByteRLE(packed)
}
