package physical

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/maplibre/mlt-go/errs"
	"github.com/maplibre/mlt-go/varint"
)

// blockSize is the FastPFOR primary codec's block granularity (spec §4.1:
// "FastPFOR block size 256 for 8-bit exceptions").
const blockSize = 256

// exceptionPatchBits is the width of the high-bits patch stored per
// exception. Choosing the per-block base bit width as maxBits-exceptionPatchBits
// guarantees every value's high remainder fits in exactly this many bits,
// so the patch word never overflows.
const exceptionPatchBits = 8

// DecodeFastPFOR decodes numValues uint32 from the FastPFOR composite
// wire format: a leading big-endian u32 word count for the primary
// (block-packed) words, that many big-endian u32 words of primary data,
// and a VariableByte-encoded tail for the values that don't fill a full
// 256-value block.
func DecodeFastPFOR(data []byte, numValues int) ([]uint32, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: need at least 4 bytes for word count", errs.ErrInvalidFastPforByteLen)
	}

	wordCount := int(binary.BigEndian.Uint32(data[0:4]))

	need := 4 + 4*wordCount
	if len(data) < need {
		return nil, fmt.Errorf("%w: declared %d primary words but only %d bytes remain", errs.ErrFastPforDecode, wordCount, len(data)-4)
	}

	primaryWords := make([]uint32, wordCount)
	for i := 0; i < wordCount; i++ {
		primaryWords[i] = binary.BigEndian.Uint32(data[4+4*i : 8+4*i])
	}

	fullBlocks := numValues / blockSize
	fullValues := fullBlocks * blockSize

	out := make([]uint32, 0, numValues)

	wp := 0
	for b := 0; b < fullBlocks; b++ {
		block, consumed, err := decodeBlock(primaryWords[wp:])
		if err != nil {
			return nil, err
		}

		out = append(out, block...)
		wp += consumed
	}

	if wp != wordCount {
		return nil, fmt.Errorf("%w: primary words mismatch, consumed %d of %d declared", errs.ErrFastPforDecode, wp, wordCount)
	}

	tail := data[need:]
	remainder := numValues - fullValues

	pos := 0
	for i := 0; i < remainder; i++ {
		v, n, err := varint.ReadUvarint(tail[pos:])
		if err != nil {
			return nil, err
		}

		out = append(out, uint32(v))
		pos += n
	}

	return out, nil
}

// EncodeFastPFOR is the inverse of DecodeFastPFOR.
func EncodeFastPFOR(values []uint32) []byte {
	fullBlocks := len(values) / blockSize
	fullValues := fullBlocks * blockSize

	var primary []uint32
	for b := 0; b < fullBlocks; b++ {
		primary = append(primary, encodeBlock(values[b*blockSize:(b+1)*blockSize])...)
	}

	out := make([]byte, 4, 4+4*len(primary)+ (len(values)-fullValues)*2)
	binary.BigEndian.PutUint32(out[0:4], uint32(len(primary)))

	for _, w := range primary {
		out = binary.BigEndian.AppendUint32(out, w)
	}

	for _, v := range values[fullValues:] {
		out = varint.AppendUvarint(out, uint64(v))
	}

	return out
}

// encodeBlock encodes exactly blockSize values into the primary word
// stream: 1 header word, ceil(baseBits*blockSize/32) packed words, then one
// word per exception.
func encodeBlock(values []uint32) []uint32 {
	maxBits := 0
	for _, v := range values {
		if n := bits.Len32(v); n > maxBits {
			maxBits = n
		}
	}

	baseBits := 0
	if maxBits > exceptionPatchBits {
		baseBits = maxBits - exceptionPatchBits
	}

	packed := packBits(values, baseBits)

	var positions []int
	var patches []uint32

	for i, v := range values {
		high := v >> uint(baseBits)
		if high != 0 {
			positions = append(positions, i)
			patches = append(patches, high)
		}
	}

	out := make([]uint32, 0, 1+len(packed)+len(positions))
	out = append(out, uint32(baseBits)<<24|uint32(len(positions)))
	out = append(out, packed...)

	for i := range positions {
		out = append(out, uint32(positions[i])<<8|patches[i])
	}

	return out
}

// decodeBlock decodes a single blockSize-value block from the front of
// words, returning the decoded values and the number of words consumed.
func decodeBlock(words []uint32) ([]uint32, int, error) {
	if len(words) < 1 {
		return nil, 0, fmt.Errorf("%w: truncated block header", errs.ErrFastPforDecode)
	}

	header := words[0]
	baseBits := int(header >> 24)
	numExceptions := int(header & 0x00FFFFFF)

	packedLen := (baseBits*blockSize + 31) / 32
	if len(words) < 1+packedLen+numExceptions {
		return nil, 0, fmt.Errorf("%w: truncated block body", errs.ErrFastPforDecode)
	}

	values := unpackBits(words[1:1+packedLen], baseBits, blockSize)

	for i := 0; i < numExceptions; i++ {
		w := words[1+packedLen+i]
		pos := int(w >> 8)
		high := w & 0xFF

		if pos < 0 || pos >= blockSize {
			return nil, 0, fmt.Errorf("%w: exception position %d out of block range", errs.ErrFastPforDecode, pos)
		}

		values[pos] |= high << uint(baseBits)
	}

	return values, 1 + packedLen + numExceptions, nil
}

// packBits bit-packs count values into ceil(bitWidth*count/32) words, each
// value occupying exactly bitWidth bits, LSB-first, packed sequentially
// across word boundaries.
func packBits(values []uint32, bitWidth int) []uint32 {
	if bitWidth == 0 {
		return nil
	}

	totalBits := bitWidth * len(values)
	out := make([]uint32, (totalBits+31)/32)

	bitPos := 0
	for _, v := range values {
		remaining := bitWidth
		val := v
		if bitWidth < 32 {
			val &= uint32(1)<<uint(bitWidth) - 1
		}

		for remaining > 0 {
			wordIdx := bitPos / 32
			bitOff := uint(bitPos % 32)

			n := 32 - int(bitOff)
			if n > remaining {
				n = remaining
			}

			chunk := val & (uint32(1)<<uint(n) - 1)
			out[wordIdx] |= chunk << bitOff

			val >>= uint(n)
			bitPos += n
			remaining -= n
		}
	}

	return out
}

// unpackBits is the inverse of packBits.
func unpackBits(words []uint32, bitWidth int, count int) []uint32 {
	out := make([]uint32, count)
	if bitWidth == 0 {
		return out
	}

	bitPos := 0
	for i := 0; i < count; i++ {
		remaining := bitWidth
		var val uint32
		shift := uint(0)

		for remaining > 0 {
			wordIdx := bitPos / 32
			bitOff := uint(bitPos % 32)

			n := 32 - int(bitOff)
			if n > remaining {
				n = remaining
			}

			chunk := (words[wordIdx] >> bitOff) & (uint32(1)<<uint(n) - 1)
			val |= chunk << shift

			shift += uint(n)
			bitPos += n
			remaining -= n
		}

		out[i] = val
	}

	return out
}
