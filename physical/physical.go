// Package physical implements the outermost byte-level compression of an
// MLT stream: None (fixed-width packed), VarInt (canonical varint per
// value), and FastPFOR (block bit-packing composite, 32-bit only).
//
// physical_decode always produces an unsigned integer vector; the
// value-domain transforms (delta, RLE, morton) are applied on top of this
// layer by the stream package through the logical and rle packages, and
// signedness (zigzag) by the column decoders, per spec §4.3.
package physical

import (
	"fmt"

	"github.com/maplibre/mlt-go/endian"
	"github.com/maplibre/mlt-go/errs"
	"github.com/maplibre/mlt-go/varint"
)

// Encoding identifies a physical encoding. Values match
// original_source's PhysicalLevelCompressionTechnique enum ordering so that
// the 2-bit wire field lines up with the reference implementation.
type Encoding uint8

const (
	None     Encoding = 0
	FastPFOR Encoding = 1
	VarInt   Encoding = 2
	alp      Encoding = 3 // vestigial, spec §9 open question — always NotImplemented
)

func (e Encoding) String() string {
	switch e {
	case None:
		return "None"
	case FastPFOR:
		return "FastPFOR"
	case VarInt:
		return "VarInt"
	case alp:
		return "Alp"
	default:
		return "Unknown"
	}
}

// ParseEncoding validates a raw 2-bit physical encoding code.
func ParseEncoding(code uint8) (Encoding, error) {
	switch Encoding(code) {
	case None, FastPFOR, VarInt:
		return Encoding(code), nil
	case alp:
		return 0, fmt.Errorf("%w: physical encoding Alp", errs.ErrNotImplemented)
	default:
		return 0, fmt.Errorf("%w: physical code %d", errs.ErrParsingPhysicalEncoding, code)
	}
}

// DecodeU32 decodes numValues uint32 from data using the given physical
// encoding and byte order. For physical=None/VarInt the declared byte order
// applies; FastPFOR always reads big-endian u32 words per spec §9.
func DecodeU32(enc Encoding, engine endian.EndianEngine, data []byte, numValues int) ([]uint32, error) {
	switch enc {
	case None:
		return decodeNoneU32(engine, data, numValues)
	case VarInt:
		return decodeVarIntU32(data, numValues)
	case FastPFOR:
		return DecodeFastPFOR(data, numValues)
	default:
		return nil, fmt.Errorf("%w: physical code %d", errs.ErrParsingPhysicalEncoding, enc)
	}
}

// EncodeU32 is the inverse of DecodeU32.
func EncodeU32(enc Encoding, engine endian.EndianEngine, values []uint32) ([]byte, error) {
	switch enc {
	case None:
		return encodeNoneU32(engine, values), nil
	case VarInt:
		return encodeVarIntU32(values), nil
	case FastPFOR:
		return EncodeFastPFOR(values), nil
	default:
		return nil, fmt.Errorf("%w: physical code %d", errs.ErrParsingPhysicalEncoding, enc)
	}
}

// DecodeU64 decodes numValues uint64 from data. FastPFOR only supports
// 32-bit integers (spec §4.1): requesting it for a 64-bit stream is a
// caller error, surfaced via errs.ErrUnsupportedPhysicalForType.
func DecodeU64(enc Encoding, engine endian.EndianEngine, data []byte, numValues int) ([]uint64, error) {
	switch enc {
	case None:
		return decodeNoneU64(engine, data, numValues)
	case VarInt:
		return decodeVarIntU64(data, numValues)
	case FastPFOR:
		return nil, fmt.Errorf("%w: FastPFOR does not support 64-bit integers", errs.ErrUnsupportedPhysicalForType)
	default:
		return nil, fmt.Errorf("%w: physical code %d", errs.ErrParsingPhysicalEncoding, enc)
	}
}

// EncodeU64 is the inverse of DecodeU64.
func EncodeU64(enc Encoding, engine endian.EndianEngine, values []uint64) ([]byte, error) {
	switch enc {
	case None:
		return encodeNoneU64(engine, values), nil
	case VarInt:
		return encodeVarIntU64(values), nil
	case FastPFOR:
		return nil, fmt.Errorf("%w: FastPFOR does not support 64-bit integers", errs.ErrUnsupportedPhysicalForType)
	default:
		return nil, fmt.Errorf("%w: physical code %d", errs.ErrParsingPhysicalEncoding, enc)
	}
}

func decodeNoneU32(engine endian.EndianEngine, data []byte, numValues int) ([]uint32, error) {
	need := numValues * 4
	if len(data) < need {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", errs.ErrBufferUnderflow, need, len(data))
	}

	out := make([]uint32, numValues)
	for i := 0; i < numValues; i++ {
		out[i] = engine.Uint32(data[i*4 : i*4+4])
	}

	return out, nil
}

func encodeNoneU32(engine endian.EndianEngine, values []uint32) []byte {
	out := make([]byte, 0, len(values)*4)
	for _, v := range values {
		out = engine.AppendUint32(out, v)
	}

	return out
}

func decodeNoneU64(engine endian.EndianEngine, data []byte, numValues int) ([]uint64, error) {
	need := numValues * 8
	if len(data) < need {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", errs.ErrBufferUnderflow, need, len(data))
	}

	out := make([]uint64, numValues)
	for i := 0; i < numValues; i++ {
		out[i] = engine.Uint64(data[i*8 : i*8+8])
	}

	return out, nil
}

func encodeNoneU64(engine endian.EndianEngine, values []uint64) []byte {
	out := make([]byte, 0, len(values)*8)
	for _, v := range values {
		out = engine.AppendUint64(out, v)
	}

	return out
}

func decodeVarIntU32(data []byte, numValues int) ([]uint32, error) {
	out := make([]uint32, numValues)

	pos := 0
	for i := 0; i < numValues; i++ {
		v, n, err := varint.ReadUvarint(data[pos:])
		if err != nil {
			return nil, err
		}

		out[i] = uint32(v)
		pos += n
	}

	return out, nil
}

func encodeVarIntU32(values []uint32) []byte {
	out := make([]byte, 0, len(values)*2)
	for _, v := range values {
		out = varint.AppendUvarint(out, uint64(v))
	}

	return out
}

func decodeVarIntU64(data []byte, numValues int) ([]uint64, error) {
	out := make([]uint64, numValues)

	pos := 0
	for i := 0; i < numValues; i++ {
		v, n, err := varint.ReadUvarint(data[pos:])
		if err != nil {
			return nil, err
		}

		out[i] = v
		pos += n
	}

	return out, nil
}

func encodeVarIntU64(values []uint64) []byte {
	out := make([]byte, 0, len(values)*2)
	for _, v := range values {
		out = varint.AppendUvarint(out, v)
	}

	return out
}
