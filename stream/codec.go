package stream

import (
	"fmt"

	"github.com/maplibre/mlt-go/endian"
	"github.com/maplibre/mlt-go/errs"
	"github.com/maplibre/mlt-go/logical"
	"github.com/maplibre/mlt-go/physical"
	"github.com/maplibre/mlt-go/rle"
)

// physicalCount returns how many physical-width integers must be read
// from the payload to reconstruct meta.NumValues logical values, given
// the logical technique pairing (spec §4.2/§4.3): an outer Rle wraps
// two runs-long arrays (lengths then values) instead of NumValues
// values directly.
func physicalCount(m Meta) (int, error) {
	if m.Logical1 == logical.Rle || m.Logical2 == logical.Rle {
		if m.Physical == physical.None {
			return 0, fmt.Errorf("%w: Rle requires physical != None", errs.ErrInvalidLogicalEncodings)
		}

		return int(2 * m.Runs), nil
	}

	return int(m.NumValues), nil
}

func widthBits(width int) int {
	if width <= 32 {
		return 32
	}

	return 64
}

// decodePhysical reads count physical-width unsigned integers from data
// using enc/engine, widened to uint64 regardless of the declared width.
func decodePhysical(enc physical.Encoding, engine endian.EndianEngine, data []byte, count int, width int) ([]uint64, error) {
	if width <= 32 {
		u32s, err := physical.DecodeU32(enc, engine, data, count)
		if err != nil {
			return nil, err
		}

		out := make([]uint64, len(u32s))
		for i, v := range u32s {
			out[i] = uint64(v)
		}

		return out, nil
	}

	return physical.DecodeU64(enc, engine, data, count)
}

func encodePhysical(enc physical.Encoding, engine endian.EndianEngine, values []uint64, width int) ([]byte, error) {
	if width <= 32 {
		u32s := make([]uint32, len(values))
		for i, v := range values {
			u32s[i] = uint32(v)
		}

		return physical.EncodeU32(enc, engine, u32s)
	}

	return physical.EncodeU64(enc, engine, values)
}

// DecodeValues runs the full physical_decode -> logical_decode pipeline
// (spec §4.3) over a stream's payload bytes, returning the logical
// integer vector. ZigZag (signedness) is applied by the caller: this
// layer only knows about unsigned value-domain transforms.
//
// For Logical1 == logical.Morton the returned slice has length
// 2*meta.NumValues (flattened x,y pairs); for every other technique it
// has length meta.NumValues.
func DecodeValues(meta Meta, payload []byte, engine endian.EndianEngine, width int) ([]uint64, error) {
	count, err := physicalCount(meta)
	if err != nil {
		return nil, err
	}

	raw, err := decodePhysical(meta.Physical, engine, payload, count, width)
	if err != nil {
		return nil, err
	}

	w := widthBits(width)

	switch {
	case meta.Logical1 == logical.None && meta.Logical2 == logical.None:
		return raw, nil

	case meta.Logical1 == logical.Delta && meta.Logical2 == logical.None:
		return logical.DeltaDecode(raw, w), nil

	case meta.Logical1 == logical.Delta && meta.Logical2 == logical.Rle:
		lens, vals := raw[:meta.Runs], raw[meta.Runs:2*meta.Runs]

		deltas, err := rle.Expand(lens, vals)
		if err != nil {
			return nil, err
		}

		return logical.DeltaDecode(deltas, w), nil

	case meta.Logical1 == logical.Rle:
		lens, vals := raw[:meta.Runs], raw[meta.Runs:2*meta.Runs]
		return rle.Expand(lens, vals)

	case meta.Logical1 == logical.ComponentwiseDelta && meta.Logical2 == logical.None:
		return logical.ComponentwiseDeltaDecode(raw, w)

	case meta.Logical1 == logical.Morton && meta.Logical2 == logical.None:
		return logical.MortonDecode(raw, meta.NumBits, meta.CoordinateShift), nil

	default:
		return nil, fmt.Errorf("%w: logical1=%s logical2=%s", errs.ErrInvalidLogicalEncodings, meta.Logical1, meta.Logical2)
	}
}

// EncodeValues is the inverse of DecodeValues. meta must already carry
// the chosen Type/Logical1/Logical2/Physical (and, for Morton,
// NumBits/CoordinateShift); EncodeValues fills in NumValues, Runs,
// NumRleValues and ByteLength, and returns the payload bytes.
func EncodeValues(meta *Meta, values []uint64, engine endian.EndianEngine, width int) ([]byte, error) {
	w := widthBits(width)

	var raw []uint64

	switch {
	case meta.Logical1 == logical.None && meta.Logical2 == logical.None:
		raw = values
		meta.NumValues = uint32(len(values))

	case meta.Logical1 == logical.Delta && meta.Logical2 == logical.None:
		raw = logical.DeltaEncode(values, w)
		meta.NumValues = uint32(len(values))

	case meta.Logical1 == logical.Delta && meta.Logical2 == logical.Rle:
		deltas := logical.DeltaEncode(values, w)
		lens, vals := rle.RunsOf(deltas)
		raw = append(append([]uint64{}, lens...), vals...)
		meta.Runs = uint32(len(lens))
		meta.NumRleValues = uint32(len(deltas))
		meta.NumValues = uint32(len(values))

	case meta.Logical1 == logical.Rle:
		lens, vals := rle.RunsOf(values)
		raw = append(append([]uint64{}, lens...), vals...)
		meta.Runs = uint32(len(lens))
		meta.NumRleValues = uint32(len(values))
		meta.NumValues = uint32(len(values))

	case meta.Logical1 == logical.ComponentwiseDelta && meta.Logical2 == logical.None:
		var err error
		raw, err = logical.ComponentwiseDeltaEncode(values, w)
		if err != nil {
			return nil, err
		}
		meta.NumValues = uint32(len(values))

	case meta.Logical1 == logical.Morton && meta.Logical2 == logical.None:
		var err error
		raw, err = logical.MortonEncode(values, meta.NumBits, meta.CoordinateShift)
		if err != nil {
			return nil, err
		}
		meta.NumValues = uint32(len(raw))

	default:
		return nil, fmt.Errorf("%w: logical1=%s logical2=%s", errs.ErrInvalidLogicalEncodings, meta.Logical1, meta.Logical2)
	}

	payload, err := encodePhysical(meta.Physical, engine, raw, width)
	if err != nil {
		return nil, err
	}

	meta.ByteLength = uint32(len(payload))

	return payload, nil
}
