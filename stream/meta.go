// Package stream implements per-stream header framing (spec §4.2) and the
// logical+physical decode/encode pipeline (spec §4.3) that turns a
// stream's raw payload bytes into a typed integer vector and back.
package stream

import (
	"fmt"

	"github.com/maplibre/mlt-go/errs"
	"github.com/maplibre/mlt-go/format"
	"github.com/maplibre/mlt-go/logical"
	"github.com/maplibre/mlt-go/physical"
	"github.com/maplibre/mlt-go/varint"
)

// SubStream pairs a parsed header with its payload bytes. Property,
// ID, and geometry columns each consist of several sibling SubStreams
// (e.g. a Present bitmap plus one or more Data/Offset/Length streams)
// that must be classified by their Type before they can be decoded.
type SubStream struct {
	Type    format.StreamType
	Meta    Meta
	Payload []byte
}

// Meta is a stream's parsed header (spec §4.2): stream type, the
// logical/physical encoding triple, declared sizes, and the technique's
// optional extra varints (Morton's {num_bits, coordinate_shift} or an
// RLE technique's {runs, num_rle_values}).
type Meta struct {
	Type      format.StreamType
	Logical1  logical.Technique
	Logical2  logical.Technique
	Physical  physical.Encoding
	NumValues uint32

	// ByteLength is the declared payload length in bytes, following the
	// header. It is authoritative for framing even though it is
	// redundant with NumValues plus the encoding for fixed-width cases.
	ByteLength uint32

	// NumBits and CoordinateShift are populated only when Logical1 ==
	// logical.Morton.
	NumBits         uint32
	CoordinateShift uint32

	// Runs and NumRleValues are populated only when Logical1 or
	// Logical2 == logical.Rle and Physical != physical.None.
	Runs         uint32
	NumRleValues uint32
}

// usesMortonHeader reports whether this technique pairing carries the
// Morton {num_bits, coordinate_shift} extra header (spec §4.2 step 5).
func usesMortonHeader(l1 logical.Technique) bool {
	return l1 == logical.Morton
}

// usesRleHeader reports whether this technique pairing carries the RLE
// {runs, num_rle_values} extra header (spec §4.2 step 6).
func usesRleHeader(l1, l2 logical.Technique, phys physical.Encoding) bool {
	if usesMortonHeader(l1) {
		return false
	}

	return (l1 == logical.Rle || l2 == logical.Rle) && phys != physical.None
}

// ParseMeta parses a stream header from the front of data, returning the
// decoded Meta and the number of bytes consumed (header only, payload
// bytes are the caller's responsibility to slice using ByteLength).
func ParseMeta(data []byte) (Meta, int, error) {
	if len(data) < 2 {
		return Meta{}, 0, fmt.Errorf("%w: need 2 bytes for stream_type+encoding, have %d", errs.ErrBufferUnderflow, len(data))
	}

	st, err := format.ParseStreamType(data[0])
	if err != nil {
		return Meta{}, 0, err
	}

	encByte := data[1]
	logical1, err := logical.ParseTechnique(encByte >> 5)
	if err != nil {
		return Meta{}, 0, err
	}

	logical2, err := logical.ParseTechnique((encByte >> 2) & 0x07)
	if err != nil {
		return Meta{}, 0, err
	}

	phys, err := physical.ParseEncoding(encByte & 0x03)
	if err != nil {
		return Meta{}, 0, err
	}

	if err := logical.ValidatePairing(logical1, logical2); err != nil {
		return Meta{}, 0, err
	}

	pos := 2

	numValues, n, err := varint.ReadUvarint(data[pos:])
	if err != nil {
		return Meta{}, 0, err
	}
	pos += n

	byteLength, n, err := varint.ReadUvarint(data[pos:])
	if err != nil {
		return Meta{}, 0, err
	}
	pos += n

	meta := Meta{
		Type:       st,
		Logical1:   logical1,
		Logical2:   logical2,
		Physical:   phys,
		NumValues:  uint32(numValues),
		ByteLength: uint32(byteLength),
	}

	switch {
	case usesMortonHeader(logical1):
		numBits, n, err := varint.ReadUvarint(data[pos:])
		if err != nil {
			return Meta{}, 0, err
		}
		pos += n

		shift, n, err := varint.ReadUvarint(data[pos:])
		if err != nil {
			return Meta{}, 0, err
		}
		pos += n

		meta.NumBits = uint32(numBits)
		meta.CoordinateShift = uint32(shift)
	case usesRleHeader(logical1, logical2, phys):
		runs, n, err := varint.ReadUvarint(data[pos:])
		if err != nil {
			return Meta{}, 0, err
		}
		pos += n

		numRle, n, err := varint.ReadUvarint(data[pos:])
		if err != nil {
			return Meta{}, 0, err
		}
		pos += n

		meta.Runs = uint32(runs)
		meta.NumRleValues = uint32(numRle)
	}

	return meta, pos, nil
}

// AppendTo serializes the header back to its wire bytes, the exact
// inverse of ParseMeta.
func (m Meta) AppendTo(buf []byte) []byte {
	buf = append(buf, m.Type.Byte())
	buf = append(buf, uint8(m.Logical1)<<5|uint8(m.Logical2)<<2|uint8(m.Physical))
	buf = varint.AppendUvarint(buf, uint64(m.NumValues))
	buf = varint.AppendUvarint(buf, uint64(m.ByteLength))

	switch {
	case usesMortonHeader(m.Logical1):
		buf = varint.AppendUvarint(buf, uint64(m.NumBits))
		buf = varint.AppendUvarint(buf, uint64(m.CoordinateShift))
	case usesRleHeader(m.Logical1, m.Logical2, m.Physical):
		buf = varint.AppendUvarint(buf, uint64(m.Runs))
		buf = varint.AppendUvarint(buf, uint64(m.NumRleValues))
	}

	return buf
}

// ParseSubStreams reads n consecutive sub-streams (header + payload
// each) from the front of data, as used by every multi-stream column
// (ID, Geometry, Property) after its own leading num_streams varint.
func ParseSubStreams(data []byte, n int) ([]SubStream, int, error) {
	subs := make([]SubStream, n)
	pos := 0

	for i := 0; i < n; i++ {
		meta, consumed, err := ParseMeta(data[pos:])
		if err != nil {
			return nil, 0, err
		}
		pos += consumed

		if pos+int(meta.ByteLength) > len(data) {
			return nil, 0, fmt.Errorf("%w: stream declares %d bytes, %d remain", errs.ErrStreamDataMismatch, meta.ByteLength, len(data)-pos)
		}

		payload := data[pos : pos+int(meta.ByteLength)]
		pos += int(meta.ByteLength)

		subs[i] = SubStream{Type: meta.Type, Meta: meta, Payload: payload}
	}

	return subs, pos, nil
}

// AppendSubStreams serializes n sub-streams' num_streams-prefixed
// framing, the inverse of ParseSubStreams plus its leading count.
func AppendSubStreams(buf []byte, subs []SubStream) []byte {
	buf = varint.AppendUvarint(buf, uint64(len(subs)))

	for _, s := range subs {
		buf = s.Meta.AppendTo(buf)
		buf = append(buf, s.Payload...)
	}

	return buf
}
