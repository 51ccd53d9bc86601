// Package property implements the property column machinery (spec
// §4.5): scalar decode/encode with ZigZag signedness, the presence
// bitmap (§8 property 5), and the multi-stream string/dictionary/FSST
// decode rules.
package property

import (
	"fmt"
	"math"

	"github.com/maplibre/mlt-go/endian"
	"github.com/maplibre/mlt-go/errs"
	"github.com/maplibre/mlt-go/format"
	"github.com/maplibre/mlt-go/fsst"
	"github.com/maplibre/mlt-go/rle"
	"github.com/maplibre/mlt-go/stream"
	"github.com/maplibre/mlt-go/varint"
)

// Kind identifies a scalar property's value type. Str and Struct are
// handled by dedicated multi-stream decoders below, not this enum.
type Kind uint8

const (
	KindBool Kind = iota
	KindI8
	KindU8
	KindI32
	KindU32
	KindI64
	KindU64
	KindF32
	KindF64
)

// Value is any decoded scalar property payload.
type Value interface {
	isValue()
}

type (
	BoolValues []bool
	I8Values   []int8
	U8Values   []uint8
	I32Values  []int32
	U32Values  []uint32
	I64Values  []int64
	U64Values  []uint64
	F32Values  []float32
	F64Values  []float64
	StrValues  []string
)

func (BoolValues) isValue() {}
func (I8Values) isValue()   {}
func (U8Values) isValue()   {}
func (I32Values) isValue()  {}
func (U32Values) isValue()  {}
func (I64Values) isValue()  {}
func (U64Values) isValue()  {}
func (F32Values) isValue()  {}
func (F64Values) isValue()  {}
func (StrValues) isValue()  {}

// Property is a single decoded column: a name and its value vector.
// Present is nil when the column carries no presence stream (every
// feature has a value); otherwise its length equals the feature count
// and its set-bit count equals the length of Values.
type Property struct {
	Name    string
	Present []bool
	Values  Value
}

// DecodePresent decodes a Present-class stream's Boolean RLE payload.
// Present streams bypass the logical/physical pipeline entirely: the
// control-byte Boolean RLE scheme (rle.DecodeBooleanRLE) is the wire
// encoding in its own right (spec glossary "Presence stream").
func DecodePresent(payload []byte, numFeatures int) ([]bool, error) {
	bits, _, err := rle.DecodeBooleanRLE(payload, numFeatures)
	return bits, err
}

// EncodePresent is the inverse of DecodePresent.
func EncodePresent(present []bool) []byte {
	return rle.EncodeBooleanRLE(present)
}

// ApplyPresent expands a flat decoded vector back out to feature-count
// length using a presence bitmap, producing nil where present is
// false. Implements spec §8 testable property 5: len(present) must
// equal len(out), and the count of set bits must equal len(values).
func ApplyPresent[T any](present []bool, values []T) ([]*T, error) {
	count := 0
	for _, p := range present {
		if p {
			count++
		}
	}

	if count != len(values) {
		return nil, fmt.Errorf("%w: %d set bits, %d values", errs.ErrPresenceValueCountMismatch, count, len(values))
	}

	out := make([]*T, len(present))

	vi := 0
	for i, p := range present {
		if p {
			v := values[vi]
			out[i] = &v
			vi++
		}
	}

	return out, nil
}

// DecodeScalar decodes a single scalar data stream for the given kind.
func DecodeScalar(kind Kind, meta stream.Meta, payload []byte, engine endian.EndianEngine) (Value, error) {
	switch kind {
	case KindBool:
		vals, err := stream.DecodeValues(meta, payload, engine, 32)
		if err != nil {
			return nil, err
		}

		out := make(BoolValues, len(vals))
		for i, v := range vals {
			out[i] = v != 0
		}

		return out, nil

	case KindI8:
		vals, err := stream.DecodeValues(meta, payload, engine, 32)
		if err != nil {
			return nil, err
		}

		out := make(I8Values, len(vals))
		for i, v := range vals {
			out[i] = int8(varint.ZigZagDecode32(uint32(v)))
		}

		return out, nil

	case KindU8:
		vals, err := stream.DecodeValues(meta, payload, engine, 32)
		if err != nil {
			return nil, err
		}

		out := make(U8Values, len(vals))
		for i, v := range vals {
			out[i] = uint8(v)
		}

		return out, nil

	case KindI32:
		vals, err := stream.DecodeValues(meta, payload, engine, 32)
		if err != nil {
			return nil, err
		}

		out := make(I32Values, len(vals))
		for i, v := range vals {
			out[i] = varint.ZigZagDecode32(uint32(v))
		}

		return out, nil

	case KindU32:
		vals, err := stream.DecodeValues(meta, payload, engine, 32)
		if err != nil {
			return nil, err
		}

		out := make(U32Values, len(vals))
		for i, v := range vals {
			out[i] = uint32(v)
		}

		return out, nil

	case KindI64:
		vals, err := stream.DecodeValues(meta, payload, engine, 64)
		if err != nil {
			return nil, err
		}

		out := make(I64Values, len(vals))
		for i, v := range vals {
			out[i] = varint.ZigZagDecode(v)
		}

		return out, nil

	case KindU64:
		vals, err := stream.DecodeValues(meta, payload, engine, 64)
		if err != nil {
			return nil, err
		}

		out := make(U64Values, len(vals))
		copy(out, vals)

		return out, nil

	case KindF32:
		vals, err := stream.DecodeValues(meta, payload, engine, 32)
		if err != nil {
			return nil, err
		}

		out := make(F32Values, len(vals))
		for i, v := range vals {
			out[i] = math.Float32frombits(uint32(v))
		}

		return out, nil

	case KindF64:
		vals, err := stream.DecodeValues(meta, payload, engine, 64)
		if err != nil {
			return nil, err
		}

		out := make(F64Values, len(vals))
		for i, v := range vals {
			out[i] = math.Float64frombits(v)
		}

		return out, nil

	default:
		return nil, fmt.Errorf("%w: scalar kind %d", errs.ErrNotImplemented, kind)
	}
}

// EncodeScalar is the inverse of DecodeScalar: it fills meta (as
// EncodeValues does) and returns the payload bytes.
func EncodeScalar(kind Kind, meta *stream.Meta, v Value, engine endian.EndianEngine) ([]byte, error) {
	raw, width, err := ToRawU64(kind, v)
	if err != nil {
		return nil, err
	}

	return stream.EncodeValues(meta, raw, engine, width)
}

// ToRawU64 applies the per-Kind zigzag/bit-reinterpret transform
// EncodeScalar needs before handing values to the logical/physical
// pipeline, without actually running that pipeline. physical.ChooseEncoding
// (spec §4.3 "auto" mode) uses this to get a representative sample to
// trial-encode.
func ToRawU64(kind Kind, v Value) ([]uint64, int, error) {
	var raw []uint64
	width := 32

	switch kind {
	case KindBool:
		vs := v.(BoolValues)
		raw = make([]uint64, len(vs))
		for i, b := range vs {
			if b {
				raw[i] = 1
			}
		}

	case KindI8:
		vs := v.(I8Values)
		raw = make([]uint64, len(vs))
		for i, x := range vs {
			raw[i] = uint64(varint.ZigZagEncode32(int32(x)))
		}

	case KindU8:
		vs := v.(U8Values)
		raw = make([]uint64, len(vs))
		for i, x := range vs {
			raw[i] = uint64(x)
		}

	case KindI32:
		vs := v.(I32Values)
		raw = make([]uint64, len(vs))
		for i, x := range vs {
			raw[i] = uint64(varint.ZigZagEncode32(x))
		}

	case KindU32:
		vs := v.(U32Values)
		raw = make([]uint64, len(vs))
		for i, x := range vs {
			raw[i] = uint64(x)
		}

	case KindI64:
		vs := v.(I64Values)
		width = 64
		raw = make([]uint64, len(vs))
		for i, x := range vs {
			raw[i] = varint.ZigZagEncode(x)
		}

	case KindU64:
		vs := v.(U64Values)
		width = 64
		raw = make([]uint64, len(vs))
		copy(raw, vs)

	case KindF32:
		vs := v.(F32Values)
		raw = make([]uint64, len(vs))
		for i, x := range vs {
			raw[i] = uint64(math.Float32bits(x))
		}

	case KindF64:
		vs := v.(F64Values)
		width = 64
		raw = make([]uint64, len(vs))
		for i, x := range vs {
			raw[i] = math.Float64bits(x)
		}

	default:
		return nil, 0, fmt.Errorf("%w: scalar kind %d", errs.ErrNotImplemented, kind)
	}

	return raw, width, nil
}

func splitByLengths(data []byte, lengths []uint32) ([]string, error) {
	out := make([]string, len(lengths))

	pos := 0
	for i, l := range lengths {
		ln := int(l)
		if pos+ln > len(data) {
			return nil, fmt.Errorf("%w: need %d bytes, have %d", errs.ErrBufferUnderflow, ln, len(data)-pos)
		}

		out[i] = string(data[pos : pos+ln])
		pos += ln
	}

	return out, nil
}

func toU32(vals []uint64) []uint32 {
	out := make([]uint32, len(vals))
	for i, v := range vals {
		out[i] = uint32(v)
	}

	return out
}

func toU8(vals []uint32) []uint8 {
	out := make([]uint8, len(vals))
	for i, v := range vals {
		out[i] = uint8(v)
	}

	return out
}

// DecodeStringColumn implements spec §4.5's string decode rules over a
// property's sub-streams (up to var_binary_lengths, dict_lengths,
// symbol_lengths, data_bytes, dict_bytes, symbol_bytes, offsets).
func DecodeStringColumn(subs []stream.SubStream, engine endian.EndianEngine) (StrValues, error) {
	var varBinaryLengths, dictLengths, symbolLengths []uint32
	var dataBytes, dictBytes, symbolBytes []byte
	var offsets []uint32
	var haveOffsets, haveDictLengths bool

	for _, s := range subs {
		switch s.Type.Class {
		case format.ClassLength:
			vals, err := stream.DecodeValues(s.Meta, s.Payload, engine, 32)
			if err != nil {
				return nil, err
			}

			switch format.LengthType(s.Type.Subclass) {
			case format.LengthVarBinary:
				varBinaryLengths = toU32(vals)
			case format.LengthDictionary:
				dictLengths = toU32(vals)
				haveDictLengths = true
			case format.LengthSymbol:
				symbolLengths = toU32(vals)
			default:
				return nil, fmt.Errorf("%w: %s in string property", errs.ErrUnexpectedStreamType, s.Type)
			}

		case format.ClassData:
			switch format.DictionaryType(s.Type.Subclass) {
			case format.DictNone:
				dataBytes = s.Payload
			case format.DictSingle:
				dictBytes = s.Payload
			case format.DictFsst:
				symbolBytes = s.Payload
			default:
				return nil, fmt.Errorf("%w: %s in string property", errs.ErrUnexpectedStreamType, s.Type)
			}

		case format.ClassOffset:
			if format.OffsetType(s.Type.Subclass) != format.OffsetString {
				return nil, fmt.Errorf("%w: %s in string property", errs.ErrUnexpectedStreamType, s.Type)
			}

			vals, err := stream.DecodeValues(s.Meta, s.Payload, engine, 32)
			if err != nil {
				return nil, err
			}

			offsets = toU32(vals)
			haveOffsets = true

		default:
			return nil, fmt.Errorf("%w: %s in string property", errs.ErrUnexpectedStreamType, s.Type)
		}
	}

	switch {
	case haveOffsets:
		rawDict := dictBytes

		if symbolLengths != nil {
			if symbolBytes == nil || dictBytes == nil {
				return nil, fmt.Errorf("%w: fsst dictionary", errs.ErrMissingStringStream)
			}

			table, err := fsst.NewTable(symbolBytes, toU8(symbolLengths))
			if err != nil {
				return nil, err
			}

			rawDict, err = table.Decode(dictBytes)
			if err != nil {
				return nil, err
			}
		}

		if rawDict == nil || !haveDictLengths {
			return nil, fmt.Errorf("%w: dictionary", errs.ErrMissingStringStream)
		}

		dict, err := splitByLengths(rawDict, dictLengths)
		if err != nil {
			return nil, err
		}

		out := make(StrValues, len(offsets))
		for i, idx := range offsets {
			if int(idx) >= len(dict) {
				return nil, fmt.Errorf("%w: index %d, dictionary has %d entries", errs.ErrDictIndexOutOfBounds, idx, len(dict))
			}

			out[i] = dict[idx]
		}

		return out, nil

	case varBinaryLengths != nil:
		data := dataBytes
		if data == nil {
			data = dictBytes
		}

		if data == nil {
			return nil, fmt.Errorf("%w: var_binary data", errs.ErrMissingStringStream)
		}

		strs, err := splitByLengths(data, varBinaryLengths)
		if err != nil {
			return nil, err
		}

		return StrValues(strs), nil

	case haveDictLengths:
		if dictBytes == nil {
			return nil, fmt.Errorf("%w: dict_bytes", errs.ErrMissingStringStream)
		}

		strs, err := splitByLengths(dictBytes, dictLengths)
		if err != nil {
			return nil, err
		}

		return StrValues(strs), nil

	default:
		return nil, fmt.Errorf("%w: any usable combination", errs.ErrMissingStringStream)
	}
}

// StructColumn is a decoded struct property: a shared dictionary and
// named children, each an offset projection into that dictionary.
// Presence on struct parents is rejected by the caller before this is
// invoked (spec §4.5: "Presence on struct parents is forbidden").
type StructColumn struct {
	Children map[string]StrValues
}

// DecodeStructColumn decodes a struct property's shared dictionary
// streams once, then gathers each child's own Offset(String) stream
// against it. Child keys are parentName+"."+childName per spec's
// "decoded child names are parent_name + child_name" rule.
func DecodeStructColumn(parentName string, dictSubs []stream.SubStream, children map[string][]stream.SubStream, engine endian.EndianEngine) (StructColumn, error) {
	var dictLengths, symbolLengths []uint32
	var dictBytes, symbolBytes []byte
	var haveDictLengths bool

	for _, s := range dictSubs {
		switch s.Type.Class {
		case format.ClassLength:
			vals, err := stream.DecodeValues(s.Meta, s.Payload, engine, 32)
			if err != nil {
				return StructColumn{}, err
			}

			switch format.LengthType(s.Type.Subclass) {
			case format.LengthDictionary:
				dictLengths = toU32(vals)
				haveDictLengths = true
			case format.LengthSymbol:
				symbolLengths = toU32(vals)
			default:
				return StructColumn{}, fmt.Errorf("%w: %s in struct dictionary", errs.ErrUnexpectedStreamType, s.Type)
			}

		case format.ClassData:
			switch format.DictionaryType(s.Type.Subclass) {
			case format.DictShared:
				dictBytes = s.Payload
			case format.DictFsst:
				symbolBytes = s.Payload
			default:
				return StructColumn{}, fmt.Errorf("%w: %s in struct dictionary", errs.ErrUnexpectedStreamType, s.Type)
			}

		default:
			return StructColumn{}, fmt.Errorf("%w: %s in struct dictionary", errs.ErrUnexpectedStreamType, s.Type)
		}
	}

	if !haveDictLengths || dictBytes == nil {
		return StructColumn{}, fmt.Errorf("%w: struct shared dictionary", errs.ErrMissingStringStream)
	}

	rawDict := dictBytes
	if symbolLengths != nil {
		if symbolBytes == nil {
			return StructColumn{}, fmt.Errorf("%w: struct fsst symbols", errs.ErrMissingStringStream)
		}

		table, err := fsst.NewTable(symbolBytes, toU8(symbolLengths))
		if err != nil {
			return StructColumn{}, err
		}

		rawDict, err = table.Decode(dictBytes)
		if err != nil {
			return StructColumn{}, err
		}
	}

	dict, err := splitByLengths(rawDict, dictLengths)
	if err != nil {
		return StructColumn{}, err
	}

	out := StructColumn{Children: make(map[string]StrValues, len(children))}

	for childName, subs := range children {
		var offsets []uint32

		for _, s := range subs {
			if s.Type.Class != format.ClassOffset || format.OffsetType(s.Type.Subclass) != format.OffsetString {
				return StructColumn{}, fmt.Errorf("%w: %s in struct child %q", errs.ErrUnexpectedStreamType, s.Type, childName)
			}

			vals, err := stream.DecodeValues(s.Meta, s.Payload, engine, 32)
			if err != nil {
				return StructColumn{}, err
			}

			offsets = toU32(vals)
		}

		vals := make(StrValues, len(offsets))
		for i, idx := range offsets {
			if int(idx) >= len(dict) {
				return StructColumn{}, fmt.Errorf("%w: index %d, dictionary has %d entries", errs.ErrDictIndexOutOfBounds, idx, len(dict))
			}

			vals[i] = dict[idx]
		}

		out.Children[parentName+"."+childName] = vals
	}

	return out, nil
}
