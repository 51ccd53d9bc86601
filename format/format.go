// Package format defines the small fixed vocabularies that make up a
// parsed MLT tile's framing: column type codes, stream type bytes, and
// geometry type codes (spec §3, §4.2, §4.6).
package format

import (
	"fmt"

	"github.com/maplibre/mlt-go/errs"
)

// ColumnType is the one-byte column type code. Values match
// original_source's ColumnType enum exactly so the 31-code wire space
// (0-4, 10-30) lines up with the reference decoder.
type ColumnType uint8

const (
	Id         ColumnType = 0
	OptId      ColumnType = 1
	LongId     ColumnType = 2
	OptLongId  ColumnType = 3
	Geometry   ColumnType = 4
	Bool       ColumnType = 10
	OptBool    ColumnType = 11
	I8         ColumnType = 12
	OptI8      ColumnType = 13
	U8         ColumnType = 14
	OptU8      ColumnType = 15
	I32        ColumnType = 16
	OptI32     ColumnType = 17
	U32        ColumnType = 18
	OptU32     ColumnType = 19
	I64        ColumnType = 20
	OptI64     ColumnType = 21
	U64        ColumnType = 22
	OptU64     ColumnType = 23
	F32        ColumnType = 24
	OptF32     ColumnType = 25
	F64        ColumnType = 26
	OptF64     ColumnType = 27
	Str        ColumnType = 28
	OptStr     ColumnType = 29
	StructType ColumnType = 30
)

var columnTypeNames = map[ColumnType]string{
	Id: "Id", OptId: "OptId", LongId: "LongId", OptLongId: "OptLongId",
	Geometry: "Geometry", Bool: "Bool", OptBool: "OptBool", I8: "I8", OptI8: "OptI8",
	U8: "U8", OptU8: "OptU8", I32: "I32", OptI32: "OptI32", U32: "U32", OptU32: "OptU32",
	I64: "I64", OptI64: "OptI64", U64: "U64", OptU64: "OptU64", F32: "F32", OptF32: "OptF32",
	F64: "F64", OptF64: "OptF64", Str: "Str", OptStr: "OptStr", StructType: "Struct",
}

func (c ColumnType) String() string {
	if n, ok := columnTypeNames[c]; ok {
		return n
	}

	return fmt.Sprintf("ColumnType(%d)", uint8(c))
}

// ParseColumnType validates a raw column type byte.
func ParseColumnType(code uint8) (ColumnType, error) {
	ct := ColumnType(code)
	if _, ok := columnTypeNames[ct]; !ok {
		return 0, fmt.Errorf("%w: column type code %d", errs.ErrParsingColumnType, code)
	}

	return ct, nil
}

// IsOptional reports whether this column type's low bit marks it
// nullable (every code's parity encodes this uniformly).
func (c ColumnType) IsOptional() bool {
	return uint8(c)&1 != 0
}

// HasName reports whether this column carries a length-prefixed name in
// the wire format. Id, OptId, LongId, OptLongId and Geometry have
// implicit names and do not.
func (c ColumnType) HasName() bool {
	switch c {
	case Id, OptId, LongId, OptLongId, Geometry:
		return false
	default:
		return true
	}
}

// GeometryType is the per-feature geometry variant code.
type GeometryType uint8

const (
	Point           GeometryType = 0
	LineString      GeometryType = 1
	Polygon         GeometryType = 2
	MultiPoint      GeometryType = 3
	MultiLineString GeometryType = 4
	MultiPolygon    GeometryType = 5
)

func (g GeometryType) String() string {
	switch g {
	case Point:
		return "Point"
	case LineString:
		return "LineString"
	case Polygon:
		return "Polygon"
	case MultiPoint:
		return "MultiPoint"
	case MultiLineString:
		return "MultiLineString"
	case MultiPolygon:
		return "MultiPolygon"
	default:
		return fmt.Sprintf("GeometryType(%d)", uint8(g))
	}
}

// ParseGeometryType validates a raw geometry type byte.
func ParseGeometryType(code uint8) (GeometryType, error) {
	if code > uint8(MultiPolygon) {
		return 0, fmt.Errorf("%w: geometry type code %d", errs.ErrParsingColumnType, code)
	}

	return GeometryType(code), nil
}

// NeedsGeometryOffsets, NeedsPartOffsets and NeedsRingOffsets implement
// spec §4.6's topology-buffer requirement table.
func (g GeometryType) NeedsGeometryOffsets() bool {
	switch g {
	case MultiPoint, MultiLineString, MultiPolygon:
		return true
	default:
		return false
	}
}

func (g GeometryType) NeedsPartOffsets() bool {
	switch g {
	case LineString, Polygon, MultiLineString, MultiPolygon:
		return true
	default:
		return false
	}
}

func (g GeometryType) NeedsRingOffsets() bool {
	switch g {
	case Polygon, MultiPolygon:
		return true
	default:
		return false
	}
}

// StreamClass is the high nibble of a stream_type byte (spec §3, §4.2).
type StreamClass uint8

const (
	ClassPresent StreamClass = 0
	ClassData    StreamClass = 1
	ClassOffset  StreamClass = 2
	ClassLength  StreamClass = 3
)

// DictionaryType is the Data class's subclass enum.
type DictionaryType uint8

const (
	DictNone   DictionaryType = 0
	DictSingle DictionaryType = 1
	DictShared DictionaryType = 2
	DictVertex DictionaryType = 3
	DictMorton DictionaryType = 4
	DictFsst   DictionaryType = 5
)

// OffsetType is the Offset class's subclass enum.
type OffsetType uint8

const (
	OffsetVertex OffsetType = 0
	OffsetIndex  OffsetType = 1
	OffsetString OffsetType = 2
	OffsetKey    OffsetType = 3
)

// LengthType is the Length class's subclass enum.
type LengthType uint8

const (
	LengthVarBinary  LengthType = 0
	LengthGeometries LengthType = 1
	LengthParts      LengthType = 2
	LengthRings      LengthType = 3
	LengthTriangles  LengthType = 4
	LengthSymbol     LengthType = 5
	LengthDictionary LengthType = 6
)

// StreamType is the decoded form of a stream_type_byte: a class plus its
// subclass code interpreted per spec §3/§4.2.
type StreamType struct {
	Class    StreamClass
	Subclass uint8
}

// ParseStreamType decodes a stream_type_byte (high 4 bits class, low 4
// bits subclass). A class nibble of 4 or above is invalid per spec §4.2.
func ParseStreamType(b uint8) (StreamType, error) {
	class := StreamClass(b >> 4)
	subclass := b & 0x0F

	switch class {
	case ClassPresent:
		if subclass != 0 {
			return StreamType{}, fmt.Errorf("%w: present class carries no subclass, got %d", errs.ErrParsingStreamType, subclass)
		}
	case ClassData:
		if subclass > uint8(DictFsst) {
			return StreamType{}, fmt.Errorf("%w: dictionary subclass %d", errs.ErrParsingStreamType, subclass)
		}
	case ClassOffset:
		if subclass > uint8(OffsetKey) {
			return StreamType{}, fmt.Errorf("%w: offset subclass %d", errs.ErrParsingStreamType, subclass)
		}
	case ClassLength:
		if subclass > uint8(LengthDictionary) {
			return StreamType{}, fmt.Errorf("%w: length subclass %d", errs.ErrParsingStreamType, subclass)
		}
	default:
		return StreamType{}, fmt.Errorf("%w: stream_type high nibble %d", errs.ErrParsingStreamType, class)
	}

	return StreamType{Class: class, Subclass: subclass}, nil
}

// Byte re-encodes a StreamType to its wire byte.
func (s StreamType) Byte() uint8 {
	return uint8(s.Class)<<4 | s.Subclass
}

func (s StreamType) String() string {
	switch s.Class {
	case ClassPresent:
		return "Present"
	case ClassData:
		return fmt.Sprintf("Data(%s)", DictionaryType(s.Subclass))
	case ClassOffset:
		return fmt.Sprintf("Offset(%s)", OffsetType(s.Subclass))
	case ClassLength:
		return fmt.Sprintf("Length(%s)", LengthType(s.Subclass))
	default:
		return fmt.Sprintf("StreamType(class=%d,sub=%d)", s.Class, s.Subclass)
	}
}

func (d DictionaryType) String() string {
	switch d {
	case DictNone:
		return "None"
	case DictSingle:
		return "Single"
	case DictShared:
		return "Shared"
	case DictVertex:
		return "Vertex"
	case DictMorton:
		return "Morton"
	case DictFsst:
		return "Fsst"
	default:
		return fmt.Sprintf("DictionaryType(%d)", uint8(d))
	}
}

func (o OffsetType) String() string {
	switch o {
	case OffsetVertex:
		return "Vertex"
	case OffsetIndex:
		return "Index"
	case OffsetString:
		return "String"
	case OffsetKey:
		return "Key"
	default:
		return fmt.Sprintf("OffsetType(%d)", uint8(o))
	}
}

func (l LengthType) String() string {
	switch l {
	case LengthVarBinary:
		return "VarBinary"
	case LengthGeometries:
		return "Geometries"
	case LengthParts:
		return "Parts"
	case LengthRings:
		return "Rings"
	case LengthTriangles:
		return "Triangles"
	case LengthSymbol:
		return "Symbol"
	case LengthDictionary:
		return "Dictionary"
	default:
		return fmt.Sprintf("LengthType(%d)", uint8(l))
	}
}

// DataStream builds the stream_type byte for a Data class stream.
func DataStream(d DictionaryType) StreamType { return StreamType{Class: ClassData, Subclass: uint8(d)} }

// OffsetStream builds the stream_type byte for an Offset class stream.
func OffsetStream(o OffsetType) StreamType { return StreamType{Class: ClassOffset, Subclass: uint8(o)} }

// LengthStream builds the stream_type byte for a Length class stream.
func LengthStream(l LengthType) StreamType { return StreamType{Class: ClassLength, Subclass: uint8(l)} }

// PresentStream is the canonical Present-class stream type.
var PresentStream = StreamType{Class: ClassPresent, Subclass: 0}
