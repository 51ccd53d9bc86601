// Package errs collects the sentinel error values returned by every layer of
// the MLT codec. Callers should match on these with errors.Is; call sites
// wrap them with fmt.Errorf("%w: ...") to attach the offending value.
package errs

import "errors"

// Framing errors.
var (
	ErrZeroLayerSize    = errors.New("mlt: layer size is zero")
	ErrTrailingLayerData = errors.New("mlt: trailing bytes after layer payload")
	ErrUnableToTake     = errors.New("mlt: not enough bytes remaining to take")
	ErrBufferUnderflow  = errors.New("mlt: buffer underflow")
)

// Varint / primitive errors.
var (
	ErrNonCanonicalVarInt = errors.New("mlt: non-canonical varint encoding")
	ErrParsing7BitInt     = errors.New("mlt: truncated varint")
)

// Taxonomy parse errors.
var (
	ErrParsingColumnType        = errors.New("mlt: invalid column type code")
	ErrParsingStreamType        = errors.New("mlt: invalid stream type byte")
	ErrParsingLogicalTechnique  = errors.New("mlt: invalid logical encoding technique")
	ErrParsingPhysicalEncoding  = errors.New("mlt: invalid physical encoding")
)

// Semantic errors.
var (
	ErrDuplicateValue              = errors.New("mlt: duplicate value")
	ErrMultipleIdColumns           = errors.New("mlt: more than one id column in layer")
	ErrMultipleGeometryColumns     = errors.New("mlt: more than one geometry column in layer")
	ErrMissingGeometry             = errors.New("mlt: layer has no geometry column")
	ErrNotDecoded                  = errors.New("mlt: column is not in decoded form")
	ErrNotEncoded                  = errors.New("mlt: column is not in raw/encoded form")
	ErrInvalidLogicalEncodings     = errors.New("mlt: invalid logical1/logical2 pairing")
	ErrUnsupportedPhysicalForType  = errors.New("mlt: physical encoding unsupported for this integer width")
)

// Stream errors.
var (
	ErrMissingStringStream = errors.New("mlt: no usable combination of string streams present")
	ErrUnexpectedStreamType = errors.New("mlt: stream present where a different stream type was expected")
	ErrStreamDataMismatch   = errors.New("mlt: stream payload length does not match declared byte_length")
)

// Dictionary / FSST errors.
var (
	ErrDictIndexOutOfBounds = errors.New("mlt: dictionary index out of bounds")
)

// Geometry errors.
var (
	ErrNoGeometryOffsets          = errors.New("mlt: geometry type requires geometry_offsets stream")
	ErrNoPartOffsets              = errors.New("mlt: geometry type requires part_offsets stream")
	ErrNoRingOffsets              = errors.New("mlt: geometry type requires ring_offsets stream")
	ErrUnexpectedOffsetCombination = errors.New("mlt: unexpected combination of offset streams for geometry type")
	ErrGeometryIndexOutOfBounds   = errors.New("mlt: geometry feature index out of bounds")
	ErrGeometryOutOfBounds        = errors.New("mlt: geometry offset out of bounds")
	ErrGeometryVertexOutOfBounds  = errors.New("mlt: geometry vertex index out of bounds")
)

// Presence errors.
var (
	ErrPresenceValueCountMismatch = errors.New("mlt: presence bitmap set-bit count does not match value count")
)

// Codec errors.
var (
	ErrFastPforDecode          = errors.New("mlt: fastpfor decode failed")
	ErrInvalidFastPforByteLen  = errors.New("mlt: fastpfor stream byte length is not a multiple of 4")
	ErrInvalidPairStreamSize   = errors.New("mlt: componentwise stream does not have an even number of values")
)

// Numeric errors.
var (
	ErrIntegerOverflow = errors.New("mlt: integer overflow")
)

// Struct / unimplemented physical encodings, called out as open questions in spec.md §9.
var (
	ErrNotImplemented = errors.New("mlt: not implemented")
)

// ID column errors.
var (
	ErrIdsMissingForEncoding = errors.New("mlt: encoder requires ids but received none")
	ErrIdWidthMismatch       = errors.New("mlt: id column width does not match declared column type")
)

// Struct column errors.
var (
	ErrTriedToEncodeOptionalStruct = errors.New("mlt: struct columns cannot carry a presence stream")
)
