// Package layer implements tile and layer framing (spec §4.7) and the
// dual Raw/Decoded column machinery (spec §4.8) layered on top of the
// id/geometry/property/stream packages.
package layer

import (
	"fmt"

	"github.com/maplibre/mlt-go/endian"
	"github.com/maplibre/mlt-go/errs"
	"github.com/maplibre/mlt-go/format"
	"github.com/maplibre/mlt-go/geometry"
	"github.com/maplibre/mlt-go/idcolumn"
	"github.com/maplibre/mlt-go/internal/pool"
	"github.com/maplibre/mlt-go/property"
	"github.com/maplibre/mlt-go/stream"
	"github.com/maplibre/mlt-go/varint"
)

// layer01Tag is the only layer tag this implementation understands;
// every other tag round-trips as an Unknown payload (spec §4.7:
// unrecognized layer tags are preserved, not rejected).
const layer01Tag = 1

// Tile is a parsed MLT tile: an ordered list of layers, each either a
// Layer01 this package understands or an Unknown tag preserved
// verbatim for forward-compatible round-tripping.
type Tile struct {
	Layers []Layer
}

// Layer is either a *Layer01 or an *Unknown.
type Layer interface {
	isLayer()
	tag() uint8
}

// Unknown is a layer whose tag this package doesn't recognize. Its
// Value is the exact payload bytes (everything after the tag byte),
// preserved so an unfamiliar tile still round-trips byte-for-byte.
type Unknown struct {
	Tag   uint8
	Value []byte
}

func (*Unknown) isLayer()     {}
func (u *Unknown) tag() uint8 { return u.Tag }

func (l *Layer01) isLayer()  {}
func (*Layer01) tag() uint8  { return layer01Tag }

// columnHeader is a parsed column header entry: its type, its name (if
// any), and for a struct column its children's names.
type columnHeader struct {
	Type     format.ColumnType
	Name     string
	Children []string
}

// Layer01 is the one layer format this package decodes: a name, a tile
// extent, an optional ID column, a mandatory geometry column, and an
// ordered list of property columns (scalar, string, or struct).
type Layer01 struct {
	Name   string
	Extent uint32

	HasID  bool // format.Id's wire code is 0, so a zero IDType can't itself mark "no ID column"
	IDType format.ColumnType
	ID     IDColumn

	Geometry GeometryColumn

	Properties []*PropertyColumn
	Structs    []*StructProperty

	// order preserves each property/struct column's position among its
	// siblings on the wire, since Properties and Structs are stored in
	// separate slices but interleave arbitrarily in the column list.
	order []orderEntry

	// StrategyFor picks the logical/physical pipeline WriteLayer01 uses
	// to (re-)encode a scalar property column. A nil StrategyFor (the
	// zero value) means DefaultStrategy() for every column. Set this to
	// AutoStrategyFor(engine) to opt a whole layer into spec §4.3's
	// "auto" mode.
	StrategyFor func(pc *PropertyColumn) (Strategy, error)
}

type orderEntry struct {
	isStruct bool
	index    int
}

// AddProperty appends a scalar or string property column, recording
// its position in the wire's column interleave order. Callers building
// a Layer01 from scratch (rather than via ParseLayer01) must use this
// instead of appending to Properties directly, since order is private
// bookkeeping WriteLayer01 needs to reproduce the original column list.
func (l *Layer01) AddProperty(pc *PropertyColumn) {
	l.Properties = append(l.Properties, pc)
	l.order = append(l.order, orderEntry{isStruct: false, index: len(l.Properties) - 1})
}

// AddStruct appends a struct property column, recording its position
// in the wire's column interleave order. See AddProperty.
func (l *Layer01) AddStruct(sp *StructProperty) {
	l.Structs = append(l.Structs, sp)
	l.order = append(l.order, orderEntry{isStruct: true, index: len(l.Structs) - 1})
}

// readCountedSubStreams reads a num_streams varint followed by that
// many sub-streams, the framing convention used by every multi-stream
// column (Geometry, scalar/string properties, struct dictionaries and
// their children) once past the ID column's own self-framed form.
func readCountedSubStreams(data []byte) ([]stream.SubStream, int, error) {
	n, pos, err := varint.ReadUvarint(data)
	if err != nil {
		return nil, 0, err
	}

	subs, consumed, err := stream.ParseSubStreams(data[pos:], int(n))
	if err != nil {
		return nil, 0, err
	}

	return subs, pos + consumed, nil
}

// ParseLayer reads one size-delimited layer (spec §4.7): a varint
// size, a tag byte, then size-1 payload bytes. size == 0 is rejected;
// a recognized tag (1) must consume its entire payload exactly, else
// errs.ErrTrailingLayerData.
func ParseLayer(data []byte, engine endian.EndianEngine) (Layer, int, error) {
	size, n, err := varint.ReadUvarint(data)
	if err != nil {
		return nil, 0, err
	}

	if size == 0 {
		return nil, 0, errs.ErrZeroLayerSize
	}

	pos := n
	end := pos + int(size)

	if end > len(data) {
		return nil, 0, fmt.Errorf("%w: layer declares %d bytes, %d remain", errs.ErrUnableToTake, size, len(data)-pos)
	}

	tag := data[pos]
	value := data[pos+1 : end]

	if tag != layer01Tag {
		return &Unknown{Tag: tag, Value: append([]byte(nil), value...)}, end, nil
	}

	l01, consumed, err := ParseLayer01(value, engine)
	if err != nil {
		return nil, 0, err
	}

	if consumed != len(value) {
		return nil, 0, fmt.Errorf("%w: consumed %d of %d bytes", errs.ErrTrailingLayerData, consumed, len(value))
	}

	return l01, end, nil
}

// WriteLayer is the inverse of ParseLayer.
func WriteLayer(l Layer, engine endian.EndianEngine) ([]byte, error) {
	var payload []byte

	switch v := l.(type) {
	case *Unknown:
		payload = v.Value
	case *Layer01:
		p, err := WriteLayer01(v, engine)
		if err != nil {
			return nil, err
		}

		payload = p
	default:
		return nil, fmt.Errorf("%w: unknown Layer implementation", errs.ErrNotImplemented)
	}

	out := varint.AppendUvarint(nil, uint64(len(payload)+1))
	out = append(out, l.tag())
	out = append(out, payload...)

	return out, nil
}

// ParseLayer01 parses a tag-1 layer body: name, extent, column headers,
// then column payloads in the same order (spec §4.7).
func ParseLayer01(data []byte, engine endian.EndianEngine) (*Layer01, int, error) {
	name, pos, err := varint.ReadString(data)
	if err != nil {
		return nil, 0, err
	}

	extent, n, err := varint.ReadUvarint(data[pos:])
	if err != nil {
		return nil, 0, err
	}
	pos += n

	numColumns, n, err := varint.ReadUvarint(data[pos:])
	if err != nil {
		return nil, 0, err
	}
	pos += n

	headers := make([]columnHeader, numColumns)

	for i := range headers {
		if pos >= len(data) {
			return nil, 0, errs.ErrBufferUnderflow
		}

		ct, err := format.ParseColumnType(data[pos])
		if err != nil {
			return nil, 0, err
		}
		pos++

		h := columnHeader{Type: ct}

		if ct.HasName() {
			h.Name, n, err = varint.ReadString(data[pos:])
			if err != nil {
				return nil, 0, err
			}
			pos += n
		}

		if ct == format.StructType {
			numChildren, n, err := varint.ReadUvarint(data[pos:])
			if err != nil {
				return nil, 0, err
			}
			pos += n

			h.Children = make([]string, numChildren)
			for j := range h.Children {
				h.Children[j], n, err = varint.ReadString(data[pos:])
				if err != nil {
					return nil, 0, err
				}
				pos += n
			}
		}

		headers[i] = h
	}

	l := &Layer01{Name: name, Extent: uint32(extent)}

	sawID, sawGeom := false, false

	for _, h := range headers {
		switch h.Type {
		case format.Id, format.OptId, format.LongId, format.OptLongId:
			if sawID {
				return nil, 0, errs.ErrMultipleIdColumns
			}
			sawID = true

			width, err := idcolumn.WidthForColumnType(h.Type)
			if err != nil {
				return nil, 0, err
			}

			subs, consumed, err := idcolumn.DecodeSubStreams(data[pos:])
			if err != nil {
				return nil, 0, err
			}
			pos += consumed

			l.HasID = true
			l.IDType = h.Type
			l.ID = IDColumn{Width: width, Raw: subs}

		case format.Geometry:
			if sawGeom {
				return nil, 0, errs.ErrMultipleGeometryColumns
			}
			sawGeom = true

			subs, consumed, err := readCountedSubStreams(data[pos:])
			if err != nil {
				return nil, 0, err
			}
			pos += consumed

			l.Geometry = GeometryColumn{Raw: subs}

		case format.StructType:
			dictSubs, consumed, err := readCountedSubStreams(data[pos:])
			if err != nil {
				return nil, 0, err
			}
			pos += consumed

			childRaw := make(map[string][]stream.SubStream, len(h.Children))
			for _, childName := range h.Children {
				subs, consumed, err := readCountedSubStreams(data[pos:])
				if err != nil {
					return nil, 0, err
				}
				pos += consumed

				childRaw[childName] = subs
			}

			sp := &StructProperty{Name: h.Name, ChildNames: h.Children, DictRaw: dictSubs, ChildRaw: childRaw}
			l.Structs = append(l.Structs, sp)
			l.order = append(l.order, orderEntry{isStruct: true, index: len(l.Structs) - 1})

		default:
			subs, consumed, err := readCountedSubStreams(data[pos:])
			if err != nil {
				return nil, 0, err
			}
			pos += consumed

			pc := &PropertyColumn{Name: h.Name, Type: h.Type, Raw: subs}
			l.Properties = append(l.Properties, pc)
			l.order = append(l.order, orderEntry{isStruct: false, index: len(l.Properties) - 1})
		}
	}

	if !sawGeom {
		return nil, 0, errs.ErrMissingGeometry
	}

	return l, pos, nil
}

// WriteLayer01 is the inverse of ParseLayer01. It first calls Encode on
// every column: a column with a non-nil Value has its Raw re-derived
// from that Value (geometry with zero EncodeOptions, scalar properties
// with l.StrategyFor or DefaultStrategy()), and a column that was never
// materialized is serialized from its Raw form as-is.
func WriteLayer01(l *Layer01, engine endian.EndianEngine) ([]byte, error) {
	type wireColumn struct {
		header  columnHeader
		payload []byte
	}

	var cols []wireColumn

	if l.HasID {
		width, err := idcolumn.WidthForColumnType(l.IDType)
		if err != nil {
			return nil, err
		}
		l.ID.Width = width

		if err := l.ID.Encode(engine); err != nil {
			return nil, err
		}

		payload, err := idcolumn.EncodeSubStreams(l.ID.Raw)
		if err != nil {
			return nil, err
		}

		cols = append(cols, wireColumn{header: columnHeader{Type: l.IDType}, payload: payload})
	}

	if err := l.Geometry.Encode(geometry.EncodeOptions{}, engine); err != nil {
		return nil, err
	}

	cols = append(cols, wireColumn{
		header:  columnHeader{Type: format.Geometry},
		payload: stream.AppendSubStreams(nil, l.Geometry.Raw),
	})

	for _, oe := range l.order {
		if oe.isStruct {
			sp := l.Structs[oe.index]

			if err := sp.Encode(engine); err != nil {
				return nil, err
			}

			payload := stream.AppendSubStreams(nil, sp.DictRaw)
			for _, childName := range sp.ChildNames {
				payload = stream.AppendSubStreams(payload, sp.ChildRaw[childName])
			}

			cols = append(cols, wireColumn{
				header:  columnHeader{Type: format.StructType, Name: sp.Name, Children: sp.ChildNames},
				payload: payload,
			})
		} else {
			pc := l.Properties[oe.index]

			strategy := DefaultStrategy()
			if l.StrategyFor != nil {
				s, err := l.StrategyFor(pc)
				if err != nil {
					return nil, err
				}

				strategy = s
			}

			if err := pc.Encode(strategy, engine); err != nil {
				return nil, err
			}

			cols = append(cols, wireColumn{
				header:  columnHeader{Type: pc.Type, Name: pc.Name},
				payload: stream.AppendSubStreams(nil, pc.Raw),
			})
		}
	}

	out := varint.AppendString(nil, l.Name)
	out = varint.AppendUvarint(out, uint64(l.Extent))
	out = varint.AppendUvarint(out, uint64(len(cols)))

	for _, c := range cols {
		out = append(out, uint8(c.header.Type))

		if c.header.Type.HasName() {
			out = varint.AppendString(out, c.header.Name)
		}

		if c.header.Type == format.StructType {
			out = varint.AppendUvarint(out, uint64(len(c.header.Children)))
			for _, childName := range c.header.Children {
				out = varint.AppendString(out, childName)
			}
		}
	}

	for _, c := range cols {
		out = append(out, c.payload...)
	}

	return out, nil
}

// StructProperty is a decoded struct column: a shared dictionary plus
// named children, each projecting into it via its own offset stream
// (spec §4.5). Presence is forbidden on struct parents; DecodePresent
// is never invoked for these columns.
type StructProperty struct {
	Name       string
	ChildNames []string

	DictRaw  []stream.SubStream
	ChildRaw map[string][]stream.SubStream

	Value *property.StructColumn
}

// Materialize decodes the struct's Raw streams into Value, idempotently.
func (s *StructProperty) Materialize(engine endian.EndianEngine) error {
	if s.Value != nil {
		return nil
	}

	v, err := property.DecodeStructColumn(s.Name, s.DictRaw, s.ChildRaw, engine)
	if err != nil {
		return err
	}

	s.Value = &v

	return nil
}

// Encode is the inverse of Materialize: it rebuilds a single shared
// dictionary (in each child's first-occurrence order, children visited
// in ChildNames order) and a per-child Offset(String) stream indexing
// into it.
func (s *StructProperty) Encode(engine endian.EndianEngine) error {
	if s.Value == nil {
		return nil
	}

	index := make(map[string]uint32)
	var dict []string

	dictBytes := func() []byte {
		var buf []byte
		for _, d := range dict {
			buf = append(buf, d...)
		}

		return buf
	}

	childOffsets := make(map[string][]uint32, len(s.ChildNames))

	for _, childName := range s.ChildNames {
		vals := s.Value.Children[s.Name+"."+childName]
		offsets := make([]uint32, len(vals))

		for i, v := range vals {
			idx, ok := index[v]
			if !ok {
				idx = uint32(len(dict))
				index[v] = idx
				dict = append(dict, v)
			}

			offsets[i] = idx
		}

		childOffsets[childName] = offsets
	}

	dictLengths := make([]uint64, len(dict))
	for i, d := range dict {
		dictLengths[i] = uint64(len(d))
	}

	lenMeta := stream.Meta{Type: format.LengthStream(format.LengthDictionary)}
	lenPayload, err := stream.EncodeValues(&lenMeta, dictLengths, engine, 32)
	if err != nil {
		return err
	}

	dictData := dictBytes()
	dataMeta := stream.Meta{Type: format.DataStream(format.DictShared), NumValues: uint32(len(dict)), ByteLength: uint32(len(dictData))}
	s.DictRaw = []stream.SubStream{
		{Type: lenMeta.Type, Meta: lenMeta, Payload: lenPayload},
		{Type: dataMeta.Type, Meta: dataMeta, Payload: dictData},
	}

	s.ChildRaw = make(map[string][]stream.SubStream, len(s.ChildNames))

	for _, childName := range s.ChildNames {
		offs := childOffsets[childName]
		offU64 := make([]uint64, len(offs))
		for i, v := range offs {
			offU64[i] = uint64(v)
		}

		meta := stream.Meta{Type: format.OffsetStream(format.OffsetString)}

		payload, err := stream.EncodeValues(&meta, offU64, engine, 32)
		if err != nil {
			return err
		}

		s.ChildRaw[childName] = []stream.SubStream{{Type: meta.Type, Meta: meta, Payload: payload}}
	}

	return nil
}

// ParseTile parses a whole tile: consecutive ParseLayer calls until
// data is exhausted.
func ParseTile(data []byte, engine endian.EndianEngine) (Tile, error) {
	var t Tile

	pos := 0
	for pos < len(data) {
		l, consumed, err := ParseLayer(data[pos:], engine)
		if err != nil {
			return Tile{}, err
		}

		t.Layers = append(t.Layers, l)
		pos += consumed
	}

	return t, nil
}

// WriteTile is the inverse of ParseTile.
func WriteTile(t Tile, engine endian.EndianEngine) ([]byte, error) {
	buf := pool.GetTileBuffer()
	defer pool.PutTileBuffer(buf)

	for _, l := range t.Layers {
		b, err := WriteLayer(l, engine)
		if err != nil {
			return nil, err
		}

		buf.MustWrite(b)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())

	return out, nil
}
