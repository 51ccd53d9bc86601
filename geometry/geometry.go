// Package geometry implements the geometry column (spec §4.6): the
// geometry-type stream, the three topology length streams
// (geometries/parts/rings), the packed vertex stream (componentwise
// delta+zigzag or Morton), optional vertex-dictionary indirection, and
// the topology rebuild that turns those flat streams into per-feature
// geometries.
package geometry

import (
	"fmt"

	"github.com/maplibre/mlt-go/endian"
	"github.com/maplibre/mlt-go/errs"
	"github.com/maplibre/mlt-go/format"
	"github.com/maplibre/mlt-go/logical"
	"github.com/maplibre/mlt-go/physical"
	"github.com/maplibre/mlt-go/stream"
	"github.com/maplibre/mlt-go/varint"
)

// VertexEncoding selects how the packed vertex stream is produced.
type VertexEncoding int

const (
	// VertexComponentwiseDelta zigzag-encodes each coordinate then
	// delta-encodes x and y independently (spec §4.6's default).
	VertexComponentwiseDelta VertexEncoding = iota
	// VertexMorton interleaves x/y into a Morton code, re-centered by
	// CoordinateShift; NumBits must cover the tile's coordinate range.
	VertexMorton
)

// EncodeOptions configures Encode's choice of vertex stream shape.
type EncodeOptions struct {
	VertexEncoding  VertexEncoding
	NumBits         uint32 // Morton only
	CoordinateShift uint32 // Morton only
	// Dictionary, when true, causes Encode to deduplicate vertices
	// through a vertex_offsets indirection stream built by BuildVertexDict.
	Dictionary bool
}

// Coord is a single tile-local (x,y) vertex.
type Coord struct {
	X, Y int32
}

// Line is an ordered sequence of vertices (a LineString, or one ring
// of a Polygon).
type Line []Coord

// Polygon is an ordered sequence of rings; Polygon[0] is the
// exterior ring, any further rings are holes.
type Polygon []Line

// Feature is one feature's decoded geometry. Exactly one of the
// fields matching Type is populated; the rest are the zero value.
type Feature struct {
	Type format.GeometryType

	Point        Coord
	Line         Line
	Polygon      Polygon
	MultiPoint   []Coord
	MultiLine    []Line
	MultiPolygon []Polygon
}

// Geometry is a layer's full decoded geometry column: one Feature per
// row, in declaration order.
type Geometry struct {
	Features []Feature
}

// cursor walks the compacted (only-when-needed) length arrays and the
// flat vertex buffer while rebuilding features, mirroring the encode
// side's identical traversal order exactly.
type cursor struct {
	geometryLens []uint32
	partLens     []uint32
	ringLens     []uint32
	vertices     []Coord

	geomPos, partPos, ringPos, vertexPos int
}

func (c *cursor) geomCount(gt format.GeometryType) (int, error) {
	if !gt.NeedsGeometryOffsets() {
		return 1, nil
	}

	if c.geomPos >= len(c.geometryLens) {
		return 0, fmt.Errorf("%w", errs.ErrNoGeometryOffsets)
	}

	n := c.geometryLens[c.geomPos]
	c.geomPos++

	return int(n), nil
}

func (c *cursor) partCount(gt format.GeometryType) (int, error) {
	if !gt.NeedsPartOffsets() {
		return 1, nil
	}

	if c.partPos >= len(c.partLens) {
		return 0, fmt.Errorf("%w", errs.ErrNoPartOffsets)
	}

	n := c.partLens[c.partPos]
	c.partPos++

	return int(n), nil
}

func (c *cursor) ringCount(gt format.GeometryType) (int, error) {
	if !gt.NeedsRingOffsets() {
		return 1, nil
	}

	if c.ringPos >= len(c.ringLens) {
		return 0, fmt.Errorf("%w", errs.ErrNoRingOffsets)
	}

	n := c.ringLens[c.ringPos]
	c.ringPos++

	return int(n), nil
}

func (c *cursor) takeVertex() (Coord, error) {
	if c.vertexPos >= len(c.vertices) {
		return Coord{}, fmt.Errorf("%w: index %d, have %d vertices", errs.ErrGeometryVertexOutOfBounds, c.vertexPos, len(c.vertices))
	}

	v := c.vertices[c.vertexPos]
	c.vertexPos++

	return v, nil
}

func (c *cursor) takeLine(n int) (Line, error) {
	line := make(Line, n)

	for i := 0; i < n; i++ {
		v, err := c.takeVertex()
		if err != nil {
			return nil, err
		}

		line[i] = v
	}

	return line, nil
}

// buildFeature rebuilds a single feature's nested geometry, following
// spec §4.6's three-level prefix-sum walk: geometry_offsets govern how
// many geometry instances a Multi* feature has; part_offsets govern
// either the number of rings (Polygon/MultiPolygon) or the vertex
// count directly (LineString/MultiLineString, which have no ring
// level); ring_offsets govern a polygon ring's vertex count.
func (c *cursor) buildFeature(gt format.GeometryType) (Feature, error) {
	f := Feature{Type: gt}

	switch gt {
	case format.Point:
		v, err := c.takeVertex()
		if err != nil {
			return Feature{}, err
		}

		f.Point = v

	case format.LineString:
		n, err := c.partCount(gt)
		if err != nil {
			return Feature{}, err
		}

		line, err := c.takeLine(n)
		if err != nil {
			return Feature{}, err
		}

		f.Line = line

	case format.Polygon:
		poly, err := c.buildPolygon(gt)
		if err != nil {
			return Feature{}, err
		}

		f.Polygon = poly

	case format.MultiPoint:
		n, err := c.geomCount(gt)
		if err != nil {
			return Feature{}, err
		}

		pts := make([]Coord, n)

		for i := 0; i < n; i++ {
			v, err := c.takeVertex()
			if err != nil {
				return Feature{}, err
			}

			pts[i] = v
		}

		f.MultiPoint = pts

	case format.MultiLineString:
		n, err := c.geomCount(gt)
		if err != nil {
			return Feature{}, err
		}

		lines := make([]Line, n)

		for i := 0; i < n; i++ {
			numVerts, err := c.partCount(gt)
			if err != nil {
				return Feature{}, err
			}

			line, err := c.takeLine(numVerts)
			if err != nil {
				return Feature{}, err
			}

			lines[i] = line
		}

		f.MultiLine = lines

	case format.MultiPolygon:
		n, err := c.geomCount(gt)
		if err != nil {
			return Feature{}, err
		}

		polys := make([]Polygon, n)

		for i := 0; i < n; i++ {
			poly, err := c.buildPolygon(gt)
			if err != nil {
				return Feature{}, err
			}

			polys[i] = poly
		}

		f.MultiPolygon = polys

	default:
		return Feature{}, fmt.Errorf("%w: geometry type %s", errs.ErrUnexpectedOffsetCombination, gt)
	}

	return f, nil
}

func (c *cursor) buildPolygon(gt format.GeometryType) (Polygon, error) {
	numRings, err := c.partCount(gt)
	if err != nil {
		return nil, err
	}

	rings := make(Polygon, numRings)

	for r := 0; r < numRings; r++ {
		numVerts, err := c.ringCount(gt)
		if err != nil {
			return nil, err
		}

		ring, err := c.takeLine(numVerts)
		if err != nil {
			return nil, err
		}

		rings[r] = ring
	}

	return rings, nil
}

// decodeVertices reads the packed vertex stream (componentwise
// delta+zigzag, or Morton) and, if a vertex_offsets dictionary
// indirection stream is present, gathers through it.
func decodeVertices(vertexSub *stream.SubStream, vertexOffsetsSub *stream.SubStream, engine endian.EndianEngine) ([]Coord, error) {
	if vertexSub == nil {
		return nil, nil
	}

	raw, err := stream.DecodeValues(vertexSub.Meta, vertexSub.Payload, engine, 32)
	if err != nil {
		return nil, err
	}

	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("%w", errs.ErrInvalidPairStreamSize)
	}

	isMorton := vertexSub.Type.Class == format.ClassData && format.DictionaryType(vertexSub.Type.Subclass) == format.DictMorton

	distinct := make([]Coord, len(raw)/2)
	for i := range distinct {
		x64, y64 := raw[2*i], raw[2*i+1]

		if isMorton {
			distinct[i] = Coord{X: int32(uint32(x64)), Y: int32(uint32(y64))}
		} else {
			distinct[i] = Coord{X: varint.ZigZagDecode32(uint32(x64)), Y: varint.ZigZagDecode32(uint32(y64))}
		}
	}

	if vertexOffsetsSub == nil {
		return distinct, nil
	}

	idxVals, err := stream.DecodeValues(vertexOffsetsSub.Meta, vertexOffsetsSub.Payload, engine, 32)
	if err != nil {
		return nil, err
	}

	out := make([]Coord, len(idxVals))
	for i, idx := range idxVals {
		if int(idx) >= len(distinct) {
			return nil, fmt.Errorf("%w: index %d, dictionary has %d entries", errs.ErrDictIndexOutOfBounds, idx, len(distinct))
		}

		out[i] = distinct[idx]
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

// Decode rebuilds a layer's geometry column from its sub-streams.
func Decode(subs []stream.SubStream, engine endian.EndianEngine) (Geometry, error) {
	var typesSub *stream.SubStream
	var geometryLensSub, partLensSub, ringLensSub *stream.SubStream
	var vertexSub, vertexOffsetsSub *stream.SubStream

	for i := range subs {
		s := &subs[i]

		switch s.Type.Class {
		case format.ClassData:
			switch format.DictionaryType(s.Type.Subclass) {
			case format.DictNone:
				typesSub = s
			case format.DictVertex, format.DictMorton:
				vertexSub = s
			default:
				return Geometry{}, fmt.Errorf("%w: %s in geometry column", errs.ErrUnexpectedStreamType, s.Type)
			}

		case format.ClassLength:
			switch format.LengthType(s.Type.Subclass) {
			case format.LengthGeometries:
				geometryLensSub = s
			case format.LengthParts:
				partLensSub = s
			case format.LengthRings:
				ringLensSub = s
			default:
				return Geometry{}, fmt.Errorf("%w: %s in geometry column", errs.ErrUnexpectedStreamType, s.Type)
			}

		case format.ClassOffset:
			if format.OffsetType(s.Type.Subclass) != format.OffsetVertex {
				return Geometry{}, fmt.Errorf("%w: %s in geometry column", errs.ErrUnexpectedStreamType, s.Type)
			}

			vertexOffsetsSub = s

		default:
			return Geometry{}, fmt.Errorf("%w: %s in geometry column", errs.ErrUnexpectedStreamType, s.Type)
		}
	}

	if typesSub == nil {
		return Geometry{}, fmt.Errorf("%w", errs.ErrMissingGeometry)
	}

	rawTypes, err := stream.DecodeValues(typesSub.Meta, typesSub.Payload, engine, 32)
	if err != nil {
		return Geometry{}, err
	}

	types := make([]format.GeometryType, len(rawTypes))
	for i, v := range rawTypes {
		gt, err := format.ParseGeometryType(uint8(v))
		if err != nil {
			return Geometry{}, err
		}

		types[i] = gt
	}

	c := &cursor{}

	if geometryLensSub != nil {
		vals, err := stream.DecodeValues(geometryLensSub.Meta, geometryLensSub.Payload, engine, 32)
		if err != nil {
			return Geometry{}, err
		}
		c.geometryLens = toU32(vals)
	}

	if partLensSub != nil {
		vals, err := stream.DecodeValues(partLensSub.Meta, partLensSub.Payload, engine, 32)
		if err != nil {
			return Geometry{}, err
		}
		c.partLens = toU32(vals)
	}

	if ringLensSub != nil {
		vals, err := stream.DecodeValues(ringLensSub.Meta, ringLensSub.Payload, engine, 32)
		if err != nil {
			return Geometry{}, err
		}
		c.ringLens = toU32(vals)
	}

	vertices, err := decodeVertices(vertexSub, vertexOffsetsSub, engine)
	if err != nil {
		return Geometry{}, err
	}
	c.vertices = vertices

	features := make([]Feature, len(types))
	for i, gt := range types {
		f, err := c.buildFeature(gt)
		if err != nil {
			return Geometry{}, err
		}

		features[i] = f
	}

	return Geometry{Features: features}, nil
}

// builder accumulates the flat length arrays and vertex buffer while
// walking features in the same order buildFeature reconstructs them,
// so Encode and Decode agree on every cursor position.
type builder struct {
	geometryLens []uint32
	partLens     []uint32
	ringLens     []uint32
	vertices     []Coord
}

func (b *builder) pushGeom(gt format.GeometryType, n int) {
	if gt.NeedsGeometryOffsets() {
		b.geometryLens = append(b.geometryLens, uint32(n))
	}
}

func (b *builder) pushPart(gt format.GeometryType, n int) {
	if gt.NeedsPartOffsets() {
		b.partLens = append(b.partLens, uint32(n))
	}
}

func (b *builder) pushRing(gt format.GeometryType, n int) {
	if gt.NeedsRingOffsets() {
		b.ringLens = append(b.ringLens, uint32(n))
	}
}

func (b *builder) pushLine(line Line) {
	b.vertices = append(b.vertices, line...)
}

func (b *builder) pushPolygon(gt format.GeometryType, poly Polygon) {
	b.pushPart(gt, len(poly))

	for _, ring := range poly {
		b.pushRing(gt, len(ring))
		b.pushLine(ring)
	}
}

func (b *builder) addFeature(f Feature) {
	switch f.Type {
	case format.Point:
		b.vertices = append(b.vertices, f.Point)

	case format.LineString:
		b.pushPart(f.Type, len(f.Line))
		b.pushLine(f.Line)

	case format.Polygon:
		b.pushPolygon(f.Type, f.Polygon)

	case format.MultiPoint:
		b.pushGeom(f.Type, len(f.MultiPoint))
		b.vertices = append(b.vertices, f.MultiPoint...)

	case format.MultiLineString:
		b.pushGeom(f.Type, len(f.MultiLine))

		for _, line := range f.MultiLine {
			b.pushPart(f.Type, len(line))
			b.pushLine(line)
		}

	case format.MultiPolygon:
		b.pushGeom(f.Type, len(f.MultiPolygon))

		for _, poly := range f.MultiPolygon {
			b.pushPolygon(f.Type, poly)
		}
	}
}

// BuildVertexDict deduplicates vertices in first-occurrence order,
// returning the distinct vertex list and, for every input vertex, its
// index into that list (the vertex_offsets stream).
func BuildVertexDict(vertices []Coord) (distinct []Coord, offsets []uint32) {
	seen := make(map[Coord]uint32, len(vertices))
	offsets = make([]uint32, len(vertices))

	for i, v := range vertices {
		idx, ok := seen[v]
		if !ok {
			idx = uint32(len(distinct))
			seen[v] = idx
			distinct = append(distinct, v)
		}

		offsets[i] = idx
	}

	return distinct, offsets
}

func encodeLenStream(lt format.LengthType, lens []uint32, engine endian.EndianEngine) (stream.SubStream, bool, error) {
	if len(lens) == 0 {
		return stream.SubStream{}, false, nil
	}

	st := format.LengthStream(lt)
	meta := stream.Meta{Type: st, Logical1: logical.None, Physical: physical.VarInt}

	u64s := make([]uint64, len(lens))
	for i, v := range lens {
		u64s[i] = uint64(v)
	}

	payload, err := stream.EncodeValues(&meta, u64s, engine, 32)
	if err != nil {
		return stream.SubStream{}, false, err
	}

	return stream.SubStream{Type: st, Meta: meta, Payload: payload}, true, nil
}

func encodeVertexValues(verts []Coord, opts EncodeOptions) []uint64 {
	out := make([]uint64, 0, len(verts)*2)

	for _, v := range verts {
		if opts.VertexEncoding == VertexMorton {
			out = append(out, uint64(uint32(v.X)), uint64(uint32(v.Y)))
		} else {
			out = append(out, uint64(varint.ZigZagEncode32(v.X)), uint64(varint.ZigZagEncode32(v.Y)))
		}
	}

	return out
}

// Encode is the inverse of Decode: it produces the sub-streams for a
// layer's geometry column from its decoded features.
func Encode(g Geometry, opts EncodeOptions, engine endian.EndianEngine) ([]stream.SubStream, error) {
	b := &builder{}
	types := make([]uint64, len(g.Features))

	for i, f := range g.Features {
		types[i] = uint64(f.Type)
		b.addFeature(f)
	}

	var subs []stream.SubStream

	typesMeta := stream.Meta{Type: format.DataStream(format.DictNone), Logical1: logical.None, Physical: physical.VarInt}

	typesPayload, err := stream.EncodeValues(&typesMeta, types, engine, 32)
	if err != nil {
		return nil, err
	}

	subs = append(subs, stream.SubStream{Type: typesMeta.Type, Meta: typesMeta, Payload: typesPayload})

	for _, e := range []struct {
		lt   format.LengthType
		lens []uint32
	}{
		{format.LengthGeometries, b.geometryLens},
		{format.LengthParts, b.partLens},
		{format.LengthRings, b.ringLens},
	} {
		sub, ok, err := encodeLenStream(e.lt, e.lens, engine)
		if err != nil {
			return nil, err
		}

		if ok {
			subs = append(subs, sub)
		}
	}

	vertexVals := b.vertices

	var storedVerts []Coord
	var vertexOffsets []uint32

	if opts.Dictionary {
		storedVerts, vertexOffsets = BuildVertexDict(vertexVals)
	} else {
		storedVerts = vertexVals
	}

	vertexValues := encodeVertexValues(storedVerts, opts)

	var vertexType format.StreamType
	var vertexMeta stream.Meta

	if opts.VertexEncoding == VertexMorton {
		vertexType = format.DataStream(format.DictMorton)
		vertexMeta = stream.Meta{
			Type:            vertexType,
			Logical1:        logical.Morton,
			Physical:        physical.VarInt,
			NumBits:         opts.NumBits,
			CoordinateShift: opts.CoordinateShift,
		}
	} else {
		vertexType = format.DataStream(format.DictVertex)
		vertexMeta = stream.Meta{
			Type:     vertexType,
			Logical1: logical.ComponentwiseDelta,
			Physical: physical.VarInt,
		}
	}

	vertexPayload, err := stream.EncodeValues(&vertexMeta, vertexValues, engine, 32)
	if err != nil {
		return nil, err
	}

	subs = append(subs, stream.SubStream{Type: vertexType, Meta: vertexMeta, Payload: vertexPayload})

	if opts.Dictionary {
		offsetType := format.OffsetStream(format.OffsetVertex)
		offsetMeta := stream.Meta{Type: offsetType, Logical1: logical.None, Physical: physical.VarInt}

		offsetU64s := make([]uint64, len(vertexOffsets))
		for i, v := range vertexOffsets {
			offsetU64s[i] = uint64(v)
		}

		offsetPayload, err := stream.EncodeValues(&offsetMeta, offsetU64s, engine, 32)
		if err != nil {
			return nil, err
		}

		subs = append(subs, stream.SubStream{Type: offsetType, Meta: offsetMeta, Payload: offsetPayload})
	}

	return subs, nil
}
