package geometry

import (
	"testing"

	"github.com/maplibre/mlt-go/endian"
	"github.com/maplibre/mlt-go/errs"
	"github.com/maplibre/mlt-go/format"
	"github.com/stretchr/testify/require"
)

func roundtrip(t *testing.T, g Geometry, opts EncodeOptions) Geometry {
	t.Helper()

	engine := endian.GetLittleEndianEngine()

	subs, err := Encode(g, opts, engine)
	require.NoError(t, err)

	got, err := Decode(subs, engine)
	require.NoError(t, err)

	return got
}

func TestGeometryRoundtripPoint(t *testing.T) {
	g := Geometry{Features: []Feature{
		{Type: format.Point, Point: Coord{X: 10, Y: -20}},
		{Type: format.Point, Point: Coord{X: 0, Y: 0}},
	}}

	got := roundtrip(t, g, EncodeOptions{})
	require.Equal(t, g, got)
}

func TestGeometryRoundtripLineString(t *testing.T) {
	g := Geometry{Features: []Feature{
		{Type: format.LineString, Line: Line{{0, 0}, {5, 5}, {-3, 8}}},
	}}

	got := roundtrip(t, g, EncodeOptions{})
	require.Equal(t, g, got)
}

func TestGeometryRoundtripPolygon(t *testing.T) {
	g := Geometry{Features: []Feature{
		{Type: format.Polygon, Polygon: Polygon{
			{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
			{{2, 2}, {4, 2}, {4, 4}, {2, 4}, {2, 2}},
		}},
	}}

	got := roundtrip(t, g, EncodeOptions{})
	require.Equal(t, g, got)
}

func TestGeometryRoundtripMultiPoint(t *testing.T) {
	g := Geometry{Features: []Feature{
		{Type: format.MultiPoint, MultiPoint: []Coord{{1, 1}, {2, 2}, {3, 3}}},
	}}

	got := roundtrip(t, g, EncodeOptions{})
	require.Equal(t, g, got)
}

func TestGeometryRoundtripMultiLineString(t *testing.T) {
	g := Geometry{Features: []Feature{
		{Type: format.MultiLineString, MultiLine: []Line{
			{{0, 0}, {1, 1}},
			{{2, 2}, {3, 3}, {4, 4}},
		}},
	}}

	got := roundtrip(t, g, EncodeOptions{})
	require.Equal(t, g, got)
}

func TestGeometryRoundtripMultiPolygon(t *testing.T) {
	g := Geometry{Features: []Feature{
		{Type: format.MultiPolygon, MultiPolygon: []Polygon{
			{
				{{0, 0}, {10, 0}, {10, 10}, {0, 0}},
			},
			{
				{{20, 20}, {30, 20}, {30, 30}, {20, 20}},
				{{22, 22}, {24, 22}, {24, 24}, {22, 22}},
			},
		}},
	}}

	got := roundtrip(t, g, EncodeOptions{})
	require.Equal(t, g, got)
}

func TestGeometryRoundtripMixedFeatures(t *testing.T) {
	g := Geometry{Features: []Feature{
		{Type: format.Point, Point: Coord{X: 1, Y: 2}},
		{Type: format.LineString, Line: Line{{0, 0}, {1, 1}}},
		{Type: format.Polygon, Polygon: Polygon{{{0, 0}, {5, 0}, {5, 5}, {0, 0}}}},
		{Type: format.MultiPoint, MultiPoint: []Coord{{9, 9}, {8, 8}}},
	}}

	got := roundtrip(t, g, EncodeOptions{})
	require.Equal(t, g, got)
}

func TestGeometryRoundtripMorton(t *testing.T) {
	g := Geometry{Features: []Feature{
		{Type: format.LineString, Line: Line{{100, 200}, {150, 250}, {90, 300}}},
	}}

	got := roundtrip(t, g, EncodeOptions{VertexEncoding: VertexMorton, NumBits: 16, CoordinateShift: 512})
	require.Equal(t, g, got)
}

func TestGeometryRoundtripVertexDictionary(t *testing.T) {
	g := Geometry{Features: []Feature{
		{Type: format.MultiPoint, MultiPoint: []Coord{{1, 1}, {2, 2}, {1, 1}, {2, 2}}},
	}}

	got := roundtrip(t, g, EncodeOptions{Dictionary: true})
	require.Equal(t, g, got)
}

func TestBuildVertexDict(t *testing.T) {
	distinct, offsets := BuildVertexDict([]Coord{{1, 1}, {2, 2}, {1, 1}, {3, 3}})
	require.Equal(t, []Coord{{1, 1}, {2, 2}, {3, 3}}, distinct)
	require.Equal(t, []uint32{0, 1, 0, 2}, offsets)
}

func TestDecodeMissingGeometryStream(t *testing.T) {
	_, err := Decode(nil, endian.GetLittleEndianEngine())
	require.Error(t, err)
}

func TestDecodeVertexOutOfBounds(t *testing.T) {
	engine := endian.GetLittleEndianEngine()

	g := Geometry{Features: []Feature{{Type: format.LineString, Line: Line{{0, 0}, {1, 1}}}}}
	subs, err := Encode(g, EncodeOptions{}, engine)
	require.NoError(t, err)

	// Drop the final vertex to force an out-of-bounds read during rebuild.
	for i := range subs {
		if format.DictionaryType(subs[i].Type.Subclass) == format.DictVertex {
			short := subs[i].Payload[:len(subs[i].Payload)/2]
			subs[i].Payload = short
			subs[i].Meta.ByteLength = uint32(len(short))
			subs[i].Meta.NumValues /= 2
		}
	}

	_, err = Decode(subs, engine)
	require.ErrorIs(t, err, errs.ErrGeometryVertexOutOfBounds)
}
