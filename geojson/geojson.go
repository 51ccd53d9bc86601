// Package geojson projects a decoded layer into the GeoJSON consumer
// shape (spec §6): one Feature per row, tile-local integer coordinates,
// and a "_layer"/"_extent" pair injected into every feature's
// properties. It is a pure consumer of already-materialized columns;
// it never reads or writes wire bytes itself.
package geojson

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	orbgeojson "github.com/paulmach/orb/geojson"

	"github.com/maplibre/mlt-go/endian"
	"github.com/maplibre/mlt-go/errs"
	"github.com/maplibre/mlt-go/format"
	"github.com/maplibre/mlt-go/geometry"
	"github.com/maplibre/mlt-go/layer"
	"github.com/maplibre/mlt-go/property"
)

// FromLayer materializes every column of l and projects it into a
// GeoJSON FeatureCollection. Non-finite f32/f64 property values are
// encoded as the strings "f32::NAN", "f32::INFINITY",
// "f32::NEG_INFINITY" (symmetric for f64) since GeoJSON/JSON numbers
// cannot carry them.
func FromLayer(l *layer.Layer01, engine endian.EndianEngine) (*orbgeojson.FeatureCollection, error) {
	if err := l.Geometry.Materialize(engine); err != nil {
		return nil, fmt.Errorf("geojson: materializing geometry: %w", err)
	}

	numFeatures := len(l.Geometry.Value.Features)

	ids := make([]uint64, numFeatures)
	if l.HasID {
		if err := l.ID.Materialize(engine); err != nil {
			return nil, fmt.Errorf("geojson: materializing id column: %w", err)
		}

		idCol := *l.ID.Value
		if len(idCol) != numFeatures {
			return nil, fmt.Errorf("geojson: id column has %d rows, geometry has %d", len(idCol), numFeatures)
		}

		for i, idPtr := range idCol {
			if idPtr != nil {
				ids[i] = *idPtr
			}
		}
	}

	columns := make([]namedValues, 0, len(l.Properties)+len(l.Structs))

	for _, pc := range l.Properties {
		if err := pc.Materialize(engine); err != nil {
			return nil, fmt.Errorf("geojson: materializing property %q: %w", pc.Name, err)
		}

		vals, err := projectColumn(numFeatures, pc.Value)
		if err != nil {
			return nil, fmt.Errorf("geojson: property %q: %w", pc.Name, err)
		}

		columns = append(columns, namedValues{name: pc.Name, values: vals})
	}

	for _, sp := range l.Structs {
		if err := sp.Materialize(engine); err != nil {
			return nil, fmt.Errorf("geojson: materializing struct %q: %w", sp.Name, err)
		}

		for _, childName := range sp.ChildNames {
			// property.DecodeStructColumn keys Children by
			// parentName+"."+childName (spec §4.5's "decoded child names
			// are parent_name + child_name", dot-joined); reuse that same
			// flattened name as the GeoJSON property key.
			flatName := sp.Name + "." + childName
			strs := sp.Value.Children[flatName]

			vals := make([]any, numFeatures)
			for i := 0; i < numFeatures && i < len(strs); i++ {
				vals[i] = strs[i]
			}

			columns = append(columns, namedValues{name: flatName, values: vals})
		}
	}

	fc := orbgeojson.NewFeatureCollection()

	for i, feat := range l.Geometry.Value.Features {
		geom, err := toOrbGeometry(feat)
		if err != nil {
			return nil, fmt.Errorf("geojson: feature %d: %w", i, err)
		}

		f := orbgeojson.NewFeature(geom)
		f.ID = ids[i]
		f.Properties = orbgeojson.Properties{
			"_layer":  l.Name,
			"_extent": l.Extent,
		}

		for _, col := range columns {
			if v := col.values[i]; v != nil {
				f.Properties[col.name] = v
			}
		}

		fc.Append(f)
	}

	return fc, nil
}

type namedValues struct {
	name   string
	values []any
}

// projectColumn expands a column's dense, present-bitmap-compacted
// Value into one slot per feature row, leaving absent rows nil.
func projectColumn(numFeatures int, v *layer.Decoded) ([]any, error) {
	out := make([]any, numFeatures)

	if v.Str != nil {
		fillPresent(out, v.Present, len(v.Str), func(i int) any { return v.Str[i] })
		return out, nil
	}

	switch vals := v.Scalar.(type) {
	case nil:
		// neither Scalar nor Str populated; every row stays absent.
	case property.BoolValues:
		fillPresent(out, v.Present, len(vals), func(i int) any { return vals[i] })
	case property.I8Values:
		fillPresent(out, v.Present, len(vals), func(i int) any { return vals[i] })
	case property.U8Values:
		fillPresent(out, v.Present, len(vals), func(i int) any { return vals[i] })
	case property.I32Values:
		fillPresent(out, v.Present, len(vals), func(i int) any { return vals[i] })
	case property.U32Values:
		fillPresent(out, v.Present, len(vals), func(i int) any { return vals[i] })
	case property.I64Values:
		fillPresent(out, v.Present, len(vals), func(i int) any { return vals[i] })
	case property.U64Values:
		fillPresent(out, v.Present, len(vals), func(i int) any { return vals[i] })
	case property.F32Values:
		fillPresent(out, v.Present, len(vals), func(i int) any { return encodeF32(vals[i]) })
	case property.F64Values:
		fillPresent(out, v.Present, len(vals), func(i int) any { return encodeF64(vals[i]) })
	default:
		return nil, fmt.Errorf("%w: unrecognized property value type %T", errs.ErrNotImplemented, v.Scalar)
	}

	return out, nil
}

// fillPresent scatters denseLen dense values into out according to
// present: when present is nil every row has a value (the column
// carries no presence stream); otherwise values land only where
// present[i] is true, consuming the dense sequence in order.
func fillPresent(out []any, present []bool, denseLen int, get func(i int) any) {
	if present == nil {
		n := denseLen
		if n > len(out) {
			n = len(out)
		}

		for i := 0; i < n; i++ {
			out[i] = get(i)
		}

		return
	}

	dense := 0
	for i, p := range present {
		if i >= len(out) {
			break
		}

		if p {
			out[i] = get(dense)
			dense++
		}
	}
}

func encodeF32(f float32) any {
	switch {
	case math.IsNaN(float64(f)):
		return "f32::NAN"
	case math.IsInf(float64(f), 1):
		return "f32::INFINITY"
	case math.IsInf(float64(f), -1):
		return "f32::NEG_INFINITY"
	default:
		return f
	}
}

func encodeF64(f float64) any {
	switch {
	case math.IsNaN(f):
		return "f64::NAN"
	case math.IsInf(f, 1):
		return "f64::INFINITY"
	case math.IsInf(f, -1):
		return "f64::NEG_INFINITY"
	default:
		return f
	}
}

func toOrbGeometry(f geometry.Feature) (orb.Geometry, error) {
	switch f.Type {
	case format.Point:
		return toPoint(f.Point), nil
	case format.LineString:
		return toLineString(f.Line), nil
	case format.Polygon:
		return toPolygon(f.Polygon), nil
	case format.MultiPoint:
		pts := make(orb.MultiPoint, len(f.MultiPoint))
		for i, c := range f.MultiPoint {
			pts[i] = toPoint(c)
		}

		return pts, nil
	case format.MultiLineString:
		lines := make(orb.MultiLineString, len(f.MultiLine))
		for i, line := range f.MultiLine {
			lines[i] = toLineString(line)
		}

		return lines, nil
	case format.MultiPolygon:
		polys := make(orb.MultiPolygon, len(f.MultiPolygon))
		for i, poly := range f.MultiPolygon {
			polys[i] = toPolygon(poly)
		}

		return polys, nil
	default:
		return nil, fmt.Errorf("%w: geometry type %s", errs.ErrNotImplemented, f.Type)
	}
}

func toPoint(c geometry.Coord) orb.Point {
	return orb.Point{float64(c.X), float64(c.Y)}
}

func toLineString(line geometry.Line) orb.LineString {
	ls := make(orb.LineString, len(line))
	for i, c := range line {
		ls[i] = toPoint(c)
	}

	return ls
}

func toPolygon(poly geometry.Polygon) orb.Polygon {
	p := make(orb.Polygon, len(poly))
	for i, ring := range poly {
		p[i] = orb.Ring(toLineString(ring))
	}

	return p
}
