// Package mlt provides a convenient top-level API for the MapLibre
// Tile (MLT) binary vector-tile codec: wire parsing and writing (the
// layer package), optional whole-tile archive compression (the
// archive package), and projection into GeoJSON features for
// consumers (the geojson package).
//
// # Basic usage
//
// Parsing a tile and walking its layers:
//
//	tile, err := mlt.ParseTile(data, endian.GetLittleEndianEngine())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, l := range tile.Layers {
//	    l01, ok := l.(*layer.Layer01)
//	    if !ok {
//	        continue // an Unknown layer tag this reader doesn't understand
//	    }
//
//	    fc, err := mlt.ToGeoJSON(l01, endian.GetLittleEndianEngine())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    for _, f := range fc.Features {
//	        fmt.Println(f.Properties["_layer"], f.Geometry)
//	    }
//	}
//
// Writing a tile with whole-tile compression:
//
//	archived, err := mlt.CompressTile(tile, endian.GetLittleEndianEngine(), archive.CompressionZstd)
//	...
//	tile, err = mlt.ParseArchivedTile(archived, endian.GetLittleEndianEngine())
//
// # Package structure
//
// This package is a thin convenience wrapper around layer, archive,
// and geojson. For fine-grained control over a single column's
// encoding strategy, a struct column's shared dictionary, or a
// geometry column's vertex encoding, use those packages directly.
package mlt

import (
	orbgeojson "github.com/paulmach/orb/geojson"

	"github.com/maplibre/mlt-go/archive"
	"github.com/maplibre/mlt-go/endian"
	"github.com/maplibre/mlt-go/geojson"
	"github.com/maplibre/mlt-go/internal/hash"
	"github.com/maplibre/mlt-go/layer"
)

// ParseTile parses a complete MLT tile, a concatenation of layer
// frames (spec §4.7), using engine for every multi-byte field's byte
// order.
func ParseTile(data []byte, engine endian.EndianEngine) (layer.Tile, error) {
	return layer.ParseTile(data, engine)
}

// WriteTile serializes a Tile back to its canonical wire bytes. For a
// Tile built purely by parsing (no column ever materialized), the
// result is byte-exact with the input (spec §8 property 2); a
// materialized column is re-encoded from its Value, so its bytes can
// differ from the input's.
func WriteTile(t layer.Tile, engine endian.EndianEngine) ([]byte, error) {
	return layer.WriteTile(t, engine)
}

// CompressTile serializes t and wraps the result with the chosen
// whole-tile compression codec (SPEC_FULL.md §4.10), prefixing a
// one-byte codec tag so ParseArchivedTile can self-identify it later
// without a side channel for which codec was used.
func CompressTile(t layer.Tile, engine endian.EndianEngine, ct archive.CompressionType) ([]byte, error) {
	raw, err := layer.WriteTile(t, engine)
	if err != nil {
		return nil, err
	}

	return archive.Compress(raw, ct)
}

// ParseArchivedTile reverses CompressTile: it reads the leading codec
// tag, decompresses the tile bytes, and parses the result as a Tile.
func ParseArchivedTile(data []byte, engine endian.EndianEngine) (layer.Tile, error) {
	raw, err := archive.Decompress(data)
	if err != nil {
		return layer.Tile{}, err
	}

	return layer.ParseTile(raw, engine)
}

// ToGeoJSON materializes every column of l and projects it into a
// GeoJSON FeatureCollection (spec §6): one Feature per row,
// tile-local integer coordinates, and "_layer"/"_extent" injected
// into each feature's properties.
func ToGeoJSON(l *layer.Layer01, engine endian.EndianEngine) (*orbgeojson.FeatureCollection, error) {
	return geojson.FromLayer(l, engine)
}

// HashID derives a stable uint64 feature ID from a string key, for
// callers building an idcolumn.Column who have a name rather than a
// natural numeric identifier (e.g. an OSM way's string id, or a
// feature name used as a de-facto key within one layer).
func HashID(name string) uint64 {
	return hash.ID(name)
}
