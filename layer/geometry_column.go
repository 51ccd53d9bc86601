package layer

import (
	"github.com/maplibre/mlt-go/endian"
	"github.com/maplibre/mlt-go/geometry"
	"github.com/maplibre/mlt-go/stream"
)

// GeometryColumn is the layer's mandatory geometry column in dual-form:
// Raw holds the still-undecoded sub-streams until Materialize runs,
// after which Value holds the typed Geometry (spec §4.8).
type GeometryColumn struct {
	Raw   []stream.SubStream
	Value *geometry.Geometry
}

// Materialize decodes Raw into Value, idempotently.
func (c *GeometryColumn) Materialize(engine endian.EndianEngine) error {
	if c.Value != nil {
		return nil
	}

	g, err := geometry.Decode(c.Raw, engine)
	if err != nil {
		return err
	}

	c.Value = &g

	return nil
}

// Encode is the inverse of Materialize: it re-derives Raw from Value
// using opts, the vertex/dictionary encoding choice.
func (c *GeometryColumn) Encode(opts geometry.EncodeOptions, engine endian.EndianEngine) error {
	if c.Value == nil {
		return nil
	}

	subs, err := geometry.Encode(*c.Value, opts, engine)
	if err != nil {
		return err
	}

	c.Raw = subs

	return nil
}
