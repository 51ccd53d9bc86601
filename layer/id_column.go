package layer

import (
	"github.com/maplibre/mlt-go/endian"
	"github.com/maplibre/mlt-go/idcolumn"
	"github.com/maplibre/mlt-go/stream"
)

// IDColumn is the layer's optional feature-ID column in dual form,
// mirroring GeometryColumn: Raw holds the still-undecoded Present+data
// sub-streams (empty when the wire declared the column absent via
// num_streams=1) until Materialize runs and populates Value.
type IDColumn struct {
	Width idcolumn.Width
	Raw   []stream.SubStream
	Value *idcolumn.Column
}

// Materialize decodes Raw into Value, idempotently.
func (c *IDColumn) Materialize(engine endian.EndianEngine) error {
	if c.Value != nil {
		return nil
	}

	col, err := idcolumn.DecodeFromSubStreams(c.Raw, c.Width, engine)
	if err != nil {
		return err
	}

	c.Value = &col

	return nil
}

// Encode is the inverse of Materialize: it re-derives Raw from Value.
// A nil Value means the column was never materialized since parse, so
// Raw is left untouched and still carries the original wire bytes
// verbatim, whatever physical encoding they used.
func (c *IDColumn) Encode(engine endian.EndianEngine) error {
	if c.Value == nil {
		return nil
	}

	subs, err := idcolumn.EncodeToSubStreams(*c.Value, c.Width, engine)
	if err != nil {
		return err
	}

	c.Raw = subs

	return nil
}
