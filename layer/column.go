package layer

import (
	"fmt"

	"github.com/maplibre/mlt-go/endian"
	"github.com/maplibre/mlt-go/errs"
	"github.com/maplibre/mlt-go/format"
	"github.com/maplibre/mlt-go/logical"
	"github.com/maplibre/mlt-go/physical"
	"github.com/maplibre/mlt-go/property"
	"github.com/maplibre/mlt-go/stream"
)

// Decoded holds a property column's typed value once Materialize has
// run; exactly one of Scalar/Str/Struct is populated, chosen by Type.
type Decoded struct {
	Present []bool
	Scalar  property.Value
	Str     property.StrValues
	Struct  *property.StructColumn
}

// PropertyColumn is one non-ID, non-geometry column: a dual-form value
// per spec §4.8. Raw holds the still-undecoded sub-streams; Value is
// nil until Materialize runs. Encode (the inverse of Materialize) is
// driven by a Strategy rather than stored state, since re-encoding a
// decoded column requires choosing a fresh logical/physical pipeline.
type PropertyColumn struct {
	Name string
	Type format.ColumnType

	Raw   []stream.SubStream
	Value *Decoded
}

func scalarKind(ct format.ColumnType) (property.Kind, bool) {
	switch ct {
	case format.Bool, format.OptBool:
		return property.KindBool, true
	case format.I8, format.OptI8:
		return property.KindI8, true
	case format.U8, format.OptU8:
		return property.KindU8, true
	case format.I32, format.OptI32:
		return property.KindI32, true
	case format.U32, format.OptU32:
		return property.KindU32, true
	case format.I64, format.OptI64:
		return property.KindI64, true
	case format.U64, format.OptU64:
		return property.KindU64, true
	case format.F32, format.OptF32:
		return property.KindF32, true
	case format.F64, format.OptF64:
		return property.KindF64, true
	default:
		return 0, false
	}
}

// Materialize decodes a Raw property column into typed Decoded form,
// idempotently (a second call is a no-op). Struct parents are
// forbidden from carrying a presence stream (spec §4.5); string and
// scalar columns split their Raw sub-streams into an optional Present
// stream plus the type-specific payload stream(s).
func (c *PropertyColumn) Materialize(engine endian.EndianEngine) error {
	if c.Value != nil {
		return nil
	}

	var present []bool
	payload := c.Raw

	if len(payload) > 0 && payload[0].Type.Class == format.ClassPresent {
		p, err := property.DecodePresent(payload[0].Payload, int(payload[0].Meta.NumValues))
		if err != nil {
			return err
		}

		present = p
		payload = payload[1:]
	}

	switch c.Type {
	case format.Str, format.OptStr:
		vals, err := property.DecodeStringColumn(payload, engine)
		if err != nil {
			return err
		}

		c.Value = &Decoded{Present: present, Str: vals}

	case format.StructType:
		if present != nil {
			return fmt.Errorf("%w: struct column %q", errs.ErrTriedToEncodeOptionalStruct, c.Name)
		}
		// Struct columns are decoded through StructProperty, not
		// PropertyColumn: their shared dictionary and per-child offset
		// streams don't fit this type's single-Raw-slice shape.
		return fmt.Errorf("%w: struct column %q must be decoded as a StructProperty", errs.ErrNotImplemented, c.Name)

	default:
		kind, ok := scalarKind(c.Type)
		if !ok {
			return fmt.Errorf("%w: %s is not a property column type", errs.ErrParsingColumnType, c.Type)
		}

		if len(payload) != 1 {
			return fmt.Errorf("%w: scalar column %q expects exactly one data stream", errs.ErrUnexpectedStreamType, c.Name)
		}

		vals, err := property.DecodeScalar(kind, payload[0].Meta, payload[0].Payload, engine)
		if err != nil {
			return err
		}

		c.Value = &Decoded{Present: present, Scalar: vals}
	}

	return nil
}

// Strategy selects the logical/physical pipeline a column's scalar
// data stream is re-encoded with. DefaultStrategy() (None/VarInt) is a
// safe, always-valid default; the zero value is None/None. Encode uses
// the Strategy it is given as-is; "auto" mode's smallest-output search
// (spec §4.3) is done by ChooseStrategy and EncodeAuto.
type Strategy struct {
	Logical1 logical.Technique
	Physical physical.Encoding
}

var defaultStrategy = Strategy{Logical1: logical.None, Physical: physical.VarInt}

// Encode is the inverse of Materialize: it re-derives Raw sub-streams
// from Value using strategy, the scalar-pipeline choice for
// non-string columns (strings always re-encode as plain var_binary,
// the simplest always-valid shape).
func (c *PropertyColumn) Encode(strategy Strategy, engine endian.EndianEngine) error {
	if c.Value == nil {
		return nil
	}

	var subs []stream.SubStream

	if c.Value.Present != nil {
		payload := property.EncodePresent(c.Value.Present)
		meta := stream.Meta{Type: format.PresentStream, NumValues: uint32(len(c.Value.Present)), ByteLength: uint32(len(payload))}
		subs = append(subs, stream.SubStream{Type: format.PresentStream, Meta: meta, Payload: payload})
	}

	switch c.Type {
	case format.Str, format.OptStr:
		data := []byte(joinStrings(c.Value.Str))
		lengths := make([]uint32, len(c.Value.Str))

		for i, s := range c.Value.Str {
			lengths[i] = uint32(len(s))
		}

		dataType := format.DataStream(format.DictNone)
		dataMeta := stream.Meta{Type: dataType, NumValues: uint32(len(c.Value.Str)), ByteLength: uint32(len(data))}
		subs = append(subs, stream.SubStream{Type: dataType, Meta: dataMeta, Payload: data})

		lenType := format.LengthStream(format.LengthVarBinary)
		lenMeta := stream.Meta{Type: lenType, Logical1: logical.None, Physical: physical.VarInt}

		lenU64s := make([]uint64, len(lengths))
		for i, v := range lengths {
			lenU64s[i] = uint64(v)
		}

		lenPayload, err := stream.EncodeValues(&lenMeta, lenU64s, engine, 32)
		if err != nil {
			return err
		}

		subs = append(subs, stream.SubStream{Type: lenType, Meta: lenMeta, Payload: lenPayload})

	default:
		kind, ok := scalarKind(c.Type)
		if !ok {
			return fmt.Errorf("%w: %s is not a property column type", errs.ErrParsingColumnType, c.Type)
		}

		meta := stream.Meta{Type: format.DataStream(format.DictNone), Logical1: strategy.Logical1, Physical: strategy.Physical}

		payload, err := property.EncodeScalar(kind, &meta, c.Value.Scalar, engine)
		if err != nil {
			return err
		}

		subs = append(subs, stream.SubStream{Type: meta.Type, Meta: meta, Payload: payload})
	}

	c.Raw = subs

	return nil
}

func joinStrings(vals property.StrValues) string {
	total := 0
	for _, s := range vals {
		total += len(s)
	}

	buf := make([]byte, 0, total)
	for _, s := range vals {
		buf = append(buf, s...)
	}

	return string(buf)
}

// DefaultStrategy returns the always-valid None/VarInt pipeline used
// when the caller doesn't pick one explicitly.
func DefaultStrategy() Strategy { return defaultStrategy }

// AutoSampleSize bounds how many values ChooseStrategy trial-encodes,
// keeping "auto" mode's cost small even on a column with many rows
// (spec §4.3: "take a small prefix sample").
const AutoSampleSize = 256

// ChooseStrategy implements spec §4.3's "auto" physical encoding mode
// for this column: it samples a small prefix of the column's
// zigzag/bit-reinterpreted values and asks physical.ChooseEncoding to
// pick the smallest-output candidate. Logical1 is left at None, since
// this column's own Encode never applies delta/RLE/morton on top
// (those are chosen per-column by a caller building Strategy
// directly, not by this auto search). Str and struct columns have no
// physical choice to make, so they get DefaultStrategy() unchanged.
func (c *PropertyColumn) ChooseStrategy(engine endian.EndianEngine) (Strategy, error) {
	if c.Value == nil {
		return Strategy{}, fmt.Errorf("%w: column %q", errs.ErrNotDecoded, c.Name)
	}

	kind, ok := scalarKind(c.Type)
	if !ok {
		return DefaultStrategy(), nil
	}

	raw, width, err := property.ToRawU64(kind, c.Value.Scalar)
	if err != nil {
		return Strategy{}, err
	}

	sample := raw
	if len(sample) > AutoSampleSize {
		sample = sample[:AutoSampleSize]
	}

	enc, err := physical.ChooseEncoding(engine, sample, width)
	if err != nil {
		return Strategy{}, err
	}

	return Strategy{Logical1: logical.None, Physical: enc}, nil
}

// EncodeAuto is Encode driven by ChooseStrategy's pick rather than a
// caller-supplied Strategy.
func (c *PropertyColumn) EncodeAuto(engine endian.EndianEngine) error {
	strategy, err := c.ChooseStrategy(engine)
	if err != nil {
		return err
	}

	return c.Encode(strategy, engine)
}

// AutoStrategyFor builds a Layer01.StrategyFor callback that runs
// ChooseStrategy for every column, opting a whole layer into spec
// §4.3's "auto" physical encoding mode at write time.
func AutoStrategyFor(engine endian.EndianEngine) func(*PropertyColumn) (Strategy, error) {
	return func(pc *PropertyColumn) (Strategy, error) {
		return pc.ChooseStrategy(engine)
	}
}
