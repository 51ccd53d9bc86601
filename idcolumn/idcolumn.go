// Package idcolumn implements the optional feature ID column (spec
// §4.4): a num_streams varint selecting between "no IDs" and a
// Present-bitmap-plus-data-stream pair, 32- or 64-bit wide per the
// column's type code.
package idcolumn

import (
	"fmt"

	"github.com/maplibre/mlt-go/endian"
	"github.com/maplibre/mlt-go/errs"
	"github.com/maplibre/mlt-go/format"
	"github.com/maplibre/mlt-go/property"
	"github.com/maplibre/mlt-go/stream"
	"github.com/maplibre/mlt-go/varint"
)

// Column is the decoded ID column: nil entries mark features with no
// ID. A nil Column (as opposed to one whose every entry is nil) means
// the layer carries no ID column at all.
type Column []*uint64

// Width selects whether a column's data stream is 32- or 64-bit wide,
// driven by the Layer01 column's type code (format.Id/OptId = 32-bit,
// format.LongId/OptLongId = 64-bit).
type Width int

const (
	Width32 Width = 32
	Width64 Width = 64
)

// DecodeSubStreams parses only the ID column's framing: a num_streams
// varint (spec §4.4) of 1 (absent marker, no sub-streams follow) or 2
// (a Present sub-stream followed by the ID data sub-stream). Both
// sub-streams' payloads are returned undecoded, so callers can hold
// them as Raw until a typed Column is actually needed (spec §4.8).
func DecodeSubStreams(data []byte) ([]stream.SubStream, int, error) {
	numStreams, n, err := varint.ReadUvarint(data)
	if err != nil {
		return nil, 0, err
	}

	pos := n

	switch numStreams {
	case 1:
		return nil, pos, nil

	case 2:
		subs, consumed, err := stream.ParseSubStreams(data[pos:], 2)
		if err != nil {
			return nil, 0, err
		}
		pos += consumed

		if subs[0].Type.Class != format.ClassPresent {
			return nil, 0, fmt.Errorf("%w: expected Present stream, got %s", errs.ErrUnexpectedStreamType, subs[0].Type)
		}

		return subs, pos, nil

	default:
		return nil, 0, fmt.Errorf("%w: num_streams %d", errs.ErrMultipleIdColumns, numStreams)
	}
}

// EncodeSubStreams serializes the ID column's num_streams framing
// around subs, the inverse of DecodeSubStreams: a nil/empty subs
// writes the 1-stream absent marker; otherwise subs must hold exactly
// the 2 sub-streams (Present, Data) DecodeSubStreams would have
// produced.
func EncodeSubStreams(subs []stream.SubStream) ([]byte, error) {
	if len(subs) == 0 {
		return varint.AppendUvarint(nil, 1), nil
	}

	if len(subs) != 2 {
		return nil, fmt.Errorf("%w: id column expects 0 or 2 sub-streams, got %d", errs.ErrUnexpectedStreamType, len(subs))
	}

	out := varint.AppendUvarint(nil, 2)
	out = subs[0].Meta.AppendTo(out)
	out = append(out, subs[0].Payload...)
	out = subs[1].Meta.AppendTo(out)
	out = append(out, subs[1].Payload...)

	return out, nil
}

// DecodeFromSubStreams turns the already-parsed Present+Data
// sub-streams (as produced by DecodeSubStreams) into the typed Column.
// A nil/empty subs decodes to a nil Column.
func DecodeFromSubStreams(subs []stream.SubStream, width Width, engine endian.EndianEngine) (Column, error) {
	if len(subs) == 0 {
		return nil, nil
	}

	if len(subs) != 2 {
		return nil, fmt.Errorf("%w: id column expects 0 or 2 sub-streams, got %d", errs.ErrUnexpectedStreamType, len(subs))
	}

	presentSub, dataSub := subs[0], subs[1]

	present, err := property.DecodePresent(presentSub.Payload, int(presentSub.Meta.NumValues))
	if err != nil {
		return nil, err
	}

	vals, err := stream.DecodeValues(dataSub.Meta, dataSub.Payload, engine, int(width))
	if err != nil {
		return nil, err
	}

	col, err := property.ApplyPresent(present, vals)
	if err != nil {
		return nil, err
	}

	return Column(col), nil
}

// EncodeToSubStreams is the inverse of DecodeFromSubStreams: col == nil
// produces no sub-streams (the caller then writes the 1-stream absent
// marker); a non-nil col (even if every entry is nil) always produces
// the Present+Data pair, with the data stream's logical/physical
// pipeline reset to None — the always-valid default, since this
// function has no strategy input to pick anything smarter.
func EncodeToSubStreams(col Column, width Width, engine endian.EndianEngine) ([]stream.SubStream, error) {
	if col == nil {
		return nil, nil
	}

	present := make([]bool, len(col))
	var values []uint64

	for i, v := range col {
		if v != nil {
			present[i] = true
			values = append(values, *v)
		}
	}

	presentPayload := property.EncodePresent(present)
	presentMeta := stream.Meta{Type: format.PresentStream, NumValues: uint32(len(present)), ByteLength: uint32(len(presentPayload))}

	dataMeta := stream.Meta{Type: format.DataStream(format.DictNone)}

	dataPayload, err := stream.EncodeValues(&dataMeta, values, engine, int(width))
	if err != nil {
		return nil, err
	}

	return []stream.SubStream{
		{Type: presentMeta.Type, Meta: presentMeta, Payload: presentPayload},
		{Type: dataMeta.Type, Meta: dataMeta, Payload: dataPayload},
	}, nil
}

// WidthForColumnType maps a Layer01 column type code to its ID width.
func WidthForColumnType(ct format.ColumnType) (Width, error) {
	switch ct {
	case format.Id, format.OptId:
		return Width32, nil
	case format.LongId, format.OptLongId:
		return Width64, nil
	default:
		return 0, fmt.Errorf("%w: %s is not an id column type", errs.ErrIdWidthMismatch, ct)
	}
}
