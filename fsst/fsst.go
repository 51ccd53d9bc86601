// Package fsst implements the spec's Fast Static Symbol Table scheme: a
// 255-entry symbol table (index 0xFF is reserved as a literal-byte
// escape) used to compress short dictionary strings (spec §4.5,
// glossary "FSST"). This is a from-scratch implementation of the wire
// scheme spec.md itself defines; it is not wire-compatible with
// github.com/axiomhq/fsst's own serialized Table format (that package
// is reference material for style only — see DESIGN.md).
package fsst

import (
	"fmt"

	"github.com/maplibre/mlt-go/errs"
)

// escapeByte marks a literal byte follows, rather than a symbol index.
const escapeByte = 0xFF

// maxSymbols is the largest legal symbol table size: indices 0..254,
// since 0xFF is reserved for the escape.
const maxSymbols = 255

// Table is a static symbol table: symbolBytes holds every symbol's
// bytes concatenated in index order, symbolLengths holds each symbol's
// byte length, and offsets is the prefix sum of symbolLengths used to
// slice an individual symbol out of symbolBytes.
type Table struct {
	symbolBytes   []byte
	symbolLengths []uint8
	offsets       []int
}

// NewTable builds a Table from its wire parts: the concatenated symbol
// bytes and the per-symbol length array (both as decoded from their own
// streams per spec §4.5: symbol_bytes and symbol_lengths).
func NewTable(symbolBytes []byte, symbolLengths []uint8) (Table, error) {
	if len(symbolLengths) > maxSymbols {
		return Table{}, fmt.Errorf("%w: %d symbols exceeds the 255-entry table limit", errs.ErrDictIndexOutOfBounds, len(symbolLengths))
	}

	offsets := make([]int, len(symbolLengths)+1)
	for i, l := range symbolLengths {
		offsets[i+1] = offsets[i] + int(l)
	}

	if offsets[len(offsets)-1] > len(symbolBytes) {
		return Table{}, fmt.Errorf("%w: symbol_lengths sum %d exceeds symbol_bytes length %d", errs.ErrDictIndexOutOfBounds, offsets[len(offsets)-1], len(symbolBytes))
	}

	return Table{symbolBytes: symbolBytes, symbolLengths: symbolLengths, offsets: offsets}, nil
}

func (t Table) symbol(idx int) []byte {
	return t.symbolBytes[t.offsets[idx]:t.offsets[idx+1]]
}

// Decode expands an FSST-encoded byte stream: each byte is either
// escapeByte (the following byte is emitted literally) or a symbol
// table index whose bytes are emitted in full.
func (t Table) Decode(encoded []byte) ([]byte, error) {
	out := make([]byte, 0, len(encoded)*2)

	i := 0
	for i < len(encoded) {
		b := encoded[i]

		if b == escapeByte {
			if i+1 >= len(encoded) {
				return nil, fmt.Errorf("%w: escape byte at end of stream", errs.ErrStreamDataMismatch)
			}

			out = append(out, encoded[i+1])
			i += 2

			continue
		}

		idx := int(b)
		if idx >= len(t.symbolLengths) {
			return nil, fmt.Errorf("%w: symbol index %d, table has %d entries", errs.ErrDictIndexOutOfBounds, idx, len(t.symbolLengths))
		}

		out = append(out, t.symbol(idx)...)
		i++
	}

	return out, nil
}

// Encode compresses input against the table with a greedy
// longest-match-first scan: at each position, the longest symbol whose
// bytes match the input at that position is emitted as its index; bytes
// matching no symbol are emitted as an escapeByte-prefixed literal.
func (t Table) Encode(input []byte) []byte {
	out := make([]byte, 0, len(input))

	i := 0
	for i < len(input) {
		bestIdx := -1
		bestLen := 0

		for idx, l := range t.symbolLengths {
			ln := int(l)
			if ln <= bestLen || ln == 0 || i+ln > len(input) {
				continue
			}

			if string(t.symbol(idx)) == string(input[i:i+ln]) {
				bestIdx = idx
				bestLen = ln
			}
		}

		if bestIdx < 0 {
			out = append(out, escapeByte, input[i])
			i++

			continue
		}

		out = append(out, uint8(bestIdx))
		i += bestLen
	}

	return out
}
