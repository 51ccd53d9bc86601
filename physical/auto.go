package physical

import (
	"github.com/maplibre/mlt-go/endian"
)

// ChooseEncoding implements spec §4.3's "auto" physical encoding mode:
// prune candidates that can't carry the given bit width (FastPFOR is
// 32-bit only), encode sample with each survivor, and return the one
// producing the smallest output. Ties favor FastPFOR over VarInt over
// None, which falls out of trying candidates in that order and only
// replacing the best one on a strict size improvement.
func ChooseEncoding(engine endian.EndianEngine, sample []uint64, width int) (Encoding, error) {
	candidates := []Encoding{FastPFOR, VarInt, None}

	best := None
	bestSize := -1

	for _, enc := range candidates {
		if enc == FastPFOR && width != 32 {
			continue
		}

		size, err := trialEncodeSize(engine, enc, sample, width)
		if err != nil {
			continue
		}

		if bestSize < 0 || size < bestSize {
			best = enc
			bestSize = size
		}
	}

	return best, nil
}

func trialEncodeSize(engine endian.EndianEngine, enc Encoding, sample []uint64, width int) (int, error) {
	if width == 64 {
		encoded, err := EncodeU64(enc, engine, sample)
		if err != nil {
			return 0, err
		}

		return len(encoded), nil
	}

	sample32 := make([]uint32, len(sample))
	for i, v := range sample {
		sample32[i] = uint32(v)
	}

	encoded, err := EncodeU32(enc, engine, sample32)
	if err != nil {
		return 0, err
	}

	return len(encoded), nil
}
