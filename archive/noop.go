package archive

// NoOpCompressor bypasses compression entirely, returning input
// unchanged. Useful when a tile is already well-compressed by the
// codec's own logical/physical encoding choices, or CPU matters more
// than storage.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// NewNoOpCompressor returns a compressor that copies data without
// processing.
func NewNoOpCompressor() NoOpCompressor { return NoOpCompressor{} }

func (c NoOpCompressor) Compress(data []byte) ([]byte, error) { return data, nil }

func (c NoOpCompressor) Decompress(data []byte) ([]byte, error) { return data, nil }
