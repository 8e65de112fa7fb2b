package compress

// NoOpCodec passes data through unchanged. Used when the caller has
// already judged a metadata payload too small, or already dense enough,
// to be worth compressing.
type NoOpCodec struct{}

var _ Codec = NoOpCodec{}

func (NoOpCodec) Compress(data []byte) ([]byte, error) { return data, nil }

func (NoOpCodec) Decompress(data []byte) ([]byte, error) { return data, nil }
