//go:build !nobuild

package compress

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// zstdDecoderPool and zstdEncoderPool amortize the klauspost/compress/zstd
// warm-up cost: per its own docs, the encoder/decoder should be created
// once and reused rather than per call.
var zstdDecoderPool = sync.Pool{
	New: func() any {
		d, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
		)
		if err != nil {
			panic(fmt.Sprintf("compress: zstd decoder: %v", err))
		}

		return d
	},
}

var zstdEncoderPool = sync.Pool{
	New: func() any {
		e, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			panic(fmt.Sprintf("compress: zstd encoder: %v", err))
		}

		return e
	},
}

// ZstdCodec gives metadata the best available ratio, at the cost of the
// slowest compression path of the four.
type ZstdCodec struct{}

var _ Codec = ZstdCodec{}

func (ZstdCodec) Compress(data []byte) ([]byte, error) {
	e, _ := zstdEncoderPool.Get().(*zstd.Encoder)
	defer zstdEncoderPool.Put(e)

	return e.EncodeAll(data, nil), nil
}

func (ZstdCodec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	d, _ := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(d)

	out, err := d.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}

	return out, nil
}
