package compress

import (
	"errors"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// lz4CompressorPool pools lz4.Compressor instances; the type carries
// internal hash-table state that is expensive to zero on every call.
var lz4CompressorPool = sync.Pool{
	New: func() any { return &lz4.Compressor{} },
}

// LZ4Codec favors decompression speed over ratio, for metadata a reader
// touches far more often than a writer produces it.
type LZ4Codec struct{}

var _ Codec = LZ4Codec{}

func (LZ4Codec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	dst := make([]byte, lz4.CompressBlockBound(len(data)))

	c, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(c)

	n, err := c.CompressBlock(data, dst)
	if err != nil {
		return nil, err
	}

	return dst[:n], nil
}

// lz4MaxBufferSize bounds the adaptive decompression buffer growth below
// so a corrupted compression-ratio claim can't force an unbounded alloc.
const lz4MaxBufferSize = 128 * 1024 * 1024

func (LZ4Codec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	bufSize := len(data) * 4
	for bufSize <= lz4MaxBufferSize {
		buf := make([]byte, bufSize)
		n, err := lz4.UncompressBlock(data, buf)
		if err != nil {
			if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) && bufSize < lz4MaxBufferSize {
				bufSize *= 2
				continue
			}

			return nil, err
		}

		return buf[:n], nil
	}

	return nil, lz4.ErrInvalidSourceShortBuffer
}
