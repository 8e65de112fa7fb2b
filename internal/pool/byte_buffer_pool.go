// Package pool provides sync.Pool-backed scratch buffers for the read path:
// omfile's ArrayReader fetches chunk data and LUT index bytes into them.
// Nothing here is safe to retain past a Put.
package pool

import (
	"io"
	"sync"
)

// Default and threshold sizes for the chunk scratch pool. A chunk buffer
// holds one decoded/encoded chunk plane (prod(chunks) * bytes_per_element);
// 64KiB covers a typical 128x128 int16 chunk, 1MiB covers oversized chunks
// without forcing every caller through the growth path.
const (
	ChunkBufferDefaultSize  = 1024 * 64
	ChunkBufferMaxThreshold = 1024 * 1024
)

// ByteBuffer is a growable byte slice wrapper sized for reuse via sync.Pool.
type ByteBuffer struct {
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified default size.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset resets the buffer to be empty, but retains the allocated memory for reuse.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the buffer.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// MustWrite writes data to the buffer, growing it if necessary.
func (bb *ByteBuffer) MustWrite(data []byte) {
	bb.B = append(bb.B, data...)
}

// SetLength sets the length of the buffer to n, growing the backing array if needed.
func (bb *ByteBuffer) SetLength(n int) {
	if n < 0 {
		panic("SetLength: invalid length")
	}

	if n > cap(bb.B) {
		bb.Grow(n - len(bb.B))
	}

	bb.B = bb.B[:n]
}

// Grow ensures the buffer can hold requiredBytes more bytes without reallocating.
func (bb *ByteBuffer) Grow(requiredBytes int) {
	available := cap(bb.B) - len(bb.B)
	if available >= requiredBytes {
		return
	}

	growBy := ChunkBufferDefaultSize
	if cap(bb.B) > 4*ChunkBufferDefaultSize {
		growBy = cap(bb.B) / 4
	}

	if growBy < requiredBytes {
		growBy = requiredBytes
	}

	newBuf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// Write appends the contents of data to the buffer, growing it as needed.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// WriteTo writes the contents of the buffer to w.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)
	return int64(n), err
}

// ByteBufferPool is a sync.Pool of ByteBuffers with an eviction threshold so
// one oversized chunk doesn't permanently bloat the pool.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a new ByteBufferPool with buffers of the specified default size.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool for reuse.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var chunkDefaultPool = NewByteBufferPool(ChunkBufferDefaultSize, ChunkBufferMaxThreshold)

// GetChunkBuffer retrieves a ByteBuffer from the default chunk scratch pool.
func GetChunkBuffer() *ByteBuffer {
	return chunkDefaultPool.Get()
}

// PutChunkBuffer returns a ByteBuffer to the default chunk scratch pool.
func PutChunkBuffer(bb *ByteBuffer) {
	chunkDefaultPool.Put(bb)
}
