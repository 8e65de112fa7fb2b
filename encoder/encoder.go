// Package encoder implements the write path described in §4.9: the dual
// of the planner/chunk-copy read path. For each chunk in linear index
// order it gathers the chunk's cells out of the caller's source cube via
// chunklayout.ChunkCopy (run in the gather direction), filters and
// compresses them through chunkcodec, and accumulates the running
// byte-offset table the lut package later compresses into the v3 LUT
// layout (§3, §4.9 step 5).
package encoder

import (
	"github.com/omfile/omfile/chunkcodec"
	"github.com/omfile/omfile/chunklayout"
	"github.com/omfile/omfile/format"
)

// Config parametrises one array's encode: its chunk grid and the codec
// parameters (compression tag, data type, scale/offset) every chunk
// shares.
type Config struct {
	Grid   chunklayout.Grid
	Params chunkcodec.Params
}

// Result is the write-side counterpart of a decoded array: the
// concatenated compressed chunk bytes and the LUT offsets table
// (length n_chunks+1, offsets[0] == 0) the caller compresses via the lut
// package and records as an array variable's lut_offset/lut_size.
type Result struct {
	Data    []byte
	Offsets []uint64
}

// EncodeArray walks every chunk of cfg.Grid in linear order, gathering
// each one's cells out of source (laid out row-major per cfg.Grid.Dims,
// length prod(Dims)) and appending its compressed bytes.
//
// Cells of a boundary chunk that fall outside Dims are zero-padded before
// compression; a reader never touches them, since ChunkCopy only ever
// copies a chunk's intersection with a requested window.
func EncodeArray(cfg Config, source []float64) (Result, error) {
	grid := cfg.Grid
	d := len(grid.Dims)
	nChunks := grid.NChunks()

	chunkLen := uint64(1)
	for _, c := range grid.Chunks {
		chunkLen *= c
	}

	offsets := make([]uint64, nChunks+1)
	var data []byte

	zeros := make([]uint64, d)
	chunkBuf := make([]float64, chunkLen)

	for linear := uint64(0); linear < nChunks; linear++ {
		coord := grid.Delinearize(linear)

		chunkElemStart := make([]uint64, d)
		chunkElemLen := make([]uint64, d)
		inBounds := true
		for i := 0; i < d; i++ {
			start := coord[i] * grid.Chunks[i]
			end := start + grid.Chunks[i]
			if end > grid.Dims[i] {
				end = grid.Dims[i]
			}
			if end <= start {
				inBounds = false
			}
			chunkElemStart[i] = start
			chunkElemLen[i] = end - start
		}

		for i := range chunkBuf {
			chunkBuf[i] = 0
		}

		if inBounds {
			chunklayout.ChunkCopy(zeros, grid.Dims, grid.Dims, chunkElemStart, chunkElemLen, zeros, grid.Chunks, source, chunkBuf)
		}

		rows, cols := planeShape(grid.Chunks)

		compressed, err := chunkcodec.EncodeChunk(cfg.Params, rows, cols, chunkBuf)
		if err != nil {
			return Result{}, err
		}

		data = append(data, compressed...)
		offsets[linear+1] = offsets[linear] + uint64(len(compressed))
	}

	return Result{Data: data, Offsets: offsets}, nil
}

// DecodeArray is EncodeArray's inverse, used for round-trip tests and by
// callers that want a whole array materialised at once rather than
// through the windowed Planner path. chunkData is the concatenation of
// every chunk's compressed bytes in linear order, offsets its
// n_chunks+1-length byte-offset table.
func DecodeArray(cfg Config, chunkData []byte, offsets []uint64) ([]float64, error) {
	grid := cfg.Grid
	d := len(grid.Dims)
	nChunks := grid.NChunks()

	total := uint64(1)
	for _, dim := range grid.Dims {
		total *= dim
	}
	out := make([]float64, total)

	zeros := make([]uint64, d)
	rows, cols := planeShape(grid.Chunks)

	for linear := uint64(0); linear < nChunks; linear++ {
		start, end := offsets[linear], offsets[linear+1]
		if end > uint64(len(chunkData)) || end < start {
			return nil, format.ErrOutOfBoundRead
		}

		chunkBuf, err := chunkcodec.DecodeChunk(cfg.Params, rows, cols, chunkData[start:end])
		if err != nil {
			return nil, err
		}

		coord := grid.Delinearize(linear)
		chunklayout.ChunkCopy(coord, grid.Chunks, grid.Dims, zeros, grid.Dims, zeros, grid.Dims, chunkBuf, out)
	}

	return out, nil
}

// planeShape reduces an arbitrary-dimension chunk shape to the rows*cols
// plane floatcodec's 2-D filters operate over: the fast (last) dimension
// is cols, every other dimension collapses into rows (§4.4's "chunk laid
// out as rows x fast-dimension-columns").
func planeShape(chunks []uint64) (rows, cols int) {
	if len(chunks) == 0 {
		return 1, 1
	}

	cols = int(chunks[len(chunks)-1])
	rows = 1
	for _, c := range chunks[:len(chunks)-1] {
		rows *= int(c)
	}

	return rows, cols
}
