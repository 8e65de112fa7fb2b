// Package chunklayout implements the chunk-grid arithmetic described in
// §4.6: mapping a read window over an N-D array to the range of chunk
// indices it touches, walking that range as a sequence of maximal
// contiguous linear runs, and copying a single decoded chunk's
// intersection with the window into the caller's output cube.
package chunklayout

// Grid describes the chunk partitioning of an N-D array: dims[i] is the
// array's extent along dimension i, chunks[i] is the chunk extent (with
// 0 < chunks[i] <= dims[i]); the last chunk along a dimension may be
// partial.
type Grid struct {
	Dims       []uint64
	Chunks     []uint64
	NChunksDim []uint64
	Mult       []uint64 // row-major multiplier over NChunksDim
}

// NewGrid derives the per-dimension chunk counts and row-major
// multipliers from dims and chunks.
func NewGrid(dims, chunks []uint64) Grid {
	d := len(dims)
	nChunksDim := make([]uint64, d)
	for i := range dims {
		nChunksDim[i] = ceilDiv(dims[i], chunks[i])
	}

	mult := make([]uint64, d)
	if d > 0 {
		mult[d-1] = 1
		for i := d - 2; i >= 0; i-- {
			mult[i] = mult[i+1] * nChunksDim[i+1]
		}
	}

	return Grid{Dims: dims, Chunks: chunks, NChunksDim: nChunksDim, Mult: mult}
}

func ceilDiv(a, b uint64) uint64 {
	return (a + b - 1) / b
}

// NChunks returns the total number of chunks in the grid.
func (g Grid) NChunks() uint64 {
	total := uint64(1)
	for _, n := range g.NChunksDim {
		total *= n
	}

	return total
}

// Linearize maps a per-dimension chunk coordinate to its row-major linear
// chunk index.
func (g Grid) Linearize(coords []uint64) uint64 {
	var idx uint64
	for i, c := range coords {
		idx += c * g.Mult[i]
	}

	return idx
}

// Delinearize inverts Linearize.
func (g Grid) Delinearize(linear uint64) []uint64 {
	coords := make([]uint64, len(g.NChunksDim))
	for i, m := range g.Mult {
		coords[i] = linear / m
		linear -= coords[i] * m
	}

	return coords
}

// ChunkWindow computes, for a read window (readOffset, readCount) in
// element space, the half-open chunk-coordinate range [first, last) per
// dimension that the window touches (§4.6a).
func (g Grid) ChunkWindow(readOffset, readCount []uint64) (first, last []uint64) {
	d := len(g.Dims)
	first = make([]uint64, d)
	last = make([]uint64, d)
	for i := 0; i < d; i++ {
		first[i] = readOffset[i] / g.Chunks[i]
		last[i] = ceilDiv(readOffset[i]+readCount[i], g.Chunks[i])
	}

	return first, last
}

// ChunkRange linearises a chunk-coordinate window into the initial
// [chunkStart, chunkEnd) range a planner iterates over.
func (g Grid) ChunkRange(first, last []uint64) (start, end uint64) {
	start = g.Linearize(first)

	lastInclusive := make([]uint64, len(last))
	for i, v := range last {
		lastInclusive[i] = v - 1
	}
	end = g.Linearize(lastInclusive) + 1

	return start, end
}

// RunCursor walks a chunk-coordinate window as a sequence of maximal
// contiguous linear chunk-index runs (§4.6b).
type RunCursor struct {
	grid         Grid
	first, last  []uint64
	coords       []uint64
	done         bool
}

// NewRunCursor starts a cursor at the beginning of the window
// [first, last).
func NewRunCursor(grid Grid, first, last []uint64) *RunCursor {
	coords := append([]uint64(nil), first...)

	return &RunCursor{grid: grid, first: first, last: last, coords: coords}
}

// Next returns the next contiguous linear run [lower, upper); ok is false
// once the window is exhausted.
func (rc *RunCursor) Next() (lower, upper uint64, ok bool) {
	if rc.done {
		return 0, 0, false
	}

	d := len(rc.coords)
	g := rc.grid

	kFull := 0
	for i := d - 1; i >= 0; i-- {
		if rc.first[i] == 0 && rc.last[i] == g.NChunksDim[i] {
			kFull++
		} else {
			break
		}
	}

	lower = g.Linearize(rc.coords)

	if kFull == d {
		upper = g.NChunks()
		rc.done = true

		return lower, upper, true
	}

	m := d - 1 - kFull
	run := (rc.last[m] - rc.coords[m]) * g.Mult[m]
	upper = lower + run

	rc.coords[m] = rc.last[m]
	carry := m
	for carry > 0 && rc.coords[carry] >= rc.last[carry] {
		rc.coords[carry] = rc.first[carry]
		carry--
		rc.coords[carry]++
	}
	if rc.coords[0] >= rc.last[0] {
		rc.done = true
	}

	return lower, upper, true
}

// ChunkCopy copies the intersection of one decoded chunk (identified by
// its chunk coordinate, with buffer shape chunkShape laid out row-major)
// with the read window (readOffset, readCount) into the output cube
// buffer out, positioned by (cubeOffset, cubeDims) and also laid out
// row-major (§4.6c). It is a no-op if the chunk and window don't
// intersect, which happens for chunks that lie outside the read window.
func ChunkCopy(chunkCoord, chunkShape, dims, readOffset, readCount, cubeOffset, cubeDims []uint64, chunkBuf, out []float64) {
	d := len(dims)
	localStart := make([]uint64, d)
	localLen := make([]uint64, d)
	cubeStart := make([]uint64, d)

	for i := 0; i < d; i++ {
		chunkElemStart := chunkCoord[i] * chunkShape[i]
		chunkElemEnd := chunkElemStart + chunkShape[i]
		if chunkElemEnd > dims[i] {
			chunkElemEnd = dims[i]
		}

		winStart := readOffset[i]
		winEnd := readOffset[i] + readCount[i]

		ist := max64(chunkElemStart, winStart)
		ien := min64(chunkElemEnd, winEnd)
		if ien <= ist {
			return
		}

		localStart[i] = ist - chunkElemStart
		localLen[i] = ien - ist
		cubeStart[i] = cubeOffset[i] + (ist - winStart)
	}

	chunkStride := rowMajorStride(chunkShape)
	cubeStride := rowMajorStride(cubeDims)

	copyIntersection(chunkBuf, chunkStride, localStart, localLen, out, cubeStride, cubeStart)
}

func rowMajorStride(shape []uint64) []uint64 {
	d := len(shape)
	stride := make([]uint64, d)
	if d == 0 {
		return stride
	}

	stride[d-1] = 1
	for i := d - 2; i >= 0; i-- {
		stride[i] = stride[i+1] * shape[i+1]
	}

	return stride
}

func offsetOf(stride, coords []uint64) uint64 {
	var off uint64
	for i, c := range coords {
		off += c * stride[i]
	}

	return off
}

// copyIntersection walks every combination of the outer dimensions and
// memcpy's the contiguous fast-dimension run for each.
func copyIntersection(src []float64, srcStride, localStart, localLen []uint64, dst []float64, dstStride, dstStart []uint64) {
	d := len(localLen)
	fast := d - 1

	srcBase := offsetOf(srcStride, localStart)
	dstBase := offsetOf(dstStride, dstStart)

	if d == 0 {
		return
	}

	runLen := localLen[fast]
	idx := make([]uint64, d)

	for {
		srcOff := srcBase
		dstOff := dstBase
		for i := 0; i < d; i++ {
			srcOff += idx[i] * srcStride[i]
			dstOff += idx[i] * dstStride[i]
		}

		copy(dst[dstOff:dstOff+runLen], src[srcOff:srcOff+runLen])

		if d == 1 {
			return
		}

		carry := fast - 1
		for carry >= 0 {
			idx[carry]++
			if idx[carry] < localLen[carry] {
				break
			}
			idx[carry] = 0
			carry--
		}
		if carry < 0 {
			return
		}
	}
}

func max64(a, b uint64) uint64 {
	if a > b {
		return a
	}

	return b
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}

	return b
}
