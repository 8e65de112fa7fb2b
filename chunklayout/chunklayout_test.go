package chunklayout_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omfile/omfile/chunklayout"
)

func TestChunkWindowAndRange(t *testing.T) {
	grid := chunklayout.NewGrid([]uint64{5, 5}, []uint64{2, 2})
	require.Equal(t, []uint64{3, 3}, grid.NChunksDim)
	require.Equal(t, uint64(9), grid.NChunks())

	first, last := grid.ChunkWindow([]uint64{1, 2}, []uint64{3, 3})
	require.Equal(t, []uint64{0, 1}, first)
	require.Equal(t, []uint64{2, 3}, last)

	start, end := grid.ChunkRange(first, last)
	require.LessOrEqual(t, start, end)
}

func TestRunCursorFullGridSingleRun(t *testing.T) {
	grid := chunklayout.NewGrid([]uint64{8, 8}, []uint64{2, 2})
	first := []uint64{0, 0}
	last := []uint64{4, 4}

	rc := chunklayout.NewRunCursor(grid, first, last)
	lower, upper, ok := rc.Next()
	require.True(t, ok)
	require.Equal(t, uint64(0), lower)
	require.Equal(t, grid.NChunks(), upper)

	_, _, ok = rc.Next()
	require.False(t, ok)
}

func TestRunCursorPartialWindowMultipleRuns(t *testing.T) {
	// 4x4 chunk grid; window covers columns [1,3) of every row -> each row
	// is its own run since the fast dimension isn't fully covered.
	grid := chunklayout.NewGrid([]uint64{16, 16}, []uint64{4, 4})
	first := []uint64{0, 1}
	last := []uint64{4, 3}

	rc := chunklayout.NewRunCursor(grid, first, last)

	var runs [][2]uint64
	for {
		lower, upper, ok := rc.Next()
		if !ok {
			break
		}
		runs = append(runs, [2]uint64{lower, upper})
	}

	require.Len(t, runs, 4)
	for i, r := range runs {
		require.Equal(t, uint64(2), r[1]-r[0])
		require.Equal(t, uint64(i)*grid.Mult[0]+1, r[0])
	}
}

func TestChunkCopyFullIntersection(t *testing.T) {
	chunkShape := []uint64{2, 2}
	chunkBuf := []float64{1, 2, 3, 4}
	dims := []uint64{4, 4}
	cubeDims := []uint64{4, 4}
	out := make([]float64, 16)
	for i := range out {
		out[i] = -1
	}

	chunklayout.ChunkCopy(
		[]uint64{0, 0}, chunkShape, dims,
		[]uint64{0, 0}, []uint64{4, 4},
		[]uint64{0, 0}, cubeDims,
		chunkBuf, out,
	)

	require.Equal(t, float64(1), out[0])
	require.Equal(t, float64(2), out[1])
	require.Equal(t, float64(3), out[4])
	require.Equal(t, float64(4), out[5])
	require.Equal(t, float64(-1), out[2])
}

func TestChunkCopyNoIntersection(t *testing.T) {
	chunkShape := []uint64{2, 2}
	chunkBuf := []float64{1, 2, 3, 4}
	dims := []uint64{4, 4}
	cubeDims := []uint64{4, 4}
	out := make([]float64, 16)
	for i := range out {
		out[i] = -1
	}

	// chunk at (0,0) covers rows/cols [0,2); window starts at row 2.
	chunklayout.ChunkCopy(
		[]uint64{0, 0}, chunkShape, dims,
		[]uint64{2, 0}, []uint64{2, 4},
		[]uint64{0, 0}, cubeDims,
		chunkBuf, out,
	)

	for _, v := range out {
		require.Equal(t, float64(-1), v)
	}
}
