package planner_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omfile/omfile/chunklayout"
	"github.com/omfile/omfile/planner"
)

// chunkOffsets builds a synthetic monotonically increasing byte-offset
// table of n_chunks+1 entries, chunk i spanning size[i] bytes.
func chunkOffsets(sizes []uint64) []uint64 {
	offsets := make([]uint64, len(sizes)+1)
	for i, s := range sizes {
		offsets[i+1] = offsets[i] + s
	}

	return offsets
}

func dataRangeBytes(offsets []uint64) planner.RangeBytesFunc {
	return func(lower, upper uint64) (uint64, uint64) {
		return offsets[lower], offsets[upper]
	}
}

func TestMergedDataReadsAcrossGap(t *testing.T) {
	// A 2x2 chunk grid; picking column 1 of both rows skips chunk 2
	// entirely, producing two separate runs: [1,2) and [3,4).
	grid := chunklayout.NewGrid([]uint64{2, 2}, []uint64{1, 1})
	p := planner.New(planner.Config{
		Grid:        grid,
		First:       []uint64{0, 1},
		Last:        []uint64{2, 2},
		IOSizeMax:   1024 * 1024,
		IOSizeMerge: 64 * 1024,
	})

	// Chunks 0..3 sized 30KiB, 30KiB, 10KiB, 30KiB; request touches 1 and 3.
	sizes := []uint64{30 * 1024, 30 * 1024, 10 * 1024, 30 * 1024}
	offsets := chunkOffsets(sizes)

	dr := p.NewDataReader(dataRangeBytes(offsets))

	read, ok := dr.Next()
	require.True(t, ok)
	require.Equal(t, uint64(1), read.ChunkIndex)
	require.Equal(t, uint64(4), read.NextChunk)
	require.Equal(t, uint64(70*1024), read.Count)

	_, ok = dr.Next()
	require.False(t, ok)
}

func TestSplitOnIOSizeMax(t *testing.T) {
	grid := chunklayout.NewGrid([]uint64{20}, []uint64{1})
	p := planner.New(planner.Config{
		Grid:        grid,
		First:       []uint64{0},
		Last:        []uint64{20},
		IOSizeMax:   1024 * 1024,
		IOSizeMerge: 64 * 1024,
	})

	sizes := make([]uint64, 20)
	for i := range sizes {
		sizes[i] = 100 * 1024
	}
	offsets := chunkOffsets(sizes)

	dr := p.NewDataReader(dataRangeBytes(offsets))

	var reads []planner.Read
	for {
		r, ok := dr.Next()
		if !ok {
			break
		}
		reads = append(reads, r)
	}

	require.Len(t, reads, 2)
	for _, r := range reads {
		require.LessOrEqual(t, r.Count, uint64(1024*1024))
	}
	require.Equal(t, uint64(0), reads[0].ChunkIndex)
	require.Equal(t, uint64(20), reads[1].NextChunk)
}

func TestLUTGroupBoundaryRead(t *testing.T) {
	grid := chunklayout.NewGrid([]uint64{257}, []uint64{1})
	p := planner.New(planner.Config{
		Grid:        grid,
		First:       []uint64{99},
		Last:        []uint64{101},
		IOSizeMax:   1 << 30,
		IOSizeMerge: 1 << 30,
	})

	require.Equal(t, uint64(99), p.ChunkStart())
	require.Equal(t, uint64(101), p.ChunkEnd())

	groupSize := uint64(100)
	lutChunkLength := uint64(512)
	rangeBytes := func(lower, upper uint64) (uint64, uint64) {
		startGroup := lower / groupSize
		endGroup := (upper - 1) / groupSize
		return startGroup * lutChunkLength, (endGroup + 1) * lutChunkLength
	}

	ir := p.NewIndexReader(rangeBytes)
	read, ok := ir.Next()
	require.True(t, ok)
	require.Equal(t, uint64(0), read.Offset)
	require.Equal(t, uint64(2*lutChunkLength), read.Count) // spans groups 0 and 1

	_, ok = ir.Next()
	require.False(t, ok)
}
