package omfile_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omfile/omfile/backend"
	"github.com/omfile/omfile/chunkcodec"
	"github.com/omfile/omfile/chunklayout"
	"github.com/omfile/omfile/encoder"
	"github.com/omfile/omfile/endian"
	"github.com/omfile/omfile/format"
	"github.com/omfile/omfile/omfile"
)

// buildLegacyFile hand-assembles a version-1 legacy file: the 40-byte
// header, the n_chunks-entry offset table (on-disk entry k-1 holds chunk
// k's start offset relative to dataStart; chunk 0's start is implicit
// zero and never stored), then the concatenated compressed chunk bytes.
func buildLegacyFile(t *testing.T, dims, chunks []uint64, scale float32, compression format.CompressionType, source []float64) []byte {
	t.Helper()

	grid := chunklayout.NewGrid(dims, chunks)
	params := chunkcodec.Params{DataType: format.DataTypeFloat, Compression: compression, Scale: scale}

	result, err := encoder.EncodeArray(encoder.Config{Grid: grid, Params: params}, source)
	require.NoError(t, err)

	nChunks := grid.NChunks()

	buf := make([]byte, format.LegacyHeaderSize)
	buf[0], buf[1] = format.MagicByte1, format.MagicByte2
	buf[2] = byte(format.VersionLegacy1)
	buf[3] = byte(compression)
	endian.LE.PutUint32(buf[4:8], math.Float32bits(scale))
	endian.LE.PutUint64(buf[8:16], dims[0])
	endian.LE.PutUint64(buf[16:24], dims[1])
	endian.LE.PutUint64(buf[24:32], chunks[0])
	endian.LE.PutUint64(buf[32:40], chunks[1])

	table := make([]byte, nChunks*8)
	for k := uint64(0); k < nChunks; k++ {
		endian.LE.PutUint64(table[k*8:], result.Offsets[k+1])
	}

	buf = append(buf, table...)
	buf = append(buf, result.Data...)

	return buf
}

// TestLegacyReadFullAndSubWindow exercises the named mandatory scenario: a
// legacy 5x5 array, chunk 2x2, scale 20.0, PFOR_16BIT_DELTA2D, read back
// whole and through a sub-window, both within the lossy codec's tolerance.
func TestLegacyReadFullAndSubWindow(t *testing.T) {
	dims := []uint64{5, 5}
	chunks := []uint64{2, 2}
	source := []float64{
		0, 1, 2, 3, 4,
		5, 6, 7, 8, 9,
		10, 11, 12, 13, 14,
		15, 16, 17, 18, 19,
		20, 21, 22, 23, 24,
	}

	raw := buildLegacyFile(t, dims, chunks, 20.0, format.CompressionPFor16BitDelta2D, source)

	f, err := omfile.Open(backend.NewMemBackend(raw))
	require.NoError(t, err)
	require.True(t, f.IsLegacy())

	root := f.RootVariable()
	require.True(t, root.IsArray())
	require.Equal(t, dims, root.Dims)
	require.Equal(t, chunks, root.Chunks)
	require.Equal(t, format.CompressionPFor16BitDelta2D, root.Compression)
	require.Equal(t, uint64(9), root.NChunks()) // ceil(5/2)=3 per dim

	ar, err := f.NewArrayReader(root)
	require.NoError(t, err)

	cube := omfile.NewCube(dims)
	require.NoError(t, ar.ReadInto(context.Background(), []uint64{0, 0}, dims, cube))
	for i, want := range source {
		require.InDelta(t, want, cube.Data[i], 0.025)
	}

	winOffset := []uint64{1, 2}
	winDims := []uint64{3, 3}
	want := []float64{
		7, 8, 9,
		12, 13, 14,
		17, 18, 19,
	}

	winCube := omfile.NewCube(winDims)
	require.NoError(t, ar.ReadInto(context.Background(), winOffset, winDims, winCube))
	for i, w := range want {
		require.InDelta(t, w, winCube.Data[i], 0.025)
	}
}
