package omfile

import (
	"context"
	"io"
	"math"

	"github.com/omfile/omfile/chunkcodec"
	"github.com/omfile/omfile/chunklayout"
	"github.com/omfile/omfile/endian"
	"github.com/omfile/omfile/format"
	"github.com/omfile/omfile/internal/options"
	"github.com/omfile/omfile/internal/pool"
	"github.com/omfile/omfile/lut"
	"github.com/omfile/omfile/planner"
	"github.com/omfile/omfile/variable"
)

// defaultLUTGroupSize is the lut_chunk_element_count this package writes
// and expects to read back (§9: a fixed protocol constant rather than a
// per-file stored value, the same "both ends must agree" contract as
// fpxenc's block size). A v3 file's lut_size and the array's chunk count
// alone determine lut_chunk_length per §4.8's "L = lut_size / n_groups".
const defaultLUTGroupSize = lut.MaxGroupElements

// Config parametrises an ArrayReader's I/O scheduling; zero value uses
// DefaultConfig.
type Config struct {
	IOSizeMax   uint64
	IOSizeMerge uint64
}

// DefaultConfig mirrors the teacher's own conservative defaults for a
// single-request budget: merge gaps up to 64KiB, cap any one emitted read
// at 4MiB.
var DefaultConfig = Config{IOSizeMax: 4 << 20, IOSizeMerge: 64 << 10}

// ReaderOption configures an ArrayReader's I/O scheduling via the
// functional-options pattern.
type ReaderOption = options.Option[*Config]

// WithIOSizeMax overrides the maximum byte span any one emitted read
// request may cover.
func WithIOSizeMax(n uint64) ReaderOption {
	return options.NoError(func(c *Config) { c.IOSizeMax = n })
}

// WithIOSizeMerge overrides the maximum byte gap between two adjacent
// chunks the planner will still merge into a single read.
func WithIOSizeMerge(n uint64) ReaderOption {
	return options.NoError(func(c *Config) { c.IOSizeMerge = n })
}

// ArrayReader drives the index-read / data-read / decode / chunk-copy
// pipeline (§4.7) for one array Variable.
type ArrayReader struct {
	file   *File
	v      variable.Variable
	grid   chunklayout.Grid
	params chunkcodec.Params
	cfg    Config
}

// NewArrayReader validates v and wraps it in an ArrayReader, starting
// from DefaultConfig and applying any ReaderOptions in order.
func (f *File) NewArrayReader(v variable.Variable, opts ...ReaderOption) (*ArrayReader, error) {
	if !v.IsArray() {
		return nil, format.ErrInvalidDataType
	}
	if !v.Compression.Valid() {
		return nil, format.ErrInvalidCompressionType
	}

	cfg := DefaultConfig
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	return &ArrayReader{
		file: f,
		v:    v,
		grid: chunklayout.NewGrid(v.Dims, v.Chunks),
		params: chunkcodec.Params{
			DataType:    elementDataType(v.DataType),
			Compression: v.Compression,
			Scale:       v.ScaleFactor,
			Offset:      v.AddOffset,
		},
		cfg: cfg,
	}, nil
}

func elementDataType(dt format.DataType) format.DataType {
	if dt == format.DataTypeFloatArray {
		return format.DataTypeFloat
	}

	return format.DataTypeDouble
}

// ReadInto materialises the hyperrectangle (readOffset, readCount) of the
// array into out, positioned at (out.Offset, out.Dims). Cells out's
// buffer does not receive a write for (outside the window's projection)
// are pre-filled with NaN.
func (a *ArrayReader) ReadInto(ctx context.Context, readOffset, readCount []uint64, out *Cube) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for i := range out.Data {
		out.Data[i] = math.NaN()
	}

	first, last := a.grid.ChunkWindow(readOffset, readCount)
	p := planner.New(planner.Config{
		Grid:        a.grid,
		First:       first,
		Last:        last,
		IOSizeMax:   a.cfg.IOSizeMax,
		IOSizeMerge: a.cfg.IOSizeMerge,
	})

	chunkStart, chunkEnd := p.ChunkStart(), p.ChunkEnd()
	if chunkEnd <= chunkStart {
		return nil
	}

	chunkByteOffsets, err := a.resolveChunkByteOffsets(p, chunkStart, chunkEnd)
	if err != nil {
		return err
	}

	rows, cols := planeShape(a.v.Chunks)

	dr := p.NewDataReader(func(lower, upper uint64) (start, end uint64) {
		return chunkByteOffsets[lower-chunkStart], chunkByteOffsets[upper-chunkStart]
	})

	for {
		read, ok := dr.Next()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		bb := pool.GetChunkBuffer()
		bb.SetLength(int(read.Count))
		if _, err := a.file.b.ReadAt(bb.B, int64(read.Offset)); err != nil && err != io.EOF {
			pool.PutChunkBuffer(bb)

			return err
		}

		for c := read.ChunkIndex; c < read.NextChunk; c++ {
			localStart := chunkByteOffsets[c-chunkStart] - read.Offset
			localEnd := chunkByteOffsets[c-chunkStart+1] - read.Offset

			decoded, err := chunkcodec.DecodeChunk(a.params, rows, cols, bb.B[localStart:localEnd])
			if err != nil {
				pool.PutChunkBuffer(bb)

				return err
			}

			coord := a.grid.Delinearize(c)
			chunklayout.ChunkCopy(coord, a.v.Chunks, a.v.Dims, readOffset, readCount, out.Offset, out.Dims, decoded, out.Data)
		}

		pool.PutChunkBuffer(bb)
	}

	return nil
}

// resolveChunkByteOffsets returns the absolute file byte offsets of
// chunks [chunkStart, chunkEnd], length chunkEnd-chunkStart+1, the same
// "one extra sentinel entry" shape the LUT stores (§3). p is the Planner
// already built for this request's chunk-coordinate window; the v3 path
// reuses its IndexReader rather than rebuilding an equivalent one.
func (a *ArrayReader) resolveChunkByteOffsets(p *planner.Planner, chunkStart, chunkEnd uint64) ([]uint64, error) {
	if a.file.IsLegacy() {
		return a.resolveLegacyOffsets(chunkStart, chunkEnd)
	}

	return a.resolveV3Offsets(p, chunkStart, chunkEnd)
}

// resolveLegacyOffsets reads the legacy LUT's raw u64 entries directly:
// on-disk the table holds n_chunks end offsets (chunk 0's start is
// implicitly 0, never stored), immediately followed by the compressed
// chunk data (§4.8, grounded in the format's legacy decode path).
func (a *ArrayReader) resolveLegacyOffsets(chunkStart, chunkEnd uint64) ([]uint64, error) {
	dataStart := uint64(format.LegacyHeaderSize) + a.v.NChunks()*8

	tableStart := chunkStart
	if tableStart > 0 {
		tableStart--
	}
	tableCount := chunkEnd - tableStart

	bb := pool.GetChunkBuffer()
	defer pool.PutChunkBuffer(bb)
	bb.SetLength(int(tableCount * 8))
	if _, err := a.file.b.ReadAt(bb.B, int64(format.LegacyHeaderSize)+int64(tableStart*8)); err != nil && err != io.EOF {
		return nil, err
	}

	offsets := make([]uint64, chunkEnd-chunkStart+1)
	for idx := chunkStart; idx <= chunkEnd; idx++ {
		if idx == 0 {
			offsets[idx-chunkStart] = dataStart

			continue
		}

		offsets[idx-chunkStart] = dataStart + endian.LE.Uint64(bb.B[(idx-1-tableStart)*8:])
	}

	return offsets, nil
}

// resolveV3Offsets decodes the compressed v3 LUT groups spanning
// [chunkStart, chunkEnd] via p's IndexReader, returning already-absolute
// file byte offsets (a v3 LUT stores absolute offsets, unlike the legacy
// data-region-relative table).
func (a *ArrayReader) resolveV3Offsets(p *planner.Planner, chunkStart, chunkEnd uint64) ([]uint64, error) {
	total := int(a.v.NChunks()) + 1
	nGroups := (uint64(total) + defaultLUTGroupSize - 1) / defaultLUTGroupSize
	lutChunkLength := int(a.v.LUTSize) / int(nGroups)

	rangeBytes := func(lower, upper uint64) (start, end uint64) {
		startGroup := lower / defaultLUTGroupSize
		endGroupIncl := upper / defaultLUTGroupSize
		start = a.v.LUTOffset + startGroup*uint64(lutChunkLength)
		end = a.v.LUTOffset + (endGroupIncl+1)*uint64(lutChunkLength)
		if max := a.v.LUTOffset + a.v.LUTSize; end > max {
			end = max
		}

		return start, end
	}

	entries := make(map[uint64]uint64, chunkEnd-chunkStart+1)

	ir := p.NewIndexReader(rangeBytes)
	for {
		read, ok := ir.Next()
		if !ok {
			break
		}

		bb := pool.GetChunkBuffer()
		bb.SetLength(int(read.Count))
		if _, err := a.file.b.ReadAt(bb.B, int64(read.Offset)); err != nil && err != io.EOF {
			pool.PutChunkBuffer(bb)

			return nil, err
		}

		startGroup := read.ChunkIndex / defaultLUTGroupSize
		endGroupIncl := read.NextChunk / defaultLUTGroupSize

		for g := startGroup; g <= endGroupIncl; g++ {
			localIdx := int(g - startGroup)

			// bb.B starts at startGroup, so the element total is counted
			// from that group on as well.
			group, err := lut.DecodeGroup(bb.B, localIdx, defaultLUTGroupSize, lutChunkLength, total-int(startGroup)*defaultLUTGroupSize)
			if err != nil {
				pool.PutChunkBuffer(bb)

				return nil, err
			}

			base := g * defaultLUTGroupSize
			for i, v := range group {
				idx := base + uint64(i)
				if idx >= chunkStart && idx <= chunkEnd {
					entries[idx] = v
				}
			}
		}

		pool.PutChunkBuffer(bb)
	}

	offsets := make([]uint64, chunkEnd-chunkStart+1)
	for idx := chunkStart; idx <= chunkEnd; idx++ {
		v, ok := entries[idx]
		if !ok {
			return nil, format.ErrOutOfBoundRead
		}
		offsets[idx-chunkStart] = v
	}

	return offsets, nil
}

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
