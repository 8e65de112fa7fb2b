package omfile

import (
	"errors"

	"github.com/omfile/omfile/backend"
	"github.com/omfile/omfile/chunkcodec"
	"github.com/omfile/omfile/chunklayout"
	"github.com/omfile/omfile/compress"
	"github.com/omfile/omfile/encoder"
	"github.com/omfile/omfile/format"
	"github.com/omfile/omfile/internal/options"
	"github.com/omfile/omfile/lut"
	"github.com/omfile/omfile/variable"
)

// ErrNoRootVariable is returned by Close when no array was ever written.
var ErrNoRootVariable = errors.New("omfile: Close called before WriteArray")

// WriterOption configures a Writer via the functional-options pattern.
type WriterOption = options.Option[*Writer]

// WithMetadataCompression selects the compress.Codec WriteAttribute uses
// for string attribute values (§4.10). Defaults to compress.TagNone.
func WithMetadataCompression(tag compress.Tag) WriterOption {
	return options.NoError(func(w *Writer) { w.metadataCodec = tag })
}

// ArraySpec describes the array a Writer serialises: its element extents,
// chunk shape, compression tag, and the scale/add_offset pair the lossy
// compression tags apply before quantising to int16 (§4.9 step 2).
// DataType names the array's element type (Float or Double); the array's
// own descriptor tag is derived from it.
type ArraySpec struct {
	Name        string
	Dims        []uint64
	Chunks      []uint64
	Compression format.CompressionType
	DataType    format.DataType
	ScaleFactor float32
	AddOffset   float32
}

// Writer serialises a root array, plus optional string attributes, into a
// version-3 file, written sequentially to a backend.WriterBackend (§4.9,
// §6): the 3-byte header, then compressed chunk data, the compressed LUT,
// and the array's variable descriptor for WriteArray's one call, followed
// by one descriptor per WriteAttribute call. Close writes a group
// descriptor over all of them (or, when no attribute was ever written,
// points the trailer straight at the array) and appends the 40-byte
// trailer.
type Writer struct {
	b   backend.WriterBackend
	off uint64

	metadataCodec compress.Tag

	arrayOffset uint64
	arraySize   uint64
	haveArray   bool

	attrOffsets []uint32
	attrSizes   []uint32
}

// NewWriter writes the leading 3-byte v3 header and returns a Writer
// ready for WriteArray, after applying any WriterOptions.
func NewWriter(b backend.WriterBackend, opts ...WriterOption) (*Writer, error) {
	w := &Writer{b: b}
	if err := options.Apply(w, opts...); err != nil {
		return nil, err
	}

	head := variable.EncodeV3Header()
	if _, err := b.Write(head); err != nil {
		return nil, err
	}
	w.off = uint64(len(head))

	return w, nil
}

// WriteArray runs the encode algorithm over source (row-major per
// spec.Dims, length prod(Dims)): gather-and-compress every chunk
// (encoder.EncodeArray), partition the resulting byte-offset table into
// lut_chunk_element_count groups (lut.EncodeGroups), and serialise the
// root variable descriptor recording where both landed. Only one
// WriteArray call per Writer is supported; a second call overwrites the
// prior root.
func (w *Writer) WriteArray(spec ArraySpec, source []float64) error {
	grid := chunklayout.NewGrid(spec.Dims, spec.Chunks)

	params := chunkcodec.Params{
		DataType:    spec.DataType,
		Compression: spec.Compression,
		Scale:       spec.ScaleFactor,
		Offset:      spec.AddOffset,
	}

	result, err := encoder.EncodeArray(encoder.Config{Grid: grid, Params: params}, source)
	if err != nil {
		return err
	}

	if _, err := w.b.Write(result.Data); err != nil {
		return err
	}
	dataStart := w.off
	w.off += uint64(len(result.Data))

	// The LUT stores absolute file offsets (§3); encoder.EncodeArray's
	// offsets are relative to the start of this array's own chunk data.
	absOffsets := make([]uint64, len(result.Offsets))
	for i, o := range result.Offsets {
		absOffsets[i] = dataStart + o
	}

	lutData, _, err := lut.EncodeGroups(absOffsets, lut.MaxGroupElements)
	if err != nil {
		return err
	}

	if _, err := w.b.Write(lutData); err != nil {
		return err
	}
	lutOffset := w.off
	w.off += uint64(len(lutData))

	desc := variable.EncodeArrayDescriptor(variable.ArrayDescriptor{
		DataType:    arrayDataType(spec.DataType),
		Compression: spec.Compression,
		Name:        spec.Name,
		LUTSize:     uint64(len(lutData)),
		LUTOffset:   lutOffset,
		ScaleFactor: spec.ScaleFactor,
		AddOffset:   spec.AddOffset,
		Dims:        spec.Dims,
		Chunks:      spec.Chunks,
	})

	if _, err := w.b.Write(desc); err != nil {
		return err
	}

	w.arrayOffset = w.off
	w.arraySize = uint64(len(desc))
	w.off += uint64(len(desc))
	w.haveArray = true

	return nil
}

// WriteAttribute serialises name/value as a string variable, compressing
// value with the Writer's configured metadata codec (§4.10). Close attaches
// every attribute written this way as a child of the root group alongside
// the array from WriteArray.
func (w *Writer) WriteAttribute(name, value string) error {
	tagged, err := compress.EncodeTagged(w.metadataCodec, []byte(value))
	if err != nil {
		return err
	}

	desc := variable.EncodeStringDescriptor(name, tagged)
	offset := w.off
	if _, err := w.b.Write(desc); err != nil {
		return err
	}
	w.off += uint64(len(desc))

	w.attrOffsets = append(w.attrOffsets, uint32(offset))
	w.attrSizes = append(w.attrSizes, uint32(len(desc)))

	return nil
}

// Close writes the 40-byte trailer pointing at the root variable (the bare
// array when no attribute was written, otherwise a group descriptor over
// the array and every attribute), then closes the underlying backend.
func (w *Writer) Close() error {
	if !w.haveArray {
		return ErrNoRootVariable
	}

	rootOffset, rootSize := w.arrayOffset, w.arraySize

	if len(w.attrOffsets) > 0 {
		childOffsets := append([]uint32{uint32(w.arrayOffset)}, w.attrOffsets...)
		childSizes := append([]uint32{uint32(w.arraySize)}, w.attrSizes...)

		group := variable.EncodeGroupDescriptor("", childSizes, childOffsets)
		rootOffset = w.off
		if _, err := w.b.Write(group); err != nil {
			return err
		}
		rootSize = uint64(len(group))
		w.off += rootSize
	}

	trailer := variable.EncodeTrailer(rootOffset, rootSize)
	if _, err := w.b.Write(trailer); err != nil {
		return err
	}

	return w.b.Close()
}

func arrayDataType(elem format.DataType) format.DataType {
	if elem == format.DataTypeFloat {
		return format.DataTypeFloatArray
	}

	return format.DataTypeDoubleArray
}
