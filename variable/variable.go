// Package variable parses the legacy and version-3 file headers, the
// version-3 trailer, and Variable descriptors (§4.8, §6) into views over
// borrowed bytes: nothing here allocates beyond the small per-dimension
// and per-child slices a caller asks to materialise.
package variable

import (
	"math"

	"github.com/omfile/omfile/compress"
	"github.com/omfile/omfile/endian"
	"github.com/omfile/omfile/format"
)

// LegacyHeader is the fixed 40-byte version 1/2 header (§6).
type LegacyHeader struct {
	Version         format.Version
	Compression     format.CompressionType
	ScaleFactor     float32
	Dim0, Dim1      uint64
	Chunk0, Chunk1  uint64
}

// ParseLegacyHeader reads a LegacyHeader out of the first
// format.LegacyHeaderSize bytes of buf.
func ParseLegacyHeader(buf []byte) (LegacyHeader, error) {
	if len(buf) < format.LegacyHeaderSize {
		return LegacyHeader{}, format.ErrInvalidHeaderSize
	}
	if buf[0] != format.MagicByte1 || buf[1] != format.MagicByte2 {
		return LegacyHeader{}, format.ErrNotAnOmFile
	}

	v := format.Version(buf[2])
	if !v.IsLegacy() {
		return LegacyHeader{}, format.ErrNotAnOmFile
	}

	h := LegacyHeader{
		Version:     v,
		Compression: format.CompressionType(buf[3]),
	}
	if !h.Compression.Valid() {
		return LegacyHeader{}, format.ErrInvalidCompressionType
	}

	h.ScaleFactor = float32FromBits(endian.LE.Uint32(buf[4:8]))
	h.Dim0 = endian.LE.Uint64(buf[8:16])
	h.Dim1 = endian.LE.Uint64(buf[16:24])
	h.Chunk0 = endian.LE.Uint64(buf[24:32])
	h.Chunk1 = endian.LE.Uint64(buf[32:40])

	return h, nil
}

// NChunks returns the total chunk count of the legacy 2-D array.
func (h LegacyHeader) NChunks() uint64 {
	nChunksDim0 := ceilDiv(h.Dim0, h.Chunk0)
	nChunksDim1 := ceilDiv(h.Dim1, h.Chunk1)

	return nChunksDim0 * nChunksDim1
}

func ceilDiv(a, b uint64) uint64 { return (a + b - 1) / b }

// V3Header is the 3-byte leading header of a version-3 file.
type V3Header struct {
	Version format.Version
}

// ParseV3Header reads the 3-byte v3 header.
func ParseV3Header(buf []byte) (V3Header, error) {
	if len(buf) < format.V3HeaderSize {
		return V3Header{}, format.ErrInvalidHeaderSize
	}
	if buf[0] != format.MagicByte1 || buf[1] != format.MagicByte2 {
		return V3Header{}, format.ErrNotAnOmFile
	}
	if format.Version(buf[2]) != format.VersionV3 {
		return V3Header{}, format.ErrNotAnOmFile
	}

	return V3Header{Version: format.VersionV3}, nil
}

// Trailer is the 40-byte version-3 trailer at EOF, carrying the root
// variable's (offset, size).
type Trailer struct {
	RootOffset uint64
	RootSize   uint64
}

// ParseTrailer reads a Trailer out of the last format.V3TrailerSize bytes
// of buf (buf must be exactly that slice, not the whole file).
func ParseTrailer(buf []byte) (Trailer, error) {
	if len(buf) < format.V3TrailerSize {
		return Trailer{}, format.ErrInvalidHeaderSize
	}
	if buf[0] != format.MagicByte1 || buf[1] != format.MagicByte2 {
		return Trailer{}, format.ErrNotAnOmFile
	}
	if format.Version(buf[2]) != format.VersionV3 {
		return Trailer{}, format.ErrNotAnOmFile
	}

	return Trailer{
		RootOffset: endian.LE.Uint64(buf[8:16]),
		RootSize:   endian.LE.Uint64(buf[16:24]),
	}, nil
}

// baseHeaderSize is sizeof(data_type:u8, compression_type:u8,
// length_of_name:u16, number_of_children:u32).
const baseHeaderSize = 1 + 1 + 2 + 4

// Variable is a parsed view over one variable descriptor's bytes. Scalar
// value bytes and name bytes point back into the buffer Parse was given;
// Dims, Chunks and the children tables are decoded into new slices.
type Variable struct {
	DataType        format.DataType
	Compression     format.CompressionType
	NumberOfChildren uint32

	// Array-only fields (DataType.IsArray() == true, i.e. an N-D array
	// variable rather than a scalar).
	LUTSize        uint64
	LUTOffset      uint64
	DimensionCount uint64
	ScaleFactor    float32
	AddOffset      float32
	Dims           []uint64
	Chunks         []uint64

	// String-only field.
	StringSize uint64

	childSizes   []uint32
	childOffsets []uint32
	valueOffset  int
	name         []byte
	raw          []byte
	isArray      bool
	isString     bool
}

// Parse reads one variable descriptor out of buf, returning a view whose
// slices borrow buf.
func Parse(buf []byte) (Variable, error) {
	if len(buf) < baseHeaderSize {
		return Variable{}, format.ErrInvalidHeaderSize
	}

	dt := format.DataType(buf[0])
	ct := format.CompressionType(buf[1])
	nameLen := endian.LE.Uint16(buf[2:4])
	nChildren := endian.LE.Uint32(buf[4:8])

	v := Variable{
		DataType:         dt,
		Compression:      ct,
		NumberOfChildren: nChildren,
		raw:              buf,
	}

	off := baseHeaderSize

	switch {
	case dt == format.DataTypeString || dt == format.DataTypeStringArray:
		v.isString = true
		if len(buf) < off+8 {
			return Variable{}, format.ErrInvalidHeaderSize
		}
		v.StringSize = endian.LE.Uint64(buf[off : off+8])
		off += 8

	case dt.IsArray():
		if !ct.Valid() {
			return Variable{}, format.ErrInvalidCompressionType
		}

		v.isArray = true
		if len(buf) < off+8+8+8+4+4 {
			return Variable{}, format.ErrInvalidHeaderSize
		}
		v.LUTSize = endian.LE.Uint64(buf[off : off+8])
		off += 8
		v.LUTOffset = endian.LE.Uint64(buf[off : off+8])
		off += 8
		v.DimensionCount = endian.LE.Uint64(buf[off : off+8])
		off += 8
		v.ScaleFactor = float32FromBits(endian.LE.Uint32(buf[off : off+4]))
		off += 4
		v.AddOffset = float32FromBits(endian.LE.Uint32(buf[off : off+4]))
		off += 4
	}

	childBytes := int(nChildren) * 4 * 2
	if len(buf) < off+childBytes {
		return Variable{}, format.ErrInvalidHeaderSize
	}
	v.childSizes = make([]uint32, nChildren)
	for i := range v.childSizes {
		v.childSizes[i] = endian.LE.Uint32(buf[off : off+4])
		off += 4
	}
	v.childOffsets = make([]uint32, nChildren)
	for i := range v.childOffsets {
		v.childOffsets[i] = endian.LE.Uint32(buf[off : off+4])
		off += 4
	}

	if v.isArray {
		dimBytes := int(v.DimensionCount) * 8
		if len(buf) < off+2*dimBytes {
			return Variable{}, format.ErrInvalidHeaderSize
		}
		v.Dims = make([]uint64, v.DimensionCount)
		for i := range v.Dims {
			v.Dims[i] = endian.LE.Uint64(buf[off : off+8])
			off += 8
		}
		v.Chunks = make([]uint64, v.DimensionCount)
		for i := range v.Chunks {
			v.Chunks[i] = endian.LE.Uint64(buf[off : off+8])
			off += 8
		}
	} else if !v.isString {
		// Scalar: a typed value payload precedes the name.
		v.valueOffset = off
		off += scalarValueSize(dt)
	}

	if v.isString {
		v.valueOffset = off
		off += int(v.StringSize)
	}

	if len(buf) < off+int(nameLen) {
		return Variable{}, format.ErrInvalidHeaderSize
	}
	v.name = buf[off : off+int(nameLen)]

	return v, nil
}

func scalarValueSize(dt format.DataType) int {
	switch dt {
	case format.DataTypeInt8, format.DataTypeUint8:
		return 1
	case format.DataTypeInt16, format.DataTypeUint16:
		return 2
	case format.DataTypeInt32, format.DataTypeUint32, format.DataTypeFloat:
		return 4
	case format.DataTypeInt64, format.DataTypeUint64, format.DataTypeDouble:
		return 8
	default:
		return 0
	}
}

// NewLegacyArrayVariable synthesizes the 2-D array Variable view implied by
// a legacy 40-byte header: the whole file is one array, scale_factor and
// chunk/dim extents come straight from the header, add_offset is fixed at
// 0 (legacy files never carried one), and a version-1 file's compression
// tag is forced to PFOR_16BIT_DELTA2D regardless of what byte 3 holds,
// since version 1 predates the tag's introduction.
func NewLegacyArrayVariable(h LegacyHeader) Variable {
	compression := h.Compression
	if h.Version == format.VersionLegacy1 {
		compression = format.CompressionPFor16BitDelta2D
	}

	return Variable{
		DataType:       format.DataTypeFloatArray,
		Compression:    compression,
		DimensionCount: 2,
		ScaleFactor:    h.ScaleFactor,
		Dims:           []uint64{h.Dim0, h.Dim1},
		Chunks:         []uint64{h.Chunk0, h.Chunk1},
		isArray:        true,
	}
}

// ArrayDescriptor collects the fields EncodeArrayDescriptor needs to
// serialise an array variable: Parse's write-side counterpart. Children
// are supplied as parallel offset/size slices rather than stored on
// Variable, since those fields stay unexported to keep Parse's view
// read-only.
type ArrayDescriptor struct {
	DataType        format.DataType
	Compression     format.CompressionType
	Name            string
	LUTSize         uint64
	LUTOffset       uint64
	ScaleFactor     float32
	AddOffset       float32
	Dims            []uint64
	Chunks          []uint64
	ChildSizes      []uint32
	ChildOffsets    []uint32
}

// EncodeArrayDescriptor serialises d into the exact byte layout Parse
// reads back: base header, array extension, children tables, dims,
// chunks, name (§6).
func EncodeArrayDescriptor(d ArrayDescriptor) []byte {
	nChildren := len(d.ChildOffsets)
	dimCount := len(d.Dims)

	size := baseHeaderSize + 8 + 8 + 8 + 4 + 4 + nChildren*4*2 + dimCount*8*2 + len(d.Name)
	buf := make([]byte, size)

	off := 0
	buf[off] = byte(d.DataType)
	buf[off+1] = byte(d.Compression)
	endian.LE.PutUint16(buf[off+2:off+4], uint16(len(d.Name)))
	endian.LE.PutUint32(buf[off+4:off+8], uint32(nChildren))
	off += baseHeaderSize

	endian.LE.PutUint64(buf[off:off+8], d.LUTSize)
	off += 8
	endian.LE.PutUint64(buf[off:off+8], d.LUTOffset)
	off += 8
	endian.LE.PutUint64(buf[off:off+8], uint64(dimCount))
	off += 8
	endian.LE.PutUint32(buf[off:off+4], math.Float32bits(d.ScaleFactor))
	off += 4
	endian.LE.PutUint32(buf[off:off+4], math.Float32bits(d.AddOffset))
	off += 4

	for _, s := range d.ChildSizes {
		endian.LE.PutUint32(buf[off:off+4], s)
		off += 4
	}
	for _, o := range d.ChildOffsets {
		endian.LE.PutUint32(buf[off:off+4], o)
		off += 4
	}

	for _, v := range d.Dims {
		endian.LE.PutUint64(buf[off:off+8], v)
		off += 8
	}
	for _, v := range d.Chunks {
		endian.LE.PutUint64(buf[off:off+8], v)
		off += 8
	}

	copy(buf[off:], d.Name)

	return buf
}

// EncodeGroupDescriptor serialises a non-array container variable (§6): a
// plain base header (data_type None, a zero-byte value payload per
// scalarValueSize) followed by its children tables and name. This is the
// write-side shape of the metadata-only nodes the variable DAG uses purely
// to group children, with no array or scalar payload of their own.
func EncodeGroupDescriptor(name string, childSizes, childOffsets []uint32) []byte {
	nChildren := len(childOffsets)
	size := baseHeaderSize + nChildren*4*2 + len(name)
	buf := make([]byte, size)

	off := 0
	buf[off] = byte(format.DataTypeNone)
	buf[off+1] = byte(format.CompressionNone)
	endian.LE.PutUint16(buf[off+2:off+4], uint16(len(name)))
	endian.LE.PutUint32(buf[off+4:off+8], uint32(nChildren))
	off += baseHeaderSize

	for _, s := range childSizes {
		endian.LE.PutUint32(buf[off:off+4], s)
		off += 4
	}
	for _, o := range childOffsets {
		endian.LE.PutUint32(buf[off:off+4], o)
		off += 4
	}

	copy(buf[off:], name)

	return buf
}

// EncodeV3Header returns the 3-byte leading header of a version-3 file.
func EncodeV3Header() []byte {
	return []byte{format.MagicByte1, format.MagicByte2, byte(format.VersionV3)}
}

// EncodeTrailer serialises the 40-byte version-3 trailer: the same magic
// and version the leading header carries, followed by the root
// variable's (offset, size) and zero padding to fill the fixed size.
func EncodeTrailer(rootOffset, rootSize uint64) []byte {
	buf := make([]byte, format.V3TrailerSize)
	buf[0] = format.MagicByte1
	buf[1] = format.MagicByte2
	buf[2] = byte(format.VersionV3)
	endian.LE.PutUint64(buf[8:16], rootOffset)
	endian.LE.PutUint64(buf[16:24], rootSize)

	return buf
}

// EncodeStringDescriptor serialises a string-valued variable (§6): a base
// header (data_type String, zero children), the tagged value's byte
// length, the tagged value bytes themselves (already compress.EncodeTagged
// output, so a reader's StringValue can recover the original bytes without
// out-of-band knowledge of which codec a writer chose), then the name.
func EncodeStringDescriptor(name string, taggedValue []byte) []byte {
	size := baseHeaderSize + 8 + len(taggedValue) + len(name)
	buf := make([]byte, size)

	off := 0
	buf[off] = byte(format.DataTypeString)
	buf[off+1] = byte(format.CompressionNone)
	endian.LE.PutUint16(buf[off+2:off+4], uint16(len(name)))
	endian.LE.PutUint32(buf[off+4:off+8], 0)
	off += baseHeaderSize

	endian.LE.PutUint64(buf[off:off+8], uint64(len(taggedValue)))
	off += 8

	copy(buf[off:], taggedValue)
	off += len(taggedValue)

	copy(buf[off:], name)

	return buf
}

// Name returns the variable's name bytes, borrowed from the parse buffer.
func (v Variable) Name() string { return string(v.name) }

// NumChildren reports how many children this variable has.
func (v Variable) NumChildren() int { return len(v.childOffsets) }

// Child returns the (offset, size) pair for the nth child, as a relative
// file offset the caller resolves against whatever base this variable
// was read from.
func (v Variable) Child(n int) (offset, size uint32) {
	return v.childOffsets[n], v.childSizes[n]
}

// IsArray reports whether this variable is an N-D array descriptor.
func (v Variable) IsArray() bool { return v.isArray }

// IsString reports whether this variable is a string descriptor.
func (v Variable) IsString() bool { return v.isString }

// StringValue returns a string variable's decoded value, reversing
// whatever compress.Tag EncodeStringDescriptor prefixed it with (§4.10).
// Returns format.ErrInvalidDataType for a non-string variable.
func (v Variable) StringValue() ([]byte, error) {
	if !v.isString {
		return nil, format.ErrInvalidDataType
	}

	tagged := v.raw[v.valueOffset : v.valueOffset+int(v.StringSize)]

	return compress.DecodeTagged(tagged)
}

// NChunks returns the total chunk count of an array variable.
func (v Variable) NChunks() uint64 {
	total := uint64(1)
	for i := range v.Dims {
		total *= ceilDiv(v.Dims[i], v.Chunks[i])
	}

	return total
}

func float32FromBits(bits uint32) float32 {
	return math.Float32frombits(bits)
}
