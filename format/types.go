// Package format defines the on-disk tags, enums and closed error taxonomy
// shared by every component that reads or writes an om file: data types,
// compression tags, and the magic bytes that distinguish legacy headers
// from the version-3 layout.
package format

// DataType tags the payload carried by a Variable.
type DataType uint8

const (
	DataTypeNone DataType = iota
	DataTypeInt8
	DataTypeUint8
	DataTypeInt16
	DataTypeUint16
	DataTypeInt32
	DataTypeUint32
	DataTypeInt64
	DataTypeUint64
	DataTypeFloat
	DataTypeDouble
	DataTypeString
	DataTypeInt8Array
	DataTypeUint8Array
	DataTypeInt16Array
	DataTypeUint16Array
	DataTypeInt32Array
	DataTypeUint32Array
	DataTypeInt64Array
	DataTypeUint64Array
	DataTypeFloatArray
	DataTypeDoubleArray
	DataTypeStringArray
)

func (d DataType) String() string {
	switch d {
	case DataTypeNone:
		return "None"
	case DataTypeInt8:
		return "Int8"
	case DataTypeUint8:
		return "Uint8"
	case DataTypeInt16:
		return "Int16"
	case DataTypeUint16:
		return "Uint16"
	case DataTypeInt32:
		return "Int32"
	case DataTypeUint32:
		return "Uint32"
	case DataTypeInt64:
		return "Int64"
	case DataTypeUint64:
		return "Uint64"
	case DataTypeFloat:
		return "Float"
	case DataTypeDouble:
		return "Double"
	case DataTypeString:
		return "String"
	case DataTypeInt8Array, DataTypeUint8Array, DataTypeInt16Array, DataTypeUint16Array,
		DataTypeInt32Array, DataTypeUint32Array, DataTypeInt64Array, DataTypeUint64Array,
		DataTypeFloatArray, DataTypeDoubleArray, DataTypeStringArray:
		return "Array"
	default:
		return "Unknown"
	}
}

// IsArray reports whether the data type is one of the 1-D array variants.
func (d DataType) IsArray() bool {
	return d >= DataTypeInt8Array && d <= DataTypeStringArray
}

// IsNumeric reports whether the data type is one of the numeric scalar
// variants (integer, Float or Double).
func (d DataType) IsNumeric() bool {
	switch d {
	case DataTypeInt8, DataTypeUint8, DataTypeInt16, DataTypeUint16,
		DataTypeInt32, DataTypeUint32, DataTypeInt64, DataTypeUint64,
		DataTypeFloat, DataTypeDouble:
		return true
	default:
		return false
	}
}

// CompressionType tags the codec used for a chunk's compressed body.
type CompressionType uint8

const (
	// CompressionPFor16BitDelta2D is lossy: float -> int16 via scale_factor/add_offset,
	// 2-D delta filter, PFor on the resulting u16 plane.
	CompressionPFor16BitDelta2D CompressionType = 0
	// CompressionFPXXor2D is lossless: 2-D xor filter over the raw IEEE-754 bit
	// pattern, fpxenc on the resulting f32/f64 plane.
	CompressionFPXXor2D CompressionType = 1
	// CompressionPFor16BitDelta2DLogarithmic is CompressionPFor16BitDelta2D but
	// pre-applies log10(1+x) before scaling to int16.
	CompressionPFor16BitDelta2DLogarithmic CompressionType = 3
	// CompressionNone stores the element plane verbatim, no filter or codec.
	CompressionNone CompressionType = 4
)

func (c CompressionType) String() string {
	switch c {
	case CompressionPFor16BitDelta2D:
		return "PFor16BitDelta2D"
	case CompressionFPXXor2D:
		return "FPXXor2D"
	case CompressionPFor16BitDelta2DLogarithmic:
		return "PFor16BitDelta2DLogarithmic"
	case CompressionNone:
		return "None"
	default:
		return "Unknown"
	}
}

// Valid reports whether c is one of the four defined compression tags.
func (c CompressionType) Valid() bool {
	switch c {
	case CompressionPFor16BitDelta2D, CompressionFPXXor2D, CompressionPFor16BitDelta2DLogarithmic, CompressionNone:
		return true
	default:
		return false
	}
}

// MagicByte1 and MagicByte2 open every legacy and v3 header.
const (
	MagicByte1 = 'O'
	MagicByte2 = 'M'
)

// Version identifies the on-disk layout of a file.
type Version uint8

const (
	VersionLegacy1 Version = 1
	VersionLegacy2 Version = 2
	VersionV3      Version = 3
)

// IsLegacy reports whether v addresses the fixed 40-byte header layout.
func (v Version) IsLegacy() bool {
	return v == VersionLegacy1 || v == VersionLegacy2
}

// MaxLUTElements bounds the LUT scratch buffer: the planner never needs to
// hold more than one decompressed group of LUT entries at a time.
const MaxLUTElements = 256

// LegacyHeaderSize is the fixed size, in bytes, of a version 1/2 header.
const LegacyHeaderSize = 40

// V3HeaderSize is the fixed size, in bytes, of the version-3 leading header.
const V3HeaderSize = 3

// V3TrailerSize is the fixed size, in bytes, of the version-3 trailer at EOF.
const V3TrailerSize = 40
