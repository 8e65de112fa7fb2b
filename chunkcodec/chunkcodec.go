// Package chunkcodec dispatches one chunk plane's worth of source values
// through the filter+codec pipeline its format.CompressionType names,
// tying together floatcodec's predictors/filters and pfor's bit-packing
// (§4.3, §4.4) into the single encode/decode step the Encoder (§4.9) and
// the planner's chunk-decode dispatch (§4.7) sit on either side of.
//
// PFOR_16BIT_DELTA2D(_LOGARITHMIC) chunks are a homogeneous sequence of
// PFor blocks of up to bitpack.Block256 u16 residuals. FPX_XOR2D chunks
// carry an extra per-block leading-zero-count byte ahead of each PFor
// block (per fpxenc's block format, §4.4), so decodeFPXXor2D reads that
// header before each block rather than treating every compression tag as
// the same grain.
package chunkcodec

import (
	"github.com/omfile/omfile/bitio"
	"github.com/omfile/omfile/bitpack"
	"github.com/omfile/omfile/floatcodec"
	"github.com/omfile/omfile/format"
	"github.com/omfile/omfile/pfor"
)

// Params carries the per-array fields EncodeChunk/DecodeChunk need beyond
// the chunk's own shape and values: the compression tag, data type (which
// selects fpxenc's element width), and the scale/offset pair the
// PFor16BitDelta2D family casts through.
type Params struct {
	DataType    format.DataType
	Compression format.CompressionType
	Scale       float32
	Offset      float32
}

// EncodeChunk filters and compresses one rows*cols chunk plane of source
// values (row-major; encoder.EncodeArray zero-fills padding/out-of-dims
// cells) into its
// compressed on-disk bytes.
func EncodeChunk(p Params, rows, cols int, values []float64) ([]byte, error) {
	switch p.Compression {
	case format.CompressionNone:
		return encodeNone(values), nil

	case format.CompressionPFor16BitDelta2D:
		ints := floatcodec.ScaleEncodeFloat64ToInt16(values, p.Scale, p.Offset)
		return encodeDelta2DPFor16(ints, rows, cols), nil

	case format.CompressionPFor16BitDelta2DLogarithmic:
		ints := floatcodec.ScaleEncodeFloat64ToInt16Log(values, p.Scale, p.Offset)
		return encodeDelta2DPFor16(ints, rows, cols), nil

	case format.CompressionFPXXor2D:
		return encodeFPXXor2D(values, rows, cols, fpxWidth(p.DataType)), nil

	default:
		return nil, format.ErrInvalidCompressionType
	}
}

// DecodeChunk inverts EncodeChunk, producing rows*cols float64 values.
func DecodeChunk(p Params, rows, cols int, data []byte) ([]float64, error) {
	switch p.Compression {
	case format.CompressionNone:
		return decodeNone(data, rows*cols)

	case format.CompressionPFor16BitDelta2D:
		ints := decodeDelta2DPFor16(data, rows, cols)
		return floatcodec.ScaleDecodeInt16ToFloat64(ints, p.Scale, p.Offset), nil

	case format.CompressionPFor16BitDelta2DLogarithmic:
		ints := decodeDelta2DPFor16(data, rows, cols)
		return floatcodec.ScaleDecodeInt16ToFloat64Log(ints, p.Scale, p.Offset), nil

	case format.CompressionFPXXor2D:
		return decodeFPXXor2D(data, rows, cols, fpxWidth(p.DataType)), nil

	default:
		return nil, format.ErrInvalidCompressionType
	}
}

func fpxWidth(dt format.DataType) uint {
	if dt == format.DataTypeFloat {
		return 32
	}

	return 64
}

func encodeNone(values []float64) []byte {
	bits := floatcodec.Float64BitsEncode(values)

	w := bitio.NewWriter()
	for _, b := range bits {
		w.Put(64, b)
	}
	w.Align()

	return w.Bytes()
}

func decodeNone(data []byte, n int) ([]float64, error) {
	r := bitio.NewReader(data)
	bits := make([]uint64, n)
	for i := range bits {
		bits[i] = r.Get(64)
	}

	if r.BytePos() != len(data) {
		return nil, format.ErrOutOfBoundRead
	}

	return floatcodec.Float64BitsDecode(bits), nil
}

func encodeDelta2DPFor16(ints []int16, rows, cols int) []byte {
	plane := make([]uint64, len(ints))
	for i, v := range ints {
		plane[i] = uint64(uint16(v))
	}

	floatcodec.Delta2DEncode(plane, rows, cols, 16)

	w := bitio.NewWriter()
	for pos := 0; pos < len(plane); pos += bitpack.Block256 {
		end := pos + bitpack.Block256
		if end > len(plane) {
			end = len(plane)
		}
		pfor.EncodeBlock(w, plane[pos:end], 16)
	}

	return w.Bytes()
}

func decodeDelta2DPFor16(data []byte, rows, cols int) []int16 {
	n := rows * cols
	plane := make([]uint64, n)

	r := bitio.NewReader(data)
	for pos := 0; pos < n; pos += bitpack.Block256 {
		end := pos + bitpack.Block256
		if end > n {
			end = n
		}
		pfor.DecodeBlock(r, plane[pos:end], end-pos, 16)
	}

	floatcodec.Delta2DDecode(plane, rows, cols, 16)

	out := make([]int16, n)
	for i, v := range plane {
		out[i] = int16(uint16(v))
	}

	return out
}

func encodeFPXXor2D(values []float64, rows, cols int, width uint) []byte {
	n := rows * cols
	bits := floatBitsPlane(values, width)
	floatcodec.XOR2DEncode(bits, rows, cols)

	w := bitio.NewWriter()
	prev := uint64(0)
	for pos := 0; pos < n; pos += floatcodec.BlockSize {
		end := pos + floatcodec.BlockSize
		if end > n {
			end = n
		}

		residuals, last := floatcodec.FPXEncodeBlock(w, bits[pos:end], prev, width)
		prev = last
		pfor.EncodeBlock(w, residuals, width)
	}

	return w.Bytes()
}

func decodeFPXXor2D(data []byte, rows, cols int, width uint) []float64 {
	n := rows * cols
	bits := make([]uint64, n)

	r := bitio.NewReader(data)
	prev := uint64(0)
	for pos := 0; pos < n; pos += floatcodec.BlockSize {
		end := pos + floatcodec.BlockSize
		if end > n {
			end = n
		}
		blockLen := end - pos

		// Mirror FPXEncodeBlock/pfor.EncodeBlock's write order: the
		// lz header byte precedes the PFor-encoded residuals.
		lz := floatcodec.FPXReadHeader(r)
		residuals := make([]uint64, blockLen)
		pfor.DecodeBlock(r, residuals, blockLen, width)

		values, last := floatcodec.FPXInvert(residuals, lz, prev, width)
		prev = last
		copy(bits[pos:end], values)
	}

	floatcodec.XOR2DDecode(bits, rows, cols)

	return floatPlaneToFloat64(bits, width)
}

func floatBitsPlane(values []float64, width uint) []uint64 {
	if width == 32 {
		f32 := make([]float32, len(values))
		for i, v := range values {
			f32[i] = float32(v)
		}

		return floatcodec.Float32BitsEncode(f32)
	}

	return floatcodec.Float64BitsEncode(values)
}

func floatPlaneToFloat64(bits []uint64, width uint) []float64 {
	if width == 32 {
		f32 := floatcodec.Float32BitsDecode(bits)
		out := make([]float64, len(f32))
		for i, v := range f32 {
			out[i] = float64(v)
		}

		return out
	}

	return floatcodec.Float64BitsDecode(bits)
}

