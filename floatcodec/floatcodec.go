// Package floatcodec implements the floating-point aware filters and
// predictors that sit between a decoded/undecoded chunk and PFor (§4.4):
// the 2-D delta and 2-D XOR row filters, the fpxenc/fpxdec XOR last-value
// predictor, and the scale/cast adapters that turn a chunk of float64s
// into the integer payload a compression tag actually stores.
package floatcodec

import (
	"math"

	"github.com/omfile/omfile/bitio"
)

// BlockSize is the fpxenc/fpxdec block length (§4.4, §9 open question:
// producers that choose a different value are not wire-compatible).
const BlockSize = 128

// Delta2DEncode applies the row-wise filter in place: row 0 is untouched,
// every subsequent row becomes the element-wise difference from the row
// above it. Values are modular in width w (8/16/32/64).
func Delta2DEncode(x []uint64, rows, cols int, w uint) {
	mask := widthMask(w)
	for r := rows - 1; r > 0; r-- {
		cur := x[r*cols : r*cols+cols]
		prev := x[(r-1)*cols : (r-1)*cols+cols]
		for c := 0; c < cols; c++ {
			cur[c] = (cur[c] - prev[c]) & mask
		}
	}
}

// Delta2DDecode inverts Delta2DEncode via a running row-wise prefix sum.
func Delta2DDecode(x []uint64, rows, cols int, w uint) {
	mask := widthMask(w)
	for r := 1; r < rows; r++ {
		cur := x[r*cols : r*cols+cols]
		prev := x[(r-1)*cols : (r-1)*cols+cols]
		for c := 0; c < cols; c++ {
			cur[c] = (cur[c] + prev[c]) & mask
		}
	}
}

// XOR2DEncode is Delta2DEncode's bitwise analogue over raw IEEE-754 bit
// patterns, used ahead of fpxenc instead of the arithmetic delta.
func XOR2DEncode(x []uint64, rows, cols int) {
	for r := rows - 1; r > 0; r-- {
		cur := x[r*cols : r*cols+cols]
		prev := x[(r-1)*cols : (r-1)*cols+cols]
		for c := 0; c < cols; c++ {
			cur[c] ^= prev[c]
		}
	}
}

// XOR2DDecode inverts XOR2DEncode; xor is its own inverse so this is a
// forward pass rather than a prefix sum.
func XOR2DDecode(x []uint64, rows, cols int) {
	for r := 1; r < rows; r++ {
		cur := x[r*cols : r*cols+cols]
		prev := x[(r-1)*cols : (r-1)*cols+cols]
		for c := 0; c < cols; c++ {
			cur[c] ^= prev[c]
		}
	}
}

func widthMask(w uint) uint64 {
	if w >= 64 {
		return ^uint64(0)
	}

	return (uint64(1) << w) - 1
}

// FPXEncodeBlock runs the fpxenc predictor (§4.4) over one block of up to
// BlockSize values: xor each element against the previous value (prev
// starts at 0), find the common leading-zero count across the block,
// left-shift that out of every residual and bit-reverse it, writing the
// shift count as a single byte followed by the transformed residuals.
// The transformed values are returned for the caller to feed into PFor;
// width is the bit width of the underlying value (32 for float32, 64 for
// float64).
func FPXEncodeBlock(w *bitio.Writer, values []uint64, prev uint64, width uint) (residuals []uint64, lastValue uint64) {
	n := len(values)
	residuals = make([]uint64, n)

	p := prev
	lz := int(width)
	for i, v := range values {
		d := v ^ p
		residuals[i] = d
		p = v

		var l int
		switch width {
		case 32:
			l = bitio.CLZ32(uint32(d))
		default:
			l = bitio.CLZ64(d)
		}
		if d == 0 {
			l = int(width)
		}
		if l < lz {
			lz = l
		}
	}
	if lz > int(width) {
		lz = int(width)
	}

	for i, d := range residuals {
		shifted := (d << uint(lz)) & widthMask(width)
		residuals[i] = reverseWidth(shifted, width)
	}

	w.Put(8, uint64(lz))

	return residuals, p
}

// FPXReadHeader reads the single leading-zero-count byte FPXEncodeBlock
// writes ahead of its PFor-encoded residuals. The caller must read this
// before PFor-decoding the block's residuals, since it occupies the
// stream position immediately before them.
func FPXReadHeader(r *bitio.Reader) (lz int) {
	return int(r.Get(8))
}

// FPXInvert reverses the bit-reverse/left-shift step FPXEncodeBlock applied
// to each residual (using the lz FPXReadHeader returned), then xors
// against the running previous value to recover the original values.
func FPXInvert(residuals []uint64, lz int, prev uint64, width uint) (values []uint64, lastValue uint64) {
	values = make([]uint64, len(residuals))
	p := prev
	for i, t := range residuals {
		shifted := reverseWidth(t, width)
		d := (shifted >> uint(lz)) & widthMask(width)
		v := d ^ p
		values[i] = v
		p = v
	}

	return values, p
}

// FPXDecodeBlock inverts FPXEncodeBlock for the case where residuals are
// already fully materialised (e.g. in tests that skip the PFor stage):
// it reads the leading-zero-count byte and applies FPXInvert in one call.
// Callers that interleave PFor decoding between the header byte and the
// residuals (the normal on-disk layout) must call FPXReadHeader and
// FPXInvert separately instead.
func FPXDecodeBlock(r *bitio.Reader, residuals []uint64, prev uint64, width uint) (values []uint64, lastValue uint64) {
	lz := FPXReadHeader(r)

	return FPXInvert(residuals, lz, prev, width)
}

func reverseWidth(v uint64, width uint) uint64 {
	switch width {
	case 32:
		return uint64(bitio.Reverse32(uint32(v)))
	default:
		return bitio.Reverse64(v)
	}
}

// ScaleEncodeFloat64ToInt16 converts x via round(x*scale + offset),
// mapping NaN to math.MaxInt16 as the PFOR_16BIT_DELTA2D compression tag
// requires.
func ScaleEncodeFloat64ToInt16(x []float64, scale, offset float32) []int16 {
	out := make([]int16, len(x))
	for i, v := range x {
		if math.IsNaN(v) {
			out[i] = math.MaxInt16
			continue
		}
		out[i] = int16(math.Round(v*float64(scale) + float64(offset)))
	}

	return out
}

// ScaleDecodeInt16ToFloat64 inverts ScaleEncodeFloat64ToInt16, mapping
// math.MaxInt16 back to NaN.
func ScaleDecodeInt16ToFloat64(x []int16, scale, offset float32) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		if v == math.MaxInt16 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (float64(v) - float64(offset)) / float64(scale)
	}

	return out
}

// ScaleEncodeFloat64ToInt16Log is the PFOR_16BIT_DELTA2D_LOGARITHMIC
// variant: it pre-applies log10(1+x) before the same round/scale/offset
// step.
func ScaleEncodeFloat64ToInt16Log(x []float64, scale, offset float32) []int16 {
	out := make([]int16, len(x))
	for i, v := range x {
		if math.IsNaN(v) {
			out[i] = math.MaxInt16
			continue
		}
		logged := math.Log10(1 + v)
		out[i] = int16(math.Round(logged*float64(scale) + float64(offset)))
	}

	return out
}

// ScaleDecodeInt16ToFloat64Log inverts ScaleEncodeFloat64ToInt16Log via
// 10^(x/scale) - 1.
func ScaleDecodeInt16ToFloat64Log(x []int16, scale, offset float32) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		if v == math.MaxInt16 {
			out[i] = math.NaN()
			continue
		}
		logged := (float64(v) - float64(offset)) / float64(scale)
		out[i] = math.Pow(10, logged) - 1
	}

	return out
}

// Float32BitsEncode/Decode and Float64BitsEncode/Decode are the bulk adapters
// that move between the bit-identical uint representation FloatCodec's
// XOR path operates on and the caller's float slice.

// Float32BitsEncode converts a float32 slice to its raw bit pattern.
func Float32BitsEncode(x []float32) []uint64 {
	out := make([]uint64, len(x))
	for i, v := range x {
		out[i] = uint64(math.Float32bits(v))
	}

	return out
}

// Float32BitsDecode inverts Float32BitsEncode.
func Float32BitsDecode(x []uint64) []float32 {
	out := make([]float32, len(x))
	for i, v := range x {
		out[i] = math.Float32frombits(uint32(v))
	}

	return out
}

// Float64BitsEncode converts a float64 slice to its raw bit pattern.
func Float64BitsEncode(x []float64) []uint64 {
	out := make([]uint64, len(x))
	for i, v := range x {
		out[i] = math.Float64bits(v)
	}

	return out
}

// Float64BitsDecode inverts Float64BitsEncode.
func Float64BitsDecode(x []uint64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Float64frombits(v)
	}

	return out
}
