// Package bitpack implements fixed-width bit packing of blocks of 128 or 256
// integers, plus standalone reversible prefilters (delta,
// delta-strictly-increasing, frame-of-reference, zigzag-of-delta). The pfor
// and lut packages do not apply these prefilters before packing.
//
// Only the horizontal (scalar) lane described in §4.2 is implemented. The
// vertical SIMD-lane family (128v/256v) is a distinct on-disk byte layout
// that a writer and reader must agree on end-to-end; this module picks the
// scalar layout everywhere and omits the vertical family rather than ship
// half of an incompatible pair (see DESIGN.md).
package bitpack

import "github.com/omfile/omfile/bitio"

// BlockSizes enumerates the supported block lengths.
const (
	Block128 = 128
	Block256 = 256
)

// Widths enumerates the supported element widths.
const (
	Width8  = 8
	Width16 = 16
	Width32 = 32
	Width64 = 64
)

func widthMask(w uint) uint64 {
	if w >= 64 {
		return ^uint64(0)
	}

	return (uint64(1) << w) - 1
}

// ByteLen returns ceil(n*b/8), the number of bytes a fixed-width pack of n
// values of b bits each occupies.
func ByteLen(n, b int) int {
	return (n*b + 7) / 8
}

// Pack writes n values (already masked to fit in b bits each) to w, bit i
// starting at bit i*b of the stream, and byte-aligns the writer afterwards
// so the caller can read back ByteLen(n, b) contiguous bytes.
func Pack(w *bitio.Writer, values []uint64, n, b int) {
	if b == 0 {
		return
	}

	for i := 0; i < n; i++ {
		w.PutWide(b, values[i])
	}
	w.Align()
}

// Unpack reads n values of b bits each from r into out.
func Unpack(r *bitio.Reader, out []uint64, n, b int) {
	if b == 0 {
		for i := 0; i < n; i++ {
			out[i] = 0
		}
		r.Align()

		return
	}

	for i := 0; i < n; i++ {
		out[i] = r.GetWide(b)
	}
	r.Align()
}

// DeltaEncode produces deltas[0] = values[0], deltas[i] = values[i] -
// values[i-1] (mod 2^w) for i > 0. Deltas may be zero or, after decode
// via DeltaDecode, reconstruct a non-strictly-increasing sequence.
func DeltaEncode(values []uint64, w uint) []uint64 {
	mask := widthMask(w)
	out := make([]uint64, len(values))
	if len(values) == 0 {
		return out
	}

	out[0] = values[0] & mask
	for i := 1; i < len(values); i++ {
		out[i] = (values[i] - values[i-1]) & mask
	}

	return out
}

// DeltaDecode inverts DeltaEncode via a running prefix sum.
func DeltaDecode(deltas []uint64, w uint) []uint64 {
	mask := widthMask(w)
	out := make([]uint64, len(deltas))
	if len(deltas) == 0 {
		return out
	}

	out[0] = deltas[0] & mask
	prev := out[0]
	for i := 1; i < len(deltas); i++ {
		prev = (prev + deltas[i]) & mask
		out[i] = prev
	}

	return out
}

// Delta1Encode is DeltaEncode's strictly-increasing variant: deltas[i] =
// values[i] - values[i-1] - 1 for i > 0, valid only when the input is
// strictly increasing (every delta >= 1 before the -1 bias).
func Delta1Encode(values []uint64, w uint) []uint64 {
	mask := widthMask(w)
	out := make([]uint64, len(values))
	if len(values) == 0 {
		return out
	}

	out[0] = values[0] & mask
	for i := 1; i < len(values); i++ {
		out[i] = (values[i] - values[i-1] - 1) & mask
	}

	return out
}

// Delta1Decode inverts Delta1Encode: out[i] = prev + in[i] + 1.
func Delta1Decode(deltas []uint64, w uint) []uint64 {
	mask := widthMask(w)
	out := make([]uint64, len(deltas))
	if len(deltas) == 0 {
		return out
	}

	out[0] = deltas[0] & mask
	prev := out[0]
	for i := 1; i < len(deltas); i++ {
		prev = (prev + deltas[i] + 1) & mask
		out[i] = prev
	}

	return out
}

// FOREncode subtracts a fixed start value from every element (frame of
// reference), with no accumulation between elements.
func FOREncode(values []uint64, start uint64, w uint) []uint64 {
	mask := widthMask(w)
	out := make([]uint64, len(values))
	for i, v := range values {
		out[i] = (v - start) & mask
	}

	return out
}

// FORDecode inverts FOREncode.
func FORDecode(values []uint64, start uint64, w uint) []uint64 {
	mask := widthMask(w)
	out := make([]uint64, len(values))
	for i, v := range values {
		out[i] = (v + start) & mask
	}

	return out
}

// ZigzagDeltaEncode maps a possibly-unsorted signed sequence to unsigned
// residuals friendly to small bitwidths: the first value is zigzagged as-is,
// subsequent values are zigzagged deltas.
func ZigzagDeltaEncode(values []int64) []uint64 {
	out := make([]uint64, len(values))
	if len(values) == 0 {
		return out
	}

	out[0] = bitio.ZigzagEncode64(values[0])
	for i := 1; i < len(values); i++ {
		out[i] = bitio.ZigzagEncode64(values[i] - values[i-1])
	}

	return out
}

// ZigzagDeltaDecode inverts ZigzagDeltaEncode.
func ZigzagDeltaDecode(deltas []uint64) []int64 {
	out := make([]int64, len(deltas))
	if len(deltas) == 0 {
		return out
	}

	out[0] = bitio.ZigzagDecode64(deltas[0])
	prev := out[0]
	for i := 1; i < len(deltas); i++ {
		prev += bitio.ZigzagDecode64(deltas[i])
		out[i] = prev
	}

	return out
}
