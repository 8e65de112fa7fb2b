// Package pfor implements TurboPFor-style patched-frame-of-reference integer
// compression (§4.3): pick a base bitwidth b that fits most values in a
// block, bit-pack the low b bits of every value, and patch the few values
// that overflow b bits through a sparse exception side-channel.
//
// Two exception layouts are supported, matching the spec's "bitmap vs.
// variable-byte indexed" choice: a bitmap marking overflow positions plus a
// bit-packed list of high parts (cheap when overflows are frequent), or a
// variable-byte list of (position, high-part) pairs (cheap when overflows
// are rare). The encoder picks whichever is smaller for the chosen b; the
// decoder accepts either, plus the two header shortcuts (constant block,
// no-overflow block).
package pfor

import (
	"github.com/omfile/omfile/bitio"
	"github.com/omfile/omfile/bitpack"
	"github.com/omfile/omfile/varbyte"
)

// layout tags stored in the top two bits of the block header byte.
const (
	layoutNoOverflow = 0
	layoutBitmap     = 1
	layoutVarbyte    = 2
	layoutAllEqual   = 3
)

// headerB encodes b into the on-disk field, folding the 64-bit case onto
// code 63 per §4.3's "64-bit path represents b==64 with the on-disk code 63".
func headerB(b int, elemWidth uint) int {
	if elemWidth == 64 && b == 64 {
		return 63
	}

	return b
}

func decodeHeaderB(code int, elemWidth uint) int {
	if elemWidth == 64 && code == 63 {
		return 64
	}

	return code
}

func bitLen(x uint64) int {
	return bitio.BSR64(x) + 1
}

// blockCost estimates the encoded size in bits for a given base bitwidth b,
// returning the cheaper of the bitmap and variable-byte exception layouts.
func blockCost(values []uint64, b int) (costBits int, layout int, bx int) {
	n := len(values)
	limit := uint64(1) << uint(b)

	k := 0
	maxHigh := uint64(0)
	for _, v := range values {
		if v >= limit {
			k++
			high := v >> uint(b)
			if high > maxHigh {
				maxHigh = high
			}
		}
	}

	packedBits := n * b
	if k == 0 {
		return packedBits, layoutNoOverflow, 0
	}

	bx = bitLen(maxHigh)

	bitmapBits := packedBits + n /*bitmap*/ + k*bx
	bitmapBits = (bitmapBits + 7) / 8 * 8

	// Variable-byte layout: each overflow entry costs a varbyte position
	// (1-2 bytes for blocks up to 256) plus a varbyte high-part.
	vbBytes := 0
	for i, v := range values {
		if v >= limit {
			vbBytes += varbyte.Len(uint64(i)) + varbyte.Len(v>>uint(b))
		}
	}
	varbyteBits := packedBits + (vbBytes+2)*8 // +2 bytes for the entry count

	if varbyteBits < bitmapBits {
		return varbyteBits, layoutVarbyte, bx
	}

	return bitmapBits, layoutBitmap, bx
}

// selectParams performs the single downward sweep described in §4.3 step 1:
// starting from the maximum bit length present in the block, walk b
// downward and keep the cheapest (b, layout, bx) found.
func selectParams(values []uint64, elemWidth uint) (b, layout, bx int) {
	maxBits := 0
	allEqual := true
	for i, v := range values {
		if i > 0 && v != values[0] {
			allEqual = false
		}
		if l := bitLen(v); l > maxBits {
			maxBits = l
		}
	}

	if allEqual {
		return maxBits, layoutAllEqual, 0
	}

	bestCost := -1
	bestB, bestLayout, bestBx := maxBits, layoutNoOverflow, 0
	for cand := maxBits; cand >= 0; cand-- {
		if elemWidth == 64 && cand == 63 {
			// Header code 63 stands for b == 64 on the 64-bit path.
			continue
		}
		cost, lay, cbx := blockCost(values, cand)
		if bestCost == -1 || cost < bestCost {
			bestCost, bestB, bestLayout, bestBx = cost, cand, lay, cbx
		}
	}

	return bestB, bestLayout, bestBx
}

// EncodeBlock writes one PFor block of len(values) elements, each a
// residual already reduced modulo 2^elemWidth (elemWidth in {8,16,32,64}).
func EncodeBlock(w *bitio.Writer, values []uint64, elemWidth uint) {
	n := len(values)
	b, layout, bx := selectParams(values, elemWidth)

	header := (layout << 6) | headerB(b, elemWidth)
	w.Put(8, uint64(header))

	if layout == layoutAllEqual {
		if n > 0 {
			w.PutWide(b, values[0])
			w.Align()
		}

		return
	}

	bitpack.Pack(w, values, n, b)

	if layout == layoutNoOverflow {
		return
	}

	w.Put(8, uint64(bx))
	limit := uint64(1) << uint(b)

	switch layout {
	case layoutBitmap:
		bitmap := make([]uint64, n)
		var highs []uint64
		for i, v := range values {
			if v >= limit {
				bitmap[i] = 1
				highs = append(highs, v>>uint(b))
			}
		}
		for i := 0; i < n; i++ {
			w.Put(1, bitmap[i])
		}
		w.Align()
		bitpack.Pack(w, highs, len(highs), bx)

	case layoutVarbyte:
		var positions []int
		var highs []uint64
		for i, v := range values {
			if v >= limit {
				positions = append(positions, i)
				highs = append(highs, v>>uint(b))
			}
		}
		w.Put(16, uint64(len(positions)))
		w.Align()
		for i, pos := range positions {
			varbyte.Encode(w, uint64(pos))
			varbyte.Encode(w, highs[i])
		}
		w.Align()
	}
}

// DecodeBlock reads n elements from r into out, reversing EncodeBlock.
func DecodeBlock(r *bitio.Reader, out []uint64, n int, elemWidth uint) {
	header := int(r.Get(8))
	layout := header >> 6
	b := decodeHeaderB(header&0x3f, elemWidth)

	if layout == layoutAllEqual {
		var v uint64
		if n > 0 {
			v = r.GetWide(b)
			r.Align()
		}
		for i := 0; i < n; i++ {
			out[i] = v
		}

		return
	}

	bitpack.Unpack(r, out, n, b)

	if layout == layoutNoOverflow {
		return
	}

	bx := int(r.Get(8))
	limit := uint64(1) << uint(b)

	switch layout {
	case layoutBitmap:
		bitmap := make([]int, 0, n)
		for i := 0; i < n; i++ {
			if r.Get(1) == 1 {
				bitmap = append(bitmap, i)
			}
		}
		r.Align()
		highs := make([]uint64, len(bitmap))
		bitpack.Unpack(r, highs, len(bitmap), bx)
		for i, pos := range bitmap {
			out[pos] += highs[i] << uint(b)
		}

	case layoutVarbyte:
		count := int(r.Get(16))
		r.Align()
		for i := 0; i < count; i++ {
			pos := varbyte.Decode(r)
			high := varbyte.Decode(r)
			out[pos] += high << uint(b)
		}
		r.Align()
	}

	_ = limit
}
