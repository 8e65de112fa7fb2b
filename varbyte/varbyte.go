// Package varbyte implements the scalar variable-byte integer codec used
// for PFor's exception side-channel (§4.3): a prefix-length code where the
// number of leading one-bits in the first byte selects how many following
// bytes carry the value, plus delta/zigzag and XOR prefilter wrappers.
package varbyte

import "github.com/omfile/omfile/bitio"

// SentinelFirstByte is the first-byte value that tags an uncompressed
// fallback block. Encode never writes it and Decode does not recognise it;
// no function in this package produces or reads a fallback block.
const SentinelFirstByte = 0xFF

// eightExtraPrefix is the first-byte value meaning "8 extra bytes, 0 header
// data bits" (a full 64-bit value follows, little-endian).
const eightExtraPrefix = 0xFE

// Len returns the number of bytes Encode will write for v.
func Len(v uint64) int {
	for c := 0; c <= 6; c++ {
		dataBits := uint(7 - c)
		capV := (uint64(1) << (dataBits + 8*uint(c))) - 1
		if v <= capV {
			return 1 + c
		}
	}

	return 9
}

// Encode writes v using the prefix-length variable-byte code. The writer
// must be byte-aligned on entry and is left byte-aligned on return.
func Encode(w *bitio.Writer, v uint64) {
	for c := 0; c <= 6; c++ {
		dataBits := uint(7 - c)
		capV := (uint64(1) << (dataBits + 8*uint(c))) - 1
		if v > capV {
			continue
		}

		pattern := ((uint64(1) << uint(c)) - 1) << (8 - uint(c))
		high := v >> (8 * uint(c))
		low := v & ((uint64(1) << (8 * uint(c))) - 1)

		w.Put(8, pattern|high)
		for i := 0; i < c; i++ {
			w.Put(8, (low>>(8*uint(i)))&0xff)
		}

		return
	}

	// 64-bit overflow: 0xFE prefix followed by 8 little-endian bytes.
	w.Put(8, eightExtraPrefix)
	for i := 0; i < 8; i++ {
		w.Put(8, (v>>(8*uint(i)))&0xff)
	}
}

// Decode reads one value written by Encode.
func Decode(r *bitio.Reader) uint64 {
	header := r.Get(8)

	if header == eightExtraPrefix {
		var v uint64
		for i := 0; i < 8; i++ {
			v |= r.Get(8) << (8 * uint(i))
		}

		return v
	}

	c := 0
	for c < 7 && (header&(0x80>>uint(c))) != 0 {
		c++
	}

	dataBits := uint(7 - c)
	high := header & ((uint64(1) << dataBits) - 1)

	var low uint64
	for i := 0; i < c; i++ {
		low |= r.Get(8) << (8 * uint(i))
	}

	return (high << (8 * uint(c))) | low
}

// EncodeSlice writes each value of values in sequence.
func EncodeSlice(w *bitio.Writer, values []uint64) {
	for _, v := range values {
		Encode(w, v)
	}
}

// DecodeSlice reads n values written by EncodeSlice.
func DecodeSlice(r *bitio.Reader, n int) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = Decode(r)
	}

	return out
}

// EncodeDelta zigzag-delta prefilters values (see bitpack.ZigzagDeltaEncode)
// before variable-byte coding them, the wrapper used when a sidecar list of
// signed or unsorted integers needs to compress well without a fixed width.
func EncodeDelta(w *bitio.Writer, values []int64) {
	prev := int64(0)
	for _, v := range values {
		Encode(w, bitio.ZigzagEncode64(v-prev))
		prev = v
	}
}

// DecodeDelta inverts EncodeDelta.
func DecodeDelta(r *bitio.Reader, n int) []int64 {
	out := make([]int64, n)
	prev := int64(0)
	for i := range out {
		prev += bitio.ZigzagDecode64(Decode(r))
		out[i] = prev
	}

	return out
}

// EncodeXOR XOR-prefilters values against the previous value before
// variable-byte coding, useful for slowly changing bit patterns (e.g. raw
// float bits) that aren't monotonic enough for delta coding.
func EncodeXOR(w *bitio.Writer, values []uint64) {
	prev := uint64(0)
	for _, v := range values {
		Encode(w, v^prev)
		prev = v
	}
}

// DecodeXOR inverts EncodeXOR.
func DecodeXOR(r *bitio.Reader, n int) []uint64 {
	out := make([]uint64, n)
	prev := uint64(0)
	for i := range out {
		prev ^= Decode(r)
		out[i] = prev
	}

	return out
}
