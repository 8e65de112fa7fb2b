// Package lut implements the v3 compressed lookup-table layout (§3, §4.7,
// §4.9, §6): a monotonically non-decreasing sequence of n_chunks+1 byte
// offsets, partitioned into fixed-size groups of lut_chunk_element_count
// entries, each group independently PFor-64-delta-encoded and padded to a
// common per-group byte length so any group can be fetched with one
// fixed-size read.
package lut

import (
	"github.com/omfile/omfile/bitio"
	"github.com/omfile/omfile/format"
	"github.com/omfile/omfile/pfor"
)

// MaxGroupElements is the hard ceiling on lut_chunk_element_count (§5:
// "MAX_LUT_ELEMENTS = 256 u64 array").
const MaxGroupElements = format.MaxLUTElements

// EncodeGroups delta-encodes offsets (length n_chunks+1) in groups of
// groupElementCount entries via PFor-64, padding every group to the size
// of the largest one. It returns the concatenated group bytes and the
// common per-group byte length (lut_chunk_length).
func EncodeGroups(offsets []uint64, groupElementCount int) (data []byte, lutChunkLength int, err error) {
	if groupElementCount <= 0 || groupElementCount > MaxGroupElements {
		return nil, 0, format.ErrInvalidLUTChunkLength
	}

	n := len(offsets)
	nGroups := (n + groupElementCount - 1) / groupElementCount

	groups := make([][]byte, nGroups)
	for g := 0; g < nGroups; g++ {
		start := g * groupElementCount
		end := start + groupElementCount
		if end > n {
			end = n
		}

		w := bitio.NewWriter()
		deltas := deltaEncode(offsets[start:end])
		pfor.EncodeBlock(w, deltas, 64)
		groups[g] = w.Bytes()

		if len(groups[g]) > lutChunkLength {
			lutChunkLength = len(groups[g])
		}
	}

	data = make([]byte, nGroups*lutChunkLength)
	for g, gb := range groups {
		copy(data[g*lutChunkLength:], gb)
	}

	return data, lutChunkLength, nil
}

// DecodeGroup decodes the groupIndex-th group of groupElementCount entries
// (the last group may hold fewer than groupElementCount if n_chunks+1
// isn't a multiple of it) out of data, a buffer laid out as produced by
// EncodeGroups.
func DecodeGroup(data []byte, groupIndex, groupElementCount, lutChunkLength, totalElements int) ([]uint64, error) {
	start := groupIndex * lutChunkLength
	if start+lutChunkLength > len(data) {
		return nil, format.ErrOutOfBoundRead
	}

	count := groupElementCount
	if rem := totalElements - groupIndex*groupElementCount; rem < count {
		count = rem
	}
	if count <= 0 {
		return nil, format.ErrOutOfBoundRead
	}

	r := bitio.NewReader(data[start : start+lutChunkLength])
	deltas := make([]uint64, count)
	pfor.DecodeBlock(r, deltas, count, 64)

	return deltaDecode(deltas), nil
}

func deltaEncode(offsets []uint64) []uint64 {
	out := make([]uint64, len(offsets))
	if len(offsets) == 0 {
		return out
	}

	out[0] = offsets[0]
	for i := 1; i < len(offsets); i++ {
		out[i] = offsets[i] - offsets[i-1]
	}

	return out
}

func deltaDecode(deltas []uint64) []uint64 {
	out := make([]uint64, len(deltas))
	if len(deltas) == 0 {
		return out
	}

	out[0] = deltas[0]
	for i := 1; i < len(deltas); i++ {
		out[i] = out[i-1] + deltas[i]
	}

	return out
}
