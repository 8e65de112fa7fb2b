// Package planner implements the I/O scheduler described in §4.7: given a
// read window over an N-D array, walk the chunk-index runs ChunkLayout
// identifies and emit merged, size-bounded index reads (against the
// compressed LUT) and data reads (against the compressed chunk bytes).
// Chunk decoding itself is the caller's job (chunkcodec.DecodeChunk, §4.4),
// since the byte layout varies by compression tag in ways this package
// doesn't need to know about.
package planner

import (
	"github.com/omfile/omfile/chunklayout"
)

// Read is one emitted byte-range request, either against the LUT (from an
// IndexReader) or against the chunk data region (from a DataReader).
type Read struct {
	Offset     uint64
	Count      uint64
	ChunkIndex uint64 // first chunk index this read's bytes cover
	NextChunk  uint64 // exclusive upper bound of chunks this read covers
}

// Config parametrises a Planner for one read request.
type Config struct {
	Grid        chunklayout.Grid
	First, Last []uint64 // chunk-coordinate window, from Grid.ChunkWindow
	IOSizeMax   uint64
	IOSizeMerge uint64
}

// Planner precomputes the sequence of wanted, contiguous chunk-index runs
// for one read request; IndexReader and DataReader each walk an
// independent copy of that sequence, merging/splitting it against a
// caller-supplied byte-offset mapping.
type Planner struct {
	cfg  Config
	runs [][2]uint64
}

// New builds a Planner and eagerly computes the chunk-index runs the
// request touches.
func New(cfg Config) *Planner {
	rc := chunklayout.NewRunCursor(cfg.Grid, cfg.First, cfg.Last)

	var runs [][2]uint64
	for {
		lower, upper, ok := rc.Next()
		if !ok {
			break
		}
		runs = append(runs, [2]uint64{lower, upper})
	}

	return &Planner{cfg: cfg, runs: runs}
}

// ChunkStart and ChunkEnd report the half-open linear chunk-index range
// the whole request spans, including chunks skipped because they fall
// outside the window along a slower dimension (§4.6a's initial range).
func (p *Planner) ChunkStart() uint64 {
	if len(p.runs) == 0 {
		return 0
	}

	return p.runs[0][0]
}

func (p *Planner) ChunkEnd() uint64 {
	if len(p.runs) == 0 {
		return 0
	}

	return p.runs[len(p.runs)-1][1]
}

// RangeBytesFunc maps a half-open chunk-index range [lower, upper) to the
// byte range a caller must fetch to gain access to every entry/chunk in
// it. For LUT reads this rounds out to whole compressed groups; for data
// reads it's the exact decoded chunk byte offsets.
type RangeBytesFunc func(lower, upper uint64) (start, end uint64)

// rangeIterator implements the shared merge/split policy of §4.7: walk
// runs, merging across a run boundary when the byte gap is within
// ioSizeMerge and the merged size stays within ioSizeMax, splitting within
// a run when it alone would exceed ioSizeMax.
type rangeIterator struct {
	runs        [][2]uint64
	rangeBytes  RangeBytesFunc
	ioSizeMax   uint64
	ioSizeMerge uint64
}

func (it *rangeIterator) next() (Read, bool) {
	if len(it.runs) == 0 {
		return Read{}, false
	}

	startChunk := it.runs[0][0]
	endChunk := startChunk

	for len(it.runs) > 0 {
		runLower, runUpper := it.runs[0][0], it.runs[0][1]

		candidateEnd := runUpper
		_, byteEndCandidate := it.rangeBytes(startChunk, candidateEnd)
		byteStart, _ := it.rangeBytes(startChunk, startChunk)

		if byteEndCandidate-byteStart > it.ioSizeMax {
			candidateEnd = it.clipToMax(startChunk, runLower, runUpper)
		}

		endChunk = candidateEnd

		if endChunk < runUpper {
			it.runs[0][0] = endChunk
			break
		}

		it.runs = it.runs[1:]

		if len(it.runs) == 0 {
			break
		}

		_, byteEnd := it.rangeBytes(startChunk, endChunk)
		nextLower, nextUpper := it.runs[0][0], it.runs[0][1]
		nextByteStart, _ := it.rangeBytes(nextLower, nextLower)
		_, mergedByteEnd := it.rangeBytes(startChunk, nextUpper)

		if nextByteStart < byteEnd {
			nextByteStart = byteEnd
		}
		gap := nextByteStart - byteEnd

		if gap <= it.ioSizeMerge && mergedByteEnd-byteStart <= it.ioSizeMax {
			continue
		}

		break
	}

	start, end := it.rangeBytes(startChunk, endChunk)

	return Read{Offset: start, Count: end - start, ChunkIndex: startChunk, NextChunk: endChunk}, true
}

// clipToMax finds the largest end in (runLower, runUpper] such that
// [lower, end) fits within ioSizeMax, always advancing by at least one
// chunk so a single oversized entry can't stall iteration.
func (it *rangeIterator) clipToMax(lower, runLower, runUpper uint64) uint64 {
	byteStart, _ := it.rangeBytes(lower, lower)
	end := runLower

	for c := runLower + 1; c <= runUpper; c++ {
		_, byteEnd := it.rangeBytes(lower, c)
		if byteEnd-byteStart > it.ioSizeMax {
			break
		}
		end = c
	}
	if end <= lower {
		end = lower + 1
	}

	return end
}

// IndexReader walks one Planner's chunk runs, emitting LUT byte ranges.
type IndexReader struct{ it *rangeIterator }

// NewIndexReader starts an IndexReader using rangeBytes to map a chunk
// range to LUT-group byte offsets (§4.7 alignment rules live in the
// caller's rangeBytes implementation, e.g. omfile's resolveV3Offsets).
func (p *Planner) NewIndexReader(rangeBytes RangeBytesFunc) *IndexReader {
	runs := append([][2]uint64(nil), p.runs...)

	return &IndexReader{it: &rangeIterator{
		runs:        runs,
		rangeBytes:  rangeBytes,
		ioSizeMax:   p.cfg.IOSizeMax,
		ioSizeMerge: p.cfg.IOSizeMerge,
	}}
}

// Next returns the next merged, bounded LUT read.
func (r *IndexReader) Next() (Read, bool) { return r.it.next() }

// DataReader walks one Planner's chunk runs, emitting data-region byte
// ranges using the now-decoded LUT.
type DataReader struct{ it *rangeIterator }

// NewDataReader starts a DataReader using rangeBytes to map a chunk range
// to decoded chunk byte offsets.
func (p *Planner) NewDataReader(rangeBytes RangeBytesFunc) *DataReader {
	runs := append([][2]uint64(nil), p.runs...)

	return &DataReader{it: &rangeIterator{
		runs:        runs,
		rangeBytes:  rangeBytes,
		ioSizeMax:   p.cfg.IOSizeMax,
		ioSizeMerge: p.cfg.IOSizeMerge,
	}}
}

// Next returns the next merged, bounded data read.
func (r *DataReader) Next() (Read, bool) { return r.it.next() }
