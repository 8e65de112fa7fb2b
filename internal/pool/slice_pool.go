package pool

import "sync"

// uint64SlicePool recycles the uint64 slices GetUint64Slice hands out.
var uint64SlicePool = sync.Pool{
	New: func() any { return &[]uint64{} },
}

// GetUint64Slice retrieves and resizes a uint64 slice from the pool.
//
// The returned slice has length equal to size. The caller must call the
// returned cleanup function (typically via defer) to return it to the pool.
func GetUint64Slice(size int) ([]uint64, func()) {
	ptr, _ := uint64SlicePool.Get().(*[]uint64)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]uint64, size)
	} else {
		slice = slice[:size]
	}
	*ptr = slice

	return slice, func() { uint64SlicePool.Put(ptr) }
}
