// Package endian provides the byte-order engine used to serialize every
// fixed-size field in the om file format.
//
// The wire format is little-endian throughout (§6), so the package exposes
// a single engine rather than a runtime choice. It combines ByteOrder and
// AppendByteOrder from encoding/binary into one interface so callers can
// both Put into a fixed buffer and Append onto a growing one without an
// extra allocation.
package endian

import "encoding/binary"

// Engine combines ByteOrder and AppendByteOrder from the standard library
// into a single interface for convenient byte order operations.
type Engine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// LE is the little-endian engine every on-disk structure in this module uses.
var LE Engine = binary.LittleEndian
