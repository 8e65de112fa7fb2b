// Package omfile ties every lower layer into the public facade described
// in §6: Open distinguishes a legacy header from a v3 trailer, resolves
// the variable DAG, and hands out ArrayReaders that drive the full
// index-read / data-read / decode / chunk-copy pipeline against a
// caller-supplied backend.Backend. Writer is the symmetric write-side
// facade built on the encoder package.
package omfile

import (
	"context"
	"io"

	"github.com/omfile/omfile/backend"
	"github.com/omfile/omfile/format"
	"github.com/omfile/omfile/internal/hash"
	"github.com/omfile/omfile/variable"
)

// File is an opened, read-only view over a backend: either a legacy
// single-array file or a v3 file with a full variable DAG.
type File struct {
	b       backend.Backend
	version format.Version
	legacy  variable.LegacyHeader
	root    variable.Variable

	namedCache map[uint64]variable.Variable
}

// Open reads enough of b to distinguish a legacy header from a v3
// trailer (§4.8's header detection) and resolves the root Variable.
func Open(b backend.Backend) (*File, error) {
	head := make([]byte, format.V3HeaderSize)
	n, err := b.ReadAt(head, 0)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if n < format.V3HeaderSize || head[0] != format.MagicByte1 || head[1] != format.MagicByte2 {
		return nil, format.ErrNotAnOmFile
	}

	v := format.Version(head[2])

	if v.IsLegacy() {
		buf := make([]byte, format.LegacyHeaderSize)
		if _, err := b.ReadAt(buf, 0); err != nil && err != io.EOF {
			return nil, err
		}

		lh, err := variable.ParseLegacyHeader(buf)
		if err != nil {
			return nil, err
		}

		return &File{b: b, version: v, legacy: lh, root: variable.NewLegacyArrayVariable(lh)}, nil
	}

	if v != format.VersionV3 {
		return nil, format.ErrNotAnOmFile
	}

	size, err := b.Size()
	if err != nil {
		return nil, err
	}
	if size < format.V3TrailerSize {
		return nil, format.ErrInvalidHeaderSize
	}

	trailerBuf := make([]byte, format.V3TrailerSize)
	if _, err := b.ReadAt(trailerBuf, size-format.V3TrailerSize); err != nil && err != io.EOF {
		return nil, err
	}

	trailer, err := variable.ParseTrailer(trailerBuf)
	if err != nil {
		return nil, err
	}

	rootBuf := make([]byte, trailer.RootSize)
	if _, err := b.ReadAt(rootBuf, int64(trailer.RootOffset)); err != nil && err != io.EOF {
		return nil, err
	}

	root, err := variable.Parse(rootBuf)
	if err != nil {
		return nil, err
	}

	return &File{b: b, version: v, root: root}, nil
}

// RootVariable returns the root of the metadata DAG (for a legacy file,
// a synthetic array Variable covering the whole file).
func (f *File) RootVariable() variable.Variable { return f.root }

// IsLegacy reports whether f was opened from a legacy (v1/v2) file.
func (f *File) IsLegacy() bool { return f.version.IsLegacy() }

// Children resolves v's children table into parsed Variables, reading
// each child's descriptor bytes from the backend on demand. Legacy files
// have no children table: a legacy root always reports zero children.
func (f *File) Children(ctx context.Context, v variable.Variable) ([]variable.Variable, error) {
	out := make([]variable.Variable, 0, v.NumChildren())
	for i := 0; i < v.NumChildren(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		off, size := v.Child(i)
		buf := make([]byte, size)
		if _, err := f.b.ReadAt(buf, int64(off)); err != nil && err != io.EOF {
			return nil, err
		}

		child, err := variable.Parse(buf)
		if err != nil {
			return nil, err
		}

		out = append(out, child)
	}

	return out, nil
}

// FindChild resolves v's children and returns the first one named name.
// Resolved children are memoized per File, keyed by the xxHash64 of
// (parent name, child name), so repeated lookups of the same named child
// skip re-walking the children table and re-parsing its descriptor bytes.
func (f *File) FindChild(ctx context.Context, v variable.Variable, name string) (variable.Variable, bool, error) {
	key := hash.ID(v.Name() + "\x00" + name)

	if f.namedCache != nil {
		if cached, ok := f.namedCache[key]; ok && cached.Name() == name {
			return cached, true, nil
		}
	}

	children, err := f.Children(ctx, v)
	if err != nil {
		return variable.Variable{}, false, err
	}

	for _, c := range children {
		if c.Name() != name {
			continue
		}

		if f.namedCache == nil {
			f.namedCache = make(map[uint64]variable.Variable)
		}
		f.namedCache[key] = c

		return c, true, nil
	}

	return variable.Variable{}, false, nil
}
