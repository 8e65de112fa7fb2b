package omfile_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omfile/omfile/backend"
	"github.com/omfile/omfile/format"
	"github.com/omfile/omfile/omfile"
	"github.com/omfile/omfile/variable"
)

func buildGroupFile(t *testing.T) []byte {
	t.Helper()

	childA := variable.EncodeArrayDescriptor(variable.ArrayDescriptor{
		DataType:    format.DataTypeFloatArray,
		Compression: format.CompressionNone,
		Name:        "lat",
		Dims:        []uint64{2},
		Chunks:      []uint64{2},
	})
	childB := variable.EncodeArrayDescriptor(variable.ArrayDescriptor{
		DataType:    format.DataTypeDoubleArray,
		Compression: format.CompressionNone,
		Name:        "lon",
		Dims:        []uint64{3},
		Chunks:      []uint64{3},
	})

	buf := append([]byte{}, variable.EncodeV3Header()...)

	childAOff := uint32(len(buf))
	buf = append(buf, childA...)

	childBOff := uint32(len(buf))
	buf = append(buf, childB...)

	parent := variable.EncodeGroupDescriptor(
		"root",
		[]uint32{uint32(len(childA)), uint32(len(childB))},
		[]uint32{childAOff, childBOff},
	)
	parentOff := uint64(len(buf))
	buf = append(buf, parent...)

	buf = append(buf, variable.EncodeTrailer(parentOff, uint64(len(parent)))...)

	return buf
}

func TestFileChildrenResolvesDescriptors(t *testing.T) {
	f, err := omfile.Open(backend.NewMemBackend(buildGroupFile(t)))
	require.NoError(t, err)

	root := f.RootVariable()
	require.False(t, root.IsArray())
	require.Equal(t, "root", root.Name())
	require.Equal(t, 2, root.NumChildren())

	children, err := f.Children(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, children, 2)

	names := []string{children[0].Name(), children[1].Name()}
	require.ElementsMatch(t, []string{"lat", "lon"}, names)
}

func TestFileFindChildByName(t *testing.T) {
	f, err := omfile.Open(backend.NewMemBackend(buildGroupFile(t)))
	require.NoError(t, err)

	root := f.RootVariable()

	lon, ok, err := f.FindChild(context.Background(), root, "lon")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, lon.IsArray())
	require.Equal(t, []uint64{3}, lon.Dims)

	// Second lookup hits the per-File memoized cache rather than
	// re-walking the children table.
	lonAgain, ok, err := f.FindChild(context.Background(), root, "lon")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, lon.Dims, lonAgain.Dims)

	_, ok, err = f.FindChild(context.Background(), root, "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFileOpenRejectsBadMagic(t *testing.T) {
	_, err := omfile.Open(backend.NewMemBackend([]byte("xyz")))
	require.ErrorIs(t, err, format.ErrNotAnOmFile)
}

func TestFileOpenRejectsTruncatedV3Trailer(t *testing.T) {
	buf := append([]byte{}, variable.EncodeV3Header()...)
	buf = append(buf, make([]byte, 10)...)

	_, err := omfile.Open(backend.NewMemBackend(buf))
	require.ErrorIs(t, err, format.ErrInvalidHeaderSize)
}

func TestNewArrayReaderRejectsNonArray(t *testing.T) {
	f, err := omfile.Open(backend.NewMemBackend(buildGroupFile(t)))
	require.NoError(t, err)

	_, err = f.NewArrayReader(f.RootVariable())
	require.ErrorIs(t, err, format.ErrInvalidDataType)
}

func TestReaderOptionsOverrideDefaults(t *testing.T) {
	raw := writeArray(t, omfile.ArraySpec{
		Dims:        []uint64{4, 4},
		Chunks:      []uint64{2, 2},
		Compression: format.CompressionNone,
		DataType:    format.DataTypeDouble,
	}, iota2D([]uint64{4, 4}))

	f, err := omfile.Open(backend.NewMemBackend(raw))
	require.NoError(t, err)

	ar, err := f.NewArrayReader(f.RootVariable(), omfile.WithIOSizeMax(64), omfile.WithIOSizeMerge(0))
	require.NoError(t, err)

	cube := omfile.NewCube([]uint64{4, 4})
	require.NoError(t, ar.ReadInto(context.Background(), []uint64{0, 0}, []uint64{4, 4}, cube))
	require.Equal(t, iota2D([]uint64{4, 4}), cube.Data)
}
