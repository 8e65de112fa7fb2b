package omfile_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omfile/omfile/backend"
	"github.com/omfile/omfile/compress"
	"github.com/omfile/omfile/format"
	"github.com/omfile/omfile/omfile"
)

func TestWriterAttributeRoundTripsThroughGroup(t *testing.T) {
	dims := []uint64{3, 3}
	chunks := []uint64{2, 2}
	source := iota2D(dims)

	wb := backend.NewMemWriterBackend()
	w, err := omfile.NewWriter(wb, omfile.WithMetadataCompression(compress.TagS2))
	require.NoError(t, err)

	require.NoError(t, w.WriteArray(omfile.ArraySpec{
		Name:        "temperature",
		Dims:        dims,
		Chunks:      chunks,
		Compression: format.CompressionNone,
		DataType:    format.DataTypeDouble,
	}, source))
	require.NoError(t, w.WriteAttribute("units", "degC"))
	require.NoError(t, w.WriteAttribute("long_name", "2m air temperature"))
	require.NoError(t, w.Close())

	f, err := omfile.Open(backend.NewMemBackend(wb.Bytes()))
	require.NoError(t, err)

	root := f.RootVariable()
	require.False(t, root.IsArray())
	require.False(t, root.IsString())
	require.Equal(t, 3, root.NumChildren())

	ctx := context.Background()

	arrayChild, ok, err := f.FindChild(ctx, root, "temperature")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, arrayChild.IsArray())

	unitsChild, ok, err := f.FindChild(ctx, root, "units")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, unitsChild.IsString())

	value, err := unitsChild.StringValue()
	require.NoError(t, err)
	require.Equal(t, "degC", string(value))

	longName, ok, err := f.FindChild(ctx, root, "long_name")
	require.NoError(t, err)
	require.True(t, ok)

	longValue, err := longName.StringValue()
	require.NoError(t, err)
	require.Equal(t, "2m air temperature", string(longValue))

	ar, err := f.NewArrayReader(arrayChild)
	require.NoError(t, err)

	cube := omfile.NewCube(dims)
	require.NoError(t, ar.ReadInto(ctx, []uint64{0, 0}, dims, cube))
	require.Equal(t, source, cube.Data)
}

func TestWriterAttributeWithoutGroupWrapping(t *testing.T) {
	dims := []uint64{2, 2}
	chunks := []uint64{2, 2}
	source := iota2D(dims)

	raw := writeArray(t, omfile.ArraySpec{
		Name:        "only_array",
		Dims:        dims,
		Chunks:      chunks,
		Compression: format.CompressionNone,
		DataType:    format.DataTypeDouble,
	}, source)

	f, err := omfile.Open(backend.NewMemBackend(raw))
	require.NoError(t, err)

	// No attribute was ever written, so the trailer points straight at the
	// array: no group wrapper layer.
	root := f.RootVariable()
	require.True(t, root.IsArray())
	require.Equal(t, "only_array", root.Name())
}
