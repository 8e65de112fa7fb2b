package chunkcodec_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omfile/omfile/chunkcodec"
	"github.com/omfile/omfile/format"
)

func TestRoundTripPFor16Delta2D(t *testing.T) {
	rows, cols := 5, 5
	values := []float64{
		0, 1, 2, 3, 4,
		5, 6, 7, 8, 9,
		10, 11, 12, 13, 14,
		15, 16, 17, 18, 19,
		20, 21, 22, 23, 24,
	}

	p := chunkcodec.Params{DataType: format.DataTypeFloat, Compression: format.CompressionPFor16BitDelta2D, Scale: 20.0}

	data, err := chunkcodec.EncodeChunk(p, rows, cols, values)
	require.NoError(t, err)

	decoded, err := chunkcodec.DecodeChunk(p, rows, cols, data)
	require.NoError(t, err)

	for i, v := range values {
		require.InDelta(t, v, decoded[i], 1.0/(2*20.0))
	}
}

func TestRoundTripPFor16Delta2DWithNaN(t *testing.T) {
	rows, cols := 3, 3
	values := []float64{1, 2, math.NaN(), 4, 5, 6, 7, 8, 9}

	p := chunkcodec.Params{Compression: format.CompressionPFor16BitDelta2D, Scale: 10.0}

	data, err := chunkcodec.EncodeChunk(p, rows, cols, values)
	require.NoError(t, err)

	decoded, err := chunkcodec.DecodeChunk(p, rows, cols, data)
	require.NoError(t, err)

	require.True(t, math.IsNaN(decoded[2]))
}

func TestRoundTripPFor16Logarithmic(t *testing.T) {
	rows, cols := 4, 4
	values := make([]float64, rows*cols)
	rng := rand.New(rand.NewSource(7))
	for i := range values {
		values[i] = rng.Float64() * 100
	}

	p := chunkcodec.Params{Compression: format.CompressionPFor16BitDelta2DLogarithmic, Scale: 1000.0}

	data, err := chunkcodec.EncodeChunk(p, rows, cols, values)
	require.NoError(t, err)

	decoded, err := chunkcodec.DecodeChunk(p, rows, cols, data)
	require.NoError(t, err)

	for i, v := range values {
		require.InDelta(t, math.Log10(1+v), math.Log10(1+decoded[i]), 1.0/(2*1000.0)+1e-9)
	}
}

func TestRoundTripFPXXor2DFloat32(t *testing.T) {
	rows, cols := 16, 8
	values := make([]float64, rows*cols)
	rng := rand.New(rand.NewSource(99))
	for i := range values {
		values[i] = float64(float32(rng.NormFloat64()))
	}

	p := chunkcodec.Params{DataType: format.DataTypeFloat, Compression: format.CompressionFPXXor2D}

	data, err := chunkcodec.EncodeChunk(p, rows, cols, values)
	require.NoError(t, err)

	decoded, err := chunkcodec.DecodeChunk(p, rows, cols, data)
	require.NoError(t, err)
	require.Equal(t, values, decoded)
}

func TestRoundTripFPXXor2DMultiBlockFloat64(t *testing.T) {
	// rows*cols exceeds floatcodec.BlockSize (128) so the block loop
	// must span multiple fpxenc/PFor blocks within one chunk.
	rows, cols := 20, 20
	values := make([]float64, rows*cols)
	rng := rand.New(rand.NewSource(100))
	for i := range values {
		values[i] = rng.NormFloat64()
	}

	p := chunkcodec.Params{DataType: format.DataTypeDouble, Compression: format.CompressionFPXXor2D}

	data, err := chunkcodec.EncodeChunk(p, rows, cols, values)
	require.NoError(t, err)

	decoded, err := chunkcodec.DecodeChunk(p, rows, cols, data)
	require.NoError(t, err)
	require.Equal(t, values, decoded)
}

func TestRoundTripNone(t *testing.T) {
	values := []float64{1.5, -2.25, 0, math.Pi, 1e10}

	p := chunkcodec.Params{Compression: format.CompressionNone}

	data, err := chunkcodec.EncodeChunk(p, 1, len(values), values)
	require.NoError(t, err)

	decoded, err := chunkcodec.DecodeChunk(p, 1, len(values), data)
	require.NoError(t, err)
	require.Equal(t, values, decoded)
}

func TestInvalidCompressionType(t *testing.T) {
	p := chunkcodec.Params{Compression: format.CompressionType(99)}
	_, err := chunkcodec.EncodeChunk(p, 1, 1, []float64{0})
	require.ErrorIs(t, err, format.ErrInvalidCompressionType)

	_, err = chunkcodec.DecodeChunk(p, 1, 1, nil)
	require.ErrorIs(t, err, format.ErrInvalidCompressionType)
}
