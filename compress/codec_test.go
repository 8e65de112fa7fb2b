package compress_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omfile/omfile/compress"
)

func TestCodecRoundTrip(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog, repeated: " +
		"the quick brown fox jumps over the lazy dog")

	for _, tag := range []compress.Tag{compress.TagNone, compress.TagS2, compress.TagLZ4, compress.TagZstd} {
		t.Run(tag.String(), func(t *testing.T) {
			codec, err := compress.ForTag(tag)
			require.NoError(t, err)

			compressed, err := codec.Compress(data)
			require.NoError(t, err)

			decompressed, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Equal(t, data, decompressed)
		})
	}
}

func TestCodecRoundTripEmpty(t *testing.T) {
	for _, tag := range []compress.Tag{compress.TagNone, compress.TagS2, compress.TagLZ4, compress.TagZstd} {
		codec, err := compress.ForTag(tag)
		require.NoError(t, err)

		compressed, err := codec.Compress(nil)
		require.NoError(t, err)

		decompressed, err := codec.Decompress(compressed)
		require.NoError(t, err)
		require.Empty(t, decompressed)
	}
}

func TestTaggedRoundTrip(t *testing.T) {
	data := []byte("some metadata attribute value")

	for _, tag := range []compress.Tag{compress.TagNone, compress.TagS2, compress.TagLZ4, compress.TagZstd} {
		encoded, err := compress.EncodeTagged(tag, data)
		require.NoError(t, err)
		require.Equal(t, byte(tag), encoded[0])

		decoded, err := compress.DecodeTagged(encoded)
		require.NoError(t, err)
		require.Equal(t, data, decoded)
	}
}

func TestForTagUnknown(t *testing.T) {
	_, err := compress.ForTag(compress.Tag(99))
	require.Error(t, err)
}
