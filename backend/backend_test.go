package backend_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omfile/omfile/backend"
)

func TestMemBackendReadAt(t *testing.T) {
	b := backend.NewMemBackend([]byte("hello world"))

	buf := make([]byte, 5)
	n, err := b.ReadAt(buf, 6)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "world", string(buf))
	require.Equal(t, 11, b.Len())
}

func TestMemBackendReadAtShortEOF(t *testing.T) {
	b := backend.NewMemBackend([]byte("abc"))

	buf := make([]byte, 5)
	n, err := b.ReadAt(buf, 1)
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, 2, n)
}

func TestMemBackendReadAtPastEnd(t *testing.T) {
	b := backend.NewMemBackend([]byte("abc"))

	buf := make([]byte, 1)
	_, err := b.ReadAt(buf, 10)
	require.ErrorIs(t, err, io.EOF)
}

func TestMemWriterBackendAccumulates(t *testing.T) {
	w := backend.NewMemWriterBackend()

	n, err := w.Write([]byte("abc"))
	require.NoError(t, err)
	require.Equal(t, 3, n)

	n, err = w.Write([]byte("def"))
	require.NoError(t, err)
	require.Equal(t, 3, n)

	require.Equal(t, "abcdef", string(w.Bytes()))
	require.NoError(t, w.Close())
}

func TestFileBackendRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")

	wb, err := backend.CreateFileBackend(path)
	require.NoError(t, err)
	_, err = wb.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	rb, err := backend.OpenFileBackend(path)
	require.NoError(t, err)
	defer rb.Close()

	buf := make([]byte, 7)
	n, err := rb.ReadAt(buf, 0)
	require.NoError(t, err)
	require.Equal(t, 7, n)
	require.Equal(t, "payload", string(buf))
}

func TestOpenFileBackendMissing(t *testing.T) {
	_, err := backend.OpenFileBackend(filepath.Join(t.TempDir(), "does-not-exist"))
	require.True(t, os.IsNotExist(err))
}
