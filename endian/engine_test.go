package endian_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omfile/omfile/endian"
)

func TestLEPutAndReadUint16(t *testing.T) {
	buf := make([]byte, 2)
	endian.LE.PutUint16(buf, 0x0102)
	require.Equal(t, byte(0x02), buf[0])
	require.Equal(t, byte(0x01), buf[1])
	require.Equal(t, uint16(0x0102), endian.LE.Uint16(buf))
}

func TestLEPutAndReadUint32(t *testing.T) {
	buf := make([]byte, 4)
	endian.LE.PutUint32(buf, 0x01020304)
	require.Equal(t, uint32(0x01020304), endian.LE.Uint32(buf))
}

func TestLEPutAndReadUint64(t *testing.T) {
	buf := make([]byte, 8)
	endian.LE.PutUint64(buf, 0x0102030405060708)
	require.Equal(t, uint64(0x0102030405060708), endian.LE.Uint64(buf))
}

func TestLEAppendUint64(t *testing.T) {
	var buf []byte
	buf = endian.LE.AppendUint64(buf, 42)
	require.Equal(t, uint64(42), endian.LE.Uint64(buf))
}
