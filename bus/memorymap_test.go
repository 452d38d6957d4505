package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryMapFlashAndRAM(t *testing.T) {
	m := NewMemoryMap(0, 0x1000, 0x20000000, 0x1000)

	require.NoError(t, m.LoadBytes(0, []byte{0xDE, 0xAD, 0xBE, 0xEF}))
	v, err := m.Read32(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xEFBEADDE), v)

	require.NoError(t, m.Write32(0x20000000, 0x12345678))
	v, err = m.Read32(0x20000000)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), v)
}

func TestMemoryMapFlashNotWritable(t *testing.T) {
	m := NewMemoryMap(0, 0x1000, 0x20000000, 0x1000)

	err := m.Write8(0, 0xFF)
	assert.Error(t, err)
}

func TestMemoryMapLoadBytesBypassesWritable(t *testing.T) {
	m := NewMemoryMap(0, 0x10, 0x20000000, 0x10)

	require.NoError(t, m.LoadBytes(0, []byte{1, 2, 3, 4}))
	v, err := m.Read8(2)
	require.NoError(t, err)
	assert.Equal(t, uint8(3), v)
}

func TestMemoryMapUnmappedAddress(t *testing.T) {
	m := NewMemoryMap(0, 0x1000, 0x20000000, 0x1000)

	_, err := m.Read8(0x10000000)
	assert.Error(t, err)
}

func TestMemoryMapOutOfRegionBounds(t *testing.T) {
	m := NewMemoryMap(0, 0x10, 0x20000000, 0x10)

	_, err := m.Read32(0x0D) // the last word fits at 0x0C; from 0x0D, 4 bytes overrun an 0x10 region
	assert.Error(t, err)
}
