package loader

import (
	"testing"

	"github.com/lookbusy1344/cortexm-core/bus"
	"github.com/lookbusy1344/cortexm-core/exception"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func word(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func TestLoadFlatReadsInitialMSPAndPC(t *testing.T) {
	b := bus.NewFlatBus(0, 0x1000)
	image := append(word(0x20001000), word(0x00000201)...)
	image = append(image, 0xAA, 0xBB) // trailing code bytes

	msp, pc, err := LoadFlat(b, 0, image)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x20001000), msp)
	assert.Equal(t, uint32(0x00000201), pc)

	got, err := b.Read8(8)
	require.NoError(t, err)
	assert.Equal(t, uint8(0xAA), got)
}

func TestLoadFlatTooSmall(t *testing.T) {
	b := bus.NewFlatBus(0, 0x1000)
	_, _, err := LoadFlat(b, 0, Image{0x01, 0x02, 0x03})
	assert.Error(t, err)
}

func TestLoadFlatBusWriteFailure(t *testing.T) {
	b := bus.NewFlatBus(0, 4) // too small to hold an 8-byte image
	image := append(word(0x20001000), word(0x201)...)
	_, _, err := LoadFlat(b, 0, image)
	assert.Error(t, err)
}

func TestLoadVectorTableHappyPath(t *testing.T) {
	b := bus.NewFlatBus(0, 0x1000)
	entries := make([]byte, vectorTableEntries*4)
	setEntry := func(i int, v uint32) {
		copy(entries[i*4:], word(v))
	}
	setEntry(0, 0x20001000) // initial MSP
	setEntry(1, 0x00000201) // reset PC
	setEntry(int(exception.SVCall.IPSR()), 0x00000401)

	table, err := LoadVectorTable(b, 0, entries)
	require.NoError(t, err)

	addr, ok := table.HandlerFor(exception.SVCall)
	assert.True(t, ok)
	assert.Equal(t, uint32(0x00000401), addr)
}

func TestLoadVectorTableUnpopulatedSlotNotOK(t *testing.T) {
	b := bus.NewFlatBus(0, 0x1000)
	entries := make([]byte, vectorTableEntries*4)

	table, err := LoadVectorTable(b, 0, entries)
	require.NoError(t, err)

	addr, ok := table.HandlerFor(exception.SVCall)
	assert.False(t, ok)
	assert.Equal(t, uint32(0), addr)
}

func TestLoadVectorTableTooSmall(t *testing.T) {
	b := bus.NewFlatBus(0, 0x1000)
	_, err := LoadVectorTable(b, 0, Image{0x00, 0x01})
	assert.Error(t, err)
}
