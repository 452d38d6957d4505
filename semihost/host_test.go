package semihost

import (
	"testing"

	"github.com/lookbusy1344/cortexm-core/bus"
	"github.com/lookbusy1344/cortexm-core/cpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCall(t *testing.T, op uint32, argBlockAddr uint32, args []uint32) (*cpu.Core, *bus.FlatBus) {
	t.Helper()
	b := bus.NewFlatBus(0, 0x1000)
	c := cpu.NewCore()
	c.SetR(cpu.R0, op)
	c.SetR(cpu.R1, argBlockAddr)
	for i, v := range args {
		require.NoError(t, b.Write32(argBlockAddr+uint32(i)*4, v))
	}
	return c, b
}

func TestHostWrite0(t *testing.T) {
	b := bus.NewFlatBus(0, 0x1000)
	c := cpu.NewCore()
	msg := "hi\x00"
	require.NoError(t, b.LoadBytes(0x100, []byte(msg)))
	c.SetR(cpu.R0, SysWrite0)
	c.SetR(cpu.R1, 0x100)

	h := NewHost()
	require.NoError(t, h.Handle(c, b))
}

func TestHostTimeSetsR0(t *testing.T) {
	b := bus.NewFlatBus(0, 0x1000)
	c := cpu.NewCore()
	c.SetR(cpu.R0, SysTime)
	h := NewHost()
	require.NoError(t, h.Handle(c, b))
	assert.NotEqual(t, uint32(0), c.GetR(cpu.R0))
}

func TestHostOpenCloseRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/out.txt"
	c, b := setupCall(t, SysOpen, 0x200, nil)
	require.NoError(t, b.LoadBytes(0x300, append([]byte(path), 0)))
	require.NoError(t, b.Write32(0x200, 0x300))       // name pointer
	require.NoError(t, b.Write32(0x204, 4))            // mode "w"
	require.NoError(t, b.Write32(0x208, uint32(len(path))))

	h := NewHost()
	require.NoError(t, h.Handle(c, b))
	handle := c.GetR(cpu.R0)
	assert.NotEqual(t, uint32(0xFFFFFFFF), handle)

	// SYS_WRITE a few bytes to it.
	payload := []byte("hello")
	require.NoError(t, b.LoadBytes(0x400, payload))
	c.SetR(cpu.R0, SysWrite)
	require.NoError(t, b.Write32(0x200, handle))
	require.NoError(t, b.Write32(0x204, 0x400))
	require.NoError(t, b.Write32(0x208, uint32(len(payload))))
	require.NoError(t, h.Handle(c, b))
	assert.Equal(t, uint32(0), c.GetR(cpu.R0)) // 0 bytes NOT written

	c.SetR(cpu.R0, SysClose)
	require.NoError(t, b.Write32(0x200, handle))
	require.NoError(t, h.Handle(c, b))
	assert.Equal(t, uint32(0), c.GetR(cpu.R0))
}

func TestHostExitRecordsCode(t *testing.T) {
	c, b := setupCall(t, SysExit, 0x200, []uint32{adpStoppedApplicationExit, 7})
	h := NewHost()
	require.NoError(t, h.Handle(c, b))
	assert.True(t, h.Exited())
	assert.Equal(t, int32(7), h.ExitCode())
}

func TestHostInvalidHandleIsABIFailureNotFault(t *testing.T) {
	c, b := setupCall(t, SysClose, 0x200, []uint32{99})
	h := NewHost()
	err := h.Handle(c, b)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xFFFFFFFF), c.GetR(cpu.R0))
}

func TestHostArgBlockBusFaultPropagates(t *testing.T) {
	b := bus.NewFlatBus(0x1000, 0x10) // base 0x1000, pointer below base faults
	c := cpu.NewCore()
	c.SetR(cpu.R0, SysClose)
	c.SetR(cpu.R1, 0)
	h := NewHost()
	assert.Error(t, h.Handle(c, b))
}
