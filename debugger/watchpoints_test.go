package debugger

import (
	"testing"

	"github.com/lookbusy1344/cortexm-core/bus"
	"github.com/lookbusy1344/cortexm-core/cpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchpointManager_AddWatchpoint(t *testing.T) {
	wm := NewWatchpointManager()

	wp := wm.AddWatchpoint(WatchWrite, "r0", 0, true, 0)

	require.NotNil(t, wp)
	assert.Equal(t, 1, wp.ID)
	assert.Equal(t, WatchWrite, wp.Type)
	assert.Equal(t, "r0", wp.Expression)
	assert.True(t, wp.IsRegister)
	assert.True(t, wp.Enabled)
	assert.Zero(t, wp.HitCount)
}

func TestWatchpointManager_AddMultiple(t *testing.T) {
	wm := NewWatchpointManager()

	wp1 := wm.AddWatchpoint(WatchWrite, "r0", 0, true, 0)
	wp2 := wm.AddWatchpoint(WatchRead, "[0x1000]", 0x1000, false, 0)

	assert.NotEqual(t, wp1.ID, wp2.ID)
	assert.Equal(t, 2, wm.Count())
}

func TestWatchpointManager_DeleteWatchpoint(t *testing.T) {
	wm := NewWatchpointManager()

	wp := wm.AddWatchpoint(WatchWrite, "r0", 0, true, 0)

	require.NoError(t, wm.DeleteWatchpoint(wp.ID))
	assert.Nil(t, wm.GetWatchpoint(wp.ID))
	assert.Error(t, wm.DeleteWatchpoint(999))
}

func TestWatchpointManager_EnableDisable(t *testing.T) {
	wm := NewWatchpointManager()

	wp := wm.AddWatchpoint(WatchWrite, "r0", 0, true, 0)

	require.NoError(t, wm.DisableWatchpoint(wp.ID))
	assert.False(t, wp.Enabled)

	require.NoError(t, wm.EnableWatchpoint(wp.ID))
	assert.True(t, wp.Enabled)
}

func TestWatchpointManager_CheckWatchpoints_Register(t *testing.T) {
	wm := NewWatchpointManager()
	core := cpu.NewCore()
	b := bus.NewFlatBus(0, 0x1000)

	wp := wm.AddWatchpoint(WatchWrite, "r0", 0, true, cpu.R0)

	core.SetR(cpu.R0, 100)
	require.NoError(t, wm.InitializeWatchpoint(wp.ID, core, b))
	assert.Equal(t, uint32(100), wp.LastValue)

	triggered, changed := wm.CheckWatchpoints(core, b)
	assert.Nil(t, triggered)
	assert.False(t, changed)

	core.SetR(cpu.R0, 200)
	triggered, changed = wm.CheckWatchpoints(core, b)
	require.NotNil(t, triggered)
	assert.True(t, changed)
	assert.Equal(t, wp.ID, triggered.ID)
	assert.Equal(t, 1, wp.HitCount)
	assert.Equal(t, uint32(200), wp.LastValue)
}

func TestWatchpointManager_CheckWatchpoints_Memory(t *testing.T) {
	wm := NewWatchpointManager()
	core := cpu.NewCore()
	b := bus.NewFlatBus(0, 0x1000)

	addr := uint32(0x100)

	wp := wm.AddWatchpoint(WatchWrite, "[0x100]", addr, false, 0)

	require.NoError(t, b.Write32(addr, 0x12345678))
	require.NoError(t, wm.InitializeWatchpoint(wp.ID, core, b))

	triggered, changed := wm.CheckWatchpoints(core, b)
	assert.Nil(t, triggered)
	assert.False(t, changed)

	require.NoError(t, b.Write32(addr, 0xABCDEF00))
	triggered, changed = wm.CheckWatchpoints(core, b)
	require.NotNil(t, triggered)
	assert.True(t, changed)
	assert.Equal(t, wp.ID, triggered.ID)
}

func TestWatchpointManager_Disabled(t *testing.T) {
	wm := NewWatchpointManager()
	core := cpu.NewCore()
	b := bus.NewFlatBus(0, 0x1000)

	wp := wm.AddWatchpoint(WatchWrite, "r0", 0, true, cpu.R0)
	require.NoError(t, wm.InitializeWatchpoint(wp.ID, core, b))
	require.NoError(t, wm.DisableWatchpoint(wp.ID))

	core.SetR(cpu.R0, 100)

	triggered, _ := wm.CheckWatchpoints(core, b)
	assert.Nil(t, triggered)
}

func TestWatchpointManager_GetAllWatchpoints(t *testing.T) {
	wm := NewWatchpointManager()

	wm.AddWatchpoint(WatchWrite, "r0", 0, true, 0)
	wm.AddWatchpoint(WatchRead, "r1", 0, true, 1)
	wm.AddWatchpoint(WatchReadWrite, "[0x1000]", 0x1000, false, 0)

	assert.Len(t, wm.GetAllWatchpoints(), 3)
}

func TestWatchpointManager_Clear(t *testing.T) {
	wm := NewWatchpointManager()

	wm.AddWatchpoint(WatchWrite, "r0", 0, true, 0)
	wm.AddWatchpoint(WatchRead, "r1", 0, true, 1)

	wm.Clear()

	assert.Zero(t, wm.Count())
}

func TestWatchpoint_Types(t *testing.T) {
	wm := NewWatchpointManager()

	wpWrite := wm.AddWatchpoint(WatchWrite, "r0", 0, true, 0)
	wpRead := wm.AddWatchpoint(WatchRead, "r1", 0, true, 1)
	wpAccess := wm.AddWatchpoint(WatchReadWrite, "r2", 0, true, 2)

	assert.Equal(t, WatchWrite, wpWrite.Type)
	assert.Equal(t, WatchRead, wpRead.Type)
	assert.Equal(t, WatchReadWrite, wpAccess.Type)
}
