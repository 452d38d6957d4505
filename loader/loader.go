// Package loader installs a flat Cortex-M firmware image onto a bus.Bus and
// reads the initial (MSP, PC) pair from its vector table, per SPEC_FULL.md
// §4.8. It is ambient tooling the core runs under, not part of the core's
// own contract — the teacher's ELF/assembly loader has no analogue here
// since this repository's inputs are already-encoded firmware images.
package loader

import (
	"fmt"

	"github.com/lookbusy1344/cortexm-core/bus"
	"github.com/lookbusy1344/cortexm-core/exception"
)

// vectorTableEntries is the number of 32-bit slots ARMv6-M's documented
// vector table occupies: MSP, Reset, NMI, HardFault, 7 reserved, SVCall,
// 2 reserved, PendSV, SysTick (indices 0..15, matching exception.Number's
// IPSR encoding).
const vectorTableEntries = 16

// Memory is the load target: a bus.Bus plus the LoadBytes convenience both
// bus.FlatBus and bus.MemoryMap provide, so the loader works unchanged
// whether the caller maps one contiguous region or a flash/RAM pair.
type Memory interface {
	bus.Bus
	LoadBytes(addr uint32, data []byte) error
}

// Image is a flat firmware image: a byte slice meant to be loaded starting
// at a bus's base address, vector table first.
type Image []byte

// LoadFlat copies image onto b starting at base, and returns the initial
// (msp, pc) pair read from the image's first two words (offset 0 = initial
// MSP, offset 4 = initial reset PC), per the ARMv6-M reset convention. The
// reset PC's Thumb bit (bit 0) is not cleared here — cpu.Core.Reset/SetPC
// callers are expected to go through BxWritePC-style handling if they care;
// LoadFlat itself only moves bytes and reads two words.
func LoadFlat(b Memory, base uint32, image Image) (msp, pc uint32, err error) {
	if len(image) < 8 {
		return 0, 0, fmt.Errorf("loader: image too small for a vector table (%d bytes, need at least 8)", len(image))
	}
	if err := b.LoadBytes(base, image); err != nil {
		return 0, 0, fmt.Errorf("loader: writing image at 0x%08X: %w", base, err)
	}
	msp, err = b.Read32(base)
	if err != nil {
		return 0, 0, fmt.Errorf("loader: reading initial MSP: %w", err)
	}
	pc, err = b.Read32(base + 4)
	if err != nil {
		return 0, 0, fmt.Errorf("loader: reading initial PC: %w", err)
	}
	return msp, pc, nil
}

// VectorTable is the parsed 16-entry exception vector table: index i holds
// the handler address for exception.FromIPSR(uint8(i)), or 0 for a slot the
// image leaves unpopulated.
type VectorTable [vectorTableEntries]uint32

// LoadVectorTable behaves like LoadFlat but also parses the full 16-entry
// vector table (not just MSP/reset-PC), for callers that want to prime
// NMI/HardFault/SVCall/PendSV/SysTick handler addresses as well — e.g. a
// debugger front end that wants to show "SVCall -> 0x08000142" before the
// guest ever calls SVC.
func LoadVectorTable(b Memory, base uint32, image Image) (VectorTable, error) {
	var table VectorTable
	if len(image) < vectorTableEntries*4 {
		return table, fmt.Errorf("loader: image too small for a full vector table (%d bytes, need at least %d)",
			len(image), vectorTableEntries*4)
	}
	if err := b.LoadBytes(base, image); err != nil {
		return table, fmt.Errorf("loader: writing image at 0x%08X: %w", base, err)
	}
	for i := 0; i < vectorTableEntries; i++ {
		v, err := b.Read32(base + uint32(i)*4)
		if err != nil {
			return table, fmt.Errorf("loader: reading vector table entry %d (%s): %w", i, exception.FromIPSR(uint8(i)), err)
		}
		table[i] = v
	}
	return table, nil
}

// HandlerFor returns the handler address vectorTable records for n, and
// whether that slot was populated (nonzero) by the image.
func (vt VectorTable) HandlerFor(n exception.Number) (addr uint32, ok bool) {
	i := n.IPSR()
	if int(i) >= len(vt) {
		return 0, false
	}
	v := vt[i]
	return v, v != 0
}
