// Package bus defines the abstract memory interface the executor observes
// and mutates memory through (spec.md §4.3), plus FlatBus, a simple
// byte-slice-backed implementation used by tests, and MemoryMap, the
// flash/RAM region map the CLI uses.
// The core never examines memory through any other channel.
package bus

import "fmt"

// Bus is the polymorphic 8/16/32-bit load/store surface the executor is
// handed for the duration of a single Step call. Implementations must be
// little-endian for 16/32-bit accesses and deterministic; invalid addresses
// return an error (the executor turns that into exception.FaultBusError).
type Bus interface {
	Read8(addr uint32) (uint8, error)
	Read16(addr uint32) (uint16, error)
	Read32(addr uint32) (uint32, error)
	Write8(addr uint32, v uint8) error
	Write16(addr uint32, v uint16) error
	Write32(addr uint32, v uint32) error
}

// FlatBus is a single contiguous little-endian memory region starting at
// Base. It is deliberately simpler than a real peripheral map (no
// permissions, no MMIO regions) — those belong to the concrete bus
// implementation backing a real emulator, which spec.md §1 places outside
// the core's scope; FlatBus exists only so the core has something to run
// against in tests.
type FlatBus struct {
	Base uint32
	Data []byte
}

// NewFlatBus allocates a FlatBus of the given size starting at base.
func NewFlatBus(base uint32, size int) *FlatBus {
	return &FlatBus{Base: base, Data: make([]byte, size)}
}

func (b *FlatBus) offset(addr uint32, size uint32) (uint32, error) {
	if addr < b.Base {
		return 0, fmt.Errorf("bus: address 0x%08X below base 0x%08X", addr, b.Base)
	}
	off := addr - b.Base
	if uint64(off)+uint64(size) > uint64(len(b.Data)) {
		return 0, fmt.Errorf("bus: address 0x%08X out of range (size %d)", addr, len(b.Data))
	}
	return off, nil
}

// Read8 reads a single byte; byte accesses have no alignment requirement.
func (b *FlatBus) Read8(addr uint32) (uint8, error) {
	off, err := b.offset(addr, 1)
	if err != nil {
		return 0, err
	}
	return b.Data[off], nil
}

// Write8 writes a single byte.
func (b *FlatBus) Write8(addr uint32, v uint8) error {
	off, err := b.offset(addr, 1)
	if err != nil {
		return err
	}
	b.Data[off] = v
	return nil
}

// Read16 reads a little-endian halfword. The caller (executor) is
// responsible for rejecting unaligned halfword addresses per spec.md §4.3;
// FlatBus itself only enforces bounds, matching the "bus is opaque,
// alignment is the encoding's concern" split in spec.md.
func (b *FlatBus) Read16(addr uint32) (uint16, error) {
	off, err := b.offset(addr, 2)
	if err != nil {
		return 0, err
	}
	return uint16(b.Data[off]) | uint16(b.Data[off+1])<<8, nil
}

// Write16 writes a little-endian halfword.
func (b *FlatBus) Write16(addr uint32, v uint16) error {
	off, err := b.offset(addr, 2)
	if err != nil {
		return err
	}
	b.Data[off] = byte(v)
	b.Data[off+1] = byte(v >> 8)
	return nil
}

// Read32 reads a little-endian word.
func (b *FlatBus) Read32(addr uint32) (uint32, error) {
	off, err := b.offset(addr, 4)
	if err != nil {
		return 0, err
	}
	return uint32(b.Data[off]) |
		uint32(b.Data[off+1])<<8 |
		uint32(b.Data[off+2])<<16 |
		uint32(b.Data[off+3])<<24, nil
}

// Write32 writes a little-endian word.
func (b *FlatBus) Write32(addr uint32, v uint32) error {
	off, err := b.offset(addr, 4)
	if err != nil {
		return err
	}
	b.Data[off] = byte(v)
	b.Data[off+1] = byte(v >> 8)
	b.Data[off+2] = byte(v >> 16)
	b.Data[off+3] = byte(v >> 24)
	return nil
}

// LoadBytes copies data into the bus starting at addr, as a convenience for
// the loader and for tests that seed a program image.
func (b *FlatBus) LoadBytes(addr uint32, data []byte) error {
	for i, v := range data {
		if err := b.Write8(addr+uint32(i), v); err != nil {
			return fmt.Errorf("loading byte %d: %w", i, err)
		}
	}
	return nil
}
