package bus

import "fmt"

// Region is a single named, permission-tagged span of memory within a
// MemoryMap, the Cortex-M analogue of the teacher's code/data/heap/stack
// memory segments (vm/memory.go): flash is read/execute only, RAM is
// read/write.
type Region struct {
	Name     string
	Start    uint32
	Data     []byte
	Writable bool
}

// MemoryMap dispatches 8/16/32-bit accesses across a small set of
// disjoint regions, for a CLI that maps a flash region and a RAM region at
// their own (non-contiguous) base addresses rather than forcing the whole
// address range between them into one allocation, per config.Config's
// separate flash_base/ram_base settings (SPEC_FULL.md §4.9).
type MemoryMap struct {
	Regions []*Region
}

// NewMemoryMap builds a MemoryMap with a flash region (read/execute, not
// writable) and a RAM region (read/write), matching the two config.Config
// memory settings.
func NewMemoryMap(flashBase, flashSize, ramBase, ramSize uint32) *MemoryMap {
	return &MemoryMap{
		Regions: []*Region{
			{Name: "flash", Start: flashBase, Data: make([]byte, flashSize), Writable: false},
			{Name: "ram", Start: ramBase, Data: make([]byte, ramSize), Writable: true},
		},
	}
}

func (m *MemoryMap) find(addr uint32, size uint32) (*Region, uint32, error) {
	for _, r := range m.Regions {
		if addr < r.Start {
			continue
		}
		off := addr - r.Start
		if uint64(off)+uint64(size) <= uint64(len(r.Data)) {
			return r, off, nil
		}
	}
	return nil, 0, fmt.Errorf("bus: address 0x%08X not mapped (size %d)", addr, size)
}

// LoadBytes copies data into whichever region contains addr, bypassing the
// Writable check: installing a firmware image into flash is a loader-time
// operation, not a guest STR instruction, and flash is deliberately
// read/execute-only against the latter.
func (m *MemoryMap) LoadBytes(addr uint32, data []byte) error {
	for i, v := range data {
		r, off, err := m.find(addr+uint32(i), 1)
		if err != nil {
			return fmt.Errorf("loading byte %d: %w", i, err)
		}
		r.Data[off] = v
	}
	return nil
}

func (m *MemoryMap) Read8(addr uint32) (uint8, error) {
	r, off, err := m.find(addr, 1)
	if err != nil {
		return 0, err
	}
	return r.Data[off], nil
}

func (m *MemoryMap) Write8(addr uint32, v uint8) error {
	r, off, err := m.find(addr, 1)
	if err != nil {
		return err
	}
	if !r.Writable {
		return fmt.Errorf("bus: region %q is not writable (address 0x%08X)", r.Name, addr)
	}
	r.Data[off] = v
	return nil
}

func (m *MemoryMap) Read16(addr uint32) (uint16, error) {
	r, off, err := m.find(addr, 2)
	if err != nil {
		return 0, err
	}
	return uint16(r.Data[off]) | uint16(r.Data[off+1])<<8, nil
}

func (m *MemoryMap) Write16(addr uint32, v uint16) error {
	r, off, err := m.find(addr, 2)
	if err != nil {
		return err
	}
	if !r.Writable {
		return fmt.Errorf("bus: region %q is not writable (address 0x%08X)", r.Name, addr)
	}
	r.Data[off] = byte(v)
	r.Data[off+1] = byte(v >> 8)
	return nil
}

func (m *MemoryMap) Read32(addr uint32) (uint32, error) {
	r, off, err := m.find(addr, 4)
	if err != nil {
		return 0, err
	}
	return uint32(r.Data[off]) |
		uint32(r.Data[off+1])<<8 |
		uint32(r.Data[off+2])<<16 |
		uint32(r.Data[off+3])<<24, nil
}

func (m *MemoryMap) Write32(addr uint32, v uint32) error {
	r, off, err := m.find(addr, 4)
	if err != nil {
		return err
	}
	if !r.Writable {
		return fmt.Errorf("bus: region %q is not writable (address 0x%08X)", r.Name, addr)
	}
	r.Data[off] = byte(v)
	r.Data[off+1] = byte(v >> 8)
	r.Data[off+2] = byte(v >> 16)
	r.Data[off+3] = byte(v >> 24)
	return nil
}
