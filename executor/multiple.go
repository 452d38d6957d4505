package executor

import (
	"github.com/lookbusy1344/cortexm-core/bus"
	"github.com/lookbusy1344/cortexm-core/cpu"
	"github.com/lookbusy1344/cortexm-core/decoder"
	"github.com/lookbusy1344/cortexm-core/exception"
)

// execLoadStoreMultiple covers LDM/STM/PUSH/POP, per spec.md §4.5: registers
// transfer in ascending register-number order starting at the lowest
// address. LDM suppresses base-register write-back when the base is itself
// in the register list (it has already been overwritten by the transfer);
// STM always writes back.
func execLoadStoreMultiple(core *cpu.Core, b bus.Bus, inst decoder.Instruction) Result {
	switch inst.Kind {
	case decoder.LDM:
		return loadMultiple(core, b, inst, inst.Rn, true)
	case decoder.STM:
		return storeMultiple(core, b, inst, inst.Rn, true)
	case decoder.PUSH:
		return pushMultiple(core, b, inst)
	case decoder.POP:
		return popMultiple(core, b, inst)
	default:
		return faulted(exception.FaultUndefinedInstruction)
	}
}

func regCount(rlist uint16) int {
	n := 0
	for i := 0; i < 16; i++ {
		if rlist&(1<<uint(i)) != 0 {
			n++
		}
	}
	return n
}

func loadMultiple(core *cpu.Core, b bus.Bus, inst decoder.Instruction, base int, wback bool) Result {
	addr := core.GetR(base)
	cycles := 1
	var lastPC uint32
	loadedPC := false
	for i := 0; i < 16; i++ {
		if inst.RegList&(1<<uint(i)) == 0 {
			continue
		}
		v, err := b.Read32(addr)
		if err != nil {
			return faulted(exception.FaultBusError)
		}
		if i == cpu.PC {
			lastPC = v
			loadedPC = true
		} else {
			core.SetR(i, v)
		}
		addr += 4
		cycles++
	}
	if wback && inst.RegList&(1<<uint(base)) == 0 {
		core.SetR(base, addr)
	}
	if loadedPC {
		core.LoadWritePC(lastPC)
		return branched(cycles)
	}
	return taken(cycles)
}

func storeMultiple(core *cpu.Core, b bus.Bus, inst decoder.Instruction, base int, wback bool) Result {
	addr := core.GetR(base)
	cycles := 1
	for i := 0; i < 16; i++ {
		if inst.RegList&(1<<uint(i)) == 0 {
			continue
		}
		if err := b.Write32(addr, core.GetR(i)); err != nil {
			return faulted(exception.FaultBusError)
		}
		addr += 4
		cycles++
	}
	if wback {
		core.SetR(base, addr)
	}
	return taken(cycles)
}

// pushMultiple decrements SP by the transfer size first, then stores in
// ascending register order starting at the new (lowest) SP, matching PUSH's
// "full descending" stack convention.
func pushMultiple(core *cpu.Core, b bus.Bus, inst decoder.Instruction) Result {
	n := regCount(inst.RegList)
	addr := core.GetR(cpu.SP) - uint32(n)*4
	cycles := 1
	for i := 0; i < 16; i++ {
		if inst.RegList&(1<<uint(i)) == 0 {
			continue
		}
		if err := b.Write32(addr, core.GetR(i)); err != nil {
			return faulted(exception.FaultBusError)
		}
		addr += 4
		cycles++
	}
	core.SetR(cpu.SP, core.GetR(cpu.SP)-uint32(n)*4)
	return taken(cycles)
}

// popMultiple reads ascending from the current SP, then restores SP to
// SP + 4*n once every transfer has succeeded.
func popMultiple(core *cpu.Core, b bus.Bus, inst decoder.Instruction) Result {
	n := regCount(inst.RegList)
	addr := core.GetR(cpu.SP)
	cycles := 1
	var lastPC uint32
	loadedPC := false
	for i := 0; i < 16; i++ {
		if inst.RegList&(1<<uint(i)) == 0 {
			continue
		}
		v, err := b.Read32(addr)
		if err != nil {
			return faulted(exception.FaultBusError)
		}
		if i == cpu.PC {
			lastPC = v
			loadedPC = true
		} else {
			core.SetR(i, v)
		}
		addr += 4
		cycles++
	}
	core.SetR(cpu.SP, core.GetR(cpu.SP)+uint32(n)*4)
	if loadedPC {
		core.LoadWritePC(lastPC)
		return branched(cycles)
	}
	return taken(cycles)
}
