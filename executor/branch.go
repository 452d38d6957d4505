package executor

import (
	"github.com/lookbusy1344/cortexm-core/bus"
	"github.com/lookbusy1344/cortexm-core/cpu"
	"github.com/lookbusy1344/cortexm-core/decoder"
	"github.com/lookbusy1344/cortexm-core/exception"
)

// cyclesBranch is the cost charged to any instruction that redirects the
// instruction stream, per spec.md §6's flat per-category cycle model.
const cyclesBranch = 3

// execBranch covers every instruction that can redirect PC: the three
// unconditional/conditional branch encodings, BL, BX/BLX, CBZ/CBNZ and the
// two table-branch forms, per spec.md §4.5.
func execBranch(core *cpu.Core, b bus.Bus, inst decoder.Instruction) Result {
	switch inst.Kind {
	case decoder.B, decoder.BCond:
		target := uint32(int64(core.GetR(cpu.PC)) + int64(inst.SImm))
		core.BranchWritePC(target)
		return branched(cyclesBranch)

	case decoder.BL:
		retAddr := core.PC() + inst.Width()
		target := uint32(int64(core.GetR(cpu.PC)) + int64(inst.SImm))
		core.SetR(cpu.LR, retAddr|1)
		core.BranchWritePC(target)
		return branched(cyclesBranch)

	case decoder.BX:
		target := core.GetR(inst.Rm)
		if target&1 == 0 {
			return faulted(exception.FaultInvalidState)
		}
		core.BxWritePC(target)
		return branched(cyclesBranch)

	case decoder.BLXReg:
		target := core.GetR(inst.Rm)
		if target&1 == 0 {
			return faulted(exception.FaultInvalidState)
		}
		retAddr := core.PC() + inst.Width()
		core.SetR(cpu.LR, retAddr|1)
		core.BxWritePC(target)
		return branched(cyclesBranch)

	case decoder.CBZKind, decoder.CBNZKind:
		isZero := core.GetR(inst.Rn) == 0
		takeBranch := isZero
		if inst.Kind == decoder.CBNZKind {
			takeBranch = !isZero
		}
		if !takeBranch {
			return notTaken()
		}
		target := core.GetR(cpu.PC) + inst.Imm
		core.BranchWritePC(target)
		return branched(cyclesBranch)

	case decoder.TBBKind, decoder.THKind:
		return execTableBranch(core, b, inst)

	default:
		return notTaken()
	}
}

// execTableBranch reads a byte (TBB) or halfword (TBH) offset from a table
// addressed by Rn+Rm(<<1 for TBH), per spec.md §4.5: the new PC is
// PC + 2*offset, where PC is the address of the TBB/TBH instruction plus 4.
func execTableBranch(core *cpu.Core, b bus.Bus, inst decoder.Instruction) Result {
	base := core.GetR(inst.Rn)
	var halfwords uint32
	if inst.Kind == decoder.TBBKind {
		v, err := b.Read8(base + core.GetR(inst.Rm))
		if err != nil {
			return faulted(exception.FaultBusError)
		}
		halfwords = uint32(v)
	} else {
		v, err := b.Read16(base + core.GetR(inst.Rm)*2)
		if err != nil {
			return faulted(exception.FaultBusError)
		}
		halfwords = uint32(v)
	}
	target := core.GetR(cpu.PC) + halfwords*2
	core.BranchWritePC(target)
	return branched(cyclesBranch)
}
