package executor

import (
	"github.com/lookbusy1344/cortexm-core/bits"
	"github.com/lookbusy1344/cortexm-core/cpu"
	"github.com/lookbusy1344/cortexm-core/decoder"
)

// execDataProcessing covers the register- and immediate-operand ALU forms,
// per spec.md §4.5: arithmetic variants go through add_with_carry (with
// subtraction realized as add_with_carry(x, ~y, 1)); logical variants leave
// C/V untouched except where a barrel-shift carry feeds C.
func execDataProcessing(core *cpu.Core, inst decoder.Instruction) Result {
	switch inst.Kind {
	case decoder.ANDReg:
		return logical(core, inst, core.GetR(inst.Rn)&core.GetR(inst.Rm))
	case decoder.EORReg:
		return logical(core, inst, core.GetR(inst.Rn)^core.GetR(inst.Rm))
	case decoder.ORRReg:
		return logical(core, inst, core.GetR(inst.Rn)|core.GetR(inst.Rm))
	case decoder.BICReg:
		return logical(core, inst, core.GetR(inst.Rn)&^core.GetR(inst.Rm))
	case decoder.MVNReg:
		return logical(core, inst, ^core.GetR(inst.Rm))

	case decoder.TSTReg:
		result := core.GetR(inst.Rn) & core.GetR(inst.Rm)
		core.APSR.SetNZ(result)
		return taken(1)
	case decoder.CMNReg:
		result, carry, overflow := bits.AddWithCarry(core.GetR(inst.Rn), core.GetR(inst.Rm), false)
		core.APSR.SetNZ(result)
		core.APSR.C, core.APSR.V = carry, overflow
		return taken(1)
	case decoder.CMNImm:
		result, carry, overflow := bits.AddWithCarry(core.GetR(inst.Rn), inst.Imm, false)
		core.APSR.SetNZ(result)
		core.APSR.C, core.APSR.V = carry, overflow
		return taken(1)
	case decoder.CMPReg:
		result, carry, overflow := bits.AddWithCarry(core.GetR(inst.Rn), ^core.GetR(inst.Rm), true)
		core.APSR.SetNZ(result)
		core.APSR.C, core.APSR.V = carry, overflow
		return taken(1)
	case decoder.CMPImm:
		result, carry, overflow := bits.AddWithCarry(core.GetR(inst.Rn), ^inst.Imm, true)
		core.APSR.SetNZ(result)
		core.APSR.C, core.APSR.V = carry, overflow
		return taken(1)

	case decoder.ADDReg:
		return arithmetic(core, inst, core.GetR(inst.Rn), core.GetR(inst.Rm), false)
	case decoder.SUBReg:
		return arithmetic(core, inst, core.GetR(inst.Rn), core.GetR(inst.Rm), true)
	case decoder.ADDImm3:
		return arithmetic(core, inst, core.GetR(inst.Rn), inst.Imm, false)
	case decoder.SUBImm3:
		return arithmetic(core, inst, core.GetR(inst.Rn), inst.Imm, true)
	case decoder.ADDImm:
		return arithmetic(core, inst, core.GetR(inst.Rn), inst.Imm, false)
	case decoder.SUBImm:
		return arithmetic(core, inst, core.GetR(inst.Rn), inst.Imm, true)
	case decoder.RSBImm:
		return arithmetic(core, inst, inst.Imm, core.GetR(inst.Rn), true)

	case decoder.ADCReg:
		result, carry, overflow := bits.AddWithCarry(core.GetR(inst.Rn), core.GetR(inst.Rm), core.APSR.C)
		core.SetR(inst.Rd, result)
		if inst.SetFlags {
			core.APSR.SetNZ(result)
			core.APSR.C, core.APSR.V = carry, overflow
		}
		return taken(1)
	case decoder.SBCReg:
		result, carry, overflow := bits.AddWithCarry(core.GetR(inst.Rn), ^core.GetR(inst.Rm), core.APSR.C)
		core.SetR(inst.Rd, result)
		if inst.SetFlags {
			core.APSR.SetNZ(result)
			core.APSR.C, core.APSR.V = carry, overflow
		}
		return taken(1)

	case decoder.MOVImm:
		core.SetR(inst.Rd, inst.Imm)
		if inst.SetFlags {
			core.APSR.SetNZ(inst.Imm)
			if inst.Thumb32 {
				core.APSR.C = inst.Carry
			}
		}
		return taken(1)

	case decoder.MULReg:
		result := core.GetR(inst.Rn) * core.GetR(inst.Rm)
		core.SetR(inst.Rd, result)
		if inst.SetFlags {
			core.APSR.SetNZ(result)
		}
		return taken(1)

	default:
		return taken(1)
	}
}

// logical applies a logical result to Rd, updating N/Z per spec.md §4.5;
// C and V are left unchanged (the register forms routed here have no
// shifter carry).
func logical(core *cpu.Core, inst decoder.Instruction, result uint32) Result {
	core.SetR(inst.Rd, result)
	if inst.SetFlags {
		core.APSR.SetNZ(result)
	}
	return taken(1)
}

// arithmetic realizes ADD/SUB (sub expressed as add_with_carry(x, ~y, 1))
// and writes N/Z/C/V when setflags.
func arithmetic(core *cpu.Core, inst decoder.Instruction, x, y uint32, sub bool) Result {
	var result uint32
	var carry, overflow bool
	if sub {
		result, carry, overflow = bits.AddWithCarry(x, ^y, true)
	} else {
		result, carry, overflow = bits.AddWithCarry(x, y, false)
	}
	core.SetR(inst.Rd, result)
	if inst.SetFlags {
		core.APSR.SetNZ(result)
		core.APSR.C, core.APSR.V = carry, overflow
	}
	return taken(1)
}
