package executor

import (
	"github.com/lookbusy1344/cortexm-core/bits"
	"github.com/lookbusy1344/cortexm-core/cpu"
	"github.com/lookbusy1344/cortexm-core/decoder"
)

// execSpecialDataProcessing covers format-5 hi-register moves/adds/compares
// (none of which touch flags except CMPRegHi), ADR, and the two SP-relative
// address-generation forms, per spec.md §4.5. None of these set flags
// except CMPRegHi.
func execSpecialDataProcessing(core *cpu.Core, inst decoder.Instruction) Result {
	switch inst.Kind {
	case decoder.MOVRegHi:
		core.SetR(inst.Rd, core.GetR(inst.Rm))
		return taken(1)
	case decoder.ADDRegHi:
		core.SetR(inst.Rd, core.GetR(inst.Rn)+core.GetR(inst.Rm))
		return taken(1)
	case decoder.CMPRegHi:
		result, carry, overflow := bits.AddWithCarry(core.GetR(inst.Rn), ^core.GetR(inst.Rm), true)
		core.APSR.SetNZ(result)
		core.APSR.C, core.APSR.V = carry, overflow
		return taken(1)
	case decoder.ADR:
		// PC reads as the instruction's address rounded down to a word
		// boundary, plus 4 (spec.md §4.5's ADR note).
		base := (core.PC() + 4) &^ 3
		core.SetR(inst.Rd, base+inst.Imm)
		return taken(1)
	case decoder.ADDSPImm:
		core.SetR(inst.Rd, core.GetR(cpu.SP)+inst.Imm)
		return taken(1)
	case decoder.ADDSPImm7:
		core.SetR(cpu.SP, uint32(int64(core.GetR(cpu.SP))+int64(inst.SImm)))
		return taken(1)
	default:
		return taken(1)
	}
}
