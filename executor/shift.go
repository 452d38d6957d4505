package executor

import (
	"github.com/lookbusy1344/cortexm-core/bits"
	"github.com/lookbusy1344/cortexm-core/cpu"
	"github.com/lookbusy1344/cortexm-core/decoder"
)

// execShift covers LSL/LSR/ASR/ROR, immediate and register-controlled forms,
// per spec.md §4.5. All of these route through bits.ShiftC so the carry-out
// convention stays in one place. The decoder applies DecodeImmShift's
// imm5==0 "shift by 32" rule for LSR/ASR upstream; no form handled here
// produces RRX.
func execShift(core *cpu.Core, inst decoder.Instruction) Result {
	var amount int
	switch inst.Kind {
	case decoder.LSLImm, decoder.LSRImm, decoder.ASRImm:
		amount = inst.ShiftAmount
	case decoder.LSLReg, decoder.LSRReg, decoder.ASRReg, decoder.RORReg:
		amount = int(core.GetR(inst.Rm) & 0xFF)
	}

	var typ bits.ShiftType
	var value uint32
	switch inst.Kind {
	case decoder.LSLImm:
		typ, value = bits.ShiftLSL, core.GetR(inst.Rm)
	case decoder.LSRImm:
		typ, value = bits.ShiftLSR, core.GetR(inst.Rm)
	case decoder.ASRImm:
		typ, value = bits.ShiftASR, core.GetR(inst.Rm)
	case decoder.LSLReg:
		typ, value = bits.ShiftLSL, core.GetR(inst.Rd)
	case decoder.LSRReg:
		typ, value = bits.ShiftLSR, core.GetR(inst.Rd)
	case decoder.ASRReg:
		typ, value = bits.ShiftASR, core.GetR(inst.Rd)
	case decoder.RORReg:
		typ, value = bits.ShiftROR, core.GetR(inst.Rd)
	}

	result, carry := bits.ShiftC(value, typ, amount, core.APSR.C)
	core.SetR(inst.Rd, result)
	if inst.SetFlags {
		core.APSR.SetNZ(result)
		if amount != 0 {
			core.APSR.C = carry
		}
	}
	return taken(1)
}
