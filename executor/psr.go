package executor

import (
	"github.com/lookbusy1344/cortexm-core/cpu"
	"github.com/lookbusy1344/cortexm-core/decoder"
	"github.com/lookbusy1344/cortexm-core/exception"
)

// execPSR covers MRS/MSR, per spec.md §4.5/§9: SysRegUnsupported is reached
// for any SYSm this core does not model and faults rather than silently
// reading/writing zero.
func execPSR(core *cpu.Core, inst decoder.Instruction) Result {
	switch inst.Kind {
	case decoder.MRS:
		v, ok := readSpecialReg(core, inst.SysReg)
		if !ok {
			return faulted(exception.FaultInvalidState)
		}
		core.SetR(inst.Rd, v)
		return taken(2)
	case decoder.MSR:
		if !writeSpecialReg(core, inst.SysReg, core.GetR(inst.Rn)) {
			return faulted(exception.FaultInvalidState)
		}
		return taken(2)
	default:
		return faulted(exception.FaultUndefinedInstruction)
	}
}

func readSpecialReg(core *cpu.Core, reg decoder.SpecialReg) (uint32, bool) {
	switch reg {
	case decoder.SysRegAPSR:
		return core.APSR.ToUint32(), true
	case decoder.SysRegIPSR:
		return uint32(core.IPSR().IPSR()), true
	case decoder.SysRegMSP:
		return core.MSP(), true
	case decoder.SysRegPSP:
		return core.PSP(), true
	case decoder.SysRegPRIMASK:
		if core.Primask {
			return 1, true
		}
		return 0, true
	case decoder.SysRegCONTROL:
		return core.Control.ToUint32(), true
	default:
		return 0, false
	}
}

func writeSpecialReg(core *cpu.Core, reg decoder.SpecialReg, v uint32) bool {
	switch reg {
	case decoder.SysRegAPSR:
		core.APSR.FromUint32(v)
		return true
	case decoder.SysRegMSP:
		core.SetMSP(v)
		return true
	case decoder.SysRegPSP:
		core.SetPSP(v)
		return true
	case decoder.SysRegPRIMASK:
		core.Primask = v&1 != 0
		return true
	case decoder.SysRegCONTROL:
		core.Control.FromUint32(v)
		return true
	default:
		// IPSR is read-only (architecturally an MSR to it is UNPREDICTABLE).
		return false
	}
}
