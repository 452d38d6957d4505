// Package executor carries out one decoded Instruction against a Core and a
// Bus, per spec.md §4.5. Step is a pure state transition: given
// (core, bus, instruction, semihost handler) it mutates core/bus and
// returns a Result describing what happened, never a Go error for
// architectural conditions — those are reported through Result.Fault, per
// spec.md §7.
package executor

import (
	"github.com/lookbusy1344/cortexm-core/bus"
	"github.com/lookbusy1344/cortexm-core/cpu"
	"github.com/lookbusy1344/cortexm-core/decoder"
	"github.com/lookbusy1344/cortexm-core/exception"
	"github.com/lookbusy1344/cortexm-core/semihost"
)

// Outcome tags which of the four verdicts a Result carries.
type Outcome int

const (
	NotTaken Outcome = iota
	Taken
	Branched
	FaultOutcome
)

// Result is Step's return value. Cycles is meaningful only for Taken and
// Branched; Fault is meaningful only for FaultOutcome.
type Result struct {
	Outcome Outcome
	Cycles  int
	Fault   exception.Fault
}

func notTaken() Result           { return Result{Outcome: NotTaken} }
func taken(cycles int) Result    { return Result{Outcome: Taken, Cycles: cycles} }
func branched(cycles int) Result { return Result{Outcome: Branched, Cycles: cycles} }
func faulted(f exception.Fault) Result {
	return Result{Outcome: FaultOutcome, Fault: f}
}

// Step executes one instruction. The outer driver is responsible for
// advancing PC by inst.Width() when Step returns NotTaken or Taken; a
// Branched result means the instruction already set PC itself.
func Step(core *cpu.Core, b bus.Bus, inst decoder.Instruction, sh semihost.Handler) Result {
	if !conditionPasses(core, inst) {
		advanceIT(core, inst)
		return notTaken()
	}

	result := dispatch(core, b, inst, sh)
	if result.Outcome != FaultOutcome {
		advanceIT(core, inst)
	}
	return result
}

// conditionPasses implements spec.md §4.2's split: B's own two-way
// conditional encodings (T1 BCond) carry their condition in the opcode and
// are evaluated independent of IT-state via ConditionPassedB; every other
// instruction defers to ConditionPassed, which consults the active IT
// block (or is unconditionally true outside one).
func conditionPasses(core *cpu.Core, inst decoder.Instruction) bool {
	if inst.Kind == decoder.BCond {
		return core.ConditionPassedB(inst.Cond)
	}
	return core.ConditionPassed()
}

// advanceIT advances IT-state after a (possibly skipped) predicated
// instruction, except for IT itself, which has just installed a fresh
// IT-state that must not be immediately consumed.
func advanceIT(core *cpu.Core, inst decoder.Instruction) {
	if inst.Kind == decoder.IT {
		return
	}
	core.AdvanceIT()
}

func dispatch(core *cpu.Core, b bus.Bus, inst decoder.Instruction, sh semihost.Handler) Result {
	switch inst.Kind {
	case decoder.UDF:
		return faulted(exception.FaultUndefinedInstruction)

	case decoder.ANDReg, decoder.EORReg, decoder.ORRReg, decoder.BICReg, decoder.MVNReg,
		decoder.ADCReg, decoder.SBCReg, decoder.RSBImm, decoder.MULReg,
		decoder.TSTReg, decoder.CMPReg, decoder.CMNReg, decoder.ADDReg, decoder.SUBReg,
		decoder.ADDImm3, decoder.SUBImm3,
		decoder.MOVImm, decoder.CMPImm, decoder.CMNImm, decoder.ADDImm, decoder.SUBImm:
		return execDataProcessing(core, inst)

	case decoder.LSLImm, decoder.LSRImm, decoder.ASRImm,
		decoder.LSLReg, decoder.LSRReg, decoder.ASRReg, decoder.RORReg:
		return execShift(core, inst)

	case decoder.MOVRegHi, decoder.ADDRegHi, decoder.CMPRegHi, decoder.ADR, decoder.ADDSPImm, decoder.ADDSPImm7:
		return execSpecialDataProcessing(core, inst)

	case decoder.B, decoder.BCond, decoder.BL, decoder.BX, decoder.BLXReg,
		decoder.CBZKind, decoder.CBNZKind, decoder.TBBKind, decoder.THKind:
		return execBranch(core, b, inst)

	case decoder.LDRImm, decoder.LDRBImm, decoder.LDRHImm,
		decoder.STRImm, decoder.STRBImm, decoder.STRHImm,
		decoder.LDRReg, decoder.LDRBReg, decoder.LDRHReg, decoder.LDRSBReg, decoder.LDRSHReg,
		decoder.STRReg, decoder.STRBReg, decoder.STRHReg,
		decoder.LDRLiteral, decoder.LDRSPImm, decoder.STRSPImm:
		return execLoadStore(core, b, inst)

	case decoder.LDM, decoder.STM, decoder.PUSH, decoder.POP:
		return execLoadStoreMultiple(core, b, inst)

	case decoder.MRS, decoder.MSR:
		return execPSR(core, inst)

	case decoder.DMB, decoder.DSB, decoder.ISB:
		return taken(4)

	case decoder.NOP, decoder.YIELD, decoder.WFE, decoder.WFI, decoder.SEV:
		return taken(1)

	case decoder.IT:
		core.SetITState(uint8(inst.Cond)<<4 | uint8(inst.Imm))
		return taken(1)

	case decoder.CPSIE:
		core.Primask = false
		return taken(1)
	case decoder.CPSID:
		core.Primask = true
		return taken(1)

	case decoder.BKPT:
		return execBKPT(core, b, inst, sh)

	case decoder.SVC:
		return faulted(exception.FaultSupervisorCall)

	default:
		return faulted(exception.FaultUndefinedInstruction)
	}
}
