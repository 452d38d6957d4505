package executor

import (
	"github.com/lookbusy1344/cortexm-core/bits"
	"github.com/lookbusy1344/cortexm-core/bus"
	"github.com/lookbusy1344/cortexm-core/cpu"
	"github.com/lookbusy1344/cortexm-core/decoder"
	"github.com/lookbusy1344/cortexm-core/exception"
)

// aligned reports whether addr satisfies the access size's natural
// alignment: byte accesses (size 1) are never misaligned, halfword (size 2)
// accesses require addr%2==0, word (size 4) accesses require addr%4==0.
func aligned(addr uint32, size uint32) bool {
	return addr&(size-1) == 0
}

// execLoadStore covers every single-register LDR/STR variant, per spec.md
// §4.3/§4.5/§7: a misaligned halfword/word address raises UsageFault
// (UNALIGN_TRP) via exception.FaultUnalignedAccess before the bus is ever
// touched, and a bus fault or alignment fault alike leaves the register
// file untouched (the load/store is attempted before any register is
// written).
func execLoadStore(core *cpu.Core, b bus.Bus, inst decoder.Instruction) Result {
	switch inst.Kind {
	case decoder.LDRLiteral:
		// decode16's PC-relative load stashes Rd in inst.Rd, not inst.Rt.
		addr := ((core.PC() + 4) &^ 3) + inst.Imm
		if !aligned(addr, 4) {
			return faulted(exception.FaultUnalignedAccess)
		}
		v, err := b.Read32(addr)
		if err != nil {
			return faulted(exception.FaultBusError)
		}
		core.SetR(inst.Rd, v)
		return taken(2)

	case decoder.LDRImm, decoder.LDRSPImm:
		addr := core.GetR(inst.Rn) + inst.Imm
		if !aligned(addr, 4) {
			return faulted(exception.FaultUnalignedAccess)
		}
		v, err := b.Read32(addr)
		if err != nil {
			return faulted(exception.FaultBusError)
		}
		if inst.Rt == cpu.PC {
			core.LoadWritePC(v)
			return branched(2)
		}
		core.SetR(inst.Rt, v)
		return taken(2)
	case decoder.STRImm, decoder.STRSPImm:
		addr := core.GetR(inst.Rn) + inst.Imm
		if !aligned(addr, 4) {
			return faulted(exception.FaultUnalignedAccess)
		}
		if err := b.Write32(addr, core.GetR(inst.Rt)); err != nil {
			return faulted(exception.FaultBusError)
		}
		return taken(2)

	case decoder.LDRBImm:
		addr := core.GetR(inst.Rn) + inst.Imm
		v, err := b.Read8(addr)
		if err != nil {
			return faulted(exception.FaultBusError)
		}
		core.SetR(inst.Rt, uint32(v))
		return taken(2)
	case decoder.STRBImm:
		addr := core.GetR(inst.Rn) + inst.Imm
		if err := b.Write8(addr, uint8(core.GetR(inst.Rt))); err != nil {
			return faulted(exception.FaultBusError)
		}
		return taken(2)

	case decoder.LDRHImm:
		addr := core.GetR(inst.Rn) + inst.Imm
		if !aligned(addr, 2) {
			return faulted(exception.FaultUnalignedAccess)
		}
		v, err := b.Read16(addr)
		if err != nil {
			return faulted(exception.FaultBusError)
		}
		core.SetR(inst.Rt, uint32(v))
		return taken(2)
	case decoder.STRHImm:
		addr := core.GetR(inst.Rn) + inst.Imm
		if !aligned(addr, 2) {
			return faulted(exception.FaultUnalignedAccess)
		}
		if err := b.Write16(addr, uint16(core.GetR(inst.Rt))); err != nil {
			return faulted(exception.FaultBusError)
		}
		return taken(2)

	case decoder.LDRReg:
		addr := core.GetR(inst.Rn) + core.GetR(inst.Rm)
		if !aligned(addr, 4) {
			return faulted(exception.FaultUnalignedAccess)
		}
		v, err := b.Read32(addr)
		if err != nil {
			return faulted(exception.FaultBusError)
		}
		core.SetR(inst.Rt, v)
		return taken(2)
	case decoder.STRReg:
		addr := core.GetR(inst.Rn) + core.GetR(inst.Rm)
		if !aligned(addr, 4) {
			return faulted(exception.FaultUnalignedAccess)
		}
		if err := b.Write32(addr, core.GetR(inst.Rt)); err != nil {
			return faulted(exception.FaultBusError)
		}
		return taken(2)
	case decoder.LDRBReg:
		v, err := b.Read8(core.GetR(inst.Rn) + core.GetR(inst.Rm))
		if err != nil {
			return faulted(exception.FaultBusError)
		}
		core.SetR(inst.Rt, uint32(v))
		return taken(2)
	case decoder.STRBReg:
		if err := b.Write8(core.GetR(inst.Rn)+core.GetR(inst.Rm), uint8(core.GetR(inst.Rt))); err != nil {
			return faulted(exception.FaultBusError)
		}
		return taken(2)
	case decoder.LDRHReg:
		addr := core.GetR(inst.Rn) + core.GetR(inst.Rm)
		if !aligned(addr, 2) {
			return faulted(exception.FaultUnalignedAccess)
		}
		v, err := b.Read16(addr)
		if err != nil {
			return faulted(exception.FaultBusError)
		}
		core.SetR(inst.Rt, uint32(v))
		return taken(2)
	case decoder.STRHReg:
		addr := core.GetR(inst.Rn) + core.GetR(inst.Rm)
		if !aligned(addr, 2) {
			return faulted(exception.FaultUnalignedAccess)
		}
		if err := b.Write16(addr, uint16(core.GetR(inst.Rt))); err != nil {
			return faulted(exception.FaultBusError)
		}
		return taken(2)
	case decoder.LDRSBReg:
		v, err := b.Read8(core.GetR(inst.Rn) + core.GetR(inst.Rm))
		if err != nil {
			return faulted(exception.FaultBusError)
		}
		core.SetR(inst.Rt, bits.SignExtend(uint32(v), 7, 32))
		return taken(2)
	case decoder.LDRSHReg:
		addr := core.GetR(inst.Rn) + core.GetR(inst.Rm)
		if !aligned(addr, 2) {
			return faulted(exception.FaultUnalignedAccess)
		}
		v, err := b.Read16(addr)
		if err != nil {
			return faulted(exception.FaultBusError)
		}
		core.SetR(inst.Rt, bits.SignExtend(uint32(v), 15, 32))
		return taken(2)

	default:
		return faulted(exception.FaultUndefinedInstruction)
	}
}
