// Package cpu models the Cortex-M register file and program status: the 16
// general registers, banked MSP/PSP, APSR/IPSR/IT-state, PRIMASK and CONTROL,
// per spec.md §3 and §4.2.
package cpu

import "github.com/lookbusy1344/cortexm-core/exception"

// Register selectors, matching the Thumb encodings' own numbering.
const (
	R0 = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	R8
	R9
	R10
	R11
	R12
	SP
	LR
	PC
)

// APSR holds the four condition flags.
type APSR struct {
	N, Z, C, V bool
}

// ToUint32 packs the flags into APSR bits 31-28, matching the architectural
// layout (used by MRS APSR and by trace/debugger display).
func (a APSR) ToUint32() uint32 {
	var v uint32
	if a.N {
		v |= 1 << 31
	}
	if a.Z {
		v |= 1 << 30
	}
	if a.C {
		v |= 1 << 29
	}
	if a.V {
		v |= 1 << 28
	}
	return v
}

// FromUint32 unpacks APSR bits 31-28 into the flags; lower bits are ignored.
func (a *APSR) FromUint32(v uint32) {
	a.N = v&(1<<31) != 0
	a.Z = v&(1<<30) != 0
	a.C = v&(1<<29) != 0
	a.V = v&(1<<28) != 0
}

// SetNZ sets N and Z from an arithmetic/logical result, per spec.md §4.2:
// set_n(result) = result's bit 31, set_z(result) = result == 0.
func (a *APSR) SetNZ(result uint32) {
	a.N = result>>31&1 != 0
	a.Z = result == 0
}

// Control models the two bits of CONTROL this core tracks: SPSEL (which
// stack pointer is banked to r13) and nPRIV (unprivileged execution).
type Control struct {
	SPSEL bool // false selects MSP, true selects PSP
	NPRIV bool
}

// ToUint32 packs CONTROL into its architectural bit positions (bit0=nPRIV,
// bit1=SPSEL); FPCA (bit2) is not modeled (no FPU, per spec.md Non-goals).
func (c Control) ToUint32() uint32 {
	var v uint32
	if c.NPRIV {
		v |= 1
	}
	if c.SPSEL {
		v |= 2
	}
	return v
}

// FromUint32 unpacks CONTROL's low two bits.
func (c *Control) FromUint32(v uint32) {
	c.NPRIV = v&1 != 0
	c.SPSEL = v&2 != 0
}

// Core is a single Cortex-M processor's architectural state. It does not
// own a bus; the executor is handed both a *Core and a bus.Bus per step
// (see spec.md §5: the bus is borrowed for the duration of one Step call).
type Core struct {
	// R holds r0..r12; r14 (LR) lives in LRVal, and r13 (SP) and r15 (PC)
	// are tracked separately below so that stack-pointer banking and the
	// PC+4 read rule can be expressed without overloading this array's indices.
	R [13]uint32
	LRVal uint32

	msp uint32
	psp uint32
	pc  uint32 // address of the current instruction (not PC+4)

	APSR    APSR
	ipsr    exception.Number
	itState uint8 // (firstcond<<4 | mask), per spec.md §3

	Primask bool
	Control Control

	ThumbState bool // must remain true; a clearing branch faults
}

// NewCore returns a Core reset to its architectural reset state: Thread
// mode, MSP selected, Thumb state set, all flags clear.
func NewCore() *Core {
	return &Core{ThumbState: true}
}

// Reset clears all registers and status to the power-on state.
func (c *Core) Reset() {
	for i := range c.R {
		c.R[i] = 0
	}
	c.LRVal = 0
	c.msp = 0
	c.psp = 0
	c.pc = 0
	c.APSR = APSR{}
	c.ipsr = exception.Thread
	c.itState = 0
	c.Primask = false
	c.Control = Control{}
	c.ThumbState = true
}

// GetR reads general register reg (0..15). Reading PC (r15) returns the
// address of the current instruction plus 4, per spec.md §3 and the ARM
// Thumb "PC reads as current+4" convention. Reading SP (r13) returns
// whichever of MSP/PSP CONTROL.SPSEL currently banks.
func (c *Core) GetR(reg int) uint32 {
	switch {
	case reg == PC:
		return c.pc + 4
	case reg == SP:
		return c.activeSP()
	case reg == LR:
		return c.LRVal
	case reg >= R0 && reg <= R12:
		return c.R[reg]
	default:
		return 0
	}
}

// SetR writes general register reg. Writing PC directly is not a supported
// contract per spec.md §3 (PC writes must go through BranchWritePC,
// BxWritePC or LoadWritePC); SetR still performs a raw write for callers
// that have already resolved those semantics (those three helpers write the
// PC field themselves after handling the low bit).
func (c *Core) SetR(reg int, value uint32) {
	switch {
	case reg == PC:
		c.pc = value &^ 1
	case reg == SP:
		c.setActiveSP(value)
	case reg == LR:
		c.LRVal = value
	case reg >= R0 && reg <= R12:
		c.R[reg] = value
	}
}

// AddR adds delta to register reg and stores the result (used by
// post-indexed addressing and PUSH/POP's SP adjustment).
func (c *Core) AddR(reg int, delta uint32) {
	c.SetR(reg, c.GetR(reg)+delta)
}

func (c *Core) activeSP() uint32 {
	if c.Control.SPSEL {
		return c.psp
	}
	return c.msp
}

func (c *Core) setActiveSP(v uint32) {
	if c.Control.SPSEL {
		c.psp = v
	} else {
		c.msp = v
	}
}

// MSP returns the Main Stack Pointer regardless of which is currently
// banked to r13.
func (c *Core) MSP() uint32 { return c.msp }

// PSP returns the Process Stack Pointer regardless of which is currently
// banked to r13.
func (c *Core) PSP() uint32 { return c.psp }

// SetMSP writes the Main Stack Pointer directly (used by MSR and by reset).
func (c *Core) SetMSP(v uint32) { c.msp = v }

// SetPSP writes the Process Stack Pointer directly (used by MSR).
func (c *Core) SetPSP(v uint32) { c.psp = v }

// PC returns the address of the instruction currently executing (not +4);
// the executor and decoder use this for fetch/branch arithmetic, while
// GetR(PC) gives instructions the architectural PC+4 value they read.
func (c *Core) PC() uint32 { return c.pc }

// SetPC sets the address of the instruction to execute next. This is the
// raw setter the outer step loop uses to advance PC by the instruction's
// width (the three PC-write contracts below write the same field
// themselves); instruction bodies must not call it directly for a branch
// target.
func (c *Core) SetPC(addr uint32) { c.pc = addr }

// BranchWritePC implements the B/BL/CBZ contract: the target's bit 0 is
// cleared and Thumb state must already be set (a target with bit0 clear
// would mean a switch to ARM state, which ARMv7-M does not support from
// Thumb and must fault per spec.md §3).
func (c *Core) BranchWritePC(addr uint32) {
	c.pc = addr &^ 1
}

// BxWritePC implements the BX/POP{PC} contract: bit 0 selects Thumb state;
// clearing it (switching to ARM state) is a fault the executor must raise
// before calling this (see exception.FaultInvalidState).
func (c *Core) BxWritePC(addr uint32) {
	c.ThumbState = addr&1 != 0
	c.pc = addr &^ 1
}

// LoadWritePC implements the LDR/LDM-to-PC contract, identical in effect to
// BxWritePC (bit 0 selects Thumb state) but named separately because the
// ARM ARM specifies it as its own pseudocode procedure.
func (c *Core) LoadWritePC(addr uint32) {
	c.BxWritePC(addr)
}

// IPSR returns the currently active exception number (Thread/0 when none).
func (c *Core) IPSR() exception.Number { return c.ipsr }

// SetIPSR sets the active exception number; used by the outer driver's
// exception-entry sequence, which is outside this core's contract but
// needs somewhere to record the number it vectored through.
func (c *Core) SetIPSR(n exception.Number) { c.ipsr = n }

// ITState returns the raw (firstcond<<4 | mask) byte.
func (c *Core) ITState() uint8 { return c.itState }

// SetITState writes the raw IT-state byte; used by the IT instruction.
func (c *Core) SetITState(v uint8) { c.itState = v }

// itActive reports whether an IT block is currently in effect.
func (c *Core) itActive() bool {
	return c.itState&0xF != 0
}

// ITCondition returns the condition the next (possibly predicated)
// instruction executes under, and whether an IT block is active at all.
func (c *Core) ITCondition() (cond uint8, active bool) {
	if !c.itActive() {
		return 0, false
	}
	return (c.itState >> 4) & 0xF, true
}

// AdvanceIT advances the IT-state after an instruction inside an active IT
// block has executed, per the ARM rule ITSTATE = ITSTATE[7:5] :
// (ITSTATE[4:0] << 1): the low 5 bits (the condition's own LSB plus the
// 4-bit mask) shift left as one field, so the sentinel bit migrating out of
// the mask becomes the condition's new LSB. That is what flips EQ to NE
// partway through an ITE block. The top 3 bits (the condition's upper 3
// bits) never move. Once the mask nibble reaches 0 the block is over; this
// must be called after execution, never before.
func (c *Core) AdvanceIT() {
	if !c.itActive() {
		return
	}
	c.itState = (c.itState & 0xE0) | ((c.itState << 1) & 0x1F)
}

// ConditionPassed evaluates the effective condition for the next
// instruction: the active IT-block condition if one is in effect,
// otherwise true (unconditional), per spec.md §4.2.
func (c *Core) ConditionPassed() bool {
	cond, active := c.ITCondition()
	if !active {
		return true
	}
	return c.ConditionPassedB(ConditionCode(cond))
}

// ConditionPassedB evaluates an explicit condition code against APSR,
// independent of IT-state. Used by the B encodings, which carry their own
// condition in the opcode (spec.md §4.2, §9).
func (c *Core) ConditionPassedB(cond ConditionCode) bool {
	switch cond {
	case CondEQ:
		return c.APSR.Z
	case CondNE:
		return !c.APSR.Z
	case CondCS:
		return c.APSR.C
	case CondCC:
		return !c.APSR.C
	case CondMI:
		return c.APSR.N
	case CondPL:
		return !c.APSR.N
	case CondVS:
		return c.APSR.V
	case CondVC:
		return !c.APSR.V
	case CondHI:
		return c.APSR.C && !c.APSR.Z
	case CondLS:
		return !c.APSR.C || c.APSR.Z
	case CondGE:
		return c.APSR.N == c.APSR.V
	case CondLT:
		return c.APSR.N != c.APSR.V
	case CondGT:
		return !c.APSR.Z && c.APSR.N == c.APSR.V
	case CondLE:
		return c.APSR.Z || c.APSR.N != c.APSR.V
	case CondAL:
		return true
	default:
		return false
	}
}

// ConditionCode is a Thumb condition-code field (bits 31-28 of the ARM
// condition, reused verbatim for Thumb's 4-bit cond fields).
type ConditionCode uint8

const (
	CondEQ ConditionCode = iota
	CondNE
	CondCS
	CondCC
	CondMI
	CondPL
	CondVS
	CondVC
	CondHI
	CondLS
	CondGE
	CondLT
	CondGT
	CondLE
	CondAL
	CondNV
)

// String names a condition code for disassembly.
func (c ConditionCode) String() string {
	names := [...]string{"EQ", "NE", "CS", "CC", "MI", "PL", "VS", "VC", "HI", "LS", "GE", "LT", "GT", "LE", "AL", "NV"}
	if int(c) < len(names) {
		return names[c]
	}
	return "??"
}
