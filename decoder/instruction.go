// Package decoder maps raw Thumb/Thumb-2 half-word and word encodings to a
// structured Instruction value, per spec.md §4.4. The decoder is a pure
// function of the opcode bits — it consults no processor or bus state — and
// every unrecognized encoding yields Instruction{Kind: UDF}, carrying the
// raw opcode for diagnostics, so the executor always has exactly one
// "instruction not recognized" contract to implement (spec.md §7).
package decoder

import (
	"github.com/lookbusy1344/cortexm-core/bits"
	"github.com/lookbusy1344/cortexm-core/cpu"
)

// Kind tags which instruction variant an Instruction carries. Each Kind's
// comment names the operand fields of Instruction that are meaningful for
// it; fields not mentioned are zero/unused.
type Kind int

const (
	UDF Kind = iota // Opcode: raw encoding, for diagnostics only.

	// Data processing — register.
	ANDReg
	EORReg
	LSLReg
	LSRReg
	ASRReg
	ADCReg
	SBCReg
	RORReg
	TSTReg
	RSBImm // RSB Rd, Rn, #0 (Thumb-1 NEG)
	CMPReg
	CMNReg
	ORRReg
	MULReg
	BICReg
	MVNReg
	ADDReg
	SUBReg

	// Data processing — immediate.
	MOVImm
	CMPImm
	CMNImm
	ADDImm
	SUBImm
	ADDImm3 // 3-bit immediate register-register-immediate form (SETFLAGS fixed)
	SUBImm3

	// Shifts — immediate.
	LSLImm
	LSRImm
	ASRImm

	// Special data processing (format 5).
	MOVRegHi // MOV Rd, Rm across the full r0-r15 range, no flags
	ADDRegHi
	CMPRegHi

	// Address generation.
	ADR     // ADD Rd, PC, #imm8*4
	ADDSPImm // ADD Rd, SP, #imm8*4
	ADDSPImm7 // ADD/SUB SP, SP, #imm7*4 (SImm negative encodes SUB)

	// Branches.
	B        // unconditional
	BCond    // conditional, carries its own Cond
	BL       // 32-bit BL with link
	BX       // branch and exchange
	BLXReg   // branch, link and exchange (register)
	CBZKind  // compare and branch if zero
	CBNZKind // compare and branch if nonzero
	TBBKind  // table branch byte
	THKind   // table branch halfword

	// Load/store.
	LDRImm
	LDRBImm
	LDRHImm
	STRImm
	STRBImm
	STRHImm
	LDRReg
	LDRBReg
	LDRHReg
	LDRSBReg
	LDRSHReg
	STRReg
	STRBReg
	STRHReg
	LDRLiteral
	LDRSPImm
	STRSPImm

	// Multiple load/store.
	LDM
	STM
	PUSH
	POP

	// Status transfer.
	MRS
	MSR

	// Barriers & hints.
	DMB
	DSB
	ISB
	NOP
	YIELD
	WFE
	WFI
	SEV

	// IT block / conditional execution state.
	IT

	// CPS.
	CPSIE
	CPSID

	// Debug / supervisor.
	BKPT
	SVC
)

// Instruction is the decoder's single output type: a tagged struct carrying
// exactly the operand fields each Kind needs, per spec.md §3's "Instruction
// entity". It has no identity or lifetime beyond a single Step call.
type Instruction struct {
	Kind    Kind
	Thumb32 bool // true for 4-byte (Thumb-2) encodings
	Opcode  uint32

	Cond cpu.ConditionCode

	Rd, Rn, Rm, Rt, Rt2 int
	SetFlags            bool

	Imm   uint32 // generic unsigned/zero-extended immediate
	SImm  int32  // generic sign-extended immediate/offset
	Imm5  int    // raw imm5 field, for shift decoding

	// Carry is ThumbExpandImm's carry-out for a T32 modified-immediate
	// logical/MOV form, meaningful only when the decode produced one
	// (currently MOVImm's 32-bit encoding; the 16-bit MOVS #imm8 form has
	// no modified-immediate expansion and leaves this false).
	Carry bool

	ShiftType   bits.ShiftType
	ShiftAmount int

	RegList uint16 // bit i set => Ri included, in ascending iteration order

	Index, Add, Wback bool

	// Status-register fields (MRS/MSR).
	SysReg SpecialReg

	// BKPT/SVC immediate.
	Imm8 uint8
}

// SpecialReg names the MRS/MSR special-register operand.
type SpecialReg int

const (
	SysRegNone SpecialReg = iota
	SysRegAPSR
	SysRegIPSR
	SysRegMSP
	SysRegPSP
	SysRegPRIMASK
	SysRegCONTROL
	SysRegUnsupported // decodes, but the executor must fault (spec.md §9)
)

// Width returns the instruction's encoded width in bytes (2 or 4), the
// amount the executor's caller advances PC by for a non-branching
// instruction (spec.md §8).
func (i Instruction) Width() uint32 {
	if i.Thumb32 {
		return 4
	}
	return 2
}

// kindMnemonics names each Kind for disassembly listings; a debugger front
// end calls Kind.String() rather than duplicating this table itself.
var kindMnemonics = map[Kind]string{
	UDF: "UDF",

	ANDReg: "ANDS", EORReg: "EORS", LSLReg: "LSLS", LSRReg: "LSRS", ASRReg: "ASRS",
	ADCReg: "ADCS", SBCReg: "SBCS", RORReg: "RORS", TSTReg: "TST", RSBImm: "RSBS",
	CMPReg: "CMP", CMNReg: "CMN", ORRReg: "ORRS", MULReg: "MULS", BICReg: "BICS",
	MVNReg: "MVNS", ADDReg: "ADDS", SUBReg: "SUBS",

	MOVImm: "MOVS", CMPImm: "CMP", CMNImm: "CMN", ADDImm: "ADDS", SUBImm: "SUBS",
	ADDImm3: "ADDS", SUBImm3: "SUBS",

	LSLImm: "LSLS", LSRImm: "LSRS", ASRImm: "ASRS",

	MOVRegHi: "MOV", ADDRegHi: "ADD", CMPRegHi: "CMP",

	ADR: "ADR", ADDSPImm: "ADD", ADDSPImm7: "ADD",

	B: "B", BCond: "B", BL: "BL", BX: "BX", BLXReg: "BLX",
	CBZKind: "CBZ", CBNZKind: "CBNZ", TBBKind: "TBB", THKind: "TBH",

	LDRImm: "LDR", LDRBImm: "LDRB", LDRHImm: "LDRH",
	STRImm: "STR", STRBImm: "STRB", STRHImm: "STRH",
	LDRReg: "LDR", LDRBReg: "LDRB", LDRHReg: "LDRH",
	LDRSBReg: "LDRSB", LDRSHReg: "LDRSH",
	STRReg: "STR", STRBReg: "STRB", STRHReg: "STRH",
	LDRLiteral: "LDR", LDRSPImm: "LDR", STRSPImm: "STR",

	LDM: "LDM", STM: "STM", PUSH: "PUSH", POP: "POP",

	MRS: "MRS", MSR: "MSR",

	DMB: "DMB", DSB: "DSB", ISB: "ISB", NOP: "NOP", YIELD: "YIELD",
	WFE: "WFE", WFI: "WFI", SEV: "SEV",

	IT: "IT",

	CPSIE: "CPSIE", CPSID: "CPSID",

	BKPT: "BKPT", SVC: "SVC",
}

// String returns the instruction's mnemonic, for disassembly listings. An
// unrecognized Kind (shouldn't occur outside of tests) renders as "???".
func (k Kind) String() string {
	if s, ok := kindMnemonics[k]; ok {
		return s
	}
	return "???"
}
