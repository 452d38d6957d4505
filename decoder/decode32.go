package decoder

import (
	"github.com/lookbusy1344/cortexm-core/bits"
	"github.com/lookbusy1344/cortexm-core/cpu"
)

// decode32 dispatches a 32-bit Thumb-2 opcode (hw1 already identified as one
// of the 11101/11110/11111 prefixes by Decode). This core implements the
// representative ARMv7-M subset spec.md §4.4/§4.5 call out: BL, MRS, MSR,
// TBB/TBH, the memory barriers, and the modified-immediate data-processing
// forms of ADD/SUB/MOV/CMP. Encodings outside this subset (UDIV, SDIV,
// UMLAL, SMLAL, MCR, LDC, …) are not decoded and fall through to UDF, which
// already raises UsageFault(UndefinedInstruction) — "unimplemented" and
// "undefined" deliberately share one fault path (see DESIGN.md).
func decode32(hw1, hw2 uint16) Instruction {
	op1 := bits.GetBits(hw1, 11, 13)   // bits 12:11 of hw1
	op2 := bits.GetBits(hw1, 4, 11)    // bits 10:4 of hw1
	opRaw := uint32(hw1)<<16 | uint32(hw2)

	switch {
	case op1 == 0b10 && bits.GetBit(hw2, 15) && bits.GetBit(hw2, 14) && bits.GetBit(hw2, 12):
		// BL: op1=10, hw2[15:14]=11 and hw2[12]=1 (hw2 = 11 J1 1 J2 imm11).
		return decodeBL(hw1, hw2, opRaw)

	case op2 == 0b0111000 || op2 == 0b0111001:
		// MSR (bits[10:4] = 0111 00x, register form, system-register move).
		return decodeMSR(hw1, hw2, opRaw)

	case op2 == 0b0111110 || op2 == 0b0111111:
		// MRS (bits[10:4] = 0111 11x).
		return decodeMRS(hw1, hw2, opRaw)

	case hw1 == 0xF3AF && (hw2&0xFF00) == 0x8F00:
		return decodeHintBarrier(hw2, opRaw)

	case bits.GetBits(hw1, 4, 16) == 0b111010001101 && bits.GetBits(hw2, 12, 16) == 0b1111 && bits.GetBits(hw2, 5, 12) == 0:
		// TBB/TBH: hw1 = 1110 1000 1101 Rn(4), hw2 = 1111 000 0000 H Rm(4).
		return decodeTB(hw1, hw2, opRaw)

	default:
		if inst, ok := decodeDataProcessingImm32(hw1, hw2, opRaw); ok {
			return inst
		}
		return Instruction{Kind: UDF, Opcode: opRaw, Thumb32: true}
	}
}

// BL (T1): hw1 = 11110 S imm10, hw2 = 11 J1 1 J2 imm11.
func decodeBL(hw1, hw2 uint16, opRaw uint32) Instruction {
	s := uint32(bits.GetBits(hw1, 10, 11))
	imm10 := uint32(bits.GetBits(hw1, 0, 10))
	j1 := uint32(bits.GetBits(hw2, 13, 14))
	j2 := uint32(bits.GetBits(hw2, 11, 12))
	imm11 := uint32(bits.GetBits(hw2, 0, 11))

	i1 := uint32(1) ^ (j1 ^ s)
	i2 := uint32(1) ^ (j2 ^ s)
	imm := (uint32(s) << 24) | (i1 << 23) | (i2 << 22) | (imm10 << 12) | (imm11 << 1)
	offset := bits.SignExtend(imm, 24, 32)
	return Instruction{Kind: BL, Opcode: opRaw, Thumb32: true, Cond: cpu.CondAL, SImm: int32(offset)}
}

// MRS (T1): hw1 = 11110 0111110 1111, hw2 = 1000 Rd(4) SYSm(8).
func decodeMRS(hw1, hw2 uint16, opRaw uint32) Instruction {
	rd := int(bits.GetBits(hw2, 8, 12))
	sysm := uint8(bits.GetBits(hw2, 0, 8))
	return Instruction{Kind: MRS, Opcode: opRaw, Thumb32: true, Cond: cpu.CondAL, Rd: rd, SysReg: decodeSysm(sysm)}
}

// MSR (T1, register form): hw1 = 11110 0111000 Rn(4), hw2 = 1000 1000 SYSm(8).
func decodeMSR(hw1, hw2 uint16, opRaw uint32) Instruction {
	rn := int(bits.GetBits(hw1, 0, 4))
	sysm := uint8(bits.GetBits(hw2, 0, 8))
	return Instruction{Kind: MSR, Opcode: opRaw, Thumb32: true, Cond: cpu.CondAL, Rn: rn, SysReg: decodeSysm(sysm)}
}

func decodeSysm(sysm uint8) SpecialReg {
	switch sysm {
	case 0, 1, 2, 3:
		return SysRegAPSR
	case 5:
		return SysRegIPSR
	case 8:
		return SysRegMSP
	case 9:
		return SysRegPSP
	case 16:
		return SysRegPRIMASK
	case 20:
		return SysRegCONTROL
	default:
		return SysRegUnsupported
	}
}

// The memory-barrier/hint instructions all share the prefix F3AF 8Fxx;
// bits 7:4 of hw2 select DSB/DMB/ISB and the option in bits 3:0 is ignored.
func decodeHintBarrier(hw2 uint16, opRaw uint32) Instruction {
	switch bits.GetBits(hw2, 4, 8) {
	case 0x4:
		return Instruction{Kind: DSB, Opcode: opRaw, Thumb32: true, Cond: cpu.CondAL}
	case 0x5:
		return Instruction{Kind: DMB, Opcode: opRaw, Thumb32: true, Cond: cpu.CondAL}
	case 0x6:
		return Instruction{Kind: ISB, Opcode: opRaw, Thumb32: true, Cond: cpu.CondAL}
	default:
		return Instruction{Kind: UDF, Opcode: opRaw, Thumb32: true}
	}
}

// TBB/TBH: hw1 = 1110 1000 1101 Rn(4), hw2 = 1111 0000 000 H Rm(4).
func decodeTB(hw1, hw2 uint16, opRaw uint32) Instruction {
	if bits.GetBits(hw1, 4, 16) != 0b111010001101 {
		return Instruction{Kind: UDF, Opcode: opRaw, Thumb32: true}
	}
	rn := int(bits.GetBits(hw1, 0, 4))
	rm := int(bits.GetBits(hw2, 0, 4))
	h := bits.GetBit(hw2, 4)
	kind := TBBKind
	if h {
		kind = THKind
	}
	return Instruction{Kind: kind, Opcode: opRaw, Thumb32: true, Cond: cpu.CondAL, Rn: rn, Rm: rm}
}

// decodeDataProcessingImm32 covers the T32 modified-immediate
// data-processing forms: hw1 = 11110 i 0 op(4) S Rn(4), hw2 = 0 imm3 Rd(4) imm8.
// op selects ADD/SUB/MOV/CMP (the representative sample spec.md §4.5 names);
// other op values in this encoding family are left undecoded.
func decodeDataProcessingImm32(hw1, hw2 uint16, opRaw uint32) (Instruction, bool) {
	if bits.GetBit(hw1, 9) || bits.GetBit(hw2, 15) {
		return Instruction{}, false // bit9 (hw1) and bit15 (hw2) are 0 in this encoding family
	}
	i := uint32(bits.GetBits(hw1, 10, 11))
	op := bits.GetBits(hw1, 5, 9)
	s := bits.GetBit(hw1, 4)
	rn := int(bits.GetBits(hw1, 0, 4))

	imm3 := uint32(bits.GetBits(hw2, 12, 15))
	rd := int(bits.GetBits(hw2, 8, 12))
	imm8 := uint32(bits.GetBits(hw2, 0, 8))

	imm, carry := bits.ThumbExpandImm(i, imm3, imm8, false)
	inst := Instruction{Opcode: opRaw, Thumb32: true, Cond: cpu.CondAL, Rd: rd, Rn: rn, Imm: imm, SetFlags: s}

	switch op {
	case 0b1000: // ADD / CMN (Rd == 1111 && S)
		if rd == 0b1111 && s {
			inst.Kind = CMNImm // compare-discard: operand carried in Imm, not a register
			return inst, true
		}
		inst.Kind = ADDImm
		return inst, true
	case 0b1101: // SUB / CMP (Rd == 1111 && S)
		if rd == 0b1111 && s {
			inst.Kind = CMPImm
			return inst, true
		}
		inst.Kind = SUBImm
		return inst, true
	case 0b0010: // MOV (Rn == 1111) / ORR
		if rn == 0b1111 {
			inst.Kind = MOVImm
			inst.Carry = carry
			return inst, true
		}
		return Instruction{}, false
	default:
		return Instruction{}, false
	}
}
