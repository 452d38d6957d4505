package decoder

import (
	"github.com/lookbusy1344/cortexm-core/bits"
	"github.com/lookbusy1344/cortexm-core/cpu"
)

// decode16 dispatches a 16-bit Thumb half-word that is not one of the
// 32-bit-encoding prefixes (11101/11110/11111), covering the ARMv6-M base
// instruction set formats 1-19 plus IT, CBZ/CBNZ and CPS. Tie-breakers
// between overlapping shapes follow the ARM ARM's own bit-field
// partitioning, mirrored in the comments at each case.
func decode16(hw uint16) Instruction {
	switch bits.GetBits(hw, 13, 16) {
	case 0b000:
		if bits.GetBits(hw, 11, 13) == 0b11 {
			return decodeAddSub(hw)
		}
		return decodeShiftImm(hw)
	case 0b001:
		return decodeMovCmpAddSubImm(hw)
	case 0b010:
		return decode010(hw)
	case 0b011:
		return decodeLoadStoreImm(hw)
	case 0b100:
		if bits.GetBit(hw, 12) {
			return decodeSPRelative(hw)
		}
		return decodeLoadStoreHalfword(hw)
	case 0b101:
		if bits.GetBit(hw, 12) {
			return decode1011(hw)
		}
		return decodeLoadAddress(hw)
	case 0b110:
		if bits.GetBit(hw, 12) {
			return decodeCondBranchOrSVC(hw)
		}
		return decodeLoadStoreMultiple(hw)
	case 0b111:
		return decode111(hw)
	}
	return Instruction{Kind: UDF, Opcode: uint32(hw)}
}

func udf16(hw uint16) Instruction {
	return Instruction{Kind: UDF, Opcode: uint32(hw)}
}

// Format 1: move shifted register. 000 op(2) imm5(5) Rm(3) Rd(3).
func decodeShiftImm(hw uint16) Instruction {
	op := bits.GetBits(hw, 11, 13)
	imm5 := int(bits.GetBits(hw, 6, 11))
	rm := int(bits.GetBits(hw, 3, 6))
	rd := int(bits.GetBits(hw, 0, 3))

	var kind Kind
	var typ bits.ShiftType
	var amount int
	switch op {
	case 0b00:
		kind, typ, amount = LSLImm, bits.ShiftLSL, imm5
	case 0b01:
		kind = LSRImm
		typ, amount = bits.DecodeImmShift(1, uint8(imm5))
	case 0b10:
		kind = ASRImm
		typ, amount = bits.DecodeImmShift(2, uint8(imm5))
	default:
		return udf16(hw)
	}
	return Instruction{
		Kind: kind, Opcode: uint32(hw), Cond: cpu.CondAL,
		Rd: rd, Rm: rm, ShiftType: typ, ShiftAmount: amount, Imm5: imm5,
		SetFlags: true,
	}
}

// Format 2: add/subtract. 00011 I op Rn/imm3(3) Rs(3) Rd(3).
func decodeAddSub(hw uint16) Instruction {
	imm := bits.GetBit(hw, 10)
	isSub := bits.GetBit(hw, 9)
	rnOrImm := int(bits.GetBits(hw, 6, 9))
	rs := int(bits.GetBits(hw, 3, 6))
	rd := int(bits.GetBits(hw, 0, 3))

	inst := Instruction{Opcode: uint32(hw), Cond: cpu.CondAL, Rd: rd, Rn: rs, SetFlags: true}
	if imm {
		inst.Imm = uint32(rnOrImm)
		if isSub {
			inst.Kind = SUBImm3
		} else {
			inst.Kind = ADDImm3
		}
		return inst
	}
	inst.Rm = rnOrImm
	if isSub {
		inst.Kind = SUBReg
	} else {
		inst.Kind = ADDReg
	}
	return inst
}

// Format 3: move/compare/add/subtract immediate. 001 op(2) Rd/Rn(3) imm8.
func decodeMovCmpAddSubImm(hw uint16) Instruction {
	op := bits.GetBits(hw, 11, 13)
	rdn := int(bits.GetBits(hw, 8, 11))
	imm8 := uint32(bits.GetBits(hw, 0, 8))

	inst := Instruction{Opcode: uint32(hw), Cond: cpu.CondAL, Imm: imm8, SetFlags: true}
	switch op {
	case 0b00:
		inst.Kind, inst.Rd = MOVImm, rdn
	case 0b01:
		inst.Kind, inst.Rn = CMPImm, rdn
	case 0b10:
		inst.Kind, inst.Rd, inst.Rn = ADDImm, rdn, rdn
	case 0b11:
		inst.Kind, inst.Rd, inst.Rn = SUBImm, rdn, rdn
	}
	return inst
}

// bits[15:10] == 010000 (format 4), 010001 (format 5), 01001x (format 6).
func decode010(hw uint16) Instruction {
	switch bits.GetBits(hw, 10, 16) {
	case 0b010000:
		return decodeALUReg(hw)
	case 0b010001:
		return decodeHiReg(hw)
	default:
		if bits.GetBits(hw, 11, 13) == 0b01 {
			return decodePCRelativeLoad(hw)
		}
		return decodeLoadStoreReg(hw)
	}
}

// Format 4: ALU operations (register-register, two-operand). 010000 op(4) Rs(3) Rd(3).
func decodeALUReg(hw uint16) Instruction {
	op := bits.GetBits(hw, 6, 10)
	rs := int(bits.GetBits(hw, 3, 6))
	rd := int(bits.GetBits(hw, 0, 3))

	inst := Instruction{Opcode: uint32(hw), Cond: cpu.CondAL, Rd: rd, Rn: rd, Rm: rs, SetFlags: true}
	switch op {
	case 0x0:
		inst.Kind = ANDReg
	case 0x1:
		inst.Kind = EORReg
	case 0x2:
		inst.Kind, inst.ShiftType = LSLReg, bits.ShiftLSL
	case 0x3:
		inst.Kind, inst.ShiftType = LSRReg, bits.ShiftLSR
	case 0x4:
		inst.Kind, inst.ShiftType = ASRReg, bits.ShiftASR
	case 0x5:
		inst.Kind = ADCReg
	case 0x6:
		inst.Kind = SBCReg
	case 0x7:
		inst.Kind, inst.ShiftType = RORReg, bits.ShiftROR
	case 0x8:
		inst.Kind, inst.Rn, inst.Rd = TSTReg, rd, 0
		inst.Rm = rs
	case 0x9:
		// NEG Rd, Rs == RSB Rd, Rs, #0
		inst.Kind, inst.Rn, inst.Rm = RSBImm, rs, 0
		inst.Imm = 0
	case 0xA:
		inst.Kind, inst.Rn, inst.Rm = CMPReg, rd, rs
	case 0xB:
		inst.Kind, inst.Rn, inst.Rm = CMNReg, rd, rs
	case 0xC:
		inst.Kind = ORRReg
	case 0xD:
		inst.Kind, inst.Rn, inst.Rm = MULReg, rd, rs
	case 0xE:
		inst.Kind = BICReg
	case 0xF:
		inst.Kind, inst.Rm = MVNReg, rs
	}
	return inst
}

// Format 5: hi register operations / branch exchange. 010001 op(2) H1 H2 Rs(3) Rd(3).
func decodeHiReg(hw uint16) Instruction {
	op := bits.GetBits(hw, 8, 10)
	h1 := bits.GetBit(hw, 7)
	h2 := bits.GetBit(hw, 6)
	rs := int(bits.GetBits(hw, 3, 6))
	rd := int(bits.GetBits(hw, 0, 3))
	if h1 {
		rd += 8
	}
	if h2 {
		rs += 8
	}

	switch op {
	case 0b00:
		return Instruction{Kind: ADDRegHi, Opcode: uint32(hw), Cond: cpu.CondAL, Rd: rd, Rn: rd, Rm: rs}
	case 0b01:
		return Instruction{Kind: CMPRegHi, Opcode: uint32(hw), Cond: cpu.CondAL, Rn: rd, Rm: rs}
	case 0b10:
		return Instruction{Kind: MOVRegHi, Opcode: uint32(hw), Cond: cpu.CondAL, Rd: rd, Rm: rs}
	default: // 0b11: BX/BLX
		if h1 {
			return Instruction{Kind: BLXReg, Opcode: uint32(hw), Cond: cpu.CondAL, Rm: rs}
		}
		return Instruction{Kind: BX, Opcode: uint32(hw), Cond: cpu.CondAL, Rm: rs}
	}
}

// Format 6: PC-relative load. 01001 Rd(3) imm8.
func decodePCRelativeLoad(hw uint16) Instruction {
	rd := int(bits.GetBits(hw, 8, 11))
	imm8 := uint32(bits.GetBits(hw, 0, 8))
	return Instruction{Kind: LDRLiteral, Opcode: uint32(hw), Cond: cpu.CondAL, Rd: rd, Imm: imm8 * 4, Add: true}
}

// Formats 7/8: load/store with register offset. 0101 ... Ro(3) Rb(3) Rd(3).
func decodeLoadStoreReg(hw uint16) Instruction {
	ro := int(bits.GetBits(hw, 6, 9))
	rb := int(bits.GetBits(hw, 3, 6))
	rd := int(bits.GetBits(hw, 0, 3))
	inst := Instruction{Opcode: uint32(hw), Cond: cpu.CondAL, Rt: rd, Rn: rb, Rm: ro, Index: true, Add: true}

	if !bits.GetBit(hw, 9) {
		// Format 7: bit9=0. L=bit11, B=bit10.
		l := bits.GetBit(hw, 11)
		b := bits.GetBit(hw, 10)
		switch {
		case l && b:
			inst.Kind = LDRBReg
		case l && !b:
			inst.Kind = LDRReg
		case !l && b:
			inst.Kind = STRBReg
		default:
			inst.Kind = STRReg
		}
		return inst
	}

	// Format 8: bit9=1. H=bit11, S=bit10.
	h := bits.GetBit(hw, 11)
	s := bits.GetBit(hw, 10)
	switch {
	case !s && !h:
		inst.Kind = STRHReg
	case !s && h:
		inst.Kind = LDRHReg
	case s && !h:
		inst.Kind = LDRSBReg
	default:
		inst.Kind = LDRSHReg
	}
	return inst
}

// Format 9: load/store with immediate offset. 011 B L imm5(5) Rb(3) Rd(3).
func decodeLoadStoreImm(hw uint16) Instruction {
	b := bits.GetBit(hw, 12)
	l := bits.GetBit(hw, 11)
	imm5 := uint32(bits.GetBits(hw, 6, 11))
	rb := int(bits.GetBits(hw, 3, 6))
	rd := int(bits.GetBits(hw, 0, 3))

	inst := Instruction{Opcode: uint32(hw), Cond: cpu.CondAL, Rt: rd, Rn: rb, Index: true, Add: true}
	if b {
		inst.Imm = imm5
	} else {
		inst.Imm = imm5 * 4
	}
	switch {
	case l && b:
		inst.Kind = LDRBImm
	case l && !b:
		inst.Kind = LDRImm
	case !l && b:
		inst.Kind = STRBImm
	default:
		inst.Kind = STRImm
	}
	return inst
}

// Format 10: load/store halfword. 1000 L imm5(5) Rb(3) Rd(3).
func decodeLoadStoreHalfword(hw uint16) Instruction {
	l := bits.GetBit(hw, 11)
	imm5 := uint32(bits.GetBits(hw, 6, 11))
	rb := int(bits.GetBits(hw, 3, 6))
	rd := int(bits.GetBits(hw, 0, 3))
	inst := Instruction{Opcode: uint32(hw), Cond: cpu.CondAL, Rt: rd, Rn: rb, Imm: imm5 * 2, Index: true, Add: true}
	if l {
		inst.Kind = LDRHImm
	} else {
		inst.Kind = STRHImm
	}
	return inst
}

// Format 11: SP-relative load/store. 1001 L Rd(3) imm8.
func decodeSPRelative(hw uint16) Instruction {
	l := bits.GetBit(hw, 11)
	rd := int(bits.GetBits(hw, 8, 11))
	imm8 := uint32(bits.GetBits(hw, 0, 8))
	inst := Instruction{Opcode: uint32(hw), Cond: cpu.CondAL, Rt: rd, Rn: cpu.SP, Imm: imm8 * 4, Index: true, Add: true}
	if l {
		inst.Kind = LDRSPImm
	} else {
		inst.Kind = STRSPImm
	}
	return inst
}

// Format 12: load address. 1010 SP Rd(3) imm8.
func decodeLoadAddress(hw uint16) Instruction {
	sp := bits.GetBit(hw, 11)
	rd := int(bits.GetBits(hw, 8, 11))
	imm8 := uint32(bits.GetBits(hw, 0, 8))
	if sp {
		return Instruction{Kind: ADDSPImm, Opcode: uint32(hw), Cond: cpu.CondAL, Rd: rd, Imm: imm8 * 4}
	}
	return Instruction{Kind: ADR, Opcode: uint32(hw), Cond: cpu.CondAL, Rd: rd, Imm: imm8 * 4}
}

// The 1011-prefixed group (bits[15:12] == 1011) dispatches on bits[11:8]:
// format 13 (add/sub SP, SP, #imm), push/pop, CBZ/CBNZ, CPS, BKPT, IT/hints.
func decode1011(hw uint16) Instruction {
	nibble := bits.GetBits(hw, 8, 12)
	switch {
	case nibble == 0x0:
		return decodeAddSubSP(hw)
	case nibble == 0x4 || nibble == 0x5:
		return decodePushPop(hw, false)
	case nibble == 0xC || nibble == 0xD:
		return decodePushPop(hw, true)
	case nibble == 0x1 || nibble == 0x3 || nibble == 0x9 || nibble == 0xB:
		return decodeCBZ(hw)
	case nibble == 0x6:
		return decodeCPS(hw)
	case nibble == 0xE:
		return Instruction{Kind: BKPT, Opcode: uint32(hw), Cond: cpu.CondAL, Imm8: uint8(bits.GetBits(hw, 0, 8))}
	case nibble == 0xF:
		return decodeITOrHint(hw)
	default:
		return udf16(hw)
	}
}

// Format 13: add/sub offset to SP. 1011 0000 S imm7.
func decodeAddSubSP(hw uint16) Instruction {
	s := bits.GetBit(hw, 7)
	imm7 := uint32(bits.GetBits(hw, 0, 7))
	inst := Instruction{Kind: ADDSPImm7, Opcode: uint32(hw), Cond: cpu.CondAL, Imm: imm7 * 4}
	if s {
		inst.SImm = -int32(inst.Imm)
	} else {
		inst.SImm = int32(inst.Imm)
	}
	return inst
}

// Format 14: push/pop register list. 1011 L10 R Rlist(8).
func decodePushPop(hw uint16, pop bool) Instruction {
	r := bits.GetBit(hw, 8)
	rlist := uint16(bits.GetBits(hw, 0, 8))
	if r {
		if pop {
			rlist |= 1 << cpu.PC
		} else {
			rlist |= 1 << cpu.LR
		}
	}
	kind := PUSH
	if pop {
		kind = POP
	}
	return Instruction{Kind: kind, Opcode: uint32(hw), Cond: cpu.CondAL, RegList: rlist}
}

// CBZ/CBNZ: 1011 op 0 i 1 imm5(5) Rn(3).
func decodeCBZ(hw uint16) Instruction {
	op := bits.GetBit(hw, 11)
	i := bits.GetBit(hw, 9)
	imm5 := uint32(bits.GetBits(hw, 3, 8))
	rn := int(bits.GetBits(hw, 0, 3))
	var iBit uint32
	if i {
		iBit = 1
	}
	offset := (iBit<<5 | imm5) << 1
	kind := CBZKind
	if op {
		kind = CBNZKind
	}
	return Instruction{Kind: kind, Opcode: uint32(hw), Cond: cpu.CondAL, Rn: rn, Imm: offset}
}

// CPS: 1011 0110 011 im 000. Only PRIMASK (the I bit) is modeled per
// spec.md's ARMv6-M scope; the A/F bit positions are SBZ here.
func decodeCPS(hw uint16) Instruction {
	im := bits.GetBit(hw, 4)
	if im {
		return Instruction{Kind: CPSID, Opcode: uint32(hw), Cond: cpu.CondAL}
	}
	return Instruction{Kind: CPSIE, Opcode: uint32(hw), Cond: cpu.CondAL}
}

// IT and the hint instructions share the 10111111 prefix: mask==0 selects a
// hint (NOP/YIELD/WFE/WFI/SEV by firstcond value), mask!=0 is IT.
func decodeITOrHint(hw uint16) Instruction {
	firstcond := uint8(bits.GetBits(hw, 4, 8))
	mask := uint8(bits.GetBits(hw, 0, 4))
	if mask == 0 {
		switch firstcond {
		case 0x0:
			return Instruction{Kind: NOP, Opcode: uint32(hw), Cond: cpu.CondAL}
		case 0x1:
			return Instruction{Kind: YIELD, Opcode: uint32(hw), Cond: cpu.CondAL}
		case 0x2:
			return Instruction{Kind: WFE, Opcode: uint32(hw), Cond: cpu.CondAL}
		case 0x3:
			return Instruction{Kind: WFI, Opcode: uint32(hw), Cond: cpu.CondAL}
		case 0x4:
			return Instruction{Kind: SEV, Opcode: uint32(hw), Cond: cpu.CondAL}
		default:
			// Reserved hint encodings execute as NOP per the ARM ARM.
			return Instruction{Kind: NOP, Opcode: uint32(hw), Cond: cpu.CondAL}
		}
	}
	return Instruction{
		Kind: IT, Opcode: uint32(hw), Cond: cpu.ConditionCode(firstcond),
		Imm: uint32(mask),
	}
}

// Format 15: multiple load/store. 1100 L Rb(3) Rlist(8).
func decodeLoadStoreMultiple(hw uint16) Instruction {
	l := bits.GetBit(hw, 11)
	rb := int(bits.GetBits(hw, 8, 11))
	rlist := uint16(bits.GetBits(hw, 0, 8))
	kind := STM
	if l {
		kind = LDM
	}
	return Instruction{Kind: kind, Opcode: uint32(hw), Cond: cpu.CondAL, Rn: rb, RegList: rlist, Wback: true, Add: true}
}

// Format 16/17: conditional branch, or SVC when cond==1111.
func decodeCondBranchOrSVC(hw uint16) Instruction {
	cond := uint8(bits.GetBits(hw, 8, 12))
	imm8 := uint32(bits.GetBits(hw, 0, 8))
	if cond == 0xF {
		return Instruction{Kind: SVC, Opcode: uint32(hw), Cond: cpu.CondAL, Imm8: uint8(imm8)}
	}
	if cond == 0xE {
		return udf16(hw) // permanently undefined encoding (ARM ARM)
	}
	offset := bits.SignExtend(imm8<<1, 8, 32)
	return Instruction{Kind: BCond, Opcode: uint32(hw), Cond: cpu.ConditionCode(cond), SImm: int32(offset)}
}

// Format 18: unconditional branch. 11100 offset11.
// The 11101/11110/11111 prefixes are 32-bit encodings that the outer
// Decode() routes to decode32, so decode111 is reached only for 11100.
func decode111(hw uint16) Instruction {
	imm11 := uint32(bits.GetBits(hw, 0, 11))
	offset := bits.SignExtend(imm11<<1, 11, 32)
	return Instruction{Kind: B, Opcode: uint32(hw), Cond: cpu.CondAL, SImm: int32(offset)}
}
