package decoder

import (
	"errors"
	"testing"

	"github.com/lookbusy1344/cortexm-core/cpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeNoFetch(t *testing.T, hw uint16) Instruction {
	t.Helper()
	inst, err := Decode(hw, func() (uint16, error) {
		t.Fatal("fetchNext called for a 16-bit encoding")
		return 0, nil
	})
	require.NoError(t, err)
	return inst
}

func TestDecodeLSLImm(t *testing.T) {
	// LSL R0, R1, #3 -> 000 00 00011 001 000
	inst := decodeNoFetch(t, 0b0000000011001000)
	assert.Equal(t, LSLImm, inst.Kind)
	assert.Equal(t, 0, inst.Rd)
	assert.Equal(t, 1, inst.Rm)
	assert.Equal(t, 3, inst.ShiftAmount)
}

func TestDecodeMOVImm(t *testing.T) {
	// MOV R3, #0x42 -> 001 00 011 01000010
	hw := uint16(0b0010_0_011_01000010)
	inst := decodeNoFetch(t, hw)
	assert.Equal(t, MOVImm, inst.Kind)
	assert.Equal(t, 3, inst.Rd)
	assert.Equal(t, uint32(0x42), inst.Imm)
}

func TestDecodeBX(t *testing.T) {
	// BX LR -> 010001 11 0 1 110 000 (H2=1, Rs=110 selects R14/LR)
	hw := uint16(0b010001_11_0_1_110_000)
	inst := decodeNoFetch(t, hw)
	assert.Equal(t, BX, inst.Kind)
	assert.Equal(t, cpu.LR, inst.Rm)
}

func TestDecodeBLXReg(t *testing.T) {
	// BLX R2 -> 010001 11 1 0 010 000
	hw := uint16(0b010001_11_1_0_010_000)
	inst := decodeNoFetch(t, hw)
	assert.Equal(t, BLXReg, inst.Kind)
	assert.Equal(t, 2, inst.Rm)
}

func TestDecodePushWithLR(t *testing.T) {
	// PUSH {R4, LR} -> 1011 0010 1 00010000
	hw := uint16(0b1011_0_10_1_00010000)
	inst := decodeNoFetch(t, hw)
	assert.Equal(t, PUSH, inst.Kind)
	assert.True(t, inst.RegList&(1<<4) != 0)
	assert.True(t, inst.RegList&(1<<cpu.LR) != 0)
}

func TestDecodePopWithPC(t *testing.T) {
	// POP {R0, PC} -> 1011 1101 1 00000001
	hw := uint16(0b1011_1_10_1_00000001)
	inst := decodeNoFetch(t, hw)
	assert.Equal(t, POP, inst.Kind)
	assert.True(t, inst.RegList&1 != 0)
	assert.True(t, inst.RegList&(1<<cpu.PC) != 0)
}

func TestDecodeCBZ(t *testing.T) {
	// CBZ R0, #4 -> 1011 0 0 0 1 00010 000
	hw := uint16(0b1011_0_0_0_1_00010_000)
	inst := decodeNoFetch(t, hw)
	assert.Equal(t, CBZKind, inst.Kind)
	assert.Equal(t, 0, inst.Rn)
	assert.Equal(t, uint32(4), inst.Imm)
}

func TestDecodeITBlock(t *testing.T) {
	// ITT EQ -> 1011 1111 0000 0100 (firstcond=EQ=0, mask=0b0100)
	hw := uint16(0b1011_1111_0000_0100)
	inst := decodeNoFetch(t, hw)
	assert.Equal(t, IT, inst.Kind)
	assert.Equal(t, cpu.CondEQ, inst.Cond)
	assert.Equal(t, uint32(0b0100), inst.Imm)
}

func TestDecodeSVC(t *testing.T) {
	// SVC #0x12 -> 1101 1111 00010010
	hw := uint16(0b1101_1111_00010010)
	inst := decodeNoFetch(t, hw)
	assert.Equal(t, SVC, inst.Kind)
	assert.Equal(t, uint8(0x12), inst.Imm8)
}

func TestDecodeBKPT(t *testing.T) {
	// BKPT #0xAB -> 1011 1110 10101011
	hw := uint16(0b1011_1110_10101011)
	inst := decodeNoFetch(t, hw)
	assert.Equal(t, BKPT, inst.Kind)
	assert.Equal(t, uint8(0xAB), inst.Imm8)
}

func TestDecodeUnconditionalBranch(t *testing.T) {
	// B #-2 (imm11 all ones -> offset -2) -> 11100 11111111111
	hw := uint16(0b11100_11111111111)
	inst := decodeNoFetch(t, hw)
	assert.Equal(t, B, inst.Kind)
	assert.Equal(t, int32(-2), inst.SImm)
}

func TestDecodePermanentlyUndefined(t *testing.T) {
	// bits[15:12]=1101 cond=1110 is UDF (permanently undefined, ARM ARM).
	hw := uint16(0b1101_1110_00000000)
	inst := decodeNoFetch(t, hw)
	assert.Equal(t, UDF, inst.Kind)
}

func TestDecodeUnrecognizedIsUDF(t *testing.T) {
	// bits[12:11] of the format-1 group reserved for a Thumb-1 opcode that
	// doesn't exist (shift type 0b11 is the add/sub group, already routed
	// away); use a genuinely empty format-14 nibble instead.
	hw := uint16(0b1011_0111_00000000) // nibble 0x7: not assigned
	inst := decodeNoFetch(t, hw)
	assert.Equal(t, UDF, inst.Kind)
}

func TestDecode32BitFetchesSecondHalfword(t *testing.T) {
	// BL with a trivial forward offset. hw1 = 11110 S imm10, hw2 = 11 J1 1 J2 imm11.
	hw1 := uint16(0b11110_0_0000000000)
	hw2 := uint16(0b11_1_1_1_00000000000)
	called := false
	inst, err := Decode(hw1, func() (uint16, error) {
		called = true
		return hw2, nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, BL, inst.Kind)
	assert.True(t, inst.Thumb32)
}

func TestDecode32PropagatesFetchError(t *testing.T) {
	hw1 := uint16(0b11110_0_0000000000)
	wantErr := errors.New("bus fault")
	_, err := Decode(hw1, func() (uint16, error) {
		return 0, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestDecodeMRS(t *testing.T) {
	hw1 := uint16(0xF3EF) // 11110 0111110 1111
	hw2 := uint16(0x8005) // 1000 Rd=0000 SYSm=00000101 (IPSR)
	inst, err := Decode(hw1, func() (uint16, error) { return hw2, nil })
	require.NoError(t, err)
	assert.Equal(t, MRS, inst.Kind)
	assert.Equal(t, 0, inst.Rd)
	assert.Equal(t, SysRegIPSR, inst.SysReg)
}

func TestDecodeMSRUnsupportedSysm(t *testing.T) {
	hw1 := uint16(0xF380) // 11110 0111000 Rn=0000
	hw2 := uint16(0x88FF) // 1000 1000 SYSm=11111111, unsupported
	inst, err := Decode(hw1, func() (uint16, error) { return hw2, nil })
	require.NoError(t, err)
	assert.Equal(t, MSR, inst.Kind)
	assert.Equal(t, SysRegUnsupported, inst.SysReg)
}

func TestDecodeTBB(t *testing.T) {
	hw1 := uint16(0b1110_1000_1101_0001) // Rn=1
	hw2 := uint16(0b1111_0000_0000_0010) // H=0, Rm=2
	inst, err := Decode(hw1, func() (uint16, error) { return hw2, nil })
	require.NoError(t, err)
	assert.Equal(t, TBBKind, inst.Kind)
	assert.Equal(t, 1, inst.Rn)
	assert.Equal(t, 2, inst.Rm)
}

func TestDecodeDMB(t *testing.T) {
	hw1 := uint16(0xF3AF)
	hw2 := uint16(0x8F50) // bits 7:4 = 0x5 -> DMB
	inst, err := Decode(hw1, func() (uint16, error) { return hw2, nil })
	require.NoError(t, err)
	assert.Equal(t, DMB, inst.Kind)
}

func TestDecodeThumb2ModifiedImmAdd(t *testing.T) {
	// ADD.W R0, R1, #0x42: hw1 = 11110 i=0 0 1000 S=0 Rn=0001, hw2 = 0 imm3=000 Rd=0000 imm8=01000010
	hw1 := uint16(0b11110_0_0_1000_0_0001)
	hw2 := uint16(0b0_000_0000_01000010)
	inst, err := Decode(hw1, func() (uint16, error) { return hw2, nil })
	require.NoError(t, err)
	assert.Equal(t, ADDImm, inst.Kind)
	assert.Equal(t, 1, inst.Rn)
	assert.Equal(t, 0, inst.Rd)
	assert.Equal(t, uint32(0x42), inst.Imm)
}

func TestDecodeThumb2ModifiedImmCMN(t *testing.T) {
	// CMN.W R1, #0xFF: same op as ADD (0b1000) but Rd==1111 && S==1.
	hw1 := uint16(0b11110_0_0_1000_1_0001)
	hw2 := uint16(0b0_000_1111_11111111)
	inst, err := Decode(hw1, func() (uint16, error) { return hw2, nil })
	require.NoError(t, err)
	assert.Equal(t, CMNImm, inst.Kind)
	assert.Equal(t, 1, inst.Rn)
	assert.Equal(t, uint32(0xFF), inst.Imm)
}

func TestDecodeThumb2ModifiedImmMOVCarriesExpandCarry(t *testing.T) {
	// MOV.W R0, #0x81000000 (rotated-immediate form: i=0, imm3=0b100,
	// imm8=0x01 -> ROR(0x81, 8), whose carry-out is bit7 of the unrotated
	// value, which is always 1 by construction).
	hw1 := uint16(0b11110_0_0_0010_1_1111)
	hw2 := uint16(0b0_100_0000_00000001)
	inst, err := Decode(hw1, func() (uint16, error) { return hw2, nil })
	require.NoError(t, err)
	assert.Equal(t, MOVImm, inst.Kind)
	assert.Equal(t, uint32(0x81000000), inst.Imm)
	assert.True(t, inst.Carry)
}

func TestDecodeWidthMatchesEncoding(t *testing.T) {
	inst16 := decodeNoFetch(t, 0)
	assert.Equal(t, uint32(2), inst16.Width())

	hw1 := uint16(0xF3AF)
	inst32, err := Decode(hw1, func() (uint16, error) { return 0x8F40, nil })
	require.NoError(t, err)
	assert.Equal(t, uint32(4), inst32.Width())
}

func TestDecodeIsPureFunctionOfBits(t *testing.T) {
	hw := uint16(0b0100000010_001_010)
	a := decodeNoFetch(t, hw)
	b := decodeNoFetch(t, hw)
	assert.Equal(t, a, b)
}
