package bits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBitsRightAligned(t *testing.T) {
	assert.Equal(t, uint32(0xFFFFFFFF), GetBits(uint32(0xFFFFFFFF), 0, 32))
	assert.Equal(t, uint32(0b11), GetBits(uint32(0xC000), 14, 16))
}

func TestSetBitsRoundTrip(t *testing.T) {
	var v uint32 = 0xDEADBEEF
	SetBits(&v, 4, 12, 0xAB)
	require.Equal(t, uint32(0xAB), GetBits(v, 4, 12))
	// untouched bits outside the range survive
	assert.Equal(t, uint32(0xF), GetBits(v, 0, 4))
}

func TestSetBitSingle(t *testing.T) {
	var v uint16 = 0
	SetBit(&v, 3, true)
	assert.True(t, GetBit(v, 3))
	assert.False(t, GetBit(v, 2))
	SetBit(&v, 3, false)
	assert.False(t, GetBit(v, 3))
}

func TestAddWithCarryUnsignedOverflow(t *testing.T) {
	result, carry, overflow := AddWithCarry(0xFFFFFFFF, 1, false)
	assert.Equal(t, uint32(0), result)
	assert.True(t, carry)
	assert.False(t, overflow)
}

func TestAddWithCarrySignedOverflow(t *testing.T) {
	result, carry, overflow := AddWithCarry(0x7FFFFFFF, 1, false)
	assert.Equal(t, uint32(0x80000000), result)
	assert.False(t, carry)
	assert.True(t, overflow)
}

func TestAddWithCarryAsSubtraction(t *testing.T) {
	// x - y == AddWithCarry(x, ^y, true); borrow = !carryOut
	x, y := uint32(10), uint32(3)
	result, carry, _ := AddWithCarry(x, ^y, true)
	assert.Equal(t, x-y, result)
	assert.True(t, carry) // no borrow: x >= y
}

func TestSignExtend(t *testing.T) {
	assert.Equal(t, uint32(0xFFFFFFFF), SignExtend(0xFF, 7, 32))
	assert.Equal(t, uint32(0x7F), SignExtend(0x7F, 7, 32))
}

func TestShiftCLSL(t *testing.T) {
	result, carry := ShiftC(0x80000001, ShiftLSL, 1, false)
	assert.Equal(t, uint32(2), result)
	assert.True(t, carry)
}

func TestShiftCLSRZeroMeansThirtyTwo(t *testing.T) {
	typ, amount := DecodeImmShift(1, 0)
	assert.Equal(t, ShiftLSR, typ)
	assert.Equal(t, 32, amount)

	result, carry := ShiftC(0x80000000, typ, amount, false)
	assert.Equal(t, uint32(0), result)
	assert.True(t, carry)
}

func TestDecodeImmShiftRRX(t *testing.T) {
	typ, amount := DecodeImmShift(3, 0)
	assert.Equal(t, ShiftRRX, typ)
	assert.Equal(t, 1, amount)
}

func TestThumbExpandImmReplicated(t *testing.T) {
	result, _ := ThumbExpandImm(0, 0b001, 0xAB, false)
	assert.Equal(t, uint32(0x00AB00AB), result)
}

func TestThumbExpandImmSmall(t *testing.T) {
	result, _ := ThumbExpandImm(0, 0, 0x42, false)
	assert.Equal(t, uint32(0x42), result)
}

func TestThumbExpandImmRotate(t *testing.T) {
	// i=1, imm3=0b100, imm8 = 1000_0001 -> rotate = 1<<4|4<<1|1 = 25
	result, carry := ThumbExpandImm(1, 0b100, 0b1000_0001, false)
	unrotated := uint32(0x80) | 0x01
	want, wantCarry := ShiftC(unrotated, ShiftROR, 25, false)
	assert.Equal(t, want, result)
	assert.Equal(t, wantCarry, carry)
}
