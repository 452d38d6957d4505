package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPCReadsCurrentPlusFour(t *testing.T) {
	c := NewCore()
	c.SetPC(0x1000)
	assert.Equal(t, uint32(0x1004), c.GetR(PC))
	assert.Equal(t, uint32(0x1000), c.PC())
}

func TestStackPointerBanking(t *testing.T) {
	c := NewCore()
	c.SetMSP(0x2000_1000)
	c.SetPSP(0x2000_2000)

	assert.Equal(t, uint32(0x2000_1000), c.GetR(SP))

	c.Control.SPSEL = true
	assert.Equal(t, uint32(0x2000_2000), c.GetR(SP))

	c.SetR(SP, 0x2000_2FF0)
	assert.Equal(t, uint32(0x2000_2FF0), c.PSP())
	assert.Equal(t, uint32(0x2000_1000), c.MSP())
}

func TestBranchWritePCClearsLowBit(t *testing.T) {
	c := NewCore()
	c.BranchWritePC(0x1045)
	assert.Equal(t, uint32(0x1044), c.PC())
}

func TestBxWritePCSelectsThumbState(t *testing.T) {
	c := NewCore()
	c.ThumbState = false
	c.BxWritePC(0x2001)
	assert.True(t, c.ThumbState)
	assert.Equal(t, uint32(0x2000), c.PC())
}

func TestConditionPassedWithoutITBlock(t *testing.T) {
	c := NewCore()
	assert.True(t, c.ConditionPassed())
}

func TestConditionPassedBEQ(t *testing.T) {
	c := NewCore()
	c.APSR.Z = true
	assert.True(t, c.ConditionPassedB(CondEQ))
	c.APSR.Z = false
	assert.False(t, c.ConditionPassedB(CondEQ))
}

func TestITBlockAdvancesAfterEachInstruction(t *testing.T) {
	c := NewCore()
	c.APSR.Z = true
	// ITT EQ: firstcond=EQ, two-instruction mask with x=0 (both Then, no
	// condition flip expected here; TestAdvanceITFlipsConditionOnElse below
	// covers the x=1 Else case).
	c.SetITState(uint8(CondEQ)<<4 | 0b0100)

	cond, active := c.ITCondition()
	assert.True(t, active)
	assert.Equal(t, uint8(CondEQ), cond)
	assert.True(t, c.ConditionPassed())

	c.AdvanceIT()
	_, active = c.ITCondition()
	assert.True(t, active, "block still has one instruction left")

	c.AdvanceIT()
	_, active = c.ITCondition()
	assert.False(t, active, "block cleared after its instruction count")
}

// TestAdvanceITFlipsConditionOnElse covers ITE EQ; MOVEQ r0,#1; MOVNE
// r0,#2: the sentinel bit migrating out of the mask must become the
// condition's new LSB, turning EQ into NE for the Else instruction.
func TestAdvanceITFlipsConditionOnElse(t *testing.T) {
	c := NewCore()
	c.SetITState(uint8(CondEQ)<<4 | 0b1100) // ITE EQ: mask x100, x=1 (else)

	cond, active := c.ITCondition()
	assert.True(t, active)
	assert.Equal(t, uint8(CondEQ), cond)

	c.AdvanceIT()
	cond, active = c.ITCondition()
	assert.True(t, active, "block still has its Else instruction left")
	assert.Equal(t, uint8(CondNE), cond, "condition must flip across Then/Else")

	c.AdvanceIT()
	_, active = c.ITCondition()
	assert.False(t, active, "block cleared after its instruction count")
}

func TestSetNZ(t *testing.T) {
	var a APSR
	a.SetNZ(0)
	assert.True(t, a.Z)
	assert.False(t, a.N)

	a.SetNZ(0x80000000)
	assert.False(t, a.Z)
	assert.True(t, a.N)
}
