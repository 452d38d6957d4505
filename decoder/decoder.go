package decoder

import "github.com/lookbusy1344/cortexm-core/bits"

// Decode turns one instruction's encoding into an Instruction. hw1 is the
// first halfword fetched at the current PC. If hw1's top five bits mark it
// as a 32-bit Thumb-2 encoding (ARM ARM A5.1: 0b11101, 0b11110 or 0b11111),
// Decode calls fetchNext to obtain the second halfword before dispatching;
// fetchNext's error (typically a bus fault at PC+2) is returned unchanged
// so the executor can turn it into exception.FaultBusError. Otherwise
// Decode dispatches directly to the 16-bit decoder and never calls
// fetchNext.
func Decode(hw1 uint16, fetchNext func() (uint16, error)) (Instruction, error) {
	top5 := bits.GetBits(hw1, 11, 16)
	if top5 == 0b11101 || top5 == 0b11110 || top5 == 0b11111 {
		hw2, err := fetchNext()
		if err != nil {
			return Instruction{}, err
		}
		return decode32(hw1, hw2), nil
	}
	return decode16(hw1), nil
}
