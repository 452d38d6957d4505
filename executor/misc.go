package executor

import (
	"github.com/lookbusy1344/cortexm-core/bus"
	"github.com/lookbusy1344/cortexm-core/cpu"
	"github.com/lookbusy1344/cortexm-core/decoder"
	"github.com/lookbusy1344/cortexm-core/exception"
	"github.com/lookbusy1344/cortexm-core/semihost"
)

// semihostImmediate is the ARM-reserved BKPT immediate for the semihosting
// calling convention (r0=operation, r1=argument-block pointer).
const semihostImmediate = 0xAB

// execBKPT implements spec.md §4.5/§7's BKPT split: immediate 0xAB invokes
// the semihosting handler; any other immediate raises DebugMonitor. A bus
// fault reading the semihosting argument block is a genuine error and
// escalates to BusError rather than the ABI-level 0xFFFFFFFF convention
// semihost.Handler uses for host-side failures.
func execBKPT(core *cpu.Core, b bus.Bus, inst decoder.Instruction, sh semihost.Handler) Result {
	if inst.Imm8 != semihostImmediate || sh == nil {
		return faulted(exception.FaultDebugMonitor)
	}
	if err := sh.Handle(core, b); err != nil {
		return faulted(exception.FaultBusError)
	}
	return taken(1)
}
