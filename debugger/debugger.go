// Package debugger drives a cpu.Core/bus.Bus pair through repeated
// executor.Step calls under interactive control, per SPEC_FULL.md §4.10. It
// never touches core or bus internals beyond the public Core/Bus/decoder/
// executor surface — stepping, breakpoints and the TUI panels all observe
// the same state the executor itself mutates.
package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lookbusy1344/cortexm-core/bus"
	"github.com/lookbusy1344/cortexm-core/cpu"
	"github.com/lookbusy1344/cortexm-core/decoder"
	"github.com/lookbusy1344/cortexm-core/exception"
	"github.com/lookbusy1344/cortexm-core/executor"
	"github.com/lookbusy1344/cortexm-core/semihost"
)

// Debugger holds interactive debugging state layered over a core/bus pair.
type Debugger struct {
	Core     *cpu.Core
	Bus      bus.Bus
	Semihost semihost.Handler

	Breakpoints *BreakpointManager
	Watchpoints *WatchpointManager
	History     *CommandHistory
	Evaluator   *ExpressionEvaluator

	// Execution control.
	Running    bool
	Halted     bool
	HaltFault  exception.Fault
	StepMode   StepMode
	StepOverPC uint32
	Cycles     uint64

	// LastCommand repeats on empty input, matching the teacher's CLI.
	LastCommand string

	// Output buffer, drained by the CLI/TUI front end after each command.
	Output strings.Builder
}

// StepMode represents the different single-stepping modes.
type StepMode int

const (
	StepNone   StepMode = iota
	StepSingle          // Step one instruction.
	StepOver            // Step over a BL until control returns to StepOverPC.
)

// NewDebugger creates a new debugger wired to a live core and bus.
func NewDebugger(core *cpu.Core, b bus.Bus, sh semihost.Handler) *Debugger {
	return &Debugger{
		Core:        core,
		Bus:         b,
		Semihost:    sh,
		Breakpoints: NewBreakpointManager(),
		Watchpoints: NewWatchpointManager(),
		History:     NewCommandHistory(),
		Evaluator:   NewExpressionEvaluator(),
	}
}

// ResolveAddress resolves a numeric address (hex with a 0x prefix, or
// decimal). There is no symbol table in this repository's flat firmware
// model, so unlike the teacher's label lookup this is numeric only.
func (d *Debugger) ResolveAddress(addrStr string) (uint32, error) {
	var addr uint32
	if strings.HasPrefix(addrStr, "0x") || strings.HasPrefix(addrStr, "0X") {
		if _, err := fmt.Sscanf(addrStr, "0x%x", &addr); err != nil {
			return 0, fmt.Errorf("invalid address: %s", addrStr)
		}
		return addr, nil
	}
	v, err := strconv.ParseUint(addrStr, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address: %s", addrStr)
	}
	return uint32(v), nil
}

// ExecuteCommand parses and dispatches one command line.
func (d *Debugger) ExecuteCommand(cmdLine string) error {
	cmdLine = strings.TrimSpace(cmdLine)
	if cmdLine == "" {
		cmdLine = d.LastCommand
	}
	if cmdLine != "" {
		d.History.Add(cmdLine)
		d.LastCommand = cmdLine
	}

	parts := strings.Fields(cmdLine)
	if len(parts) == 0 {
		return nil
	}

	return d.handleCommand(strings.ToLower(parts[0]), parts[1:])
}

func (d *Debugger) handleCommand(cmd string, args []string) error {
	switch cmd {
	case "continue", "c":
		return d.cmdContinue(args)
	case "step", "s", "si":
		return d.cmdStep(args)
	case "next", "n":
		return d.cmdNext(args)
	case "break", "b":
		return d.cmdBreak(args)
	case "delete", "d":
		return d.cmdDelete(args)
	case "enable":
		return d.cmdEnable(args)
	case "disable":
		return d.cmdDisable(args)
	case "watch", "w":
		return d.cmdWatch(args)
	case "print", "p":
		return d.cmdPrint(args)
	case "mem", "x":
		return d.cmdMem(args)
	case "regs", "registers", "info":
		return d.cmdRegs(args)
	case "set":
		return d.cmdSet(args)
	case "reset":
		return d.cmdReset(args)
	case "help", "h", "?":
		return d.cmdHelp(args)
	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmd)
	}
}

// StepOne fetches, decodes and executes exactly one instruction at the
// current PC, advancing PC per the executor's NotTaken/Taken/Branched
// contract, and halting (with HaltFault set) on a bus fetch error or an
// executor fault. The outer driver's exception-entry sequence is not this
// package's concern (spec.md §7); a halt simply stops the run loop.
func (d *Debugger) StepOne() {
	if d.Halted {
		return
	}

	pc := d.Core.PC()
	hw1, err := d.Bus.Read16(pc)
	if err != nil {
		d.Halted = true
		d.HaltFault = exception.FaultBusError
		return
	}

	inst, err := decoder.Decode(hw1, func() (uint16, error) { return d.Bus.Read16(pc + 2) })
	if err != nil {
		d.Halted = true
		d.HaltFault = exception.FaultBusError
		return
	}

	result := executor.Step(d.Core, d.Bus, inst, d.Semihost)
	d.Cycles += uint64(result.Cycles)

	switch result.Outcome {
	case executor.FaultOutcome:
		d.Halted = true
		d.HaltFault = result.Fault
	case executor.Branched:
		// PC already set by the instruction.
	default:
		d.Core.SetPC(pc + inst.Width())
	}
}

// ShouldBreak reports whether the run loop should stop before executing the
// instruction at the current PC, and why.
func (d *Debugger) ShouldBreak() (bool, string) {
	pc := d.Core.PC()

	switch d.StepMode {
	case StepSingle:
		d.StepMode = StepNone
		return true, "single step"
	case StepOver:
		if pc == d.StepOverPC {
			d.StepMode = StepNone
			return true, "step over complete"
		}
	}

	if bp := d.Breakpoints.GetBreakpoint(pc); bp != nil {
		if !bp.Enabled {
			return false, ""
		}
		if bp.Condition != "" {
			result, err := d.Evaluator.Evaluate(bp.Condition, d.Core, d.Bus)
			if err != nil {
				return true, fmt.Sprintf("breakpoint %d (condition error: %v)", bp.ID, err)
			}
			if !result {
				return false, ""
			}
		}
		bp.HitCount++
		if bp.Temporary {
			_ = d.Breakpoints.DeleteBreakpoint(bp.ID)
		}
		return true, fmt.Sprintf("breakpoint %d", bp.ID)
	}

	if wp, changed := d.Watchpoints.CheckWatchpoints(d.Core, d.Bus); wp != nil && changed {
		return true, fmt.Sprintf("watchpoint %d: %s", wp.ID, wp.Expression)
	}

	return false, ""
}

// GetOutput returns and clears the output buffer.
func (d *Debugger) GetOutput() string {
	output := d.Output.String()
	d.Output.Reset()
	return output
}

// Printf writes formatted output to the output buffer.
func (d *Debugger) Printf(format string, args ...interface{}) {
	d.Output.WriteString(fmt.Sprintf(format, args...))
}

// Println writes a line to the output buffer.
func (d *Debugger) Println(args ...interface{}) {
	d.Output.WriteString(fmt.Sprintln(args...))
}
