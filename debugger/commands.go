package debugger

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lookbusy1344/cortexm-core/cpu"
)

// Command handler implementations.

// cmdContinue resumes execution from the current PC.
func (d *Debugger) cmdContinue(args []string) error {
	if d.Halted {
		return fmt.Errorf("core is halted (%s); use reset to restart", d.HaltFault)
	}

	d.Running = true
	d.StepMode = StepNone
	// Execute the current instruction first so a breakpoint at this PC
	// does not stop the run again before anything has executed.
	d.StepOne()

	d.Println("Continuing...")
	return nil
}

// cmdStep executes a single instruction.
func (d *Debugger) cmdStep(args []string) error {
	// The run loop checks ShouldBreak before each instruction, and
	// StepSingle breaks on the first check, so the instruction runs here.
	d.StepOne()
	d.StepMode = StepSingle
	d.Running = true
	return nil
}

// cmdNext steps over a BL at the current PC; a plain instruction behaves
// like step, since StepOverPC is never reached mid-call.
func (d *Debugger) cmdNext(args []string) error {
	pc := d.Core.PC()
	hw1, err := d.Bus.Read16(pc)
	if err != nil {
		return fmt.Errorf("failed to read instruction at 0x%08X: %w", pc, err)
	}

	width := uint32(2)
	if hw1>>11 == 0x1E || hw1>>11 == 0x1F { // BL first/second halfword
		width = 4
	}

	d.StepOverPC = pc + width
	d.StepMode = StepOver
	d.Running = true
	return nil
}

// cmdBreak sets a breakpoint.
func (d *Debugger) cmdBreak(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: break <address> [if <condition>]")
	}

	address, err := d.ResolveAddress(args[0])
	if err != nil {
		return err
	}

	var condition string
	if len(args) > 1 && strings.ToLower(args[1]) == "if" {
		condition = strings.Join(args[2:], " ")
	}

	bp := d.Breakpoints.AddBreakpoint(address, false, condition)

	if condition != "" {
		d.Printf("Breakpoint %d at 0x%08X (condition: %s)\n", bp.ID, address, condition)
	} else {
		d.Printf("Breakpoint %d at 0x%08X\n", bp.ID, address)
	}

	return nil
}

// cmdDelete deletes breakpoint(s).
func (d *Debugger) cmdDelete(args []string) error {
	if len(args) == 0 {
		d.Breakpoints.Clear()
		d.Println("All breakpoints deleted")
		return nil
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}

	if err := d.Breakpoints.DeleteBreakpoint(id); err != nil {
		return err
	}

	d.Printf("Breakpoint %d deleted\n", id)
	return nil
}

// cmdEnable enables a breakpoint.
func (d *Debugger) cmdEnable(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: enable <breakpoint-id>")
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}

	if err := d.Breakpoints.EnableBreakpoint(id); err != nil {
		return err
	}

	d.Printf("Breakpoint %d enabled\n", id)
	return nil
}

// cmdDisable disables a breakpoint.
func (d *Debugger) cmdDisable(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: disable <breakpoint-id>")
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}

	if err := d.Breakpoints.DisableBreakpoint(id); err != nil {
		return err
	}

	d.Printf("Breakpoint %d disabled\n", id)
	return nil
}

// cmdWatch sets a watchpoint on a register or memory location.
func (d *Debugger) cmdWatch(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: watch <expression>")
	}

	expression := strings.Join(args, " ")

	isRegister, register, address, err := d.parseWatchExpression(expression)
	if err != nil {
		return err
	}

	wp := d.Watchpoints.AddWatchpoint(WatchReadWrite, expression, address, isRegister, register)

	if err := d.Watchpoints.InitializeWatchpoint(wp.ID, d.Core, d.Bus); err != nil {
		d.Watchpoints.DeleteWatchpoint(wp.ID)
		return err
	}

	d.Printf("Watchpoint %d: %s\n", wp.ID, expression)
	return nil
}

// parseWatchExpression parses a watch expression (register or memory address).
func (d *Debugger) parseWatchExpression(expr string) (isRegister bool, register int, address uint32, err error) {
	expr = strings.ToLower(strings.TrimSpace(expr))

	if strings.HasPrefix(expr, "r") || expr == "sp" || expr == "lr" || expr == "pc" {
		regNum := -1
		switch expr {
		case "sp", "r13":
			regNum = cpu.SP
		case "lr", "r14":
			regNum = cpu.LR
		case "pc", "r15":
			regNum = cpu.PC
		default:
			if _, scanErr := fmt.Sscanf(expr, "r%d", &regNum); scanErr != nil || regNum < 0 || regNum > 15 {
				regNum = -1
			}
		}

		if regNum >= 0 {
			return true, regNum, 0, nil
		}
	}

	if strings.HasPrefix(expr, "[") && strings.HasSuffix(expr, "]") {
		addrStr := strings.TrimSuffix(strings.TrimPrefix(expr, "["), "]")
		addr, err := d.ResolveAddress(addrStr)
		if err != nil {
			return false, 0, 0, err
		}
		return false, 0, addr, nil
	}

	addr, err := d.ResolveAddress(expr)
	if err != nil {
		return false, 0, 0, fmt.Errorf("invalid watch expression: %s", expr)
	}

	return false, 0, addr, nil
}

// cmdPrint evaluates and prints an expression.
func (d *Debugger) cmdPrint(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: print <expression>")
	}

	expression := strings.Join(args, " ")
	result, err := d.Evaluator.EvaluateExpression(expression, d.Core, d.Bus)
	if err != nil {
		return err
	}

	if result > uint32(math.MaxInt32) {
		d.Printf("$%d = 0x%08X (%d)\n", d.Evaluator.GetValueNumber(), result, result)
	} else {
		d.Printf("$%d = 0x%08X (%d)\n", d.Evaluator.GetValueNumber(), result, int32(result))
	}
	return nil
}

// cmdMem examines memory at an address: "mem <address> <length>".
func (d *Debugger) cmdMem(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: mem <address> [length]")
	}

	address, err := d.ResolveAddress(args[0])
	if err != nil {
		return err
	}

	length := 16
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid length: %s", args[1])
		}
		length = n
	}

	d.Printf("0x%08X:", address)
	for i := 0; i < length; i++ {
		b, err := d.Bus.Read8(address + uint32(i))
		if err != nil {
			return err
		}
		if i%16 == 0 && i != 0 {
			d.Printf("\n0x%08X:", address+uint32(i))
		}
		d.Printf(" %02X", b)
	}
	d.Println()

	return nil
}

// cmdRegs displays the full register and status-bit set.
func (d *Debugger) cmdRegs(args []string) error {
	d.Println("Registers:")
	for i := cpu.R0; i <= cpu.R12; i++ {
		d.Printf("  R%-2d = 0x%08X (%d)\n", i, d.Core.GetR(i), int32(d.Core.GetR(i)))
	}
	d.Printf("  SP  = 0x%08X (%d)\n", d.Core.GetR(cpu.SP), int32(d.Core.GetR(cpu.SP)))
	d.Printf("  LR  = 0x%08X (%d)\n", d.Core.GetR(cpu.LR), int32(d.Core.GetR(cpu.LR)))
	d.Printf("  PC  = 0x%08X (%d)\n", d.Core.GetR(cpu.PC), int32(d.Core.GetR(cpu.PC)))

	a := d.Core.APSR
	flags := ""
	for _, f := range []struct {
		set  bool
		char string
	}{{a.N, "N"}, {a.Z, "Z"}, {a.C, "C"}, {a.V, "V"}} {
		if f.set {
			flags += f.char
		} else {
			flags += "-"
		}
	}
	d.Printf("  APSR = [%s]\n", flags)
	d.Printf("  IPSR = %d\n", d.Core.IPSR().IPSR())
	d.Printf("  IT   = 0x%02X\n", d.Core.ITState())
	d.Printf("  PRIMASK   = %v\n", d.Core.Primask)
	d.Printf("  CONTROL   = 0x%X (SPSEL=%v nPRIV=%v)\n", d.Core.Control.ToUint32(), d.Core.Control.SPSEL, d.Core.Control.NPRIV)

	return nil
}

// cmdSet modifies a register or memory value: "set <register|*address> = <value>".
func (d *Debugger) cmdSet(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: set <register|*address> = <value>")
	}

	if args[1] != "=" {
		return fmt.Errorf("usage: set <register|*address> = <value>")
	}

	target := strings.ToLower(args[0])
	valueStr := args[2]

	value, err := d.Evaluator.EvaluateExpression(valueStr, d.Core, d.Bus)
	if err != nil {
		return err
	}

	if strings.HasPrefix(target, "*") {
		address, err := d.ResolveAddress(target[1:])
		if err != nil {
			return err
		}

		if err := d.Bus.Write32(address, value); err != nil {
			return err
		}

		d.Printf("Memory 0x%08X set to 0x%08X\n", address, value)
		return nil
	}

	register := -1
	switch target {
	case "pc", "r15":
		d.Core.BranchWritePC(value)
		d.Printf("PC set to 0x%08X\n", value)
		return nil
	case "sp", "r13":
		register = cpu.SP
	case "lr", "r14":
		register = cpu.LR
	default:
		if _, err := fmt.Sscanf(target, "r%d", &register); err != nil || register < cpu.R0 || register > cpu.R12 {
			return fmt.Errorf("invalid register: %s", target)
		}
	}

	d.Core.SetR(register, value)
	d.Printf("Register %s set to 0x%08X\n", target, value)

	return nil
}

// cmdReset resets the core to its power-on state.
func (d *Debugger) cmdReset(args []string) error {
	d.Core.Reset()
	d.Halted = false
	d.HaltFault = 0
	d.Running = false
	d.StepMode = StepNone
	d.Println("Core reset")
	return nil
}

// cmdHelp displays help information.
func (d *Debugger) cmdHelp(args []string) error {
	if len(args) > 0 {
		return d.showCommandHelp(args[0])
	}

	d.Println("Debugger commands:")
	d.Println()
	d.Println("Execution Control:")
	d.Println("  continue (c)      - Continue execution")
	d.Println("  step (s, si)      - Execute single instruction")
	d.Println("  next (n)          - Step over a BL")
	d.Println()
	d.Println("Breakpoints:")
	d.Println("  break (b) <addr>  - Set breakpoint")
	d.Println("  delete (d) [id]   - Delete breakpoint(s)")
	d.Println("  enable <id>       - Enable breakpoint")
	d.Println("  disable <id>      - Disable breakpoint")
	d.Println()
	d.Println("Watchpoints:")
	d.Println("  watch (w) <expr>  - Watch a register or memory location")
	d.Println()
	d.Println("Inspection:")
	d.Println("  print (p) <expr>  - Evaluate expression")
	d.Println("  mem (x) <addr> [len] - Examine memory")
	d.Println("  regs (info)       - Show registers and status bits")
	d.Println()
	d.Println("Modification:")
	d.Println("  set <var> = <val> - Modify register/memory")
	d.Println()
	d.Println("Control:")
	d.Println("  reset             - Reset the core")
	d.Println("  help (h, ?)       - Show this help")
	d.Println()
	d.Println("Type 'help <command>' for detailed help on a specific command.")

	return nil
}

// showCommandHelp shows detailed help for a specific command.
func (d *Debugger) showCommandHelp(cmd string) error {
	helpText := map[string]string{
		"break": "break <address> [if <condition>]\n  Set a breakpoint at the specified address.\n  Optional condition will be evaluated each time.",
		"step":  "step\n  Execute a single instruction.",
		"next":  "next\n  Step over a BL (execute until control returns past it).",
		"print": "print <expression>\n  Evaluate and print an expression.\n  Expressions can include registers, memory and arithmetic.",
		"mem":   "mem <address> [length]\n  Examine memory as hex bytes.",
		"regs":  "regs\n  Display R0-R12, SP, LR, PC, APSR, IPSR, IT-state, PRIMASK and CONTROL.",
	}

	if help, exists := helpText[cmd]; exists {
		d.Println(help)
		return nil
	}

	return fmt.Errorf("no help available for command: %s", cmd)
}
