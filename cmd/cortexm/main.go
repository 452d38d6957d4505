// Command cortexm loads a flat Cortex-M firmware image and runs it, either
// straight through or under the interactive debugger, per SPEC_FULL.md
// §4.11. Grounded on the teacher's flag-based main.go front end.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lookbusy1344/cortexm-core/bus"
	"github.com/lookbusy1344/cortexm-core/config"
	"github.com/lookbusy1344/cortexm-core/cpu"
	"github.com/lookbusy1344/cortexm-core/debugger"
	"github.com/lookbusy1344/cortexm-core/decoder"
	"github.com/lookbusy1344/cortexm-core/executor"
	"github.com/lookbusy1344/cortexm-core/loader"
	"github.com/lookbusy1344/cortexm-core/semihost"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		imagePath   = flag.String("image", "", "Path to a flat firmware image")
		maxCycles   = flag.Uint64("max-cycles", 0, "Override the configured maximum cycle count (0 = use config)")
		entry       = flag.Uint("entry", 0, "Override the reset PC read from the image's vector table (0 = use image)")
		tuiMode     = flag.Bool("tui", false, "Launch the interactive TUI debugger")
		configPath  = flag.String("config", "", "Path to a config.toml (default: platform config directory)")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("cortexm %s (%s)\n", Version, Commit)
		return
	}

	if *imagePath == "" {
		fmt.Fprintln(os.Stderr, "error: -image is required")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading config: %v\n", err)
		os.Exit(1)
	}

	if *maxCycles != 0 {
		cfg.Execution.MaxCycles = *maxCycles
	}

	image, err := os.ReadFile(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: reading image: %v\n", err)
		os.Exit(1)
	}

	b := bus.NewMemoryMap(cfg.Memory.FlashBase, cfg.Memory.FlashSize, cfg.Memory.RAMBase, cfg.Memory.RAMSize)

	msp, pc, err := loader.LoadFlat(b, cfg.Memory.FlashBase, loader.Image(image))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading image: %v\n", err)
		os.Exit(1)
	}
	if *entry != 0 {
		pc = uint32(*entry)
	}

	core := cpu.NewCore()
	core.SetMSP(msp)
	core.BranchWritePC(pc)

	sh := semihost.NewHost()

	if *tuiMode {
		dbg := debugger.NewDebugger(core, b, sh)
		if err := debugger.RunTUI(dbg); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	run(core, b, sh, cfg.Execution.MaxCycles)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

// run drives the core straight through: fetch, decode, execute, advance PC
// per the executor's NotTaken/Taken/Branched contract, until a fault halts
// it or maxCycles is exhausted.
func run(core *cpu.Core, b bus.Bus, sh semihost.Handler, maxCycles uint64) {
	var cycles uint64

	for maxCycles == 0 || cycles < maxCycles {
		pc := core.PC()
		hw1, err := b.Read16(pc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bus error fetching instruction at 0x%08X: %v\n", pc, err)
			os.Exit(1)
		}

		inst, err := decoder.Decode(hw1, func() (uint16, error) { return b.Read16(pc + 2) })
		if err != nil {
			fmt.Fprintf(os.Stderr, "bus error fetching second halfword at 0x%08X: %v\n", pc+2, err)
			os.Exit(1)
		}

		result := executor.Step(core, b, inst, sh)
		cycles += uint64(result.Cycles)

		switch result.Outcome {
		case executor.FaultOutcome:
			fmt.Fprintf(os.Stderr, "halted: %s at PC=0x%08X\n", result.Fault, pc)
			return
		case executor.Branched:
			// PC already set by the instruction.
		default:
			core.SetPC(pc + inst.Width())
		}
	}

	fmt.Printf("stopped: max cycles (%d) reached at PC=0x%08X\n", maxCycles, core.PC())
}
