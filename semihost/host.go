package semihost

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/lookbusy1344/cortexm-core/bus"
	"github.com/lookbusy1344/cortexm-core/cpu"
)

// errnoFailure is returned in r0 for an unrecognized operation and for a
// failed host operation, matching the "expected failure, not a fault" rule.
const errnoFailure = 0xFFFFFFFF

// fopen mode table, ARM semihosting spec §5.1 (SYS_OPEN's mode field).
var openModes = [...]struct {
	flag int
	name string
}{
	{os.O_RDONLY, "r"},
	{os.O_RDONLY, "rb"},
	{os.O_RDWR, "r+"},
	{os.O_RDWR, "r+b"},
	{os.O_WRONLY | os.O_CREATE | os.O_TRUNC, "w"},
	{os.O_WRONLY | os.O_CREATE | os.O_TRUNC, "wb"},
	{os.O_RDWR | os.O_CREATE | os.O_TRUNC, "w+"},
	{os.O_RDWR | os.O_CREATE | os.O_TRUNC, "w+b"},
	{os.O_WRONLY | os.O_CREATE | os.O_APPEND, "a"},
	{os.O_WRONLY | os.O_CREATE | os.O_APPEND, "ab"},
	{os.O_RDWR | os.O_CREATE | os.O_APPEND, "a+"},
	{os.O_RDWR | os.O_CREATE | os.O_APPEND, "a+b"},
}

// Host is the default Handler, backing semihosting calls with real host
// files. Handle 0/1/2 are pre-bound to stdin/stdout/stderr, mirroring the
// teacher's VM file-descriptor table.
type Host struct {
	mu       sync.Mutex
	files    []*os.File
	exited   bool
	exitCode int32
}

// NewHost returns a Host with stdin/stdout/stderr pre-opened as handles 0-2.
func NewHost() *Host {
	return &Host{files: []*os.File{os.Stdin, os.Stdout, os.Stderr}}
}

// Exited reports whether the guest has called SYS_EXIT.
func (h *Host) Exited() bool { return h.exited }

// ExitCode returns the code the guest passed to SYS_EXIT (valid only after
// Exited returns true).
func (h *Host) ExitCode() int32 { return h.exitCode }

func (h *Host) allocFD(f *os.File) uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.files = append(h.files, f)
	return uint32(len(h.files) - 1)
}

func (h *Host) fileFor(handle uint32) (*os.File, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if int(handle) >= len(h.files) || h.files[handle] == nil {
		return nil, fmt.Errorf("semihost: invalid file handle %d", handle)
	}
	return h.files[handle], nil
}

// Handle dispatches one semihosting call. See the Handler doc comment for
// the error-vs-ABI-error split.
func (h *Host) Handle(core *cpu.Core, b bus.Bus) error {
	op := core.GetR(cpu.R0)
	switch op {
	case SysOpen:
		return h.sysOpen(core, b)
	case SysClose:
		return h.sysClose(core, b)
	case SysWriteC:
		return h.sysWriteC(core, b)
	case SysWrite0:
		return h.sysWrite0(core, b)
	case SysWrite:
		return h.sysWrite(core, b)
	case SysRead:
		return h.sysRead(core, b)
	case SysReadC:
		return h.sysReadC(core)
	case SysIsError:
		core.SetR(cpu.R0, 0) // this host never reports a result as "in error"
		return nil
	case SysIsTTY:
		return h.sysIsTTY(core, b)
	case SysSeek:
		return h.sysSeek(core, b)
	case SysFlen:
		return h.sysFlen(core, b)
	case SysTime:
		core.SetR(cpu.R0, uint32(time.Now().Unix()))
		return nil
	case SysErrno:
		core.SetR(cpu.R0, 0)
		return nil
	case SysExit:
		return h.sysExit(core, b)
	default:
		core.SetR(cpu.R0, errnoFailure)
		return nil
	}
}

func (h *Host) sysOpen(core *cpu.Core, b bus.Bus) error {
	args, err := readArgs(core, b, 3)
	if err != nil {
		return err
	}
	nameAddr, mode, nameLen := args[0], args[1], args[2]
	name, err := readCString(b, nameAddr, int(nameLen)+1)
	if err != nil {
		return err
	}
	if int(mode) >= len(openModes) {
		core.SetR(cpu.R0, errnoFailure)
		return nil
	}
	// ":tt" is the semihosting convention for the console; map to std files
	// rather than opening a file literally named ":tt".
	if name == ":tt" {
		if openModes[mode].flag&os.O_WRONLY != 0 || openModes[mode].flag&os.O_RDWR != 0 {
			core.SetR(cpu.R0, h.allocFD(os.Stdout))
		} else {
			core.SetR(cpu.R0, h.allocFD(os.Stdin))
		}
		return nil
	}
	f, ferr := os.OpenFile(name, openModes[mode].flag, 0o644)
	if ferr != nil {
		core.SetR(cpu.R0, errnoFailure)
		return nil
	}
	core.SetR(cpu.R0, h.allocFD(f))
	return nil
}

func (h *Host) sysClose(core *cpu.Core, b bus.Bus) error {
	args, err := readArgs(core, b, 1)
	if err != nil {
		return err
	}
	f, ferr := h.fileFor(args[0])
	if ferr != nil {
		core.SetR(cpu.R0, errnoFailure)
		return nil
	}
	if f == os.Stdin || f == os.Stdout || f == os.Stderr {
		core.SetR(cpu.R0, 0)
		return nil
	}
	if f.Close() != nil {
		core.SetR(cpu.R0, errnoFailure)
		return nil
	}
	core.SetR(cpu.R0, 0)
	return nil
}

func (h *Host) sysWriteC(core *cpu.Core, b bus.Bus) error {
	ptr := core.GetR(cpu.R1)
	c, err := b.Read8(ptr)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, string(rune(c)))
	return nil
}

func (h *Host) sysWrite0(core *cpu.Core, b bus.Bus) error {
	s, err := readCString(b, core.GetR(cpu.R1), 4096)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, s)
	return nil
}

func (h *Host) sysWrite(core *cpu.Core, b bus.Bus) error {
	args, err := readArgs(core, b, 3)
	if err != nil {
		return err
	}
	handle, addr, length := args[0], args[1], args[2]
	f, ferr := h.fileFor(handle)
	if ferr != nil {
		core.SetR(cpu.R0, length) // "length" bytes not written
		return nil
	}
	data := make([]byte, length)
	for i := range data {
		v, rerr := b.Read8(addr + uint32(i))
		if rerr != nil {
			return rerr
		}
		data[i] = v
	}
	n, werr := f.Write(data)
	if werr != nil {
		core.SetR(cpu.R0, length-uint32(n))
		return nil
	}
	core.SetR(cpu.R0, 0)
	return nil
}

func (h *Host) sysRead(core *cpu.Core, b bus.Bus) error {
	args, err := readArgs(core, b, 3)
	if err != nil {
		return err
	}
	handle, addr, length := args[0], args[1], args[2]
	f, ferr := h.fileFor(handle)
	if ferr != nil {
		core.SetR(cpu.R0, length)
		return nil
	}
	buf := make([]byte, length)
	n, rerr := f.Read(buf)
	if n > 0 {
		if werr := writeBytes(b, addr, buf[:n]); werr != nil {
			return werr
		}
	}
	if rerr != nil && n == 0 {
		core.SetR(cpu.R0, length)
		return nil
	}
	core.SetR(cpu.R0, length-uint32(n))
	return nil
}

func (h *Host) sysReadC(core *cpu.Core) error {
	var buf [1]byte
	n, err := os.Stdin.Read(buf[:])
	if err != nil || n == 0 {
		core.SetR(cpu.R0, errnoFailure)
		return nil
	}
	core.SetR(cpu.R0, uint32(buf[0]))
	return nil
}

func (h *Host) sysIsTTY(core *cpu.Core, b bus.Bus) error {
	args, err := readArgs(core, b, 1)
	if err != nil {
		return err
	}
	f, ferr := h.fileFor(args[0])
	if ferr != nil {
		core.SetR(cpu.R0, 0)
		return nil
	}
	info, serr := f.Stat()
	if serr == nil && info.Mode()&os.ModeCharDevice != 0 {
		core.SetR(cpu.R0, 1)
	} else {
		core.SetR(cpu.R0, 0)
	}
	return nil
}

func (h *Host) sysSeek(core *cpu.Core, b bus.Bus) error {
	args, err := readArgs(core, b, 2)
	if err != nil {
		return err
	}
	f, ferr := h.fileFor(args[0])
	if ferr != nil {
		core.SetR(cpu.R0, errnoFailure)
		return nil
	}
	if _, serr := f.Seek(int64(int32(args[1])), io.SeekStart); serr != nil {
		core.SetR(cpu.R0, errnoFailure)
		return nil
	}
	core.SetR(cpu.R0, 0)
	return nil
}

func (h *Host) sysFlen(core *cpu.Core, b bus.Bus) error {
	args, err := readArgs(core, b, 1)
	if err != nil {
		return err
	}
	f, ferr := h.fileFor(args[0])
	if ferr != nil {
		core.SetR(cpu.R0, errnoFailure)
		return nil
	}
	info, serr := f.Stat()
	if serr != nil {
		core.SetR(cpu.R0, errnoFailure)
		return nil
	}
	core.SetR(cpu.R0, uint32(info.Size()))
	return nil
}

// sysExit implements the 32-bit SYS_EXIT convention: r1 points to a
// two-word block {reason, subcode}. A normal ADP_Stopped_ApplicationExit
// reason carries the guest's exit code in subcode.
func (h *Host) sysExit(core *cpu.Core, b bus.Bus) error {
	args, err := readArgs(core, b, 2)
	if err != nil {
		return err
	}
	h.exited = true
	if args[0] == adpStoppedApplicationExit {
		h.exitCode = int32(args[1])
	}
	return nil
}
