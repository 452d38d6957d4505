// Package semihost implements the ARM semihosting ABI subset the executor
// dispatches to on BKPT #0xAB, per spec.md §4.5/§6. Handler decouples the
// executor from any concrete host: the executor only ever calls Handle with
// the core (for r0/r1) and the bus (the guest's view of memory the argument
// block lives in).
package semihost

import (
	"github.com/lookbusy1344/cortexm-core/bus"
	"github.com/lookbusy1344/cortexm-core/cpu"
)

// Semihosting operation numbers, ARM semihosting specification v3.0 §5.
const (
	SysOpen    = 0x01
	SysClose   = 0x02
	SysWriteC  = 0x03
	SysWrite0  = 0x04
	SysWrite   = 0x05
	SysRead    = 0x06
	SysReadC   = 0x07
	SysIsError = 0x08
	SysIsTTY   = 0x09
	SysSeek    = 0x0A
	SysFlen    = 0x0C
	SysTime    = 0x11
	SysErrno   = 0x13
	SysExit    = 0x18
)

// ADP_Stopped_ApplicationExit, the SYS_EXIT reason code for a normal guest
// exit under the 32-bit semihosting convention (r1 points to a two-word
// block: {reason, subcode}).
const adpStoppedApplicationExit = 0x20026

// Handler services one semihosting call. Handle reads the operation number
// from r0 and the argument-block pointer from r1, performs the operation,
// and writes its result back into r0 (and, for SYS_EXIT, records the exit
// request for the caller to observe via Exited/ExitCode).
//
// Handle returns an error only when guest memory it needs (the argument
// block, or a string or buffer it points to) cannot be accessed on the bus
// (a guest memory/bus problem); the executor turns that
// into Fault{BusError}. Failures of the underlying host operation (file not
// found, short read, …) are ARM semihosting's own "expected" failures: they
// are written into r0 per the ABI and Handle returns nil, matching spec.md
// §7's "semihosting error is not a fault" rule.
type Handler interface {
	Handle(core *cpu.Core, b bus.Bus) error
}

// readArgs reads n little-endian words from the block pointed to by r1.
func readArgs(core *cpu.Core, b bus.Bus, n int) ([]uint32, error) {
	ptr := core.GetR(cpu.R1)
	args := make([]uint32, n)
	for i := range args {
		v, err := b.Read32(ptr + uint32(i)*4)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// readCString reads a NUL-terminated string from the bus, capped at max
// bytes as a guard against a runaway guest pointer.
func readCString(b bus.Bus, addr uint32, max int) (string, error) {
	buf := make([]byte, 0, 64)
	for i := 0; i < max; i++ {
		c, err := b.Read8(addr + uint32(i))
		if err != nil {
			return "", err
		}
		if c == 0 {
			break
		}
		buf = append(buf, c)
	}
	return string(buf), nil
}

// writeBytes copies data onto the bus starting at addr.
func writeBytes(b bus.Bus, addr uint32, data []byte) error {
	for i, v := range data {
		if err := b.Write8(addr+uint32(i), v); err != nil {
			return err
		}
	}
	return nil
}
