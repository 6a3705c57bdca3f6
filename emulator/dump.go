package emulator

import (
	"bufio"
	"fmt"
	"io"

	"github.com/ezrec/risc16/cpu"
)

const (
	DUMP_COLUMNS = 4 // Registers per dump line.
)

func bit(flag bool) int {
	if flag {
		return 1
	}
	return 0
}

// Dump writes the machine state of a snapshot as text:
//   - the state, fetch address, instruction register and tick count,
//   - the registers in hexadecimal and the Z and C flags,
//   - every accessed RAM cell, ascending by address,
//   - the stack slots from SP to the bottom of stack, if any,
//   - any diagnostics raised during the run.
func Dump(output io.Writer, snap cpu.Snapshot) (err error) {
	w := bufio.NewWriter(output)

	fmt.Fprintf(w, "state: %v  ip: %04x  ir: %04x  ticks: %d\n", snap.State, snap.Ip, snap.Ir, snap.Ticks)

	fmt.Fprintf(w, "registers:\n")
	for reg, value := range snap.Register {
		fmt.Fprintf(w, "  %3s: %04x", cpu.RegisterName(reg), value)
		if reg%DUMP_COLUMNS == DUMP_COLUMNS-1 {
			fmt.Fprintf(w, "\n")
		}
	}
	fmt.Fprintf(w, "flags: Z=%d C=%d\n", bit(snap.Zero), bit(snap.Carry))

	fmt.Fprintf(w, "memory:\n")
	for _, cell := range snap.Memory {
		fmt.Fprintf(w, "  %04x: %04x\n", cell.Addr, cell.Value)
	}

	if len(snap.Stack) != 0 {
		fmt.Fprintf(w, "stack:\n")
		for _, cell := range snap.Stack {
			fmt.Fprintf(w, "  %04x: %04x\n", cell.Addr, cell.Value)
		}
	}

	if len(snap.Diagnostics) != 0 {
		fmt.Fprintf(w, "diagnostics:\n")
		for _, diag := range snap.Diagnostics {
			fmt.Fprintf(w, "  %v\n", diag)
		}
	}

	err = w.Flush()
	return
}

// Dump writes the current machine state.
func (emu *Emulator) Dump(output io.Writer) error {
	return Dump(output, emu.Cpu.Snapshot())
}
