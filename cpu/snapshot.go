package cpu

import (
	"slices"
)

// Cell is a single memory word and its address.
type Cell struct {
	Addr  uint16
	Value uint16
}

// Snapshot is a read-only copy of the machine state, for presentation
// after a halt or a breakpoint pause.
type Snapshot struct {
	Register    [REG_COUNT]uint16
	Ir          uint16
	Ip          uint16
	Zero        bool
	Carry       bool
	State       State
	Ticks       int
	Memory      []Cell  // Accessed RAM cells, ascending address.
	Stack       []Cell  // Stack slots, top of stack first.
	Diagnostics []error // Diagnostics raised during the run.
}

// Snapshot copies the current machine state.
func (cpu *Cpu) Snapshot() (snap Snapshot) {
	snap = Snapshot{
		Register:    cpu.Register,
		Ir:          cpu.Ir,
		Ip:          cpu.Ip,
		Zero:        cpu.Zero,
		Carry:       cpu.Carry,
		State:       cpu.State,
		Ticks:       cpu.Ticks,
		Diagnostics: slices.Clone(cpu.Diagnostics),
	}

	for addr, value := range cpu.Memory.Touched() {
		snap.Memory = append(snap.Memory, Cell{Addr: addr, Value: value})
	}

	for addr, value := range cpu.Stack().Slots() {
		snap.Stack = append(snap.Stack, Cell{Addr: addr, Value: value})
	}

	return
}

// Pc returns the program counter of the snapshot.
func (snap *Snapshot) Pc() uint16 {
	return snap.Register[REG_PC]
}

// Sp returns the stack pointer of the snapshot.
func (snap *Snapshot) Sp() uint16 {
	return snap.Register[REG_SP]
}
