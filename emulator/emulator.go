// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/risc16/cpu"
	"github.com/ezrec/risc16/internal"
	"github.com/ezrec/risc16/io"
	"github.com/ezrec/risc16/memory"
)

const (
	WORD_BITS = 16 // Width of a machine word.
)

var _emulator_defines = map[string]string{
	"WORD_BITS": fmt.Sprintf("%v", WORD_BITS),
}

// Emulator state. CPU + memory + console.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	Policy   cpu.Policy   // Diagnostic policy applied at reset.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Listing of the loaded program, if assembled.

	Console io.Console // Console behind the I/O window.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Program: &cpu.Program{},
	}

	emu.Cpu = cpu.NewCpu(memory.NewMemory(&emu.Console))

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.Concat2(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
		emu.Cpu.Memory.Defines(),
	)
}

// Reset clears the machine, and loads a memory image.
// Breakpoints are kept.
func (emu *Emulator) Reset(image memory.Image) {
	if emu.Verbose {
		log.Printf("emulator: reset, %d words", len(image))
	}

	mem := emu.Cpu.Memory
	mem.Verbose = emu.Verbose
	mem.Reset()
	mem.Load(image)

	emu.Console.Rewind()

	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Policy = emu.Policy
	emu.Cpu.Reset()
}

// LoadProgram resets the machine with an assembled program.
func (emu *Emulator) LoadProgram(prog *cpu.Program) {
	emu.Program = prog
	emu.Reset(prog.Image())
}

// LineNo returns the source line of the most recently fetched instruction,
// or zero if there is no listing for it.
func (emu *Emulator) LineNo() int {
	if emu.Program == nil {
		return 0
	}

	dbg := emu.Program.Debug(emu.Cpu.Ip)
	if dbg.Statement == nil {
		return 0
	}

	return dbg.LineNo
}

// Tick performs a single instruction of the emulator.
func (emu *Emulator) Tick() (err error) {
	err = emu.Cpu.Tick()
	if err != nil {
		err = &ErrRuntime{Ip: emu.Cpu.Ip, LineNo: emu.LineNo(), Err: err}
	}

	return
}

// Run executes until the machine halts or pauses at a breakpoint.
func (emu *Emulator) Run() (state cpu.State, err error) {
	for emu.Cpu.State == cpu.STATE_RUNNING {
		err = emu.Tick()
		if err != nil {
			break
		}
	}

	state = emu.Cpu.State
	return
}

// Continue resumes from a breakpoint, and runs.
func (emu *Emulator) Continue() (state cpu.State, err error) {
	emu.Cpu.Resume()
	return emu.Run()
}

// Step resumes from a breakpoint for a single instruction.
// The machine stays paused afterwards unless it halted.
func (emu *Emulator) Step() (state cpu.State, err error) {
	emu.Cpu.Resume()

	err = emu.Tick()
	if err == nil && emu.Cpu.State == cpu.STATE_RUNNING {
		emu.Cpu.State = cpu.STATE_PAUSED
	}

	state = emu.Cpu.State
	return
}
