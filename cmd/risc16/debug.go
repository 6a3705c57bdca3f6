package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ezrec/risc16/cpu"
	"github.com/ezrec/risc16/emulator"
)

const debugUsage = `commands:
  c, continue        resume execution
  s, step            execute one instruction
  d, dump            dump the machine state
  b, break [ADDR]    list breakpoints, or add one
  r, remove ADDR     remove a breakpoint
  q, quit            stop the simulation`

// debugger is the interactive prompt shown when a breakpoint is hit.
type debugger struct {
	emu *emulator.Emulator
	rl  *readline.Instance
}

func newDebugger(emu *emulator.Emulator) (dbg *debugger, err error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: "risc16> ",
	})
	if err != nil {
		return
	}

	dbg = &debugger{emu: emu, rl: rl}
	return
}

// Close releases the terminal.
func (dbg *debugger) Close() error {
	return dbg.rl.Close()
}

// where shows the next instruction to execute.
func (dbg *debugger) where() {
	emu := dbg.emu
	pc := emu.Pc()
	word := emu.Memory.Peek(pc)

	text := fmt.Sprintf(".word 0x%04x", word)
	if ins, err := cpu.Decode(word); err == nil {
		text = ins.String()
	}

	line := ""
	if st := emu.Program.Debug(pc).Statement; st != nil {
		line = fmt.Sprintf("  ; line %d", st.LineNo)
	}

	fmt.Printf("%04x: %04x  %v%v\n", pc, word, text, line)
}

// Prompt reads commands until execution should continue.
// ErrQuit is returned when the user stops the simulation.
func (dbg *debugger) Prompt() (err error) {
	emu := dbg.emu

	dbg.where()

	for emu.State == cpu.STATE_PAUSED {
		var line string
		line, err = dbg.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			err = ErrQuit
			return
		}
		if err != nil {
			return
		}

		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}

		switch words[0] {
		case "c", "continue":
			return
		case "s", "step":
			_, err = emu.Step()
			if err != nil {
				return
			}
			if emu.State == cpu.STATE_PAUSED {
				dbg.where()
			}
		case "d", "dump":
			err = emu.Dump(os.Stdout)
			if err != nil {
				return
			}
		case "b", "break":
			if len(words) == 1 {
				for _, addr := range emu.Breakpoints.Addresses() {
					fmt.Printf("%04x\n", addr)
				}
				continue
			}
			bp, parse_err := cpu.ParseBreakpoints(words[1:]...)
			if parse_err != nil {
				log.Println(parse_err)
				continue
			}
			if emu.Breakpoints == nil {
				emu.Breakpoints = cpu.NewBreakpoints()
			}
			for _, addr := range bp.Addresses() {
				emu.Breakpoints[addr] = struct{}{}
			}
		case "r", "remove":
			bp, parse_err := cpu.ParseBreakpoints(words[1:]...)
			if parse_err != nil {
				log.Println(parse_err)
				continue
			}
			for _, addr := range bp.Addresses() {
				delete(emu.Breakpoints, addr)
			}
		case "q", "quit":
			err = ErrQuit
			return
		default:
			fmt.Println(debugUsage)
		}
	}

	return
}
