// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ezrec/risc16/cpu"
	"github.com/ezrec/risc16/emulator"
	"github.com/ezrec/risc16/loader"
	"github.com/ezrec/risc16/memory"
)

var (
	ErrQuit             = errors.New("quit")
	ErrInteractiveStdin = errors.New("--interactive needs --input other than standard input")
)

// checkInteractive rejects sharing standard input between the debugger
// prompt and the console, as both would consume the same bytes.
func checkInteractive(interactive bool, input string) (err error) {
	if interactive && input == "-" {
		err = ErrInteractiveStdin
	}
	return
}

// isSource returns true for assembly language program files.
func isSource(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".s", ".asm":
		return true
	}
	return false
}

// assemble parses an assembly language source file.
func assemble(path string, verbose bool) (prog *cpu.Program, err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	asm := &cpu.Assembler{Verbose: verbose}
	prog, err = asm.Parse(inf)
	return
}

// loadProgram loads a program, either assembly source or a memory image.
func loadProgram(emu *emulator.Emulator, path string) (err error) {
	if isSource(path) {
		var prog *cpu.Program
		prog, err = assemble(path, emu.Verbose)
		if err != nil {
			return
		}
		emu.LoadProgram(prog)
		return
	}

	var image memory.Image
	image, err = loader.Load(path)
	if err != nil {
		return
	}
	emu.Program = &cpu.Program{}
	emu.Reset(image)

	return
}

func main() {
	var verbose bool
	var strict bool
	var interactive bool
	var dump bool
	var breaks []string
	var input string
	var output string

	rootCmd := &cobra.Command{
		Use:   "risc16",
		Short: "risc16 instruction level simulator",
		Long: `Simulates a 16-bit RISC machine with 8K words of RAM and a memory
mapped console. Programs are memory images of '<address> <value>' hex
lines, or assembly language sources (.s, .asm).`,
		SilenceUsage: true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose mode")

	runCmd := &cobra.Command{
		Use:   "run PROGRAM [BREAKPOINT...]",
		Short: "Run a program until it halts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			err = checkInteractive(interactive, input)
			if err != nil {
				return
			}

			bp, err := cpu.ParseBreakpoints(append(args[1:], breaks...)...)
			if err != nil {
				return
			}

			emu := emulator.NewEmulator()
			emu.Verbose = verbose
			if strict {
				emu.Policy = cpu.POLICY_STRICT
			}

			if input == "-" {
				emu.Console.Input = os.Stdin
			} else {
				inf, err := os.Open(input)
				if err != nil {
					return err
				}
				defer inf.Close()
				emu.Console.Input = inf
			}

			if output == "-" {
				emu.Console.Output = os.Stdout
			} else {
				ouf, err := os.Create(output)
				if err != nil {
					return err
				}
				defer ouf.Close()
				emu.Console.Output = ouf
			}

			err = loadProgram(emu, args[0])
			if err != nil {
				return
			}
			emu.Breakpoints = bp

			var dbg *debugger
			if interactive {
				dbg, err = newDebugger(emu)
				if err != nil {
					return
				}
				defer dbg.Close()
			}

			err = run(emu, dbg, dump)
			if errors.Is(err, ErrQuit) {
				err = nil
			}
			return
		},
	}
	runCmd.Flags().BoolVar(&strict, "strict", false, "Halt on the first diagnostic")
	runCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Prompt at breakpoints")
	runCmd.Flags().BoolVar(&dump, "dump", true, "Dump the machine state at halt and at breakpoints")
	runCmd.Flags().StringSliceVarP(&breaks, "break", "b", nil, "Breakpoint addresses (hex)")
	runCmd.Flags().StringVar(&input, "input", "-", "Console input ('-' is standard input, not allowed with --interactive)")
	runCmd.Flags().StringVar(&output, "output", "-", "Console output")

	asmCmd := &cobra.Command{
		Use:   "asm SOURCE [IMAGE]",
		Short: "Assemble a source file to a memory image",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			prog, err := assemble(args[0], verbose)
			if err != nil {
				return
			}

			if len(args) == 1 {
				return loader.Write(os.Stdout, prog.Image())
			}

			ouf, err := os.Create(args[1])
			if err != nil {
				return
			}
			defer ouf.Close()

			return loader.Write(ouf, prog.Image())
		},
	}

	disCmd := &cobra.Command{
		Use:   "dis IMAGE",
		Short: "Disassemble a memory image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			image, err := loader.Load(args[0])
			if err != nil {
				return
			}

			return disassemble(os.Stdout, image)
		},
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(asmCmd)
	rootCmd.AddCommand(disCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

// run executes the emulator until it halts, dumping the machine state at
// breakpoints and at the halt.
func run(emu *emulator.Emulator, dbg *debugger, dump bool) (err error) {
	for {
		var state cpu.State
		state, err = emu.Run()
		if dump {
			fmt.Println()
			if dump_err := emu.Dump(os.Stdout); dump_err != nil {
				return dump_err
			}
		}
		if err != nil {
			return
		}

		if state == cpu.STATE_HALTED {
			return
		}

		if dbg != nil {
			err = dbg.Prompt()
			if err != nil {
				return
			}
		}

		if emu.State == cpu.STATE_PAUSED {
			emu.Resume()
		}
	}
}
