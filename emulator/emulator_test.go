package emulator

import (
	"bytes"
	"errors"
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/risc16/cpu"
	"github.com/ezrec/risc16/io"
	"github.com/ezrec/risc16/loader"
	"github.com/ezrec/risc16/memory"
)

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	assert.False(emu.Verbose)
	assert.NotNil(emu.Cpu)
	assert.Equal(io.Port(&emu.Console), emu.Cpu.Memory.Port)

	defines := maps.Collect(emu.Defines())
	assert.Equal("16", defines["WORD_BITS"])
	assert.Equal("14", defines["REG_SP"])
	assert.Equal("0xf001", defines["IO_CHAR_OUT"])
}

// doAssemble assembles a program, and loads it into a new emulator.
func doAssemble(t *testing.T, program []string, input string) (emu *Emulator, output *bytes.Buffer) {
	t.Helper()

	asm := &cpu.Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	if err != nil {
		t.Fatal(err)
	}

	output = &bytes.Buffer{}

	emu = NewEmulator()
	emu.Console.Input = strings.NewReader(input)
	emu.Console.Output = output
	emu.LoadProgram(prog)

	return
}

// doLoad loads a memory image, in loader text form, into a new emulator.
func doLoad(t *testing.T, text ...string) (emu *Emulator) {
	t.Helper()

	image, err := loader.Parse(strings.NewReader(strings.Join(text, "\n")))
	if err != nil {
		t.Fatal(err)
	}

	emu = NewEmulator()
	emu.Reset(image)

	return
}

func TestEmulator_ScenarioA(t *testing.T) {
	assert := assert.New(t)

	emu := doLoad(t,
		"0000 0503", // mov r0, #5
		"0001 0313", // mov r1, #3
		"0002 1025", // add r2, r0, r1
		"0003 0000", // halt
	)

	state, err := emu.Run()
	assert.NoError(err)
	assert.Equal(cpu.STATE_HALTED, state)
	assert.Equal(uint16(8), emu.Register[2])
	assert.False(emu.Zero)
	assert.False(emu.Carry)

	out := &bytes.Buffer{}
	assert.NoError(emu.Dump(out))
	text := out.String()
	assert.Contains(text, "state: halted  ip: 0003  ir: 0000  ticks: 4\n")
	assert.Contains(text, "   r0: 0005   r1: 0003   r2: 0008   r3: 0000\n")
	assert.Contains(text, "   sp: 2000   pc: 0004\n")
	assert.Contains(text, "flags: Z=0 C=0\n")
	assert.NotContains(text, "stack:")
	assert.NotContains(text, "diagnostics:")
}

func TestEmulator_ScenarioB(t *testing.T) {
	assert := assert.New(t)

	emu := doLoad(t,
		"0000 0003", // mov r0, #0
		"0001 101d", // sub r1, r0, #1
		"0002 0000", // halt
	)

	_, err := emu.Run()
	assert.NoError(err)
	assert.Equal(uint16(0xffff), emu.Register[1])
	assert.True(emu.Carry)
	assert.False(emu.Zero)

	out := &bytes.Buffer{}
	assert.NoError(emu.Dump(out))
	assert.Contains(out.String(), "flags: Z=0 C=1\n")
}

func TestEmulator_ScenarioC(t *testing.T) {
	assert := assert.New(t)

	emu := doLoad(t,
		"0000 2004", // push r0
		"0001 0000", // halt
	)
	emu.Register[0] = 0x1234

	_, err := emu.Run()
	assert.NoError(err)
	assert.Equal(uint16(0x1fff), emu.Sp())
	assert.Equal(uint16(0x1234), emu.Memory.Peek(0x1fff))

	out := &bytes.Buffer{}
	assert.NoError(emu.Dump(out))
	text := out.String()

	_, stack, ok := strings.Cut(text, "stack:\n")
	assert.True(ok)
	assert.Equal("  1fff: 1234\n", stack)
}

func TestEmulator_ScenarioD(t *testing.T) {
	assert := assert.New(t)

	emu := doLoad(t,
		"0000 0103", // mov r0, #1
		"0001 0213", // mov r1, #2
		"0002 1025", // add r2, r0, r1
		"0003 0000", // halt
	)

	bp, err := cpu.ParseBreakpoints("0x0002")
	assert.NoError(err)
	emu.Breakpoints = bp

	state, err := emu.Run()
	assert.NoError(err)
	assert.Equal(cpu.STATE_PAUSED, state)
	assert.Equal(uint16(0x0003), emu.Pc())
	assert.Equal(uint16(0x1025), emu.Ir)

	state, err = emu.Continue()
	assert.NoError(err)
	assert.Equal(cpu.STATE_HALTED, state)
	assert.Equal(uint16(3), emu.Register[2])
}

func TestEmulator_Step(t *testing.T) {
	assert := assert.New(t)

	emu := doLoad(t,
		"0000 0103", // mov r0, #1
		"0001 0213", // mov r1, #2
		"0002 0000", // halt
	)
	emu.Breakpoints = cpu.NewBreakpoints(0)

	state, err := emu.Run()
	assert.NoError(err)
	assert.Equal(cpu.STATE_PAUSED, state)
	assert.Equal(uint16(1), emu.Pc())

	state, err = emu.Step()
	assert.NoError(err)
	assert.Equal(cpu.STATE_PAUSED, state)
	assert.Equal(uint16(2), emu.Pc())
	assert.Equal(uint16(2), emu.Register[1])

	state, err = emu.Step()
	assert.NoError(err)
	assert.Equal(cpu.STATE_HALTED, state)

	_, err = emu.Step()
	assert.ErrorIs(err, cpu.ErrHalted)
}

func TestEmulator_DumpAccessMap(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"        mov r2, #0x20",
		"        mov r0, #7",
		"        str r0, [r2]",
		"        ldr r1, [r2]",
		"        add r2, r2, #8",
		"        ldr r3, [r2]",
		"        push r1",
		"        pop r1",
		"        halt",
	}

	emu, _ := doAssemble(t, program, "")

	_, err := emu.Run()
	assert.NoError(err)

	out := &bytes.Buffer{}
	assert.NoError(emu.Dump(out))

	_, memory_text, ok := strings.Cut(out.String(), "memory:\n")
	assert.True(ok)

	// Every dumped cell is an accessed cell, and vice versa.
	dumped, err := loader.Parse(strings.NewReader(strings.ReplaceAll(memory_text, ":", "")))
	assert.NoError(err)

	touched := memory.Image(maps.Collect(emu.Memory.Touched()))
	assert.Equal(touched, dumped)

	// 9 instructions, 0x20, 0x28 and the stack slot.
	assert.Len(dumped, 12)
	assert.Equal(uint16(7), dumped[0x20])
	assert.Equal(uint16(0), dumped[0x28])
	assert.Equal(uint16(7), dumped[0x1fff])

	// Popping leaves the stack empty, so no stack section.
	assert.NotContains(out.String(), "stack:")
}

func TestEmulator_CharOutput(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"        ldr r1, out",
		"        mov r0, #'H'",
		"        str r0, [r1]",
		"        mov r0, #'i'",
		"        str r0, [r1]",
		"        mov r0, #'\\n'",
		"        str r0, [r1]",
		"        halt",
		"out:    .word IO_CHAR_OUT",
	}

	emu, output := doAssemble(t, program, "")

	state, err := emu.Run()
	assert.NoError(err)
	assert.Equal(cpu.STATE_HALTED, state)
	assert.Equal("Hi\n", output.String())
	assert.Empty(emu.Diagnostics)

	// The I/O window is not in the access map.
	for addr := range emu.Memory.Touched() {
		assert.Less(addr, uint16(memory.RAM_SIZE))
	}
}

func TestEmulator_IntIo(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"        ldr r1, inp",
		"        ldr r2, outp",
		"        ldr r3, [r1]",
		"        ldr r4, [r1]",
		"        add r5, r3, r4",
		"        str r5, [r2]",
		"        halt",
		"inp:    .word IO_INT_IN",
		"outp:   .word IO_INT_OUT",
	}

	emu, output := doAssemble(t, program, "12\n-30\n")

	_, err := emu.Run()
	assert.NoError(err)
	assert.Equal("-18", output.String())
	assert.Equal(uint16(0xffee), emu.Register[5])
}

func TestEmulator_Echo(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"        mov r1, #-16     ; 0xfff0",
		"        shl r1, r1, #8   ; 0xf000, IO_CHAR_IN",
		"        add r2, r1, #1   ; 0xf001, IO_CHAR_OUT",
		"loop:   ldr r0, [r1]",
		"        cmp r0, #0",
		"        jeq done",
		"        str r0, [r2]",
		"        jmp loop",
		"done:   halt",
	}

	emu, output := doAssemble(t, program, "echo")

	state, err := emu.Run()
	assert.NoError(err)
	assert.Equal(cpu.STATE_HALTED, state)
	assert.Equal("echo", output.String())

	// End of input is a diagnostic, and reads as zero.
	if assert.Len(emu.Diagnostics, 1) {
		assert.ErrorIs(emu.Diagnostics[0], io.ErrIoExhausted)
	}
}

func TestEmulator_Strict(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"        mov r1, #-16",
		"        shl r1, r1, #8",
		"        ldr r0, [r1]",
		"        halt",
	}

	emu, _ := doAssemble(t, program, "")
	emu.Policy = cpu.POLICY_STRICT
	emu.LoadProgram(emu.Program)

	state, err := emu.Run()
	assert.Equal(cpu.STATE_HALTED, state)
	assert.ErrorIs(err, io.ErrIoExhausted)

	var runtime *ErrRuntime
	if assert.True(errors.As(err, &runtime)) {
		assert.Equal(3, runtime.LineNo)
		assert.Equal(uint16(2), runtime.Ip)
	}

	var fault cpu.ErrFault
	assert.True(errors.As(err, &fault))

	var port memory.ErrPort
	if assert.True(errors.As(err, &port)) {
		assert.Equal(uint16(memory.IO_CHAR_IN), port.Addr)
	}
}

func TestEmulator_Reset(t *testing.T) {
	assert := assert.New(t)

	emu := doLoad(t,
		"0000 0503", // mov r0, #5
		"0001 0000", // halt
	)
	emu.Breakpoints = cpu.NewBreakpoints(0x10)

	_, err := emu.Run()
	assert.NoError(err)
	assert.True(emu.Memory.IsAccessed(0))

	emu.Reset(memory.Image{0x0000: 0x0313})
	assert.Equal(cpu.STATE_RUNNING, emu.State)
	assert.Equal(uint16(0), emu.Register[0])
	assert.False(emu.Memory.IsAccessed(0))
	assert.Equal(uint16(0), emu.Memory.Peek(1))
	assert.True(emu.Breakpoints.Contains(0x10))
	assert.Equal(0, emu.LineNo())
}

func TestEmulator_DumpStackUnderflow(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"        pop r3",
		"        halt",
	}

	emu, _ := doAssemble(t, program, "")

	_, err := emu.Run()
	assert.NoError(err)
	assert.Equal(uint16(cpu.STACK_EMPTY+1), emu.Sp())
	assert.Equal(uint16(0), emu.Register[3])
	assert.Len(emu.Diagnostics, 1)

	out := &bytes.Buffer{}
	assert.NoError(emu.Dump(out))
	text := out.String()
	assert.Contains(text, "   sp: 2001")
	assert.NotContains(text, "stack:")
	assert.Contains(text, "diagnostics:\n")
}
