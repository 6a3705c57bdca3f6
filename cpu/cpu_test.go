package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/risc16/memory"
)

// newTestCpu builds a CPU with the words loaded from address zero.
func newTestCpu(words ...uint16) (cpu *Cpu) {
	image := memory.Image{}
	for n, word := range words {
		image[uint16(n)] = word
	}

	mem := memory.NewMemory(nil)
	mem.Load(image)

	cpu = NewCpu(mem)

	return
}

func TestCpu_Reset(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(0x0503)
	cpu.Register[3] = 7
	cpu.Zero = true
	cpu.Carry = true
	cpu.State = STATE_HALTED
	cpu.Diagnostics = []error{ErrHalted}

	cpu.Reset()

	assert.Equal(uint16(0), cpu.Register[3])
	assert.Equal(uint16(STACK_EMPTY), cpu.Sp())
	assert.Equal(uint16(0), cpu.Pc())
	assert.False(cpu.Zero)
	assert.False(cpu.Carry)
	assert.Equal(STATE_RUNNING, cpu.State)
	assert.Nil(cpu.Diagnostics)
	assert.Equal(uint16(0x0503), cpu.Memory.Peek(0))
}

func TestCpu_Defines(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu()
	defines := map[string]string{}
	for key, value := range cpu.Defines() {
		defines[key] = value
	}

	assert.Equal("14", defines["REG_SP"])
	assert.Equal("15", defines["REG_PC"])
	assert.Equal("0x2000", defines["STACK_EMPTY"])
}

func TestCpu_ScenarioAdd(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(
		0x0503, // mov r0, #5
		0x0313, // mov r1, #3
		0x1025, // add r2, r0, r1
		0x0000, // halt
	)

	state, err := cpu.Run()
	assert.NoError(err)
	assert.Equal(STATE_HALTED, state)
	assert.Equal(uint16(8), cpu.Register[2])
	assert.False(cpu.Zero)
	assert.False(cpu.Carry)
	assert.Equal(uint16(4), cpu.Pc())
	assert.Equal(uint16(3), cpu.Ip)
	assert.Equal(4, cpu.Ticks)
	assert.Empty(cpu.Diagnostics)
}

func TestCpu_ScenarioBorrow(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(
		0x0003, // mov r0, #0
		0x101d, // sub r1, r0, #1
		0x0000, // halt
	)

	state, err := cpu.Run()
	assert.NoError(err)
	assert.Equal(STATE_HALTED, state)
	assert.Equal(uint16(0xffff), cpu.Register[1])
	assert.True(cpu.Carry)
	assert.False(cpu.Zero)
}

func TestCpu_ScenarioPush(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(
		0x2004, // push r0
		0x0000, // halt
	)
	cpu.Register[0] = 0x1234

	_, err := cpu.Run()
	assert.NoError(err)
	assert.Equal(uint16(0x1fff), cpu.Sp())
	assert.Equal(uint16(0x1234), cpu.Memory.Peek(0x1fff))

	snap := cpu.Snapshot()
	assert.Equal([]Cell{{Addr: 0x1fff, Value: 0x1234}}, snap.Stack)
	assert.Equal([]Cell{
		{Addr: 0x0000, Value: 0x2004},
		{Addr: 0x0001, Value: 0x0000},
		{Addr: 0x1fff, Value: 0x1234},
	}, snap.Memory)
	assert.Equal(uint16(0x1fff), snap.Sp())
	assert.Equal(uint16(2), snap.Pc())
}

func TestCpu_ScenarioBreakpoint(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(
		0x0103, // mov r0, #1
		0x0213, // mov r1, #2
		0x1025, // add r2, r0, r1
		0x0000, // halt
	)
	cpu.Breakpoints = NewBreakpoints(0x0002)

	state, err := cpu.Run()
	assert.NoError(err)
	assert.Equal(STATE_PAUSED, state)
	assert.Equal(uint16(0x0003), cpu.Pc())
	assert.Equal(uint16(0x1025), cpu.Ir)
	assert.Equal(uint16(0x0002), cpu.Ip)

	// A paused CPU does not tick.
	assert.ErrorIs(cpu.Tick(), ErrPaused)
	state, err = cpu.Run()
	assert.NoError(err)
	assert.Equal(STATE_PAUSED, state)

	cpu.Resume()
	state, err = cpu.Run()
	assert.NoError(err)
	assert.Equal(STATE_HALTED, state)
	assert.Equal(uint16(3), cpu.Register[2])

	assert.ErrorIs(cpu.Tick(), ErrHalted)
}

func TestCpu_BreakpointOnHalt(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(0x0000)
	cpu.Breakpoints = NewBreakpoints(0x0000)

	state, err := cpu.Run()
	assert.NoError(err)
	assert.Equal(STATE_HALTED, state)
}

func TestCpu_Jump(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(
		0x0101, // jmp #1
		0x0103, // mov r0, #1
		0x0000, // halt
	)

	_, err := cpu.Run()
	assert.NoError(err)
	assert.Equal(uint16(0), cpu.Register[0])
	assert.Equal(uint16(3), cpu.Pc())

	// jmp #-1 is a tight loop at its own address.
	cpu = newTestCpu(0xff01)
	for range 3 {
		assert.NoError(cpu.Tick())
		assert.Equal(uint16(0), cpu.Pc())
	}
	assert.Equal(STATE_RUNNING, cpu.State)
}

func TestCpu_ConditionalJump(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		cmp   uint16 // Compare r0 (zero) with an immediate.
		jump  uint16
		taken bool
	}{
		{0x000e, 0x0402, true},  // cmp r0, #0; jeq #1
		{0x000e, 0x0412, false}, // cmp r0, #0; jne #1
		{0x010e, 0x0402, false}, // cmp r0, #1; jeq #1
		{0x010e, 0x0412, true},  // cmp r0, #1; jne #1
		{0x010e, 0x0422, true},  // cmp r0, #1; jlt #1
		{0x010e, 0x0432, false}, // cmp r0, #1; jge #1
		{0xff0e, 0x0422, true},  // cmp r0, #-1; jlt #1, unsigned
		{0x000e, 0x0432, true},  // cmp r0, #0; jge #1
	}

	for _, entry := range table {
		cpu := newTestCpu(
			entry.cmp,
			entry.jump,
			0x0113, // mov r1, #1
			0x0000, // halt
		)

		_, err := cpu.Run()
		assert.NoError(err)
		if entry.taken {
			assert.Equal(uint16(0), cpu.Register[1], "%04x %04x", entry.cmp, entry.jump)
		} else {
			assert.Equal(uint16(1), cpu.Register[1], "%04x %04x", entry.cmp, entry.jump)
		}
	}
}

func TestCpu_Compare(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(
		0x320b, // cmp r2, r3
		0x0000, // halt
	)
	cpu.Register[2] = 7
	cpu.Register[3] = 7

	before := cpu.Register
	_, err := cpu.Run()
	assert.NoError(err)

	after := cpu.Register
	before[REG_PC] = 0
	after[REG_PC] = 0
	assert.Equal(before, after)
	assert.True(cpu.Zero)
	assert.False(cpu.Carry)
}

func TestCpu_FlagsPreserved(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(
		0x0003, // mov r0, #0
		0x2004, // push r0
		0x3014, // pop r1
		0x0224, // ldr r2, [r2]
		0x1234, // str r3, [r2]
		0x0101, // jmp #1
		0x0000,
		0x0000, // halt
	)
	cpu.Zero = true
	cpu.Carry = true

	_, err := cpu.Run()
	assert.NoError(err)
	assert.True(cpu.Zero)
	assert.True(cpu.Carry)
	assert.Empty(cpu.Diagnostics)
}

func TestCpu_LoadStore(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(
		0x041f, // ldr r1, [pc, #1]
		0x1023, // mov r2, #0x10
		0x1214, // str r1, [r2]
		0x0000, // halt
	)

	_, err := cpu.Run()
	assert.NoError(err)
	// pc + 1 = 0x0002, which holds the store instruction word.
	assert.Equal(uint16(0x1214), cpu.Register[1])
	assert.Equal(uint16(0x1214), cpu.Memory.Peek(0x0010))
	assert.True(cpu.Memory.IsAccessed(0x0010))
}

func TestCpu_StackPointerEdges(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(
		0x20e4, // push sp
		0x30e4, // pop sp
		0x0000, // halt
	)

	assert.NoError(cpu.Tick())
	// The pushed value is SP before the decrement.
	assert.Equal(uint16(STACK_EMPTY), cpu.Memory.Peek(0x1fff))
	assert.Equal(uint16(0x1fff), cpu.Sp())

	assert.NoError(cpu.Tick())
	// The popped value replaces the incremented SP.
	assert.Equal(uint16(STACK_EMPTY), cpu.Sp())
}

func TestCpu_Lenient(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(
		0x4004, // undefined
		0x0214, // ldr r1, [r2]
		0x3034, // pop r3
		0x0103, // mov r0, #1
		0x0000, // halt
	)
	cpu.Register[1] = 0x5555
	cpu.Register[2] = 0x2000

	state, err := cpu.Run()
	assert.NoError(err)
	assert.Equal(STATE_HALTED, state)
	assert.Equal(uint16(1), cpu.Register[0])
	assert.Equal(uint16(0), cpu.Register[1])
	assert.Equal(uint16(0), cpu.Register[3])
	assert.Equal(uint16(STACK_EMPTY+1), cpu.Sp())

	assert.Len(cpu.Diagnostics, 3)

	var fault ErrFault
	var decode_err ErrDecode
	var unmapped memory.ErrUnmapped

	assert.True(errors.As(cpu.Diagnostics[0], &decode_err))
	assert.Equal(ErrDecode{Addr: 0, Word: 0x4004}, decode_err)

	assert.True(errors.As(cpu.Diagnostics[1], &fault))
	assert.Equal(uint16(1), fault.Addr)
	assert.True(errors.As(cpu.Diagnostics[1], &unmapped))
	assert.Equal(memory.ErrUnmapped{Addr: 0x2000}, unmapped)

	assert.True(errors.As(cpu.Diagnostics[2], &fault))
	assert.Equal(uint16(2), fault.Addr)
}

func TestCpu_Strict(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(
		0x0103, // mov r0, #1
		0x1214, // str r1, [r2]
		0x0113, // mov r1, #1
		0x0000, // halt
	)
	cpu.Policy = POLICY_STRICT
	cpu.Register[2] = 0x4000

	state, err := cpu.Run()
	assert.Equal(STATE_HALTED, state)

	var fault ErrFault
	assert.True(errors.As(err, &fault))
	assert.Equal(uint16(1), fault.Addr)
	assert.Equal(memory.ErrUnmapped{Addr: 0x4000, Write: true}, fault.Err)
	assert.Equal(uint16(0), cpu.Register[1])
	assert.Len(cpu.Diagnostics, 1)

	cpu = newTestCpu(0xc004)
	cpu.Policy = POLICY_STRICT

	state, err = cpu.Run()
	assert.Equal(STATE_HALTED, state)
	var decode_err ErrDecode
	assert.True(errors.As(err, &decode_err))
	assert.Equal(uint16(0xc004), decode_err.Word)
}

func TestCpu_RunOffRam(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu()
	cpu.Register[REG_PC] = 0x1fff
	cpu.Memory.Load(memory.Image{0x1fff: 0x0001}) // jmp #0

	state, err := cpu.Run()
	assert.NoError(err)
	assert.Equal(STATE_HALTED, state)
	// The fetch from 0x2000 is unmapped and reads as halt.
	assert.Len(cpu.Diagnostics, 1)
	assert.Equal(uint16(0x2000), cpu.Ip)
}

func TestCpu_String(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu()
	text := cpu.String()
	assert.Contains(text, "   sp: 2000\n")
	assert.Contains(text, "state: running\n")
}
