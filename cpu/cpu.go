package cpu

import (
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/risc16/memory"
)

const (
	REG_SP    = 14 // Stack pointer register.
	REG_PC    = 15 // Program counter register.
	REG_COUNT = 16 // Size of the register file.
)

var _cpu_defines = map[string]string{
	"REG_SP":      fmt.Sprintf("%d", REG_SP),
	"REG_PC":      fmt.Sprintf("%d", REG_PC),
	"STACK_EMPTY": fmt.Sprintf("0x%04x", STACK_EMPTY),
}

// State is the execution state of the CPU.
type State int

//go:generate go tool stringer -linecomment -type=State
const (
	STATE_RUNNING = State(0) // running
	STATE_PAUSED  = State(1) // paused
	STATE_HALTED  = State(2) // halted
)

// Policy selects how diagnostics affect a run.
type Policy int

//go:generate go tool stringer -linecomment -type=Policy
const (
	POLICY_LENIENT = Policy(0) // lenient
	POLICY_STRICT  = Policy(1) // strict
)

// Cpu is the simulation context for the risc16 processor.
type Cpu struct {
	Verbose bool   // Set to enable verbose logging.
	Policy  Policy // Diagnostic policy.

	Memory      *memory.Memory // Reference to the address space.
	Breakpoints Breakpoints    // Addresses to pause at.

	Register [REG_COUNT]uint16 // Register bank; R14 is SP, R15 is PC.
	Ir       uint16            // Instruction register.
	Ip       uint16            // Address Ir was fetched from.
	Zero     bool              // Zero flag.
	Carry    bool              // Carry flag.
	State    State             // Execution state.

	Ticks       int     // Instructions executed since reset.
	Diagnostics []error // Diagnostics raised since reset, oldest first.
}

// NewCpu creates a new CPU attached to a memory.
func NewCpu(mem *memory.Memory) (cpu *Cpu) {
	cpu = &Cpu{
		Memory: mem,
	}

	cpu.Reset()

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Reset the CPU state.
//   - Clears the registers, flags and instruction register.
//   - Sets SP to the empty stack, and PC to zero.
//   - Zeros the tick counter and drops all diagnostics.
//
// Memory contents are not changed.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Register[:])
	cpu.Register[REG_SP] = STACK_EMPTY
	cpu.Register[REG_PC] = 0
	cpu.Ir = 0
	cpu.Ip = 0
	cpu.Zero = false
	cpu.Carry = false
	cpu.State = STATE_RUNNING
	cpu.Ticks = 0
	cpu.Diagnostics = nil
}

// Pc returns the program counter.
func (cpu *Cpu) Pc() uint16 {
	return cpu.Register[REG_PC]
}

// Sp returns the stack pointer.
func (cpu *Cpu) Sp() uint16 {
	return cpu.Register[REG_SP]
}

// Stack returns the stack unit over SP and memory.
func (cpu *Cpu) Stack() Stack {
	return Stack{Sp: &cpu.Register[REG_SP], Memory: cpu.Memory}
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	for reg := range REG_COUNT {
		text += fmt.Sprintf("% 5s: %04X\n", RegisterName(reg), cpu.Register[reg])
	}
	text += fmt.Sprintf("% 5s: %04X\n", "ir", cpu.Ir)
	text += fmt.Sprintf("% 5s: %v\n", "zero", cpu.Zero)
	text += fmt.Sprintf("% 5s: %v\n", "carry", cpu.Carry)
	text += fmt.Sprintf("% 5s: %v\n", "state", cpu.State)

	return
}

// diagnose records a diagnostic for the current instruction.
// Under POLICY_STRICT the CPU halts, and the diagnostic is returned.
func (cpu *Cpu) diagnose(err error) error {
	if err == nil {
		return nil
	}

	fault := ErrFault{Addr: cpu.Ip, Err: err}
	cpu.Diagnostics = append(cpu.Diagnostics, fault)

	if cpu.Verbose {
		log.Printf("cpu: %v", fault)
	}

	if cpu.Policy == POLICY_STRICT {
		cpu.State = STATE_HALTED
		return fault
	}

	return nil
}

// Tick executes a single fetch-decode-execute cycle.
//
// PC is incremented after the fetch and before execution, so jump targets
// and PC relative addresses are relative to the following instruction.
// After execution the fetch address is checked against the breakpoints,
// and a hit pauses the CPU unless it has halted.
func (cpu *Cpu) Tick() (err error) {
	switch cpu.State {
	case STATE_HALTED:
		err = ErrHalted
		return
	case STATE_PAUSED:
		err = ErrPaused
		return
	}

	// Fetch
	addr := cpu.Register[REG_PC]
	cpu.Ip = addr
	word, fetch_err := cpu.Memory.Read(addr)
	cpu.Ir = word
	cpu.Register[REG_PC]++
	cpu.Ticks++

	err = cpu.diagnose(fetch_err)
	if err != nil {
		return
	}

	// Decode
	ins, decode_err := Decode(word)
	if decode_err != nil {
		// Skip the undefined instruction, unless strict.
		err = cpu.diagnose(ErrDecode{Addr: addr, Word: word})
	} else {
		if cpu.Verbose {
			log.Printf("%04x: %04x %v", addr, word, ins)
		}
		err = cpu.Execute(ins)
	}
	if err != nil {
		return
	}

	// Breakpoint check on the address just executed.
	if cpu.State != STATE_HALTED && cpu.Breakpoints.Contains(addr) {
		if cpu.Verbose {
			log.Printf("cpu: breakpoint at %04x", addr)
		}
		cpu.State = STATE_PAUSED
	}

	return
}

// Run ticks the CPU until it halts or pauses at a breakpoint.
// A paused CPU must be resumed before it runs again.
func (cpu *Cpu) Run() (state State, err error) {
	for cpu.State == STATE_RUNNING {
		err = cpu.Tick()
		if err != nil {
			break
		}
	}

	state = cpu.State
	return
}

// Resume continues a CPU paused at a breakpoint.
func (cpu *Cpu) Resume() {
	if cpu.State == STATE_PAUSED {
		cpu.State = STATE_RUNNING
	}
}

// condition evaluates the condition of a jump against the flags.
func (cpu *Cpu) condition(mn Mnemonic) bool {
	switch mn {
	case INS_JEQ:
		return cpu.Zero
	case INS_JNE:
		return !cpu.Zero
	case INS_JLT:
		return cpu.Carry
	case INS_JGE:
		return !cpu.Carry
	}

	// INS_JMP
	return true
}

// address computes the effective address of a load or store.
func (cpu *Cpu) address(ins Instruction) (addr uint16) {
	addr = cpu.Register[ins.Rm]
	if ins.HasImm {
		addr += ins.Imm
	}
	return
}

// Execute executes a single decoded instruction.
// Only ALU operations change the flags.
func (cpu *Cpu) Execute(ins Instruction) (err error) {
	reg := &cpu.Register

	switch ins.Mnemonic {
	case INS_HALT:
		cpu.State = STATE_HALTED
	case INS_JMP, INS_JEQ, INS_JNE, INS_JLT, INS_JGE:
		if cpu.condition(ins.Mnemonic) {
			reg[REG_PC] += ins.Imm
		}
	case INS_MOV:
		reg[ins.Rd] = ins.Imm
	case INS_LDR:
		value, mem_err := cpu.Memory.Read(cpu.address(ins))
		reg[ins.Rd] = value
		err = cpu.diagnose(mem_err)
	case INS_STR:
		err = cpu.diagnose(cpu.Memory.Write(cpu.address(ins), reg[ins.Rn]))
	case INS_PUSH:
		err = cpu.diagnose(cpu.Stack().Push(reg[ins.Rn]))
	case INS_POP:
		value, mem_err := cpu.Stack().Pop()
		reg[ins.Rd] = value
		err = cpu.diagnose(mem_err)
	case INS_ADD, INS_SUB, INS_AND, INS_OR, INS_SHL, INS_SHR, INS_CMP:
		op, _ := ins.AluOp()
		b := reg[ins.Rn]
		if ins.HasImm {
			b = ins.Imm
		}
		result, zero, carry := Alu(op, reg[ins.Rm], b)
		cpu.Zero = zero
		cpu.Carry = carry
		if op != ALU_CMP {
			reg[ins.Rd] = result
		}
	default:
		err = cpu.diagnose(ErrDecode{Addr: cpu.Ip, Word: ins.Word})
	}

	return
}
