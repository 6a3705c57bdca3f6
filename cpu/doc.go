// Package cpu implements the processor and assembler for the risc16 system.
//
// The CPU has sixteen 16-bit registers (r0-r13, sp and pc), Zero and Carry
// flags, and executes one instruction per Tick. The program counter is
// incremented after the fetch and before execution, so jump offsets and PC
// relative addresses are relative to the following instruction.
//
// Diagnostics (undefined instructions, unmapped accesses, console errors)
// are recorded against the faulting instruction. Under POLICY_LENIENT the
// run continues; under POLICY_STRICT the CPU halts on the first one.
//
// The assembler provides a small assembly language for the instruction set,
// supporting macros, labels, equates, and compile-time expression evaluation.
package cpu
