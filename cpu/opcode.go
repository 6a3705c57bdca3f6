package cpu

import (
	"fmt"
)

// Opcode is the 4-bit opcode field, bits [3:0] of an instruction word.
type Opcode int

// Instruction format table.
//
//	op  mnemonic               15..12  11..8  7..4  3..0
//	0x0 HALT                   ----    ----   ----  0000
//	0x1 JMP #s8                imm8           ----  0001
//	0x2 Jcc #s6                imm6   ----    --cc  0010   cc: eq ne lt ge
//	0x3 MOV Rd, #s8            imm8           Rd    0011
//	0x4 LDR/STR/PUSH/POP       00ss    Rm     Rx    0100   ss: ldr str push pop
//	0x5 ADD Rd, Rm, Rn         Rn      Rm     Rd    0101
//	0x6 SUB Rd, Rm, Rn         Rn      Rm     Rd    0110
//	0x7 AND Rd, Rm, Rn         Rn      Rm     Rd    0111
//	0x8 OR  Rd, Rm, Rn         Rn      Rm     Rd    1000
//	0x9 SHL Rd, Rm, #u4        u4      Rm     Rd    1001
//	0xA SHR Rd, Rm, #u4        u4      Rm     Rd    1010
//	0xB CMP Rm, Rn             Rn      Rm     ----  1011
//	0xC ADD Rd, Rm, #u4        u4      Rm     Rd    1100
//	0xD SUB Rd, Rm, #u4        u4      Rm     Rd    1101
//	0xE CMP Rm, #s8            imm8           Rm    1110
//	0xF LDR/STR Rx, [PC, #s6]  imm6   0s      Rx    1111   s: ldr str
const (
	OP_HALT = Opcode(0x0) // Halt the machine.
	OP_JMP  = Opcode(0x1) // Unconditional PC relative jump.
	OP_JCC  = Opcode(0x2) // Conditional PC relative jump.
	OP_MOV  = Opcode(0x3) // Load sign extended immediate.
	OP_MEM  = Opcode(0x4) // Register indirect load/store, push and pop.
	OP_ADD  = Opcode(0x5) // Rd = Rm + Rn
	OP_SUB  = Opcode(0x6) // Rd = Rm - Rn
	OP_AND  = Opcode(0x7) // Rd = Rm & Rn
	OP_OR   = Opcode(0x8) // Rd = Rm | Rn
	OP_SHL  = Opcode(0x9) // Rd = Rm << u4
	OP_SHR  = Opcode(0xa) // Rd = Rm >> u4
	OP_CMP  = Opcode(0xb) // flags of Rm - Rn
	OP_ADDI = Opcode(0xc) // Rd = Rm + u4
	OP_SUBI = Opcode(0xd) // Rd = Rm - u4
	OP_CMPI = Opcode(0xe) // flags of Rm - s8
	OP_LDPC = Opcode(0xf) // PC relative load/store.
)

// CodeCond is the condition field of a conditional jump.
type CodeCond int

const (
	COND_EQ = CodeCond(0) // Zero set.
	COND_NE = CodeCond(1) // Zero clear.
	COND_LT = CodeCond(2) // Carry set.
	COND_GE = CodeCond(3) // Carry clear.
)

// CodeMem is the sub-operation field of the OP_MEM class.
type CodeMem int

const (
	MEM_LDR  = CodeMem(0)
	MEM_STR  = CodeMem(1)
	MEM_PUSH = CodeMem(2)
	MEM_POP  = CodeMem(3)
)

// Mnemonic identifies the operation performed by an instruction.
type Mnemonic int

//go:generate go tool stringer -linecomment -type=Mnemonic
const (
	INS_HALT = Mnemonic(0)  // halt
	INS_JMP  = Mnemonic(1)  // jmp
	INS_JEQ  = Mnemonic(2)  // jeq
	INS_JNE  = Mnemonic(3)  // jne
	INS_JLT  = Mnemonic(4)  // jlt
	INS_JGE  = Mnemonic(5)  // jge
	INS_LDR  = Mnemonic(6)  // ldr
	INS_STR  = Mnemonic(7)  // str
	INS_MOV  = Mnemonic(8)  // mov
	INS_ADD  = Mnemonic(9)  // add
	INS_SUB  = Mnemonic(10) // sub
	INS_AND  = Mnemonic(11) // and
	INS_OR   = Mnemonic(12) // or
	INS_SHL  = Mnemonic(13) // shl
	INS_SHR  = Mnemonic(14) // shr
	INS_CMP  = Mnemonic(15) // cmp
	INS_PUSH = Mnemonic(16) // push
	INS_POP  = Mnemonic(17) // pop
)

var condMnemonic = [4]Mnemonic{INS_JEQ, INS_JNE, INS_JLT, INS_JGE}

// Three operand register and immediate forms, by opcode.
var opcodeAluMnemonic = [16]Mnemonic{
	OP_ADD:  INS_ADD,
	OP_SUB:  INS_SUB,
	OP_AND:  INS_AND,
	OP_OR:   INS_OR,
	OP_SHL:  INS_SHL,
	OP_SHR:  INS_SHR,
	OP_ADDI: INS_ADD,
	OP_SUBI: INS_SUB,
}

// Instruction is a decoded instruction word.
type Instruction struct {
	Word     uint16   // Raw instruction word.
	Mnemonic Mnemonic // Operation.
	Rd       int      // Destination register.
	Rm       int      // First source, or base address, register.
	Rn       int      // Second source, or stored value, register.
	Imm      uint16   // Immediate, already sign or zero extended.
	HasImm   bool     // Set if Imm replaces Rn (or offsets a PC base).
}

// Opcode returns the opcode field of the instruction word.
func (ins Instruction) Opcode() Opcode {
	return Opcode(ins.Word & 0xf)
}

// SignExtend widens the low 'bits' bits of value to 16 bits, replicating
// the most significant bit of the field into the upper bits.
func SignExtend(value uint16, bits uint) uint16 {
	value &= (1 << bits) - 1
	if (value>>(bits-1))&1 == 1 {
		value |= 0xffff << bits
	}
	return value
}

// Decode decodes an instruction word.
// The returned error is an ErrDecode when the word has no defined
// instruction class.
func Decode(word uint16) (ins Instruction, err error) {
	ins = Instruction{Word: word}

	a := int((word >> 4) & 0xf)
	b := int((word >> 8) & 0xf)
	c := int((word >> 12) & 0xf)

	setImm := func(value uint16) {
		ins.Imm = value
		ins.HasImm = true
	}

	switch op := Opcode(word & 0xf); op {
	case OP_HALT:
		ins.Mnemonic = INS_HALT
	case OP_JMP:
		ins.Mnemonic = INS_JMP
		setImm(SignExtend(word>>8, 8))
	case OP_JCC:
		ins.Mnemonic = condMnemonic[(word>>4)&0x3]
		setImm(SignExtend(word>>10, 6))
	case OP_MOV:
		ins.Mnemonic = INS_MOV
		ins.Rd = a
		setImm(SignExtend(word>>8, 8))
	case OP_MEM:
		if (word >> 14) != 0 {
			err = ErrDecode{Word: word}
			return
		}
		switch CodeMem(c & 0x3) {
		case MEM_LDR:
			ins.Mnemonic = INS_LDR
			ins.Rd = a
			ins.Rm = b
		case MEM_STR:
			ins.Mnemonic = INS_STR
			ins.Rn = a
			ins.Rm = b
		case MEM_PUSH:
			ins.Mnemonic = INS_PUSH
			ins.Rn = a
		case MEM_POP:
			ins.Mnemonic = INS_POP
			ins.Rd = a
		}
	case OP_ADD, OP_SUB, OP_AND, OP_OR:
		ins.Mnemonic = opcodeAluMnemonic[op]
		ins.Rd = a
		ins.Rm = b
		ins.Rn = c
	case OP_SHL, OP_SHR, OP_ADDI, OP_SUBI:
		ins.Mnemonic = opcodeAluMnemonic[op]
		ins.Rd = a
		ins.Rm = b
		setImm(uint16(c))
	case OP_CMP:
		ins.Mnemonic = INS_CMP
		ins.Rm = b
		ins.Rn = c
	case OP_CMPI:
		ins.Mnemonic = INS_CMP
		ins.Rm = a
		setImm(SignExtend(word>>8, 8))
	case OP_LDPC:
		if (word>>9)&1 != 0 {
			err = ErrDecode{Word: word}
			return
		}
		if (word>>8)&1 == 0 {
			ins.Mnemonic = INS_LDR
			ins.Rd = a
		} else {
			ins.Mnemonic = INS_STR
			ins.Rn = a
		}
		ins.Rm = REG_PC
		setImm(SignExtend(word>>10, 6))
	}

	return
}

// fitsSigned returns true if value, as a signed integer, fits in bits.
func fitsSigned(value uint16, bits uint) bool {
	v := int(int16(value))
	return v >= -(1<<(bits-1)) && v < (1<<(bits-1))
}

// Encode builds the instruction word for an instruction.
// Immediates must already be in range for the selected format.
func Encode(ins Instruction) (word uint16, err error) {
	for _, reg := range []int{ins.Rd, ins.Rm, ins.Rn} {
		if reg < 0 || reg >= REG_COUNT {
			err = ErrRegisterInvalid
			return
		}
	}

	rd := uint16(ins.Rd)
	rm := uint16(ins.Rm)
	rn := uint16(ins.Rn)
	imm := ins.Imm

	signed := func(bits uint) (field uint16, ok bool) {
		if !fitsSigned(imm, bits) {
			err = ErrImmediateRange(int16(imm))
			return
		}
		return imm & ((1 << bits) - 1), true
	}

	unsigned := func() (field uint16, ok bool) {
		if imm > 0xf {
			err = ErrImmediateRange(int16(imm))
			return
		}
		return imm, true
	}

	switch ins.Mnemonic {
	case INS_HALT:
		word = uint16(OP_HALT)
	case INS_JMP:
		if field, ok := signed(8); ok {
			word = field<<8 | uint16(OP_JMP)
		}
	case INS_JEQ, INS_JNE, INS_JLT, INS_JGE:
		cond := uint16(ins.Mnemonic - INS_JEQ)
		if field, ok := signed(6); ok {
			word = field<<10 | cond<<4 | uint16(OP_JCC)
		}
	case INS_MOV:
		if field, ok := signed(8); ok {
			word = field<<8 | rd<<4 | uint16(OP_MOV)
		}
	case INS_LDR, INS_STR:
		reg := rd
		store := uint16(0)
		if ins.Mnemonic == INS_STR {
			reg = rn
			store = 1
		}
		if ins.HasImm {
			if ins.Rm != REG_PC {
				err = ErrRegisterInvalid
				return
			}
			if field, ok := signed(6); ok {
				word = field<<10 | store<<8 | reg<<4 | uint16(OP_LDPC)
			}
		} else {
			word = (uint16(MEM_LDR)+store)<<12 | rm<<8 | reg<<4 | uint16(OP_MEM)
		}
	case INS_PUSH:
		word = uint16(MEM_PUSH)<<12 | rn<<4 | uint16(OP_MEM)
	case INS_POP:
		word = uint16(MEM_POP)<<12 | rd<<4 | uint16(OP_MEM)
	case INS_ADD, INS_SUB, INS_AND, INS_OR, INS_SHL, INS_SHR:
		var op Opcode
		switch {
		case ins.Mnemonic == INS_SHL && ins.HasImm:
			op = OP_SHL
		case ins.Mnemonic == INS_SHR && ins.HasImm:
			op = OP_SHR
		case ins.Mnemonic == INS_ADD && ins.HasImm:
			op = OP_ADDI
		case ins.Mnemonic == INS_SUB && ins.HasImm:
			op = OP_SUBI
		case ins.Mnemonic == INS_ADD:
			op = OP_ADD
		case ins.Mnemonic == INS_SUB:
			op = OP_SUB
		case ins.Mnemonic == INS_AND && !ins.HasImm:
			op = OP_AND
		case ins.Mnemonic == INS_OR && !ins.HasImm:
			op = OP_OR
		default:
			// AND/OR have no immediate form, SHL/SHR no register form.
			err = ErrOperandInvalid
			return
		}
		third := rn
		if ins.HasImm {
			var ok bool
			third, ok = unsigned()
			if !ok {
				return
			}
		}
		word = third<<12 | rm<<8 | rd<<4 | uint16(op)
	case INS_CMP:
		if ins.HasImm {
			if field, ok := signed(8); ok {
				word = field<<8 | rm<<4 | uint16(OP_CMPI)
			}
		} else {
			word = rn<<12 | rm<<8 | uint16(OP_CMP)
		}
	default:
		err = ErrInstructionInvalid
	}

	if err != nil {
		word = 0
	}

	return
}

// RegisterName returns the assembler name of a register.
func RegisterName(reg int) string {
	switch reg {
	case REG_SP:
		return "sp"
	case REG_PC:
		return "pc"
	}
	return fmt.Sprintf("r%d", reg)
}

// String returns the assembly language representation of this instruction.
func (ins Instruction) String() (out string) {
	mn := ins.Mnemonic.String()
	rd := RegisterName(ins.Rd)
	rm := RegisterName(ins.Rm)
	rn := RegisterName(ins.Rn)
	simm := int16(ins.Imm)

	switch ins.Mnemonic {
	case INS_HALT:
		out = mn
	case INS_JMP, INS_JEQ, INS_JNE, INS_JLT, INS_JGE:
		out = fmt.Sprintf("%v #%d", mn, simm)
	case INS_MOV:
		out = fmt.Sprintf("%v %v, #%d", mn, rd, simm)
	case INS_LDR, INS_STR:
		reg := rd
		if ins.Mnemonic == INS_STR {
			reg = rn
		}
		if ins.HasImm {
			out = fmt.Sprintf("%v %v, [%v, #%d]", mn, reg, rm, simm)
		} else {
			out = fmt.Sprintf("%v %v, [%v]", mn, reg, rm)
		}
	case INS_PUSH:
		out = fmt.Sprintf("%v %v", mn, rn)
	case INS_POP:
		out = fmt.Sprintf("%v %v", mn, rd)
	case INS_CMP:
		if ins.HasImm {
			out = fmt.Sprintf("%v %v, #%d", mn, rm, simm)
		} else {
			out = fmt.Sprintf("%v %v, %v", mn, rm, rn)
		}
	default:
		if ins.HasImm {
			out = fmt.Sprintf("%v %v, %v, #%d", mn, rd, rm, ins.Imm)
		} else {
			out = fmt.Sprintf("%v %v, %v, %v", mn, rd, rm, rn)
		}
	}

	return
}
