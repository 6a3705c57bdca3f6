package cpu

// AluOp is an ALU operation type.
type AluOp int

//go:generate go tool stringer -linecomment -type=AluOp
const (
	ALU_ADD = AluOp(0) // add
	ALU_SUB = AluOp(1) // sub
	ALU_AND = AluOp(2) // and
	ALU_OR  = AluOp(3) // or
	ALU_SHL = AluOp(4) // shl
	ALU_SHR = AluOp(5) // shr
	ALU_CMP = AluOp(6) // cmp
)

var aluMnemonic = map[Mnemonic]AluOp{
	INS_ADD: ALU_ADD,
	INS_SUB: ALU_SUB,
	INS_AND: ALU_AND,
	INS_OR:  ALU_OR,
	INS_SHL: ALU_SHL,
	INS_SHR: ALU_SHR,
	INS_CMP: ALU_CMP,
}

// AluOp returns the ALU operation of an instruction, if it has one.
func (ins Instruction) AluOp() (op AluOp, ok bool) {
	op, ok = aluMnemonic[ins.Mnemonic]
	return
}

// Alu performs the requested ALU action on operands a and b, returning the
// 16-bit result and the Zero and Carry flags it produces.
//
//   - Zero is set iff the result is 0x0000.
//   - ADD sets Carry on unsigned overflow.
//   - SUB and CMP set Carry on unsigned borrow (a < b).
//   - SHL and SHR shift by b (0..15) and set Carry to the last bit shifted
//     out; a shift by zero clears Carry.
//   - AND and OR clear Carry.
//
// CMP returns the SUB result; the caller discards it.
func Alu(op AluOp, a uint16, b uint16) (result uint16, zero bool, carry bool) {
	switch op {
	case ALU_ADD:
		sum := uint32(a) + uint32(b)
		result = uint16(sum)
		carry = sum > 0xffff
	case ALU_SUB, ALU_CMP:
		result = a - b
		carry = a < b
	case ALU_AND:
		result = a & b
	case ALU_OR:
		result = a | b
	case ALU_SHL:
		b &= 0xf
		result = a << b
		if b != 0 {
			carry = (a>>(16-b))&1 == 1
		}
	case ALU_SHR:
		b &= 0xf
		result = a >> b
		if b != 0 {
			carry = (a>>(b-1))&1 == 1
		}
	}

	zero = result == 0

	return
}
