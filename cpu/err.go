package cpu

import (
	"errors"

	"github.com/ezrec/risc16/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrHalted = errors.New(f("cpu halted"))
	ErrPaused = errors.New(f("cpu paused at breakpoint"))

	// Instruction encode errors
	ErrRegisterInvalid    = errors.New(f("register invalid"))
	ErrOperandInvalid     = errors.New(f("operand invalid"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))

	// Assembler errors
	ErrEquateSyntax     = errors.New(f(".equ syntax"))
	ErrEquateDuplicate  = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate   = errors.New(f("label duplicated"))
	ErrMacroSyntax      = errors.New(f(".macro syntax"))
	ErrMacroNesting     = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate   = errors.New(f(".macro duplicated"))
	ErrMacroLonely      = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm  = errors.New(f(".endm without .macro"))
	ErrOrgSyntax        = errors.New(f(".org syntax"))
	ErrOrgRange         = errors.New(f(".org outside of memory"))
	ErrOpcodeExtraArgs  = errors.New(f("excessive arguments"))
	ErrOpcodeMissing    = errors.New(f("operand missing"))
	ErrOpcodeInvalid    = errors.New(f("opcode invalid"))
	ErrProgramOverlap   = errors.New(f("program overlaps itself"))
	ErrProgramRange     = errors.New(f("program exceeds memory"))
	ErrAddressingSyntax = errors.New(f("addressing mode syntax"))
	ErrTargetOutOfRange = errors.New(f("jump target out of range"))
)

// ErrDecode indicates an instruction word with no defined instruction class.
type ErrDecode struct {
	Addr uint16
	Word uint16
}

func (err ErrDecode) Error() string {
	return f("bad opcode 0x%x in word 0x%04x at 0x%04x", err.Word&0xf, err.Word, err.Addr)
}

// ErrFault records a diagnostic raised while executing the instruction
// fetched from Addr.
type ErrFault struct {
	Addr uint16
	Err  error
}

func (err ErrFault) Error() string {
	return f("fault at 0x%04x: %v", err.Addr, err.Err)
}

func (err ErrFault) Unwrap() error {
	return err.Err
}

// ErrBreakpointInvalid indicates an unparsable breakpoint address.
type ErrBreakpointInvalid string

func (err ErrBreakpointInvalid) Error() string {
	return f("'%v' is not a breakpoint address", string(err))
}

// ErrImmediateRange indicates an immediate that does not fit its field.
type ErrImmediateRange int16

func (err ErrImmediateRange) Error() string {
	return f("immediate %d out of range", int16(err))
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseRegister string

func (err ErrParseRegister) Error() string {
	return f("'%v' is not a register", string(err))
}

type ErrParseCharacter string

func (err ErrParseCharacter) Error() string {
	return f("'%v' is not a character", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}
