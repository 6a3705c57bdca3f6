// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/risc16/memory"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

func init() {
	for key, value := range _cpu_defines {
		sysEquate[key] = value
	}
	for key, value := range memory.NewMemory(nil).Defines() {
		sysEquate[key] = value
	}
}

// link is an instruction waiting for a label address.
type link struct {
	ins      Instruction // Instruction to encode, relative to the next ip.
	absolute bool        // Set for .word, which stores the address itself.
}

// Assembler is a single pass macro assembler for the risc16 system.
type Assembler struct {
	Verbose   bool        // If set, verbosely logs the assembler actions.
	Statement []Statement // List of generated statements.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of jump labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	ip    int          // Address of the next generated word.
	links map[int]link // Statement index to pending link.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// registerMap maps register names to register numbers.
var registerMap = map[string]int{
	"sp": REG_SP,
	"pc": REG_PC,
}

func init() {
	for n := range REG_COUNT {
		registerMap[fmt.Sprintf("r%d", n)] = n
	}
}

// register returns the register number of a word.
func register(word string) (reg int, ok bool) {
	reg, ok = registerMap[strings.ToLower(word)]
	return
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value uint16, err error) {
	word = strings.TrimPrefix(word, "#")
	if len(word) == 0 {
		err = ErrParseNumber(word)
		return
	}

	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
	}
	if len(word) > 0 && word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(strings.Trim(word, "'"))
		return
	}
	v64, err := strconv.ParseInt(word, 0, 32)
	if err != nil || v64 > 0xffff || v64 < -0x8000 {
		err = ErrParseNumber(word)
		return
	}

	value = uint16(v64)

	if invert {
		value = ^value
	}

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint16, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value16 uint16
		value16, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt(int(value16))
	}
	err = nil
	for key, ip := range asm.Label {
		pred[key] = starlark.MakeInt(ip)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok || st_int64 > 0xffff || st_int64 < -0x8000 {
		err = ErrParseExpression(expr)
		return
	}
	value = uint16(st_int64)
	return
}

var (
	reCharacter  = regexp.MustCompile(`'\\?[^']'`)
	reExpression = regexp.MustCompile(`\$\([^\$]*\)`)
)

// parseLine parses a single line into words, processing equates, labels
// and macros.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = reCharacter.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "t":
				str = "\t"
			case "0":
				str = "\000"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = reExpression.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#v", value)
	})
	if err != nil {
		return
	}

	// Operand separators and addressing brackets.
	line = strings.ReplaceAll(line, ",", " ")
	line = strings.ReplaceAll(line, "[", " [ ")
	line = strings.ReplaceAll(line, "]", " ] ")

	words = strings.Fields(line)

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next, with or without an immediate marker.
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
			continue
		}
		if strings.HasPrefix(word, "#") {
			equate, ok = asm.Equate[word[1:]]
			if ok {
				words[n] = "#" + equate
			}
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.ip
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		// '@' prefixes names local to this expansion.
		local := fmt.Sprintf("%v_%v_", name, lineno)

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Statement = asm.Statement[:0]
	asm.ip = 0
	asm.links = map[int]link{}
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of labels.
	for _, n := range slices.Sorted(maps.Keys(asm.links)) {
		st := &asm.Statement[n]
		lineno = st.LineNo
		line = strings.Join(st.Words, " ")

		label := st.LinkLabel
		ip, ok := asm.Label[label]
		if !ok {
			err = ErrLabelMissing(label)
			return
		}

		pending := asm.links[n]
		if pending.absolute {
			st.Codes[0] = uint16(ip)
			continue
		}

		ins := pending.ins
		ins.Imm = uint16(ip - (st.Ip + 1))
		st.Codes[0], err = Encode(ins)
		if err != nil {
			err = errors.Join(ErrTargetOutOfRange, err)
			return
		}
	}

	// Check placement.
	used := make(map[int]int, len(asm.Statement))
	for _, st := range asm.Statement {
		lineno = st.LineNo
		line = strings.Join(st.Words, " ")
		for n := range st.Codes {
			ip := st.Ip + n
			if ip >= memory.RAM_SIZE {
				err = ErrProgramRange
				return
			}
			if _, ok := used[ip]; ok {
				err = ErrProgramOverlap
				return
			}
			used[ip] = st.LineNo
		}
	}

	prog = &Program{
		Statements: slices.Clone(asm.Statement),
	}

	return
}

// getRegister parses a register operand.
func (asm *Assembler) getRegister(word string) (reg int, err error) {
	reg, ok := register(word)
	if !ok {
		err = ErrParseRegister(word)
	}
	return
}

// isLabel returns true if the word could name a label.
func isLabel(word string) bool {
	if len(word) == 0 || strings.HasPrefix(word, "#") {
		return false
	}
	if _, ok := register(word); ok {
		return false
	}
	c := word[0]
	return c == '_' || c == '.' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// getAddressing parses the memory operand of a load or store:
// '[ Rm ]', '[ pc #imm ]', or a label.
func (asm *Assembler) getAddressing(ins *Instruction, words []string) (label string, err error) {
	switch {
	case len(words) == 1 && isLabel(words[0]):
		ins.Rm = REG_PC
		ins.HasImm = true
		label = words[0]
	case len(words) == 3 && words[0] == "[" && words[2] == "]":
		ins.Rm, err = asm.getRegister(words[1])
	case len(words) == 4 && words[0] == "[" && words[3] == "]":
		ins.Rm, err = asm.getRegister(words[1])
		if err != nil {
			return
		}
		if ins.Rm != REG_PC {
			err = ErrAddressingSyntax
			return
		}
		ins.HasImm = true
		ins.Imm, err = asm.valueOf(words[2])
	default:
		err = ErrAddressingSyntax
	}
	return
}

// mnemonicMap maps instruction names.
var mnemonicMap = map[string]Mnemonic{}

func init() {
	for mn := INS_HALT; mn <= INS_POP; mn++ {
		mnemonicMap[mn.String()] = mn
	}
}

// argCount is the number of operand words each mnemonic takes, not
// counting memory addressing.
var argCount = map[Mnemonic]int{
	INS_HALT: 0,
	INS_JMP:  1,
	INS_JEQ:  1,
	INS_JNE:  1,
	INS_JLT:  1,
	INS_JGE:  1,
	INS_MOV:  2,
	INS_PUSH: 1,
	INS_POP:  1,
	INS_ADD:  3,
	INS_SUB:  3,
	INS_AND:  3,
	INS_OR:   3,
	INS_SHL:  3,
	INS_SHR:  3,
	INS_CMP:  2,
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var codes []uint16
	var label string
	var pending *link

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words

	defer func() {
		if len(codes) == 0 {
			return
		}
		st := Statement{LineNo: lineno, Ip: asm.ip, Words: initial_words, Codes: codes, LinkLabel: label}
		if pending != nil {
			asm.links[len(asm.Statement)] = *pending
		}
		asm.Statement = append(asm.Statement, st)
		asm.ip += len(codes)
	}()

	switch words[0] {
	case ".org":
		if len(words) != 2 {
			err = ErrOrgSyntax
			return
		}
		var value uint16
		value, err = asm.valueOf(words[1])
		if err != nil {
			return
		}
		if value >= memory.RAM_SIZE {
			err = ErrOrgRange
			return
		}
		asm.ip = int(value)
		return
	case ".word":
		if len(words) < 2 {
			err = ErrOpcodeMissing
			return
		}
		if len(words) == 2 && isLabel(words[1]) {
			codes = []uint16{0}
			label = words[1]
			pending = &link{absolute: true}
			return
		}
		for _, word := range words[1:] {
			var value uint16
			value, err = asm.valueOf(word)
			if err != nil {
				codes = nil
				return
			}
			codes = append(codes, value)
		}
		return
	}

	mn, ok := mnemonicMap[strings.ToLower(words[0])]
	if !ok {
		err = ErrOpcodeInvalid
		return
	}

	args := words[1:]
	ins := Instruction{Mnemonic: mn}

	switch mn {
	case INS_LDR, INS_STR:
		if len(args) < 2 {
			err = ErrOpcodeMissing
			return
		}
		var reg int
		reg, err = asm.getRegister(args[0])
		if err != nil {
			return
		}
		if mn == INS_LDR {
			ins.Rd = reg
		} else {
			ins.Rn = reg
		}
		label, err = asm.getAddressing(&ins, args[1:])
		if err != nil {
			return
		}
	default:
		need := argCount[mn]
		if len(args) < need {
			err = ErrOpcodeMissing
			return
		}
		if len(args) > need {
			err = ErrOpcodeExtraArgs
			return
		}

		switch mn {
		case INS_JMP, INS_JEQ, INS_JNE, INS_JLT, INS_JGE:
			ins.HasImm = true
			if isLabel(args[0]) {
				label = args[0]
			} else {
				ins.Imm, err = asm.valueOf(args[0])
			}
		case INS_MOV:
			ins.Rd, err = asm.getRegister(args[0])
			if err != nil {
				return
			}
			ins.HasImm = true
			ins.Imm, err = asm.valueOf(args[1])
		case INS_PUSH:
			ins.Rn, err = asm.getRegister(args[0])
		case INS_POP:
			ins.Rd, err = asm.getRegister(args[0])
		case INS_CMP:
			ins.Rm, err = asm.getRegister(args[0])
			if err != nil {
				return
			}
			err = asm.getOperand(&ins, args[1])
		case INS_ADD, INS_SUB, INS_AND, INS_OR, INS_SHL, INS_SHR:
			ins.Rd, err = asm.getRegister(args[0])
			if err != nil {
				return
			}
			ins.Rm, err = asm.getRegister(args[1])
			if err != nil {
				return
			}
			err = asm.getOperand(&ins, args[2])
		}
	}
	if err != nil {
		return
	}

	if len(label) != 0 {
		pending = &link{ins: ins}
		ins.Imm = 0
	}

	var word uint16
	word, err = Encode(ins)
	if err != nil {
		return
	}

	codes = []uint16{word}

	return
}

// getOperand parses the final ALU operand: a register, or an immediate.
func (asm *Assembler) getOperand(ins *Instruction, word string) (err error) {
	if reg, ok := register(word); ok {
		ins.Rn = reg
		return
	}

	ins.HasImm = true
	ins.Imm, err = asm.valueOf(word)
	return
}
