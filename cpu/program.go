package cpu

import (
	"iter"

	"github.com/ezrec/risc16/memory"
)

// Statement is a line of assembled code with its source location and
// generated words.
type Statement struct {
	LineNo    int
	Ip        int
	Words     []string
	Codes     []uint16
	LinkLabel string
}

// Program is an assembled program listing.
type Program struct {
	Statements []Statement
}

// Debug locates the statement that generated an address.
type Debug struct {
	*Statement
	Index int
}

// Debug returns the statement, and word index within it, for an address.
// The Statement is nil if no statement covers the address.
func (prog *Program) Debug(ip uint16) (dbg Debug) {
	for n, st := range prog.Statements {
		if ip >= uint16(st.Ip) && ip < uint16(st.Ip)+uint16(len(st.Codes)) {
			index := int(ip - uint16(st.Ip))
			dbg = Debug{
				Statement: &prog.Statements[n],
				Index:     index,
			}
			break
		}
	}

	return
}

// Codes returns an iterator over each address and word of the program.
func (prog *Program) Codes() iter.Seq2[uint16, uint16] {
	return func(yield func(ip uint16, code uint16) bool) {
		for _, st := range prog.Statements {
			ip := uint16(st.Ip)
			for n, code := range st.Codes {
				if !yield(ip+uint16(n), code) {
					return
				}
			}
		}
	}
}

// Image returns the memory image of the program.
func (prog *Program) Image() (image memory.Image) {
	image = memory.Image{}
	for ip, code := range prog.Codes() {
		image[ip] = code
	}

	return
}
