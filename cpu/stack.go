package cpu

import (
	"iter"

	"github.com/ezrec/risc16/memory"
)

const (
	STACK_EMPTY = memory.RAM_SIZE // SP value of an empty stack.
)

// Stack is a view of the machine stack: the RAM words from SP up to,
// but not including, STACK_EMPTY. It holds no state of its own.
type Stack struct {
	Sp     *uint16        // Stack pointer register.
	Memory *memory.Memory // Backing memory.
}

// Push decrements SP, then stores value at the new top of stack.
func (s Stack) Push(value uint16) (err error) {
	*s.Sp--
	err = s.Memory.Write(*s.Sp, value)
	return
}

// Pop loads the value at the top of stack, then increments SP.
// Popping an empty stack reads the unmapped sentinel address, and
// yields zero with an error.
func (s Stack) Pop() (value uint16, err error) {
	value, err = s.Memory.Read(*s.Sp)
	*s.Sp++
	return
}

// Empty returns true if SP is at (or beyond) the empty stack sentinel.
func (s Stack) Empty() bool {
	return *s.Sp >= STACK_EMPTY
}

// Depth returns the number of words on the stack.
func (s Stack) Depth() int {
	if s.Empty() {
		return 0
	}
	return STACK_EMPTY - int(*s.Sp)
}

// Peek returns the top of stack without side effects.
func (s Stack) Peek() (value uint16, ok bool) {
	if s.Empty() {
		return
	}

	return s.Memory.Peek(*s.Sp), true
}

// Slots returns an iterator over the stack, from the top of stack
// down to the bottom slot at STACK_EMPTY-1.
func (s Stack) Slots() iter.Seq2[uint16, uint16] {
	return func(yield func(addr uint16, value uint16) bool) {
		if s.Empty() {
			return
		}
		for addr := int(*s.Sp); addr < STACK_EMPTY; addr++ {
			if !yield(uint16(addr), s.Memory.Peek(uint16(addr))) {
				return
			}
		}
	}
}
