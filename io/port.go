// Package io provides the console ports attached to the memory mapped I/O
// window of the risc16 machine.
package io

// Port defines the interface for a console device behind the I/O window.
// Reads block until input is available; an exhausted input yields an error
// wrapping ErrIoExhausted.
type Port interface {
	// ReadChar consumes one character from the input.
	ReadChar() (value uint16, err error)
	// WriteChar emits the low byte of value as a character.
	WriteChar(value uint16) error
	// ReadInt parses one signed decimal integer from the input.
	ReadInt() (value uint16, err error)
	// WriteInt emits value as a signed decimal integer.
	WriteInt(value uint16) error
}
