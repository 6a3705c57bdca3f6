// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package memory implements the risc16 address space: 8192 words of RAM
// with an access map, and a memory mapped I/O window at the top of the
// address space.
package memory

import (
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/risc16/io"
)

const (
	RAM_SIZE = 0x2000 // Words of physical RAM, also the empty stack sentinel.

	IO_BASE     = 0xf000 // First address of the I/O window.
	IO_CHAR_IN  = 0xf000 // Read: one character from the console.
	IO_CHAR_OUT = 0xf001 // Write: low byte as a character.
	IO_INT_IN   = 0xf002 // Read: one signed integer from the console.
	IO_INT_OUT  = 0xf003 // Write: signed decimal integer.
)

var _memory_defines = map[string]string{
	"RAM_SIZE":    fmt.Sprintf("0x%04x", RAM_SIZE),
	"IO_BASE":     fmt.Sprintf("0x%04x", IO_BASE),
	"IO_CHAR_IN":  fmt.Sprintf("0x%04x", IO_CHAR_IN),
	"IO_CHAR_OUT": fmt.Sprintf("0x%04x", IO_CHAR_OUT),
	"IO_INT_IN":   fmt.Sprintf("0x%04x", IO_INT_IN),
	"IO_INT_OUT":  fmt.Sprintf("0x%04x", IO_INT_OUT),
}

// Image is an initial memory image, mapping RAM address to word.
type Image map[uint16]uint16

// Memory is the simulation of the address space.
type Memory struct {
	Verbose bool    // If set, enables verbose logging.
	Port    io.Port // Console behind the I/O window.

	Cell     [RAM_SIZE]uint16 // Physical RAM.
	Accessed [RAM_SIZE]bool   // Access map, set by any read or write.
}

// NewMemory creates a new, cleared, memory attached to a console port.
func NewMemory(port io.Port) (mem *Memory) {
	mem = &Memory{
		Port: port,
	}

	return
}

// Defines returns the address space constants.
func (mem *Memory) Defines() iter.Seq2[string, string] {
	return maps.All(_memory_defines)
}

// Reset clears RAM and the access map.
func (mem *Memory) Reset() {
	clear(mem.Cell[:])
	clear(mem.Accessed[:])
}

// Load copies an image into RAM. Addresses outside of RAM are ignored.
// Loading does not mark the access map.
func (mem *Memory) Load(image Image) {
	for addr, value := range image {
		if int(addr) < RAM_SIZE {
			mem.Cell[addr] = value
		}
	}
}

// IsRam returns true if the address is backed by physical RAM.
func IsRam(addr uint16) bool {
	return int(addr) < RAM_SIZE
}

// IsIo returns true if the address is in the I/O window.
func IsIo(addr uint16) bool {
	return addr >= IO_BASE
}

// Read a word from the address space.
// RAM reads mark the access map. Unmapped reads return zero with an
// ErrUnmapped diagnostic; failed console reads return zero with an error
// wrapping ErrIoExhausted.
func (mem *Memory) Read(addr uint16) (value uint16, err error) {
	switch {
	case IsRam(addr):
		mem.Accessed[addr] = true
		value = mem.Cell[addr]
	case IsIo(addr):
		value, err = mem.readIo(addr)
	default:
		err = ErrUnmapped{Addr: addr, Write: false}
	}

	if mem.Verbose {
		if err != nil {
			log.Printf("memory: read [%04x] %v", addr, err)
		} else {
			log.Printf("memory: read [%04x] = %04x", addr, value)
		}
	}

	return
}

// Write a word to the address space.
// RAM writes mark the access map. Unmapped writes are discarded with an
// ErrUnmapped diagnostic.
func (mem *Memory) Write(addr uint16, value uint16) (err error) {
	switch {
	case IsRam(addr):
		mem.Accessed[addr] = true
		mem.Cell[addr] = value
	case IsIo(addr):
		err = mem.writeIo(addr, value)
	default:
		err = ErrUnmapped{Addr: addr, Write: true}
	}

	if mem.Verbose {
		if err != nil {
			log.Printf("memory: write [%04x] %v", addr, err)
		} else {
			log.Printf("memory: write [%04x] = %04x", addr, value)
		}
	}

	return
}

// Peek returns the RAM value at an address without touching the access
// map or the console. Non-RAM addresses peek as zero.
func (mem *Memory) Peek(addr uint16) (value uint16) {
	if IsRam(addr) {
		value = mem.Cell[addr]
	}
	return
}

// IsAccessed returns true if the RAM cell was read or written.
func (mem *Memory) IsAccessed(addr uint16) bool {
	return IsRam(addr) && mem.Accessed[addr]
}

// Touched returns an iterator over all accessed RAM cells, in ascending
// address order.
func (mem *Memory) Touched() iter.Seq2[uint16, uint16] {
	return func(yield func(addr uint16, value uint16) bool) {
		for addr, accessed := range mem.Accessed {
			if !accessed {
				continue
			}
			if !yield(uint16(addr), mem.Cell[addr]) {
				return
			}
		}
	}
}

// readIo services a read from the I/O window.
func (mem *Memory) readIo(addr uint16) (value uint16, err error) {
	if addr != IO_CHAR_IN && addr != IO_INT_IN {
		err = ErrUnmapped{Addr: addr, Write: false}
		return
	}

	if mem.Port == nil {
		err = ErrPort{Addr: addr, Err: ErrNoPort}
		return
	}

	switch addr {
	case IO_CHAR_IN:
		value, err = mem.Port.ReadChar()
	case IO_INT_IN:
		value, err = mem.Port.ReadInt()
	}

	if err != nil {
		value = 0
		err = ErrPort{Addr: addr, Err: err}
	}

	return
}

// writeIo services a write to the I/O window.
func (mem *Memory) writeIo(addr uint16, value uint16) (err error) {
	if addr != IO_CHAR_OUT && addr != IO_INT_OUT {
		err = ErrUnmapped{Addr: addr, Write: true}
		return
	}

	if mem.Port == nil {
		err = ErrPort{Addr: addr, Err: ErrNoPort}
		return
	}

	switch addr {
	case IO_CHAR_OUT:
		err = mem.Port.WriteChar(value)
	case IO_INT_OUT:
		err = mem.Port.WriteInt(value)
	}

	if err != nil {
		err = ErrPort{Addr: addr, Err: err}
	}

	return
}
