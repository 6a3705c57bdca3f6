package cpu

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Breakpoints is the set of instruction addresses at which the CPU pauses.
// It is populated before a run and only read during execution.
type Breakpoints map[uint16]struct{}

// NewBreakpoints creates a breakpoint set.
func NewBreakpoints(addrs ...uint16) (bp Breakpoints) {
	bp = make(Breakpoints, len(addrs))
	for _, addr := range addrs {
		bp[addr] = struct{}{}
	}
	return
}

// ParseBreakpoints parses hexadecimal addresses, with or without a
// leading '0x'.
func ParseBreakpoints(words ...string) (bp Breakpoints, err error) {
	bp = NewBreakpoints()
	for _, word := range words {
		text := strings.TrimPrefix(strings.ToLower(word), "0x")
		var value uint64
		value, err = strconv.ParseUint(text, 16, 16)
		if err != nil {
			err = ErrBreakpointInvalid(word)
			bp = nil
			return
		}
		bp[uint16(value)] = struct{}{}
	}
	return
}

// Contains returns true if the address is a breakpoint.
func (bp Breakpoints) Contains(addr uint16) (ok bool) {
	_, ok = bp[addr]
	return
}

// Addresses returns the breakpoints in ascending order.
func (bp Breakpoints) Addresses() []uint16 {
	return slices.Sorted(maps.Keys(bp))
}
