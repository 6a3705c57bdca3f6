package main

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/ezrec/risc16/cpu"
	"github.com/ezrec/risc16/memory"
)

// disassemble lists a memory image as instructions, in address order.
// Words that do not decode are listed as data.
func disassemble(output io.Writer, image memory.Image) (err error) {
	w := bufio.NewWriter(output)

	for _, addr := range slices.Sorted(maps.Keys(image)) {
		word := image[addr]
		ins, decode_err := cpu.Decode(word)
		if decode_err != nil {
			fmt.Fprintf(w, "%04x: %04x  .word 0x%04x\n", addr, word, word)
			continue
		}
		fmt.Fprintf(w, "%04x: %04x  %v\n", addr, word, ins)
	}

	err = w.Flush()
	return
}
