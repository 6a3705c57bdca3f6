// Package loader reads and writes risc16 memory images in the text form
// '<address> <value>', one word per line, both in hexadecimal.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/ezrec/risc16/memory"
)

// parseHex parses a 16-bit hexadecimal word, with or without a leading '0x'.
func parseHex(word string) (value uint16, err error) {
	text := strings.TrimPrefix(strings.ToLower(word), "0x")
	v64, err := strconv.ParseUint(text, 16, 16)
	if err != nil {
		err = ErrHexInvalid(word)
		return
	}

	value = uint16(v64)
	return
}

// Parse reads a memory image.
//
// Blank lines, and comments starting with ';' or '#', are skipped.
// Words addressed outside of RAM are ignored. Any other malformed line
// stops the parse with an ErrLoad.
func Parse(input io.Reader) (image memory.Image, err error) {
	scanner := bufio.NewScanner(input)

	var lineno int
	var line string

	defer func() {
		if err != nil {
			image = nil
			err = &ErrLoad{LineNo: lineno, Line: line, Err: err}
		}
	}()

	image = memory.Image{}

	for scanner.Scan() {
		lineno++
		line = scanner.Text()

		text, _, _ := strings.Cut(line, ";")
		text, _, _ = strings.Cut(text, "#")

		words := strings.Fields(text)
		if len(words) == 0 {
			continue
		}
		if len(words) != 2 {
			err = ErrLineSyntax
			return
		}

		var addr, value uint16
		addr, err = parseHex(words[0])
		if err != nil {
			return
		}
		value, err = parseHex(words[1])
		if err != nil {
			return
		}

		if !memory.IsRam(addr) {
			continue
		}

		image[addr] = value
	}

	line = ""
	err = scanner.Err()

	return
}

// Load reads a memory image from a file.
func Load(path string) (image memory.Image, err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	image, err = Parse(inf)
	return
}

// Write emits a memory image, in ascending address order, in the form
// accepted by Parse.
func Write(output io.Writer, image memory.Image) (err error) {
	w := bufio.NewWriter(output)

	for _, addr := range slices.Sorted(maps.Keys(image)) {
		_, err = fmt.Fprintf(w, "%04x %04x\n", addr, image[addr])
		if err != nil {
			return
		}
	}

	err = w.Flush()
	return
}
