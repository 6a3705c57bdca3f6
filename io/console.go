package io

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"unicode"
)

// Console provides character and integer I/O over byte streams.
// It wraps an io.Reader for input and an io.Writer for output.
type Console struct {
	Input  io.Reader
	Output io.Writer

	reader *bufio.Reader
	source io.Reader
}

var _ Port = (*Console)(nil)

// Rewind drops any buffered input.
func (con *Console) Rewind() {
	con.reader = nil
	con.source = nil
}

// input returns the buffered reader for the current Input.
func (con *Console) input() *bufio.Reader {
	if con.Input == nil {
		return nil
	}

	if con.reader == nil || con.source != con.Input {
		con.reader = bufio.NewReader(con.Input)
		con.source = con.Input
	}

	return con.reader
}

// ReadChar consumes a single byte from the input, zero extended.
func (con *Console) ReadChar() (value uint16, err error) {
	in := con.input()
	if in == nil {
		err = ErrIoExhausted
		return
	}

	ch, err := in.ReadByte()
	if err != nil {
		err = errors.Join(ErrIoExhausted, err)
		return
	}

	value = uint16(ch)
	return
}

// WriteChar writes the low byte of value to the output.
func (con *Console) WriteChar(value uint16) (err error) {
	if con.Output == nil {
		err = ErrIoNoOutput
		return
	}

	_, err = con.Output.Write([]byte{byte(value & 0xff)})
	return
}

// ReadInt skips leading white space, then reads an optionally signed
// decimal integer. The value is truncated to 16 bits.
// Input that does not start a number is left unread.
func (con *Console) ReadInt() (value uint16, err error) {
	in := con.input()
	if in == nil {
		err = ErrIoExhausted
		return
	}

	var ch byte
	for {
		ch, err = in.ReadByte()
		if err != nil {
			err = errors.Join(ErrIoExhausted, err)
			return
		}
		if !unicode.IsSpace(rune(ch)) {
			break
		}
	}

	if ch != '-' && ch != '+' && (ch < '0' || ch > '9') {
		in.UnreadByte()
		err = ErrParseInt(string(ch))
		return
	}

	text := []byte{ch}
	for {
		ch, err = in.ReadByte()
		if err != nil {
			// End of input terminates the number.
			err = nil
			break
		}
		if ch < '0' || ch > '9' {
			in.UnreadByte()
			break
		}
		text = append(text, ch)
	}

	v64, err := strconv.ParseInt(string(text), 10, 32)
	if err != nil {
		err = ErrParseInt(string(text))
		return
	}

	value = uint16(v64)
	return
}

// WriteInt writes value as a signed decimal integer.
func (con *Console) WriteInt(value uint16) (err error) {
	if con.Output == nil {
		err = ErrIoNoOutput
		return
	}

	_, err = fmt.Fprintf(con.Output, "%d", int16(value))
	return
}
