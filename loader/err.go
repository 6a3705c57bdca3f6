package loader

import (
	"errors"

	"github.com/ezrec/risc16/translate"
)

var f = translate.From

var (
	ErrLineSyntax = errors.New(f("expected '<address> <value>'"))
)

// ErrHexInvalid indicates a word that is not a 16-bit hexadecimal value.
type ErrHexInvalid string

func (err ErrHexInvalid) Error() string {
	return f("'%v' is not a 16-bit hexadecimal value", string(err))
}

// ErrLoad indicates the location of a memory image error.
type ErrLoad struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrLoad) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrLoad) Unwrap() error {
	return err.Err
}
