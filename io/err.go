package io

import (
	"errors"

	"github.com/ezrec/risc16/translate"
)

var f = translate.From

var (
	// Port errors
	ErrIoExhausted  = errors.New(f("input exhausted"))
	ErrIoNoOutput   = errors.New(f("no output attached"))
	ErrIoNotInteger = errors.New(f("input is not an integer"))
)

// ErrParseInt indicates console input that is not a decimal integer.
type ErrParseInt string

func (err ErrParseInt) Error() string {
	return f("'%v' is not an integer", string(err))
}

func (err ErrParseInt) Unwrap() error {
	return ErrIoNotInteger
}
