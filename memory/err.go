package memory

import (
	"errors"

	"github.com/ezrec/risc16/translate"
)

var f = translate.From

var (
	// Memory errors
	ErrNoPort = errors.New(f("no console port"))
)

// ErrUnmapped indicates an access outside of RAM and the I/O ports.
type ErrUnmapped struct {
	Addr  uint16
	Write bool
}

func (err ErrUnmapped) Error() string {
	if err.Write {
		return f("unmapped write 0x%04x", err.Addr)
	}
	return f("unmapped read 0x%04x", err.Addr)
}

// ErrPort indicates a failed console access through the I/O window.
type ErrPort struct {
	Addr uint16
	Err  error
}

func (err ErrPort) Error() string {
	return f("port 0x%04x %v", err.Addr, err.Err)
}

func (err ErrPort) Unwrap() error {
	return err.Err
}
