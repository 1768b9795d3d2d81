package process

import (
	"errors"
	"fmt"
)

// IOError is a filesystem failure while processing one input file. It is
// kept distinct from *parse.ParseError so callers can tell a broken disk from
// a broken input.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IsIOError reports whether err is or wraps an *IOError.
func IsIOError(err error) bool {
	var ioe *IOError
	return errors.As(err, &ioe)
}

func ioErr(op, path string, err error) error {
	return &IOError{Op: op, Path: path, Err: err}
}
