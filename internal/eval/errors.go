package eval

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Callers classify failures with errors.Is against
// these and decide whether to keep the session alive (interactive) or stop
// (script execution).
var (
	// ErrNotFound marks a missing command, file, or home directory.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput marks input the grammar rejects.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInterrupted marks execution cut short by a signal.
	ErrInterrupted = errors.New("interrupted")
	// ErrUnsupported marks syntax that parses but does not execute.
	ErrUnsupported = errors.New("unsupported")
)

// Error attaches a human-readable message to one of the sentinel kinds.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func errf(kind error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
