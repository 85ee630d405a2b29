package vm

import (
	"errors"
	"fmt"
)

// RuntimeError is a fatal error of the running program. The monitor raises
// these too (index out of bounds, division by zero) and they end the
// program rather than the current command.
type RuntimeError struct {
	Msg  string
	Line int

	// Reported is set once the error has been shown to the user.
	Reported bool
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: runtime error: %s", e.Line, e.Msg)
	}
	return "runtime error: " + e.Msg
}

func Fatalf(format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Msg: fmt.Sprintf(format, args...)}
}

var (
	// ErrTerminated ends the program at the user's request.
	ErrTerminated = errors.New("program terminated")
	// ErrRestart asks the host to run the program again from the start.
	ErrRestart = errors.New("program restart requested")
)

// IsFatal reports whether err ends the program.
func IsFatal(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re)
}
