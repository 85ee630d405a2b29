package monitor

import (
	"errors"
	"fmt"

	"github.com/funvibe/monitor/internal/vm"
)

// Error is a recoverable monitor error. It ends the current command only.
type Error struct {
	Msg     string
	Context string
}

func (e *Error) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s (%s)", e.Msg, e.Context)
	}
	return e.Msg
}

func errorf(format string, args ...interface{}) *Error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

func contextError(msg, context string) *Error {
	return &Error{Msg: msg, Context: context}
}

// Messages shared by several components.
const (
	msgNoValue          = "uninitialised value"
	msgNilName          = "accessing NIL name"
	msgCannotFind       = "cannot find identifier"
	msgTagNotFound      = "tag not found"
	msgStackOverflow    = "expression too complex"
	msgNoBreakpointLine = "cannot set breakpoint in that line"
	msgUnrecognised     = "unrecognised command"
)

// report prints err through the diagnostic channel and counts it.
// Fatal errors are marked reported so the engine does not show them twice.
func (s *Session) report(err error) {
	if err == nil {
		return
	}
	s.errors++
	var re *vm.RuntimeError
	if errors.As(err, &re) {
		if re.Line == 0 && s.node != nil {
			re.Line = s.node.Line
		}
		re.Reported = true
		fmt.Fprintf(s.out, "%s\n", re.Error())
		s.trace.Printf("fatal: %v", re)
		return
	}
	fmt.Fprintf(s.out, "monitor error: %s\n", err)
	s.trace.Printf("error: %v", err)
}
