package monitor

import (
	"fmt"

	"github.com/funvibe/monitor/internal/ast"
	"github.com/funvibe/monitor/internal/vm"
)

func banner(reason vm.Reason) string {
	switch reason {
	case vm.ReasonBreakpoint:
		return "Breakpoint"
	case vm.ReasonWatchpoint:
		return "Watchpoint"
	case vm.ReasonError:
		return "Monitor entered after an error"
	case vm.ReasonTrap:
		return "Trap"
	case vm.ReasonStep:
		return "Temporary breakpoint (now removed)"
	case vm.ReasonInterrupt:
		return "Interrupted"
	}
	return "Monitor"
}

// Pause enters the monitor at unit n and runs commands until one of them
// resumes the program.
func (s *Session) Pause(reason vm.Reason, n *ast.Node) ResumeMode {
	return s.enter(n, banner(reason))
}

func (s *Session) enter(n *ast.Node, title string) ResumeMode {
	s.node = n
	s.temporary = make(map[int]bool)
	s.currentFrame = 0
	s.tabs = 0
	s.print("%s\n", title)
	if n != nil {
		s.sourceLine(n.Line)
	}
	s.trace.Printf("paused: %s", title)
	mode := s.loop()
	s.resume = mode
	s.trace.Printf("resumed: %s", mode)
	return mode
}

// Interrupt is consulted before every interruptible unit. Breakpoints
// come first, then armed temporary breakpoints, then the watchpoint.
func (s *Session) Interrupt(m *vm.VM, n *ast.Node) error {
	if bp, ok := s.breakpoints[n.ID]; ok {
		if bp.Guard == "" {
			return s.resumeWith(s.Pause(vm.ReasonBreakpoint, n))
		}
		stop, err := s.testGuard(bp.Guard)
		if vm.IsFatal(err) {
			return s.guardFatal(n, err)
		}
		if err != nil {
			s.report(err)
			s.print("deleted invalid breakpoint expression\n")
			s.ClearBreakpoint(bp.Line)
			stop = true
		}
		if stop {
			return s.resumeWith(s.enter(n, fmt.Sprintf("Breakpoint (%s)", bp.Guard)))
		}
	}
	if s.temporary[n.ID] && s.temporaryReady(n) {
		return s.resumeWith(s.Pause(vm.ReasonStep, n))
	}
	if s.watchpoint != "" {
		expr := s.watchpoint
		stop, err := s.testGuard(expr)
		if vm.IsFatal(err) {
			return s.guardFatal(n, err)
		}
		if err != nil {
			s.report(err)
			s.print("deleted invalid watchpoint expression\n")
			s.ClearWatchpoint()
			stop = true
		}
		if stop {
			return s.resumeWith(s.enter(n, fmt.Sprintf("Watchpoint (%s)", expr)))
		}
	}
	return nil
}

// guardFatal ends the program with a runtime error raised by a guard.
func (s *Session) guardFatal(n *ast.Node, err error) error {
	s.node = n
	s.report(err)
	return err
}

// Break enters the monitor unconditionally. After a runtime error the
// program cannot continue; any resume other than a restart ends it with
// that error.
func (s *Session) Break(m *vm.VM, n *ast.Node, reason vm.Reason, cause error) error {
	if cause != nil {
		s.print("%s\n", cause)
		if reason == vm.ReasonError {
			s.fatal = cause
		}
	}
	return s.resumeWith(s.Pause(reason, n))
}

// resumeWith turns a resume mode into what the engine sees.
func (s *Session) resumeWith(mode ResumeMode) error {
	fatal := s.fatal
	s.fatal = nil
	// A frame chosen with "frame n" does not outlive the pause.
	s.currentFrame = 0
	switch mode {
	case ResumeRestart:
		s.temporary = make(map[int]bool)
		return vm.ErrRestart
	case ResumeTerminate:
		if fatal != nil {
			return fatal
		}
		return vm.ErrTerminated
	}
	return fatal
}

// loop reads and runs commands until one resumes the program. End of
// input terminates it.
func (s *Session) loop() ResumeMode {
	for {
		line, err := s.in.ReadLine(s.prompt)
		if err != nil {
			s.print("\n")
			return ResumeTerminate
		}
		if mode, resume := s.Execute(line); resume {
			return mode
		}
	}
}
