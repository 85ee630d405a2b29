package monitor

import (
	"sort"

	"github.com/funvibe/monitor/internal/ast"
	"github.com/funvibe/monitor/internal/typesystem"
	"github.com/funvibe/monitor/internal/vm"
)

// Breakpoint is shared by every unit of its line.
type Breakpoint struct {
	Line  int
	Guard string // empty for an unconditional breakpoint
}

func (s *Session) interruptibleAt(line int) []*ast.Node {
	if s.vm.Program == nil {
		return nil
	}
	var nodes []*ast.Node
	for _, n := range s.vm.Program.NodesAt(line) {
		if n.Interruptible {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// SetBreakpoint marks every interruptible unit of line. A previous
// breakpoint on the line, and its guard, is replaced.
func (s *Session) SetBreakpoint(line int, guard string) error {
	nodes := s.interruptibleAt(line)
	if len(nodes) == 0 {
		return errorf(msgNoBreakpointLine)
	}
	bp := &Breakpoint{Line: line, Guard: guard}
	for _, n := range nodes {
		s.breakpoints[n.ID] = bp
	}
	s.trace.Printf("breakpoint set at line %d guard=%q", line, guard)
	return nil
}

// ClearBreakpoint removes the breakpoint on line, if any.
func (s *Session) ClearBreakpoint(line int) {
	for id, bp := range s.breakpoints {
		if bp.Line == line {
			delete(s.breakpoints, id)
		}
	}
}

// ClearAllBreakpoints removes every breakpoint and the watchpoint.
func (s *Session) ClearAllBreakpoints() {
	s.breakpoints = make(map[int]*Breakpoint)
	s.watchpoint = ""
}

func (s *Session) SetWatchpoint(expr string) {
	s.watchpoint = expr
}

func (s *Session) ClearWatchpoint() {
	s.watchpoint = ""
}

func (s *Session) Watchpoint() string {
	return s.watchpoint
}

// Breakpoints lists the breakpoints by line.
func (s *Session) Breakpoints() []Breakpoint {
	byLine := make(map[int]Breakpoint)
	for _, bp := range s.breakpoints {
		byLine[bp.Line] = *bp
	}
	list := make([]Breakpoint, 0, len(byLine))
	for _, bp := range byLine {
		list = append(list, bp)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Line < list[j].Line })
	return list
}

func (s *Session) listBreakpoints() {
	list := s.Breakpoints()
	if len(list) == 0 {
		s.print("No breakpoints set\n")
	}
	for _, bp := range list {
		s.print("Breakpoint at line %d\n", bp.Line)
		s.sourceLine(bp.Line)
		if bp.Guard != "" {
			s.print("      breakpoint condition %q\n", bp.Guard)
		}
	}
	if s.watchpoint == "" {
		s.print("No watchpoint expression set\n")
	} else {
		s.print("Watchpoint condition %q\n", s.watchpoint)
	}
}

// testGuard evaluates a guard in its own stack region.
func (s *Session) testGuard(text string) (bool, error) {
	result := false
	err := s.evaluate(text, func(b []byte, m *typesystem.Mode) error {
		if err := s.deref(Strong); err != nil {
			return err
		}
		b, m = s.top()
		if m.Canonical() != s.modes.Bool {
			return contextError("guard does not yield BOOL", m.String())
		}
		if !vm.IsInitialised(b) {
			return errorf(msgNoValue)
		}
		result = vm.GetBool(b)
		return nil
	})
	return result, err
}

// markAll arms a temporary breakpoint on every interruptible unit.
func (s *Session) markAll() {
	if s.vm.Program == nil {
		return
	}
	s.vm.Program.Walk(func(n *ast.Node) bool {
		if n.Interruptible {
			s.temporary[n.ID] = true
		}
		return true
	})
}

func (s *Session) markLine(line int) error {
	nodes := s.interruptibleAt(line)
	if len(nodes) == 0 {
		return errorf(msgNoBreakpointLine)
	}
	for _, n := range nodes {
		s.temporary[n.ID] = true
	}
	return nil
}

// temporaryReady tells whether an armed unit ends the current resume.
func (s *Session) temporaryReady(n *ast.Node) bool {
	switch s.resume {
	case ResumeNext:
		return n.ProcLevel <= s.breakLevel
	case ResumeFinish:
		return s.vm.FramePointer() < s.finishFrame
	}
	return true
}
