package monitor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/funvibe/monitor/internal/typesystem"
	"github.com/funvibe/monitor/internal/vm"
)

func (s *Session) indent() {
	fmt.Fprintf(s.out, "\n%s", strings.Repeat("  ", s.tabs))
}

func (s *Session) print(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format, args...)
}

// show writes the value b of mode m. References are followed while depth
// stays below the session's indirection budget.
func (s *Session) show(b []byte, m *typesystem.Mode, depth int) {
	m = m.Canonical()
	switch m.Shape {
	case typesystem.Reference:
		if !s.showRef(b) {
			return
		}
		if depth >= s.maxDepth {
			return
		}
		v, err := s.vm.Bytes(vm.GetRef(b), m.Sub.Size())
		if err != nil {
			s.print(" (%v)", err)
			return
		}
		s.tabs++
		s.indent()
		s.print("%s", m.Sub)
		s.show(v, m.Sub, depth+1)
		s.tabs--
	case typesystem.Row, typesystem.Flex:
		s.showRow(b, m, depth)
	case typesystem.Struct:
		for _, f := range m.Fields {
			s.tabs++
			s.indent()
			s.print("%s %s", f.Mode, f.Name)
			s.show(b[f.Offset:f.Offset+f.Mode.Size()], f.Mode, depth)
			s.tabs--
		}
	case typesystem.Union:
		if !vm.IsInitialised(b) {
			s.print(" %s", msgNoValue)
			return
		}
		arm, ok := s.modes.ByID(vm.UnionArm(b))
		if !ok || !m.Arm(arm) {
			s.print(" cannot show value")
			return
		}
		s.print(" united-moid %s", arm)
		s.show(vm.UnionPayload(b)[:arm.Size()], arm, depth)
	case typesystem.Proc:
		s.showProc(b)
	default:
		s.showLeaf(b, m)
	}
}

// showRef writes where a reference points. It reports whether the
// reference can be followed.
func (s *Session) showRef(b []byte) bool {
	if !vm.IsInitialised(b) {
		s.print(" %s", msgNoValue)
		return false
	}
	r := vm.GetRef(b)
	if r.IsNil() {
		s.print(" = NIL")
		return false
	}
	s.print(" refers to %s", s.vm.Describe(r))
	return true
}

func (s *Session) showRow(b []byte, m *typesystem.Mode, depth int) {
	if !vm.IsInitialised(b) {
		s.print(" %s", msgNoValue)
		return
	}
	r := vm.GetRef(b)
	if m == s.modes.String {
		if text, err := s.vm.ReadString(r); err == nil {
			s.print(" %q", text)
			return
		}
	}
	d, err := s.vm.Descriptor(r)
	if err != nil {
		s.print(" (%v)", err)
		return
	}
	elem := m.Deflex().Sub
	n := d.Elems()
	s.print(", %d element(s)", n)
	if n == 0 {
		return
	}
	written := int64(0)
	for idx := int64(0); idx < n && written < int64(s.elems); idx++ {
		v, err := s.vm.Bytes(d.Element(idx), elem.Size())
		if err != nil {
			s.print(" (%v)", err)
			return
		}
		s.tabs++
		s.indent()
		s.print("%s =", subscript(d, idx))
		s.show(v, elem, depth)
		s.tabs--
		written++
	}
	s.tabs++
	s.indent()
	s.print("%d element(s) written (%d%%)", written, 100*written/n)
	s.tabs--
}

// subscript formats the index tuple of flat element idx.
func subscript(d vm.Descriptor, idx int64) string {
	parts := make([]string, len(d.Tuples))
	for i, t := range d.Tuples {
		parts[i] = strconv.FormatInt(t.Lwb+idx/t.Span, 10)
		idx %= t.Span
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (s *Session) showProc(b []byte) {
	if !vm.IsInitialised(b) {
		s.print(" %s", msgNoValue)
		return
	}
	p := vm.GetProc(b)
	switch p.Kind {
	case vm.ProcStdenv:
		if r, ok := s.vm.Std.Routine(int(p.Body)); ok {
			s.print(" standenv procedure (%s)", r.Name)
			return
		}
	case vm.ProcBody:
		if s.vm.Program != nil {
			if n, ok := s.vm.Program.Node(int(p.Body)); ok {
				s.print(" line %d, environ at frame(%d)", n.Line, p.Environ)
				return
			}
		}
	case vm.ProcSkip:
		s.print(" skip procedure")
		return
	}
	s.print(" cannot show value")
}

func (s *Session) showLeaf(b []byte, m *typesystem.Mode) {
	g := s.modes
	if m == g.Void {
		return
	}
	if m == g.Hip {
		s.print(" NIL")
		return
	}
	if !vm.IsInitialised(b) {
		s.print(" %s", msgNoValue)
		return
	}
	s.print(" %s", formatLeaf(g, b, m))
}

// formatLeaf formats a primitive value the way the transput would.
func formatLeaf(g *typesystem.Graph, b []byte, m *typesystem.Mode) string {
	switch m {
	case g.Int:
		return strconv.FormatInt(vm.GetInt(b), 10)
	case g.Real:
		return strconv.FormatFloat(vm.GetReal(b), 'g', -1, 64)
	case g.Bool:
		if vm.GetBool(b) {
			return "T"
		}
		return "F"
	case g.Char:
		return strconv.Quote(string(vm.GetChar(b)))
	case g.Bits:
		return "2r" + strconv.FormatUint(vm.GetBits(b), 2)
	}
	return "cannot show value"
}
