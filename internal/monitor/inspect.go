package monitor

import (
	"fmt"

	"github.com/funvibe/monitor/internal/config"
	"github.com/funvibe/monitor/internal/symbols"
	"github.com/funvibe/monitor/internal/vm"
)

// Link selects how walkStack moves from one frame to the next.
type Link int

const (
	DynamicLink Link = iota // call history
	StaticLink              // lexical enclosure
	ProcLink                // procedure frames only
)

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func (s *Session) sourceLine(line int) {
	if s.vm.Program == nil {
		return
	}
	if text, ok := s.vm.Program.Line(line); ok {
		s.print("%4d  %s\n", line, text)
	}
}

// dumpFrame lists a frame's header and every tag its table declares.
func (s *Session) dumpFrame(f *vm.Frame) {
	if f.Node != nil {
		s.sourceLine(f.Node.Line)
	}
	s.print("Stack frame %d at frame(%d), level=%d, size=%d bytes\n", f.Number, f.Addr, f.Level(), f.Size)
	s.print("Dynamic link=frame(%d), static link=frame(%d)\n", f.DynamicLink, f.StaticLink)
	s.print("Procedure frame=%s\n", yesNo(f.Proc))
	if f.Table == nil {
		return
	}
	for _, tag := range f.Table.Identifiers() {
		s.showTag(f, tag, tag.Name)
	}
	for _, tag := range f.Table.AllOperators() {
		s.print("  OP %s = %s\n", tag.Name, tag.Mode)
	}
	for _, tag := range f.Table.Anonymous() {
		s.showTag(f, tag, "")
	}
}

func (s *Session) showTag(f *vm.Frame, tag *symbols.Tag, name string) {
	if name == "" {
		s.print("  LOC %s", tag.Mode)
	} else {
		s.print("  %s %s", tag.Mode, name)
	}
	b, err := s.vm.Bytes(s.vm.Local(f, tag), tag.Mode.Size())
	if err != nil {
		s.print(" (%v)\n", err)
		return
	}
	s.tabs = 1
	s.show(b, tag.Mode, 0)
	s.tabs = 0
	s.print("\n")
}

func (s *Session) nextFrame(f *vm.Frame, link Link) *vm.Frame {
	if link == StaticLink {
		return s.frameAt(f.StaticLink)
	}
	return s.frameAt(f.DynamicLink)
}

// walkStack dumps up to n frames from the start frame, stopping at the
// sentinel.
func (s *Session) walkStack(link Link, n int) {
	if n <= 0 {
		n = config.DefaultFrames
	}
	shown := 0
	for f := s.frameStart(); f != nil && f.Addr != 0 && shown < n; f = s.nextFrame(f, link) {
		if link == ProcLink && !f.Proc {
			continue
		}
		if shown > 0 {
			s.print("\n")
		}
		s.dumpFrame(f)
		shown++
	}
	if shown == 0 {
		s.print("No frames\n")
	}
}

// examine dumps every frame on the dynamic chain that declares name.
func (s *Session) examine(name string) error {
	found := false
	for f := s.frameAt(s.vm.FramePointer()); f != nil && f.Addr != 0; f = s.frameAt(f.DynamicLink) {
		if f.Table == nil {
			continue
		}
		tag, ok := f.Table.Lookup(name)
		if !ok {
			continue
		}
		if found {
			s.print("\n")
		}
		s.print("Stack frame %d at frame(%d), level=%d\n", f.Number, f.Addr, f.Level())
		s.showTag(f, tag, name)
		found = true
	}
	if !found {
		return contextError(msgTagNotFound, name)
	}
	return nil
}

// dumpHeap lists live handles, newest first, within a byte budget and
// a line budget.
func (s *Session) dumpHeap(budget, count int) {
	h := s.vm.Heap()
	s.print("size=%d available=%d\n", h.Capacity(), h.Capacity()-h.Used())
	printed, sum := 0, 0
	for hd := h.First(); hd != nil && printed < count; hd = hd.Next() {
		if sum+hd.Size > budget {
			break
		}
		sum += hd.Size
		mode := "VOID"
		if hd.Mode != nil {
			mode = hd.Mode.String()
		}
		s.print("heap(%#x+%d) %s\n", hd.Pointer, hd.Size, mode)
		printed++
	}
	s.print("printed %d out of %d handles\n", printed, h.Count())
}

func percent(used, size int) int {
	if size <= 0 {
		return 0
	}
	return 100 * used / size
}

func (s *Session) sizes() {
	m, h := s.vm, s.vm.Heap()
	s.print("Frame stack pointer=%d available=%d (%d%% used)\n", m.StackUsed(), m.StackSize()-m.StackUsed(), percent(m.StackUsed(), m.StackSize()))
	s.print("Scratch pointer=%d available=%d (%d%% used)\n", m.ScratchUsed(), m.ScratchSize()-m.ScratchUsed(), percent(m.ScratchUsed(), m.ScratchSize()))
	s.print("Heap size=%d available=%d (%d%% used)\n", h.Capacity(), h.Capacity()-h.Used(), percent(h.Used(), h.Capacity()))
	s.print("Heap handles=%d\n", h.Count())
	s.print("Monitor value stack=%d/%d, mode stack=%d/%d\n", s.sp, len(s.values), s.msp, len(s.stack))
}

func (s *Session) currentLine() int {
	if s.node == nil {
		return 0
	}
	return s.node.Line
}

// listLines prints source lines from..to, marking the current one.
func (s *Session) listLines(from, to int) {
	p := s.vm.Program
	if p == nil || p.Lines() == 0 {
		s.print("No source\n")
		return
	}
	if from < 1 {
		from = 1
	}
	if to > p.Lines() {
		to = p.Lines()
	}
	for k := from; k <= to; k++ {
		text, _ := p.Line(k)
		mark := " "
		if k == s.currentLine() {
			mark = ">"
		}
		s.print("%s%4d  %s\n", mark, k, text)
	}
}

func (s *Session) where() {
	if s.node == nil {
		s.print("Not in a program unit\n")
		return
	}
	s.sourceLine(s.node.Line)
	s.print("Unit %d (%s), line %d\n", s.node.ID, s.node.Attribute, s.node.Line)
}

// xref lists the units and declarations of a source line.
func (s *Session) xref(line int) {
	p := s.vm.Program
	if p == nil {
		return
	}
	s.sourceLine(line)
	nodes := p.NodesAt(line)
	if len(nodes) == 0 {
		s.print("No units in line %d\n", line)
		return
	}
	seen := map[*symbols.Table]bool{}
	for _, n := range nodes {
		flag := ""
		if n.Interruptible {
			flag = ", interruptible"
		}
		if _, ok := s.breakpoints[n.ID]; ok {
			flag += ", breakpoint"
		}
		s.print("Unit %d (%s), procedure level %d%s\n", n.ID, n.Attribute, n.ProcLevel, flag)
		if n.Table == nil || seen[n.Table] {
			continue
		}
		seen[n.Table] = true
		for _, tag := range n.Table.Identifiers() {
			if tag.Line == line {
				s.print("  Identifier %s %s, offset %d\n", tag.Mode, tag.Name, tag.Offset)
			}
		}
	}
}

// frameCommand implements "frame [n]".
func (s *Session) frameCommand(arg string, hasArg bool) error {
	current := s.frameAt(s.vm.FramePointer())
	if !hasArg {
		f := s.frameStart()
		if f == nil || f.Addr == 0 {
			s.print("No frames\n")
			return nil
		}
		s.dumpFrame(f)
		return nil
	}
	n, ok := parseCount(arg)
	switch {
	case !ok:
		return errorf("invalid frame number")
	case n == 0:
		s.currentFrame = 0
		return nil
	case current != nil && n <= current.Number:
		for f := current; f != nil && f.Addr != 0; f = s.frameAt(f.DynamicLink) {
			if f.Number == n {
				s.currentFrame = n
				s.dumpFrame(f)
				return nil
			}
		}
	}
	return errorf("invalid frame number")
}

// parseCount reads an unsigned number; anything else is not a number.
func parseCount(arg string) (int, bool) {
	var n int
	if _, err := fmt.Sscanf(arg, "%d", &n); err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
