package vm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/funvibe/monitor/internal/ast"
	"github.com/funvibe/monitor/internal/symbols"
	"github.com/funvibe/monitor/internal/typesystem"
)

func newTestVM(t *testing.T) (*VM, *typesystem.Graph) {
	t.Helper()
	g := typesystem.NewGraph()
	return New(g, ast.NewProgram("t", ""), Options{StackSize: 4096, HeapSize: 4096, ScratchSize: 1024}), g
}

func TestDescriptorIndexing(t *testing.T) {
	d := NewDescriptor(typesystem.IntSize, Ref{Segment: SegHeap, Handle: 1}, [][2]int64{{1, 3}, {0, 1}})
	if d.Elems() != 6 {
		t.Fatalf("Elems = %d", d.Elems())
	}
	tests := []struct {
		sub  []int64
		want int64
	}{
		{[]int64{1, 0}, 0},
		{[]int64{1, 1}, 1},
		{[]int64{2, 0}, 2},
		{[]int64{3, 1}, 5},
	}
	for _, tt := range tests {
		if got := d.Index(tt.sub); got != tt.want {
			t.Errorf("Index(%v) = %d, want %d", tt.sub, got, tt.want)
		}
	}

	buf := make([]byte, DescriptorSize(2))
	EncodeDescriptor(buf, d)
	back := DecodeDescriptor(buf)
	if back.ElemSize != d.ElemSize || back.Elements != d.Elements || back.Tuples[1] != d.Tuples[1] {
		t.Errorf("descriptor did not survive encoding: %+v", back)
	}
}

func TestHeapCatalog(t *testing.T) {
	h := NewHeap(100, 0)
	a, _ := h.Allocate(nil, 40)
	b, _ := h.Allocate(nil, 40)
	if _, err := h.Allocate(nil, 40); err == nil {
		t.Fatal("expected out of heap space")
	}
	if h.First() != b || b.Next() != a {
		t.Errorf("catalog should list newest first")
	}
	h.Free(b)
	if h.Count() != 1 || h.Used() != 40 || h.First() != a {
		t.Errorf("after free: count=%d used=%d", h.Count(), h.Used())
	}
	if _, ok := h.Handle(b.Index); ok {
		t.Errorf("freed handle still reachable")
	}
	if b.Pointer == a.Pointer {
		t.Errorf("pointers must differ")
	}
}

func TestFramesAndLookup(t *testing.T) {
	m, g := newTestVM(t)
	outer := symbols.NewTable(1, nil)
	x := outer.Declare(&symbols.Tag{Name: "x", Kind: symbols.IdentifierTag, Mode: g.Ref(g.Int)})
	inner := symbols.NewTable(2, outer)
	inner.Declare(&symbols.Tag{Name: "y", Kind: symbols.IdentifierTag, Mode: g.Ref(g.Int)})

	f1, err := m.OpenFrame(outer, nil, false, 0)
	if err != nil {
		t.Fatal(err)
	}
	f2, err := m.OpenFrame(inner, nil, true, m.StaticFor(inner))
	if err != nil {
		t.Fatal(err)
	}
	if f2.StaticLink != f1.Addr || f2.DynamicLink != f1.Addr {
		t.Errorf("links = %d/%d, want %d", f2.DynamicLink, f2.StaticLink, f1.Addr)
	}
	if f2.Number != f1.Number+1 {
		t.Errorf("frame numbers %d, %d", f1.Number, f2.Number)
	}

	f, tag, ok := m.Lookup("x")
	if !ok || f != f1 || tag != x {
		t.Fatalf("Lookup(x) = %v %v %v", f, tag, ok)
	}
	b, err := m.Bytes(m.Local(f1, x), typesystem.RefSize)
	if err != nil {
		t.Fatal(err)
	}
	if IsInitialised(b) {
		t.Errorf("locals start uninitialised")
	}
	if got := m.Describe(m.Local(f1, x)); got != "frame(64)" {
		t.Errorf("Describe = %q", got)
	}

	m.CloseFrame()
	if m.FramePointer() != f1.Addr {
		t.Errorf("frame pointer = %d", m.FramePointer())
	}
	if _, _, ok := m.Lookup("y"); ok {
		t.Errorf("y should be gone with its frame")
	}
}

func TestStrings(t *testing.T) {
	m, _ := newTestVM(t)
	r, err := m.NewString("hello")
	if err != nil {
		t.Fatal(err)
	}
	if s, err := m.ReadString(r); err != nil || s != "hello" {
		t.Errorf("ReadString = %q, %v", s, err)
	}

	mark := m.ScratchMark()
	tr, err := m.TransientString("abc")
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := m.ReadString(tr); s != "abc" {
		t.Errorf("transient = %q", s)
	}
	m.ReleaseScratch(mark)
	if m.ScratchUsed() != mark {
		t.Errorf("scratch not released")
	}
	if _, err := m.ReadString(tr); err == nil {
		t.Errorf("released transient should be unreadable")
	}
}

func callOp(t *testing.T, m *VM, name string, params []*typesystem.Mode, args ...[]byte) ([]byte, error) {
	t.Helper()
	for _, tag := range m.Std.Table.Operators(name) {
		if len(tag.Mode.Fields) != len(params) {
			continue
		}
		match := true
		for i, p := range params {
			if tag.Mode.Fields[i].Mode != p {
				match = false
			}
		}
		if match {
			r, _ := m.Std.Routine(tag.Routine)
			return r.Fn(m, args)
		}
	}
	t.Fatalf("operator %s not found", name)
	return nil, nil
}

func TestStdOperators(t *testing.T) {
	m, g := newTestVM(t)
	ii := []*typesystem.Mode{g.Int, g.Int}

	v, err := callOp(t, m, "+", ii, IntValue(3), IntValue(4))
	if err != nil || GetInt(v) != 7 {
		t.Errorf("3 + 4 = %d, %v", GetInt(v), err)
	}
	v, _ = callOp(t, m, "MOD", ii, IntValue(-7), IntValue(3))
	if GetInt(v) != 2 {
		t.Errorf("-7 MOD 3 = %d", GetInt(v))
	}
	if _, err := callOp(t, m, "OVER", ii, IntValue(1), IntValue(0)); !IsFatal(err) {
		t.Errorf("division by zero should be fatal, got %v", err)
	}
	if _, err := callOp(t, m, "*", ii, IntValue(1<<62), IntValue(4)); err == nil || !strings.Contains(err.Error(), "overflow") {
		t.Errorf("expected overflow, got %v", err)
	}
	v, _ = callOp(t, m, "+", []*typesystem.Mode{g.Int, g.Real}, IntValue(1), RealValue(0.5))
	if GetReal(v) != 1.5 {
		t.Errorf("1 + 0.5 = %g", GetReal(v))
	}
	if p, ok := m.Std.Table.Priority("*"); !ok || p != 7 {
		t.Errorf("priority of * = %d", p)
	}
}

func TestStdRowOperators(t *testing.T) {
	m, g := newTestVM(t)
	row, err := m.NewRow(g.RowOf(g.Int, 2), [2]int64{1, 3}, [2]int64{0, 4})
	if err != nil {
		t.Fatal(err)
	}
	v, _ := callOp(t, m, "UPB", []*typesystem.Mode{g.Int, g.Rows}, IntValue(2), RefValue(row))
	if GetInt(v) != 4 {
		t.Errorf("2 UPB = %d", GetInt(v))
	}
	v, _ = callOp(t, m, "ELEMS", []*typesystem.Mode{g.Rows}, RefValue(row))
	if GetInt(v) != 15 {
		t.Errorf("ELEMS = %d", GetInt(v))
	}
	if _, err := callOp(t, m, "LWB", []*typesystem.Mode{g.Int, g.Rows}, IntValue(3), RefValue(row)); !IsFatal(err) {
		t.Errorf("dimension 3 should be invalid")
	}
}

type recorder struct {
	lines   []int
	reasons []Reason
	stopAt  int
}

func (r *recorder) Interrupt(m *VM, n *ast.Node) error {
	r.lines = append(r.lines, n.Line)
	if n.Line == r.stopAt {
		return ErrTerminated
	}
	return nil
}

func (r *recorder) Break(m *VM, n *ast.Node, reason Reason, cause error) error {
	r.reasons = append(r.reasons, reason)
	return nil
}

func buildCounter(g *typesystem.Graph) (*ast.Program, *symbols.Tag) {
	p := ast.NewProgram("count", "INT i := 0;\ni +:= 1;\ni +:= 1;\ni OVER 0\n")
	tab := symbols.NewTable(1, nil)
	i := tab.Declare(&symbols.Tag{Name: "i", Kind: symbols.IdentifierTag, Mode: g.Ref(g.Int), Line: 1})
	root := p.Add(nil, &ast.Node{Attribute: ast.ParticularProgram, Table: tab, Line: 1})
	for line := 1; line <= 4; line++ {
		p.Add(root, &ast.Node{Attribute: ast.Unit, Line: line, Interruptible: true})
	}
	return p, i
}

func TestRunConsultsDebugger(t *testing.T) {
	g := typesystem.NewGraph()
	p, i := buildCounter(g)
	m := New(g, p, Options{StackSize: 1024})
	for _, n := range p.Root.Children {
		line := n.Line
		m.Bind(n, func(m *VM, n *ast.Node) error {
			f, _ := m.Frame(m.FramePointer())
			b, _ := m.Bytes(m.Local(f, i), typesystem.IntSize)
			switch line {
			case 1:
				PutInt(b, 0)
			case 4:
				_, err := overInt(GetInt(b), 0)
				return err
			default:
				PutInt(b, GetInt(b)+1)
			}
			return nil
		})
	}

	rec := &recorder{}
	m.SetDebugger(rec)
	err := m.Run(context.Background())
	if !IsFatal(err) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	var re *RuntimeError
	errors.As(err, &re)
	if re.Line != 4 || !re.Reported {
		t.Errorf("error line = %d reported = %v", re.Line, re.Reported)
	}
	if len(rec.lines) != 4 {
		t.Errorf("interrupted at %v", rec.lines)
	}
	if len(rec.reasons) != 1 || rec.reasons[0] != ReasonError {
		t.Errorf("break reasons = %v", rec.reasons)
	}
	if m.FramePointer() != 0 {
		t.Errorf("frames not unwound")
	}

	m.Reset()
	rec = &recorder{stopAt: 2}
	m.SetDebugger(rec)
	if err := m.Run(context.Background()); err != ErrTerminated {
		t.Errorf("Run = %v, want ErrTerminated", err)
	}
}

func TestRequestInterrupt(t *testing.T) {
	g := typesystem.NewGraph()
	p, _ := buildCounter(g)
	m := New(g, p, Options{})
	for _, n := range p.Root.Children {
		m.Bind(n, func(*VM, *ast.Node) error { return nil })
	}
	rec := &recorder{}
	m.SetDebugger(rec)
	m.RequestInterrupt()
	if err := m.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(rec.reasons) != 1 || rec.reasons[0] != ReasonInterrupt {
		t.Errorf("reasons = %v", rec.reasons)
	}
}
