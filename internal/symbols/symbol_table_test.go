package symbols

import (
	"testing"

	"github.com/funvibe/monitor/internal/typesystem"
)

func TestDeclareAssignsOffsets(t *testing.T) {
	g := typesystem.NewGraph()
	tab := NewTable(1, nil)

	a := tab.Declare(&Tag{Name: "a", Kind: IdentifierTag, Mode: g.Ref(g.Int), Line: 1})
	gen := tab.Declare(&Tag{Kind: AnonymousTag, Mode: g.Int, Line: 1})
	b := tab.Declare(&Tag{Name: "b", Kind: IdentifierTag, Mode: g.Real, Line: 2})

	if a.Offset != 0 {
		t.Errorf("a.Offset = %d", a.Offset)
	}
	if gen.Offset != typesystem.RefSize {
		t.Errorf("generator offset = %d", gen.Offset)
	}
	if b.Offset != typesystem.RefSize+typesystem.IntSize {
		t.Errorf("b.Offset = %d", b.Offset)
	}
	if tab.Size() != typesystem.RefSize+typesystem.IntSize+typesystem.RealSize {
		t.Errorf("Size = %d", tab.Size())
	}
}

func TestBoundEntriesTakeNoStorage(t *testing.T) {
	g := typesystem.NewGraph()
	tab := NewTable(0, nil)
	tab.Declare(&Tag{Name: "sqrt", Kind: IdentifierTag, Mode: g.ProcOf(g.Real, g.Real), Routine: 3})
	tab.Declare(&Tag{Name: "+", Kind: OperatorTag, Mode: g.ProcOf(g.Int, g.Int, g.Int), Routine: 1})

	if tab.Size() != 0 {
		t.Errorf("Size = %d, want 0", tab.Size())
	}
	if _, ok := tab.Lookup("sqrt"); !ok {
		t.Errorf("sqrt not found")
	}
	if ops := tab.Operators("+"); len(ops) != 1 {
		t.Errorf("operators(+) = %d entries", len(ops))
	}
	if _, ok := tab.Lookup("+"); ok {
		t.Errorf("operators must not be found as identifiers")
	}
}

func TestPrioritySearchesOutward(t *testing.T) {
	outer := NewTable(0, nil)
	outer.SetPriority("+", 6)
	inner := NewTable(1, outer)
	inner.SetPriority("+", 3)

	if p, _ := inner.Priority("+"); p != 3 {
		t.Errorf("inner priority = %d", p)
	}
	if p, ok := NewTable(2, outer).Priority("+"); !ok || p != 6 {
		t.Errorf("outer priority = %d, %v", p, ok)
	}
	if _, ok := inner.Priority("?"); ok {
		t.Errorf("unknown operator has no priority")
	}
}
