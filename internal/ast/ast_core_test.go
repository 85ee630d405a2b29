package ast

import "testing"

func buildProgram() *Program {
	p := NewProgram("t.a68", "BEGIN\n  INT x := 1;\n  x +:= 1; print (x)\nEND\n")
	root := p.Add(nil, &Node{Attribute: ParticularProgram, Line: 1})
	p.Add(root, &Node{Attribute: Declaration, Line: 2, Interruptible: true})
	p.Add(root, &Node{Attribute: Formula, Line: 3, Interruptible: true})
	p.Add(root, &Node{Attribute: Call, Line: 3, Interruptible: true})
	proc := p.Add(root, &Node{Attribute: RoutineText, Line: 4})
	p.Add(proc, &Node{Attribute: Unit, Line: 4, Interruptible: true})
	return p
}

func TestProgramIndexesLines(t *testing.T) {
	p := buildProgram()
	if got := len(p.NodesAt(3)); got != 2 {
		t.Errorf("line 3 has %d nodes, want 2", got)
	}
	if got := len(p.NodesAt(9)); got != 0 {
		t.Errorf("line 9 has %d nodes", got)
	}
	if n, ok := p.Node(2); !ok || n.Line != 2 {
		t.Errorf("Node(2) = %+v", n)
	}
}

func TestProcLevel(t *testing.T) {
	p := buildProgram()
	inner := p.NodesAt(4)
	if len(inner) != 2 {
		t.Fatalf("line 4 has %d nodes", len(inner))
	}
	if inner[0].ProcLevel != 1 || inner[1].ProcLevel != 1 {
		t.Errorf("proc levels = %d, %d", inner[0].ProcLevel, inner[1].ProcLevel)
	}
	if p.Root.ProcLevel != 0 {
		t.Errorf("root proc level = %d", p.Root.ProcLevel)
	}
}

func TestWalkStops(t *testing.T) {
	p := buildProgram()
	count := 0
	p.Walk(func(n *Node) bool {
		count++
		return n.Attribute != Formula
	})
	if count != 3 {
		t.Errorf("visited %d nodes before stopping", count)
	}
}

func TestSourceLines(t *testing.T) {
	p := buildProgram()
	if p.Lines() != 4 {
		t.Errorf("Lines() = %d", p.Lines())
	}
	if l, ok := p.Line(2); !ok || l != "  INT x := 1;" {
		t.Errorf("Line(2) = %q", l)
	}
	if _, ok := p.Line(0); ok {
		t.Errorf("line 0 does not exist")
	}
}
