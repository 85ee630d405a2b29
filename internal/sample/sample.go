// Package sample builds a small annotated program with executable actions.
// The monitor host runs it when no other program is supplied, and the
// monitor's tests pause inside it.
package sample

import (
	"context"
	"fmt"

	"github.com/funvibe/monitor/internal/ast"
	"github.com/funvibe/monitor/internal/symbols"
	"github.com/funvibe/monitor/internal/typesystem"
	"github.com/funvibe/monitor/internal/vm"
)

// Source is the text of the program. Line numbers below refer to it.
const Source = `BEGIN
   MODE POINT = STRUCT (INT x, REAL y);
   INT i := 0;
   [1:3] INT v := (10, 20, 30);
   POINT p := (1, 2.5);
   STRING s := "monitor";
   REF INT ri := i;
   UNION (INT, REAL) u := 3.5;
   PROC twice = (INT n) INT:
   BEGIN
      INT k = n * 2;
      k
   END;
   FOR j TO 3 DO
      i +:= twice (j)
   OD;
   print ((i, newline))
END
`

// Program is the sample with its modes, tables and nodes.
type Program struct {
	Modes   *typesystem.Graph
	Program *ast.Program
	Outer   *symbols.Table
	Inner   *symbols.Table
	Point   *typesystem.Mode

	routine *ast.Node
	tags    map[string]*symbols.Tag
	result  int64
}

// New builds the sample program. Each call returns an independent copy.
func New() *Program {
	g := typesystem.NewGraph()
	p := &Program{
		Modes:   g,
		Program: ast.NewProgram("sample.a68", Source),
		tags:    make(map[string]*symbols.Tag),
	}
	p.Point = g.Declare("POINT", g.StructOf(
		typesystem.Field{Name: "x", Mode: g.Int},
		typesystem.Field{Name: "y", Mode: g.Real},
	))
	intRow := g.RowOf(g.Int, 1)
	union := g.UnionOf(g.Int, g.Real)

	p.Outer = symbols.NewTable(1, nil)
	p.variable("i", g.Int, 3)
	p.variable("v", intRow, 4)
	p.variable("p", p.Point, 5)
	p.variable("s", g.String, 6)
	p.variable("ri", g.Ref(g.Int), 7)
	p.variable("u", union, 8)
	p.declare(p.Outer, "twice", g.ProcOf(g.Int, g.Int), 9)
	p.declare(p.Outer, "j", g.Int, 14)

	p.Inner = symbols.NewTable(2, p.Outer)
	p.declare(p.Inner, "n", g.Int, 9)
	p.declare(p.Inner, "k", g.Int, 11)

	prog := p.Program
	root := prog.Add(nil, &ast.Node{Attribute: ast.ParticularProgram, Line: 1, Table: p.Outer})
	for line := 3; line <= 9; line++ {
		prog.Add(root, &ast.Node{Attribute: ast.Declaration, Line: line, Interruptible: true})
	}
	p.routine = prog.Add(root, &ast.Node{Attribute: ast.RoutineText, Line: 9, Table: p.Inner})
	prog.Add(p.routine, &ast.Node{Attribute: ast.Declaration, Line: 11, Interruptible: true})
	prog.Add(p.routine, &ast.Node{Attribute: ast.Unit, Line: 12, Symbol: "k", Interruptible: true})
	loop := prog.Add(root, &ast.Node{Attribute: ast.LoopClause, Line: 14, Interruptible: true})
	prog.Add(loop, &ast.Node{Attribute: ast.Assignation, Line: 15, Symbol: "+:=", Interruptible: true})
	prog.Add(root, &ast.Node{Attribute: ast.Call, Line: 17, Symbol: "print", Interruptible: true})
	return p
}

// variable declares name as a REF to a local generator of mode m.
func (p *Program) variable(name string, m *typesystem.Mode, line int) {
	p.declare(p.Outer, name, p.Modes.Ref(m), line)
	p.tags["gen "+name] = p.Outer.Declare(&symbols.Tag{Kind: symbols.AnonymousTag, Mode: m, Line: line})
}

func (p *Program) declare(t *symbols.Table, name string, m *typesystem.Mode, line int) {
	p.tags[name] = t.Declare(&symbols.Tag{Name: name, Kind: symbols.IdentifierTag, Mode: m, Line: line})
}

// Node returns the first node on line, or nil.
func (p *Program) Node(line int) *ast.Node {
	if nodes := p.Program.NodesAt(line); len(nodes) > 0 {
		return nodes[0]
	}
	return nil
}

// NewVM creates a machine for the program with its actions bound.
func (p *Program) NewVM(opts vm.Options) *vm.VM {
	m := vm.New(p.Modes, p.Program, opts)
	p.Bind(m)
	return m
}

// Bind attaches the actions of every unit to m.
func (p *Program) Bind(m *vm.VM) {
	ctx := context.Background()
	m.Bind(p.Node(3), p.initialise("i", func(b []byte) error {
		vm.PutInt(b, 0)
		return nil
	}))
	m.Bind(p.Node(4), p.initialise("v", func(b []byte) error {
		r, err := m.NewRow(p.Modes.RowOf(p.Modes.Int, 1), [2]int64{1, 3})
		if err != nil {
			return err
		}
		d, err := m.Descriptor(r)
		if err != nil {
			return err
		}
		for k := int64(0); k < 3; k++ {
			e, err := m.Bytes(d.Element(k), typesystem.IntSize)
			if err != nil {
				return err
			}
			vm.PutInt(e, 10*(k+1))
		}
		vm.PutRef(b, r)
		return nil
	}))
	m.Bind(p.Node(5), p.initialise("p", func(b []byte) error {
		x, _ := p.Point.Field("x")
		y, _ := p.Point.Field("y")
		vm.PutInt(b[x.Offset:], 1)
		vm.PutReal(b[y.Offset:], 2.5)
		return nil
	}))
	m.Bind(p.Node(6), p.initialise("s", func(b []byte) error {
		r, err := m.NewString("monitor")
		if err != nil {
			return err
		}
		vm.PutRef(b, r)
		return nil
	}))
	m.Bind(p.Node(7), p.initialise("ri", func(b []byte) error {
		f, _, _ := m.Lookup("i")
		vm.PutRef(b, m.Local(f, p.tags["gen i"]))
		return nil
	}))
	m.Bind(p.Node(8), p.initialise("u", func(b []byte) error {
		vm.PutUnion(b, p.Modes.Real)
		vm.PutReal(vm.UnionPayload(b), 3.5)
		return nil
	}))
	m.Bind(p.Node(9), func(m *vm.VM, n *ast.Node) error {
		b, err := p.slot(m, "twice")
		if err != nil {
			return err
		}
		vm.PutProc(b, vm.Proc{Kind: vm.ProcBody, Body: uint32(p.routine.ID), Environ: uint32(m.FramePointer())})
		return nil
	})
	m.Bind(p.Node(11), func(m *vm.VM, n *ast.Node) error {
		nb, err := p.slot(m, "n")
		if err != nil {
			return err
		}
		kb, err := p.slot(m, "k")
		if err != nil {
			return err
		}
		vm.PutInt(kb, 2*vm.GetInt(nb))
		return nil
	})
	m.Bind(p.Node(12), func(m *vm.VM, n *ast.Node) error {
		kb, err := p.slot(m, "k")
		if err != nil {
			return err
		}
		if !vm.IsInitialised(kb) {
			return vm.Fatalf("uninitialised value")
		}
		p.result = vm.GetInt(kb)
		return nil
	})
	m.Bind(p.Node(14), func(m *vm.VM, n *ast.Node) error {
		jb, err := p.slot(m, "j")
		if err != nil {
			return err
		}
		for j := int64(1); j <= 3; j++ {
			vm.PutInt(jb, j)
			if err := m.ExecChildren(ctx, n); err != nil {
				return err
			}
		}
		return nil
	})
	m.Bind(p.Node(15), func(m *vm.VM, n *ast.Node) error {
		jb, err := p.slot(m, "j")
		if err != nil {
			return err
		}
		if err := m.Call(ctx, p.routine, vm.IntValue(vm.GetInt(jb))); err != nil {
			return err
		}
		ib, err := p.deref(m, "i")
		if err != nil {
			return err
		}
		vm.PutInt(ib, vm.GetInt(ib)+p.result)
		return nil
	})
	m.Bind(p.Node(17), func(m *vm.VM, n *ast.Node) error {
		ib, err := p.deref(m, "i")
		if err != nil {
			return err
		}
		fmt.Fprintf(m.Output, "%d\n", vm.GetInt(ib))
		return nil
	})
}

// initialise returns the action of a variable declaration: the generator
// is filled in by fill and the variable made to refer to it.
func (p *Program) initialise(name string, fill func(b []byte) error) vm.Action {
	return func(m *vm.VM, n *ast.Node) error {
		f, tag, ok := m.Lookup(name)
		if !ok {
			return vm.Fatalf("cannot find %s", name)
		}
		gen := p.tags["gen "+name]
		g, err := m.Bytes(m.Local(f, gen), gen.Mode.Size())
		if err != nil {
			return err
		}
		if err := fill(g); err != nil {
			return err
		}
		b, err := m.Bytes(m.Local(f, tag), tag.Mode.Size())
		if err != nil {
			return err
		}
		vm.PutRef(b, m.Local(f, gen))
		return nil
	}
}

func (p *Program) slot(m *vm.VM, name string) ([]byte, error) {
	f, tag, ok := m.Lookup(name)
	if !ok {
		return nil, vm.Fatalf("cannot find %s", name)
	}
	return m.Bytes(m.Local(f, tag), tag.Mode.Size())
}

// deref returns the storage a variable refers to.
func (p *Program) deref(m *vm.VM, name string) ([]byte, error) {
	b, err := p.slot(m, name)
	if err != nil {
		return nil, err
	}
	if !vm.IsInitialised(b) {
		return nil, vm.Fatalf("uninitialised value")
	}
	return m.Bytes(vm.GetRef(b), typesystem.IntSize)
}
