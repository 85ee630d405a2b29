package ast

import (
	"strings"

	"github.com/funvibe/monitor/internal/symbols"
)

// Attribute classifies a node of the instruction tree.
type Attribute int

const (
	ParticularProgram Attribute = iota
	SerialClause                // opens a frame for its table
	RoutineText                 // procedure body; opens a procedure frame
	Declaration
	Unit
	Assignation
	Call
	Formula
	ConditionalClause
	LoopClause
)

var attributeNames = map[Attribute]string{
	ParticularProgram: "particular program",
	SerialClause:      "serial clause",
	RoutineText:       "routine text",
	Declaration:       "declaration",
	Unit:              "unit",
	Assignation:       "assignation",
	Call:              "call",
	Formula:           "formula",
	ConditionalClause: "conditional clause",
	LoopClause:        "loop clause",
}

func (a Attribute) String() string {
	if s, ok := attributeNames[a]; ok {
		return s
	}
	return "node"
}

// Node is one instruction of the annotated tree. Scope nodes carry the
// table of the level they open; other nodes carry the table of the level
// they appear in.
type Node struct {
	ID            int
	Attribute     Attribute
	Line          int
	Symbol        string
	Table         *symbols.Table
	Interruptible bool
	ProcLevel     int

	Parent   *Node
	Children []*Node
}

// OpensFrame reports whether executing n pushes an activation record.
func (n *Node) OpensFrame() bool {
	return n.Attribute == SerialClause || n.Attribute == RoutineText || n.Attribute == ParticularProgram
}

// Program is the tree plus the source text it was built from.
type Program struct {
	File   string
	Root   *Node
	Source []string

	nodes []*Node
	lines map[int][]*Node
}

func NewProgram(file, source string) *Program {
	return &Program{
		File:   file,
		Source: strings.Split(strings.TrimRight(source, "\n"), "\n"),
		lines:  make(map[int][]*Node),
	}
}

// Add appends n under parent (or makes it the root) and indexes it.
func (p *Program) Add(parent, n *Node) *Node {
	n.ID = len(p.nodes) + 1
	n.Parent = parent
	if parent == nil {
		p.Root = n
	} else {
		parent.Children = append(parent.Children, n)
		n.ProcLevel = parent.ProcLevel
		if n.Table == nil {
			n.Table = parent.Table
		}
	}
	if n.Attribute == RoutineText {
		n.ProcLevel++
	}
	p.nodes = append(p.nodes, n)
	if n.Line > 0 {
		p.lines[n.Line] = append(p.lines[n.Line], n)
	}
	return n
}

func (p *Program) Node(id int) (*Node, bool) {
	if id < 1 || id > len(p.nodes) {
		return nil, false
	}
	return p.nodes[id-1], true
}

// NodesAt returns every node on a source line, in tree order.
func (p *Program) NodesAt(line int) []*Node {
	return p.lines[line]
}

// Walk visits nodes depth first until fn returns false.
func (p *Program) Walk(fn func(*Node) bool) {
	var walk func(n *Node) bool
	walk = func(n *Node) bool {
		if !fn(n) {
			return false
		}
		for _, c := range n.Children {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	if p.Root != nil {
		walk(p.Root)
	}
}

// Line returns source line n (1-based).
func (p *Program) Line(n int) (string, bool) {
	if n < 1 || n > len(p.Source) {
		return "", false
	}
	return p.Source[n-1], true
}

func (p *Program) Lines() int {
	return len(p.Source)
}
