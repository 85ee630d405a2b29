// symbols/symbol_table.go - Tags and the per-level symbol tables the front end
// builds. The monitor only reads these.

package symbols

import (
	"github.com/funvibe/monitor/internal/typesystem"
)

type TagKind int

const (
	IdentifierTag TagKind = iota
	OperatorTag
	AnonymousTag // generator storage (LOC or HEAP)
	LabelTag
)

func (k TagKind) String() string {
	switch k {
	case IdentifierTag:
		return "identifier"
	case OperatorTag:
		return "operator"
	case AnonymousTag:
		return "generator"
	case LabelTag:
		return "label"
	}
	return "tag"
}

// NoRoutine marks a tag without a standard-environ binding. Routine
// indexes start at 1.
const NoRoutine = 0

// Tag is a named, typed entry of a symbol table.
type Tag struct {
	Name     string
	Kind     TagKind
	Mode     *typesystem.Mode
	Offset   int // byte offset within the owning frame's locals
	Priority int // dyadic operators only
	Line     int // declaring line; 0 for entries the front end made up
	Routine  int // standard-environ routine index, or NoRoutine
	Constant bool
}

// Table holds the tags of one lexical level.
type Table struct {
	Level int
	Outer *Table

	identifiers []*Tag
	operators   []*Tag
	anonymous   []*Tag
	labels      []*Tag
	priorities  map[string]int
	size        int
}

func NewTable(level int, outer *Table) *Table {
	return &Table{
		Level:      level,
		Outer:      outer,
		priorities: make(map[string]int),
	}
}

// Declare adds a tag. Tags that occupy frame storage (identifiers and
// generators) get the next free offset.
func (t *Table) Declare(tag *Tag) *Tag {
	switch tag.Kind {
	case IdentifierTag:
		t.identifiers = append(t.identifiers, tag)
	case OperatorTag:
		t.operators = append(t.operators, tag)
		return tag
	case AnonymousTag:
		t.anonymous = append(t.anonymous, tag)
	case LabelTag:
		t.labels = append(t.labels, tag)
		return tag
	}
	if tag.Routine == NoRoutine && tag.Mode != nil {
		tag.Offset = t.size
		t.size += tag.Mode.Size()
	}
	return tag
}

// Lookup finds an identifier declared at this level.
func (t *Table) Lookup(name string) (*Tag, bool) {
	for _, tag := range t.identifiers {
		if tag.Name == name {
			return tag, true
		}
	}
	return nil, false
}

// Operators returns the operator tags declared under symbol name.
func (t *Table) Operators(name string) []*Tag {
	var result []*Tag
	for _, tag := range t.operators {
		if tag.Name == name {
			result = append(result, tag)
		}
	}
	return result
}

// SetPriority records a PRIO declaration for a dyadic operator.
func (t *Table) SetPriority(name string, prio int) {
	t.priorities[name] = prio
}

// Priority returns the dyadic priority of name, searching outward.
func (t *Table) Priority(name string) (int, bool) {
	for s := t; s != nil; s = s.Outer {
		if p, ok := s.priorities[name]; ok {
			return p, true
		}
	}
	return 0, false
}

func (t *Table) Identifiers() []*Tag { return t.identifiers }
func (t *Table) AllOperators() []*Tag { return t.operators }
func (t *Table) Anonymous() []*Tag  { return t.anonymous }
func (t *Table) Labels() []*Tag     { return t.labels }

// Size is the number of bytes of frame storage the level needs.
func (t *Table) Size() int {
	return t.size
}
