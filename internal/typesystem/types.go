package typesystem

import (
	"fmt"
	"sort"
	"strings"
)

// Shape is the closed set of mode constructors.
type Shape int

const (
	Primitive Shape = iota
	Reference
	Row
	Flex
	Struct
	Union
	Proc
)

func (s Shape) String() string {
	switch s {
	case Primitive:
		return "primitive"
	case Reference:
		return "reference"
	case Row:
		return "row"
	case Flex:
		return "flexible row"
	case Struct:
		return "structure"
	case Union:
		return "union"
	case Proc:
		return "procedure"
	}
	return fmt.Sprintf("shape(%d)", int(s))
}

// Storage layout. Every stored value starts with a status byte; the
// payload follows it.
const (
	StatusSize      = 1
	IntSize         = StatusSize + 8
	RealSize        = StatusSize + 8
	BitsSize        = StatusSize + 8
	BoolSize        = StatusSize + 1
	CharSize        = StatusSize + 4
	RefSize         = StatusSize + 1 + 4 + 4 // segment, handle, offset
	ProcSize        = StatusSize + 1 + 4 + 4 // kind, body, environ
	UnionHeaderSize = StatusSize + 4         // active arm mode id
)

// BitsWidth is the number of bits in a BITS value.
const BitsWidth = 64

// Field is one member of a structured mode: a struct field, a union arm
// or a procedure parameter. Arms and parameters have no name.
type Field struct {
	Name   string
	Mode   *Mode
	Offset int
}

// Mode is a node of the mode graph. Modes are interned by a Graph and
// compared by identity after Canonical.
type Mode struct {
	ID     int
	Shape  Shape
	Name   string // indicant, if any
	Sub    *Mode  // referent, element, or procedure result
	Dim    int    // rows only
	Fields []Field

	equivalent *Mode
	deflexed   *Mode
	size       int
	complete   bool
}

// Canonical follows the equivalence link to the interned node.
func (m *Mode) Canonical() *Mode {
	for m != nil && m.equivalent != nil {
		m = m.equivalent
	}
	return m
}

// Size is the number of bytes a value of this mode occupies in storage.
func (m *Mode) Size() int {
	return m.Canonical().size
}

func (m *Mode) IsRef() bool {
	return m != nil && m.Shape == Reference
}

// IsRow reports whether m is a bare or flexible row.
func (m *Mode) IsRow() bool {
	return m != nil && (m.Shape == Row || m.Shape == Flex)
}

// Stowed reports whether values of m are structured (rows and structures).
func (m *Mode) Stowed() bool {
	return m != nil && (m.IsRow() || m.Shape == Struct)
}

// Deflex strips FLEX from a flexible row; other modes are returned as is.
func (m *Mode) Deflex() *Mode {
	m = m.Canonical()
	if m != nil && m.Shape == Flex && m.deflexed != nil {
		return m.deflexed
	}
	return m
}

// Field looks up a structure field by name.
func (m *Mode) Field(name string) (Field, bool) {
	if m == nil || m.Shape != Struct {
		return Field{}, false
	}
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Arm reports whether mode a is one of the arms of union m.
func (m *Mode) Arm(a *Mode) bool {
	if m == nil || m.Shape != Union {
		return false
	}
	a = a.Canonical()
	for _, f := range m.Fields {
		if f.Mode.Canonical() == a {
			return true
		}
	}
	return false
}

func (m *Mode) String() string {
	if m == nil {
		return "VOID"
	}
	m = m.Canonical()
	if m.Name != "" {
		return m.Name
	}
	switch m.Shape {
	case Reference:
		return "REF " + m.Sub.String()
	case Row:
		return "[" + strings.Repeat(",", m.Dim-1) + "] " + m.Sub.String()
	case Flex:
		return "FLEX [" + strings.Repeat(",", m.Dim-1) + "] " + m.Sub.String()
	case Struct:
		parts := make([]string, len(m.Fields))
		for i, f := range m.Fields {
			parts[i] = f.Mode.String() + " " + f.Name
		}
		return "STRUCT (" + strings.Join(parts, ", ") + ")"
	case Union:
		parts := make([]string, len(m.Fields))
		for i, f := range m.Fields {
			parts[i] = f.Mode.String()
		}
		return "UNION (" + strings.Join(parts, ", ") + ")"
	case Proc:
		if len(m.Fields) == 0 {
			return "PROC " + m.Sub.String()
		}
		parts := make([]string, len(m.Fields))
		for i, f := range m.Fields {
			parts[i] = f.Mode.String()
		}
		return "PROC (" + strings.Join(parts, ", ") + ") " + m.Sub.String()
	}
	return fmt.Sprintf("MODE%d", m.ID)
}

// key is the structural identity used for interning. Components are
// referred to by the id of their canonical node.
func (m *Mode) key() string {
	id := func(x *Mode) string {
		return fmt.Sprintf("%d", x.Canonical().ID)
	}
	switch m.Shape {
	case Primitive:
		return "prim:" + m.Name
	case Reference:
		return "ref:" + id(m.Sub)
	case Row:
		return fmt.Sprintf("row:%d:%s", m.Dim, id(m.Sub))
	case Flex:
		return fmt.Sprintf("flex:%d:%s", m.Dim, id(m.Sub))
	case Struct:
		var b strings.Builder
		b.WriteString("struct:")
		for _, f := range m.Fields {
			b.WriteString(f.Name + "=" + id(f.Mode) + ";")
		}
		return b.String()
	case Union:
		arms := make([]int, len(m.Fields))
		for i, f := range m.Fields {
			arms[i] = f.Mode.Canonical().ID
		}
		sort.Ints(arms)
		return fmt.Sprintf("union:%v", arms)
	case Proc:
		var b strings.Builder
		b.WriteString("proc:")
		for _, f := range m.Fields {
			b.WriteString(id(f.Mode) + ",")
		}
		b.WriteString("->" + id(m.Sub))
		return b.String()
	}
	return ""
}
