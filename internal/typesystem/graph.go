package typesystem

// Graph interns modes. Two descriptions of the same shape resolve to the
// same node; the later description keeps an equivalence link to it.
type Graph struct {
	modes     []*Mode
	byKey     map[string]*Mode
	indicants map[string]*Mode

	Void   *Mode
	Int    *Mode
	Real   *Mode
	Bool   *Mode
	Char   *Mode
	Bits   *Mode
	String *Mode
	Hip    *Mode // mode of NIL
	Rows   *Mode // any row, for LWB, UPB and ELEMS
}

// NewGraph creates a graph holding the standard modes.
func NewGraph() *Graph {
	g := &Graph{
		byKey:     make(map[string]*Mode),
		indicants: make(map[string]*Mode),
	}
	prim := func(name string, size int) *Mode {
		m := g.Intern(&Mode{Shape: Primitive, Name: name, size: size})
		g.indicants[name] = m
		return m
	}
	g.Void = prim("VOID", 0)
	g.Int = prim("INT", IntSize)
	g.Real = prim("REAL", RealSize)
	g.Bool = prim("BOOL", BoolSize)
	g.Char = prim("CHAR", CharSize)
	g.Bits = prim("BITS", BitsSize)
	g.Hip = g.Intern(&Mode{Shape: Primitive, Name: "HIP", size: RefSize})
	g.Rows = g.Intern(&Mode{Shape: Primitive, Name: "ROWS", size: RefSize})
	g.String = g.Declare("STRING", g.FlexOf(g.Char, 1))
	return g
}

// Intern returns the canonical node for m, registering m if its shape is
// new. Components of m must already be interned.
func (g *Graph) Intern(m *Mode) *Mode {
	if m == nil {
		return nil
	}
	if c := m.Canonical(); c != m || m.complete {
		return c
	}
	key := m.key()
	if existing, ok := g.byKey[key]; ok {
		if existing != m {
			m.equivalent = existing
		}
		return existing
	}
	g.register(m)
	g.byKey[key] = m
	g.layout(m)
	return m
}

func (g *Graph) register(m *Mode) {
	m.ID = len(g.modes) + 1
	g.modes = append(g.modes, m)
}

func (g *Graph) layout(m *Mode) {
	switch m.Shape {
	case Reference, Row, Flex:
		m.size = RefSize
		if m.Shape == Flex {
			m.deflexed = g.RowOf(m.Sub, m.Dim)
		}
	case Struct:
		offset := 0
		for i := range m.Fields {
			m.Fields[i].Mode = m.Fields[i].Mode.Canonical()
			m.Fields[i].Offset = offset
			offset += m.Fields[i].Mode.Size()
		}
		m.size = offset
	case Union:
		payload := 0
		for i := range m.Fields {
			m.Fields[i].Mode = m.Fields[i].Mode.Canonical()
			if s := m.Fields[i].Mode.Size(); s > payload {
				payload = s
			}
		}
		m.size = UnionHeaderSize + payload
	case Proc:
		m.size = ProcSize
	}
	m.complete = true
}

func (g *Graph) Ref(sub *Mode) *Mode {
	return g.Intern(&Mode{Shape: Reference, Sub: sub.Canonical()})
}

func (g *Graph) RowOf(sub *Mode, dim int) *Mode {
	return g.Intern(&Mode{Shape: Row, Sub: sub.Canonical(), Dim: dim})
}

func (g *Graph) FlexOf(sub *Mode, dim int) *Mode {
	return g.Intern(&Mode{Shape: Flex, Sub: sub.Canonical(), Dim: dim})
}

// StructOf interns an anonymous structure with the given fields, in order.
func (g *Graph) StructOf(fields ...Field) *Mode {
	return g.Intern(&Mode{Shape: Struct, Fields: append([]Field(nil), fields...)})
}

func (g *Graph) UnionOf(arms ...*Mode) *Mode {
	fields := make([]Field, len(arms))
	for i, a := range arms {
		fields[i] = Field{Mode: a.Canonical()}
	}
	return g.Intern(&Mode{Shape: Union, Fields: fields})
}

func (g *Graph) ProcOf(result *Mode, params ...*Mode) *Mode {
	fields := make([]Field, len(params))
	for i, p := range params {
		fields[i] = Field{Mode: p.Canonical()}
	}
	return g.Intern(&Mode{Shape: Proc, Sub: result.Canonical(), Fields: fields})
}

// Forward creates a named structure whose fields are supplied later by
// Complete. Recursive modes (a structure holding a reference to itself)
// are built this way and are identified by their indicant.
func (g *Graph) Forward(indicant string) *Mode {
	m := &Mode{Shape: Struct, Name: indicant}
	g.register(m)
	g.byKey["indicant:"+indicant] = m
	g.indicants[indicant] = m
	return m
}

// Complete supplies the fields of a forward-declared structure.
func (g *Graph) Complete(m *Mode, fields ...Field) *Mode {
	m.Fields = append([]Field(nil), fields...)
	g.layout(m)
	return m
}

// Declare binds an indicant to a mode, as MODE NAME = ... does.
func (g *Graph) Declare(indicant string, m *Mode) *Mode {
	m = m.Canonical()
	if m.Name == "" {
		m.Name = indicant
	}
	g.indicants[indicant] = m
	return m
}

// Lookup finds a mode by indicant.
func (g *Graph) Lookup(indicant string) (*Mode, bool) {
	m, ok := g.indicants[indicant]
	return m, ok
}

func (g *Graph) ByID(id int) (*Mode, bool) {
	if id < 1 || id > len(g.modes) {
		return nil, false
	}
	return g.modes[id-1], true
}

func (g *Graph) Modes() []*Mode {
	return g.modes
}

// Nest wraps m in n levels of reference.
func (g *Graph) Nest(m *Mode, n int) *Mode {
	for i := 0; i < n; i++ {
		m = g.Ref(m)
	}
	return m
}
