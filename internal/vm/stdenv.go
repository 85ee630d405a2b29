package vm

import (
	"math"
	"strconv"
	"strings"

	"github.com/funvibe/monitor/internal/symbols"
	"github.com/funvibe/monitor/internal/typesystem"
)

// Routine is a procedure or operator of the standard environment.
type Routine struct {
	Name string
	Mode *typesystem.Mode
	Fn   func(m *VM, args [][]byte) ([]byte, error)

	// Invoked marks environ constants such as pi; looking one up yields
	// its value instead of the procedure.
	Invoked bool
}

// StdEnv is the outermost environment: operators with their priorities,
// environ procedures and constants.
type StdEnv struct {
	Table    *symbols.Table
	Routines []*Routine

	g *typesystem.Graph
}

var priorities = map[string]int{
	"+:=": 1, "-:=": 1, "*:=": 1, "/:=": 1,
	"OR":  2,
	"AND": 3,
	"=":   4, "/=": 4,
	"<": 5, "<=": 5, ">": 5, ">=": 5,
	"+": 6, "-": 6,
	"*": 7, "/": 7, "OVER": 7, "%": 7, "MOD": 7, "%*": 7,
	"**": 8, "SHL": 8, "SHR": 8, "UP": 8, "DOWN": 8, "LWB": 8, "UPB": 8,
}

// MaxPriority is the highest dyadic priority.
const MaxPriority = 9

func NewStdEnv(g *typesystem.Graph) *StdEnv {
	s := &StdEnv{
		Table:    symbols.NewTable(0, nil),
		Routines: []*Routine{nil},
		g:        g,
	}
	for name, p := range priorities {
		s.Table.SetPriority(name, p)
	}
	s.intOperators()
	s.realOperators()
	s.mixedOperators()
	s.boolOperators()
	s.charOperators()
	s.bitsOperators()
	s.stringOperators()
	s.rowOperators()
	s.assignOperators()
	s.procedures()
	s.constants()
	return s
}

func (s *StdEnv) Routine(index int) (*Routine, bool) {
	if index < 1 || index >= len(s.Routines) {
		return nil, false
	}
	return s.Routines[index], true
}

func (s *StdEnv) add(r *Routine) int {
	s.Routines = append(s.Routines, r)
	return len(s.Routines) - 1
}

func (s *StdEnv) op(name string, result *typesystem.Mode, params []*typesystem.Mode, fn func(*VM, [][]byte) ([]byte, error)) {
	mode := s.g.ProcOf(result, params...)
	idx := s.add(&Routine{Name: name, Mode: mode, Fn: fn})
	prio := 0
	if len(params) == 2 {
		prio = priorities[name]
	}
	s.Table.Declare(&symbols.Tag{Name: name, Kind: symbols.OperatorTag, Mode: mode, Priority: prio, Routine: idx})
}

func (s *StdEnv) proc(name string, result *typesystem.Mode, params []*typesystem.Mode, fn func(*VM, [][]byte) ([]byte, error)) {
	mode := s.g.ProcOf(result, params...)
	idx := s.add(&Routine{Name: name, Mode: mode, Fn: fn})
	s.Table.Declare(&symbols.Tag{Name: name, Kind: symbols.IdentifierTag, Mode: mode, Routine: idx})
}

func (s *StdEnv) constant(name string, result *typesystem.Mode, value []byte) {
	mode := s.g.ProcOf(result)
	idx := s.add(&Routine{Name: name, Mode: mode, Invoked: true, Fn: func(*VM, [][]byte) ([]byte, error) {
		return append([]byte(nil), value...), nil
	}})
	s.Table.Declare(&symbols.Tag{Name: name, Kind: symbols.IdentifierTag, Mode: mode, Routine: idx, Constant: true})
}

func IntValue(v int64) []byte {
	b := make([]byte, typesystem.IntSize)
	PutInt(b, v)
	return b
}

func RealValue(v float64) []byte {
	b := make([]byte, typesystem.RealSize)
	PutReal(b, v)
	return b
}

func BoolValue(v bool) []byte {
	b := make([]byte, typesystem.BoolSize)
	PutBool(b, v)
	return b
}

func CharValue(v rune) []byte {
	b := make([]byte, typesystem.CharSize)
	PutChar(b, v)
	return b
}

func BitsValue(v uint64) []byte {
	b := make([]byte, typesystem.BitsSize)
	PutBits(b, v)
	return b
}

func RefValue(r Ref) []byte {
	b := make([]byte, typesystem.RefSize)
	PutRef(b, r)
	return b
}

func addInt(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, Fatalf("integer overflow")
	}
	return a + b, nil
}

func subInt(a, b int64) (int64, error) {
	if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
		return 0, Fatalf("integer overflow")
	}
	return a - b, nil
}

func mulInt(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	c := a * b
	if c/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, Fatalf("integer overflow")
	}
	return c, nil
}

func powInt(a, n int64) (int64, error) {
	if n < 0 {
		return 0, Fatalf("negative exponent %d", n)
	}
	result := int64(1)
	for i := int64(0); i < n; i++ {
		var err error
		if result, err = mulInt(result, a); err != nil {
			return 0, err
		}
	}
	return result, nil
}

func overInt(a, b int64) (int64, error) {
	if b == 0 {
		return 0, Fatalf("division by zero")
	}
	if a == math.MinInt64 && b == -1 {
		return 0, Fatalf("integer overflow")
	}
	return a / b, nil
}

// modInt yields a result in [0, |b|).
func modInt(a, b int64) (int64, error) {
	if b == 0 {
		return 0, Fatalf("division by zero")
	}
	if b == -1 {
		return 0, nil
	}
	r := a % b
	if r < 0 {
		if b < 0 {
			r -= b
		} else {
			r += b
		}
	}
	return r, nil
}

func checkReal(v float64) ([]byte, error) {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil, Fatalf("REAL overflow")
	}
	return RealValue(v), nil
}

func (s *StdEnv) intOperators() {
	g := s.g
	ii := []*typesystem.Mode{g.Int, g.Int}
	arith := map[string]func(a, b int64) (int64, error){
		"+": addInt, "-": subInt, "*": mulInt, "**": powInt,
		"OVER": overInt, "%": overInt, "MOD": modInt, "%*": modInt,
	}
	for name, f := range arith {
		f := f
		s.op(name, g.Int, ii, func(_ *VM, a [][]byte) ([]byte, error) {
			v, err := f(GetInt(a[0]), GetInt(a[1]))
			if err != nil {
				return nil, err
			}
			return IntValue(v), nil
		})
	}
	s.op("/", g.Real, ii, func(_ *VM, a [][]byte) ([]byte, error) {
		if GetInt(a[1]) == 0 {
			return nil, Fatalf("division by zero")
		}
		return RealValue(float64(GetInt(a[0])) / float64(GetInt(a[1]))), nil
	})
	compare := map[string]func(a, b int64) bool{
		"=": func(a, b int64) bool { return a == b }, "/=": func(a, b int64) bool { return a != b },
		"<": func(a, b int64) bool { return a < b }, "<=": func(a, b int64) bool { return a <= b },
		">": func(a, b int64) bool { return a > b }, ">=": func(a, b int64) bool { return a >= b },
	}
	for name, f := range compare {
		f := f
		s.op(name, g.Bool, ii, func(_ *VM, a [][]byte) ([]byte, error) {
			return BoolValue(f(GetInt(a[0]), GetInt(a[1]))), nil
		})
	}

	one := []*typesystem.Mode{g.Int}
	s.op("-", g.Int, one, func(_ *VM, a [][]byte) ([]byte, error) {
		v, err := subInt(0, GetInt(a[0]))
		if err != nil {
			return nil, err
		}
		return IntValue(v), nil
	})
	s.op("+", g.Int, one, func(_ *VM, a [][]byte) ([]byte, error) {
		return IntValue(GetInt(a[0])), nil
	})
	s.op("ABS", g.Int, one, func(_ *VM, a [][]byte) ([]byte, error) {
		v := GetInt(a[0])
		if v == math.MinInt64 {
			return nil, Fatalf("integer overflow")
		}
		if v < 0 {
			v = -v
		}
		return IntValue(v), nil
	})
	s.op("SIGN", g.Int, one, func(_ *VM, a [][]byte) ([]byte, error) {
		v := GetInt(a[0])
		switch {
		case v > 0:
			return IntValue(1), nil
		case v < 0:
			return IntValue(-1), nil
		}
		return IntValue(0), nil
	})
	s.op("ODD", g.Bool, one, func(_ *VM, a [][]byte) ([]byte, error) {
		return BoolValue(GetInt(a[0])%2 != 0), nil
	})
	s.op("REPR", g.Char, one, func(_ *VM, a [][]byte) ([]byte, error) {
		v := GetInt(a[0])
		if v < 0 || v > math.MaxInt32 {
			return nil, Fatalf("character out of range")
		}
		return CharValue(rune(v)), nil
	})
}

func (s *StdEnv) realOperators() {
	g := s.g
	rr := []*typesystem.Mode{g.Real, g.Real}
	arith := map[string]func(a, b float64) (float64, error){
		"+": func(a, b float64) (float64, error) { return a + b, nil },
		"-": func(a, b float64) (float64, error) { return a - b, nil },
		"*": func(a, b float64) (float64, error) { return a * b, nil },
		"/": func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, Fatalf("division by zero")
			}
			return a / b, nil
		},
		"**": func(a, b float64) (float64, error) { return math.Pow(a, b), nil },
	}
	for name, f := range arith {
		f := f
		s.op(name, g.Real, rr, func(_ *VM, a [][]byte) ([]byte, error) {
			v, err := f(GetReal(a[0]), GetReal(a[1]))
			if err != nil {
				return nil, err
			}
			return checkReal(v)
		})
	}
	s.op("**", g.Real, []*typesystem.Mode{g.Real, g.Int}, func(_ *VM, a [][]byte) ([]byte, error) {
		return checkReal(math.Pow(GetReal(a[0]), float64(GetInt(a[1]))))
	})
	for name, f := range realComparisons {
		f := f
		s.op(name, g.Bool, rr, func(_ *VM, a [][]byte) ([]byte, error) {
			return BoolValue(f(GetReal(a[0]), GetReal(a[1]))), nil
		})
	}

	one := []*typesystem.Mode{g.Real}
	s.op("-", g.Real, one, func(_ *VM, a [][]byte) ([]byte, error) {
		return RealValue(-GetReal(a[0])), nil
	})
	s.op("+", g.Real, one, func(_ *VM, a [][]byte) ([]byte, error) {
		return RealValue(GetReal(a[0])), nil
	})
	s.op("ABS", g.Real, one, func(_ *VM, a [][]byte) ([]byte, error) {
		return RealValue(math.Abs(GetReal(a[0]))), nil
	})
	s.op("SIGN", g.Int, one, func(_ *VM, a [][]byte) ([]byte, error) {
		v := GetReal(a[0])
		switch {
		case v > 0:
			return IntValue(1), nil
		case v < 0:
			return IntValue(-1), nil
		}
		return IntValue(0), nil
	})
	toInt := func(v float64) ([]byte, error) {
		if v >= math.MaxInt64 || v < math.MinInt64 || math.IsNaN(v) {
			return nil, Fatalf("integer overflow")
		}
		return IntValue(int64(v)), nil
	}
	s.op("ENTIER", g.Int, one, func(_ *VM, a [][]byte) ([]byte, error) {
		return toInt(math.Floor(GetReal(a[0])))
	})
	s.op("ROUND", g.Int, one, func(_ *VM, a [][]byte) ([]byte, error) {
		return toInt(math.Round(GetReal(a[0])))
	})
}

var realComparisons = map[string]func(a, b float64) bool{
	"=": func(a, b float64) bool { return a == b }, "/=": func(a, b float64) bool { return a != b },
	"<": func(a, b float64) bool { return a < b }, "<=": func(a, b float64) bool { return a <= b },
	">": func(a, b float64) bool { return a > b }, ">=": func(a, b float64) bool { return a >= b },
}

// mixedOperators widen the INT operand of an INT/REAL pair.
func (s *StdEnv) mixedOperators() {
	g := s.g
	widen := func(b []byte, m *typesystem.Mode) float64 {
		if m == g.Int {
			return float64(GetInt(b))
		}
		return GetReal(b)
	}
	pairs := [][2]*typesystem.Mode{{g.Int, g.Real}, {g.Real, g.Int}}
	for _, p := range pairs {
		x, y := p[0], p[1]
		for _, name := range []string{"+", "-", "*", "/"} {
			name := name
			s.op(name, g.Real, []*typesystem.Mode{x, y}, func(_ *VM, a [][]byte) ([]byte, error) {
				l, r := widen(a[0], x), widen(a[1], y)
				switch name {
				case "+":
					return checkReal(l + r)
				case "-":
					return checkReal(l - r)
				case "*":
					return checkReal(l * r)
				}
				if r == 0 {
					return nil, Fatalf("division by zero")
				}
				return checkReal(l / r)
			})
		}
		for name, f := range realComparisons {
			f := f
			s.op(name, g.Bool, []*typesystem.Mode{x, y}, func(_ *VM, a [][]byte) ([]byte, error) {
				return BoolValue(f(widen(a[0], x), widen(a[1], y))), nil
			})
		}
	}
}

func (s *StdEnv) boolOperators() {
	g := s.g
	bb := []*typesystem.Mode{g.Bool, g.Bool}
	ops := map[string]func(a, b bool) bool{
		"AND": func(a, b bool) bool { return a && b },
		"OR":  func(a, b bool) bool { return a || b },
		"=":   func(a, b bool) bool { return a == b },
		"/=":  func(a, b bool) bool { return a != b },
	}
	for name, f := range ops {
		f := f
		s.op(name, g.Bool, bb, func(_ *VM, a [][]byte) ([]byte, error) {
			return BoolValue(f(GetBool(a[0]), GetBool(a[1]))), nil
		})
	}
	s.op("NOT", g.Bool, []*typesystem.Mode{g.Bool}, func(_ *VM, a [][]byte) ([]byte, error) {
		return BoolValue(!GetBool(a[0])), nil
	})
	s.op("ABS", g.Int, []*typesystem.Mode{g.Bool}, func(_ *VM, a [][]byte) ([]byte, error) {
		if GetBool(a[0]) {
			return IntValue(1), nil
		}
		return IntValue(0), nil
	})
}

func (s *StdEnv) charOperators() {
	g := s.g
	cc := []*typesystem.Mode{g.Char, g.Char}
	compare := map[string]func(a, b rune) bool{
		"=": func(a, b rune) bool { return a == b }, "/=": func(a, b rune) bool { return a != b },
		"<": func(a, b rune) bool { return a < b }, "<=": func(a, b rune) bool { return a <= b },
		">": func(a, b rune) bool { return a > b }, ">=": func(a, b rune) bool { return a >= b },
	}
	for name, f := range compare {
		f := f
		s.op(name, g.Bool, cc, func(_ *VM, a [][]byte) ([]byte, error) {
			return BoolValue(f(GetChar(a[0]), GetChar(a[1]))), nil
		})
	}
	s.op("ABS", g.Int, []*typesystem.Mode{g.Char}, func(_ *VM, a [][]byte) ([]byte, error) {
		return IntValue(int64(GetChar(a[0]))), nil
	})
	s.op("+", g.String, cc, func(m *VM, a [][]byte) ([]byte, error) {
		return transientString(m, string([]rune{GetChar(a[0]), GetChar(a[1])}))
	})
}

func (s *StdEnv) bitsOperators() {
	g := s.g
	bb := []*typesystem.Mode{g.Bits, g.Bits}
	s.op("AND", g.Bits, bb, func(_ *VM, a [][]byte) ([]byte, error) {
		return BitsValue(GetBits(a[0]) & GetBits(a[1])), nil
	})
	s.op("OR", g.Bits, bb, func(_ *VM, a [][]byte) ([]byte, error) {
		return BitsValue(GetBits(a[0]) | GetBits(a[1])), nil
	})
	s.op("=", g.Bool, bb, func(_ *VM, a [][]byte) ([]byte, error) {
		return BoolValue(GetBits(a[0]) == GetBits(a[1])), nil
	})
	s.op("/=", g.Bool, bb, func(_ *VM, a [][]byte) ([]byte, error) {
		return BoolValue(GetBits(a[0]) != GetBits(a[1])), nil
	})
	s.op("NOT", g.Bits, []*typesystem.Mode{g.Bits}, func(_ *VM, a [][]byte) ([]byte, error) {
		return BitsValue(^GetBits(a[0])), nil
	})
	shift := func(v uint64, n int64) uint64 {
		switch {
		case n >= typesystem.BitsWidth || n <= -typesystem.BitsWidth:
			return 0
		case n >= 0:
			return v << uint(n)
		}
		return v >> uint(-n)
	}
	bi := []*typesystem.Mode{g.Bits, g.Int}
	for _, name := range []string{"SHL", "UP"} {
		s.op(name, g.Bits, bi, func(_ *VM, a [][]byte) ([]byte, error) {
			return BitsValue(shift(GetBits(a[0]), GetInt(a[1]))), nil
		})
	}
	for _, name := range []string{"SHR", "DOWN"} {
		s.op(name, g.Bits, bi, func(_ *VM, a [][]byte) ([]byte, error) {
			return BitsValue(shift(GetBits(a[0]), -GetInt(a[1]))), nil
		})
	}
}

func transientString(m *VM, s string) ([]byte, error) {
	r, err := m.TransientString(s)
	if err != nil {
		return nil, err
	}
	return RefValue(r), nil
}

func (s *StdEnv) stringOperators() {
	g := s.g
	ss := []*typesystem.Mode{g.String, g.String}
	both := func(m *VM, a [][]byte) (string, string, error) {
		x, err := m.ReadString(GetRef(a[0]))
		if err != nil {
			return "", "", Fatalf("%v", err)
		}
		y, err := m.ReadString(GetRef(a[1]))
		if err != nil {
			return "", "", Fatalf("%v", err)
		}
		return x, y, nil
	}
	s.op("+", g.String, ss, func(m *VM, a [][]byte) ([]byte, error) {
		x, y, err := both(m, a)
		if err != nil {
			return nil, err
		}
		return transientString(m, x+y)
	})
	compare := map[string]func(a, b string) bool{
		"=": func(a, b string) bool { return a == b }, "/=": func(a, b string) bool { return a != b },
		"<": func(a, b string) bool { return a < b }, "<=": func(a, b string) bool { return a <= b },
		">": func(a, b string) bool { return a > b }, ">=": func(a, b string) bool { return a >= b },
	}
	for name, f := range compare {
		f := f
		s.op(name, g.Bool, ss, func(m *VM, a [][]byte) ([]byte, error) {
			x, y, err := both(m, a)
			if err != nil {
				return nil, err
			}
			return BoolValue(f(x, y)), nil
		})
	}
	s.op("+", g.String, []*typesystem.Mode{g.String, g.Char}, func(m *VM, a [][]byte) ([]byte, error) {
		x, err := m.ReadString(GetRef(a[0]))
		if err != nil {
			return nil, Fatalf("%v", err)
		}
		return transientString(m, x+string(GetChar(a[1])))
	})
	s.op("*", g.String, []*typesystem.Mode{g.String, g.Int}, func(m *VM, a [][]byte) ([]byte, error) {
		x, err := m.ReadString(GetRef(a[0]))
		if err != nil {
			return nil, Fatalf("%v", err)
		}
		n := GetInt(a[1])
		if n < 0 {
			n = 0
		}
		return transientString(m, strings.Repeat(x, int(n)))
	})
}

// rowOperators take any row; the argument is the reference to its
// descriptor.
func (s *StdEnv) rowOperators() {
	g := s.g
	bound := func(m *VM, row []byte, dim int64, upper bool) ([]byte, error) {
		d, err := m.Descriptor(GetRef(row))
		if err != nil {
			return nil, Fatalf("%v", err)
		}
		if dim < 1 || dim > int64(d.Dim()) {
			return nil, Fatalf("invalid dimension %d", dim)
		}
		t := d.Tuples[dim-1]
		if upper {
			return IntValue(t.Upb), nil
		}
		return IntValue(t.Lwb), nil
	}
	one := []*typesystem.Mode{g.Rows}
	s.op("LWB", g.Int, one, func(m *VM, a [][]byte) ([]byte, error) { return bound(m, a[0], 1, false) })
	s.op("UPB", g.Int, one, func(m *VM, a [][]byte) ([]byte, error) { return bound(m, a[0], 1, true) })
	two := []*typesystem.Mode{g.Int, g.Rows}
	s.op("LWB", g.Int, two, func(m *VM, a [][]byte) ([]byte, error) { return bound(m, a[1], GetInt(a[0]), false) })
	s.op("UPB", g.Int, two, func(m *VM, a [][]byte) ([]byte, error) { return bound(m, a[1], GetInt(a[0]), true) })
	s.op("ELEMS", g.Int, one, func(m *VM, a [][]byte) ([]byte, error) {
		d, err := m.Descriptor(GetRef(a[0]))
		if err != nil {
			return nil, Fatalf("%v", err)
		}
		return IntValue(d.Elems()), nil
	})
}

// assignOperators update a variable in place and yield the reference.
func (s *StdEnv) assignOperators() {
	g := s.g
	target := func(m *VM, ref []byte, size int) ([]byte, error) {
		b, err := m.Bytes(GetRef(ref), size)
		if err != nil {
			return nil, Fatalf("%v", err)
		}
		if !IsInitialised(b) {
			return nil, Fatalf("uninitialised value")
		}
		return b, nil
	}
	intOps := map[string]func(a, b int64) (int64, error){"+:=": addInt, "-:=": subInt, "*:=": mulInt}
	for name, f := range intOps {
		f := f
		s.op(name, g.Ref(g.Int), []*typesystem.Mode{g.Ref(g.Int), g.Int}, func(m *VM, a [][]byte) ([]byte, error) {
			b, err := target(m, a[0], typesystem.IntSize)
			if err != nil {
				return nil, err
			}
			v, err := f(GetInt(b), GetInt(a[1]))
			if err != nil {
				return nil, err
			}
			PutInt(b, v)
			return append([]byte(nil), a[0]...), nil
		})
	}
	realOps := map[string]func(a, b float64) float64{
		"+:=": func(a, b float64) float64 { return a + b },
		"-:=": func(a, b float64) float64 { return a - b },
		"*:=": func(a, b float64) float64 { return a * b },
		"/:=": func(a, b float64) float64 { return a / b },
	}
	for name, f := range realOps {
		name, f := name, f
		s.op(name, g.Ref(g.Real), []*typesystem.Mode{g.Ref(g.Real), g.Real}, func(m *VM, a [][]byte) ([]byte, error) {
			b, err := target(m, a[0], typesystem.RealSize)
			if err != nil {
				return nil, err
			}
			if name == "/:=" && GetReal(a[1]) == 0 {
				return nil, Fatalf("division by zero")
			}
			v, err := checkReal(f(GetReal(b), GetReal(a[1])))
			if err != nil {
				return nil, err
			}
			copy(b, v)
			return append([]byte(nil), a[0]...), nil
		})
	}
}

func (s *StdEnv) procedures() {
	g := s.g
	real1 := []*typesystem.Mode{g.Real}
	funcs := []struct {
		name string
		fn   func(float64) (float64, error)
	}{
		{"sqrt", func(x float64) (float64, error) {
			if x < 0 {
				return 0, Fatalf("argument %g out of range for sqrt", x)
			}
			return math.Sqrt(x), nil
		}},
		{"exp", func(x float64) (float64, error) { return math.Exp(x), nil }},
		{"ln", func(x float64) (float64, error) {
			if x <= 0 {
				return 0, Fatalf("argument %g out of range for ln", x)
			}
			return math.Log(x), nil
		}},
		{"sin", func(x float64) (float64, error) { return math.Sin(x), nil }},
		{"cos", func(x float64) (float64, error) { return math.Cos(x), nil }},
		{"arctan", func(x float64) (float64, error) { return math.Atan(x), nil }},
	}
	for _, f := range funcs {
		fn := f.fn
		s.proc(f.name, g.Real, real1, func(_ *VM, a [][]byte) ([]byte, error) {
			v, err := fn(GetReal(a[0]))
			if err != nil {
				return nil, err
			}
			return checkReal(v)
		})
	}
	s.proc("abs", g.Int, []*typesystem.Mode{g.Int}, func(_ *VM, a [][]byte) ([]byte, error) {
		v := GetInt(a[0])
		if v == math.MinInt64 {
			return nil, Fatalf("integer overflow")
		}
		if v < 0 {
			v = -v
		}
		return IntValue(v), nil
	})
	// whole (v, width) formats v right-aligned in width columns; a
	// positive width forces a sign.
	s.proc("whole", g.String, []*typesystem.Mode{g.Int, g.Int}, func(m *VM, a [][]byte) ([]byte, error) {
		v, width := GetInt(a[0]), GetInt(a[1])
		text := strconv.FormatInt(v, 10)
		if width > 0 && v >= 0 {
			text = "+" + text
		}
		if width < 0 {
			width = -width
		}
		if pad := int(width) - len(text); pad > 0 {
			text = strings.Repeat(" ", pad) + text
		}
		return transientString(m, text)
	})
}

func (s *StdEnv) constants() {
	g := s.g
	s.constant("pi", g.Real, RealValue(math.Pi))
	s.constant("maxint", g.Int, IntValue(math.MaxInt64))
	s.constant("minint", g.Int, IntValue(math.MinInt64))
	s.constant("maxreal", g.Real, RealValue(math.MaxFloat64))
	s.constant("smallreal", g.Real, RealValue(math.Nextafter(1, 2)-1))
	s.constant("bitswidth", g.Int, IntValue(typesystem.BitsWidth))
}
