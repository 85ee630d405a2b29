package monitor

import (
	"github.com/funvibe/monitor/internal/symbols"
	"github.com/funvibe/monitor/internal/typesystem"
	"github.com/funvibe/monitor/internal/vm"
)

// operatorTables are searched in order: the standard environ first, then
// operators the program declares at its outermost level.
func (s *Session) operatorTables() []*symbols.Table {
	tables := []*symbols.Table{s.vm.Std.Table}
	if p := s.vm.Program; p != nil && p.Root != nil && p.Root.Table != nil {
		tables = append(tables, p.Root.Table)
	}
	return tables
}

// priority returns the dyadic priority of an operator symbol.
func (s *Session) priority(sym string) (int, bool) {
	for _, t := range s.operatorTables() {
		if p, ok := t.Priority(sym); ok {
			return p, true
		}
	}
	return 0, false
}

func paramMatches(param, m *typesystem.Mode, rows *typesystem.Mode) bool {
	param, m = param.Canonical(), m.Canonical()
	if param == m {
		return true
	}
	return param == rows && m.IsRow()
}

func (s *Session) matchOperator(sym string, x, y *typesystem.Mode) *symbols.Tag {
	n := 1
	if y != nil {
		n = 2
	}
	for _, t := range s.operatorTables() {
		for _, tag := range t.Operators(sym) {
			params := tag.Mode.Fields
			if len(params) != n || !paramMatches(params[0].Mode, x, s.modes.Rows) {
				continue
			}
			if n == 2 && !paramMatches(params[1].Mode, y, s.modes.Rows) {
				continue
			}
			return tag
		}
	}
	return nil
}

// findOperator matches sym against the operand modes. Failing an exact
// match it retries with one reference level stripped from the left
// operand, then from the right one.
func (s *Session) findOperator(sym string, x, y *typesystem.Mode) *symbols.Tag {
	if tag := s.matchOperator(sym, x, y); tag != nil {
		return tag
	}
	if x.IsRef() {
		if tag := s.findOperator(sym, x.Sub, y); tag != nil {
			return tag
		}
	}
	if y != nil && y.IsRef() {
		if tag := s.findOperator(sym, x, y.Sub); tag != nil {
			return tag
		}
	}
	return nil
}

func signature(sym string, x, y *typesystem.Mode) string {
	if y == nil {
		return sym + " " + x.String()
	}
	return sym + " " + x.String() + " " + y.String()
}

// coerceOperand dereferences a popped operand to the parameter mode.
func (s *Session) coerceOperand(b []byte, m, param *typesystem.Mode) ([]byte, error) {
	for !paramMatches(param, m, s.modes.Rows) {
		var err error
		if b, m, err = s.derefOnce(b, m); err != nil {
			return nil, err
		}
	}
	if !vm.IsInitialised(b) {
		return nil, vm.Fatalf(msgNoValue)
	}
	return b, nil
}

// applyOperator pops one or two operands, invokes the operator and pushes
// its result.
func (s *Session) applyOperator(sym string, dyadic bool) error {
	var args [][]byte
	var modes []*typesystem.Mode
	if dyadic {
		rb, rm := s.pop()
		lb, lm := s.pop()
		args, modes = [][]byte{lb, rb}, []*typesystem.Mode{lm, rm}
	} else {
		b, m := s.pop()
		args, modes = [][]byte{b}, []*typesystem.Mode{m}
	}
	var y *typesystem.Mode
	if dyadic {
		y = modes[1]
	}
	tag := s.findOperator(sym, modes[0], y)
	if tag == nil {
		return contextError("cannot find operator", signature(sym, modes[0], y))
	}
	r, ok := s.vm.Std.Routine(tag.Routine)
	if !ok || tag.Routine == symbols.NoRoutine {
		return contextError("can only call standard environ routines", sym)
	}
	for i := range args {
		v, err := s.coerceOperand(args[i], modes[i], tag.Mode.Fields[i].Mode)
		if err != nil {
			return err
		}
		args[i] = v
	}
	v, err := r.Fn(s.vm, args)
	if err != nil {
		return err
	}
	return s.push(v, tag.Mode.Sub)
}
