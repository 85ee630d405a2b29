package monitor

import (
	"github.com/funvibe/monitor/internal/typesystem"
	"github.com/funvibe/monitor/internal/vm"
)

// Strength is how far a value is dereferenced before use.
type Strength int

const (
	// Weak stops before a reference to a row or structure, so the
	// result can still be sliced or selected as a name.
	Weak Strength = iota
	// Meek dereferences simple references fully; subscripts use it.
	Meek
	Strong
)

func (st Strength) String() string {
	switch st {
	case Weak:
		return "weak"
	case Meek:
		return "meek"
	}
	return "strong"
}

func derefCondition(st Strength, m *typesystem.Mode) bool {
	if !m.IsRef() {
		return false
	}
	if st == Weak {
		return !m.Sub.Stowed()
	}
	return true
}

// derefOnce yields the value a reference designates.
func (s *Session) derefOnce(b []byte, m *typesystem.Mode) ([]byte, *typesystem.Mode, error) {
	if !vm.IsInitialised(b) {
		return nil, nil, errorf(msgNoValue)
	}
	r := vm.GetRef(b)
	if r.IsNil() {
		return nil, nil, errorf(msgNilName)
	}
	sub := m.Canonical().Sub
	v, err := s.vm.Bytes(r, sub.Size())
	if err != nil {
		return nil, nil, errorf("%v", err)
	}
	return v, sub, nil
}

// deref replaces the top of the stacks by its referent while the
// strength allows it.
func (s *Session) deref(st Strength) error {
	for derefCondition(st, s.topMode()) {
		b, m := s.pop()
		v, sub, err := s.derefOnce(b, m)
		if err != nil {
			return err
		}
		if err := s.push(v, sub); err != nil {
			return err
		}
	}
	return nil
}

// derefTo dereferences the top until it has mode target.
func (s *Session) derefTo(target *typesystem.Mode) error {
	target = target.Canonical()
	for {
		m := s.topMode().Canonical()
		if m == target {
			return nil
		}
		if !m.IsRef() {
			return contextError("cannot convert", m.String()+" to "+target.String())
		}
		b, _ := s.pop()
		v, sub, err := s.derefOnce(b, m)
		if err != nil {
			return err
		}
		if err := s.push(v, sub); err != nil {
			return err
		}
	}
}

// cast coerces the top to target, widening INT to REAL where needed. A NIL
// on top is accepted for any reference target.
func (s *Session) cast(target *typesystem.Mode) error {
	target = target.Canonical()
	if s.topMode() == s.modes.Hip && target.IsRef() {
		b, _ := s.pop()
		return s.push(b, target)
	}
	if target == s.modes.Real {
		if err := s.deref(Strong); err != nil {
			return err
		}
		if s.topMode() == s.modes.Int {
			b, _ := s.pop()
			if !vm.IsInitialised(b) {
				return errorf(msgNoValue)
			}
			return s.push(vm.RealValue(float64(vm.GetInt(b))), s.modes.Real)
		}
	}
	return s.derefTo(target)
}

// depth counts reference levels.
func depth(m *typesystem.Mode) int {
	n := 0
	for m = m.Canonical(); m.IsRef(); m = m.Sub.Canonical() {
		n++
	}
	return n
}
