package monitor

import (
	"github.com/funvibe/monitor/internal/token"
	"github.com/funvibe/monitor/internal/typesystem"
	"github.com/funvibe/monitor/internal/vm"
)

// suffixes applies calls and slices following an operand.
func (s *Session) suffixes() error {
	for {
		switch s.tok.Type {
		case token.LBRACKET:
			if err := s.slice(token.RBRACKET); err != nil {
				return err
			}
		case token.LPAREN:
			base := s.topMode().Canonical()
			for base.IsRef() {
				base = base.Sub.Canonical()
			}
			var err error
			if base.Shape == typesystem.Proc {
				err = s.call()
			} else {
				err = s.slice(token.RPAREN)
			}
			if err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// call invokes an environ procedure with arguments in parentheses.
func (s *Session) call() error {
	for s.topMode().IsRef() {
		if err := s.deref(Strong); err != nil {
			return err
		}
	}
	b, m := s.pop()
	if !vm.IsInitialised(b) {
		return errorf(msgNoValue)
	}
	p := vm.GetProc(b)
	if p.Kind != vm.ProcStdenv {
		return errorf("can only call standard environ routines")
	}
	r, ok := s.vm.Std.Routine(int(p.Body))
	if !ok {
		return errorf("can only call standard environ routines")
	}
	params := m.Canonical().Fields
	s.next()
	args := make([][]byte, 0, len(params))
	for {
		if len(args) == len(params) {
			return contextError("too many arguments", r.Name)
		}
		if err := s.parse(0); err != nil {
			return err
		}
		if err := s.cast(params[len(args)].Mode); err != nil {
			return err
		}
		v, _ := s.pop()
		if !vm.IsInitialised(v) {
			return vm.Fatalf(msgNoValue)
		}
		args = append(args, v)
		if s.tok.Type != token.COMMA {
			break
		}
		s.next()
	}
	if err := s.expect(token.RPAREN, "unmatched parenthesis"); err != nil {
		return err
	}
	if len(args) != len(params) {
		return contextError("too few arguments", r.Name)
	}
	v, err := r.Fn(s.vm, args)
	if err != nil {
		return err
	}
	return s.push(v, m.Canonical().Sub)
}

// slice indexes a row. A name of a row yields a name of the element; the
// row itself is dereferenced only once the indices are known.
func (s *Session) slice(closing token.TokenType) error {
	if err := s.deref(Weak); err != nil {
		return err
	}
	b, m := s.pop()
	m = m.Canonical()
	refMode := m.IsRef()
	row := m
	if refMode {
		row = m.Sub.Canonical()
		v, _, err := s.derefOnce(b, m)
		if err != nil {
			return err
		}
		b = v
	}
	if !row.IsRow() {
		return contextError("cannot slice", m.String())
	}
	row = row.Deflex()
	if !vm.IsInitialised(b) {
		return errorf(msgNoValue)
	}
	d, err := s.vm.Descriptor(vm.GetRef(b))
	if err != nil {
		return errorf("%v", err)
	}
	s.next()
	subs := make([]int64, 0, d.Dim())
	for {
		if len(subs) == d.Dim() {
			return errorf("too many indices")
		}
		if err := s.parse(0); err != nil {
			return err
		}
		if err := s.deref(Meek); err != nil {
			return err
		}
		if m := s.topMode().Canonical(); m != s.modes.Int {
			return contextError("cannot convert", m.String()+" to INT")
		}
		v, _ := s.pop()
		if !vm.IsInitialised(v) {
			return vm.Fatalf(msgNoValue)
		}
		k := vm.GetInt(v)
		t := d.Tuples[len(subs)]
		if k < t.Lwb || k > t.Upb {
			return vm.Fatalf("index out of bounds")
		}
		subs = append(subs, k)
		if s.tok.Type != token.COMMA {
			break
		}
		s.next()
	}
	if err := s.expect(closing, "unmatched bracket"); err != nil {
		return err
	}
	if len(subs) != d.Dim() {
		return errorf("too few indices")
	}
	elem := d.Element(d.Index(subs))
	if refMode {
		return s.push(vm.RefValue(elem), s.modes.Ref(row.Sub))
	}
	v, err := s.vm.Bytes(elem, row.Sub.Size())
	if err != nil {
		return errorf("%v", err)
	}
	return s.push(v, row.Sub)
}

// selection yields field name of the structure on top.
func (s *Session) selection(name string) error {
	if err := s.deref(Weak); err != nil {
		return err
	}
	b, m := s.pop()
	m = m.Canonical()
	if m.IsRef() {
		st := m.Sub.Canonical()
		f, ok := st.Field(name)
		if !ok {
			return contextError("cannot find field", name+" of "+st.String())
		}
		if !vm.IsInitialised(b) {
			return errorf(msgNoValue)
		}
		r := vm.GetRef(b)
		if r.IsNil() {
			return errorf(msgNilName)
		}
		return s.push(vm.RefValue(r.Add(f.Offset)), s.modes.Ref(f.Mode))
	}
	f, ok := m.Field(name)
	if !ok {
		return contextError("cannot find field", name+" of "+m.String())
	}
	return s.push(b[f.Offset:f.Offset+f.Mode.Size()], f.Mode)
}
