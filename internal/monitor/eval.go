package monitor

import (
	"fmt"

	"github.com/funvibe/monitor/internal/lexer"
	"github.com/funvibe/monitor/internal/token"
	"github.com/funvibe/monitor/internal/typesystem"
	"github.com/funvibe/monitor/internal/vm"
)

// evaluate runs text against the paused program and hands the result to
// use. Both stacks and the transient area are restored on return, whether
// evaluation succeeded or not.
func (s *Session) evaluate(text string, use func(b []byte, m *typesystem.Mode) error) (err error) {
	sp, msp := s.sp, s.msp
	mark := s.vm.ScratchMark()
	lex, tok := s.lex, s.tok
	defer func() {
		s.sp, s.msp = sp, msp
		s.vm.ReleaseScratch(mark)
		s.lex, s.tok = lex, tok
	}()

	s.lex = lexer.New(text)
	s.next()
	if s.tok.Type == token.EOF {
		return errorf("expression expected")
	}
	if err := s.assignation(); err != nil {
		return err
	}
	if s.tok.Type != token.EOF {
		return s.unexpected("trailing symbol")
	}
	b, m := s.top()
	if use != nil {
		return use(b, m)
	}
	return nil
}

func (s *Session) next() {
	s.tok = s.lex.NextToken()
}

// unexpected reports the current symbol. Scanner errors carry their own
// message.
func (s *Session) unexpected(msg string) error {
	if s.tok.Type == token.ILLEGAL {
		if text, ok := s.tok.Literal.(string); ok {
			return contextError(text, s.tok.Lexeme)
		}
	}
	if s.tok.Type == token.EOF {
		return errorf("unexpected end of line")
	}
	return contextError(msg, s.tok.Lexeme)
}

func (s *Session) expect(t token.TokenType, msg string) error {
	if s.tok.Type != t {
		return s.unexpected(msg)
	}
	s.next()
	return nil
}

// assignation is the outermost level: a formula, optionally followed by
// ":=" and another assignation.
func (s *Session) assignation() error {
	if err := s.parse(0); err != nil {
		return err
	}
	if s.tok.Type != token.ASSIGN {
		return nil
	}
	s.next()
	dest := s.topMode()
	if !dest.IsRef() {
		return contextError("cannot assign to", dest.String())
	}
	if err := s.assignation(); err != nil {
		return err
	}
	if err := s.cast(dest.Sub); err != nil {
		return err
	}
	src, srcMode := s.pop()
	if srcMode.IsRow() || srcMode.IsRef() {
		if vm.IsInitialised(src) && vm.GetRef(src).Segment == vm.SegStack {
			return errorf("cannot assign transient value")
		}
	}
	db, dm := s.pop()
	if !vm.IsInitialised(db) {
		return errorf(msgNoValue)
	}
	r := vm.GetRef(db)
	if r.IsNil() {
		return errorf(msgNilName)
	}
	target, err := s.vm.Bytes(r, srcMode.Size())
	if err != nil {
		return errorf("%v", err)
	}
	copy(target, src)
	s.trace.Printf("assigned %s at %s", srcMode, s.vm.Describe(r))
	return s.push(db, dm)
}

// parse evaluates a formula at priority d. Level 0 handles identity
// relations; 1 through vm.MaxPriority handle dyadic operators; above that
// come operands.
func (s *Session) parse(d int) error {
	switch {
	case d == 0:
		return s.identityRelation()
	case d <= vm.MaxPriority:
		return s.formula(d)
	}
	return s.operand()
}

func (s *Session) identityRelation() error {
	if err := s.parse(1); err != nil {
		return err
	}
	for s.tok.Type == token.IS || s.tok.Type == token.ISNT {
		is := s.tok.Type == token.IS
		if err := s.nameOperand(); err != nil {
			return err
		}
		s.next()
		if err := s.parse(1); err != nil {
			return err
		}
		if err := s.nameOperand(); err != nil {
			return err
		}
		rb, rm := s.pop()
		lb, lm := s.pop()
		var err error
		for lm != s.modes.Hip && rm != s.modes.Hip && depth(lm) > depth(rm) {
			if lb, lm, err = s.derefOnce(lb, lm); err != nil {
				return err
			}
		}
		for lm != s.modes.Hip && rm != s.modes.Hip && depth(rm) > depth(lm) {
			if rb, rm, err = s.derefOnce(rb, rm); err != nil {
				return err
			}
		}
		same := vm.GetRef(lb) == vm.GetRef(rb)
		if err := s.push(vm.BoolValue(same == is), s.modes.Bool); err != nil {
			return err
		}
	}
	return nil
}

// nameOperand checks the top is a name, or NIL.
func (s *Session) nameOperand() error {
	m := s.topMode()
	if m.IsRef() || m == s.modes.Hip {
		return nil
	}
	return contextError("identity relation needs names", m.String())
}

func (s *Session) formula(d int) error {
	if err := s.parse(d + 1); err != nil {
		return err
	}
	for s.tok.Type == token.OPERATOR {
		sym := s.tok.Lexeme
		if p, ok := s.priority(sym); !ok || p != d {
			break
		}
		s.next()
		if err := s.parse(d + 1); err != nil {
			return err
		}
		if err := s.applyOperator(sym, true); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) operand() error {
	switch s.tok.Type {
	case token.OPERATOR:
		sym := s.tok.Lexeme
		s.next()
		if err := s.operand(); err != nil {
			return err
		}
		return s.applyOperator(sym, false)
	case token.REF, token.BOLD:
		return s.castOperand()
	case token.INT, token.REAL, token.BITS, token.CHAR, token.STRING, token.TRUE, token.FALSE, token.NIL:
		return s.denotation()
	case token.IDENT:
		name := s.tok.Lexeme
		s.next()
		if s.tok.Type == token.OF {
			s.next()
			if err := s.operand(); err != nil {
				return err
			}
			return s.selection(name)
		}
		if err := s.pushIdentifier(name); err != nil {
			return err
		}
		return s.suffixes()
	case token.LPAREN:
		s.next()
		if err := s.parse(0); err != nil {
			return err
		}
		if err := s.expect(token.RPAREN, "unmatched parenthesis"); err != nil {
			return err
		}
		return s.suffixes()
	}
	return s.unexpected("unexpected symbol")
}

func (s *Session) castOperand() error {
	refs := 0
	for s.tok.Type == token.REF {
		refs++
		s.next()
	}
	if s.tok.Type != token.BOLD {
		return s.unexpected("mode indicant expected")
	}
	base, ok := s.modes.Lookup(s.tok.Lexeme)
	if !ok {
		return contextError("unknown mode", s.tok.Lexeme)
	}
	target := s.modes.Nest(base, refs)
	s.next()
	if err := s.expect(token.LPAREN, "( expected"); err != nil {
		return err
	}
	if err := s.parse(0); err != nil {
		return err
	}
	if err := s.expect(token.RPAREN, "unmatched parenthesis"); err != nil {
		return err
	}
	return s.cast(target)
}

func (s *Session) denotation() error {
	tok := s.tok
	s.next()
	g := s.modes
	switch tok.Type {
	case token.INT:
		return s.push(vm.IntValue(tok.Literal.(int64)), g.Int)
	case token.REAL:
		return s.push(vm.RealValue(tok.Literal.(float64)), g.Real)
	case token.BITS:
		return s.push(vm.BitsValue(tok.Literal.(uint64)), g.Bits)
	case token.CHAR:
		return s.push(vm.CharValue(tok.Literal.(rune)), g.Char)
	case token.TRUE:
		return s.push(vm.BoolValue(true), g.Bool)
	case token.FALSE:
		return s.push(vm.BoolValue(false), g.Bool)
	case token.NIL:
		return s.push(vm.RefValue(vm.Nil), g.Hip)
	}
	r, err := s.vm.TransientString(tok.Literal.(string))
	if err != nil {
		return errorf("%v", err)
	}
	return s.push(vm.RefValue(r), g.String)
}

// Evaluate evaluates text and prints its mode and value, following
// references one line at a time. Errors are reported and returned.
func (s *Session) Evaluate(text string) error {
	err := s.printValue(text)
	if err != nil {
		s.report(err)
	}
	return err
}

func (s *Session) printValue(text string) error {
	return s.evaluate(text, func(b []byte, m *typesystem.Mode) error {
		for {
			fmt.Fprintf(s.out, "(%s)", m)
			if !m.IsRef() {
				s.show(b, m, 0)
				fmt.Fprintln(s.out)
				return nil
			}
			s.showRef(b)
			fmt.Fprintln(s.out)
			if !vm.IsInitialised(b) || vm.GetRef(b).IsNil() {
				return nil
			}
			var err error
			if b, m, err = s.derefOnce(b, m); err != nil {
				return err
			}
		}
	})
}
