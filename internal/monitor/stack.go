package monitor

import (
	"github.com/funvibe/monitor/internal/typesystem"
	"github.com/funvibe/monitor/internal/vm"
)

// push places a value of mode m on the stacks.
func (s *Session) push(b []byte, m *typesystem.Mode) error {
	if s.msp >= len(s.stack) {
		return errorf(msgStackOverflow)
	}
	size := m.Size()
	if s.sp+size > len(s.values) {
		return errorf(msgStackOverflow)
	}
	dst := s.values[s.sp : s.sp+size]
	vm.Clear(dst)
	copy(dst, b)
	s.sp += size
	s.stack[s.msp] = m
	s.msp++
	return nil
}

// pop removes the top entry and returns a copy of its bytes.
func (s *Session) pop() ([]byte, *typesystem.Mode) {
	if s.msp == 0 {
		return nil, nil
	}
	s.msp--
	m := s.stack[s.msp]
	s.sp -= m.Size()
	b := append([]byte(nil), s.values[s.sp:s.sp+m.Size()]...)
	return b, m
}

// top returns the top entry in place.
func (s *Session) top() ([]byte, *typesystem.Mode) {
	if s.msp == 0 {
		return nil, nil
	}
	m := s.stack[s.msp-1]
	return s.values[s.sp-m.Size() : s.sp], m
}

func (s *Session) topMode() *typesystem.Mode {
	if s.msp == 0 {
		return nil
	}
	return s.stack[s.msp-1]
}
