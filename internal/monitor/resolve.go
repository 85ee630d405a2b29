package monitor

import (
	"github.com/funvibe/monitor/internal/symbols"
	"github.com/funvibe/monitor/internal/vm"
)

// frameStart is the frame commands and lookups start from.
func (s *Session) frameStart() *vm.Frame {
	if s.currentFrame > 0 {
		for f := s.frameAt(s.vm.FramePointer()); f != nil; f = s.frameAt(f.DynamicLink) {
			if f.Number == s.currentFrame {
				return f
			}
			if f.Addr == 0 {
				break
			}
		}
	}
	return s.frameAt(s.vm.FramePointer())
}

func (s *Session) frameAt(addr int) *vm.Frame {
	f, ok := s.vm.Frame(addr)
	if !ok {
		return nil
	}
	return f
}

// lookup walks the dynamic chain for name. With a frame override only the
// frame carrying that number is searched.
func (s *Session) lookup(name string) (*vm.Frame, *symbols.Tag) {
	for f := s.frameAt(s.vm.FramePointer()); f != nil && f.Addr != 0; f = s.frameAt(f.DynamicLink) {
		if s.currentFrame != 0 && f.Number != s.currentFrame {
			continue
		}
		if f.Table == nil {
			continue
		}
		if tag, ok := f.Table.Lookup(name); ok {
			return f, tag
		}
	}
	return nil, nil
}

// pushIdentifier resolves name and pushes its value. Environ constants
// are invoked; environ procedures are pushed as procedure values.
func (s *Session) pushIdentifier(name string) error {
	if f, tag := s.lookup(name); tag != nil {
		b, err := s.vm.Bytes(s.vm.Local(f, tag), tag.Mode.Size())
		if err != nil {
			return contextError(err.Error(), name)
		}
		return s.push(b, tag.Mode)
	}
	tag, ok := s.vm.Std.Table.Lookup(name)
	if !ok {
		return contextError(msgCannotFind, name)
	}
	r, ok := s.vm.Std.Routine(tag.Routine)
	if !ok {
		return contextError(msgCannotFind, name)
	}
	if r.Invoked {
		v, err := r.Fn(s.vm, nil)
		if err != nil {
			return err
		}
		return s.push(v, tag.Mode.Sub)
	}
	b := make([]byte, tag.Mode.Size())
	vm.PutProc(b, vm.Proc{Kind: vm.ProcStdenv, Body: uint32(tag.Routine)})
	return s.push(b, tag.Mode)
}
