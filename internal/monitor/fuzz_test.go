package monitor

import (
	"strings"
	"testing"
)

// FuzzEvaluate checks that no expression text panics the evaluator or
// leaves anything on its stacks.
func FuzzEvaluate(f *testing.F) {
	f.Add("3 + 4 * 2")
	f.Add("x OF p := 3")
	f.Add("v[n] :=: v[1]")
	f.Add("REF INT (ri)")
	f.Add("sqrt (ABS -16.0)")
	f.Add("\"abc\" + s")
	f.Add("((((")

	f.Fuzz(func(t *testing.T, expr string) {
		if len(expr) > 256 || strings.ContainsAny(expr, "\n\r") {
			return
		}
		pauseAt(t, 11, func(f *fixture) {
			mark := f.vm.ScratchMark()
			f.s.Evaluate(expr)
			if sp, msp := f.s.StackPointers(); sp != 0 || msp != 0 {
				t.Fatalf("Evaluate(%q) left sp=%d msp=%d", expr, sp, msp)
			}
			if f.vm.ScratchMark() != mark {
				t.Fatalf("Evaluate(%q) left transient values", expr)
			}
		})
	})
}

// FuzzExecute feeds arbitrary command lines to a paused session.
func FuzzExecute(f *testing.F) {
	f.Add("breakpoint 11 if n > 1")
	f.Add("list 1 100")
	f.Add("heap 0")
	f.Add("frame 9")
	f.Add("elems -1")
	f.Add("prompt \"")
	f.Add("do do do echo x")

	f.Fuzz(func(t *testing.T, line string) {
		if len(line) > 256 || strings.ContainsAny(line, "\n\r") {
			return
		}
		pauseAt(t, 11, func(f *fixture) {
			f.s.Execute(line)
			if sp, msp := f.s.StackPointers(); sp != 0 || msp != 0 {
				t.Fatalf("Execute(%q) left sp=%d msp=%d", line, sp, msp)
			}
		})
	})
}
