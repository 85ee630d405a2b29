package monitor

import (
	"bytes"
	"strings"
	"testing"

	"github.com/funvibe/monitor/internal/config"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name, word string
		want       bool
	}{
		{"EXamine", "ex", true},
		{"EXamine", "EXA", true},
		{"EXamine", "examine", true},
		{"EXamine", "e", false},
		{"EXamine", "examines", false},
		{"BREakpoint", "br", false},
		{"BREakpoint", "break", true},
		{"X", "x", true},
		{"?", "?", true},
		{"QUIT", "qui", false},
	}
	for _, tt := range tests {
		if got := match(tt.name, tt.word); got != tt.want {
			t.Errorf("match(%q, %q) = %v, want %v", tt.name, tt.word, got, tt.want)
		}
	}
}

func TestLookupCommand(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		{"e", "Evaluate"},
		{"ex", "EXamine"},
		{"exit", "EXIT"},
		{"co", "COntinue"},
		{"ca", "CAlls"},
		{"n", "Next"},
		{"s", ""},
		{"st", "STep"},
		{"sta", "STAck"},
		{"bt", "BT"},
		{"rest", ""},
		{"restart", "RESTART"},
		{"res", "RESume"},
	}
	for _, tt := range tests {
		cmd, ok := lookupCommand(tt.word)
		got := ""
		if ok {
			got = cmd.name
		}
		if got != tt.want {
			t.Errorf("lookupCommand(%q) = %q, want %q", tt.word, got, tt.want)
		}
	}
}

func TestUnrecognisedCommand(t *testing.T) {
	f := newFixture(t, "")
	out := f.execute(t, "contnue")
	want := "monitor error: unrecognised command (contnue)\nDid you mean \"continue\"?\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
	if f.s.Errors() != 1 {
		t.Errorf("Errors() = %d", f.s.Errors())
	}
}

func TestArgumentChecks(t *testing.T) {
	f := newFixture(t, "")
	tests := []struct {
		line string
		want string
	}{
		{"continue now", "no argument allowed (continue)"},
		{"echo", "argument expected (echo text)"},
		{"elems 0", "invalid number (0)"},
		{"elems many", "invalid number (many)"},
		{"stack lots", "invalid number (lots)"},
		{"list 1 2 3", "too many arguments (1 2 3)"},
		{"do do echo hi", "cannot nest do"},
		{"prompt bare", "string expected (bare)"},
		{"until x", "invalid number (x)"},
		{"apropos zzzz", "no help for (zzzz)"},
		{"frame x", "invalid frame number"},
		{"echo " + strings.Repeat("x", config.MaxLineLength), "line too long"},
	}
	for _, tt := range tests {
		out := f.execute(t, tt.line)
		if !strings.Contains(out, "monitor error: "+tt.want) {
			t.Errorf("%q printed %q, want %q", tt.line, out, tt.want)
		}
	}
}

func TestSimpleCommands(t *testing.T) {
	f := newFixture(t, "")
	if out := f.execute(t, "echo hello   world"); out != "hello   world\n" {
		t.Errorf("echo printed %q", out)
	}
	if out := f.execute(t, "do echo nested"); out != "nested\n" {
		t.Errorf("do printed %q", out)
	}
	f.execute(t, `prompt "a68> "`)
	if f.s.prompt != "a68> " {
		t.Errorf("prompt = %q", f.s.prompt)
	}
	f.execute(t, `prompt ">"`)
	if f.s.prompt != ">" {
		t.Errorf("prompt = %q", f.s.prompt)
	}
	f.execute(t, "elems 5")
	f.execute(t, "reset")
	if f.s.prompt != config.DefaultPrompt || f.s.elems != config.DefaultElems {
		t.Errorf("reset kept prompt=%q elems=%d", f.s.prompt, f.s.elems)
	}
	if out := f.execute(t, "help"); !strings.HasPrefix(out, "Monitor commands") || !strings.Contains(out, "breakpoint [n [if expr") {
		t.Errorf("help printed:\n%s", out)
	}
	if out := f.execute(t, "apropos heap"); !strings.Contains(out, "heap [bytes]") || strings.Contains(out, "echo text") {
		t.Errorf("apropos heap printed:\n%s", out)
	}
	if out := f.execute(t, "? watchpoint"); !strings.Contains(out, "breakpoint [n") {
		t.Errorf("? watchpoint printed:\n%s", out)
	}
	if out := f.execute(t, "history"); out != "No command journal\n" {
		t.Errorf("history printed %q", out)
	}
}

func TestResumeCommands(t *testing.T) {
	f := newFixture(t, "")
	tests := []struct {
		line string
		want ResumeMode
	}{
		{"continue", ResumeContinue},
		{"resume", ResumeContinue},
		{"step", ResumeStep},
		{"next", ResumeNext},
		{"finish", ResumeFinish},
		{"out", ResumeFinish},
		{"until 15", ResumeUntil},
		{"quit", ResumeTerminate},
		{"exit", ResumeTerminate},
		{"hx", ResumeTerminate},
		{"restart", ResumeRestart},
		{"rerun", ResumeRestart},
		{"do continue", ResumeContinue},
	}
	for _, tt := range tests {
		mode, resume := f.s.Execute(tt.line)
		if !resume || mode != tt.want {
			t.Errorf("Execute(%q) = %v, %v; want %v, true", tt.line, mode, resume, tt.want)
		}
	}
	for _, line := range []string{"", "   ", "echo x", "where", "breakpoint"} {
		if _, resume := f.s.Execute(line); resume {
			t.Errorf("Execute(%q) resumed", line)
		}
	}
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	f := newFixture(t, "")
	yes := true
	f.s.settings.Confirm = &yes
	f.s.in = NewScannerReader(strings.NewReader("maybe\nYes\n"), &out)
	if !f.s.confirm("Terminate program") {
		t.Errorf("confirm = false after yes")
	}
	if n := strings.Count(out.String(), "Terminate program (yes|no): "); n != 2 {
		t.Errorf("asked %d times, want 2: %q", n, out.String())
	}

	f.s.in = NewScannerReader(strings.NewReader("no\n"), &out)
	if f.s.confirm("Restart program") {
		t.Errorf("confirm = true after no")
	}
	f.s.in = NewScannerReader(strings.NewReader(""), &out)
	if f.s.confirm("Reset monitor") {
		t.Errorf("confirm = true at end of input")
	}

	f.s.in = NewScannerReader(strings.NewReader("n\n"), &out)
	if _, resume := f.s.Execute("quit"); resume {
		t.Errorf("quit resumed after no")
	}
}

func TestCompletions(t *testing.T) {
	got := Completions("br")
	if len(got) != 1 || got[0] != "breakpoint" {
		t.Errorf("Completions(br) = %v", got)
	}
	got = Completions("RES")
	want := map[string]bool{"resume": true, "restart": true, "reset": true}
	if len(got) != len(want) {
		t.Fatalf("Completions(RES) = %v", got)
	}
	for _, name := range got {
		if !want[name] {
			t.Errorf("unexpected completion %q", name)
		}
	}
}

func TestExamine(t *testing.T) {
	pauseAt(t, 11, func(f *fixture) {
		out := f.execute(t, "examine n")
		if want := "Stack frame 2 at frame(214), level=2\n  INT n 1\n"; out != want {
			t.Errorf("examine n =\n%s\nwant\n%s", out, want)
		}
		out = f.execute(t, "examine i")
		if want := "Stack frame 1 at frame(32), level=1\n  REF INT i refers to frame(74)\n    INT 0\n"; out != want {
			t.Errorf("examine i =\n%s\nwant\n%s", out, want)
		}
		out = f.execute(t, "ex nosuch")
		if out != "monitor error: tag not found (nosuch)\n" {
			t.Errorf("examine nosuch = %q", out)
		}
	})
}

func TestStackCommands(t *testing.T) {
	pauseAt(t, 11, func(f *fixture) {
		out := f.execute(t, "stack")
		for _, want := range []string{
			"   9     PROC twice = (INT n) INT:\n",
			"Stack frame 2 at frame(214), level=2, size=50 bytes\n",
			"Dynamic link=frame(32), static link=frame(32)\n",
			"Procedure frame=yes\n",
			"  INT n 1\n  INT k uninitialised value\n",
			"Stack frame 1 at frame(32), level=1, size=182 bytes\n",
			"Dynamic link=frame(0), static link=frame(0)\n",
			"Procedure frame=no\n",
			"  PROC (INT) INT twice line 9, environ at frame(32)\n",
			"  LOC [] INT, 3 element(s)\n",
			"  LOC POINT\n    INT x 1\n    REAL y 2.5\n",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("stack lacks %q:\n%s", want, out)
			}
		}
		if strings.Index(out, "Stack frame 2") > strings.Index(out, "Stack frame 1") {
			t.Errorf("frames out of order:\n%s", out)
		}

		out = f.execute(t, "calls")
		if !strings.Contains(out, "Stack frame 2") || strings.Contains(out, "Stack frame 1") {
			t.Errorf("calls:\n%s", out)
		}
		out = f.execute(t, "bt 1")
		if strings.Count(out, "Stack frame") != 1 {
			t.Errorf("bt 1:\n%s", out)
		}
		out = f.execute(t, "link")
		if !strings.Contains(out, "Stack frame 2") || !strings.Contains(out, "Stack frame 1") {
			t.Errorf("link:\n%s", out)
		}

		out = f.execute(t, "frame")
		if !strings.HasPrefix(out, "   9     PROC twice") {
			t.Errorf("frame:\n%s", out)
		}
		out = f.execute(t, "frame 1")
		if !strings.Contains(out, "Stack frame 1 at frame(32)") {
			t.Errorf("frame 1:\n%s", out)
		}
		if out := f.execute(t, "frame"); !strings.Contains(out, "Stack frame 1 at frame(32)") {
			t.Errorf("frame after frame 1:\n%s", out)
		}
		if out := f.execute(t, "frame 3"); out != "monitor error: invalid frame number\n" {
			t.Errorf("frame 3 = %q", out)
		}
	})
}

func TestHeapCommand(t *testing.T) {
	pauseAt(t, 11, func(f *fixture) {
		out := f.execute(t, "heap 1000")
		want := "size=4096 available=3934\n" +
			"heap(0x10070+50) STRING\n" +
			"heap(0x1004d+35) STRING\n" +
			"heap(0x1001b+50) [] INT\n" +
			"heap(0x10000+27) [] INT\n" +
			"printed 4 out of 4 handles\n"
		if out != want {
			t.Errorf("heap 1000 =\n%s\nwant\n%s", out, want)
		}
		out = f.execute(t, "heap 100")
		if !strings.HasSuffix(out, "printed 2 out of 4 handles\n") {
			t.Errorf("heap 100 =\n%s", out)
		}
		f.s.height = 5
		out = f.execute(t, "heap")
		if !strings.HasSuffix(out, "printed 1 out of 4 handles\n") {
			t.Errorf("heap with a short terminal =\n%s", out)
		}
	})
}

func TestSourceCommands(t *testing.T) {
	pauseAt(t, 11, func(f *fixture) {
		out := f.execute(t, "list 1")
		want := "   10     BEGIN\n>  11        INT k = n * 2;\n   12        k\n"
		if out != want {
			t.Errorf("list 1 =\n%q\nwant\n%q", out, want)
		}
		out = f.execute(t, "list 17 40")
		if out != "   17     print ((i, newline))\n   18  END\n" {
			t.Errorf("list 17 40 = %q", out)
		}
		out = f.execute(t, "where")
		if out != "  11        INT k = n * 2;\nUnit 10 (declaration), line 11\n" {
			t.Errorf("where = %q", out)
		}
		f.execute(t, "breakpoint 11")
		out = f.execute(t, "xref")
		for _, want := range []string{
			"Unit 10 (declaration), procedure level 1, interruptible, breakpoint\n",
			"  Identifier INT k, offset 9\n",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("xref lacks %q:\n%s", want, out)
			}
		}
		if out := f.execute(t, "xref 10"); !strings.Contains(out, "No units in line 10") {
			t.Errorf("xref 10 = %q", out)
		}
		out = f.execute(t, "sizes")
		for _, want := range []string{"Frame stack pointer=264 ", "Heap handles=4\n", "Monitor value stack=0/"} {
			if !strings.Contains(out, want) {
				t.Errorf("sizes lacks %q:\n%s", want, out)
			}
		}
	})
}
