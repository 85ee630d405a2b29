package monitor

import (
	"io"
	"log"
	"os"

	"github.com/funvibe/monitor/internal/ast"
	"github.com/funvibe/monitor/internal/config"
	"github.com/funvibe/monitor/internal/lexer"
	"github.com/funvibe/monitor/internal/token"
	"github.com/funvibe/monitor/internal/typesystem"
	"github.com/funvibe/monitor/internal/vm"
)

// ResumeMode is the monitor's decision handed back to the paused program.
type ResumeMode int

const (
	ResumeContinue ResumeMode = iota
	ResumeStep                // stop at the next unit
	ResumeNext                // stop at the next unit not inside a deeper call
	ResumeFinish              // stop once the current procedure returns
	ResumeUntil               // stop at a given line
	ResumeTerminate
	ResumeRestart
)

func (r ResumeMode) String() string {
	switch r {
	case ResumeContinue:
		return "continue"
	case ResumeStep:
		return "step"
	case ResumeNext:
		return "next"
	case ResumeFinish:
		return "finish"
	case ResumeUntil:
		return "until"
	case ResumeTerminate:
		return "terminate"
	case ResumeRestart:
		return "restart"
	}
	return "resume"
}

// Options configures a Session.
type Options struct {
	Settings *config.Settings
	Input    LineReader
	Output   io.Writer
	// Trace receives a record of monitor activity; nil discards it.
	Trace   *log.Logger
	Journal *Journal
	// Height is the terminal height, used to bound heap listings.
	Height int
}

// Session is the monitor state for one program. It is bound to the VM
// that paused; other threads of the host need sessions of their own.
type Session struct {
	vm       *vm.VM
	modes    *typesystem.Graph
	settings *config.Settings
	in       LineReader
	out      io.Writer
	trace    *log.Logger
	journal  *Journal
	height   int

	// Evaluation stacks. Values are laid out back to back; modes[i]
	// describes the i-th entry.
	values []byte
	sp     int
	stack  []*typesystem.Mode
	msp    int
	lex    *lexer.Lexer
	tok    token.Token

	errors int
	tabs   int

	prompt       string
	elems        int
	maxDepth     int
	currentFrame int // frame number override, 0 for none
	node         *ast.Node

	breakpoints map[int]*Breakpoint
	temporary   map[int]bool
	watchpoint  string
	resume      ResumeMode
	breakLevel  int // procedure level for next
	finishFrame int // frame address for finish, -1 when unset
	fatal       error
}

func NewSession(m *vm.VM, opts Options) *Session {
	settings := opts.Settings
	if settings == nil {
		settings = config.DefaultSettings()
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	trace := opts.Trace
	if trace == nil {
		trace = log.New(io.Discard, "", 0)
	}
	in := opts.Input
	if in == nil {
		in = NewScannerReader(os.Stdin, out)
	}
	height := opts.Height
	if height <= 0 {
		height = 24
	}
	s := &Session{
		vm:          m,
		modes:       m.Modes,
		settings:    settings,
		in:          in,
		out:         out,
		trace:       trace,
		journal:     opts.Journal,
		height:      height,
		values:      make([]byte, config.ValueStackSize),
		stack:       make([]*typesystem.Mode, config.ModeStackSize),
		breakpoints: make(map[int]*Breakpoint),
		temporary:   make(map[int]bool),
		finishFrame: -1,
	}
	s.applySettings()
	m.SetDebugger(s)
	return s
}

func (s *Session) applySettings() {
	s.prompt = s.settings.Prompt
	s.elems = s.settings.Elems
	s.maxDepth = s.settings.MaxDepth
	s.currentFrame = 0
}

// Errors is the number of errors reported so far.
func (s *Session) Errors() int {
	return s.errors
}

// StackPointers returns the value and mode stack pointers.
func (s *Session) StackPointers() (sp, msp int) {
	return s.sp, s.msp
}

// SetNode makes n the unit the monitor reports as current. Pause sets it;
// hosts that inspect a program without running it can set it directly.
func (s *Session) SetNode(n *ast.Node) {
	s.node = n
}
