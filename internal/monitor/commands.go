package monitor

import (
	"sort"
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/funvibe/monitor/internal/config"
	"github.com/funvibe/monitor/internal/lexer"
	"github.com/funvibe/monitor/internal/token"
	"github.com/funvibe/monitor/internal/vm"
)

type argKind int

const (
	noArg argKind = iota
	needArg
	optArg
)

// handler runs a command. resume is true when the program continues.
type handler func(s *Session, arg string, hasArg bool) (mode ResumeMode, resume bool, err error)

// command names carry their minimum abbreviation in capitals: "EXamine"
// accepts "ex", "exa" and so on up to "examine".
type command struct {
	name  string
	arg   argKind
	usage string
	help  string
	run   handler
}

var commands []command

func init() {
	commands = []command{
		{"APropos", optArg, "apropos [topic]", "show commands related to topic", cmdHelp},
		{"HELp", optArg, "help [topic]", "show commands related to topic", cmdHelp},
		{"?", optArg, "? [topic]", "same as help", cmdHelp},
		{"BREakpoint", optArg, "breakpoint [n [if expr | clear] | list | clear [all|breakpoints|watchpoint] | watch expr]", "set, clear or list breakpoints and the watchpoint", cmdBreakpoint},
		{"CAlls", optArg, "calls [n]", "print procedure frames on the call stack", cmdCalls},
		{"COntinue", noArg, "continue", "continue execution", cmdContinue},
		{"RESume", noArg, "resume", "same as continue", cmdContinue},
		{"DO", needArg, "do command", "run a monitor command", cmdDo},
		{"ECHO", needArg, "echo text", "print text", cmdEcho},
		{"ELems", needArg, "elems n", "show at most n elements of a row", cmdElems},
		{"Evaluate", needArg, "evaluate expr", "evaluate expression and print its value", cmdEvaluate},
		{"X", needArg, "x expr", "same as evaluate", cmdEvaluate},
		{"EXamine", needArg, "examine name", "print the value of name in every frame declaring it", cmdExamine},
		{"EXIT", noArg, "exit", "terminate the program", cmdQuit},
		{"HX", noArg, "hx", "same as exit", cmdQuit},
		{"QUIT", noArg, "quit", "same as exit", cmdQuit},
		{"FINish", noArg, "finish", "continue until the current procedure returns", cmdFinish},
		{"OUT", noArg, "out", "same as finish", cmdFinish},
		{"Frame", optArg, "frame [n]", "print the current frame, or select frame n; frame 0 resets", cmdFrame},
		{"HEAP", optArg, "heap [bytes]", "print heap blocks up to a number of bytes", cmdHeap},
		{"HIstory", optArg, "history [n]", "print the last n commands of the journal", cmdHistory},
		{"LINk", optArg, "link [n]", "print n frames following static links", cmdLink},
		{"LISt", optArg, "list [n [m]]", "list source lines around the current line, or lines n to m", cmdList},
		{"Next", noArg, "next", "continue to the next unit, stepping over procedure calls", cmdNext},
		{"PROmpt", needArg, "prompt \"text\"", "set the monitor prompt", cmdPrompt},
		{"RERUN", noArg, "rerun", "same as restart", cmdRestart},
		{"RESTART", noArg, "restart", "restart the program from the start", cmdRestart},
		{"RESET", noArg, "reset", "clear breakpoints and the watchpoint and restore settings", cmdReset},
		{"SIzes", noArg, "sizes", "print storage usage", cmdSizes},
		{"STAck", optArg, "stack [n]", "print n frames following dynamic links", cmdStack},
		{"BAcktrace", optArg, "backtrace [n]", "same as stack", cmdStack},
		{"BT", optArg, "bt [n]", "same as stack", cmdStack},
		{"STep", noArg, "step", "continue to the next unit", cmdStep},
		{"UNtil", needArg, "until n", "continue until line n", cmdUntil},
		{"WHERE", noArg, "where", "print the current unit", cmdWhere},
		{"XRef", optArg, "xref [n]", "print units and declarations of line n", cmdXref},
	}
}

// match tells whether word abbreviates name: it must be a prefix of name
// at least as long as name's capitalised part.
func match(name, word string) bool {
	min := 0
	for _, r := range name {
		if !unicode.IsUpper(r) && unicode.IsLetter(r) {
			break
		}
		min++
	}
	return len(word) >= min && strings.HasPrefix(strings.ToLower(name), strings.ToLower(word))
}

func lookupCommand(word string) (*command, bool) {
	for i := range commands {
		if match(commands[i].name, word) {
			return &commands[i], true
		}
	}
	return nil, false
}

// commandNames returns the full lower-case command names.
func commandNames() []string {
	names := make([]string, len(commands))
	for i, c := range commands {
		names[i] = strings.ToLower(c.name)
	}
	return names
}

// suggest returns the command name closest to word.
func suggest(word string) string {
	ranks := fuzzy.RankFindFold(word, commandNames())
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}

// Execute runs one command line. It reports whether the program resumes
// and how.
func (s *Session) Execute(line string) (ResumeMode, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return ResumeContinue, false
	}
	if len(line) > config.MaxLineLength {
		s.report(errorf("line too long"))
		return ResumeContinue, false
	}
	if s.journal != nil {
		if err := s.journal.Record(s.currentLine(), line); err != nil {
			s.trace.Printf("journal: %v", err)
		}
	}
	word, arg := line, ""
	if i := strings.IndexFunc(line, unicode.IsSpace); i >= 0 {
		word, arg = line[:i], strings.TrimSpace(line[i:])
	}
	cmd, ok := lookupCommand(word)
	if !ok {
		s.report(contextError(msgUnrecognised, word))
		if hint := suggest(word); hint != "" {
			s.print("Did you mean %q?\n", hint)
		}
		return ResumeContinue, false
	}
	hasArg := arg != ""
	switch {
	case cmd.arg == needArg && !hasArg:
		s.report(contextError("argument expected", cmd.usage))
		return ResumeContinue, false
	case cmd.arg == noArg && hasArg:
		s.report(contextError("no argument allowed", cmd.usage))
		return ResumeContinue, false
	}
	s.trace.Printf("command %s %q", strings.ToLower(cmd.name), arg)
	mode, resume, err := cmd.run(s, arg, hasArg)
	if err != nil {
		s.report(err)
		if vm.IsFatal(err) {
			s.fatal = err
			return ResumeTerminate, true
		}
		return ResumeContinue, false
	}
	return mode, resume
}

func stay(err error) (ResumeMode, bool, error) {
	return ResumeContinue, false, err
}

func (s *Session) count(arg string, hasArg bool, fallback int) (int, error) {
	if !hasArg {
		return fallback, nil
	}
	n, ok := parseCount(arg)
	if !ok {
		return 0, contextError("invalid number", arg)
	}
	return n, nil
}

func cmdHelp(s *Session, arg string, hasArg bool) (ResumeMode, bool, error) {
	if !hasArg {
		s.help()
		return stay(nil)
	}
	return stay(s.apropos(arg))
}

func cmdBreakpoint(s *Session, arg string, hasArg bool) (ResumeMode, bool, error) {
	if !hasArg {
		s.listBreakpoints()
		return stay(nil)
	}
	fields := strings.Fields(arg)
	switch strings.ToLower(fields[0]) {
	case "list":
		s.listBreakpoints()
		return stay(nil)
	case "clear":
		what := "all"
		if len(fields) > 1 {
			what = strings.ToLower(fields[1])
		}
		switch what {
		case "all":
			s.ClearAllBreakpoints()
		case "breakpoints":
			s.breakpoints = make(map[int]*Breakpoint)
		case "watchpoint":
			s.ClearWatchpoint()
		default:
			return stay(contextError("invalid breakpoint command", arg))
		}
		return stay(nil)
	case "watch":
		expr := strings.TrimSpace(arg[len(fields[0]):])
		if expr == "" {
			return stay(contextError("argument expected", "breakpoint watch expr"))
		}
		s.SetWatchpoint(expr)
		return stay(nil)
	}
	line, ok := parseCount(fields[0])
	if !ok {
		return stay(contextError("invalid breakpoint command", arg))
	}
	rest := strings.TrimSpace(arg[len(fields[0]):])
	switch {
	case rest == "":
		return stay(s.SetBreakpoint(line, ""))
	case strings.EqualFold(rest, "clear"):
		s.ClearBreakpoint(line)
		return stay(nil)
	case len(fields) > 2 && strings.EqualFold(fields[1], "if"):
		guard := strings.TrimSpace(rest[len(fields[1]):])
		return stay(s.SetBreakpoint(line, guard))
	}
	return stay(contextError("invalid breakpoint command", arg))
}

func cmdCalls(s *Session, arg string, hasArg bool) (ResumeMode, bool, error) {
	n, err := s.count(arg, hasArg, s.settings.Frames)
	if err == nil {
		s.walkStack(ProcLink, n)
	}
	return stay(err)
}

func cmdStack(s *Session, arg string, hasArg bool) (ResumeMode, bool, error) {
	n, err := s.count(arg, hasArg, s.settings.Frames)
	if err == nil {
		s.walkStack(DynamicLink, n)
	}
	return stay(err)
}

func cmdLink(s *Session, arg string, hasArg bool) (ResumeMode, bool, error) {
	n, err := s.count(arg, hasArg, s.settings.Frames)
	if err == nil {
		s.walkStack(StaticLink, n)
	}
	return stay(err)
}

func cmdContinue(s *Session, _ string, _ bool) (ResumeMode, bool, error) {
	return ResumeContinue, true, nil
}

func cmdStep(s *Session, _ string, _ bool) (ResumeMode, bool, error) {
	s.markAll()
	return ResumeStep, true, nil
}

func cmdNext(s *Session, _ string, _ bool) (ResumeMode, bool, error) {
	s.markAll()
	s.breakLevel = 0
	if s.node != nil {
		s.breakLevel = s.node.ProcLevel
	}
	return ResumeNext, true, nil
}

func cmdFinish(s *Session, _ string, _ bool) (ResumeMode, bool, error) {
	s.finishFrame = s.vm.FramePointer()
	for f := s.frameAt(s.vm.FramePointer()); f != nil && f.Addr != 0; f = s.frameAt(f.DynamicLink) {
		if f.Proc {
			s.finishFrame = f.Addr
			break
		}
	}
	s.markAll()
	return ResumeFinish, true, nil
}

func cmdUntil(s *Session, arg string, _ bool) (ResumeMode, bool, error) {
	line, ok := parseCount(arg)
	if !ok {
		return stay(contextError("invalid number", arg))
	}
	if err := s.markLine(line); err != nil {
		return stay(err)
	}
	return ResumeUntil, true, nil
}

func cmdDo(s *Session, arg string, _ bool) (ResumeMode, bool, error) {
	if word := strings.Fields(arg)[0]; match("DO", word) {
		return stay(errorf("cannot nest do"))
	}
	mode, resume := s.Execute(arg)
	return mode, resume, nil
}

func cmdEcho(s *Session, arg string, _ bool) (ResumeMode, bool, error) {
	s.print("%s\n", arg)
	return stay(nil)
}

func cmdElems(s *Session, arg string, _ bool) (ResumeMode, bool, error) {
	n, ok := parseCount(arg)
	if !ok || n == 0 {
		return stay(contextError("invalid number", arg))
	}
	s.elems = n
	return stay(nil)
}

func cmdEvaluate(s *Session, arg string, _ bool) (ResumeMode, bool, error) {
	return stay(s.printValue(arg))
}

func cmdExamine(s *Session, arg string, _ bool) (ResumeMode, bool, error) {
	return stay(s.examine(arg))
}

func cmdQuit(s *Session, _ string, _ bool) (ResumeMode, bool, error) {
	if s.confirm("Terminate program") {
		return ResumeTerminate, true, nil
	}
	return stay(nil)
}

func cmdRestart(s *Session, _ string, _ bool) (ResumeMode, bool, error) {
	if s.confirm("Restart program") {
		return ResumeRestart, true, nil
	}
	return stay(nil)
}

func cmdReset(s *Session, _ string, _ bool) (ResumeMode, bool, error) {
	if s.confirm("Reset monitor") {
		s.ClearAllBreakpoints()
		s.applySettings()
	}
	return stay(nil)
}

func cmdFrame(s *Session, arg string, hasArg bool) (ResumeMode, bool, error) {
	return stay(s.frameCommand(arg, hasArg))
}

func cmdHeap(s *Session, arg string, hasArg bool) (ResumeMode, bool, error) {
	budget, err := s.count(arg, hasArg, s.vm.Heap().Capacity())
	if err != nil {
		return stay(err)
	}
	count := s.height - 4
	if count < 1 {
		count = 1
	}
	s.dumpHeap(budget, count)
	return stay(nil)
}

func cmdHistory(s *Session, arg string, hasArg bool) (ResumeMode, bool, error) {
	n, err := s.count(arg, hasArg, config.DefaultHistory)
	if err != nil {
		return stay(err)
	}
	if s.journal == nil {
		s.print("No command journal\n")
		return stay(nil)
	}
	entries, err := s.journal.Recent(n)
	if err != nil {
		return stay(errorf("journal: %v", err))
	}
	for _, e := range entries {
		s.print("%4d  %s  line %d  %s\n", e.Seq, e.At.Format("15:04:05"), e.Line, e.Command)
	}
	return stay(nil)
}

func cmdList(s *Session, arg string, hasArg bool) (ResumeMode, bool, error) {
	fields := strings.Fields(arg)
	switch len(fields) {
	case 0, 1:
		n, err := s.count(arg, hasArg, s.settings.Lines)
		if err != nil {
			return stay(err)
		}
		cur := s.currentLine()
		if cur == 0 {
			cur = 1
		}
		s.listLines(cur-n, cur+n)
	case 2:
		from, ok1 := parseCount(fields[0])
		to, ok2 := parseCount(fields[1])
		if !ok1 || !ok2 {
			return stay(contextError("invalid number", arg))
		}
		s.listLines(from, to)
	default:
		return stay(contextError("too many arguments", arg))
	}
	return stay(nil)
}

func cmdPrompt(s *Session, arg string, _ bool) (ResumeMode, bool, error) {
	tok := lexer.New(arg).NextToken()
	switch tok.Type {
	case token.STRING:
		s.prompt = tok.Literal.(string)
	case token.CHAR:
		s.prompt = string(tok.Literal.(rune))
	default:
		return stay(contextError("string expected", arg))
	}
	return stay(nil)
}

func cmdSizes(s *Session, _ string, _ bool) (ResumeMode, bool, error) {
	s.sizes()
	return stay(nil)
}

func cmdWhere(s *Session, _ string, _ bool) (ResumeMode, bool, error) {
	s.where()
	return stay(nil)
}

func cmdXref(s *Session, arg string, hasArg bool) (ResumeMode, bool, error) {
	n, err := s.count(arg, hasArg, s.currentLine())
	if err == nil {
		s.xref(n)
	}
	return stay(err)
}
