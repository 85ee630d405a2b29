package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/funvibe/monitor/internal/config"
	"github.com/funvibe/monitor/internal/monitor"
	"github.com/funvibe/monitor/internal/sample"
	"github.com/funvibe/monitor/internal/vm"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

type options struct {
	settingsPath string
	tracePath    string
	trace        bool
	stop         bool
	breaks       []int
	help         bool
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: monitor [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Runs the sample program under the interactive monitor.")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  -config <file>   settings file (default: monitor.yaml, searched upwards)")
	fmt.Fprintln(w, "  -break <line>    stop at line; may be repeated")
	fmt.Fprintln(w, "  -stop            pause before the first unit")
	fmt.Fprintln(w, "  -trace [file]    log monitor activity to file, or stderr")
	fmt.Fprintln(w, "  -list            print the program and exit")
	fmt.Fprintln(w, "  -help            show this help")
}

func parseArgs(args []string) (*options, bool, error) {
	opts := &options{}
	list := false
	for i := 0; i < len(args); i++ {
		arg := strings.TrimPrefix(args[i], "-")
		value := func() (string, error) {
			if i+1 >= len(args) {
				return "", fmt.Errorf("%s needs an argument", args[i])
			}
			i++
			return args[i], nil
		}
		switch arg {
		case "-config", "config":
			v, err := value()
			if err != nil {
				return nil, false, err
			}
			opts.settingsPath = v
		case "-break", "break", "b":
			v, err := value()
			if err != nil {
				return nil, false, err
			}
			line, err := strconv.Atoi(v)
			if err != nil {
				return nil, false, fmt.Errorf("invalid line number %q", v)
			}
			opts.breaks = append(opts.breaks, line)
		case "-trace", "trace":
			opts.trace = true
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
				opts.tracePath = args[i]
			}
		case "-stop", "stop":
			opts.stop = true
		case "-list", "list":
			list = true
		case "-help", "help", "h":
			opts.help = true
		default:
			return nil, false, fmt.Errorf("unknown option %s", args[i])
		}
	}
	return opts, list, nil
}

func loadSettings(path string) (*config.Settings, error) {
	if path == "" {
		found, err := config.FindSettings(".")
		if err != nil {
			return nil, err
		}
		if found == "" {
			return config.DefaultSettings(), nil
		}
		path = found
	}
	return config.LoadSettings(path)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func terminalHeight() int {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return 0
	}
	_, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return height
}

func main() {
	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	opts, list, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		usage(os.Stderr)
		os.Exit(2)
	}
	if opts.help {
		usage(os.Stdout)
		return
	}
	if list {
		fmt.Print(sample.Source)
		return
	}
	os.Exit(run(opts))
}

func run(opts *options) int {
	settings, err := loadSettings(opts.settingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	trace := log.New(io.Discard, "", 0)
	if opts.trace {
		w := io.Writer(os.Stderr)
		if opts.tracePath != "" {
			f, err := os.Create(opts.tracePath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return 1
			}
			defer f.Close()
			w = f
		}
		trace = log.New(w, "monitor: ", log.Ltime|log.Lmicroseconds)
	}

	var journal *monitor.Journal
	if settings.Journal != "" {
		journal, err = monitor.OpenJournal(settings.Journal)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		defer journal.Close()
	}

	var input monitor.LineReader
	if isTerminal(os.Stdin) && isTerminal(os.Stdout) {
		editor := newLineEditor()
		defer editor.Close()
		input = editor
	} else {
		input = monitor.NewScannerReader(os.Stdin, os.Stdout)
	}

	ctx := context.Background()
	breaks := make([]monitor.Breakpoint, 0, len(opts.breaks))
	for _, line := range opts.breaks {
		breaks = append(breaks, monitor.Breakpoint{Line: line})
	}
	watch := ""

	for {
		m := sample.New().NewVM(vm.Options{StackSize: settings.StackSize, HeapSize: settings.HeapSize})
		s := monitor.NewSession(m, monitor.Options{
			Settings: settings,
			Input:    input,
			Output:   os.Stdout,
			Trace:    trace,
			Journal:  journal,
			Height:   terminalHeight(),
		})
		for _, bp := range breaks {
			if err := s.SetBreakpoint(bp.Line, bp.Guard); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		}
		if watch != "" {
			s.SetWatchpoint(watch)
		}
		if opts.stop {
			m.RequestInterrupt()
		}

		err := runInterruptible(ctx, m)
		switch {
		case err == nil:
			return 0
		case errors.Is(err, vm.ErrRestart):
			// Breakpoints survive a restart; the program state does not.
			breaks = s.Breakpoints()
			watch = s.Watchpoint()
			trace.Printf("restarting with %d breakpoint(s)", len(breaks))
			continue
		case errors.Is(err, vm.ErrTerminated):
			return 0
		}
		var re *vm.RuntimeError
		if !errors.As(err, &re) || !re.Reported {
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}
}

// runInterruptible runs m with SIGINT redirected to the monitor: the
// program pauses at its next unit instead of exiting.
func runInterruptible(ctx context.Context, m *vm.VM) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-sigs:
				m.RequestInterrupt()
			case <-done:
				return
			}
		}
	}()
	return m.Run(ctx)
}
