package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/funvibe/monitor/internal/config"
	"github.com/funvibe/monitor/internal/monitor"
	"github.com/peterh/liner"
)

// historyFile is kept in the user's home directory between runs.
const historyFile = ".monitor_history"

// lineEditor reads commands from a terminal with history and completion.
type lineEditor struct {
	state   *liner.State
	history string
}

func newLineEditor() *lineEditor {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetTabCompletionStyle(liner.TabPrints)
	state.SetCompleter(complete)

	e := &lineEditor{state: state}
	if home, err := os.UserHomeDir(); err == nil {
		e.history = filepath.Join(home, historyFile)
		if f, err := os.Open(e.history); err == nil {
			state.ReadHistory(f)
			f.Close()
		}
	}
	return e
}

// complete offers command names for the first word of the line only.
func complete(line string) []string {
	if strings.ContainsAny(strings.TrimLeft(line, " "), " \t") {
		return nil
	}
	lead := line[:len(line)-len(strings.TrimLeft(line, " "))]
	var result []string
	for _, name := range monitor.Completions(strings.TrimSpace(line)) {
		result = append(result, lead+name)
	}
	return result
}

func (e *lineEditor) ReadLine(prompt string) (string, error) {
	line, err := e.state.Prompt(prompt)
	switch {
	case errors.Is(err, liner.ErrPromptAborted):
		// Ctrl-C at the prompt discards the line.
		return "", nil
	case err != nil:
		return "", io.EOF
	}
	if len(line) > config.MaxLineLength {
		line = line[:config.MaxLineLength]
	}
	if strings.TrimSpace(line) != "" {
		e.state.AppendHistory(line)
	}
	return line, nil
}

func (e *lineEditor) Close() error {
	if e.history != "" {
		if f, err := os.Create(e.history); err == nil {
			e.state.WriteHistory(f)
			f.Close()
		}
	}
	return e.state.Close()
}
