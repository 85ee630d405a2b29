package monitor

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// LineReader supplies command lines. ReadLine returns io.EOF when input
// ends.
type LineReader interface {
	ReadLine(prompt string) (string, error)
}

// ScannerReader reads lines from any reader, echoing the prompt to out.
// Hosts use it when input is not a terminal.
type ScannerReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func NewScannerReader(r io.Reader, out io.Writer) *ScannerReader {
	return &ScannerReader{scanner: bufio.NewScanner(r), out: out}
}

func (r *ScannerReader) ReadLine(prompt string) (string, error) {
	if r.out != nil {
		fmt.Fprint(r.out, prompt)
	}
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

// confirm asks a yes/no question until it gets an answer. End of input
// counts as no.
func (s *Session) confirm(question string) bool {
	if !s.settings.ShouldConfirm() {
		return true
	}
	for {
		line, err := s.in.ReadLine(question + " (yes|no): ")
		if err != nil {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
	}
}

// Completions returns the command names starting with prefix, for line
// editors with tab completion.
func Completions(prefix string) []string {
	var result []string
	for _, name := range commandNames() {
		if strings.HasPrefix(name, strings.ToLower(prefix)) {
			result = append(result, name)
		}
	}
	return result
}
