package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Settings is the content of a monitor.yaml file.
type Settings struct {
	// Prompt is printed before every command line.
	Prompt string `yaml:"prompt,omitempty"`

	// Elems is the number of row elements shown before the summary.
	Elems int `yaml:"elems,omitempty"`

	// Lines is the number of source lines list shows by default.
	Lines int `yaml:"lines,omitempty"`

	// Frames is the default depth of stack, link and calls.
	Frames int `yaml:"frames,omitempty"`

	// MaxDepth is the number of reference levels the printer follows.
	MaxDepth int `yaml:"max_depth,omitempty"`

	// Confirm controls whether quit, restart and reset ask first.
	// Defaults to true.
	Confirm *bool `yaml:"confirm,omitempty"`

	// Journal is the sqlite file commands are recorded in. Empty disables
	// the journal; ":memory:" keeps it for the session only.
	Journal string `yaml:"journal,omitempty"`

	// StackSize and HeapSize size the program's storage, in bytes.
	StackSize int `yaml:"stack_size,omitempty"`
	HeapSize  int `yaml:"heap_size,omitempty"`
}

// DefaultSettings returns the settings used when no file is found.
func DefaultSettings() *Settings {
	s := &Settings{}
	s.setDefaults()
	return s
}

// LoadSettings reads and parses a monitor.yaml file.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings %s: %w", path, err)
	}
	return ParseSettings(data, path)
}

// ParseSettings parses monitor.yaml content. The path argument is used
// only for error messages.
func ParseSettings(data []byte, path string) (*Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := s.validate(path); err != nil {
		return nil, err
	}
	s.setDefaults()
	return &s, nil
}

// FindSettings searches for monitor.yaml starting from dir and walking up
// to parent directories. It returns an empty path and nil error when no
// file exists.
func FindSettings(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range SettingsFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (s *Settings) validate(path string) error {
	checks := []struct {
		name  string
		value int
	}{
		{"elems", s.Elems},
		{"lines", s.Lines},
		{"frames", s.Frames},
		{"max_depth", s.MaxDepth},
		{"stack_size", s.StackSize},
		{"heap_size", s.HeapSize},
	}
	for _, c := range checks {
		if c.value < 0 {
			return fmt.Errorf("%s: %s must not be negative (got %d)", path, c.name, c.value)
		}
	}
	if len(s.Prompt) > MaxLineLength {
		return fmt.Errorf("%s: prompt is longer than %d characters", path, MaxLineLength)
	}
	return nil
}

// setDefaults fills in default values for omitted fields.
func (s *Settings) setDefaults() {
	if s.Prompt == "" {
		s.Prompt = DefaultPrompt
	}
	if s.Elems == 0 {
		s.Elems = DefaultElems
	}
	if s.Lines == 0 {
		s.Lines = DefaultLines
	}
	if s.Frames == 0 {
		s.Frames = DefaultFrames
	}
	if s.MaxDepth == 0 {
		s.MaxDepth = DefaultMaxDepth
	}
	if s.Confirm == nil {
		confirm := true
		s.Confirm = &confirm
	}
}

// ShouldConfirm reports whether destructive commands ask first.
func (s *Settings) ShouldConfirm() bool {
	return s.Confirm == nil || *s.Confirm
}
