package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseSettings_Defaults(t *testing.T) {
	s, err := ParseSettings([]byte("journal: \":memory:\"\n"), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Prompt != DefaultPrompt {
		t.Errorf("prompt = %q", s.Prompt)
	}
	if s.Elems != DefaultElems || s.Frames != DefaultFrames || s.MaxDepth != DefaultMaxDepth {
		t.Errorf("defaults not applied: %+v", s)
	}
	if !s.ShouldConfirm() {
		t.Errorf("confirm should default to true")
	}
	if s.Journal != ":memory:" {
		t.Errorf("journal = %q", s.Journal)
	}
}

func TestParseSettings_Values(t *testing.T) {
	yaml := `
prompt: "a68> "
elems: 5
lines: 7
frames: 2
max_depth: 1
confirm: false
stack_size: 65536
`
	s, err := ParseSettings([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Prompt != "a68> " || s.Elems != 5 || s.Lines != 7 || s.Frames != 2 || s.MaxDepth != 1 {
		t.Errorf("got %+v", s)
	}
	if s.ShouldConfirm() {
		t.Errorf("confirm: false was ignored")
	}
	if s.StackSize != 65536 {
		t.Errorf("stack_size = %d", s.StackSize)
	}
}

func TestParseSettings_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"negative elems", "elems: -1", "elems must not be negative"},
		{"negative heap", "heap_size: -5", "heap_size must not be negative"},
		{"bad yaml", "elems: [", "parsing test.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSettings([]byte(tt.yaml), "test.yaml")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should contain %q", err, tt.want)
			}
		})
	}
}

func TestFindSettings(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(root, "monitor.yml")
	if err := os.WriteFile(want, []byte("elems: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := FindSettings(nested)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("FindSettings = %q, want %q", got, want)
	}

	s, err := LoadSettings(got)
	if err != nil {
		t.Fatal(err)
	}
	if s.Elems != 3 {
		t.Errorf("elems = %d", s.Elems)
	}
}
