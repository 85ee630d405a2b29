package monitor

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func openTestJournal(t *testing.T, path string) *Journal {
	t.Helper()
	j, err := OpenJournal(path)
	if err != nil {
		t.Fatalf("OpenJournal(%s): %v", path, err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournalRecent(t *testing.T) {
	j := openTestJournal(t, ":memory:")
	if _, err := uuid.Parse(j.Session()); err != nil {
		t.Errorf("session id %q: %v", j.Session(), err)
	}
	for i, cmd := range []string{"step", "evaluate i", "stack", "continue"} {
		if err := j.Record(10+i, cmd); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	entries, err := j.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Recent(2) returned %d entries", len(entries))
	}
	if entries[0].Command != "stack" || entries[0].Seq != 3 || entries[0].Line != 12 {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].Command != "continue" || entries[1].Seq != 4 {
		t.Errorf("entries[1] = %+v", entries[1])
	}
	if entries[0].At.After(entries[1].At) {
		t.Errorf("entries out of order")
	}
}

// Sessions sharing a journal file see only their own commands.
func TestJournalSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	a := openTestJournal(t, path)
	a.Record(1, "echo a")
	b := openTestJournal(t, path)
	b.Record(2, "echo b")
	if a.Session() == b.Session() {
		t.Fatalf("sessions share an id")
	}
	entries, err := b.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Command != "echo b" {
		t.Errorf("b sees %+v", entries)
	}
}

func TestHistoryCommand(t *testing.T) {
	f := newFixture(t, "")
	f.s.journal = openTestJournal(t, ":memory:")
	f.execute(t, "echo one")
	f.execute(t, "bogus")
	f.execute(t, "echo two")
	out := f.execute(t, "history 2")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("history 2 =\n%s", out)
	}
	if !strings.HasSuffix(lines[0], "line 0  echo two") || !strings.HasSuffix(lines[1], "line 0  history 2") {
		t.Errorf("history 2 =\n%s", out)
	}
	if !strings.HasPrefix(lines[0], "   3  ") {
		t.Errorf("sequence numbers: %q", lines[0])
	}
}
