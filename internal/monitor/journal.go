package monitor

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS commands (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	session TEXT    NOT NULL,
	seq     INTEGER NOT NULL,
	at      INTEGER NOT NULL,
	line    INTEGER NOT NULL,
	command TEXT    NOT NULL
)`

// Journal records monitor commands in an sqlite database, one session id
// per program run.
type Journal struct {
	db      *sql.DB
	session string
	seq     int
}

// Entry is one recorded command.
type Entry struct {
	Seq     int
	At      time.Time
	Line    int // source line the program was paused at
	Command string
}

// OpenJournal opens or creates the journal at path. ":memory:" keeps it
// in memory.
func OpenJournal(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}
	// An in-memory database lives in one connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(journalSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal %s: %w", path, err)
	}
	return &Journal{db: db, session: uuid.NewString()}, nil
}

// Session is the id commands of this run are recorded under.
func (j *Journal) Session() string {
	return j.session
}

func (j *Journal) Record(line int, command string) error {
	j.seq++
	_, err := j.db.Exec(
		`INSERT INTO commands (session, seq, at, line, command) VALUES (?, ?, ?, ?, ?)`,
		j.session, j.seq, time.Now().UnixNano(), line, command)
	return err
}

// Recent returns the last n commands of the session, oldest first.
func (j *Journal) Recent(n int) ([]Entry, error) {
	rows, err := j.db.Query(
		`SELECT seq, at, line, command FROM commands WHERE session = ? ORDER BY seq DESC LIMIT ?`,
		j.session, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		var at int64
		if err := rows.Scan(&e.Seq, &at, &e.Line, &e.Command); err != nil {
			return nil, err
		}
		e.At = time.Unix(0, at)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, k := 0, len(entries)-1; i < k; i, k = i+1, k-1 {
		entries[i], entries[k] = entries[k], entries[i]
	}
	return entries, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}
