// Package catalog tracks transcription runs in a small SQLite database next
// to the session directories. The catalog is an index, not a source of
// truth; session files stand on their own and catalog failures never stop a
// recording.
package catalog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run is one start-to-stop recording within a session.
type Run struct {
	ID         string
	Session    string
	Device     string
	TargetLang string
	StartedAt  time.Time
	EndedAt    *time.Time
	EventCount int
	AudioMs    int64
}

// SessionSummary aggregates the runs recorded under one session name.
type SessionSummary struct {
	Name       string
	Runs       int
	LastRun    time.Time
	EventCount int
	AudioMs    int64
}

// Store provides read-write access to the run catalog.
type Store struct {
	db *sql.DB
}

const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		session TEXT NOT NULL,
		device TEXT NOT NULL DEFAULT '',
		targetLanguage TEXT NOT NULL DEFAULT '',
		startedAt REAL NOT NULL,
		endedAt REAL,
		eventCount INTEGER NOT NULL DEFAULT 0,
		audioMs INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS runs_session ON runs(session, startedAt);
`

// Open opens the catalog, creating the schema on first use.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping catalog: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create catalog schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun records the beginning of a run and returns its id.
func (s *Store) StartRun(session, device, targetLang string, startedAt time.Time) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`
		INSERT INTO runs (id, session, device, targetLanguage, startedAt)
		VALUES (?, ?, ?, ?, ?)
	`, id, session, device, targetLang, unixFloat(startedAt))
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// FinishRun records the end of a run with its final counters.
func (s *Store) FinishRun(id string, endedAt time.Time, eventCount int, audioMs int64) error {
	_, err := s.db.Exec(`
		UPDATE runs SET endedAt = ?, eventCount = ?, audioMs = ?
		WHERE id = ?
	`, unixFloat(endedAt), eventCount, audioMs, id)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// Sessions lists every session name with run totals, most recent first.
func (s *Store) Sessions() ([]SessionSummary, error) {
	rows, err := s.db.Query(`
		SELECT session, COUNT(*), MAX(startedAt), MAX(eventCount), MAX(audioMs)
		FROM runs
		GROUP BY session
		ORDER BY MAX(startedAt) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		var last float64
		if err := rows.Scan(&sum.Name, &sum.Runs, &last, &sum.EventCount, &sum.AudioMs); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sum.LastRun = timeFromUnix(last)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// RunsForSession returns the runs of one session, oldest first.
func (s *Store) RunsForSession(session string) ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT id, session, device, targetLanguage, startedAt, endedAt, eventCount, audioMs
		FROM runs
		WHERE session = ?
		ORDER BY startedAt ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var startedAt float64
		var endedAt sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.Session, &r.Device, &r.TargetLang,
			&startedAt, &endedAt, &r.EventCount, &r.AudioMs); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = timeFromUnix(startedAt)
		if endedAt.Valid {
			t := timeFromUnix(endedAt.Float64)
			r.EndedAt = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func unixFloat(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
