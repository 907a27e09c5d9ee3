package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Action names the operation an event records.
type Action string

const (
	ActionRegister Action = "register"
	ActionAdopt    Action = "adopt"
	ActionValidate Action = "validate"
)

// Event is one row of the audit trail.
type Event struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	Action    Action    `json:"action"`
	Category  string    `json:"category,omitempty"`
	Filename  string    `json:"filename,omitempty"`
	Checksum  string    `json:"checksum,omitempty"`
	SizeBytes int64     `json:"size_bytes,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	At        time.Time `json:"at"`
}

// Store persists events in a SQLite database.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open creates or connects to the history database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("history database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends events in a single transaction. Events with a zero At are
// stamped with the current time.
func (s *Store) Record(ctx context.Context, events ...Event) error {
	if s == nil || len(events) == 0 {
		return nil
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin history tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO events
			(run_id, action, category, filename, checksum, size_bytes, detail, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare history insert: %w", err)
		}
		defer stmt.Close()

		for _, ev := range events {
			at := ev.At
			if at.IsZero() {
				at = s.now()
			}
			if _, err := stmt.ExecContext(ctx,
				ev.RunID, string(ev.Action), ev.Category, ev.Filename,
				ev.Checksum, ev.SizeBytes, ev.Detail, at.UTC().Format(time.RFC3339Nano),
			); err != nil {
				return fmt.Errorf("insert history event: %w", err)
			}
		}
		return tx.Commit()
	})
}

// Recent returns up to limit events, newest first. A non-positive limit
// returns every event.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	query := `SELECT id, run_id, action, category, filename, checksum, size_bytes, detail, created_at
		FROM events ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var events []Event
	err := retryOnBusy(ctx, func() error {
		events = events[:0]
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			ev, err := scanEvent(rows)
			if err != nil {
				return err
			}
			events = append(events, ev)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return events, nil
}

func scanEvent(rows *sql.Rows) (Event, error) {
	var (
		ev     Event
		action string
		at     string
	)
	if err := rows.Scan(&ev.ID, &ev.RunID, &action, &ev.Category, &ev.Filename,
		&ev.Checksum, &ev.SizeBytes, &ev.Detail, &at); err != nil {
		return Event{}, fmt.Errorf("scan history row: %w", err)
	}
	ev.Action = Action(action)
	parsed, err := time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return Event{}, fmt.Errorf("parse history timestamp %q: %w", at, err)
	}
	ev.At = parsed
	return ev, nil
}
