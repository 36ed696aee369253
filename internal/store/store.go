package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/imkarma/subtask/internal/transfer"
	"github.com/imkarma/subtask/internal/tree"
	_ "modernc.org/sqlite"
)

// Store persists the task tree under a single key and keeps an event journal.
type Store struct {
	db  *sql.DB
	key string
}

// New opens (or creates) the SQLite database at the given path. The tree is
// stored under key, or DefaultKey when key is empty.
func New(dbPath, key string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent access.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if key == "" {
		key = DefaultKey
	}
	s := &Store{db: db, key: key}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key         TEXT PRIMARY KEY,
		value       TEXT NOT NULL,
		updated_at  DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id     TEXT DEFAULT '',
		level       INTEGER NOT NULL DEFAULT 0,
		event_type  TEXT NOT NULL,
		content     TEXT DEFAULT '',
		timestamp   DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load returns the stored tree. found is false when nothing has been saved yet.
func (s *Store) Load() (tasks []tree.Task, found bool, err error) {
	var value string
	err = s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, s.key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", s.key, err)
	}

	tasks, err = transfer.Unmarshal([]byte(value))
	if err != nil {
		return nil, true, fmt.Errorf("decode %s: %w", s.key, err)
	}
	return tasks, true, nil
}

// Save replaces the stored tree.
func (s *Store) Save(tasks []tree.Task) error {
	data, err := transfer.Marshal(tasks)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = s.db.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.key, string(data), now,
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", s.key, err)
	}
	return nil
}

// UpdatedAt returns when the tree was last saved, or the zero time.
func (s *Store) UpdatedAt() (time.Time, error) {
	var t time.Time
	err := s.db.QueryRow(`SELECT updated_at FROM kv WHERE key = ?`, s.key).Scan(&t)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read updated_at: %w", err)
	}
	return t, nil
}

// Record appends an event to the journal. A zero timestamp is set to now.
func (s *Store) Record(e Event) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO events (task_id, level, event_type, content, timestamp) VALUES (?, ?, ?, ?, ?)`,
		e.TaskID, e.Level, string(e.Type), e.Content, e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// Events returns the most recent events, oldest first. limit <= 0 returns all.
func (s *Store) Events(limit int) ([]Event, error) {
	query := `SELECT id, task_id, level, event_type, content, timestamp FROM events ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	events, err := s.queryEvents(query, args...)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

// EventsFor returns every event recorded for a task id, oldest first.
func (s *Store) EventsFor(taskID string) ([]Event, error) {
	return s.queryEvents(
		`SELECT id, task_id, level, event_type, content, timestamp FROM events WHERE task_id = ? ORDER BY id`,
		taskID,
	)
}

func (s *Store) queryEvents(query string, args ...any) ([]Event, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("get events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var typ string
		if err := rows.Scan(&e.ID, &e.TaskID, &e.Level, &typ, &e.Content, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Type = EventType(typ)
		events = append(events, e)
	}
	return events, rows.Err()
}
