package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// settingsKey is the key the settings record is stored under in the kv table
const settingsKey = "hiit_settings"

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS completions (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		routine      TEXT NOT NULL,
		run_id       TEXT NOT NULL,
		completed_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_completions_routine ON completions(routine, completed_at);
`

// Completion is one recorded finish of a routine
type Completion struct {
	Routine     string
	RunID       string
	CompletedAt time.Time
}

// SQLiteStore keeps the settings record in a key-value table and every
// completion in an append-only history table
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at path
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads the settings record. A missing record yields the defaults.
func (s *SQLiteStore) Load() (Settings, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, settingsKey).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("query settings: %w", err)
	}
	return decodeJSON([]byte(value))
}

// Save upserts the settings record
func (s *SQLiteStore) Save(settings Settings) error {
	raw, err := encodeJSON(settings)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, settingsKey, string(raw))
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// AppendCompletion adds a row to the completion history
func (s *SQLiteStore) AppendCompletion(ctx context.Context, c Completion) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO completions (routine, run_id, completed_at) VALUES (?, ?, ?)
	`, c.Routine, c.RunID, c.CompletedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert completion: %w", err)
	}
	return nil
}

// History returns every recorded completion of a routine, newest first
func (s *SQLiteStore) History(ctx context.Context, routine string) ([]Completion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT routine, run_id, completed_at
		FROM completions
		WHERE routine = ?
		ORDER BY completed_at DESC, id DESC
	`, routine)
	if err != nil {
		return nil, fmt.Errorf("query completions: %w", err)
	}
	defer rows.Close()

	var history []Completion
	for rows.Next() {
		var c Completion
		var completedAt int64
		if err := rows.Scan(&c.Routine, &c.RunID, &completedAt); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		c.CompletedAt = time.Unix(0, completedAt).UTC()
		history = append(history, c)
	}
	return history, rows.Err()
}
