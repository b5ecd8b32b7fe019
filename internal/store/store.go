package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sadopc/tracklet/internal/logger"
)

const currentVersion = 2

// timeLayout is fixed-width UTC so that timestamps sort as strings.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}
	if version < 2 {
		if err := s.migrateV2(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	if err == nil {
		logger.Info("database migrated", "from", version, "to", currentVersion)
	}
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS tasks (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL UNIQUE,
		color       TEXT NOT NULL DEFAULT '#6C63FF',
		favorite    INTEGER NOT NULL DEFAULT 0,
		archived    INTEGER NOT NULL DEFAULT 0,
		sort_order  INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pomodoro_settings (
		task_id                     TEXT PRIMARY KEY REFERENCES tasks(id) ON DELETE CASCADE,
		enabled                     INTEGER NOT NULL DEFAULT 0,
		work_minutes                INTEGER NOT NULL DEFAULT 25,
		short_break_minutes         INTEGER NOT NULL DEFAULT 5,
		long_break_minutes          INTEGER NOT NULL DEFAULT 15,
		sessions_before_long_break  INTEGER NOT NULL DEFAULT 4,
		auto_start_breaks           INTEGER NOT NULL DEFAULT 0,
		auto_start_work             INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS time_entries (
		id          TEXT PRIMARY KEY,
		task_id     TEXT REFERENCES tasks(id) ON DELETE SET NULL,
		start_time  TEXT NOT NULL,
		end_time    TEXT,
		duration    INTEGER NOT NULL DEFAULT 0,
		notes       TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_task  ON time_entries(task_id);
	CREATE INDEX IF NOT EXISTS idx_entries_start ON time_entries(start_time);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('daily_goal', '28800');
	`
	_, err := s.db.Exec(ddl)
	return err
}

func (s *Store) migrateV2() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS location_samples (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		entry_id    TEXT NOT NULL REFERENCES time_entries(id) ON DELETE CASCADE,
		latitude    REAL NOT NULL,
		longitude   REAL NOT NULL,
		altitude    REAL NOT NULL DEFAULT 0,
		accuracy    REAL NOT NULL,
		speed       REAL NOT NULL DEFAULT 0,
		timestamp   TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_samples_entry ON location_samples(entry_id);

	CREATE TABLE IF NOT EXISTS places (
		id                  TEXT PRIMARY KEY,
		name                TEXT NOT NULL UNIQUE,
		latitude            REAL NOT NULL,
		longitude           REAL NOT NULL,
		radius_meters       REAL NOT NULL DEFAULT 100,
		geofence_enabled    INTEGER NOT NULL DEFAULT 1,
		auto_start_task_id  TEXT REFERENCES tasks(id) ON DELETE SET NULL,
		auto_stop_on_exit   INTEGER NOT NULL DEFAULT 0,
		created_at          TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// DefaultDBPath returns ~/.config/tracklet/tracklet.db
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tracklet", "tracklet.db"), nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// exists reports whether a row with id is in table. table is never user input.
func (s *Store) exists(ctx context.Context, table, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE id = ?`, id).Scan(&n)
	return n > 0, err
}
