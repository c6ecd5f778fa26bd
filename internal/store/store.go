// Package store manages the SQLite database that holds the locally cached
// copy of every synced entity: accounts, pets, pet images, history,
// achievements, and account-pet interactions.
//
// Only this package may open or query the database. All other packages
// receive a [*Store] (or one of its per-entity repositories) and call its
// methods.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/LucasFSouza552/mobile-pet-sub000/internal/retry"
)

// lockRetry is the bounded-retry policy applied to every single-statement
// write: SQLITE_BUSY/SQLITE_LOCKED is transient under concurrent
// synchronizers, so we wait out the writer with linearly increasing delays.
var lockRetry = retry.Policy{
	MaxAttempts: 5,
	BaseDelay:   40 * time.Millisecond,
	MaxDelay:    250 * time.Millisecond,
	Backoff:     retry.Linear,
	Retryable:   IsLocked,
}

// Store is the SQLite-backed local store. Per-entity repositories share its
// connection and write policy.
type Store struct {
	db  *sql.DB
	log *slog.Logger

	Accounts     *AccountRepo
	Pets         *PetRepo
	PetImages    *PetImageRepo
	History      *HistoryRepo
	Achievements *AchievementRepo
	Interactions *InteractionRepo
}

// DefaultDBPath returns the default path for the local database:
// ~/.local/share/petsync/local.db
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "petsync", "local.db"), nil
}

// Open opens (or creates) the SQLite database at path, runs all pending
// migrations, and configures WAL mode. A migration failure closes the handle
// and is fatal to the caller: the app must not operate against an unknown
// schema state.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=1000")
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", path, err)
	}

	// Single writer keeps SQLITE_BUSY rare; the lock-retry policy covers the
	// rest.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, log: logger}
	s.Accounts = &AccountRepo{s}
	s.Pets = &PetRepo{s}
	s.PetImages = &PetImageRepo{s}
	s.History = &HistoryRepo{s}
	s.Achievements = &AchievementRepo{s}
	s.Interactions = &InteractionRepo{s}

	if err := s.RunMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// IsLocked reports whether err is SQLite lock contention (SQLITE_BUSY or
// SQLITE_LOCKED). Only these errors are retried; everything else propagates
// immediately.
func IsLocked(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	// Wrapped driver errors occasionally surface as plain strings.
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked")
}

// exec runs a single write statement under the lock-retry policy.
func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := lockRetry.Do(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	})
	return res, err
}

// --- time helpers ------------------------------------------------------------

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// scanner matches both *sql.Row and *sql.Rows so row-scanning helpers can be
// reused across getById and getAll paths.
type scanner interface {
	Scan(dest ...any) error
}

// lastSyncTime returns the most recent last_synced_at value in the given
// table. RFC3339Nano text compares correctly with MAX.
func lastSyncTime(ctx context.Context, s *Store, table string) (time.Time, error) {
	var raw sql.NullString
	q := fmt.Sprintf(`SELECT MAX(last_synced_at) FROM %s WHERE last_synced_at != ''`, table)
	if err := s.db.QueryRowContext(ctx, q).Scan(&raw); err != nil {
		return time.Time{}, fmt.Errorf("reading last sync time for %s: %w", table, err)
	}
	if !raw.Valid {
		return time.Time{}, nil
	}
	return parseTime(raw.String)
}
