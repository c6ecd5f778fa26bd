package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// migration is one ordered, idempotent schema change. Migrations run inside
// their own transaction and are recorded in the schema_migrations ledger.
type migration struct {
	id   int
	name string
	up   func(ctx context.Context, tx *sql.Tx) error
}

// ddl wraps a plain DDL statement as a migration step.
func ddl(stmt string) func(ctx context.Context, tx *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, stmt)
		return err
	}
}

// addColumn guards ALTER TABLE ADD COLUMN behind an existence check, making
// the migration individually idempotent: SQLite rejects a duplicate ADD
// COLUMN even though it tolerates CREATE IF NOT EXISTS.
func addColumn(table, column, decl string) func(ctx context.Context, tx *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		exists, err := columnExists(ctx, tx, table, column)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		_, err = tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl))
		return err
	}
}

func columnExists(ctx context.Context, tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("reading table info for %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return false, fmt.Errorf("scanning table info row: %w", err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// migrations is the ordered schema history. Append only; never reorder or
// edit an entry that has shipped.
var migrations = []migration{
	{1, "create accounts", ddl(`
		CREATE TABLE IF NOT EXISTS accounts (
		    id             TEXT NOT NULL,
		    name           TEXT NOT NULL DEFAULT '',
		    email          TEXT NOT NULL PRIMARY KEY,
		    avatar         TEXT NOT NULL DEFAULT '',
		    phone          TEXT NOT NULL DEFAULT '',
		    role           TEXT NOT NULL DEFAULT 'user',
		    cpf            TEXT NOT NULL DEFAULT '',
		    cnpj           TEXT NOT NULL DEFAULT '',
		    verified       INTEGER NOT NULL DEFAULT 0,
		    street         TEXT NOT NULL DEFAULT '',
		    number         TEXT NOT NULL DEFAULT '',
		    complement     TEXT NOT NULL DEFAULT '',
		    city           TEXT NOT NULL DEFAULT '',
		    state          TEXT NOT NULL DEFAULT '',
		    cep            TEXT NOT NULL DEFAULT '',
		    neighborhood   TEXT NOT NULL DEFAULT '',
		    created_at     TEXT NOT NULL DEFAULT '',
		    updated_at     TEXT NOT NULL DEFAULT '',
		    last_synced_at TEXT NOT NULL DEFAULT ''
		)`)},
	{2, "create pets", ddl(`
		CREATE TABLE IF NOT EXISTS pets (
		    id             TEXT NOT NULL PRIMARY KEY,
		    name           TEXT NOT NULL DEFAULT '',
		    type           TEXT NOT NULL DEFAULT 'other',
		    age            INTEGER,
		    gender         TEXT NOT NULL DEFAULT 'unknown',
		    weight         REAL NOT NULL DEFAULT 0,
		    description    TEXT NOT NULL DEFAULT '',
		    adopted        INTEGER NOT NULL DEFAULT 0,
		    account_id     TEXT NOT NULL DEFAULT '',
		    adopted_at     TEXT NOT NULL DEFAULT '',
		    created_at     TEXT NOT NULL DEFAULT '',
		    updated_at     TEXT NOT NULL DEFAULT '',
		    last_synced_at TEXT NOT NULL DEFAULT ''
		)`)},
	{3, "create pet_images", ddl(`
		CREATE TABLE IF NOT EXISTS pet_images (
		    pet_id     TEXT NOT NULL,
		    url        TEXT NOT NULL,
		    position   INTEGER NOT NULL DEFAULT 0,
		    created_at TEXT NOT NULL DEFAULT '',
		    PRIMARY KEY (pet_id, url),
		    FOREIGN KEY (pet_id) REFERENCES pets(id) ON DELETE CASCADE
		)`)},
	{4, "create history", ddl(`
		CREATE TABLE IF NOT EXISTS history (
		    id                 TEXT NOT NULL PRIMARY KEY,
		    type               TEXT NOT NULL DEFAULT 'donation',
		    status             TEXT NOT NULL DEFAULT 'pending',
		    pet_id             TEXT NOT NULL DEFAULT '',
		    institution        TEXT NOT NULL DEFAULT '',
		    account_id         TEXT NOT NULL DEFAULT '',
		    amount             TEXT NOT NULL DEFAULT '',
		    external_reference TEXT NOT NULL DEFAULT '',
		    created_at         TEXT NOT NULL DEFAULT '',
		    updated_at         TEXT NOT NULL DEFAULT '',
		    last_synced_at     TEXT NOT NULL DEFAULT ''
		)`)},
	{5, "create achievements", ddl(`
		CREATE TABLE IF NOT EXISTS achievements (
		    id             TEXT NOT NULL PRIMARY KEY,
		    name           TEXT NOT NULL DEFAULT '',
		    description    TEXT NOT NULL DEFAULT '',
		    type           TEXT NOT NULL DEFAULT 'donation',
		    account_id     TEXT NOT NULL DEFAULT '',
		    unlocked_at    TEXT NOT NULL DEFAULT '',
		    created_at     TEXT NOT NULL DEFAULT '',
		    updated_at     TEXT NOT NULL DEFAULT '',
		    last_synced_at TEXT NOT NULL DEFAULT ''
		)`)},
	{6, "create account_pet_interactions", ddl(`
		CREATE TABLE IF NOT EXISTS account_pet_interactions (
		    id             TEXT NOT NULL PRIMARY KEY,
		    account_id     TEXT NOT NULL DEFAULT '',
		    pet_id         TEXT NOT NULL DEFAULT '',
		    status         TEXT NOT NULL DEFAULT 'viewed',
		    created_at     TEXT NOT NULL DEFAULT '',
		    updated_at     TEXT NOT NULL DEFAULT '',
		    last_synced_at TEXT NOT NULL DEFAULT ''
		)`)},
	{7, "index interactions by account", ddl(`
		CREATE INDEX IF NOT EXISTS idx_interactions_account
		    ON account_pet_interactions (account_id)`)},
	{8, "add post_count to accounts", addColumn("accounts", "post_count", "INTEGER NOT NULL DEFAULT 0")},
	{9, "add local_path to pet_images", addColumn("pet_images", "local_path", "TEXT NOT NULL DEFAULT ''")},
}

// RunMigrations applies every migration not yet recorded in the ledger, in
// ascending id order, one transaction per migration. It is idempotent and
// safe to call on every start. Any failure rolls back that migration and
// aborts the run.
func (s *Store) RunMigrations(ctx context.Context) error {
	const ledger = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
		    id         INTEGER NOT NULL PRIMARY KEY,
		    name       TEXT NOT NULL,
		    applied_at TEXT NOT NULL
		)`
	if _, err := s.db.ExecContext(ctx, ledger); err != nil {
		return fmt.Errorf("creating migration ledger: %w", err)
	}

	applied, err := s.appliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.id] {
			continue
		}
		if err := s.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.id, m.name, err)
		}
		s.log.Info("migration applied", "id", m.id, "name", m.name)
	}
	return nil
}

func (s *Store) appliedMigrations(ctx context.Context) (map[int]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("reading migration ledger: %w", err)
	}
	defer func() { _ = rows.Close() }()

	applied := make(map[int]bool)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning ledger row: %w", err)
		}
		applied[id] = true
	}
	return applied, rows.Err()
}

func (s *Store) applyMigration(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := m.up(ctx, tx); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (id, name, applied_at) VALUES (?, ?, ?)`,
		m.id, m.name, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("recording ledger row: %w", err)
	}
	return tx.Commit()
}

// Version returns the highest applied migration id, or 0 on a fresh ledger.
func (s *Store) Version(ctx context.Context) (int, error) {
	var v sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(id) FROM schema_migrations`).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return int(v.Int64), nil
}
