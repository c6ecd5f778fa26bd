package store

import (
	"context"
	"errors"
	"fmt"
)

// Wipe empties all six entity tables in dependency order (interactions →
// pet_images → pets → history → achievements → accounts). The migration
// ledger is untouched.
//
// The deletes run inside one transaction so a logout never leaves a
// half-wiped schema visible to readers. Every table is attempted even when an
// earlier delete fails, but any failure rolls the whole wipe back; failures
// are joined into the returned error.
func (s *Store) Wipe(ctx context.Context) error {
	tables := []string{
		"account_pet_interactions",
		"pet_images",
		"pets",
		"history",
		"achievements",
		"accounts",
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning wipe transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var errs []error
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			s.log.Error("wipe failed for table", "table", table, "error", err)
			errs = append(errs, fmt.Errorf("wiping %s: %w", table, err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing wipe: %w", err)
	}
	return nil
}
