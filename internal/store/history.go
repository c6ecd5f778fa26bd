package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/LucasFSouza552/mobile-pet-sub000/internal/model"
)

// HistoryRepo owns the history table. The institution reference is persisted
// as serialized JSON text, matching the denormalized shape some remote
// payloads embed.
type HistoryRepo struct {
	st *Store
}

const historyCols = `id, type, status, pet_id, institution, account_id, amount,
       external_reference, created_at, updated_at, last_synced_at`

// GetAll returns every locally stored history row.
func (r *HistoryRepo) GetAll(ctx context.Context) ([]*model.History, error) {
	return r.query(ctx, `SELECT `+historyCols+` FROM history ORDER BY created_at DESC`)
}

// GetByAccount returns the history rows owned by the given account.
func (r *HistoryRepo) GetByAccount(ctx context.Context, accountID string) ([]*model.History, error) {
	return r.query(ctx,
		`SELECT `+historyCols+` FROM history WHERE account_id = ? ORDER BY created_at DESC`, accountID)
}

// GetByPet returns the history rows referencing the given pet.
func (r *HistoryRepo) GetByPet(ctx context.Context, petID string) ([]*model.History, error) {
	return r.query(ctx, `SELECT `+historyCols+` FROM history WHERE pet_id = ?`, petID)
}

// GetByID returns the history row with the given id, or (nil, nil) when absent.
func (r *HistoryRepo) GetByID(ctx context.Context, id string) (*model.History, error) {
	row := r.st.db.QueryRowContext(ctx, `SELECT `+historyCols+` FROM history WHERE id = ?`, id)
	return scanHistory(row)
}

// GetUnsynced returns the account's history rows that have never reached the
// server (no last_synced_at). These are push candidates.
func (r *HistoryRepo) GetUnsynced(ctx context.Context, accountID string) ([]*model.History, error) {
	return r.query(ctx,
		`SELECT `+historyCols+` FROM history WHERE account_id = ? AND last_synced_at = ''`, accountID)
}

// Create upserts a history row keyed by id.
func (r *HistoryRepo) Create(ctx context.Context, h *model.History) error {
	institution, err := marshalInstitution(h.Institution)
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO history
		    (id, type, status, pet_id, institution, account_id, amount,
		     external_reference, created_at, updated_at, last_synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		    type               = excluded.type,
		    status             = excluded.status,
		    pet_id             = excluded.pet_id,
		    institution        = excluded.institution,
		    account_id         = excluded.account_id,
		    amount             = excluded.amount,
		    external_reference = excluded.external_reference,
		    created_at         = excluded.created_at,
		    updated_at         = excluded.updated_at,
		    last_synced_at     = excluded.last_synced_at`

	var petID string
	if !h.Pet.IsZero() {
		petID = h.Pet.ID
	}
	_, err = r.st.exec(ctx, q,
		h.ID, string(h.Type), string(h.Status), petID, institution, h.AccountID, h.Amount,
		h.ExternalReference, formatTime(h.CreatedAt), formatTime(h.UpdatedAt), formatTime(h.LastSyncedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting history %q: %w", h.ID, err)
	}
	return nil
}

// MarkSynced stamps last_synced_at and stores the server-assigned external
// reference after a successful push.
func (r *HistoryRepo) MarkSynced(ctx context.Context, id, externalReference string, at time.Time) error {
	_, err := r.st.exec(ctx,
		`UPDATE history SET external_reference = ?, last_synced_at = ? WHERE id = ?`,
		externalReference, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("marking history %q synced: %w", id, err)
	}
	return nil
}

// Delete removes the history row with the given id.
func (r *HistoryRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.st.exec(ctx, `DELETE FROM history WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting history %q: %w", id, err)
	}
	return nil
}

// DeleteAll empties the history table.
func (r *HistoryRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.st.exec(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("deleting all history: %w", err)
	}
	return nil
}

// LastSyncTime returns the most recent last_synced_at across all history rows.
func (r *HistoryRepo) LastSyncTime(ctx context.Context) (time.Time, error) {
	return lastSyncTime(ctx, r.st, "history")
}

func (r *HistoryRepo) query(ctx context.Context, q string, args ...any) ([]*model.History, error) {
	rows, err := r.st.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*model.History
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, h)
	}
	return entries, rows.Err()
}

func scanHistory(s scanner) (*model.History, error) {
	var h model.History
	var hType, status, petID, institution string
	var createdAt, updatedAt, syncedAt string

	err := s.Scan(
		&h.ID, &hType, &status, &petID, &institution, &h.AccountID, &h.Amount,
		&h.ExternalReference, &createdAt, &updatedAt, &syncedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil //nolint:nilnil // intentional: "not found" sentinel
	}
	if err != nil {
		return nil, fmt.Errorf("scanning history row: %w", err)
	}

	h.Type = model.HistoryType(hType)
	h.Status = model.NormalizeHistoryStatus(status)
	if petID != "" {
		h.Pet = model.RefByID[model.Pet](petID)
	}
	h.Institution, err = unmarshalInstitution(institution)
	if err != nil {
		return nil, err
	}
	h.CreatedAt, _ = parseTime(createdAt)
	h.UpdatedAt, _ = parseTime(updatedAt)
	h.LastSyncedAt, _ = parseTime(syncedAt)
	return &h, nil
}

func marshalInstitution(ref *model.Ref[model.Institution]) (string, error) {
	if ref.IsZero() {
		return "", nil
	}
	b, err := json.Marshal(ref)
	if err != nil {
		return "", fmt.Errorf("serializing institution reference: %w", err)
	}
	return string(b), nil
}

func unmarshalInstitution(raw string) (*model.Ref[model.Institution], error) {
	if raw == "" || raw == "null" {
		return nil, nil
	}
	var ref model.Ref[model.Institution]
	if err := json.Unmarshal([]byte(raw), &ref); err != nil {
		return nil, fmt.Errorf("parsing stored institution reference: %w", err)
	}
	return &ref, nil
}
