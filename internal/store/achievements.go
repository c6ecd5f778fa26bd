package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LucasFSouza552/mobile-pet-sub000/internal/model"
)

// AchievementRepo owns the achievements table.
type AchievementRepo struct {
	st *Store
}

const achievementCols = `id, name, description, type, account_id, unlocked_at,
       created_at, updated_at, last_synced_at`

// GetAll returns every locally stored achievement.
func (r *AchievementRepo) GetAll(ctx context.Context) ([]*model.Achievement, error) {
	return r.query(ctx, `SELECT `+achievementCols+` FROM achievements`)
}

// GetByAccount returns the achievements unlocked by the given account.
func (r *AchievementRepo) GetByAccount(ctx context.Context, accountID string) ([]*model.Achievement, error) {
	return r.query(ctx,
		`SELECT `+achievementCols+` FROM achievements WHERE account_id = ?`, accountID)
}

// GetByID returns the achievement with the given id, or (nil, nil) when absent.
func (r *AchievementRepo) GetByID(ctx context.Context, id string) (*model.Achievement, error) {
	row := r.st.db.QueryRowContext(ctx,
		`SELECT `+achievementCols+` FROM achievements WHERE id = ?`, id)
	return scanAchievement(row)
}

// Create upserts an achievement keyed by id.
func (r *AchievementRepo) Create(ctx context.Context, a *model.Achievement) error {
	const q = `
		INSERT INTO achievements
		    (id, name, description, type, account_id, unlocked_at,
		     created_at, updated_at, last_synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		    name           = excluded.name,
		    description    = excluded.description,
		    type           = excluded.type,
		    account_id     = excluded.account_id,
		    unlocked_at    = excluded.unlocked_at,
		    created_at     = excluded.created_at,
		    updated_at     = excluded.updated_at,
		    last_synced_at = excluded.last_synced_at`

	_, err := r.st.exec(ctx, q,
		a.ID, a.Name, a.Description, string(a.Type), a.AccountID, formatTime(a.UnlockedAt),
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt), formatTime(a.LastSyncedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting achievement %q: %w", a.ID, err)
	}
	return nil
}

// DeleteAbsent removes every achievement whose id is not in keep. Used only
// by the global full-set reconciliation, where the remote set is
// authoritative for membership.
func (r *AchievementRepo) DeleteAbsent(ctx context.Context, keep map[string]bool) error {
	all, err := r.GetAll(ctx)
	if err != nil {
		return err
	}
	for _, a := range all {
		if keep[a.ID] {
			continue
		}
		if err := r.Delete(ctx, a.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the achievement with the given id.
func (r *AchievementRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.st.exec(ctx, `DELETE FROM achievements WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting achievement %q: %w", id, err)
	}
	return nil
}

// DeleteAll empties the achievements table.
func (r *AchievementRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.st.exec(ctx, `DELETE FROM achievements`); err != nil {
		return fmt.Errorf("deleting all achievements: %w", err)
	}
	return nil
}

// LastSyncTime returns the most recent last_synced_at across all achievements.
func (r *AchievementRepo) LastSyncTime(ctx context.Context) (time.Time, error) {
	return lastSyncTime(ctx, r.st, "achievements")
}

func (r *AchievementRepo) query(ctx context.Context, q string, args ...any) ([]*model.Achievement, error) {
	rows, err := r.st.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying achievements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var achievements []*model.Achievement
	for rows.Next() {
		a, err := scanAchievement(rows)
		if err != nil {
			return nil, err
		}
		achievements = append(achievements, a)
	}
	return achievements, rows.Err()
}

func scanAchievement(s scanner) (*model.Achievement, error) {
	var a model.Achievement
	var aType string
	var unlockedAt, createdAt, updatedAt, syncedAt string

	err := s.Scan(
		&a.ID, &a.Name, &a.Description, &aType, &a.AccountID, &unlockedAt,
		&createdAt, &updatedAt, &syncedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil //nolint:nilnil // intentional: "not found" sentinel
	}
	if err != nil {
		return nil, fmt.Errorf("scanning achievement row: %w", err)
	}

	a.Type = model.AchievementType(aType)
	a.UnlockedAt, _ = parseTime(unlockedAt)
	a.CreatedAt, _ = parseTime(createdAt)
	a.UpdatedAt, _ = parseTime(updatedAt)
	a.LastSyncedAt, _ = parseTime(syncedAt)
	return &a, nil
}
