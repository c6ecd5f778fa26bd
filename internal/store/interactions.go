package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LucasFSouza552/mobile-pet-sub000/internal/model"
)

// InteractionRepo owns the account_pet_interactions table. Pets are stored by
// id only; the interaction synchronizer enriches rows with the full pet
// object on read.
type InteractionRepo struct {
	st *Store
}

const interactionCols = `id, account_id, pet_id, status, created_at, updated_at, last_synced_at`

// GetAll returns every locally stored interaction.
func (r *InteractionRepo) GetAll(ctx context.Context) ([]*model.Interaction, error) {
	return r.query(ctx, `SELECT `+interactionCols+` FROM account_pet_interactions`)
}

// GetByAccount returns the interactions of the given account.
func (r *InteractionRepo) GetByAccount(ctx context.Context, accountID string) ([]*model.Interaction, error) {
	return r.query(ctx,
		`SELECT `+interactionCols+` FROM account_pet_interactions WHERE account_id = ?`, accountID)
}

// GetByPet returns the interactions referencing the given pet.
func (r *InteractionRepo) GetByPet(ctx context.Context, petID string) ([]*model.Interaction, error) {
	return r.query(ctx,
		`SELECT `+interactionCols+` FROM account_pet_interactions WHERE pet_id = ?`, petID)
}

// GetByAccountAndPet returns the interaction linking an account to a pet, or
// (nil, nil) when absent.
func (r *InteractionRepo) GetByAccountAndPet(ctx context.Context, accountID, petID string) (*model.Interaction, error) {
	row := r.st.db.QueryRowContext(ctx,
		`SELECT `+interactionCols+` FROM account_pet_interactions WHERE account_id = ? AND pet_id = ?`,
		accountID, petID)
	return scanInteraction(row)
}

// Wishlist returns the account's liked pets that have not been adopted,
// joining through the pets table.
func (r *InteractionRepo) Wishlist(ctx context.Context, accountID string) ([]*model.Pet, error) {
	const q = `
		SELECT p.` + "id, p.name, p.type, p.age, p.gender, p.weight, p.description, p.adopted, p.account_id, p.adopted_at, p.created_at, p.updated_at, p.last_synced_at" + `
		FROM account_pet_interactions i
		JOIN pets p ON p.id = i.pet_id
		WHERE i.account_id = ? AND i.status = ? AND p.adopted = 0
		ORDER BY i.updated_at DESC`

	rows, err := r.st.db.QueryContext(ctx, q, accountID, string(model.StatusLiked))
	if err != nil {
		return nil, fmt.Errorf("querying wishlist for %q: %w", accountID, err)
	}
	defer func() { _ = rows.Close() }()

	var pets []*model.Pet
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		pets = append(pets, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, p := range pets {
		p.Images, err = r.st.PetImages.URLsForPet(ctx, p.ID)
		if err != nil {
			return nil, err
		}
	}
	return pets, nil
}

// Create upserts an interaction keyed by id.
func (r *InteractionRepo) Create(ctx context.Context, in *model.Interaction) error {
	const q = `
		INSERT INTO account_pet_interactions
		    (id, account_id, pet_id, status, created_at, updated_at, last_synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		    account_id     = excluded.account_id,
		    pet_id         = excluded.pet_id,
		    status         = excluded.status,
		    created_at     = excluded.created_at,
		    updated_at     = excluded.updated_at,
		    last_synced_at = excluded.last_synced_at`

	var petID string
	if !in.Pet.IsZero() {
		petID = in.Pet.ID
	}
	_, err := r.st.exec(ctx, q,
		in.ID, in.AccountID, petID, string(in.Status),
		formatTime(in.CreatedAt), formatTime(in.UpdatedAt), formatTime(in.LastSyncedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting interaction %q: %w", in.ID, err)
	}
	return nil
}

// Delete removes the interaction with the given id.
func (r *InteractionRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.st.exec(ctx, `DELETE FROM account_pet_interactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting interaction %q: %w", id, err)
	}
	return nil
}

// DeleteAll empties the interactions table.
func (r *InteractionRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.st.exec(ctx, `DELETE FROM account_pet_interactions`); err != nil {
		return fmt.Errorf("deleting all interactions: %w", err)
	}
	return nil
}

func (r *InteractionRepo) query(ctx context.Context, q string, args ...any) ([]*model.Interaction, error) {
	rows, err := r.st.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying interactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var interactions []*model.Interaction
	for rows.Next() {
		in, err := scanInteraction(rows)
		if err != nil {
			return nil, err
		}
		interactions = append(interactions, in)
	}
	return interactions, rows.Err()
}

func scanInteraction(s scanner) (*model.Interaction, error) {
	var in model.Interaction
	var petID, status string
	var createdAt, updatedAt, syncedAt string

	err := s.Scan(&in.ID, &in.AccountID, &petID, &status, &createdAt, &updatedAt, &syncedAt)
	if err == sql.ErrNoRows {
		return nil, nil //nolint:nilnil // intentional: "not found" sentinel
	}
	if err != nil {
		return nil, fmt.Errorf("scanning interaction row: %w", err)
	}

	if petID != "" {
		in.Pet = model.RefByID[model.Pet](petID)
	}
	in.Status = model.NormalizeInteractionStatus(status)
	in.CreatedAt, _ = parseTime(createdAt)
	in.UpdatedAt, _ = parseTime(updatedAt)
	in.LastSyncedAt, _ = parseTime(syncedAt)
	return &in, nil
}
