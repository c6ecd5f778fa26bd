package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LucasFSouza552/mobile-pet-sub000/internal/model"
)

// PetRepo owns the pets table. Image URLs live in the pet_images child table
// managed by [PetImageRepo]; pet reads hydrate them in order.
type PetRepo struct {
	st *Store
}

const petCols = `id, name, type, age, gender, weight, description, adopted,
       account_id, adopted_at, created_at, updated_at, last_synced_at`

// GetAll returns every locally stored pet with its image URLs.
func (r *PetRepo) GetAll(ctx context.Context) ([]*model.Pet, error) {
	return r.query(ctx, `SELECT `+petCols+` FROM pets`)
}

// GetByAccount returns the pets owned by the given account.
func (r *PetRepo) GetByAccount(ctx context.Context, accountID string) ([]*model.Pet, error) {
	return r.query(ctx, `SELECT `+petCols+` FROM pets WHERE account_id = ?`, accountID)
}

// GetByID returns the pet with the given id, or (nil, nil) when absent.
func (r *PetRepo) GetByID(ctx context.Context, id string) (*model.Pet, error) {
	row := r.st.db.QueryRowContext(ctx, `SELECT `+petCols+` FROM pets WHERE id = ?`, id)
	p, err := scanPet(row)
	if err != nil || p == nil {
		return p, err
	}
	p.Images, err = r.st.PetImages.URLsForPet(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Exists reports whether a pet row with the given id is present locally.
// Synchronizers use this to enforce pet-before-history ordering without
// paying for a full row hydration.
func (r *PetRepo) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.st.db.QueryRowContext(ctx, `SELECT 1 FROM pets WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking pet %q: %w", id, err)
	}
	return true, nil
}

// Create upserts a pet keyed by id and replaces its image set.
func (r *PetRepo) Create(ctx context.Context, p *model.Pet) error {
	const q = `
		INSERT INTO pets
		    (id, name, type, age, gender, weight, description, adopted,
		     account_id, adopted_at, created_at, updated_at, last_synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		    name           = excluded.name,
		    type           = excluded.type,
		    age            = excluded.age,
		    gender         = excluded.gender,
		    weight         = excluded.weight,
		    description    = excluded.description,
		    adopted        = excluded.adopted,
		    account_id     = excluded.account_id,
		    adopted_at     = excluded.adopted_at,
		    created_at     = excluded.created_at,
		    updated_at     = excluded.updated_at,
		    last_synced_at = excluded.last_synced_at`

	_, err := r.st.exec(ctx, q,
		p.ID, p.Name, string(p.Type), p.Age, string(p.Gender), p.Weight, p.Description, p.Adopted,
		p.AccountID, formatTime(p.AdoptedAt), formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
		formatTime(p.LastSyncedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting pet %q: %w", p.ID, err)
	}

	if p.Images != nil {
		if _, _, err := r.st.PetImages.ReplaceForPet(ctx, p.ID, p.Images); err != nil {
			return err
		}
	}
	return nil
}

// ImagesForPet returns the stored image rows for a pet, including any cached
// local paths. The synchronizer uses these to drop stale cache files and to
// serve cached files in place of remote urls.
func (r *PetRepo) ImagesForPet(ctx context.Context, petID string) ([]*model.PetImage, error) {
	return r.st.PetImages.GetByPet(ctx, petID)
}

// Delete removes a pet; its pet_images rows cascade.
func (r *PetRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.st.exec(ctx, `DELETE FROM pets WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting pet %q: %w", id, err)
	}
	return nil
}

// DeleteAll empties the pets table.
func (r *PetRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.st.exec(ctx, `DELETE FROM pets`); err != nil {
		return fmt.Errorf("deleting all pets: %w", err)
	}
	return nil
}

// LastSyncTime returns the most recent last_synced_at across all pets, or the
// zero time if nothing has synced.
func (r *PetRepo) LastSyncTime(ctx context.Context) (time.Time, error) {
	return lastSyncTime(ctx, r.st, "pets")
}

func (r *PetRepo) query(ctx context.Context, q string, args ...any) ([]*model.Pet, error) {
	rows, err := r.st.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying pets: %w", err)
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

func scanPet(s scanner) (*model.Pet, error) {
	var p model.Pet
	var petType, gender string
	var age sql.NullInt64
	var adoptedAt, createdAt, updatedAt, syncedAt string

	err := s.Scan(
		&p.ID, &p.Name, &petType, &age, &gender, &p.Weight, &p.Description, &p.Adopted,
		&p.AccountID, &adoptedAt, &createdAt, &updatedAt, &syncedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil //nolint:nilnil // intentional: "not found" sentinel
	}
	if err != nil {
		return nil, fmt.Errorf("scanning pet row: %w", err)
	}

	p.Type = model.PetType(petType)
	p.Gender = model.NormalizeGender(gender)
	if age.Valid {
		v := int(age.Int64)
		p.Age = &v
	}
	p.AdoptedAt, _ = parseTime(adoptedAt)
	p.CreatedAt, _ = parseTime(createdAt)
	p.UpdatedAt, _ = parseTime(updatedAt)
	p.LastSyncedAt, _ = parseTime(syncedAt)
	return &p, nil
}
