package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LucasFSouza552/mobile-pet-sub000/internal/model"
)

// PetImageRepo owns the pet_images child table. Rows are keyed by
// (pet_id, url); insertion time preserves remote ordering alongside the
// explicit position column.
type PetImageRepo struct {
	st *Store
}

// URLsForPet returns the image URLs for a pet in stored order.
func (r *PetImageRepo) URLsForPet(ctx context.Context, petID string) ([]string, error) {
	rows, err := r.st.db.QueryContext(ctx,
		`SELECT url FROM pet_images WHERE pet_id = ? ORDER BY position, created_at`, petID)
	if err != nil {
		return nil, fmt.Errorf("querying images for pet %q: %w", petID, err)
	}
	defer func() { _ = rows.Close() }()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scanning image row: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// GetByPet returns the full image rows for a pet in stored order.
func (r *PetImageRepo) GetByPet(ctx context.Context, petID string) ([]*model.PetImage, error) {
	rows, err := r.st.db.QueryContext(ctx,
		`SELECT pet_id, url, position, local_path, created_at
		 FROM pet_images WHERE pet_id = ? ORDER BY position, created_at`, petID)
	if err != nil {
		return nil, fmt.Errorf("querying images for pet %q: %w", petID, err)
	}
	defer func() { _ = rows.Close() }()

	var images []*model.PetImage
	for rows.Next() {
		img, err := scanPetImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// ReplaceForPet reconciles the stored URL set for a pet against urls: rows
// for removed URLs are deleted, rows for new URLs inserted, surviving rows
// keep their local_path. Returns the added and removed rows so the image
// cache can schedule downloads and delete stale files.
func (r *PetImageRepo) ReplaceForPet(ctx context.Context, petID string, urls []string) (added, removed []*model.PetImage, err error) {
	added, removed, err = r.DiffForPet(ctx, petID, urls)
	if err != nil {
		return nil, nil, err
	}

	for _, img := range removed {
		if _, err := r.st.exec(ctx,
			`DELETE FROM pet_images WHERE pet_id = ? AND url = ?`, petID, img.URL); err != nil {
			return nil, nil, fmt.Errorf("deleting image row for pet %q: %w", petID, err)
		}
	}
	for _, img := range added {
		if err := r.Upsert(ctx, img); err != nil {
			return nil, nil, err
		}
	}

	// Keep positions aligned with the remote ordering.
	for i, u := range urls {
		if _, err := r.st.exec(ctx,
			`UPDATE pet_images SET position = ? WHERE pet_id = ? AND url = ?`, i, petID, u); err != nil {
			return nil, nil, fmt.Errorf("updating image position for pet %q: %w", petID, err)
		}
	}
	return added, removed, nil
}

// DiffForPet computes the symmetric difference between the stored URL set and
// urls without writing anything.
func (r *PetImageRepo) DiffForPet(ctx context.Context, petID string, urls []string) (added, removed []*model.PetImage, err error) {
	current, err := r.GetByPet(ctx, petID)
	if err != nil {
		return nil, nil, err
	}

	currentSet := make(map[string]*model.PetImage, len(current))
	for _, img := range current {
		currentSet[img.URL] = img
	}
	wantSet := make(map[string]int, len(urls))
	for i, u := range urls {
		wantSet[u] = i
	}

	now := time.Now().UTC()
	for i, u := range urls {
		if _, ok := currentSet[u]; !ok {
			added = append(added, &model.PetImage{PetID: petID, URL: u, Position: i, CreatedAt: now})
		}
	}
	for _, img := range current {
		if _, ok := wantSet[img.URL]; !ok {
			removed = append(removed, img)
		}
	}
	return added, removed, nil
}

// Upsert inserts or updates one image row.
func (r *PetImageRepo) Upsert(ctx context.Context, img *model.PetImage) error {
	const q = `
		INSERT INTO pet_images (pet_id, url, position, local_path, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(pet_id, url) DO UPDATE SET
		    position   = excluded.position,
		    local_path = excluded.local_path`
	_, err := r.st.exec(ctx, q,
		img.PetID, img.URL, img.Position, img.LocalPath, formatTime(img.CreatedAt))
	if err != nil {
		return fmt.Errorf("upserting image for pet %q: %w", img.PetID, err)
	}
	return nil
}

// SetLocalPath records where the image cache stored a downloaded file.
func (r *PetImageRepo) SetLocalPath(ctx context.Context, petID, url, localPath string) error {
	_, err := r.st.exec(ctx,
		`UPDATE pet_images SET local_path = ? WHERE pet_id = ? AND url = ?`, localPath, petID, url)
	if err != nil {
		return fmt.Errorf("setting local path for pet %q image: %w", petID, err)
	}
	return nil
}

// DeleteAll empties the pet_images table.
func (r *PetImageRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.st.exec(ctx, `DELETE FROM pet_images`); err != nil {
		return fmt.Errorf("deleting all pet images: %w", err)
	}
	return nil
}

func scanPetImage(s scanner) (*model.PetImage, error) {
	var img model.PetImage
	var createdAt string
	err := s.Scan(&img.PetID, &img.URL, &img.Position, &img.LocalPath, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil //nolint:nilnil // intentional: "not found" sentinel
	}
	if err != nil {
		return nil, fmt.Errorf("scanning image row: %w", err)
	}
	img.CreatedAt, _ = parseTime(createdAt)
	return &img, nil
}
