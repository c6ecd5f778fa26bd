package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LucasFSouza552/mobile-pet-sub000/internal/model"
)

// AccountRepo owns the accounts table.
type AccountRepo struct {
	st *Store
}

const accountCols = `id, name, email, avatar, phone, role, cpf, cnpj, verified,
       street, number, complement, city, state, cep, neighborhood,
       post_count, created_at, updated_at, last_synced_at`

// GetAll returns every locally stored account.
func (r *AccountRepo) GetAll(ctx context.Context) ([]*model.Account, error) {
	rows, err := r.st.db.QueryContext(ctx, `SELECT `+accountCols+` FROM accounts`)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []*model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// GetByID returns the account with the given id, or (nil, nil) when absent.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (*model.Account, error) {
	row := r.st.db.QueryRowContext(ctx, `SELECT `+accountCols+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

// GetByEmail returns the account with the given email, or (nil, nil) when absent.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	row := r.st.db.QueryRowContext(ctx, `SELECT `+accountCols+` FROM accounts WHERE email = ?`, email)
	return scanAccount(row)
}

// Create upserts an account keyed by email: a second write for the same email
// overwrites every mutable field (last writer wins).
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) error {
	const q = `
		INSERT INTO accounts
		    (id, name, email, avatar, phone, role, cpf, cnpj, verified,
		     street, number, complement, city, state, cep, neighborhood,
		     post_count, created_at, updated_at, last_synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
		    id             = excluded.id,
		    name           = excluded.name,
		    avatar         = excluded.avatar,
		    phone          = excluded.phone,
		    role           = excluded.role,
		    cpf            = excluded.cpf,
		    cnpj           = excluded.cnpj,
		    verified       = excluded.verified,
		    street         = excluded.street,
		    number         = excluded.number,
		    complement     = excluded.complement,
		    city           = excluded.city,
		    state          = excluded.state,
		    cep            = excluded.cep,
		    neighborhood   = excluded.neighborhood,
		    post_count     = excluded.post_count,
		    created_at     = excluded.created_at,
		    updated_at     = excluded.updated_at,
		    last_synced_at = excluded.last_synced_at`

	_, err := r.st.exec(ctx, q,
		a.ID, a.Name, a.Email, a.Avatar, a.Phone, string(a.Role), a.CPF, a.CNPJ, a.Verified,
		a.Address.Street, a.Address.Number, a.Address.Complement, a.Address.City,
		a.Address.State, a.Address.CEP, a.Address.Neighborhood,
		a.PostCount, formatTime(a.CreatedAt), formatTime(a.UpdatedAt), formatTime(a.LastSyncedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting account %q: %w", a.Email, err)
	}
	return nil
}

// Delete removes the account with the given id.
func (r *AccountRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.st.exec(ctx, `DELETE FROM accounts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting account %q: %w", id, err)
	}
	return nil
}

// DeleteAll empties the accounts table.
func (r *AccountRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.st.exec(ctx, `DELETE FROM accounts`); err != nil {
		return fmt.Errorf("deleting all accounts: %w", err)
	}
	return nil
}

func scanAccount(s scanner) (*model.Account, error) {
	var a model.Account
	var role string
	var createdAt, updatedAt, syncedAt string

	err := s.Scan(
		&a.ID, &a.Name, &a.Email, &a.Avatar, &a.Phone, &role, &a.CPF, &a.CNPJ, &a.Verified,
		&a.Address.Street, &a.Address.Number, &a.Address.Complement, &a.Address.City,
		&a.Address.State, &a.Address.CEP, &a.Address.Neighborhood,
		&a.PostCount, &createdAt, &updatedAt, &syncedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil //nolint:nilnil // intentional: "not found" sentinel
	}
	if err != nil {
		return nil, fmt.Errorf("scanning account row: %w", err)
	}

	a.Role = model.NormalizeRole(role)
	a.CreatedAt, _ = parseTime(createdAt)
	a.UpdatedAt, _ = parseTime(updatedAt)
	a.LastSyncedAt, _ = parseTime(syncedAt)
	return &a, nil
}
