package store

import (
	"context"
	"testing"
	"time"

	"github.com/LucasFSouza552/mobile-pet-sub000/internal/model"
)

func sampleAccount() *model.Account {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &model.Account{
		ID:       "acc-001",
		Name:     "Maria Silva",
		Email:    "maria@example.com",
		Avatar:   "https://cdn.example.com/avatars/acc-001.png",
		Phone:    "+55 11 99999-0000",
		Role:     model.RoleUser,
		Verified: true,
		Address: model.Address{
			Street: "Rua A", Number: "42", City: "São Paulo", State: "SP", CEP: "01000-000",
		},
		PostCount:    3,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastSyncedAt: now,
	}
}

func TestAccountCreate_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a := sampleAccount()

	if err := s.Accounts.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.Accounts.GetByID(ctx, "acc-001")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil {
		t.Fatal("GetByID returned nil, want account")
	}
	if got.Email != a.Email {
		t.Errorf("Email = %q, want %q", got.Email, a.Email)
	}
	if got.Address.City != "São Paulo" {
		t.Errorf("Address.City = %q, want São Paulo", got.Address.City)
	}
	if got.PostCount != 3 {
		t.Errorf("PostCount = %d, want 3", got.PostCount)
	}
	if !got.Verified {
		t.Error("Verified lost in round trip")
	}
}

func TestAccountCreate_UpsertKeyedByEmail(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := sampleAccount()
	if err := s.Accounts.Create(ctx, first); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	second := sampleAccount()
	second.Name = "Maria S. Atualizada"
	second.PostCount = 7
	if err := s.Accounts.Create(ctx, second); err != nil {
		t.Fatalf("second Create: %v", err)
	}

	all, err := s.Accounts.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("got %d rows for one email, want 1", len(all))
	}
	if all[0].Name != "Maria S. Atualizada" {
		t.Errorf("Name = %q, second write should win", all[0].Name)
	}
	if all[0].PostCount != 7 {
		t.Errorf("PostCount = %d, want 7", all[0].PostCount)
	}
}

func TestAccountGetByID_NotFound(t *testing.T) {
	s := openTestStore(t)
	got, err := s.Accounts.GetByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil for missing account", got)
	}
}

func TestAccountDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Accounts.Create(ctx, sampleAccount()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Accounts.Delete(ctx, "acc-001"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err := s.Accounts.GetByID(ctx, "acc-001")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Error("account still present after delete")
	}
}
