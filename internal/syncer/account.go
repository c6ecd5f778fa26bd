package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LucasFSouza552/mobile-pet-sub000/internal/model"
)

// AccountSyncer keeps the local profile in step with the server.
type AccountSyncer struct {
	accounts AccountStore
	api      AccountAPI
	net      Connectivity
	log      *slog.Logger
	now      func() time.Time
}

func NewAccountSyncer(accounts AccountStore, api AccountAPI, net Connectivity, logger *slog.Logger) *AccountSyncer {
	return &AccountSyncer{
		accounts: accounts,
		api:      api,
		net:      net,
		log:      logger,
		now:      time.Now,
	}
}

// SyncProfile fetches the authenticated profile and upserts it locally.
// The upsert is keyed by email, so a server-side id change does not duplicate
// the row.
func (s *AccountSyncer) SyncProfile(ctx context.Context) (*model.Account, error) {
	if !s.net.IsConnected(ctx) {
		return nil, ErrOffline
	}
	acc, err := s.api.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("syncing profile: %w", err)
	}
	s.stamp(acc)
	if err := s.accounts.Create(ctx, acc); err != nil {
		return nil, fmt.Errorf("storing profile: %w", err)
	}
	return acc, nil
}

// GetAccount resolves an account by id. Offline, the local row (or nil) is
// the answer. Online, the server copy always wins: it is fetched, upserted,
// and returned, and a remote failure yields nil rather than the stale local
// row. Callers that want local-over-remote should use
// [AccountSyncer.CurrentAccount] instead.
func (s *AccountSyncer) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	if !s.net.IsConnected(ctx) {
		return s.accounts.GetByID(ctx, id)
	}

	acc, err := s.api.GetByID(ctx, id)
	if err != nil {
		s.log.Warn("account fetch failed", "account", id, "error", err)
		return nil, nil
	}
	if acc == nil {
		return nil, nil
	}
	s.stamp(acc)
	if err := s.accounts.Create(ctx, acc); err != nil {
		return nil, fmt.Errorf("storing account %q: %w", id, err)
	}
	return acc, nil
}

// CurrentAccount returns the locally stored profile, or nil when the user has
// never synced. Sync passes use this to decide between a full and a
// profile-only run.
func (s *AccountSyncer) CurrentAccount(ctx context.Context) (*model.Account, error) {
	all, err := s.accounts.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

// UpdateAccount writes the profile locally first, then pushes when the
// network allows. An offline update is not an error; the next profile sync
// pushes it.
func (s *AccountSyncer) UpdateAccount(ctx context.Context, acc *model.Account) error {
	acc.UpdatedAt = s.now().UTC()
	if err := s.accounts.Create(ctx, acc); err != nil {
		return fmt.Errorf("storing account update: %w", err)
	}
	if !s.net.IsConnected(ctx) {
		s.log.Info("account update stored locally, push deferred", "account", acc.ID)
		return nil
	}
	if err := s.api.UpdateAccount(ctx, acc); err != nil {
		return fmt.Errorf("pushing account update: %w", err)
	}
	return nil
}

// Donate submits a donation. Payments require the network; there is no
// offline queue for money.
func (s *AccountSyncer) Donate(ctx context.Context, amount string) error {
	if !s.net.IsConnected(ctx) {
		return fmt.Errorf("donating: %w", ErrOffline)
	}
	if err := s.api.Donate(ctx, amount); err != nil {
		return fmt.Errorf("donating %s: %w", amount, err)
	}
	return nil
}

// SponsorInstitution submits a sponsorship. Network required, same as Donate.
func (s *AccountSyncer) SponsorInstitution(ctx context.Context, institutionID, amount string) error {
	if !s.net.IsConnected(ctx) {
		return fmt.Errorf("sponsoring: %w", ErrOffline)
	}
	if err := s.api.SponsorInstitution(ctx, institutionID, amount); err != nil {
		return fmt.Errorf("sponsoring institution %q: %w", institutionID, err)
	}
	return nil
}

func (s *AccountSyncer) stamp(acc *model.Account) {
	now := s.now().UTC()
	acc.CreatedAt = model.DefaultTime(acc.CreatedAt, now)
	acc.UpdatedAt = model.DefaultTime(acc.UpdatedAt, now)
	acc.LastSyncedAt = now
}
