package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/LucasFSouza552/mobile-pet-sub000/internal/model"
)

const (
	// achievementBatchSize bounds how many rows are written back-to-back
	// before the pull pauses.
	achievementBatchSize  = 5
	achievementBatchPause = 100 * time.Millisecond
)

// AchievementSyncer reconciles achievements. The global pull treats the
// server's set as authoritative and removes local rows absent from it; the
// account-scoped pull only adds and updates, since a partial view must never
// trigger deletes.
type AchievementSyncer struct {
	achievements AchievementStore
	api          AchievementAPI
	net          Connectivity
	log          *slog.Logger
	now          func() time.Time
	newID        func() string
	sleep        func(ctx context.Context, d time.Duration)
}

func NewAchievementSyncer(achievements AchievementStore, api AchievementAPI, net Connectivity, logger *slog.Logger) *AchievementSyncer {
	return &AchievementSyncer{
		achievements: achievements,
		api:          api,
		net:          net,
		log:          logger,
		now:          time.Now,
		newID:        uuid.NewString,
		sleep:        sleepCtx,
	}
}

// Upsert writes an achievement locally first, then pushes it when the network
// allows. A row that has synced before goes out as an update; a new row goes
// out as a create, and a server-assigned id replaces the optimistic one.
func (s *AchievementSyncer) Upsert(ctx context.Context, a *model.Achievement) error {
	now := s.now().UTC()
	synced := !a.LastSyncedAt.IsZero()
	if a.ID == "" {
		a.ID = s.newID()
	}
	a.CreatedAt = model.DefaultTime(a.CreatedAt, now)
	a.UpdatedAt = now
	if err := s.achievements.Create(ctx, a); err != nil {
		return fmt.Errorf("storing achievement %q: %w", a.ID, err)
	}

	if !s.net.IsConnected(ctx) {
		s.log.Info("achievement stored locally, push deferred", "id", a.ID)
		return nil
	}

	if synced {
		if err := s.api.Update(ctx, a); err != nil {
			return fmt.Errorf("pushing achievement update %q: %w", a.ID, err)
		}
	} else {
		stored, err := s.api.Create(ctx, a)
		if err != nil {
			return fmt.Errorf("pushing achievement %q: %w", a.ID, err)
		}
		if stored != nil && stored.ID != "" && stored.ID != a.ID {
			if err := s.achievements.Delete(ctx, a.ID); err != nil {
				return err
			}
			a.ID = stored.ID
		}
	}

	a.LastSyncedAt = s.now().UTC()
	if err := s.achievements.Create(ctx, a); err != nil {
		return fmt.Errorf("storing pushed achievement: %w", err)
	}
	return nil
}

// Delete removes an achievement locally and, when reachable, on the server.
// An offline delete is local-only; the next global reconciliation settles it.
func (s *AchievementSyncer) Delete(ctx context.Context, id string) error {
	if err := s.achievements.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting achievement %q: %w", id, err)
	}
	if !s.net.IsConnected(ctx) {
		s.log.Info("achievement deleted locally, remote delete deferred", "id", id)
		return nil
	}
	if err := s.api.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting achievement %q on server: %w", id, err)
	}
	return nil
}

// GetByAccount returns the account's achievements, refreshing from the
// server first when reachable.
func (s *AchievementSyncer) GetByAccount(ctx context.Context, accountID string) ([]*model.Achievement, error) {
	if s.net.IsConnected(ctx) {
		if err := s.SyncByAccount(ctx, accountID); err != nil {
			s.log.Warn("achievement refresh failed, serving local copy", "account", accountID, "error", err)
		}
	}
	return s.achievements.GetByAccount(ctx, accountID)
}

// SyncAll pulls the full catalog and reconciles the local table against it,
// deleting rows the server no longer has.
func (s *AchievementSyncer) SyncAll(ctx context.Context) error {
	if !s.net.IsConnected(ctx) {
		return ErrOffline
	}
	fetched, err := s.api.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("pulling achievements: %w", err)
	}

	keep := make(map[string]bool, len(fetched))
	if err := s.storeBatched(ctx, fetched, keep); err != nil {
		return err
	}
	if err := s.achievements.DeleteAbsent(ctx, keep); err != nil {
		return fmt.Errorf("removing stale achievements: %w", err)
	}
	return nil
}

// SyncByAccount pulls one account's achievements. No delete pass: absence
// from a scoped result says nothing about the rest of the table.
func (s *AchievementSyncer) SyncByAccount(ctx context.Context, accountID string) error {
	if !s.net.IsConnected(ctx) {
		return ErrOffline
	}
	fetched, err := s.api.GetByAccount(ctx, accountID)
	if err != nil {
		return fmt.Errorf("pulling achievements for %q: %w", accountID, err)
	}
	for _, a := range fetched {
		if a.AccountID == "" {
			a.AccountID = accountID
		}
	}
	return s.storeBatched(ctx, fetched, nil)
}

func (s *AchievementSyncer) storeBatched(ctx context.Context, fetched []*model.Achievement, keep map[string]bool) error {
	now := s.now().UTC()
	var firstErr error
	for idx, a := range fetched {
		if idx > 0 && idx%achievementBatchSize == 0 {
			s.sleep(ctx, achievementBatchPause)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		a.CreatedAt = model.DefaultTime(a.CreatedAt, now)
		a.UpdatedAt = model.DefaultTime(a.UpdatedAt, now)
		a.LastSyncedAt = now
		if err := s.achievements.Create(ctx, a); err != nil {
			s.log.Warn("storing achievement failed", "id", a.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if keep != nil {
			keep[a.ID] = true
		}
	}
	return firstErr
}
