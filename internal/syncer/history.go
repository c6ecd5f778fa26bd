package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/LucasFSouza552/mobile-pet-sub000/internal/model"
)

// petSettleDelay is the pause between history entries during a pull. Each
// entry may trigger a pet fetch and upsert; the pause keeps the single write
// connection from starving concurrent readers.
const petSettleDelay = 40 * time.Millisecond

// HistorySyncer reconciles adoption, sponsorship, and donation records.
// Pulls persist the referenced pet before the history row, so a foreign key
// is never dangling; pushes use the external reference to pick create or
// update semantics.
type HistorySyncer struct {
	history HistoryStore
	pets    *PetSyncer
	api     HistoryAPI
	net     Connectivity
	log     *slog.Logger
	now     func() time.Time
	newID   func() string
	sleep   func(ctx context.Context, d time.Duration)
}

func NewHistorySyncer(history HistoryStore, pets *PetSyncer, api HistoryAPI, net Connectivity, logger *slog.Logger) *HistorySyncer {
	return &HistorySyncer{
		history: history,
		pets:    pets,
		api:     api,
		net:     net,
		log:     logger,
		now:     time.Now,
		newID:   uuid.NewString,
		sleep:   sleepCtx,
	}
}

// GetByAccount returns the account's history. When the backend is reachable
// the local copy is refreshed first; offline, the stored rows are served
// as-is.
func (s *HistorySyncer) GetByAccount(ctx context.Context, accountID string) ([]*model.History, error) {
	if s.net.IsConnected(ctx) {
		if err := s.Sync(ctx, accountID); err != nil {
			s.log.Warn("history refresh failed, serving local copy", "account", accountID, "error", err)
		}
	}
	return s.history.GetByAccount(ctx, accountID)
}

// CreateHistory records a new entry locally with a generated id, then pushes
// it when the network allows. Offline creation succeeds; the row stays in the
// unsynced set until the next push pass.
func (s *HistorySyncer) CreateHistory(ctx context.Context, entry *model.History) error {
	now := s.now().UTC()
	if entry.ID == "" {
		entry.ID = s.newID()
	}
	entry.Status = model.NormalizeHistoryStatus(string(entry.Status))
	entry.CreatedAt = model.DefaultTime(entry.CreatedAt, now)
	entry.UpdatedAt = now

	if err := s.history.Create(ctx, entry); err != nil {
		return fmt.Errorf("storing history entry: %w", err)
	}
	if !s.net.IsConnected(ctx) {
		s.log.Info("history entry stored locally, push deferred", "id", entry.ID)
		return nil
	}
	return s.push(ctx, entry)
}

// Sync runs a full bidirectional pass for one account: push unsynced local
// rows, then pull and persist the server's view.
func (s *HistorySyncer) Sync(ctx context.Context, accountID string) error {
	if !s.net.IsConnected(ctx) {
		return ErrOffline
	}

	pushErr := s.SyncToServer(ctx, accountID)
	pullErr := s.SyncFromServer(ctx, accountID)
	return errors.Join(pushErr, pullErr)
}

// SyncFromServer pulls the account's history and persists each entry,
// referenced pet first.
func (s *HistorySyncer) SyncFromServer(ctx context.Context, accountID string) error {
	entries, err := s.api.GetByAccount(ctx, accountID)
	if err != nil {
		return fmt.Errorf("pulling history: %w", err)
	}

	now := s.now().UTC()
	var firstErr error
	for idx, entry := range entries {
		if idx > 0 {
			s.sleep(ctx, petSettleDelay)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if !entry.Pet.IsZero() {
			var embedded *model.Pet
			if entry.Pet.Obj != nil {
				embedded = entry.Pet.Obj
			}
			if err := s.pets.EnsureLocal(ctx, entry.Pet.ID, embedded); err != nil {
				s.log.Warn("skipping history entry, pet unavailable",
					"id", entry.ID, "pet", entry.Pet.ID, "error", err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
		}

		if entry.AccountID == "" {
			entry.AccountID = accountID
		}
		entry.CreatedAt = model.DefaultTime(entry.CreatedAt, now)
		entry.UpdatedAt = model.DefaultTime(entry.UpdatedAt, now)
		entry.LastSyncedAt = now
		if err := s.history.Create(ctx, entry); err != nil {
			s.log.Warn("storing pulled history entry failed", "id", entry.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// SyncToServer pushes every local row that has never reached the server.
func (s *HistorySyncer) SyncToServer(ctx context.Context, accountID string) error {
	unsynced, err := s.history.GetUnsynced(ctx, accountID)
	if err != nil {
		return fmt.Errorf("loading unsynced history: %w", err)
	}

	var firstErr error
	for _, entry := range unsynced {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.push(ctx, entry); err != nil {
			s.log.Warn("pushing history entry failed", "id", entry.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// push sends one entry to the server and stamps the row synced. Entries with
// an external reference already have a server counterpart and go out as
// updates.
func (s *HistorySyncer) push(ctx context.Context, entry *model.History) error {
	ref := entry.ExternalReference
	if ref == "" {
		var err error
		ref, err = s.api.Create(ctx, entry)
		if err != nil {
			return fmt.Errorf("creating history on server: %w", err)
		}
	} else {
		if err := s.api.Update(ctx, entry); err != nil {
			return fmt.Errorf("updating history on server: %w", err)
		}
	}
	if err := s.history.MarkSynced(ctx, entry.ID, ref, s.now().UTC()); err != nil {
		return err
	}
	entry.ExternalReference = ref
	return nil
}

// sleepCtx pauses for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
