package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LucasFSouza552/mobile-pet-sub000/internal/model"
)

// petCacheTTL bounds how long the interaction feed reuses a resolved pet
// before asking the pet synchronizer again.
const petCacheTTL = 30 * time.Second

const (
	// interactionBatchSize bounds how many pulled rows are stored
	// back-to-back before the pass pauses to let other writers in.
	interactionBatchSize  = 5
	interactionBatchPause = 100 * time.Millisecond
)

// InteractionSyncer manages likes, dislikes, and views. Writes land locally
// with a generated id and are pushed opportunistically; the pull pass runs in
// small batches and never stores an interaction whose pet is missing.
type InteractionSyncer struct {
	interactions InteractionStore
	pets         *PetSyncer
	api          InteractionAPI
	net          Connectivity
	log          *slog.Logger
	now          func() time.Time
	newID        func() string
	sleep        func(ctx context.Context, d time.Duration)

	mu    sync.Mutex
	cache map[string]cachedPet
}

type cachedPet struct {
	pet     *model.Pet
	fetched time.Time
}

func NewInteractionSyncer(interactions InteractionStore, pets *PetSyncer, api InteractionAPI, net Connectivity, logger *slog.Logger) *InteractionSyncer {
	return &InteractionSyncer{
		interactions: interactions,
		pets:         pets,
		api:          api,
		net:          net,
		log:          logger,
		now:          time.Now,
		newID:        uuid.NewString,
		sleep:        sleepCtx,
		cache:        make(map[string]cachedPet),
	}
}

// Like records a liked interaction: local row first, remote push when
// reachable.
func (s *InteractionSyncer) Like(ctx context.Context, accountID, petID string) error {
	return s.setStatus(ctx, accountID, petID, model.StatusLiked)
}

// Dislike records a disliked interaction.
func (s *InteractionSyncer) Dislike(ctx context.Context, accountID, petID string) error {
	return s.setStatus(ctx, accountID, petID, model.StatusDisliked)
}

// MarkViewed records that the account saw a pet in the feed.
func (s *InteractionSyncer) MarkViewed(ctx context.Context, accountID, petID string) error {
	return s.setStatus(ctx, accountID, petID, model.StatusViewed)
}

func (s *InteractionSyncer) setStatus(ctx context.Context, accountID, petID string, status model.InteractionStatus) error {
	if err := s.pets.EnsureLocal(ctx, petID, nil); err != nil {
		s.log.Warn("recording interaction without local pet", "pet", petID, "error", err)
	}

	now := s.now().UTC()
	existing, err := s.interactions.GetByAccountAndPet(ctx, accountID, petID)
	if err != nil {
		return err
	}

	in := existing
	if in == nil {
		in = &model.Interaction{
			ID:        s.newID(),
			AccountID: accountID,
			Pet:       model.RefByID[model.Pet](petID),
			CreatedAt: now,
		}
	}
	in.Status = status
	in.UpdatedAt = now

	if err := s.interactions.Create(ctx, in); err != nil {
		return fmt.Errorf("storing interaction: %w", err)
	}
	if !s.net.IsConnected(ctx) {
		s.log.Info("interaction stored locally, push deferred", "pet", petID, "status", status)
		return nil
	}
	return s.push(ctx, in, existing != nil)
}

// Undo removes the account's interaction with a pet, locally and, when
// reachable, on the server.
func (s *InteractionSyncer) Undo(ctx context.Context, accountID, petID string) error {
	existing, err := s.interactions.GetByAccountAndPet(ctx, accountID, petID)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	if err := s.interactions.Delete(ctx, existing.ID); err != nil {
		return fmt.Errorf("deleting interaction: %w", err)
	}
	if !s.net.IsConnected(ctx) || !existing.Synced() {
		return nil
	}
	if err := s.api.Undo(ctx, existing.ID); err != nil {
		return fmt.Errorf("undoing interaction on server: %w", err)
	}
	return nil
}

// push sends one interaction to the server. A create answer carries the
// server-assigned row, which replaces the optimistic local one.
func (s *InteractionSyncer) push(ctx context.Context, in *model.Interaction, update bool) error {
	now := s.now().UTC()
	if update && in.Synced() {
		if err := s.api.Update(ctx, in); err != nil {
			return fmt.Errorf("updating interaction on server: %w", err)
		}
		in.LastSyncedAt = now
		return s.interactions.Create(ctx, in)
	}

	stored, err := s.api.Create(ctx, in)
	if err != nil {
		return fmt.Errorf("creating interaction on server: %w", err)
	}
	if stored != nil && stored.ID != "" && stored.ID != in.ID {
		if err := s.interactions.Delete(ctx, in.ID); err != nil {
			return err
		}
		in.ID = stored.ID
	}
	in.LastSyncedAt = now
	if err := s.interactions.Create(ctx, in); err != nil {
		return fmt.Errorf("storing pushed interaction: %w", err)
	}
	return nil
}

// Wishlist returns the account's liked, unadopted pets from the local store.
func (s *InteractionSyncer) Wishlist(ctx context.Context, accountID string) ([]*model.Pet, error) {
	return s.interactions.Wishlist(ctx, accountID)
}

// PetFor resolves a pet for feed rendering through a short-lived cache, so
// scrolling the same pets does not hammer the store or the network.
func (s *InteractionSyncer) PetFor(ctx context.Context, petID string) (*model.Pet, error) {
	now := s.now()

	s.mu.Lock()
	if entry, ok := s.cache[petID]; ok && now.Sub(entry.fetched) < petCacheTTL {
		s.mu.Unlock()
		return entry.pet, nil
	}
	s.mu.Unlock()

	pet, err := s.pets.GetPet(ctx, petID)
	if err != nil || pet == nil {
		return pet, err
	}

	s.mu.Lock()
	s.cache[petID] = cachedPet{pet: pet, fetched: now}
	s.mu.Unlock()
	return pet, nil
}

// Sync reconciles the account's interactions with the server: push local
// rows that never made it out, then pull the server's view in batches.
func (s *InteractionSyncer) Sync(ctx context.Context, accountID string) error {
	if !s.net.IsConnected(ctx) {
		return ErrOffline
	}

	var firstErr error
	local, err := s.interactions.GetByAccount(ctx, accountID)
	if err != nil {
		return err
	}
	for _, in := range local {
		if in.Synced() {
			continue
		}
		if err := s.push(ctx, in, false); err != nil {
			s.log.Warn("pushing interaction failed", "id", in.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	fetched, err := s.api.GetByAccount(ctx, accountID)
	if err != nil {
		if firstErr == nil {
			firstErr = fmt.Errorf("pulling interactions: %w", err)
		}
		return firstErr
	}

	now := s.now().UTC()
	for idx, in := range fetched {
		if idx > 0 && idx%interactionBatchSize == 0 {
			s.sleep(ctx, interactionBatchPause)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if in.Pet.IsZero() {
			s.log.Warn("skipping interaction without pet reference", "id", in.ID)
			continue
		}
		var embedded *model.Pet
		if in.Pet.Obj != nil {
			embedded = in.Pet.Obj
		}
		if err := s.pets.EnsureLocal(ctx, in.Pet.ID, embedded); err != nil {
			s.log.Warn("skipping interaction, pet unavailable", "id", in.ID, "pet", in.Pet.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if in.AccountID == "" {
			in.AccountID = accountID
		}
		in.CreatedAt = model.DefaultTime(in.CreatedAt, now)
		in.UpdatedAt = model.DefaultTime(in.UpdatedAt, now)
		in.LastSyncedAt = now
		if err := s.interactions.Create(ctx, in); err != nil {
			s.log.Warn("storing pulled interaction failed", "id", in.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
