package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/LucasFSouza552/mobile-pet-sub000/internal/model"
)

// PetSyncer resolves pets through the local-first read path. Remote fetches
// for the same pet are collapsed into a single request, so a feed rendering
// the same pet in several places costs one round trip.
type PetSyncer struct {
	pets     PetStore
	api      PetAPI
	pictures PictureResolver
	net      Connectivity
	images   ImageCache
	log      *slog.Logger
	now      func() time.Time

	group singleflight.Group
}

// NewPetSyncer creates a PetSyncer. images may be nil to disable the picture
// cache.
func NewPetSyncer(pets PetStore, api PetAPI, pictures PictureResolver, net Connectivity, images ImageCache, logger *slog.Logger) *PetSyncer {
	return &PetSyncer{
		pets:     pets,
		api:      api,
		pictures: pictures,
		net:      net,
		images:   images,
		log:      logger,
		now:      time.Now,
	}
}

// GetPet returns the pet with the given id. Offline, the local row (or nil)
// is the answer. Online, the server copy is fetched, normalized, and
// persisted; a remote failure degrades to the local row instead of surfacing,
// so reads never break just because the backend is flaky.
func (s *PetSyncer) GetPet(ctx context.Context, id string) (*model.Pet, error) {
	local, err := s.pets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.net.IsConnected(ctx) {
		return s.localized(ctx, local), nil
	}

	fetched, err := s.fetch(ctx, id)
	if err != nil {
		s.log.Warn("pet fetch failed, serving local copy", "pet", id, "error", err)
		return s.localized(ctx, local), nil
	}
	return s.localized(ctx, fetched), nil
}

// localized swaps cached file paths into the pet's image list where the
// files are on disk, so rendering works without the network.
func (s *PetSyncer) localized(ctx context.Context, pet *model.Pet) *model.Pet {
	if s.images == nil || pet == nil || len(pet.Images) == 0 {
		return pet
	}
	rows, err := s.pets.ImagesForPet(ctx, pet.ID)
	if err != nil || len(rows) == 0 {
		return pet
	}
	pet.Images = s.images.Localize(rows)
	return pet
}

// EnsureLocal guarantees a local row for the given pet id before a dependent
// row (history, interaction) references it. When the caller already holds an
// embedded pet object it is persisted directly; otherwise the pet is fetched.
func (s *PetSyncer) EnsureLocal(ctx context.Context, id string, embedded *model.Pet) error {
	if id == "" {
		return nil
	}
	exists, err := s.pets.Exists(ctx, id)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if embedded != nil {
		return s.persist(ctx, embedded)
	}
	if !s.net.IsConnected(ctx) {
		return fmt.Errorf("pet %q: %w", id, ErrOffline)
	}
	_, err = s.fetch(ctx, id)
	return err
}

// fetch performs the deduplicated remote round trip.
func (s *PetSyncer) fetch(ctx context.Context, id string) (*model.Pet, error) {
	v, err, _ := s.group.Do(id, func() (any, error) {
		pet, err := s.api.FetchPetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("fetching pet %q: %w", id, err)
		}
		if pet == nil {
			return nil, fmt.Errorf("pet %q: %w", id, ErrNotFound)
		}
		if err := s.persist(ctx, pet); err != nil {
			return nil, err
		}
		return pet, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Pet), nil
}

// persist normalizes a remote pet and upserts it. As side effects it drops
// cached files for urls the server no longer lists and schedules downloads
// for the current set.
func (s *PetSyncer) persist(ctx context.Context, pet *model.Pet) error {
	s.normalize(pet)

	var stale []*model.PetImage
	if s.images != nil {
		current, err := s.pets.ImagesForPet(ctx, pet.ID)
		if err != nil {
			s.log.Warn("reading stored images failed", "pet", pet.ID, "error", err)
		}
		keep := make(map[string]bool, len(pet.Images))
		for _, u := range pet.Images {
			keep[u] = true
		}
		for _, img := range current {
			if !keep[img.URL] {
				stale = append(stale, img)
			}
		}
	}

	if err := s.pets.Create(ctx, pet); err != nil {
		return fmt.Errorf("storing pet %q: %w", pet.ID, err)
	}

	if s.images != nil {
		if len(stale) > 0 {
			s.images.Discard(stale)
		}
		if len(pet.Images) > 0 {
			s.images.Schedule(ctx, pet.ID, pet.Images)
		}
	}
	return nil
}

// normalize repairs the known payload irregularities in place: mixed-case
// gender values, picture ids instead of urls, and missing timestamps.
func (s *PetSyncer) normalize(pet *model.Pet) {
	now := s.now().UTC()

	pet.Gender = model.NormalizeGender(string(pet.Gender))
	for idx, img := range pet.Images {
		pet.Images[idx] = s.pictures.GetSource(img)
	}
	pet.CreatedAt = model.DefaultTime(pet.CreatedAt, now)
	pet.UpdatedAt = model.DefaultTime(pet.UpdatedAt, now)
	pet.LastSyncedAt = now
}

// Like records a like on the server. The interaction synchronizer owns the
// local write; this is the remote leg only.
func (s *PetSyncer) Like(ctx context.Context, id string) error {
	return s.api.LikePet(ctx, id)
}

// Dislike records a dislike on the server.
func (s *PetSyncer) Dislike(ctx context.Context, id string) error {
	return s.api.DislikePet(ctx, id)
}

// LastSyncTime reports when any pet was last written from the server.
func (s *PetSyncer) LastSyncTime(ctx context.Context) (time.Time, error) {
	return s.pets.LastSyncTime(ctx)
}
