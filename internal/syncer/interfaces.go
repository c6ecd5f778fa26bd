// Package syncer implements the offline-first synchronization core: one
// synchronizer per entity family plus the [Orchestrator] that runs them as a
// unit. Every read follows the same shape: serve the local store first, check
// connectivity, and only then go to the network; every write lands locally
// before any push is attempted, so the app stays usable with no backend at
// all.
//
// The collaborators are declared here as interfaces and implemented by the
// store, remote, connectivity, and imagecache packages.
package syncer

import (
	"context"
	"errors"
	"time"

	"github.com/LucasFSouza552/mobile-pet-sub000/internal/model"
)

var (
	// ErrOffline is returned when an operation needs the network and the
	// connectivity oracle reports none.
	ErrOffline = errors.New("no network connection")

	// ErrNotFound is returned when an entity exists neither locally nor, if
	// reachable, on the server.
	ErrNotFound = errors.New("entity not found")

	// ErrSyncInProgress is returned by the orchestrator when a full sync is
	// already running.
	ErrSyncInProgress = errors.New("sync already in progress")
)

// Connectivity answers whether the backend is currently reachable.
// Implemented by [connectivity.Oracle].
type Connectivity interface {
	IsConnected(ctx context.Context) bool
}

// AccountAPI is the remote surface for accounts.
// Implemented by [remote.AccountAPI].
type AccountAPI interface {
	GetProfile(ctx context.Context) (*model.Account, error)
	GetByID(ctx context.Context, id string) (*model.Account, error)
	UpdateAccount(ctx context.Context, acc *model.Account) error
	Donate(ctx context.Context, amount string) error
	SponsorInstitution(ctx context.Context, institutionID, amount string) error
}

// PetAPI is the remote surface for pets. Implemented by [remote.PetAPI].
type PetAPI interface {
	FetchPetByID(ctx context.Context, id string) (*model.Pet, error)
	LikePet(ctx context.Context, id string) error
	DislikePet(ctx context.Context, id string) error
}

// InteractionAPI is the remote surface for interactions.
// Implemented by [remote.InteractionAPI].
type InteractionAPI interface {
	GetByAccount(ctx context.Context, accountID string) ([]*model.Interaction, error)
	Create(ctx context.Context, in *model.Interaction) (*model.Interaction, error)
	Update(ctx context.Context, in *model.Interaction) error
	Undo(ctx context.Context, id string) error
}

// HistoryAPI is the remote surface for history entries.
// Implemented by [remote.HistoryAPI].
type HistoryAPI interface {
	GetByAccount(ctx context.Context, accountID string) ([]*model.History, error)
	Create(ctx context.Context, entry *model.History) (externalReference string, err error)
	Update(ctx context.Context, entry *model.History) error
}

// AchievementAPI is the remote surface for achievements. Achievements are
// the one entity with an explicit remote delete.
// Implemented by [remote.AchievementAPI].
type AchievementAPI interface {
	GetAll(ctx context.Context) ([]*model.Achievement, error)
	GetByAccount(ctx context.Context, accountID string) ([]*model.Achievement, error)
	Create(ctx context.Context, a *model.Achievement) (*model.Achievement, error)
	Update(ctx context.Context, a *model.Achievement) error
	Delete(ctx context.Context, id string) error
}

// PictureResolver turns the backend's mixed picture identifiers (absolute
// urls or bare ids) into fetchable urls. Implemented by
// [remote.PictureResolver].
type PictureResolver interface {
	GetSource(identifier string) string
}

// ImageCache is the local picture mirror: it queues background downloads,
// drops files whose urls no longer belong to a pet, and substitutes cached
// paths into reads. Implemented by [imagecache.Cache]. A nil cache disables
// caching.
type ImageCache interface {
	Schedule(ctx context.Context, petID string, urls []string)
	Discard(images []*model.PetImage)
	Localize(images []*model.PetImage) []string
}

// AccountStore is the local repository surface the account synchronizer
// needs. Implemented by [store.AccountRepo].
type AccountStore interface {
	GetAll(ctx context.Context) ([]*model.Account, error)
	GetByID(ctx context.Context, id string) (*model.Account, error)
	Create(ctx context.Context, a *model.Account) error
}

// PetStore is the local repository surface for pets.
// Implemented by [store.PetRepo].
type PetStore interface {
	GetByID(ctx context.Context, id string) (*model.Pet, error)
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, p *model.Pet) error
	ImagesForPet(ctx context.Context, petID string) ([]*model.PetImage, error)
	LastSyncTime(ctx context.Context) (time.Time, error)
}

// HistoryStore is the local repository surface for history entries.
// Implemented by [store.HistoryRepo].
type HistoryStore interface {
	GetByAccount(ctx context.Context, accountID string) ([]*model.History, error)
	GetUnsynced(ctx context.Context, accountID string) ([]*model.History, error)
	Create(ctx context.Context, h *model.History) error
	MarkSynced(ctx context.Context, id, externalReference string, at time.Time) error
}

// AchievementStore is the local repository surface for achievements.
// Implemented by [store.AchievementRepo].
type AchievementStore interface {
	GetAll(ctx context.Context) ([]*model.Achievement, error)
	GetByAccount(ctx context.Context, accountID string) ([]*model.Achievement, error)
	Create(ctx context.Context, a *model.Achievement) error
	Delete(ctx context.Context, id string) error
	DeleteAbsent(ctx context.Context, keep map[string]bool) error
}

// InteractionStore is the local repository surface for interactions.
// Implemented by [store.InteractionRepo].
type InteractionStore interface {
	GetByAccount(ctx context.Context, accountID string) ([]*model.Interaction, error)
	GetByAccountAndPet(ctx context.Context, accountID, petID string) (*model.Interaction, error)
	Wishlist(ctx context.Context, accountID string) ([]*model.Pet, error)
	Create(ctx context.Context, in *model.Interaction) error
	Delete(ctx context.Context, id string) error
}
