package model

import (
	"strings"
	"time"
)

// InteractionStatus is the state of an account's interaction with a pet.
type InteractionStatus string

const (
	StatusLiked    InteractionStatus = "liked"
	StatusDisliked InteractionStatus = "disliked"
	StatusViewed   InteractionStatus = "viewed"
)

// NormalizeInteractionStatus maps any raw status string to a known value.
// The backend has been observed sending "", "pending", and "requested" in
// addition to the declared values; unknown input defaults to viewed rather
// than being rejected, since an interaction row we cannot classify is still
// worth keeping.
func NormalizeInteractionStatus(raw string) InteractionStatus {
	switch InteractionStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusLiked:
		return StatusLiked
	case StatusDisliked:
		return StatusDisliked
	default:
		return StatusViewed
	}
}

// Interaction links an account to a pet it liked, disliked, or viewed.
// Wishlist views derive from rows with status liked whose pet is not adopted.
type Interaction struct {
	ID        string
	AccountID string
	Pet       *Ref[Pet]
	Status    InteractionStatus

	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastSyncedAt time.Time
}

// Synced reports whether the row has ever reached the server.
func (in *Interaction) Synced() bool {
	return !in.LastSyncedAt.IsZero()
}
