package model

import "time"

// AchievementType classifies what kind of action unlocked an achievement.
type AchievementType string

const (
	AchievementDonation    AchievementType = "donation"
	AchievementSponsorship AchievementType = "sponsorship"
	AchievementAdoption    AchievementType = "adoption"
)

// Achievement is a badge unlocked by an account. The remote set is
// authoritative for membership: the global reconciliation pass removes local
// rows absent from the fetched set.
type Achievement struct {
	ID          string
	Name        string
	Description string
	Type        AchievementType
	AccountID   string
	UnlockedAt  time.Time

	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastSyncedAt time.Time
}
