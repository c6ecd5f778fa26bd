package model

import (
	"strings"
	"time"
)

// PetType classifies the species of a pet.
type PetType string

const (
	PetDog   PetType = "dog"
	PetCat   PetType = "cat"
	PetBird  PetType = "bird"
	PetOther PetType = "other"
)

// Gender is a pet's gender.
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

// NormalizeGender lowercases and maps any raw gender string to one of the
// canonical values. Remote payloads use inconsistent casing ("Male", "MALE").
func NormalizeGender(raw string) Gender {
	switch Gender(strings.ToLower(strings.TrimSpace(raw))) {
	case GenderMale:
		return GenderMale
	case GenderFemale:
		return GenderFemale
	default:
		return GenderUnknown
	}
}

// Pet is the locally persisted representation of a pet. Image URLs live in a
// child table and cascade with the pet row.
type Pet struct {
	ID          string
	Name        string
	Type        PetType
	Age         *int
	Gender      Gender
	Weight      float64
	Description string
	Adopted     bool
	AccountID   string
	AdoptedAt   time.Time
	Images      []string

	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastSyncedAt time.Time
}

// PetImage is one row of the pet_images child table. Position preserves the
// remote ordering; LocalPath is set once the image cache has downloaded it.
type PetImage struct {
	PetID     string
	URL       string
	Position  int
	LocalPath string
	CreatedAt time.Time
}
