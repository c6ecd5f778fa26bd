// Package model defines the domain types shared between the local
// repositories, the remote adapters, and the synchronizer layer.
package model

import "time"

// Role classifies an account.
type Role string

const (
	RoleUser        Role = "user"
	RoleInstitution Role = "institution"
	RoleAdmin       Role = "admin"
)

// NormalizeRole maps any raw role string to one of the known roles.
// Unknown or empty values are treated as a plain user.
func NormalizeRole(raw string) Role {
	switch Role(raw) {
	case RoleUser, RoleInstitution, RoleAdmin:
		return Role(raw)
	default:
		return RoleUser
	}
}

// Address is the embedded postal address of an account.
type Address struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	City         string `json:"city"`
	State        string `json:"state"`
	CEP          string `json:"cep"`
	Neighborhood string `json:"neighborhood"`
}

// Account is the locally persisted representation of a user profile.
// Email is unique in the local store; upserts are keyed by it.
type Account struct {
	ID        string
	Name      string
	Email     string
	Avatar    string
	Phone     string
	Role      Role
	CPF       string
	CNPJ      string
	Verified  bool
	Address   Address
	PostCount int

	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastSyncedAt time.Time
}
