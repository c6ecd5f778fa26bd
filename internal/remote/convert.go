package remote

import (
	"time"

	"github.com/LucasFSouza552/mobile-pet-sub000/internal/model"
)

// Wire payloads. The backend sends "id" or "_id" interchangeably and may
// reference related entities by bare id or embedded object; both shapes are
// resolved here, at the boundary, so the core only ever sees typed values.

func coerceID(id, altID string) string {
	if id != "" {
		return id
	}
	return altID
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// --- account -----------------------------------------------------------------

type accountPayload struct {
	ID        string        `json:"id,omitempty"`
	AltID     string        `json:"_id,omitempty"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Avatar    string        `json:"avatar,omitempty"`
	Phone     string        `json:"phone,omitempty"`
	Role      string        `json:"role,omitempty"`
	CPF       string        `json:"cpf,omitempty"`
	CNPJ      string        `json:"cnpj,omitempty"`
	Verified  bool          `json:"verified,omitempty"`
	Address   model.Address `json:"address"`
	PostCount int           `json:"postCount,omitempty"`
	CreatedAt *time.Time    `json:"createdAt,omitempty"`
	UpdatedAt *time.Time    `json:"updatedAt,omitempty"`
}

func (p *accountPayload) toModel() *model.Account {
	return &model.Account{
		ID:        coerceID(p.ID, p.AltID),
		Name:      p.Name,
		Email:     p.Email,
		Avatar:    p.Avatar,
		Phone:     p.Phone,
		Role:      model.NormalizeRole(p.Role),
		CPF:       p.CPF,
		CNPJ:      p.CNPJ,
		Verified:  p.Verified,
		Address:   p.Address,
		PostCount: p.PostCount,
		CreatedAt: timeOrZero(p.CreatedAt),
		UpdatedAt: timeOrZero(p.UpdatedAt),
	}
}

func accountToPayload(a *model.Account) *accountPayload {
	return &accountPayload{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Avatar:    a.Avatar,
		Phone:     a.Phone,
		Role:      string(a.Role),
		CPF:       a.CPF,
		CNPJ:      a.CNPJ,
		Verified:  a.Verified,
		Address:   a.Address,
		PostCount: a.PostCount,
	}
}

// --- pet ---------------------------------------------------------------------

type petPayload struct {
	ID          string                   `json:"id,omitempty"`
	AltID       string                   `json:"_id,omitempty"`
	Name        string                   `json:"name"`
	Type        string                   `json:"type"`
	Age         *int                     `json:"age,omitempty"`
	Gender      string                   `json:"gender,omitempty"`
	Weight      float64                  `json:"weight,omitempty"`
	Description string                   `json:"description,omitempty"`
	Adopted     bool                     `json:"adopted,omitempty"`
	Account     model.Ref[model.Account] `json:"account,omitempty"`
	AdoptedAt   *time.Time               `json:"adoptedAt,omitempty"`
	Images      []string                 `json:"images,omitempty"`
	CreatedAt   *time.Time               `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time               `json:"updatedAt,omitempty"`
}

// toModel resolves only the payload shape. Gender casing, picture identifier
// resolution, and timestamp defaulting belong to the pet synchronizer's
// normalization step.
func (p *petPayload) toModel() *model.Pet {
	return &model.Pet{
		ID:          coerceID(p.ID, p.AltID),
		Name:        p.Name,
		Type:        model.PetType(p.Type),
		Age:         p.Age,
		Gender:      model.Gender(p.Gender),
		Weight:      p.Weight,
		Description: p.Description,
		Adopted:     p.Adopted,
		AccountID:   p.Account.ID,
		AdoptedAt:   timeOrZero(p.AdoptedAt),
		Images:      p.Images,
		CreatedAt:   timeOrZero(p.CreatedAt),
		UpdatedAt:   timeOrZero(p.UpdatedAt),
	}
}

// --- history -----------------------------------------------------------------

type historyPayload struct {
	ID                string                        `json:"id,omitempty"`
	AltID             string                        `json:"_id,omitempty"`
	Type              string                        `json:"type"`
	Status            string                        `json:"status,omitempty"`
	Pet               model.Ref[petPayload]         `json:"pet,omitempty"`
	Institution       model.Ref[model.Institution]  `json:"institution,omitempty"`
	Account           model.Ref[model.Account]      `json:"account,omitempty"`
	Amount            string                        `json:"amount,omitempty"`
	ExternalReference string                        `json:"externalReference,omitempty"`
	CreatedAt         *time.Time                    `json:"createdAt,omitempty"`
	UpdatedAt         *time.Time                    `json:"updatedAt,omitempty"`
}

func (p *historyPayload) toModel() *model.History {
	h := &model.History{
		ID:                coerceID(p.ID, p.AltID),
		Type:              model.HistoryType(p.Type),
		Status:            model.NormalizeHistoryStatus(p.Status),
		AccountID:         p.Account.ID,
		Amount:            p.Amount,
		ExternalReference: p.ExternalReference,
		CreatedAt:         timeOrZero(p.CreatedAt),
		UpdatedAt:         timeOrZero(p.UpdatedAt),
	}
	if !p.Pet.IsZero() {
		if p.Pet.Obj != nil {
			h.Pet = model.RefEmbedded(p.Pet.ID, p.Pet.Obj.toModel())
		} else {
			h.Pet = model.RefByID[model.Pet](p.Pet.ID)
		}
	}
	if !p.Institution.IsZero() {
		inst := p.Institution // copy
		h.Institution = &inst
	}
	return h
}

func historyToPayload(h *model.History) *historyPayload {
	p := &historyPayload{
		ID:                h.ID,
		Type:              string(h.Type),
		Status:            string(h.Status),
		Amount:            h.Amount,
		ExternalReference: h.ExternalReference,
	}
	if h.AccountID != "" {
		p.Account = model.Ref[model.Account]{ID: h.AccountID}
	}
	if !h.Pet.IsZero() {
		p.Pet = model.Ref[petPayload]{ID: h.Pet.ID}
	}
	if !h.Institution.IsZero() {
		p.Institution = *h.Institution
	}
	return p
}

// --- achievement -------------------------------------------------------------

type achievementPayload struct {
	ID          string                   `json:"id,omitempty"`
	AltID       string                   `json:"_id,omitempty"`
	Name        string                   `json:"name"`
	Description string                   `json:"description,omitempty"`
	Type        string                   `json:"type"`
	Account     model.Ref[model.Account] `json:"account,omitempty"`
	UnlockedAt  *time.Time               `json:"unlockedAt,omitempty"`
	CreatedAt   *time.Time               `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time               `json:"updatedAt,omitempty"`
}

func (p *achievementPayload) toModel() *model.Achievement {
	return &model.Achievement{
		ID:          coerceID(p.ID, p.AltID),
		Name:        p.Name,
		Description: p.Description,
		Type:        model.AchievementType(p.Type),
		AccountID:   p.Account.ID,
		UnlockedAt:  timeOrZero(p.UnlockedAt),
		CreatedAt:   timeOrZero(p.CreatedAt),
		UpdatedAt:   timeOrZero(p.UpdatedAt),
	}
}

func achievementToPayload(a *model.Achievement) *achievementPayload {
	p := &achievementPayload{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		Type:        string(a.Type),
	}
	if a.AccountID != "" {
		p.Account = model.Ref[model.Account]{ID: a.AccountID}
	}
	if !a.UnlockedAt.IsZero() {
		t := a.UnlockedAt
		p.UnlockedAt = &t
	}
	return p
}

// --- interaction -------------------------------------------------------------

type interactionPayload struct {
	ID        string                   `json:"id,omitempty"`
	AltID     string                   `json:"_id,omitempty"`
	Account   model.Ref[model.Account] `json:"account,omitempty"`
	Pet       model.Ref[petPayload]    `json:"pet,omitempty"`
	Status    string                   `json:"status,omitempty"`
	CreatedAt *time.Time               `json:"createdAt,omitempty"`
	UpdatedAt *time.Time               `json:"updatedAt,omitempty"`
}

func (p *interactionPayload) toModel() *model.Interaction {
	in := &model.Interaction{
		ID:        coerceID(p.ID, p.AltID),
		AccountID: p.Account.ID,
		Status:    model.NormalizeInteractionStatus(p.Status),
		CreatedAt: timeOrZero(p.CreatedAt),
		UpdatedAt: timeOrZero(p.UpdatedAt),
	}
	if !p.Pet.IsZero() {
		if p.Pet.Obj != nil {
			in.Pet = model.RefEmbedded(p.Pet.ID, p.Pet.Obj.toModel())
		} else {
			in.Pet = model.RefByID[model.Pet](p.Pet.ID)
		}
	}
	return in
}

func interactionToPayload(in *model.Interaction) *interactionPayload {
	p := &interactionPayload{
		ID:     in.ID,
		Status: string(in.Status),
	}
	if in.AccountID != "" {
		p.Account = model.Ref[model.Account]{ID: in.AccountID}
	}
	if !in.Pet.IsZero() {
		p.Pet = model.Ref[petPayload]{ID: in.Pet.ID}
	}
	return p
}
