package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/LucasFSouza552/mobile-pet-sub000/internal/model"
)

// AccountAPI is the remote adapter for the account entity family.
type AccountAPI struct {
	c *Client
}

// NewAccountAPI creates an AccountAPI on the shared client.
func NewAccountAPI(c *Client) *AccountAPI {
	return &AccountAPI{c: c}
}

// GetProfile fetches the authenticated caller's own profile.
func (a *AccountAPI) GetProfile(ctx context.Context) (*model.Account, error) {
	var p accountPayload
	if err := a.c.request(ctx, http.MethodGet, "/accounts/me", nil, &p); err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	return p.toModel(), nil
}

// GetByID fetches the account with the given id.
func (a *AccountAPI) GetByID(ctx context.Context, id string) (*model.Account, error) {
	var p accountPayload
	if err := a.c.request(ctx, http.MethodGet, "/accounts/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, fmt.Errorf("fetching account %q: %w", id, err)
	}
	return p.toModel(), nil
}

// UpdateAccount pushes profile changes to the server.
func (a *AccountAPI) UpdateAccount(ctx context.Context, acc *model.Account) error {
	path := "/accounts/" + url.PathEscape(acc.ID)
	if err := a.c.request(ctx, http.MethodPut, path, accountToPayload(acc), nil); err != nil {
		return fmt.Errorf("updating account %q: %w", acc.ID, err)
	}
	return nil
}

// Donate submits a donation for the authenticated account. The amount is
// decimal text, passed through unaltered.
func (a *AccountAPI) Donate(ctx context.Context, amount string) error {
	body := map[string]string{"amount": amount}
	if err := a.c.request(ctx, http.MethodPost, "/donations", body, nil); err != nil {
		return fmt.Errorf("donating: %w", err)
	}
	return nil
}

// SponsorInstitution submits a sponsorship for the given institution.
func (a *AccountAPI) SponsorInstitution(ctx context.Context, institutionID, amount string) error {
	body := map[string]string{"amount": amount}
	path := "/institutions/" + url.PathEscape(institutionID) + "/sponsor"
	if err := a.c.request(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("sponsoring institution %q: %w", institutionID, err)
	}
	return nil
}
