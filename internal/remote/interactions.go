package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/LucasFSouza552/mobile-pet-sub000/internal/model"
)

// InteractionAPI is the remote adapter for account-pet interactions.
type InteractionAPI struct {
	c *Client
}

// NewInteractionAPI creates an InteractionAPI on the shared client.
func NewInteractionAPI(c *Client) *InteractionAPI {
	return &InteractionAPI{c: c}
}

// GetByAccount fetches every interaction of the given account. Pets may come
// back by id or embedded; both shapes decode into the pet reference.
func (i *InteractionAPI) GetByAccount(ctx context.Context, accountID string) ([]*model.Interaction, error) {
	var payloads []interactionPayload
	path := "/accounts/" + url.PathEscape(accountID) + "/interactions"
	if err := i.c.request(ctx, http.MethodGet, path, nil, &payloads); err != nil {
		return nil, fmt.Errorf("fetching interactions for %q: %w", accountID, err)
	}

	interactions := make([]*model.Interaction, 0, len(payloads))
	for idx := range payloads {
		interactions = append(interactions, payloads[idx].toModel())
	}
	return interactions, nil
}

// Create registers a new interaction and returns the server-side row.
func (i *InteractionAPI) Create(ctx context.Context, in *model.Interaction) (*model.Interaction, error) {
	var p interactionPayload
	if err := i.c.request(ctx, http.MethodPost, "/interactions", interactionToPayload(in), &p); err != nil {
		return nil, fmt.Errorf("creating interaction: %w", err)
	}
	return p.toModel(), nil
}

// Update changes the status of an existing interaction.
func (i *InteractionAPI) Update(ctx context.Context, in *model.Interaction) error {
	path := "/interactions/" + url.PathEscape(in.ID)
	if err := i.c.request(ctx, http.MethodPut, path, interactionToPayload(in), nil); err != nil {
		return fmt.Errorf("updating interaction %q: %w", in.ID, err)
	}
	return nil
}

// Undo removes an interaction.
func (i *InteractionAPI) Undo(ctx context.Context, id string) error {
	if err := i.c.request(ctx, http.MethodDelete, "/interactions/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("undoing interaction %q: %w", id, err)
	}
	return nil
}
