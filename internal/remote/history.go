package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/LucasFSouza552/mobile-pet-sub000/internal/model"
)

// HistoryAPI is the remote adapter for history entries.
type HistoryAPI struct {
	c *Client
}

// NewHistoryAPI creates a HistoryAPI on the shared client.
func NewHistoryAPI(c *Client) *HistoryAPI {
	return &HistoryAPI{c: c}
}

// GetByAccount fetches every history entry of the given account.
func (h *HistoryAPI) GetByAccount(ctx context.Context, accountID string) ([]*model.History, error) {
	var payloads []historyPayload
	path := "/accounts/" + url.PathEscape(accountID) + "/history"
	if err := h.c.request(ctx, http.MethodGet, path, nil, &payloads); err != nil {
		return nil, fmt.Errorf("fetching history for %q: %w", accountID, err)
	}

	entries := make([]*model.History, 0, len(payloads))
	for idx := range payloads {
		entries = append(entries, payloads[idx].toModel())
	}
	return entries, nil
}

// Create pushes a locally created entry and returns the server-assigned
// external reference for the local row to store.
func (h *HistoryAPI) Create(ctx context.Context, entry *model.History) (string, error) {
	var p historyPayload
	if err := h.c.request(ctx, http.MethodPost, "/history", historyToPayload(entry), &p); err != nil {
		return "", fmt.Errorf("creating history entry: %w", err)
	}
	ref := p.ExternalReference
	if ref == "" {
		ref = coerceID(p.ID, p.AltID)
	}
	return ref, nil
}

// Update pushes changes for an entry that already has a server counterpart,
// addressed by its external reference.
func (h *HistoryAPI) Update(ctx context.Context, entry *model.History) error {
	path := "/history/" + url.PathEscape(entry.ExternalReference)
	if err := h.c.request(ctx, http.MethodPut, path, historyToPayload(entry), nil); err != nil {
		return fmt.Errorf("updating history %q: %w", entry.ExternalReference, err)
	}
	return nil
}

// Delete removes a history entry on the server.
func (h *HistoryAPI) Delete(ctx context.Context, externalReference string) error {
	path := "/history/" + url.PathEscape(externalReference)
	if err := h.c.request(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("deleting history %q: %w", externalReference, err)
	}
	return nil
}
