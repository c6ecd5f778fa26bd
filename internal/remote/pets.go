package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/LucasFSouza552/mobile-pet-sub000/internal/model"
)

// PetAPI is the remote adapter for the pet entity family.
type PetAPI struct {
	c *Client
}

// NewPetAPI creates a PetAPI on the shared client.
func NewPetAPI(c *Client) *PetAPI {
	return &PetAPI{c: c}
}

// FetchPetByID fetches a single pet. Images come back as opaque picture
// identifiers; the pet synchronizer resolves them into URIs.
func (p *PetAPI) FetchPetByID(ctx context.Context, id string) (*model.Pet, error) {
	var payload petPayload
	if err := p.c.request(ctx, http.MethodGet, "/pets/"+url.PathEscape(id), nil, &payload); err != nil {
		return nil, fmt.Errorf("fetching pet %q: %w", id, err)
	}
	return payload.toModel(), nil
}

// LikePet records a like for the authenticated account.
func (p *PetAPI) LikePet(ctx context.Context, id string) error {
	if err := p.c.request(ctx, http.MethodPost, "/pets/"+url.PathEscape(id)+"/like", nil, nil); err != nil {
		return fmt.Errorf("liking pet %q: %w", id, err)
	}
	return nil
}

// DislikePet records a dislike for the authenticated account.
func (p *PetAPI) DislikePet(ctx context.Context, id string) error {
	if err := p.c.request(ctx, http.MethodPost, "/pets/"+url.PathEscape(id)+"/dislike", nil, nil); err != nil {
		return fmt.Errorf("disliking pet %q: %w", id, err)
	}
	return nil
}

// PictureResolver turns opaque picture identifiers into fetchable URIs.
// Identifiers that already look like URLs pass through unchanged.
type PictureResolver struct {
	baseURL string
}

// NewPictureResolver creates a resolver rooted at the picture service URL.
func NewPictureResolver(baseURL string) *PictureResolver {
	return &PictureResolver{baseURL: strings.TrimRight(baseURL, "/")}
}

// GetSource resolves one identifier.
func (r *PictureResolver) GetSource(identifier string) string {
	if strings.HasPrefix(identifier, "http://") || strings.HasPrefix(identifier, "https://") {
		return identifier
	}
	return r.baseURL + "/pictures/" + url.PathEscape(identifier)
}
