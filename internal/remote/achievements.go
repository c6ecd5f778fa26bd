package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/LucasFSouza552/mobile-pet-sub000/internal/model"
)

// AchievementAPI is the remote adapter for achievements.
type AchievementAPI struct {
	c *Client
}

// NewAchievementAPI creates an AchievementAPI on the shared client.
func NewAchievementAPI(c *Client) *AchievementAPI {
	return &AchievementAPI{c: c}
}

// GetAll fetches the full achievement catalog. The result is the authoritative
// set; anything stored locally but absent here no longer exists on the server.
func (a *AchievementAPI) GetAll(ctx context.Context) ([]*model.Achievement, error) {
	var payloads []achievementPayload
	if err := a.c.request(ctx, http.MethodGet, "/achievements", nil, &payloads); err != nil {
		return nil, fmt.Errorf("fetching achievements: %w", err)
	}
	return achievementsToModels(payloads), nil
}

// GetByAccount fetches the achievements unlocked by a single account.
func (a *AchievementAPI) GetByAccount(ctx context.Context, accountID string) ([]*model.Achievement, error) {
	var payloads []achievementPayload
	path := "/accounts/" + url.PathEscape(accountID) + "/achievements"
	if err := a.c.request(ctx, http.MethodGet, path, nil, &payloads); err != nil {
		return nil, fmt.Errorf("fetching achievements for %q: %w", accountID, err)
	}
	return achievementsToModels(payloads), nil
}

// Create pushes a new achievement and returns the stored server row.
func (a *AchievementAPI) Create(ctx context.Context, ach *model.Achievement) (*model.Achievement, error) {
	var p achievementPayload
	if err := a.c.request(ctx, http.MethodPost, "/achievements", achievementToPayload(ach), &p); err != nil {
		return nil, fmt.Errorf("creating achievement: %w", err)
	}
	return p.toModel(), nil
}

// Update pushes changes to an existing achievement.
func (a *AchievementAPI) Update(ctx context.Context, ach *model.Achievement) error {
	path := "/achievements/" + url.PathEscape(ach.ID)
	if err := a.c.request(ctx, http.MethodPut, path, achievementToPayload(ach), nil); err != nil {
		return fmt.Errorf("updating achievement %q: %w", ach.ID, err)
	}
	return nil
}

// Delete removes an achievement on the server.
func (a *AchievementAPI) Delete(ctx context.Context, id string) error {
	path := "/achievements/" + url.PathEscape(id)
	if err := a.c.request(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("deleting achievement %q: %w", id, err)
	}
	return nil
}

func achievementsToModels(payloads []achievementPayload) []*model.Achievement {
	out := make([]*model.Achievement, 0, len(payloads))
	for idx := range payloads {
		out = append(out, payloads[idx].toModel())
	}
	return out
}
