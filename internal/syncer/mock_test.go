package syncer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/LucasFSouza552/mobile-pet-sub000/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noSleep(context.Context, time.Duration) {}

// --- connectivity ------------------------------------------------------------

type mockNet struct {
	mu     sync.Mutex
	online bool
}

func (m *mockNet) IsConnected(context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *mockNet) set(online bool) {
	m.mu.Lock()
	m.online = online
	m.mu.Unlock()
}

// --- local stores ------------------------------------------------------------

type mockAccountStore struct {
	mu       sync.Mutex
	accounts map[string]*model.Account // keyed by email
}

func newMockAccountStore() *mockAccountStore {
	return &mockAccountStore{accounts: make(map[string]*model.Account)}
}

func (m *mockAccountStore) GetAll(context.Context) ([]*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Account
	for _, a := range m.accounts {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockAccountStore) GetByID(_ context.Context, id string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockAccountStore) Create(_ context.Context, a *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.accounts[a.Email] = &cp
	return nil
}

type mockPetStore struct {
	mu     sync.Mutex
	pets   map[string]*model.Pet
	images map[string][]*model.PetImage
}

func newMockPetStore(pets ...*model.Pet) *mockPetStore {
	m := &mockPetStore{
		pets:   make(map[string]*model.Pet),
		images: make(map[string][]*model.PetImage),
	}
	for _, p := range pets {
		m.pets[p.ID] = p
		for i, u := range p.Images {
			m.images[p.ID] = append(m.images[p.ID], &model.PetImage{PetID: p.ID, URL: u, Position: i})
		}
	}
	return m
}

func (m *mockPetStore) GetByID(_ context.Context, id string) (*model.Pet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pets[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockPetStore) Exists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pets[id]
	return ok, nil
}

func (m *mockPetStore) Create(_ context.Context, p *model.Pet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.pets[p.ID] = &cp

	// Mirror the repository's image reconciliation: surviving urls keep
	// their cached path, everything else is replaced.
	if p.Images != nil {
		prior := make(map[string]string, len(m.images[p.ID]))
		for _, img := range m.images[p.ID] {
			prior[img.URL] = img.LocalPath
		}
		rows := make([]*model.PetImage, 0, len(p.Images))
		for i, u := range p.Images {
			rows = append(rows, &model.PetImage{PetID: p.ID, URL: u, Position: i, LocalPath: prior[u]})
		}
		m.images[p.ID] = rows
	}
	return nil
}

func (m *mockPetStore) ImagesForPet(_ context.Context, petID string) ([]*model.PetImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.PetImage, 0, len(m.images[petID]))
	for _, img := range m.images[petID] {
		cp := *img
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockPetStore) LastSyncTime(context.Context) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest time.Time
	for _, p := range m.pets {
		if p.LastSyncedAt.After(latest) {
			latest = p.LastSyncedAt
		}
	}
	return latest, nil
}

type mockHistoryStore struct {
	mu      sync.Mutex
	entries map[string]*model.History
}

func newMockHistoryStore() *mockHistoryStore {
	return &mockHistoryStore{entries: make(map[string]*model.History)}
}

func (m *mockHistoryStore) GetByAccount(_ context.Context, accountID string) ([]*model.History, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.History
	for _, h := range m.entries {
		if h.AccountID == accountID {
			cp := *h
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockHistoryStore) GetUnsynced(_ context.Context, accountID string) ([]*model.History, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.History
	for _, h := range m.entries {
		if h.AccountID == accountID && h.LastSyncedAt.IsZero() {
			cp := *h
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockHistoryStore) Create(_ context.Context, h *model.History) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *h
	m.entries[h.ID] = &cp
	return nil
}

func (m *mockHistoryStore) MarkSynced(_ context.Context, id, externalReference string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.entries[id]
	if !ok {
		return fmt.Errorf("history %q not found", id)
	}
	h.ExternalReference = externalReference
	h.LastSyncedAt = at
	return nil
}

func (m *mockHistoryStore) get(id string) *model.History {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.entries[id]
	if !ok {
		return nil
	}
	cp := *h
	return &cp
}

type mockAchievementStore struct {
	mu   sync.Mutex
	rows map[string]*model.Achievement
}

func newMockAchievementStore(rows ...*model.Achievement) *mockAchievementStore {
	m := &mockAchievementStore{rows: make(map[string]*model.Achievement)}
	for _, a := range rows {
		m.rows[a.ID] = a
	}
	return m
}

func (m *mockAchievementStore) GetAll(context.Context) ([]*model.Achievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Achievement
	for _, a := range m.rows {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockAchievementStore) GetByAccount(_ context.Context, accountID string) ([]*model.Achievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Achievement
	for _, a := range m.rows {
		if a.AccountID == accountID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockAchievementStore) Create(_ context.Context, a *model.Achievement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.rows[a.ID] = &cp
	return nil
}

func (m *mockAchievementStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *mockAchievementStore) DeleteAbsent(_ context.Context, keep map[string]bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.rows {
		if !keep[id] {
			delete(m.rows, id)
		}
	}
	return nil
}

func (m *mockAchievementStore) ids() map[string]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]bool, len(m.rows))
	for id := range m.rows {
		out[id] = true
	}
	return out
}

type mockInteractionStore struct {
	mu   sync.Mutex
	rows map[string]*model.Interaction
}

func newMockInteractionStore() *mockInteractionStore {
	return &mockInteractionStore{rows: make(map[string]*model.Interaction)}
}

func (m *mockInteractionStore) GetByAccount(_ context.Context, accountID string) ([]*model.Interaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Interaction
	for _, in := range m.rows {
		if in.AccountID == accountID {
			cp := *in
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockInteractionStore) GetByAccountAndPet(_ context.Context, accountID, petID string) (*model.Interaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, in := range m.rows {
		if in.AccountID == accountID && !in.Pet.IsZero() && in.Pet.ID == petID {
			cp := *in
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockInteractionStore) Wishlist(context.Context, string) ([]*model.Pet, error) {
	return nil, nil
}

func (m *mockInteractionStore) Create(_ context.Context, in *model.Interaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *in
	m.rows[in.ID] = &cp
	return nil
}

func (m *mockInteractionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

// --- remote adapters ---------------------------------------------------------

type mockAccountAPI struct {
	mu      sync.Mutex
	profile *model.Account
	byID    map[string]*model.Account
	err     error

	profileCalls int
	updates      []*model.Account
	donations    []string
}

func (m *mockAccountAPI) GetProfile(context.Context) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profileCalls++
	if m.err != nil {
		return nil, m.err
	}
	cp := *m.profile
	return &cp, nil
}

func (m *mockAccountAPI) GetByID(_ context.Context, id string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *mockAccountAPI) UpdateAccount(_ context.Context, acc *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *acc
	m.updates = append(m.updates, &cp)
	return m.err
}

func (m *mockAccountAPI) Donate(_ context.Context, amount string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.donations = append(m.donations, amount)
	return m.err
}

func (m *mockAccountAPI) SponsorInstitution(context.Context, string, string) error {
	return nil
}

type mockPetAPI struct {
	mu    sync.Mutex
	pets  map[string]*model.Pet
	err   error
	delay time.Duration

	fetches []string
	likes   []string
}

func newMockPetAPI(pets ...*model.Pet) *mockPetAPI {
	m := &mockPetAPI{pets: make(map[string]*model.Pet)}
	for _, p := range pets {
		m.pets[p.ID] = p
	}
	return m
}

func (m *mockPetAPI) FetchPetByID(_ context.Context, id string) (*model.Pet, error) {
	m.mu.Lock()
	m.fetches = append(m.fetches, id)
	delay, err, p := m.delay, m.err, m.pets[id]
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}
	cp := *p
	if p.Images != nil {
		cp.Images = append([]string(nil), p.Images...)
	}
	return &cp, nil
}

func (m *mockPetAPI) fetchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.fetches)
}

func (m *mockPetAPI) LikePet(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.likes = append(m.likes, id)
	return m.err
}

func (m *mockPetAPI) DislikePet(context.Context, string) error {
	return nil
}

type mockInteractionAPI struct {
	mu     sync.Mutex
	remote []*model.Interaction
	err    error

	created []*model.Interaction
	updated []*model.Interaction
	undone  []string
	nextID  int
}

func (m *mockInteractionAPI) GetByAccount(context.Context, string) ([]*model.Interaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]*model.Interaction, 0, len(m.remote))
	for _, in := range m.remote {
		cp := *in
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockInteractionAPI) Create(_ context.Context, in *model.Interaction) (*model.Interaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.nextID++
	cp := *in
	cp.ID = fmt.Sprintf("srv-%d", m.nextID)
	m.created = append(m.created, &cp)
	return &cp, nil
}

func (m *mockInteractionAPI) Update(_ context.Context, in *model.Interaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *in
	m.updated = append(m.updated, &cp)
	return m.err
}

func (m *mockInteractionAPI) Undo(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undone = append(m.undone, id)
	return m.err
}

type mockHistoryAPI struct {
	mu     sync.Mutex
	remote []*model.History
	err    error

	created []*model.History
	updated []*model.History
	nextRef int
}

func (m *mockHistoryAPI) GetByAccount(context.Context, string) ([]*model.History, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]*model.History, 0, len(m.remote))
	for _, h := range m.remote {
		cp := *h
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockHistoryAPI) Create(_ context.Context, entry *model.History) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.nextRef++
	cp := *entry
	m.created = append(m.created, &cp)
	return fmt.Sprintf("ext-%d", m.nextRef), nil
}

func (m *mockHistoryAPI) Update(_ context.Context, entry *model.History) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	m.updated = append(m.updated, &cp)
	return m.err
}

type mockAchievementAPI struct {
	mu        sync.Mutex
	all       []*model.Achievement
	byAccount []*model.Achievement
	err       error

	created []*model.Achievement
	updated []*model.Achievement
	deleted []string
	nextID  int
}

func (m *mockAchievementAPI) GetAll(context.Context) ([]*model.Achievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyAchievements(m.all), m.err
}

func (m *mockAchievementAPI) GetByAccount(context.Context, string) ([]*model.Achievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyAchievements(m.byAccount), m.err
}

func (m *mockAchievementAPI) Create(_ context.Context, a *model.Achievement) (*model.Achievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	cp := *a
	m.created = append(m.created, &cp)
	m.nextID++
	stored := cp
	stored.ID = fmt.Sprintf("srv-ach-%d", m.nextID)
	return &stored, nil
}

func (m *mockAchievementAPI) Update(_ context.Context, a *model.Achievement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.updated = append(m.updated, &cp)
	return m.err
}

func (m *mockAchievementAPI) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, id)
	return m.err
}

func copyAchievements(in []*model.Achievement) []*model.Achievement {
	out := make([]*model.Achievement, 0, len(in))
	for _, a := range in {
		cp := *a
		out = append(out, &cp)
	}
	return out
}

// --- pictures / images -------------------------------------------------------

type passthroughResolver struct{}

func (passthroughResolver) GetSource(identifier string) string {
	return identifier
}

type prefixResolver struct{ base string }

func (r prefixResolver) GetSource(identifier string) string {
	return r.base + identifier
}

type mockScheduler struct {
	mu        sync.Mutex
	scheduled map[string][]string
	discarded []*model.PetImage
}

func newMockScheduler() *mockScheduler {
	return &mockScheduler{scheduled: make(map[string][]string)}
}

func (m *mockScheduler) Schedule(_ context.Context, petID string, urls []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scheduled[petID] = append(m.scheduled[petID], urls...)
}

func (m *mockScheduler) Discard(images []*model.PetImage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discarded = append(m.discarded, images...)
}

// Localize prefers the recorded cached path without checking the disk.
func (m *mockScheduler) Localize(images []*model.PetImage) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		if img.LocalPath != "" {
			out = append(out, img.LocalPath)
			continue
		}
		out = append(out, img.URL)
	}
	return out
}
