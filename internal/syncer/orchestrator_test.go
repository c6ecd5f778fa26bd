package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/LucasFSouza552/mobile-pet-sub000/internal/model"
)

type orchestratorFixture struct {
	orch       *Orchestrator
	net        *mockNet
	accountAPI *mockAccountAPI
	achAPI     *mockAchievementAPI
	inAPI      *mockInteractionAPI
	histAPI    *mockHistoryAPI
	accounts   *mockAccountStore
}

func newOrchestratorFixture(netOnline bool) *orchestratorFixture {
	net := &mockNet{online: netOnline}
	log := testLogger()

	accountStore := newMockAccountStore()
	accountAPI := &mockAccountAPI{profile: &model.Account{ID: "acc-1", Email: "a@example.com"}}
	accounts := NewAccountSyncer(accountStore, accountAPI, net, log)

	petStore := newMockPetStore()
	pets := NewPetSyncer(petStore, newMockPetAPI(), passthroughResolver{}, net, nil, log)

	inAPI := &mockInteractionAPI{}
	interactions := NewInteractionSyncer(newMockInteractionStore(), pets, inAPI, net, log)
	interactions.sleep = noSleep

	histAPI := &mockHistoryAPI{}
	history := NewHistorySyncer(newMockHistoryStore(), pets, histAPI, net, log)
	history.sleep = noSleep

	achAPI := &mockAchievementAPI{}
	achievements := NewAchievementSyncer(newMockAchievementStore(), achAPI, net, log)
	achievements.sleep = noSleep

	orch := NewOrchestrator(accounts, interactions, history, achievements, net, log)
	orch.sleep = noSleep
	return &orchestratorFixture{
		orch:       orch,
		net:        net,
		accountAPI: accountAPI,
		achAPI:     achAPI,
		inAPI:      inAPI,
		histAPI:    histAPI,
		accounts:   accountStore,
	}
}

func TestSyncAllRunsEveryEntity(t *testing.T) {
	f := newOrchestratorFixture(true)

	stats, err := f.orch.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if stats.Failed != 0 {
		t.Errorf("Failed = %d, want 0", stats.Failed)
	}
	// profile + achievements + account-achievements + interactions + history
	if stats.Succeeded != 5 {
		t.Errorf("Succeeded = %d, want 5", stats.Succeeded)
	}
	if all, _ := f.accounts.GetAll(context.Background()); len(all) != 1 {
		t.Error("profile not persisted by the pass")
	}
}

func TestSyncAllOffline(t *testing.T) {
	f := newOrchestratorFixture(false)

	if _, err := f.orch.SyncAll(context.Background()); !errors.Is(err, ErrOffline) {
		t.Errorf("err = %v, want ErrOffline", err)
	}
}

func TestSyncAllSingleInstance(t *testing.T) {
	f := newOrchestratorFixture(true)

	start := make(chan struct{})
	var mu sync.Mutex
	var busy int

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := f.orch.SyncAll(context.Background()); errors.Is(err, ErrSyncInProgress) {
				mu.Lock()
				busy++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	// At least one run went through; the rest either overlapped (rejected)
	// or ran after it finished. No run may have executed concurrently.
	mu.Lock()
	defer mu.Unlock()
	if busy == 4 {
		t.Error("every call rejected, none ran")
	}
}

func TestSyncAllToleratesEntityFailure(t *testing.T) {
	f := newOrchestratorFixture(true)
	f.histAPI.err = errors.New("backend hiccup")

	stats, err := f.orch.SyncAll(context.Background())
	if err == nil {
		t.Fatal("expected the history failure to surface")
	}
	if stats.Failed != 1 {
		t.Errorf("Failed = %d, want 1", stats.Failed)
	}
	if stats.Succeeded != 4 {
		t.Errorf("Succeeded = %d, want 4 (other entities keep going)", stats.Succeeded)
	}
}

func TestSyncAllProfileFailureWithLocalFallback(t *testing.T) {
	f := newOrchestratorFixture(true)
	_ = f.accounts.Create(context.Background(), &model.Account{ID: "acc-1", Email: "a@example.com"})
	f.accountAPI.err = errors.New("profile endpoint down")

	stats, err := f.orch.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll with local profile: %v", err)
	}
	if stats.Succeeded != 5 {
		t.Errorf("Succeeded = %d, want 5 (entity passes run on the stored profile)", stats.Succeeded)
	}
}

func TestSyncAllFreshDeviceProfileOnly(t *testing.T) {
	f := newOrchestratorFixture(true)
	f.accountAPI.err = errors.New("profile endpoint down")

	stats, err := f.orch.SyncAll(context.Background())
	if err == nil {
		t.Fatal("expected failure with no profile at all")
	}
	if stats.Failed != 1 || stats.Succeeded != 0 {
		t.Errorf("stats = %+v, want only the profile failure", stats)
	}
}

func TestOnReconnectWaitsBeforeSyncing(t *testing.T) {
	f := newOrchestratorFixture(true)

	var slept time.Duration
	f.orch.sleep = func(_ context.Context, d time.Duration) { slept += d }

	if _, err := f.orch.OnReconnect(context.Background()); err != nil {
		t.Fatalf("OnReconnect: %v", err)
	}
	if slept < reconnectSettle {
		t.Errorf("settle wait = %v, want at least %v", slept, reconnectSettle)
	}
}
