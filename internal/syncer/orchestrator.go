package syncer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const (
	otelScope     = "petsync/syncer"
	spanFullSync  = "syncer.full_sync"
	metricRuns    = "petsync.sync.runs"
	metricEntOK   = "petsync.sync.entities.succeeded"
	metricEntFail = "petsync.sync.entities.failed"
)

// reconnectSettle is how long the orchestrator waits after connectivity
// returns before starting the catch-up pass. Radios report connected before
// routes are actually usable.
const reconnectSettle = time.Second

// Stats summarizes one full sync pass.
type Stats struct {
	Succeeded int
	Failed    int
}

// Orchestrator runs all entity synchronizers as one unit. At most one full
// pass runs at a time; the entity passes inside it run concurrently, and one
// entity failing does not stop the others.
type Orchestrator struct {
	accounts     *AccountSyncer
	interactions *InteractionSyncer
	history      *HistorySyncer
	achievements *AchievementSyncer
	net          Connectivity
	log          *slog.Logger
	sleep        func(ctx context.Context, d time.Duration)

	running atomic.Bool

	tracer  trace.Tracer
	cntRuns metric.Int64Counter
	cntOK   metric.Int64Counter
	cntFail metric.Int64Counter
}

func NewOrchestrator(accounts *AccountSyncer, interactions *InteractionSyncer, history *HistorySyncer, achievements *AchievementSyncer, net Connectivity, logger *slog.Logger) *Orchestrator {
	meter := otel.Meter(otelScope)

	mustCounter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			logger.Error("creating OTel counter", "name", name, "error", err)
			return noop.Int64Counter{}
		}
		return c
	}

	return &Orchestrator{
		accounts:     accounts,
		interactions: interactions,
		history:      history,
		achievements: achievements,
		net:          net,
		log:          logger,
		sleep:        sleepCtx,

		tracer:  otel.Tracer(otelScope),
		cntRuns: mustCounter(metricRuns, "Number of full sync passes started"),
		cntOK:   mustCounter(metricEntOK, "Number of entity sync passes that succeeded"),
		cntFail: mustCounter(metricEntFail, "Number of entity sync passes that failed"),
	}
}

// SyncAll runs one full pass: profile first, then the per-entity passes
// concurrently. Returns [ErrSyncInProgress] when a pass is already running
// and [ErrOffline] when the backend is unreachable.
func (o *Orchestrator) SyncAll(ctx context.Context) (Stats, error) {
	if !o.running.CompareAndSwap(false, true) {
		return Stats{}, ErrSyncInProgress
	}
	defer o.running.Store(false)

	if !o.net.IsConnected(ctx) {
		return Stats{}, ErrOffline
	}

	ctx, span := o.tracer.Start(ctx, spanFullSync)
	defer span.End()
	o.cntRuns.Add(ctx, 1)

	stats, err := o.run(ctx)

	span.SetAttributes(
		attribute.Int("sync.succeeded", stats.Succeeded),
		attribute.Int("sync.failed", stats.Failed),
	)
	if err != nil {
		span.RecordError(err)
	}
	return stats, err
}

func (o *Orchestrator) run(ctx context.Context) (Stats, error) {
	start := time.Now()

	// Profile first: the entity passes need the account id, and a fresh
	// login has nothing else to sync yet.
	acc, err := o.accounts.SyncProfile(ctx)
	if err != nil {
		o.log.Warn("profile sync failed", "error", err)
		local, lerr := o.accounts.CurrentAccount(ctx)
		if lerr != nil || local == nil {
			o.cntFail.Add(ctx, 1)
			return Stats{Failed: 1}, err
		}
		acc = local
	}

	type pass struct {
		name string
		run  func(context.Context) error
	}
	passes := []pass{
		{"achievements", func(ctx context.Context) error { return o.achievements.SyncAll(ctx) }},
		{"account-achievements", func(ctx context.Context) error { return o.achievements.SyncByAccount(ctx, acc.ID) }},
		{"interactions", func(ctx context.Context) error { return o.interactions.Sync(ctx, acc.ID) }},
		{"history", func(ctx context.Context) error { return o.history.Sync(ctx, acc.ID) }},
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		stats  = Stats{Succeeded: 1} // profile
		allErr error
	)
	for _, p := range passes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := p.run(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				o.log.Warn("entity sync failed", "entity", p.name, "error", err)
				stats.Failed++
				allErr = errors.Join(allErr, err)
				return
			}
			stats.Succeeded++
		}()
	}
	wg.Wait()

	o.cntOK.Add(ctx, int64(stats.Succeeded))
	o.cntFail.Add(ctx, int64(stats.Failed))
	o.log.Info("full sync finished",
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"duration", time.Since(start).Round(time.Millisecond))
	return stats, allErr
}

// OnReconnect runs a catch-up pass after connectivity returns, waiting a
// moment for the link to settle first.
func (o *Orchestrator) OnReconnect(ctx context.Context) (Stats, error) {
	o.sleep(ctx, reconnectSettle)
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	return o.SyncAll(ctx)
}
