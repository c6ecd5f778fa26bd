// Package connectivity wraps the platform reachability probe in a short-TTL
// cache. Several synchronizers check connectivity within the same tick; the
// cache keeps that from turning into a probe storm.
package connectivity

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultTTL is how long a probe result stays fresh.
const DefaultTTL = 2 * time.Second

// Prober performs one connectivity check. Implemented by
// [remote.Client.Probe] in production and by mocks in tests.
type Prober interface {
	Probe(ctx context.Context) (bool, error)
}

// ProbeFunc adapts a function to the Prober interface.
type ProbeFunc func(ctx context.Context) (bool, error)

func (f ProbeFunc) Probe(ctx context.Context) (bool, error) { return f(ctx) }

// Oracle answers "are we online?" from a cached probe result.
type Oracle struct {
	prober Prober
	ttl    time.Duration
	log    *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	last      bool
	lastProbe time.Time
}

// NewOracle creates an Oracle with the given TTL; a non-positive ttl falls
// back to [DefaultTTL].
func NewOracle(prober Prober, ttl time.Duration, logger *slog.Logger) *Oracle {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Oracle{prober: prober, ttl: ttl, log: logger, now: time.Now}
}

// IsConnected reports the cached connectivity state, refreshing it when the
// TTL has lapsed. A failed probe returns the last known value instead of
// failing the caller.
func (o *Oracle) IsConnected(ctx context.Context) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.lastProbe.IsZero() && o.now().Sub(o.lastProbe) < o.ttl {
		return o.last
	}

	connected, err := o.prober.Probe(ctx)
	if err != nil {
		o.log.Debug("connectivity probe failed, keeping last known state",
			"last", o.last, "error", err)
		o.lastProbe = o.now()
		return o.last
	}

	o.last = connected
	o.lastProbe = o.now()
	return o.last
}

// Invalidate drops the cached state so the next check probes again. Called on
// OS-level reachability transitions.
func (o *Oracle) Invalidate() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastProbe = time.Time{}
}
