package connectivity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type countingProber struct {
	calls     int
	connected bool
	err       error
}

func (p *countingProber) Probe(_ context.Context) (bool, error) {
	p.calls++
	return p.connected, p.err
}

func testOracle(p Prober, ttl time.Duration) *Oracle {
	return NewOracle(p, ttl, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestIsConnected_CachesWithinTTL(t *testing.T) {
	p := &countingProber{connected: true}
	o := testOracle(p, time.Minute)
	ctx := context.Background()

	for range 5 {
		if !o.IsConnected(ctx) {
			t.Fatal("IsConnected = false, want true")
		}
	}
	if p.calls != 1 {
		t.Errorf("probe called %d times within TTL, want 1", p.calls)
	}
}

func TestIsConnected_RefreshesAfterTTL(t *testing.T) {
	p := &countingProber{connected: true}
	o := testOracle(p, time.Minute)
	ctx := context.Background()

	o.IsConnected(ctx)

	// Simulate TTL expiry and a connectivity change.
	now := time.Now()
	o.now = func() time.Time { return now.Add(2 * time.Minute) }
	p.connected = false

	if o.IsConnected(ctx) {
		t.Error("IsConnected = true after state change and TTL expiry")
	}
	if p.calls != 2 {
		t.Errorf("probe called %d times, want 2", p.calls)
	}
}

func TestIsConnected_ProbeFailureKeepsLastKnown(t *testing.T) {
	p := &countingProber{connected: true}
	o := testOracle(p, time.Nanosecond)
	ctx := context.Background()

	if !o.IsConnected(ctx) {
		t.Fatal("initial IsConnected = false, want true")
	}

	p.err = errors.New("probe timed out")
	p.connected = false
	time.Sleep(time.Millisecond) // let the TTL lapse

	if !o.IsConnected(ctx) {
		t.Error("IsConnected = false after failed probe, want last known true")
	}
}

func TestInvalidate_ForcesReprobe(t *testing.T) {
	p := &countingProber{connected: true}
	o := testOracle(p, time.Minute)
	ctx := context.Background()

	o.IsConnected(ctx)
	o.Invalidate()
	o.IsConnected(ctx)

	if p.calls != 2 {
		t.Errorf("probe called %d times after invalidate, want 2", p.calls)
	}
}
