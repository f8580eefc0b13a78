package tbucket

import (
	"testing"
	"time"
)

func mustConfig(t *testing.T, refresh time.Duration, limit int, timeout time.Duration) Configuration {
	t.Helper()
	cfg, err := NewConfiguration(refresh, limit, timeout)
	if err != nil {
		t.Fatalf("NewConfiguration: %v", err)
	}
	return cfg
}

func TestNextImmediateGrantWithinCycle(t *testing.T) {
	cfg := mustConfig(t, time.Second, 5, 0)
	prev := &snapshot{config: cfg, activeCycle: 0, activePermissions: 5, nanosToWait: 0}

	got := next(prev, 3, 0, int64(500*time.Millisecond))

	if got.nanosToWait != 0 {
		t.Fatalf("nanosToWait = %d, want 0", got.nanosToWait)
	}
	if got.activePermissions != 2 {
		t.Fatalf("activePermissions = %d, want 2", got.activePermissions)
	}
	if got.activeCycle != 0 {
		t.Fatalf("activeCycle = %d, want 0", got.activeCycle)
	}
}

func TestNextRefreshesAfterIdleCycle(t *testing.T) {
	cfg := mustConfig(t, time.Second, 5, 0)
	prev := &snapshot{config: cfg, activeCycle: 0, activePermissions: 0, nanosToWait: 0}

	got := next(prev, 1, 0, int64(1500*time.Millisecond))

	if got.activeCycle != 1 {
		t.Fatalf("activeCycle = %d, want 1", got.activeCycle)
	}
	if got.activePermissions != 4 {
		t.Fatalf("activePermissions = %d, want 4", got.activePermissions)
	}
}

func TestNextAccumulationClampsToOneCycle(t *testing.T) {
	cfg := mustConfig(t, time.Second, 5, 0)
	prev := &snapshot{config: cfg, activeCycle: 0, activePermissions: 0, nanosToWait: 0}

	// Ten idle cycles elapse, but credit never stacks past the cap.
	got := next(prev, 1, 0, int64(10*time.Second+500*time.Millisecond))

	if got.activePermissions != 4 {
		t.Fatalf("activePermissions = %d, want 4 (capped, not 49)", got.activePermissions)
	}
}

func TestNextWaitWithinTimeoutReserves(t *testing.T) {
	cfg := mustConfig(t, time.Second, 5, time.Second)
	prev := &snapshot{config: cfg, activeCycle: 0, activePermissions: 0, nanosToWait: 0}

	got := next(prev, 1, int64(time.Second), int64(100*time.Millisecond))

	if got.nanosToWait <= 0 {
		t.Fatalf("nanosToWait = %d, want > 0", got.nanosToWait)
	}
	if got.activePermissions >= 0 {
		t.Fatalf("activePermissions = %d, want negative reservation", got.activePermissions)
	}
}

func TestNextWaitBeyondTimeoutDoesNotReserve(t *testing.T) {
	cfg := mustConfig(t, time.Second, 5, 0)
	prev := &snapshot{config: cfg, activeCycle: 0, activePermissions: 0, nanosToWait: 0}

	got := next(prev, 1, 0, int64(100*time.Millisecond))

	if got.nanosToWait <= 0 {
		t.Fatalf("nanosToWait = %d, want > 0", got.nanosToWait)
	}
	if got.activePermissions != 0 {
		t.Fatalf("activePermissions = %d, want unchanged at 0", got.activePermissions)
	}
}

func TestNextMonotonicCycleGuard(t *testing.T) {
	cfg := mustConfig(t, time.Second, 5, 0)
	// prev already advanced to cycle 3 by a winning CAS; this call
	// observes a "now" that would only imply cycle 2.
	prev := &snapshot{config: cfg, activeCycle: 3, activePermissions: 2, nanosToWait: 0}

	got := next(prev, 1, 0, int64(2500*time.Millisecond))

	if got.activeCycle != 3 {
		t.Fatalf("activeCycle = %d, want pinned at 3", got.activeCycle)
	}
}

func TestNextReservationAcrossMultipleCycles(t *testing.T) {
	cfg := mustConfig(t, time.Second, 5, 3*time.Second)
	prev := &snapshot{config: cfg, activeCycle: 0, activePermissions: 0, nanosToWait: 0}

	// Request more permits than the next cycle's refresh alone can cover.
	got := next(prev, 8, int64(3*time.Second), int64(100*time.Millisecond))

	if got.nanosToWait <= int64(time.Second) {
		t.Fatalf("nanosToWait = %d, want to span more than one cycle", got.nanosToWait)
	}
	if got.activePermissions >= 0 {
		t.Fatalf("activePermissions = %d, want negative reservation", got.activePermissions)
	}
}

// TestNextClampsCreditOverflowAfterLongIdlePeriod covers the scenario
// called out in SPEC_FULL.md's overflow-clamp design note: a limiter
// constructed once, then left idle for an hour before its first request,
// with a 1ns refresh period so that an hour is 3.6e12 elapsed cycles and
// the clamp in next, not the post-accumulation cap, bounds the credit.
func TestNextClampsCreditOverflowAfterLongIdlePeriod(t *testing.T) {
	cfg := mustConfig(t, time.Nanosecond, 2, 0)
	prev := &snapshot{config: cfg, activeCycle: 0, activePermissions: 0, nanosToWait: 0}

	got := next(prev, 1, 0, int64(time.Hour))

	if got.activePermissions != 1 {
		t.Fatalf("activePermissions = %d, want 1 (2 credited, 1 reserved)", got.activePermissions)
	}
	if got.nanosToWait != 0 {
		t.Fatalf("nanosToWait = %d, want 0", got.nanosToWait)
	}
}

func TestCeilDiv(t *testing.T) {
	cases := []struct{ a, b, want int64 }{
		{0, 5, 0},
		{-1, 5, 0},
		{1, 5, 1},
		{5, 5, 1},
		{6, 5, 2},
		{10, 5, 2},
	}
	for _, c := range cases {
		if got := ceilDiv(c.a, c.b); got != c.want {
			t.Errorf("ceilDiv(%d, %d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
