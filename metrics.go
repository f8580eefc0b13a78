package tbucket

// Metrics is a point-in-time snapshot of a Limiter's internal state,
// safe to read at any frequency since computing it never mutates the
// Limiter (see (*Limiter).Metrics).
type Metrics struct {
	// WaitingThreads is the number of goroutines currently parked inside
	// Acquire waiting for a reservation to mature.
	WaitingThreads int64

	// AvailablePermissions is the permit balance for the current cycle.
	// It may be negative: callers have already reserved against a cycle
	// that hasn't started yet.
	AvailablePermissions int64

	// NanosToWaitEstimate is how long a hypothetical caller requesting a
	// single permit right now would have to wait. Zero means a permit is
	// immediately available.
	NanosToWaitEstimate int64

	// CurrentCycleEstimate is the refresh cycle index as of this read.
	CurrentCycleEstimate int64
}

// Metrics reports the Limiter's current state without altering it. It
// simulates a one-permit request with timeoutNanos passed as -1, which is
// below every wait next() can compute (waits are never negative), so the
// simulation never deducts a permit. It uses that trial snapshot purely to
// get a refreshed, monotonic view of the budget, then discards it instead
// of installing it.
func (l *Limiter) Metrics() Metrics {
	prev := l.state.Load()
	now := l.clock.NowNanos()
	sim := next(prev, 1, -1, now)

	return Metrics{
		WaitingThreads:       l.waiting.Load(),
		AvailablePermissions: sim.activePermissions,
		NanosToWaitEstimate:  sim.nanosToWait,
		CurrentCycleEstimate: sim.activeCycle,
	}
}
