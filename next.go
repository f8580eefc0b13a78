package tbucket

// next computes the snapshot that should replace prev for a caller
// requesting permits, willing to wait at most timeoutNanos, observing the
// monotonic clock reading nowNanos. It is a pure function: the same
// inputs always produce the same output, which is what lets the CAS loop
// in Limiter retry safely without ever observing a partial update.
//
// The three folded concerns, in order:
//
//  1. Refresh: advance the cycle index and accumulate credit for any
//     elapsed cycles, capped at one cycle's worth (accumulated credit
//     never stacks across idle cycles).
//  2. Wait: if the refreshed budget can't cover the request, compute how
//     many additional full cycles are needed and the remainder of the
//     current cycle.
//  3. Reserve: if the caller's timeout covers that wait, deduct permits
//     now (the balance may go negative); otherwise leave the budget
//     untouched — the caller isn't willing to wait long enough to earn
//     the reservation.
func next(prev *snapshot, permits, timeoutNanos, nowNanos int64) *snapshot {
	cfg := prev.config
	refreshPeriod := int64(cfg.refreshPeriod)
	limit := cfg.limitForPeriod

	cycleNow := nowNanos / refreshPeriod
	if cycleNow < prev.activeCycle {
		// A reader computed this from a "now" that lags the cycle another
		// winning CAS already advanced to. Cycle advancement must stay
		// monotonic across successful transitions, so pin to what's
		// already installed rather than regress it.
		cycleNow = prev.activeCycle
	}

	newPermissions := prev.activePermissions
	if cycleNow > prev.activeCycle {
		elapsedCycles := cycleNow - prev.activeCycle
		var accumulated int64
		if elapsedCycles > limit {
			// Clamp before multiplying: elapsedCycles*limit can only ever
			// be used post-cap, and for long idle stretches the raw
			// product can overflow int64 long before the cap would.
			accumulated = limit
		} else {
			accumulated = elapsedCycles * limit
		}
		newPermissions = prev.activePermissions + accumulated
		if newPermissions > limit {
			newPermissions = limit
		}
	}

	var wait int64
	if newPermissions < permits {
		nanosToNextCycle := (cycleNow+1)*refreshPeriod - nowNanos
		permissionsAtNext := newPermissions + limit
		shortfall := permits - permissionsAtNext
		if shortfall < 0 {
			shortfall = 0
		}
		fullCyclesToWait := ceilDiv(shortfall, limit)
		wait = fullCyclesToWait*refreshPeriod + nanosToNextCycle
	}

	reserved := newPermissions
	if timeoutNanos >= wait {
		reserved = newPermissions - permits
	}

	return &snapshot{
		config:            cfg,
		activeCycle:       cycleNow,
		activePermissions: reserved,
		nanosToWait:       wait,
	}
}

// ceilDiv returns ceil(a/b) for a >= 0, b > 0.
func ceilDiv(a, b int64) int64 {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
