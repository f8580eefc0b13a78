package tbucket

// snapshot is the immutable quadruple (config, activeCycle,
// activePermissions, nanosToWait) that a Limiter's single atomic.Pointer
// cell holds. It is never mutated in place; every transition allocates a
// new snapshot and installs it with a compare-and-swap. No reader ever
// observes a torn combination of these four fields because they always
// travel together behind one pointer (see next, which builds the successor
// for Acquire/Reserve/Metrics; NewLimiter, Drain, ChangeTimeout and
// ChangeLimitForPeriod build their own).
type snapshot struct {
	config Configuration

	// activeCycle is floor(elapsed/refreshPeriod) as of the last update.
	activeCycle int64

	// activePermissions is the remaining budget for activeCycle. It may
	// be negative: a negative value means permits from a future cycle
	// have already been reserved by some caller still waiting out its
	// park.
	activePermissions int64

	// nanosToWait is how long the caller that produced this snapshot
	// must park before its reservation matures. Always >= 0.
	nanosToWait int64
}
