package tbucket

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// Limiter is a named, independently configured token bucket. The zero
// value is not usable; construct one with NewLimiter. All methods are
// safe for concurrent use: the hot path (Acquire, Reserve, Metrics) never
// takes a lock, instead retrying a compare-and-swap over an immutable
// snapshot until it wins.
type Limiter struct {
	name string
	tags map[string]string

	state atomic.Pointer[snapshot]
	clock Clock

	waiting    atomic.Int64
	dispatcher *dispatcher
	handlers   *handlerSink
}

// LimiterOption customizes a Limiter at construction time.
type LimiterOption func(*Limiter)

// WithClock overrides the default monotonic system Clock, almost always used in
// tests to drive deterministic cycle/wait scenarios.
func WithClock(c Clock) LimiterOption {
	return func(l *Limiter) { l.clock = c }
}

// WithEventSink registers an additional EventSink. May be supplied more
// than once; every sink receives every event.
func WithEventSink(sink EventSink) LimiterOption {
	return func(l *Limiter) { l.dispatcher.addSink(sink) }
}

// WithEventBuffer overrides the default size of the async event channel.
// A full buffer causes new events to be dropped rather than to block the
// caller; size it to the sink's expected burstiness.
func WithEventBuffer(n int) LimiterOption {
	return func(l *Limiter) {
		old := l.dispatcher
		l.dispatcher = newDispatcher(n)
		old.mu.Lock()
		sinks := old.sinks
		old.mu.Unlock()
		for _, s := range sinks {
			l.dispatcher.addSink(s)
		}
	}
}

// NewLimiter constructs a Limiter with the given name, configuration, and
// tags (copied, so later caller mutation of the map is invisible to the
// Limiter). Tags travel unchanged onto every emitted Event, letting a sink
// fan events back out by e.g. tenant or route.
func NewLimiter(name string, config Configuration, tags map[string]string, opts ...LimiterOption) *Limiter {
	l := &Limiter{
		name:       name,
		tags:       copyTags(tags),
		clock:      newSystemClock(),
		dispatcher: newDispatcher(defaultEventBuffer),
		handlers:   &handlerSink{},
	}
	l.dispatcher.addSink(l.handlers)

	initial := &snapshot{
		config:            config,
		activeCycle:       0,
		activePermissions: config.limitForPeriod,
		nanosToWait:       0,
	}
	l.state.Store(initial)

	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name returns the identifier this Limiter was constructed with.
func (l *Limiter) Name() string { return l.name }

// Tags returns a copy of the limiter's tag set.
func (l *Limiter) Tags() map[string]string { return copyTags(l.tags) }

// String renders the limiter for debug/log output; it never includes
// live permit counts since those are meaningless outside a snapshot.
func (l *Limiter) String() string {
	return fmt.Sprintf("tbucket.Limiter{name=%q, tags=%v}", l.name, l.tags)
}

// OnSuccess registers f to run whenever this limiter grants permits.
func (l *Limiter) OnSuccess(f func(SuccessEvent)) { l.handlers.addSuccess(f) }

// OnFailure registers f to run whenever this limiter refuses a request.
func (l *Limiter) OnFailure(f func(FailureEvent)) { l.handlers.addFailure(f) }

// OnDrained registers f to run whenever Drain discards a budget.
func (l *Limiter) OnDrained(f func(DrainedEvent)) { l.handlers.addDrained(f) }

// casLoop repeatedly loads the current snapshot, computes its successor
// for the given request, and attempts to install it, retrying on a lost
// race. acquireTimeout is read fresh from prev on every attempt so a
// concurrent ChangeTimeout takes effect on the very next retry.
func (l *Limiter) casLoop(permits int) *snapshot {
	for {
		prev := l.state.Load()
		now := l.clock.NowNanos()
		timeoutNanos := int64(prev.config.acquireTimeout)
		nxt := next(prev, int64(permits), timeoutNanos, now)
		if l.state.CompareAndSwap(prev, nxt) {
			return nxt
		}
	}
}

// Acquire blocks until permits are granted, the configured acquire
// timeout elapses, or ctx is cancelled, whichever comes first. It
// returns true if the permits were granted.
func (l *Limiter) Acquire(ctx context.Context, permits int) bool {
	nxt := l.casLoop(permits)
	granted := int64(nxt.config.acquireTimeout) >= nxt.nanosToWait

	if granted && nxt.nanosToWait > 0 {
		l.waiting.Add(1)
		ok := l.park(ctx, time.Duration(nxt.nanosToWait))
		l.waiting.Add(-1)
		if !ok {
			l.publishFailure(permits)
			l.maybeDrain(Outcome{Permits: permits, Success: false})
			return false
		}
	}

	if granted {
		l.publishSuccess(permits)
		l.maybeDrain(Outcome{Permits: permits, Success: true})
		return true
	}

	// Refused: park for the caller's own timeout, not the full computed
	// wait (which by construction exceeds it here), so a caller that
	// configured AcquireTimeout=0 is refused immediately rather than
	// blocked for up to a full refresh period. spec.md §4.2 step 5.
	if nxt.config.acquireTimeout > 0 {
		l.waiting.Add(1)
		l.park(ctx, nxt.config.acquireTimeout)
		l.waiting.Add(-1)
	}
	l.publishFailure(permits)
	l.maybeDrain(Outcome{Permits: permits, Success: false})
	return false
}

// Reserve attempts to reserve permits without blocking. On success it
// returns the duration the caller must itself wait before acting on the
// reservation, and true. On failure (the wait would exceed the
// configured acquire timeout) it returns false and the duration is 0.
func (l *Limiter) Reserve(permits int) (time.Duration, bool) {
	nxt := l.casLoop(permits)
	if int64(nxt.config.acquireTimeout) >= nxt.nanosToWait {
		l.publishSuccess(permits)
		l.maybeDrain(Outcome{Permits: permits, Success: true})
		return time.Duration(nxt.nanosToWait), true
	}
	l.publishFailure(permits)
	l.maybeDrain(Outcome{Permits: permits, Success: false})
	return 0, false
}

// Drain discards the currently available budget for the active cycle and
// reports how many permits were discarded. A negative activePermissions
// (an outstanding reservation against a future cycle) discards nothing;
// draining can't claw back permits already promised to a waiting caller.
func (l *Limiter) Drain() int64 {
	for {
		prev := l.state.Load()
		discarded := prev.activePermissions
		if discarded < 0 {
			discarded = 0
		}
		nxt := &snapshot{
			config:            prev.config,
			activeCycle:       prev.activeCycle,
			activePermissions: 0,
			nanosToWait:       prev.nanosToWait,
		}
		if l.state.CompareAndSwap(prev, nxt) {
			l.publishDrained(discarded)
			return discarded
		}
	}
}

// ChangeTimeout swaps in a new acquire timeout, effective for every
// Acquire/Reserve call that reads the configuration after this returns.
func (l *Limiter) ChangeTimeout(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%w: acquire timeout must be >= 0, got %s", ErrInvalidConfiguration, d)
	}
	for {
		prev := l.state.Load()
		cfg := prev.config
		cfg.acquireTimeout = d
		nxt := &snapshot{
			config:            cfg,
			activeCycle:       prev.activeCycle,
			activePermissions: prev.activePermissions,
			nanosToWait:       prev.nanosToWait,
		}
		if l.state.CompareAndSwap(prev, nxt) {
			return nil
		}
	}
}

// ChangeLimitForPeriod swaps in a new per-cycle permit limit. Already
// reserved (negative) balances are preserved; only the cap applied by the
// next refresh changes.
func (l *Limiter) ChangeLimitForPeriod(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: limit for period must be >= 1, got %d", ErrInvalidConfiguration, n)
	}
	for {
		prev := l.state.Load()
		cfg := prev.config
		cfg.limitForPeriod = int64(n)
		nxt := &snapshot{
			config:            cfg,
			activeCycle:       prev.activeCycle,
			activePermissions: prev.activePermissions,
			nanosToWait:       prev.nanosToWait,
		}
		if l.state.CompareAndSwap(prev, nxt) {
			return nil
		}
	}
}

// park blocks for d or until ctx is cancelled, whichever comes first,
// reporting whether it returned because d fully elapsed. This is the
// direct analogue of an interruptible thread sleep in a language where
// Go has no portable interrupt primitive of its own.
func (l *Limiter) park(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	if ctx == nil {
		ctx = context.Background()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (l *Limiter) publishSuccess(permits int) {
	l.dispatcher.publish(SuccessEvent{
		EventID:        newEventID(),
		LimiterName:    l.name,
		Tags:           l.tags,
		PermitsGranted: permits,
		At:             time.Now(),
	})
}

func (l *Limiter) publishFailure(permits int) {
	l.dispatcher.publish(FailureEvent{
		EventID:          newEventID(),
		LimiterName:      l.name,
		Tags:             l.tags,
		PermitsRequested: permits,
		At:               time.Now(),
	})
}

func (l *Limiter) publishDrained(discarded int64) {
	l.dispatcher.publish(DrainedEvent{
		EventID:          newEventID(),
		LimiterName:      l.name,
		Tags:             l.tags,
		PermitsDiscarded: discarded,
		At:               time.Now(),
	})
}

func (l *Limiter) maybeDrain(o Outcome) {
	prev := l.state.Load()
	if prev.config.drainOnResult != nil && prev.config.drainOnResult(o) {
		l.Drain()
	}
}

func copyTags(tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[k] = v
	}
	return out
}
