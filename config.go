package tbucket

import (
	"fmt"
	"time"
)

// Outcome describes the result of a single acquire/reserve call, passed to
// a DrainOnResult predicate so it can decide whether that result should
// trigger an automatic Drain.
type Outcome struct {
	Permits int
	Success bool
}

// Configuration is the immutable triple of tunables that governs a
// Limiter: how often the budget refreshes, how many permits a refresh
// grants, and how long a caller is willing to wait for a reservation to
// mature. A Configuration is only ever replaced wholesale (ChangeTimeout,
// ChangeLimitForPeriod build a new value), never mutated in place.
type Configuration struct {
	refreshPeriod  time.Duration
	limitForPeriod int64
	acquireTimeout time.Duration
	drainOnResult  func(Outcome) bool
}

// RefreshPeriod is the duration of one accounting cycle.
func (c Configuration) RefreshPeriod() time.Duration { return c.refreshPeriod }

// LimitForPeriod is the number of permits granted per refresh cycle.
func (c Configuration) LimitForPeriod() int64 { return c.limitForPeriod }

// AcquireTimeout is how long a caller is willing to wait for a reservation
// to mature before being refused.
func (c Configuration) AcquireTimeout() time.Duration { return c.acquireTimeout }

// ConfigOption customizes a Configuration at construction time.
type ConfigOption func(*Configuration)

// WithDrainOnResult installs a predicate that is evaluated after every
// Acquire/Reserve outcome; if it returns true, the limiter's Drain is
// invoked automatically. The default predicate always returns false.
func WithDrainOnResult(f func(Outcome) bool) ConfigOption {
	return func(c *Configuration) {
		c.drainOnResult = f
	}
}

// NewConfiguration validates and builds a Configuration. It is the one
// call in this package that fails loudly: refreshPeriod must be at least
// 1ns, limitForPeriod must be at least 1, and acquireTimeout must be
// non-negative (zero is valid and means "never wait").
func NewConfiguration(refreshPeriod time.Duration, limitForPeriod int, acquireTimeout time.Duration, opts ...ConfigOption) (Configuration, error) {
	if refreshPeriod < time.Nanosecond {
		return Configuration{}, fmt.Errorf("%w: refresh period must be >= 1ns, got %s", ErrInvalidConfiguration, refreshPeriod)
	}
	if limitForPeriod < 1 {
		return Configuration{}, fmt.Errorf("%w: limit for period must be >= 1, got %d", ErrInvalidConfiguration, limitForPeriod)
	}
	if acquireTimeout < 0 {
		return Configuration{}, fmt.Errorf("%w: acquire timeout must be >= 0, got %s", ErrInvalidConfiguration, acquireTimeout)
	}

	cfg := Configuration{
		refreshPeriod:  refreshPeriod,
		limitForPeriod: int64(limitForPeriod),
		acquireTimeout: acquireTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.drainOnResult == nil {
		cfg.drainOnResult = func(Outcome) bool { return false }
	}
	return cfg, nil
}
