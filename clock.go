package tbucket

import "time"

// Clock supplies the monotonic nanosecond reading the algorithm measures
// cycles from. The default implementation anchors at the time a Limiter
// is constructed and reports elapsed monotonic time since then; tests
// inject a fake to drive specific cycle/wait scenarios without sleeping.
type Clock interface {
	NowNanos() int64
}

// systemClock anchors to the instant it's created and reports elapsed
// time using time.Since, which is immune to wall-clock adjustments
// because Go retains the monotonic reading inside a time.Time.
type systemClock struct {
	start time.Time
}

func newSystemClock() *systemClock {
	return &systemClock{start: time.Now()}
}

func (c *systemClock) NowNanos() int64 {
	return int64(time.Since(c.start))
}
