package tbucket

import "sync/atomic"

// atomicAddInt64 adds delta to *addr and returns the new value. events.go
// uses it for the dispatcher's dropped-event counter; limiter.go uses the
// typed atomic.Int64 and atomic.Pointer instead.
func atomicAddInt64(addr *int64, delta int64) int64 {
	return atomic.AddInt64(addr, delta)
}
