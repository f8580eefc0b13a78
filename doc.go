// Package tbucket implements a token-bucket rate limiter for high
// concurrency in-process use. Any number of goroutines may concurrently
// request permits from a named Limiter; the limiter grants them
// immediately, grants them after a bounded wait, or refuses.
//
// Every state transition is a single atomic compare-and-swap on an
// immutable snapshot, computed by next, a pure function of the previous
// snapshot and the caller's request. There is no mutex anywhere on the
// acquire/reserve path.
//
// This package is the hard kernel of a larger resilience toolkit
// (circuit breakers, bulkheads, retries, registries); those are
// deliberately out of scope here. tbucket only specifies the interfaces
// such components would consume: a Configuration, a Clock, and an
// EventSink.
package tbucket
