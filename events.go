package tbucket

import (
	"sync"
	"time"

	"github.com/relaygate/tbucket/internal/idgen"
)

// Event is the common interface of the three event kinds a Limiter emits.
// It exists so EventSink implementations and the internal dispatcher can
// be written generically over "something that happened", while callers
// that only care about one kind use OnSuccess/OnFailure/OnDrained instead.
type Event interface {
	eventName() string
}

// SuccessEvent is emitted whenever Acquire or Reserve grants permits,
// whether immediately or after a wait.
type SuccessEvent struct {
	EventID        string
	LimiterName    string
	Tags           map[string]string
	PermitsGranted int
	At             time.Time
}

// FailureEvent is emitted whenever Acquire or Reserve refuses a request
// because it could not be granted within the configured timeout.
type FailureEvent struct {
	EventID          string
	LimiterName      string
	Tags             map[string]string
	PermitsRequested int
	At               time.Time
}

// DrainedEvent is emitted by Drain. PermitsDiscarded is never negative:
// per the resolved open question in SPEC_FULL.md, an outstanding
// reservation (negative balance) discards nothing.
type DrainedEvent struct {
	EventID          string
	LimiterName      string
	Tags             map[string]string
	PermitsDiscarded int64
	At               time.Time
}

func (SuccessEvent) eventName() string { return "success" }
func (FailureEvent) eventName() string { return "failure" }
func (DrainedEvent) eventName() string { return "drained" }

// EventSink receives events asynchronously; Publish must never block the
// caller for long, since the dispatcher that calls it runs on a single
// background goroutine shared by every event a Limiter emits. A sink that
// panics has that panic recovered and discarded at the publish boundary
// (EventSinkFault in SPEC_FULL.md's error taxonomy) — it never reaches the
// limiter's control flow.
type EventSink interface {
	Publish(Event)
}

var eventIDNode = idgen.MustNewNode(0)

func newEventID() string {
	return eventIDNode.Generate().Base58()
}

// handlerSink adapts the OnSuccess/OnFailure/OnDrained subscription
// surface onto the EventSink interface, so typed callbacks and
// general-purpose sinks (webhook, websocket hub) are fanned out through
// the same dispatcher.
type handlerSink struct {
	mu        sync.RWMutex
	onSuccess []func(SuccessEvent)
	onFailure []func(FailureEvent)
	onDrained []func(DrainedEvent)
}

func (h *handlerSink) addSuccess(f func(SuccessEvent)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onSuccess = append(h.onSuccess, f)
}

func (h *handlerSink) addFailure(f func(FailureEvent)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onFailure = append(h.onFailure, f)
}

func (h *handlerSink) addDrained(f func(DrainedEvent)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onDrained = append(h.onDrained, f)
}

func (h *handlerSink) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	switch e := ev.(type) {
	case SuccessEvent:
		for _, f := range h.onSuccess {
			invokeHandler(f, e)
		}
	case FailureEvent:
		for _, f := range h.onFailure {
			invokeHandler(f, e)
		}
	case DrainedEvent:
		for _, f := range h.onDrained {
			invokeHandler(f, e)
		}
	}
}

// invokeHandler calls a single handler, swallowing any panic so one
// misbehaving subscriber can't take down the dispatcher goroutine or
// affect sibling handlers.
func invokeHandler[E Event](f func(E), ev E) {
	defer func() { _ = recover() }()
	f(ev)
}

// dispatcher fans events out to every registered sink on a single
// background goroutine, bounded by a buffered channel so a slow or stuck
// sink never blocks the CAS path. When the channel is full, events are
// dropped and counted rather than applying backpressure — publication is
// explicitly best-effort (SPEC_FULL.md, §4.2 of spec.md).
type dispatcher struct {
	ch      chan Event
	mu      sync.Mutex
	sinks   []EventSink
	dropped int64
}

const defaultEventBuffer = 256

func newDispatcher(bufSize int) *dispatcher {
	if bufSize <= 0 {
		bufSize = defaultEventBuffer
	}
	d := &dispatcher{ch: make(chan Event, bufSize)}
	go d.run()
	return d
}

// addSink registers sink. Safe to call concurrently with run, which is
// why sinks lives behind mu instead of being set up once before the
// dispatcher goroutine starts: LimiterOptions append to it after
// newDispatcher has already been called.
func (d *dispatcher) addSink(sink EventSink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks = append(d.sinks, sink)
}

func (d *dispatcher) run() {
	for ev := range d.ch {
		d.mu.Lock()
		sinks := d.sinks
		d.mu.Unlock()
		for _, sink := range sinks {
			d.safePublish(sink, ev)
		}
	}
}

func (d *dispatcher) safePublish(sink EventSink, ev Event) {
	defer func() { _ = recover() }()
	sink.Publish(ev)
}

func (d *dispatcher) publish(ev Event) {
	select {
	case d.ch <- ev:
	default:
		atomicAddInt64(&d.dropped, 1)
	}
}
