package tbucket

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSink) Publish(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestDispatcherFansOutToAllSinks(t *testing.T) {
	d := newDispatcher(8)
	a := &recordingSink{}
	b := &recordingSink{}
	d.addSink(a)
	d.addSink(b)

	d.publish(SuccessEvent{EventID: "1"})

	assert.Eventually(t, func() bool { return a.count() == 1 && b.count() == 1 }, time.Second, time.Millisecond)
}

func TestDispatcherDropsWhenBufferFull(t *testing.T) {
	d := &dispatcher{ch: make(chan Event)} // unbuffered, never consumed

	d.publish(SuccessEvent{EventID: "1"})

	assert.EqualValues(t, 1, atomic.LoadInt64(&d.dropped))
}

func TestHandlerSinkRecoversFromPanickingHandler(t *testing.T) {
	h := &handlerSink{}
	var called int32
	h.addSuccess(func(SuccessEvent) { panic("boom") })
	h.addSuccess(func(SuccessEvent) { atomic.AddInt32(&called, 1) })

	assert.NotPanics(t, func() { h.Publish(SuccessEvent{}) })
	assert.EqualValues(t, 1, atomic.LoadInt32(&called))
}

func TestNewEventIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := newEventID()
		if seen[id] {
			t.Fatalf("duplicate event id %q", id)
		}
		seen[id] = true
	}
}
