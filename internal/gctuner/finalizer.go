package gctuner

import (
	"runtime"
	"sync/atomic"
)

// finalizerCallback runs once per garbage collection cycle.
type finalizerCallback func()

// finalizer drives callback on every GC by re-arming a runtime
// finalizer on a throwaway object each time it fires: the Go runtime
// only invokes a finalizer once an object becomes unreachable, which a
// full GC cycle guarantees for finalizerRef as soon as it's dropped.
type finalizer struct {
	ref      *finalizerRef
	callback finalizerCallback
	stopped  int32 // accessed atomically
}

// stop prevents callback from running on any future GC.
func (f *finalizer) stop() {
	atomic.StoreInt32(&f.stopped, 1)
}

// finalizerRef is the object the runtime finalizer is attached to; it
// holds nothing but a back-pointer so finalizerHandler can reach the
// owning finalizer and re-arm itself.
type finalizerRef struct {
	parent *finalizer
}

func finalizerHandler(ref *finalizerRef) {
	if atomic.LoadInt32(&ref.parent.stopped) == 1 {
		return
	}
	ref.parent.callback()
	runtime.SetFinalizer(ref, finalizerHandler)
}

// newFinalizer builds a finalizer whose callback the runtime invokes on
// every GC cycle until stop is called. The caller must keep the
// returned value reachable, or the runtime will finalize it early.
func newFinalizer(callback finalizerCallback) *finalizer {
	f := &finalizer{callback: callback}
	f.ref = &finalizerRef{parent: f}
	runtime.SetFinalizer(f.ref, finalizerHandler)
	f.ref = nil // drop our own reference so the next GC can finalize it
	return f
}
