// Package bufpool provides a bucketed []byte pool so the webhook and
// websocket event sinks can reuse encoding buffers across publishes
// instead of allocating one per event.
package bufpool

import (
	"fmt"
	"reflect"
	"sync"
)

// Pool is a bucketed pool for variably sized slices.
type Pool struct {
	buckets []sync.Pool
	sizes   []int
	make    func(int) interface{}
}

// New returns a Pool with size buckets from minSize to maxSize,
// increasing by the given factor.
func New(minSize, maxSize int, factor float64, makeFunc func(int) interface{}) *Pool {
	if minSize < 1 {
		panic("minSize must be greater than zero")
	}
	if maxSize < 1 {
		panic("maxSize must be greater than zero")
	}
	if factor <= 1 {
		panic("factor must be greater than one")
	}

	var sizes []int
	for s := minSize; s <= maxSize; s = int(float64(s) * factor) {
		sizes = append(sizes, s)
	}

	return &Pool{
		buckets: make([]sync.Pool, len(sizes)),
		sizes:   sizes,
		make:    makeFunc,
	}
}

// NewBytes is New specialized to []byte, the pool used by the event
// sinks.
func NewBytes(minSize, maxSize int, factor float64) *Pool {
	return New(minSize, maxSize, factor, func(sz int) interface{} {
		return make([]byte, 0, sz)
	})
}

// Get returns a slice with capacity for at least sz elements.
func (p *Pool) Get(sz int) interface{} {
	for i, bkSize := range p.sizes {
		if bkSize < sz {
			continue
		}
		b := p.buckets[i].Get()
		if b == nil {
			b = p.make(bkSize)
		}
		return b
	}
	return p.make(sz)
}

// Put returns s to the bucket matching its capacity so a future Get can
// reuse its backing array.
func (p *Pool) Put(s interface{}) {
	slice := reflect.ValueOf(s)
	if slice.Kind() != reflect.Slice {
		panic(fmt.Sprintf("%+v is not a slice", slice))
	}
	for i, size := range p.sizes {
		if slice.Cap() > size {
			continue
		}
		p.buckets[i].Put(slice.Slice(0, 0).Interface())
		return
	}
}
