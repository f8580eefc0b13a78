package tbucket

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests advance the monotonic reading a Limiter observes
// without sleeping, so cycle/wait scenarios from the scenario catalogue
// run instantly and deterministically.
type fakeClock struct {
	mu  sync.Mutex
	now int64
}

func (f *fakeClock) NowNanos() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now += int64(d)
}

func newTestLimiter(t *testing.T, limit int, refresh, timeout time.Duration) (*Limiter, *fakeClock) {
	t.Helper()
	cfg, err := NewConfiguration(refresh, limit, timeout)
	require.NoError(t, err)
	clk := &fakeClock{}
	l := NewLimiter("test", cfg, nil, WithClock(clk))
	return l, clk
}

func TestAcquireGrantsImmediatelyWithinBudget(t *testing.T) {
	l, _ := newTestLimiter(t, 5, time.Second, 0)
	for i := 0; i < 5; i++ {
		if !l.Acquire(context.Background(), 1) {
			t.Fatalf("acquire %d: expected grant", i)
		}
	}
}

func TestAcquireRefusesWhenExhaustedAndTimeoutZero(t *testing.T) {
	l, _ := newTestLimiter(t, 2, time.Second, 0)
	require.True(t, l.Acquire(context.Background(), 2))
	assert.False(t, l.Acquire(context.Background(), 1))
}

func TestAcquireWaitsThenGrantsWithinTimeout(t *testing.T) {
	// park() always sleeps real wall-clock nanoseconds regardless of
	// which Clock computed the wait, so this scenario uses the system
	// clock with a short refresh period instead of a fake one.
	cfg, err := NewConfiguration(30*time.Millisecond, 2, time.Second)
	require.NoError(t, err)
	l := NewLimiter("test", cfg, nil)
	require.True(t, l.Acquire(context.Background(), 2))

	start := time.Now()
	ok := l.Acquire(context.Background(), 1)
	elapsed := time.Since(start)

	assert.True(t, ok)
	assert.Greater(t, elapsed, time.Duration(0))
}

func TestAcquireRespectsContextCancellation(t *testing.T) {
	l, _ := newTestLimiter(t, 1, time.Hour, time.Hour)
	require.True(t, l.Acquire(context.Background(), 1))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool, 1)
	go func() { done <- l.Acquire(ctx, 1) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("acquire did not observe context cancellation")
	}
}

func TestReserveReturnsWaitDurationOnSuccess(t *testing.T) {
	l, _ := newTestLimiter(t, 1, time.Second, time.Second)
	require.True(t, l.Acquire(context.Background(), 1))

	wait, ok := l.Reserve(1)
	require.True(t, ok)
	assert.Greater(t, wait, time.Duration(0))
}

func TestReserveFailsWhenWaitExceedsTimeout(t *testing.T) {
	l, _ := newTestLimiter(t, 1, time.Hour, 0)
	require.True(t, l.Acquire(context.Background(), 1))

	wait, ok := l.Reserve(1)
	assert.False(t, ok)
	assert.Zero(t, wait)
}

func TestDrainDiscardsAvailableBudget(t *testing.T) {
	l, _ := newTestLimiter(t, 5, time.Second, 0)
	discarded := l.Drain()
	assert.EqualValues(t, 5, discarded)

	assert.False(t, l.Acquire(context.Background(), 1))
}

func TestDrainOfOutstandingReservationDiscardsNothing(t *testing.T) {
	l, _ := newTestLimiter(t, 1, time.Hour, time.Hour)
	require.True(t, l.Acquire(context.Background(), 1))

	_, ok := l.Reserve(1)
	require.True(t, ok)

	discarded := l.Drain()
	assert.Zero(t, discarded)
}

func TestChangeLimitForPeriodTakesEffectOnNextRefresh(t *testing.T) {
	l, clk := newTestLimiter(t, 2, time.Second, 0)
	require.True(t, l.Acquire(context.Background(), 2))

	require.NoError(t, l.ChangeLimitForPeriod(10))
	clk.advance(2 * time.Second)

	m := l.Metrics()
	assert.EqualValues(t, 10, m.AvailablePermissions)
}

func TestChangeTimeoutRejectsNegative(t *testing.T) {
	l, _ := newTestLimiter(t, 1, time.Second, 0)
	err := l.ChangeTimeout(-time.Second)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestConcurrentAcquireNeverExceedsBudget(t *testing.T) {
	l, _ := newTestLimiter(t, 20, time.Hour, 0)

	var granted int64
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Acquire(context.Background(), 1) {
				atomic.AddInt64(&granted, 1)
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, granted, int64(20))
}

func TestEventsFireOnSuccessAndFailure(t *testing.T) {
	l, _ := newTestLimiter(t, 1, time.Hour, 0)

	var successes, failures int64
	var wg sync.WaitGroup
	wg.Add(2)
	l.OnSuccess(func(SuccessEvent) { atomic.AddInt64(&successes, 1); wg.Done() })
	l.OnFailure(func(FailureEvent) { atomic.AddInt64(&failures, 1); wg.Done() })

	require.True(t, l.Acquire(context.Background(), 1))
	require.False(t, l.Acquire(context.Background(), 1))

	waitTimeout(t, &wg, time.Second)
	assert.EqualValues(t, 1, atomic.LoadInt64(&successes))
	assert.EqualValues(t, 1, atomic.LoadInt64(&failures))
}

func waitTimeout(t *testing.T, wg *sync.WaitGroup, d time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("timed out waiting for events")
	}
}
