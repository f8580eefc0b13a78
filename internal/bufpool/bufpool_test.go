package bufpool

import "testing"

func TestPoolReusesBuffers(t *testing.T) {
	p := NewBytes(64, 1024, 2)

	b := p.Get(100).([]byte)
	if cap(b) < 100 {
		t.Fatalf("cap = %d, want >= 100", cap(b))
	}
	p.Put(b)

	b2 := p.Get(100).([]byte)
	if cap(b2) < 100 {
		t.Fatalf("cap = %d, want >= 100", cap(b2))
	}
}

func TestPoolFallsBackWhenLargerThanAnyBucket(t *testing.T) {
	p := NewBytes(8, 16, 2)
	b := p.Get(1000).([]byte)
	if cap(b) < 1000 {
		t.Fatalf("cap = %d, want >= 1000", cap(b))
	}
}

func TestNewPanicsOnInvalidFactor(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for factor <= 1")
		}
	}()
	New(1, 10, 1, func(int) interface{} { return []byte{} })
}
