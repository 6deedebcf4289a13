package engine

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTracker_AccumulatesAcceptedDeltas(t *testing.T) {
	clock := newFakeClock()
	tr := NewTracker(0, 300, 2, 1, clock.Now)

	total := 0
	for i := 0; i < 10; i++ {
		clock.Advance(time.Second)
		if !tr.Tick(1) {
			t.Fatalf("tick %d unexpectedly rejected", i)
		}
		total++
	}

	if tr.Accumulated() != total {
		t.Errorf("Expected accumulated %d, got %d", total, tr.Accumulated())
	}
}

func TestTracker_RejectsImplausibleDeltas(t *testing.T) {
	tests := []struct {
		name    string
		advance time.Duration
		delta   int
		accept  bool
	}{
		{"negative delta", time.Second, -5, false},
		{"zero delta", time.Second, 0, false},
		{"50s delta after 1s wall time", time.Second, 50, false},
		{"delta within grace", time.Second, 2, true},
		{"delta matching wall time", 5 * time.Second, 5, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clock := newFakeClock()
			tr := NewTracker(0, 300, 2, 1, clock.Now)
			before := tr.Accumulated()

			clock.Advance(tc.advance)
			accepted := tr.Tick(tc.delta)
			if accepted != tc.accept {
				t.Fatalf("Expected accepted=%v, got %v", tc.accept, accepted)
			}
			if !tc.accept && tr.Accumulated() != before {
				t.Errorf("Rejected tick changed accumulated: %d -> %d", before, tr.Accumulated())
			}
		})
	}
}

func TestTracker_MonotonicAndNeverExceedsCap(t *testing.T) {
	clock := newFakeClock()
	tr := NewTracker(0, 10, 2, 1, clock.Now)

	prev := 0
	for i := 0; i < 20; i++ {
		clock.Advance(time.Second)
		tr.Tick(1)
		if tr.Accumulated() < prev {
			t.Fatalf("Accumulated decreased: %d -> %d", prev, tr.Accumulated())
		}
		prev = tr.Accumulated()
	}

	if tr.Accumulated() != 10 {
		t.Errorf("Expected accumulation clamped at cap 10, got %d", tr.Accumulated())
	}
}

func TestTracker_DebouncedFlush(t *testing.T) {
	clock := newFakeClock()
	tr := NewTracker(0, 300, 2, 1, clock.Now)

	clock.Advance(time.Second)
	tr.Tick(1)
	if tr.NeedsFlush() {
		t.Error("Flush due after 1s with a 2s debounce")
	}

	clock.Advance(time.Second)
	tr.Tick(1)
	if !tr.NeedsFlush() {
		t.Error("Expected flush due after 2s of activity")
	}

	tr.MarkFlushed()
	if tr.Pending() != 0 {
		t.Errorf("Expected no pending seconds after flush, got %d", tr.Pending())
	}
	if tr.NeedsFlush() {
		t.Error("Flush still due after MarkFlushed")
	}
}

func TestTracker_FlushFailuresDegradeAfterRetries(t *testing.T) {
	clock := newFakeClock()
	tr := NewTracker(0, 300, 2, 1, clock.Now)

	clock.Advance(2 * time.Second)
	tr.Tick(2)

	for i := 0; i < maxFlushFailures-1; i++ {
		if tr.FlushFailed() {
			t.Fatalf("Degraded after %d failures, expected %d", i+1, maxFlushFailures)
		}
	}
	if !tr.FlushFailed() {
		t.Error("Expected degradation on the final flush failure")
	}
	if !tr.Degraded() {
		t.Error("Tracker should report degraded")
	}

	// Pending seconds survive failures and remain flushable.
	if tr.Pending() != 2 {
		t.Errorf("Expected 2 pending seconds, got %d", tr.Pending())
	}
	tr.MarkFlushed()
	if tr.Pending() != 0 {
		t.Errorf("Expected recovery flush to clear pending, got %d", tr.Pending())
	}
}
