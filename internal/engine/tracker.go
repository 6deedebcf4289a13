package engine

import "time"

// maxFlushFailures is how many consecutive flush errors are tolerated
// before the record is flagged degraded. Tracking continues either way.
const maxFlushFailures = 3

// Tracker accumulates engaged seconds for one live session. Deltas that
// imply faster-than-real-time playback are discarded, accumulation is
// clamped at the activity's total duration, and the persisted value is
// debounced: a flush is due only after debounceSeconds of new activity.
type Tracker struct {
	accumulated  int // total engaged seconds, flushed + pending
	flushedAt    int // accumulated value at the last successful flush
	capSeconds   int // 0 means uncapped
	debounce     int
	graceSeconds int
	lastTickAt   time.Time
	failures     int
	degraded     bool
	now          func() time.Time
}

func NewTracker(startSeconds, capSeconds, debounceSeconds, graceSeconds int, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	if debounceSeconds <= 0 {
		debounceSeconds = 2
	}
	return &Tracker{
		accumulated:  startSeconds,
		flushedAt:    startSeconds,
		capSeconds:   capSeconds,
		debounce:     debounceSeconds,
		graceSeconds: graceSeconds,
		lastTickAt:   now(),
		now:          now,
	}
}

// Tick applies a positive engaged-time delta. It reports false and leaves
// state unchanged when the delta is non-positive or exceeds the wall time
// elapsed since the previous tick (plus grace). Clock manipulation is
// discarded silently, not surfaced to the user.
func (t *Tracker) Tick(deltaSeconds int) bool {
	if deltaSeconds <= 0 {
		return false
	}

	n := t.now()
	allowed := int(n.Sub(t.lastTickAt)/time.Second) + t.graceSeconds
	if deltaSeconds > allowed {
		return false
	}

	t.lastTickAt = n
	t.accumulated += deltaSeconds
	if t.capSeconds > 0 && t.accumulated > t.capSeconds {
		t.accumulated = t.capSeconds
	}
	return true
}

func (t *Tracker) Accumulated() int { return t.accumulated }

// Pending is how many accumulated seconds have not been persisted yet.
func (t *Tracker) Pending() int { return t.accumulated - t.flushedAt }

// NeedsFlush reports whether enough unflushed activity has built up.
func (t *Tracker) NeedsFlush() bool { return t.Pending() >= t.debounce }

// MarkFlushed records a successful persist of the current value.
func (t *Tracker) MarkFlushed() {
	t.flushedAt = t.accumulated
	t.failures = 0
}

// FlushFailed records a persistence failure. The pending seconds stay
// buffered and are retried on the next debounce tick; after
// maxFlushFailures consecutive failures the tracker reports degraded.
// It returns true on the failure that crosses the threshold.
func (t *Tracker) FlushFailed() bool {
	t.failures++
	if t.failures >= maxFlushFailures && !t.degraded {
		t.degraded = true
		return true
	}
	return false
}

func (t *Tracker) Degraded() bool { return t.degraded }
