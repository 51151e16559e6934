package watch

import (
	"sync"
	"time"
)

// debounceTracker maps a watched-root identity to the timestamp of
// its last accepted trigger.
//
// The tracker is created once per facade and shared by every
// generation, so a config reload never resets debounce history.
// Entries are never cleared.
type debounceTracker struct {
	mu           sync.Mutex
	lastAccepted map[string]time.Time
}

func newDebounceTracker() *debounceTracker {
	return &debounceTracker{
		lastAccepted: make(map[string]time.Time),
	}
}

// shouldSuppress decides whether a change observed at now for key
// falls inside the debounce window.
//
// If a prior timestamp exists and now−prior < period, the change is
// suppressed and the stored timestamp is left unchanged: the window
// stays anchored to the last accepted trigger, so a continuous
// stream of sub-period events never pushes the next allowed trigger
// further out. Otherwise the change is accepted and now is recorded.
//
// The critical section is the read-compare-write only; callers
// perform any I/O after the decision.
func (t *debounceTracker) shouldSuppress(key string, now time.Time, period time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prior, ok := t.lastAccepted[key]; ok && now.Sub(prior) < period {
		return true
	}

	t.lastAccepted[key] = now
	return false
}
