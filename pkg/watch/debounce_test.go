package watch

import (
	"sync"
	"testing"
	"time"
)

func TestShouldSuppressFirstTrigger(t *testing.T) {
	tr := newDebounceTracker()
	now := time.Now()

	if tr.shouldSuppress("/repo", now, time.Second) {
		t.Error("shouldSuppress() = true for first trigger, want false")
	}
}

func TestShouldSuppressWithinWindow(t *testing.T) {
	tr := newDebounceTracker()
	now := time.Now()

	tr.shouldSuppress("/repo", now, time.Second)

	if !tr.shouldSuppress("/repo", now.Add(500*time.Millisecond), time.Second) {
		t.Error("shouldSuppress() = false within window, want true")
	}
}

func TestShouldSuppressAfterWindow(t *testing.T) {
	tr := newDebounceTracker()
	now := time.Now()

	tr.shouldSuppress("/repo", now, time.Second)

	if tr.shouldSuppress("/repo", now.Add(time.Second), time.Second) {
		t.Error("shouldSuppress() = true after window elapsed, want false")
	}
}

func TestSuppressedTriggerDoesNotExtendWindow(t *testing.T) {
	tr := newDebounceTracker()
	now := time.Now()

	// The window is anchored to the last accepted trigger: a stream
	// of sub-period events never pushes the next allowed trigger out.
	tr.shouldSuppress("/repo", now, time.Second)

	for ms := 100; ms < 1000; ms += 100 {
		if !tr.shouldSuppress("/repo", now.Add(time.Duration(ms)*time.Millisecond), time.Second) {
			t.Fatalf("shouldSuppress() = false at +%dms, want true", ms)
		}
	}

	if tr.shouldSuppress("/repo", now.Add(1100*time.Millisecond), time.Second) {
		t.Error("shouldSuppress() = true one period after the accepted trigger, want false")
	}
}

func TestShouldSuppressIndependentKeys(t *testing.T) {
	tr := newDebounceTracker()
	now := time.Now()

	tr.shouldSuppress("/repo-a", now, time.Second)

	if tr.shouldSuppress("/repo-b", now, time.Second) {
		t.Error("shouldSuppress() = true for a different key, want false")
	}
}

func TestShouldSuppressZeroPeriod(t *testing.T) {
	tr := newDebounceTracker()
	now := time.Now()

	for i := 0; i < 3; i++ {
		if tr.shouldSuppress("/repo", now, 0) {
			t.Errorf("shouldSuppress() = true with zero period (call %d), want false", i)
		}
	}
}

func TestShouldSuppressConcurrent(t *testing.T) {
	tr := newDebounceTracker()
	now := time.Now()

	// Exactly one of N simultaneous triggers for the same key may be
	// accepted.
	const goroutines = 32

	var wg sync.WaitGroup
	accepted := make(chan struct{}, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !tr.shouldSuppress("/repo", now, time.Hour) {
				accepted <- struct{}{}
			}
		}()
	}

	wg.Wait()
	close(accepted)

	count := 0
	for range accepted {
		count++
	}

	if count != 1 {
		t.Errorf("accepted %d concurrent triggers, want exactly 1", count)
	}
}
