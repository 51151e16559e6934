package watch

import (
	"sync"

	"github.com/snapwatch/snapwatch/pkg/logger"
)

// slot is the single owner of the currently live generation.
//
// Installation and replacement happen only through swap, so two
// writers can never race on the active generation. After a swap
// completes, at most one generation can receive new notifications;
// an in-flight callback for the superseded generation may still run
// to completion on its own closed-over state.
//
// close is terminal: a reload callback that was delivered before
// close but finishes its rebuild afterwards must not resurrect the
// watch, so swap releases the incoming generation instead of
// installing it once the slot is closed.
type slot struct {
	logger logger.Logger

	mu      sync.Mutex
	current *generation
	closed  bool
}

// swap installs next as the live generation and releases the
// previous generation's registrations. On a closed slot, next is
// released and nothing is installed.
//
// Generations are closed after the lock is released: closing waits
// on the notifier's workers and must not serialize with
// installation.
func (s *slot) swap(next *generation) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.release(next)
		return
	}
	prev := s.current
	s.current = next
	s.mu.Unlock()

	s.release(prev)
}

// close tears down the live generation and marks the slot closed.
// Idempotent.
func (s *slot) close() {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.closed = true
	s.mu.Unlock()

	s.release(prev)
}

func (s *slot) release(gen *generation) {
	if gen == nil {
		return
	}
	if err := gen.close(); err != nil {
		s.logger.Error("failed to release watch generation", "error", err)
	}
}
