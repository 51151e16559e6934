package notify

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/snapwatch/snapwatch/pkg/logger"
)

// defaultPollInterval is used when the configured period is zero.
const defaultPollInterval = time.Second

// fileState is the per-path fingerprint a poll scan compares against.
type fileState struct {
	modTime time.Time
	size    int64
}

// pollNotifier implements Notifier by periodically scanning the
// registered trees and diffing modification times and sizes.
type pollNotifier struct {
	period time.Duration
	logger logger.Logger

	mu     sync.Mutex
	closed bool

	done chan struct{}
	wg   sync.WaitGroup
}

func newPollNotifier(period time.Duration, log logger.Logger) *pollNotifier {
	if period <= 0 {
		period = defaultPollInterval
	}

	return &pollNotifier{
		period: period,
		logger: log,
		done:   make(chan struct{}),
	}
}

// WatchPath implements Notifier.WatchPath.
func (n *pollNotifier) WatchPath(root string, h Handler) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return ErrNotifierClosed
	}
	n.mu.Unlock()

	if _, err := os.Stat(root); err != nil {
		return fmt.Errorf("failed to stat watch path %s: %w", root, err)
	}

	// Baseline scan. Only changes after registration are reported.
	previous := n.scan(root)

	n.wg.Add(1)
	go n.pollLoop(root, h, previous)

	n.logger.Debug("registered poll path", "path", root, "interval", n.period)
	return nil
}

// Close implements Notifier.Close.
func (n *pollNotifier) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	n.mu.Unlock()

	close(n.done)
	n.wg.Wait()
	return nil
}

// pollLoop rescans root every period and reports differences.
func (n *pollNotifier) pollLoop(root string, h Handler, previous map[string]fileState) {
	defer n.wg.Done()

	ticker := time.NewTicker(n.period)
	defer ticker.Stop()

	for {
		select {
		case <-n.done:
			return
		case <-ticker.C:
		}

		current := n.scan(root)

		for path, state := range current {
			prev, seen := previous[path]
			if !seen || prev.modTime != state.modTime || prev.size != state.size {
				go h(path, root)
			}
		}

		for path := range previous {
			if _, still := current[path]; !still {
				go h(path, root)
			}
		}

		previous = current
	}
}

// scan fingerprints every regular file at or under root.
func (n *pollNotifier) scan(root string) map[string]fileState {
	states := make(map[string]fileState)

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// Transient: the path may be mid-delete.
			return nil
		}

		if info.Mode().IsRegular() {
			states[path] = fileState{modTime: info.ModTime(), size: info.Size()}
		}

		return nil
	})
	if err != nil {
		n.logger.Warn("poll scan failed", "path", root, "error", err)
	}

	return states
}
