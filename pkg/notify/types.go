// Package notify provides low-level filesystem change notification.
//
// A Notifier watches registered paths and invokes the registered
// handler for every detected change. Two implementations exist:
// event mode, built on fsnotify, and poll mode, which scans watched
// trees on a fixed interval. Both deliver callbacks on their own
// goroutines; callers must handle concurrent invocations.
//
// Example usage:
//
//	n, err := notify.New(config.ModeEvent, 500*time.Millisecond, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer n.Close()
//
//	err = n.WatchPath("/src/project", func(changed, root string) {
//	    fmt.Printf("changed: %s under %s\n", changed, root)
//	})
package notify

import (
	"fmt"
	"time"

	"github.com/snapwatch/snapwatch/pkg/config"
	"github.com/snapwatch/snapwatch/pkg/logger"
)

// Handler is invoked with the changed absolute path and the
// registered root on every detected change under that root.
//
// Handlers run on the notifier's worker goroutines and may be
// invoked concurrently, including for the same root.
type Handler func(changed string, root string)

// Notifier watches filesystem paths for changes.
type Notifier interface {
	// WatchPath registers a handler for changes under root.
	//
	// Root may be a directory (the whole tree is observed,
	// including directories created later) or a regular file
	// (only changes to that exact path are delivered, surviving
	// truncate-then-rename rewrites).
	//
	// Returns ErrNotifierClosed after Close.
	WatchPath(root string, h Handler) error

	// Close releases all registrations. No new callbacks are
	// delivered after Close returns; in-flight handlers may
	// run to completion.
	Close() error
}

// New creates a Notifier for the given watch mode.
//
// Parameters:
//   - mode: event-based or polling change detection
//   - period: poll interval in poll mode; ignored in event mode
//   - log: logger instance
//
// Returns:
//   - Configured Notifier
//   - Error if the notifier cannot be created
func New(mode config.WatchMode, period time.Duration, log logger.Logger) (Notifier, error) {
	switch mode {
	case config.ModeEvent:
		return newEventNotifier(log)
	case config.ModePoll:
		return newPollNotifier(period, log), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}
