// Package watch implements the repository watch lifecycle.
//
// A RepoWatcher observes one or more repository trees and triggers a
// content snapshot when meaningful changes occur, suppressing bursts
// through per-root debouncing and ignoring changes under the
// repository's own .git directory. When constructed from a config
// file, the watcher also observes that file and atomically replaces
// the active watch set on changes, without restarting the process.
//
// Example usage:
//
//	w, err := watch.WithConfigFile("watch.yaml", watch.Deps{}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
package watch

import (
	"time"

	"github.com/snapwatch/snapwatch/pkg/config"
	"github.com/snapwatch/snapwatch/pkg/logger"
	"github.com/snapwatch/snapwatch/pkg/notify"
	"github.com/snapwatch/snapwatch/pkg/repo"
)

// Repository is the subset of repository operations the watch layer
// invokes from change handlers.
type Repository interface {
	// IsIgnored reports whether a root-relative path is excluded
	// by the repository's ignore rules.
	IsIgnored(rel string) (bool, error)

	// Snapshot records the repository's current content.
	Snapshot() error
}

// Deps supplies the watch layer's external collaborators.
//
// The zero value selects the real implementations (pkg/notify and
// pkg/repo); tests substitute fakes.
type Deps struct {
	// NewNotifier creates the notification engine for one
	// generation of watch registrations.
	NewNotifier func(mode config.WatchMode, period time.Duration, log logger.Logger) (notify.Notifier, error)

	// OpenRepo resolves a repository handle for a watched root.
	OpenRepo func(path string) (Repository, error)
}

// withDefaults fills unset collaborators with the real implementations.
func (d Deps) withDefaults() Deps {
	if d.NewNotifier == nil {
		d.NewNotifier = notify.New
	}
	if d.OpenRepo == nil {
		d.OpenRepo = func(path string) (Repository, error) {
			r, err := repo.FromPath(path)
			if err != nil {
				return nil, err
			}
			return r, nil
		}
	}
	return d
}
