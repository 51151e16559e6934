package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/snapwatch/snapwatch/pkg/config"
	"github.com/snapwatch/snapwatch/pkg/logger"
	"github.com/snapwatch/snapwatch/pkg/notify"
	"github.com/snapwatch/snapwatch/pkg/repo"
)

// generation is one complete, internally consistent set of active
// watch registrations built from one WatchConfig. It owns its
// notifier; closing the generation releases every registration.
type generation struct {
	notifier notify.Notifier
}

func (g *generation) close() error {
	return g.notifier.Close()
}

// builder wires change handlers for one generation at a time.
//
// The tracker and collaborators outlive any single generation; only
// the registrations built here are per-generation.
type builder struct {
	deps    Deps
	tracker *debounceTracker
	logger  logger.Logger
}

// build constructs a generation from cfg.
//
// Construction is all-or-nothing: a repo path that fails to resolve
// aborts the whole build and releases any registrations already
// made, so a bad entry never yields a partially-watched generation.
func (b *builder) build(cfg *config.WatchConfig) (*generation, error) {
	period := cfg.DebouncePeriod.Std()

	notifier, err := b.deps.NewNotifier(cfg.Mode, period, b.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create notifier: %w", err)
	}

	for _, rc := range cfg.Repos {
		root, err := canonicalizeDir(rc.Path)
		if err != nil {
			_ = notifier.Close()
			return nil, err
		}

		if err := notifier.WatchPath(root, b.repoHandler(root, period)); err != nil {
			_ = notifier.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", root, err)
		}

		b.logger.Info("watching repository", "root", root, "mode", cfg.Mode)
	}

	return &generation{notifier: notifier}, nil
}

// repoHandler returns the change handler for one watched root.
//
// The handler is closed over the canonical root, the shared debounce
// tracker, and the repo collaborator, and runs on the notifier's
// worker goroutines.
func (b *builder) repoHandler(root string, period time.Duration) notify.Handler {
	return func(changed, _ string) {
		// The relative path is computed against the watched root,
		// never against the changed path itself.
		rel, err := filepath.Rel(root, changed)
		if err != nil || strings.HasPrefix(rel, "..") {
			b.logger.Error("changed path outside watched root",
				"root", root,
				"changed", changed,
				"error", err)
			return
		}

		// Snapshot writes land under .git; without this filter the
		// snapshot engine would re-trigger itself.
		if isGitPath(rel) {
			return
		}

		if b.tracker.shouldSuppress(root, time.Now(), period) {
			return
		}

		r, err := b.deps.OpenRepo(root)
		if err != nil {
			b.logger.Warn("skipping change, root is not a recognized repository",
				"root", root,
				"error", err)
			return
		}

		ignored, err := r.IsIgnored(rel)
		if err != nil {
			b.logger.Warn("ignore check failed",
				"root", root,
				"path", rel,
				"error", err)
			return
		}
		if ignored {
			b.logger.Debug("change is ignore-listed", "root", root, "path", rel)
			return
		}

		if err := r.Snapshot(); err != nil {
			// Soft failure: one failed snapshot never halts the watch.
			b.logger.Error("snapshot failed", "root", root, "error", err)
			return
		}

		b.logger.Info("snapshot recorded", "root", root, "trigger", rel)
	}
}

// isGitPath reports whether a root-relative path is the version
// control metadata directory or lies beneath it.
func isGitPath(rel string) bool {
	if rel == repo.GitDir {
		return true
	}
	return strings.HasPrefix(rel, repo.GitDir+string(filepath.Separator))
}

// canonicalizeDir resolves path to an absolute, symlink-free
// directory path.
func canonicalizeDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrPathResolve, path, err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrPathResolve, path, err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrPathResolve, path, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, path)
	}

	return resolved, nil
}

// canonicalizeFile resolves path to an absolute, symlink-free file
// path.
func canonicalizeFile(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrPathResolve, path, err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrPathResolve, path, err)
	}

	return resolved, nil
}
