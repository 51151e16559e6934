package watch

import (
	"fmt"
	"time"

	"github.com/snapwatch/snapwatch/pkg/config"
	"github.com/snapwatch/snapwatch/pkg/logger"
)

// RepoWatcher owns the active watch generation and the long-lived
// debounce tracker.
type RepoWatcher struct {
	logger  logger.Logger
	builder *builder
	slot    slot
}

// New creates a RepoWatcher from an in-memory configuration.
//
// Parameters:
//   - cfg: the watch configuration
//   - deps: external collaborators; zero value selects the real ones
//   - log: logger instance
//
// Returns:
//   - Running RepoWatcher
//   - Error if the configuration is invalid or any repo path fails
//     to resolve
//
// No reload handler is armed: there is no backing file to observe.
func New(cfg *config.WatchConfig, deps Deps, log logger.Logger) (*RepoWatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	w := newRepoWatcher(deps, log)

	gen, err := w.builder.build(cfg)
	if err != nil {
		return nil, err
	}

	w.slot.swap(gen)
	return w, nil
}

// WithConfigFile creates a RepoWatcher from a configuration file and
// arms hot reload: the file itself is watched, and a successful
// re-parse and rebuild atomically replaces the active watch set.
//
// Fails if the file is unreadable, unparseable, or names a repo path
// that does not resolve.
func WithConfigFile(path string, deps Deps, log logger.Logger) (*RepoWatcher, error) {
	cfgPath, err := canonicalizeFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		return nil, err
	}

	w := newRepoWatcher(deps, log)

	gen, err := w.buildWithReload(cfg, cfgPath)
	if err != nil {
		return nil, err
	}

	w.slot.swap(gen)
	return w, nil
}

func newRepoWatcher(deps Deps, log logger.Logger) *RepoWatcher {
	return &RepoWatcher{
		logger: log,
		slot:   slot{logger: log},
		builder: &builder{
			deps:    deps.withDefaults(),
			tracker: newDebounceTracker(),
			logger:  log,
		},
	}
}

// Close stops all observation and releases every registration held
// by the notification engine.
//
// Close is terminal and idempotent: a reload that completes after
// Close has its generation released rather than installed, so no
// registration outlives the facade.
func (w *RepoWatcher) Close() error {
	w.slot.close()
	return nil
}

// buildWithReload builds a generation from cfg and registers the
// reload handler on the generation's own notifier, so the new
// generation is self-monitoring.
func (w *RepoWatcher) buildWithReload(cfg *config.WatchConfig, cfgPath string) (*generation, error) {
	gen, err := w.builder.build(cfg)
	if err != nil {
		return nil, err
	}

	if err := gen.notifier.WatchPath(cfgPath, w.reloadHandler(cfgPath, cfg.DebouncePeriod.Std())); err != nil {
		_ = gen.close()
		return nil, fmt.Errorf("failed to watch config file %s: %w", cfgPath, err)
	}

	return gen, nil
}

// reloadHandler returns the change handler for the config file.
//
// Each generation re-arms this transition during its own build
// (buildWithReload), so hot reload keeps working across any number
// of generations: a loop over generations, not call-stack recursion.
//
// Parse and rebuild failures are soft: the current generation is
// retained unchanged.
func (w *RepoWatcher) reloadHandler(cfgPath string, period time.Duration) func(changed, root string) {
	return func(_, _ string) {
		// Collapse truncate-then-write rewrites into one reload.
		// Same long-lived tracker as the repo roots, keyed by the
		// config file's canonical path.
		if w.builder.tracker.shouldSuppress(cfgPath, time.Now(), period) {
			return
		}

		cfg, err := config.LoadFromFile(cfgPath)
		if err != nil {
			w.logger.Warn("config reload failed, keeping current watch set",
				"path", cfgPath,
				"error", err)
			return
		}

		gen, err := w.buildWithReload(cfg, cfgPath)
		if err != nil {
			w.logger.Warn("watch set rebuild failed, keeping current watch set",
				"path", cfgPath,
				"error", err)
			return
		}

		w.slot.swap(gen)

		w.logger.Info("watch set reloaded",
			"path", cfgPath,
			"repos", len(cfg.Repos),
			"mode", cfg.Mode)
	}
}
