// Package config provides the watch configuration for snapwatch.
//
// A configuration document is a YAML file naming the repositories to
// observe, the watch mode, and the debounce window:
//
//	repos:
//	  - path: /src/project
//	  - path: /src/other
//	mode: event
//	debounce_period: 500ms
//
// Example usage:
//
//	cfg, err := config.LoadFromFile("watch.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("watching %d repos\n", len(cfg.Repos))
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// WatchMode selects how filesystem changes are detected.
type WatchMode string

// Watch modes.
const (
	// ModeEvent uses OS change notifications.
	ModeEvent WatchMode = "event"

	// ModePoll scans watched trees on a fixed interval.
	ModePoll WatchMode = "poll"
)

// String returns the mode's configuration document value.
func (m WatchMode) String() string {
	return string(m)
}

// Duration wraps time.Duration with YAML support for
// time.ParseDuration strings ("500ms", "2s").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}

	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// RepoConfig names one repository to observe.
type RepoConfig struct {
	// Path is the repository root. It must resolve to an existing
	// directory when the watch set is built.
	Path string `yaml:"path"`
}

// WatchConfig is the complete watch configuration.
//
// Invariants:
// - DebouncePeriod must be >= 0
// - Mode must be "event" or "poll"
// - every repo path must be non-empty
//
// An empty Repos list is legal and yields a no-op watch.
type WatchConfig struct {
	// Repos are the repositories to observe, in document order.
	Repos []RepoConfig `yaml:"repos"`

	// Mode selects event-based or polling change detection.
	Mode WatchMode `yaml:"mode"`

	// DebouncePeriod is the minimum interval between two accepted
	// triggers for the same root. It also drives the poll interval
	// in poll mode.
	DebouncePeriod Duration `yaml:"debounce_period"`
}

// Validate checks that the configuration satisfies all invariants.
func (c *WatchConfig) Validate() error {
	switch c.Mode {
	case ModeEvent, ModePoll:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, c.Mode)
	}

	if c.DebouncePeriod < 0 {
		return ErrNegativeDebounce
	}

	for i, repo := range c.Repos {
		if repo.Path == "" {
			return fmt.Errorf("%w: repos[%d]", ErrEmptyRepoPath, i)
		}
	}

	return nil
}
