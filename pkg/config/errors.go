package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrConfigNotFound is returned when the config file does not exist.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidYAML is returned when the config document cannot be parsed.
	ErrInvalidYAML = errors.New("invalid YAML syntax in config file")

	// ErrInvalidMode is returned when the watch mode is not "event" or "poll".
	ErrInvalidMode = errors.New("invalid watch mode")

	// ErrNegativeDebounce is returned when the debounce period is negative.
	ErrNegativeDebounce = errors.New("invalid debounce period: must be >= 0")

	// ErrEmptyRepoPath is returned when a repo entry has an empty path.
	ErrEmptyRepoPath = errors.New("repo path must not be empty")
)
