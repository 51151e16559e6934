package watch

import "errors"

// Common errors returned by the watch package.
var (
	// ErrPathResolve is returned when a configured repo path cannot
	// be canonicalized.
	ErrPathResolve = errors.New("failed to resolve repo path")

	// ErrNotDirectory is returned when a configured repo path is not
	// a directory.
	ErrNotDirectory = errors.New("repo path is not a directory")
)
