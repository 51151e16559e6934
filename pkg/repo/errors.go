package repo

import "errors"

// Common errors returned by the repo package.
var (
	// ErrNotARepository is returned when a path has no .git directory.
	ErrNotARepository = errors.New("not a repository")

	// ErrBadPattern is returned when an ignore pattern is malformed.
	ErrBadPattern = errors.New("malformed ignore pattern")
)
