package notify

import "errors"

// Common errors returned by the notify package.
var (
	// ErrNotifierClosed is returned when registering on a closed notifier.
	ErrNotifierClosed = errors.New("notifier is closed")

	// ErrUnknownMode is returned when the watch mode is not recognized.
	ErrUnknownMode = errors.New("unknown watch mode")
)
