package paralleljob

import "errors"

var (
	// Posting errors.
	ErrNilTask    = errors.New("paralleljob: nil task")
	ErrNotStarted = errors.New("paralleljob: scheduler not started")
	ErrStopped    = errors.New("paralleljob: scheduler stopped")

	// Configuration errors.
	ErrNoExecutor = errors.New("paralleljob: no executor configured")
)
