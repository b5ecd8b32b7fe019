package tracker

import "errors"

var (
	// ErrSaveFailed wraps a persistence failure. The in-memory state stays
	// authoritative.
	ErrSaveFailed = errors.New("save failed")
	// ErrTaskNotFound is recorded when a start trigger names an unknown task.
	ErrTaskNotFound = errors.New("task not found")
	// ErrEntryNotFound is recorded when the store has no row for the active entry.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrLocationNotAuthorized is recorded when GPS updates could not start.
	ErrLocationNotAuthorized = errors.New("location not authorized")
)
