package workflow

import "errors"

// Lifecycle and routing errors. All are surfaced synchronously and never
// retried; callers match with errors.Is.
var (
	// ErrNotActive means the operation requires the project to be
	// activated first.
	ErrNotActive = errors.New("project is not active")

	// ErrNoActiveSession means a command was dispatched with no current
	// project and no explicit target.
	ErrNoActiveSession = errors.New("no active session")

	// ErrInvalidTarget means an explicit dispatch target is neither a
	// known sentinel nor a usable session name.
	ErrInvalidTarget = errors.New("invalid session target")

	// ErrNoFileContext means a file-based dispatch was requested without
	// a readable file.
	ErrNoFileContext = errors.New("no file context")
)
