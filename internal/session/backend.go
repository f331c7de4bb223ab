// Package session defines the terminal session backend consumed by the
// workflow manager, the deterministic project → session naming scheme, and
// a pty-based backend for hosts without tmux.
package session

import "errors"

// ErrNotSupported is returned by backends for optional capabilities they
// do not implement.
var ErrNotSupported = errors.New("operation not supported by backend")

// Backend creates, destroys, and writes to named terminal sessions. The
// workflow manager treats every call as synchronous and fallible; backends
// are expected to enforce their own bounded timeouts on external I/O.
type Backend interface {
	// Create starts a detached session with the given name, rooted at
	// workDir when non-empty.
	Create(name, workDir string) error

	// Destroy tears the session down.
	Destroy(name string) error

	// Send transmits text to the session. Text arrives already
	// line-terminated; backends translate the terminator into whatever
	// their transport expects.
	Send(name, text string) error

	// Exists reports whether the named session is live.
	Exists(name string) (bool, error)

	// Clear clears the session's visible output.
	Clear(name string) error
}

// Attacher is implemented by backends that can connect the controlling
// terminal to a session interactively.
type Attacher interface {
	Attach(name string) error
}

// Capturer is implemented by backends that can snapshot recent session
// output, used for activity tracking.
type Capturer interface {
	Capture(name string, lines int) (string, error)
}
