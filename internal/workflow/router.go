package workflow

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zakandrewking/workon/internal/session"
)

// TargetKind tags where a dispatched command should go.
type TargetKind int

const (
	// KindCurrent routes to the current project's session.
	KindCurrent TargetKind = iota
	// KindExplicit routes to a named session, creating it on demand.
	KindExplicit
	// KindMain routes to the current project's session for running its
	// entry point (the pending command).
	KindMain
)

// Target is a resolved-before-dispatch routing variant, replacing the
// source's symbolic sentinel values.
type Target struct {
	Kind TargetKind
	Name string
}

// CurrentTarget routes to the current project's session.
func CurrentTarget() Target { return Target{Kind: KindCurrent} }

// ExplicitTarget routes to the named session.
func ExplicitTarget(name string) Target { return Target{Kind: KindExplicit, Name: name} }

// MainTarget routes to the current project's main session.
func MainTarget() Target { return Target{Kind: KindMain} }

// Dispatch sends text to the resolved target session with exactly one
// trailing line terminator, then records the pre-terminator text in
// command history.
func (m *Manager) Dispatch(text string, target Target) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dispatchLocked(text, target)
}

// DispatchFile sends a file's contents to the resolved target session.
func (m *Manager) DispatchFile(path string, target Target) error {
	if strings.TrimSpace(path) == "" {
		return ErrNoFileContext
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoFileContext, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dispatchLocked(string(data), target)
}

// RunPending dispatches the pending command to the current project's main
// session.
func (m *Manager) RunPending() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == "" {
		return ErrNoActiveSession
	}
	return m.dispatchLocked(m.pending, MainTarget())
}

func (m *Manager) dispatchLocked(text string, target Target) error {
	sess, err := m.resolveLocked(target)
	if err != nil {
		return err
	}

	command := strings.TrimRight(text, "\r\n")
	if err := m.backend.Send(sess, command+"\n"); err != nil {
		return fmt.Errorf("send to %s: %w", sess, err)
	}
	m.history.Append(command)

	m.log.Debug().Str("session", sess).Str("command", command).Msg("dispatched")
	return nil
}

// resolveLocked turns a target into a live session name. Explicit targets
// that do not exist yet are created lazily, without changing focus.
func (m *Manager) resolveLocked(target Target) (string, error) {
	switch target.Kind {
	case KindCurrent, KindMain:
		if m.current == "" {
			return "", ErrNoActiveSession
		}
		return session.Name(m.current), nil

	case KindExplicit:
		name := target.Name
		if !session.ValidName(name) {
			return "", fmt.Errorf("%w: %q", ErrInvalidTarget, name)
		}
		exists, err := m.backend.Exists(name)
		if err != nil {
			return "", fmt.Errorf("%w: %q: %v", ErrInvalidTarget, name, err)
		}
		if !exists {
			if err := m.backend.Create(name, ""); err != nil {
				return "", fmt.Errorf("%w: create %q: %v", ErrInvalidTarget, name, err)
			}
		}
		return name, nil

	default:
		return "", fmt.Errorf("%w: kind %d", ErrInvalidTarget, target.Kind)
	}
}

// IsLifecycleError reports whether err is one of the workflow's sentinel
// failures, as opposed to a backend or hook error.
func IsLifecycleError(err error) bool {
	return errors.Is(err, ErrNotActive) ||
		errors.Is(err, ErrNoActiveSession) ||
		errors.Is(err, ErrInvalidTarget) ||
		errors.Is(err, ErrNoFileContext)
}
