// Package workflow implements the project lifecycle state machine and the
// command router. A single Manager owns all mutable lifecycle state —
// the active set, the current pointer, command history, and the pending
// command — and serializes every transition through one mutex.
package workflow

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/zakandrewking/workon/internal/history"
	"github.com/zakandrewking/workon/internal/hooks"
	"github.com/zakandrewking/workon/internal/project"
	"github.com/zakandrewking/workon/internal/session"
)

// DefaultPrefix is the pending-command prefix used when none is configured.
const DefaultPrefix = "python"

// Manager drives project activation, selection, and deactivation, and
// routes commands to the current project's session. Transitions are
// non-reentrant; the mutex makes that an ownership guarantee rather than a
// convention.
type Manager struct {
	mu sync.Mutex

	registry *project.Registry
	backend  session.Backend
	hooks    *hooks.Dispatcher
	history  *history.History
	log      zerolog.Logger

	prefix  string
	pending string
	current string
	active  map[string]bool
}

// New creates a manager over the given collaborators. An empty prefix
// falls back to DefaultPrefix.
func New(reg *project.Registry, backend session.Backend, dispatcher *hooks.Dispatcher, hist *history.History, prefix string, log zerolog.Logger) *Manager {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if dispatcher == nil {
		dispatcher = hooks.NewDispatcher()
	}
	if hist == nil {
		hist = history.New()
	}
	return &Manager{
		registry: reg,
		backend:  backend,
		hooks:    dispatcher,
		history:  hist,
		log:      log,
		prefix:   prefix,
		active:   make(map[string]bool),
	}
}

// snapshot captures the singleton state a transition may need to restore.
type snapshot struct {
	current string
	pending string
	history []string
}

func (m *Manager) snapshotLocked() snapshot {
	return snapshot{
		current: m.current,
		pending: m.pending,
		history: m.history.Entries(),
	}
}

func (m *Manager) restoreLocked(s snapshot) {
	m.current = s.current
	m.pending = s.pending
	m.history.Reset()
	m.history.Seed(s.history)
}

// Activate resolves a project, creates its session, seeds history with its
// preset commands, runs the activation command in the session, and makes
// it current. Re-activating an active project recreates its session.
//
// If any step fails after the session was created, the transition rolls
// back: the session is destroyed, the name leaves the active set, and the
// prior current/pending/history state is restored.
func (m *Manager) Activate(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := m.registry.Lookup(name)
	if err != nil {
		return "", err
	}
	mainPath := cfg.MainPath()
	sess := session.Name(name)

	prior := m.snapshotLocked()

	// Recreate rather than reuse: a stale session from a previous
	// activation gets torn down first.
	if exists, err := m.backend.Exists(sess); err == nil && exists {
		if err := m.backend.Destroy(sess); err != nil {
			return "", fmt.Errorf("replace session for %q: %w", name, err)
		}
		delete(m.active, name)
		// Once the stale session is gone there is no prior state left to
		// restore for this project: a failed re-activation must not leave
		// the current pointer at a dead session.
		if m.current == name {
			m.current = ""
			m.pending = ""
			m.history.Reset()
			prior = m.snapshotLocked()
		}
	}
	if err := m.backend.Create(sess, cfg.Root); err != nil {
		return "", fmt.Errorf("create session for %q: %w", name, err)
	}

	rollback := func(cause error) (string, error) {
		if destroyErr := m.backend.Destroy(sess); destroyErr != nil {
			m.log.Error().Err(destroyErr).Str("session", sess).Msg("rollback destroy failed")
		}
		delete(m.active, name)
		m.restoreLocked(prior)
		return "", cause
	}

	m.current = name
	m.history.Reset()
	m.history.Seed(cfg.Commands)
	m.pending = m.prefix + " " + mainPath

	if err := m.backend.Send(sess, "cd "+shellQuote(cfg.Root)+"\n"); err != nil {
		return rollback(fmt.Errorf("enter project root for %q: %w", name, err))
	}
	if cfg.Activate != "" {
		if err := m.backend.Send(sess, cfg.Activate+"\n"); err != nil {
			return rollback(fmt.Errorf("run activation command for %q: %w", name, err))
		}
	}
	if err := m.backend.Clear(sess); err != nil {
		return rollback(fmt.Errorf("clear session for %q: %w", name, err))
	}

	if err := m.hooks.Run(hooks.AfterActivate, cfg.EnvDir); err != nil {
		return rollback(fmt.Errorf("activate %q: %w", name, err))
	}

	m.active[name] = true
	m.log.Info().Str("project", name).Str("session", sess).Msg("activated")
	return fmt.Sprintf("activated %s", name), nil
}

// Select makes an already-active project current, reseeding history with
// its preset commands. Selecting the current project is a no-op.
func (m *Manager) Select(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := m.registry.Lookup(name)
	if err != nil {
		return "", err
	}
	if !m.active[name] {
		return "", fmt.Errorf("%w: %q", ErrNotActive, name)
	}
	if name == m.current {
		return fmt.Sprintf("%s is already current", name), nil
	}

	prior := m.snapshotLocked()
	m.pending = m.prefix + " " + cfg.MainPath()

	if err := m.hooks.Run(hooks.AfterSelect, cfg.EnvDir); err != nil {
		m.restoreLocked(prior)
		return "", fmt.Errorf("select %q: %w", name, err)
	}

	m.history.Reset()
	m.history.Seed(cfg.Commands)
	m.current = name

	m.log.Info().Str("project", name).Msg("selected")
	return fmt.Sprintf("switched to %s", name), nil
}

// Deactivate tears down an active project's session. Deactivating the
// current project clears the current pointer and the pending command;
// deactivating any other active project leaves both untouched.
func (m *Manager) Deactivate(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := m.registry.Lookup(name)
	if err != nil {
		return "", err
	}
	if !m.active[name] {
		return "", fmt.Errorf("%w: %q", ErrNotActive, name)
	}

	// Flush and close externally-owned state before teardown.
	if err := m.hooks.Run(hooks.BeforeDeactivate, cfg.Root); err != nil {
		return "", fmt.Errorf("deactivate %q: %w", name, err)
	}

	sess := session.Name(name)
	if err := m.backend.Destroy(sess); err != nil {
		return "", fmt.Errorf("destroy session for %q: %w", name, err)
	}

	if m.current == name {
		m.current = ""
		m.pending = ""
	}
	delete(m.active, name)

	m.log.Info().Str("project", name).Str("session", sess).Msg("deactivated")
	return fmt.Sprintf("deactivated %s", name), nil
}

// Current returns the current project name, or empty.
func (m *Manager) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// IsActive reports whether a project is in the active set.
func (m *Manager) IsActive(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active[name]
}

// Active returns the active project names, sorted.
func (m *Manager) Active() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.active))
	for name := range m.active {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Pending returns the pending command offered at the prompt.
func (m *Manager) Pending() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

// Prefix returns the pending-command prefix.
func (m *Manager) Prefix() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prefix
}

// SetPrefix changes the pending-command prefix and, when a project is
// current, recomputes the pending command from its entry point. It returns
// the resulting pending command.
func (m *Manager) SetPrefix(prefix string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prefix = prefix
	if m.current != "" {
		if cfg, err := m.registry.Lookup(m.current); err == nil {
			m.pending = m.prefix + " " + cfg.MainPath()
		}
	}
	return m.pending
}

// SetPending overrides the pending command explicitly.
func (m *Manager) SetPending(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = text
}

// History exposes the command log backing prompt recall.
func (m *Manager) History() *history.History {
	return m.history
}

// Registry exposes the project registry.
func (m *Manager) Registry() *project.Registry {
	return m.registry
}

// Backend exposes the session backend for capability probing (attach,
// capture) by the interactive surface.
func (m *Manager) Backend() session.Backend {
	return m.backend
}

// CurrentSession returns the session name of the current project, or an
// ErrNoActiveSession error.
func (m *Manager) CurrentSession() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == "" {
		return "", ErrNoActiveSession
	}
	return session.Name(m.current), nil
}

// shellQuote single-quotes s for safe use inside a shell command line.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`&|;<>()*?[]#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
