package tmux

import (
	"sync"

	"github.com/zakandrewking/workon/internal/session"
)

// activityCaptureLines is how much pane output feeds activity diffing.
// A short capture keeps the per-tick overhead low.
const activityCaptureLines = 10

// Backend adapts Client to the session.Backend interface and tracks
// per-session activity from pane-capture diffs.
type Backend struct {
	client *Client

	mu       sync.Mutex
	monitors map[string]*session.ActivityMonitor
}

// NewBackend wraps a tmux client as a session backend.
func NewBackend(c *Client) *Backend {
	return &Backend{
		client:   c,
		monitors: make(map[string]*session.ActivityMonitor),
	}
}

// Client returns the underlying tmux client.
func (b *Backend) Client() *Client {
	return b.client
}

func (b *Backend) Create(name, workDir string) error {
	if err := b.client.NewSession(name, workDir); err != nil {
		return err
	}
	b.mu.Lock()
	b.monitors[name] = session.NewActivityMonitor(0)
	b.mu.Unlock()
	return nil
}

func (b *Backend) Destroy(name string) error {
	if err := b.client.KillSession(name); err != nil {
		return err
	}
	b.mu.Lock()
	delete(b.monitors, name)
	b.mu.Unlock()
	return nil
}

func (b *Backend) Send(name, text string) error {
	return b.client.SendText(name, text)
}

func (b *Backend) Exists(name string) (bool, error) {
	return b.client.HasSession(name)
}

func (b *Backend) Clear(name string) error {
	return b.client.ClearHistory(name)
}

// Attach connects the terminal to the session until the user detaches.
func (b *Backend) Attach(name string) error {
	return b.client.AttachSession(name)
}

// Capture snapshots the last lines of session output.
func (b *Backend) Capture(name string, lines int) (string, error) {
	return b.client.CapturePane(name, lines)
}

// ActivityState samples the session's pane and reports active when the
// content changed since the previous sample.
func (b *Backend) ActivityState(name string) (session.State, error) {
	content, err := b.client.CapturePane(name, activityCaptureLines)
	if err != nil {
		return session.StateIdle, err
	}

	b.mu.Lock()
	m, ok := b.monitors[name]
	if !ok {
		m = session.NewActivityMonitor(0)
		b.monitors[name] = m
	}
	b.mu.Unlock()

	return m.Observe(content), nil
}
