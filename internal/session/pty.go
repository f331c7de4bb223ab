package session

import (
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
)

// PtyBackend runs each session as a shell on a pseudo-terminal. It is the
// fallback Backend for hosts without tmux: sessions live only as long as
// this process, and Attach wires them to the controlling terminal.
type PtyBackend struct {
	mu       sync.Mutex
	shell    string
	sessions map[string]*ptySession
}

type ptySession struct {
	mu      sync.Mutex
	cmd     *exec.Cmd
	pty     *os.File
	running bool
	monitor *ActivityMonitor
}

// NewPtyBackend creates a pty backend using the given shell, defaulting to
// $SHELL and then /bin/sh.
func NewPtyBackend(shell string) *PtyBackend {
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}
	return &PtyBackend{
		shell:    shell,
		sessions: make(map[string]*ptySession),
	}
}

// Create starts an interactive shell on a new pty. An existing session
// with the same name is destroyed first.
func (b *PtyBackend) Create(name, workDir string) error {
	if !ValidName(name) {
		return fmt.Errorf("invalid session name %q", name)
	}

	b.mu.Lock()
	if old, ok := b.sessions[name]; ok {
		old.stop()
		delete(b.sessions, name)
	}
	b.mu.Unlock()

	cmd := exec.Command(b.shell, "-i")
	if workDir != "" {
		cmd.Dir = workDir
	}

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("start pty for %s: %w", name, err)
	}

	s := &ptySession{
		cmd:     cmd,
		pty:     ptmx,
		running: true,
		monitor: NewActivityMonitor(0),
	}

	// Mark the session dead as soon as the shell exits.
	go func() {
		cmd.Wait()
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	b.mu.Lock()
	b.sessions[name] = s
	b.mu.Unlock()
	return nil
}

// Destroy closes the pty and kills the shell.
func (b *PtyBackend) Destroy(name string) error {
	b.mu.Lock()
	s, ok := b.sessions[name]
	if ok {
		delete(b.sessions, name)
	}
	b.mu.Unlock()

	if !ok {
		return fmt.Errorf("session %q not found", name)
	}
	return s.stop()
}

// Send writes text to the session's pty and records activity.
func (b *PtyBackend) Send(name, text string) error {
	s, err := b.get(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.pty == nil {
		return fmt.Errorf("session %q is not running", name)
	}
	if _, err := s.pty.Write([]byte(text)); err != nil {
		return fmt.Errorf("write to %s: %w", name, err)
	}
	s.monitor.Touch()
	return nil
}

// Exists reports whether the session's shell is still running.
func (b *PtyBackend) Exists(name string) (bool, error) {
	b.mu.Lock()
	s, ok := b.sessions[name]
	b.mu.Unlock()
	if !ok {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running, nil
}

// Clear sends a form feed, which interactive shells treat as clear-screen.
func (b *PtyBackend) Clear(name string) error {
	return b.Send(name, "\x0c")
}

// ActivityState returns the session's active/idle state.
func (b *PtyBackend) ActivityState(name string) (State, error) {
	s, err := b.get(name)
	if err != nil {
		return StateIdle, err
	}
	return s.monitor.State(), nil
}

func (b *PtyBackend) get(name string) (*ptySession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[name]
	if !ok {
		return nil, fmt.Errorf("session %q not found", name)
	}
	return s, nil
}

func (s *ptySession) stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	if s.pty != nil {
		s.pty.Close()
	}
	if s.cmd != nil && s.cmd.Process != nil {
		if err := s.cmd.Process.Kill(); err != nil {
			return fmt.Errorf("kill session shell: %w", err)
		}
	}
	s.running = false
	return nil
}
