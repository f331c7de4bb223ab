// Package tmux wraps tmux session operations via subprocess. All sessions
// live on an isolated socket so workon never touches the user's own tmux
// server.
package tmux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// DefaultSocket is the tmux server socket name used for workon sessions.
const DefaultSocket = "workon"

// DefaultTimeout bounds every non-interactive tmux call. tmux normally
// answers in milliseconds; a hung server should fail the operation rather
// than wedge the caller.
const DefaultTimeout = 10 * time.Second

// Common errors, detected from tmux stderr.
var (
	ErrNoServer           = errors.New("no tmux server running")
	ErrSessionExists      = errors.New("session already exists")
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidSessionName = errors.New("invalid session name")
)

// validSessionNameRe rejects names with dots, colons, or other characters
// that make tmux targets ambiguous or silently fail.
var validSessionNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func validateSessionName(name string) error {
	if name == "" || !validSessionNameRe.MatchString(name) {
		return fmt.Errorf("%w %q: must match %s", ErrInvalidSessionName, name, validSessionNameRe.String())
	}
	return nil
}

// Runner abstracts subprocess execution so tests can run without tmux.
type Runner interface {
	// Run executes a command and returns its stdout and stderr.
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// Available checks whether tmux is installed.
func Available() bool {
	_, err := exec.LookPath("tmux")
	return err == nil
}

// Client issues tmux commands against one socket with bounded timeouts.
type Client struct {
	socket  string
	timeout time.Duration
	runner  Runner
}

// NewClient creates a client on the given socket; empty means
// DefaultSocket, zero timeout means DefaultTimeout.
func NewClient(socket string, timeout time.Duration) *Client {
	return NewClientWithRunner(socket, timeout, execRunner{})
}

// NewClientWithRunner creates a client with an injected Runner for tests.
func NewClientWithRunner(socket string, timeout time.Duration, r Runner) *Client {
	if socket == "" {
		socket = DefaultSocket
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{socket: socket, timeout: timeout, runner: r}
}

// Socket returns the socket name the client talks to.
func (c *Client) Socket() string {
	return c.socket
}

// run executes a tmux command on the client's socket and returns stdout.
func (c *Client) run(args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	full := append([]string{"-L", c.socket}, args...)
	stdout, stderr, err := c.runner.Run(ctx, "tmux", full...)
	if err != nil {
		return "", wrapError(err, stderr, args)
	}
	return strings.TrimSpace(stdout), nil
}

// wrapError maps tmux stderr to sentinel errors, falling back to the raw
// stderr text.
func wrapError(err error, stderr string, args []string) error {
	stderr = strings.TrimSpace(stderr)

	switch {
	case strings.Contains(stderr, "no server running"),
		strings.Contains(stderr, "error connecting to"),
		strings.Contains(stderr, "no current target"),
		strings.Contains(stderr, "server exited unexpectedly"):
		return ErrNoServer
	case strings.Contains(stderr, "duplicate session"):
		return ErrSessionExists
	case strings.Contains(stderr, "session not found"),
		strings.Contains(stderr, "can't find session"):
		return ErrSessionNotFound
	}

	if len(args) == 0 {
		args = []string{"?"}
	}
	if stderr != "" {
		return fmt.Errorf("tmux %s: %s", args[0], stderr)
	}
	return fmt.Errorf("tmux %s: %w", args[0], err)
}

// HasSession checks whether a session exists on this socket.
func (c *Client) HasSession(name string) (bool, error) {
	if err := validateSessionName(name); err != nil {
		return false, err
	}
	_, err := c.run("has-session", "-t", name)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrNoServer) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// NewSession creates a new detached session, optionally rooted at workDir.
func (c *Client) NewSession(name, workDir string) error {
	if err := validateSessionName(name); err != nil {
		return err
	}
	args := []string{"new-session", "-d", "-s", name}
	if workDir != "" {
		args = append(args, "-c", workDir)
	}
	if _, err := c.run(args...); err != nil {
		return err
	}

	// Hide the status bar and let Ctrl+D detach without a prefix. Both
	// options only affect workon's isolated server.
	if _, err := c.run("set-option", "-t", name, "status", "off"); err != nil {
		return err
	}
	if _, err := c.run("bind-key", "-n", "C-d", "detach-client"); err != nil {
		return err
	}
	return nil
}

// KillSession terminates a session.
func (c *Client) KillSession(name string) error {
	if err := validateSessionName(name); err != nil {
		return err
	}
	_, err := c.run("kill-session", "-t", name)
	return err
}

// KillServer kills the whole workon tmux server.
func (c *Client) KillServer() error {
	_, err := c.run("kill-server")
	if errors.Is(err, ErrNoServer) {
		return nil
	}
	return err
}

// SendText types text into a session followed by Enter. A single trailing
// line terminator in text maps onto the Enter key; the text itself is sent
// literally so tmux never interprets it as key names.
func (c *Client) SendText(name, text string) error {
	if err := validateSessionName(name); err != nil {
		return err
	}
	line := strings.TrimRight(text, "\r\n")
	if line != "" {
		if _, err := c.run("send-keys", "-t", name, "-l", line); err != nil {
			return err
		}
	}
	_, err := c.run("send-keys", "-t", name, "Enter")
	return err
}

// ClearHistory clears the session's visible pane and scrollback.
func (c *Client) ClearHistory(name string) error {
	if err := validateSessionName(name); err != nil {
		return err
	}
	if _, err := c.run("send-keys", "-t", name, "C-l"); err != nil {
		return err
	}
	_, err := c.run("clear-history", "-t", name)
	return err
}

// CapturePane captures the last n lines of a session's pane.
func (c *Client) CapturePane(name string, lines int) (string, error) {
	if err := validateSessionName(name); err != nil {
		return "", err
	}
	return c.run("capture-pane", "-t", name, "-p", "-S", fmt.Sprintf("-%d", lines))
}

// ListSessions returns the session names on this socket. A missing server
// means no sessions.
func (c *Client) ListSessions() ([]string, error) {
	out, err := c.run("list-sessions", "-F", "#{session_name}")
	if err != nil {
		if errors.Is(err, ErrNoServer) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

// AttachSession attaches the current terminal to a session. This takes
// over stdin/stdout until the user detaches, so it bypasses the Runner and
// its timeout.
func (c *Client) AttachSession(name string) error {
	if err := validateSessionName(name); err != nil {
		return err
	}

	attach := exec.Command("tmux", "-L", c.socket, "attach-session", "-t", name)
	attach.Stdin = os.Stdin
	attach.Stdout = os.Stdout
	attach.Stderr = os.Stderr
	return attach.Run()
}
