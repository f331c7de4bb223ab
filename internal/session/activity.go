package session

import (
	"sync"
	"time"
)

// State represents whether a session is doing work or sitting idle.
type State int

const (
	StateIdle State = iota
	StateActive
)

func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "idle"
}

// DefaultIdleTimeout is how long without observed changes before a session
// is considered idle.
const DefaultIdleTimeout = 5 * time.Second

// ActivityMonitor tracks recent activity for one session, either from
// output snapshots (Observe) or from I/O events (Touch).
type ActivityMonitor struct {
	mu           sync.Mutex
	lastContent  string
	lastActivity time.Time
	idleTimeout  time.Duration
}

// NewActivityMonitor creates a monitor with the given idle timeout;
// zero means DefaultIdleTimeout.
func NewActivityMonitor(idleTimeout time.Duration) *ActivityMonitor {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &ActivityMonitor{
		lastActivity: time.Now(),
		idleTimeout:  idleTimeout,
	}
}

// Touch records an activity event (a read or write on the session).
func (a *ActivityMonitor) Touch() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastActivity = time.Now()
}

// Observe compares a fresh output snapshot against the previous one,
// recording activity when the content changed. It returns the resulting
// state.
func (a *ActivityMonitor) Observe(content string) State {
	a.mu.Lock()
	defer a.mu.Unlock()
	if content != a.lastContent {
		a.lastContent = content
		a.lastActivity = time.Now()
	}
	return a.stateLocked()
}

// State returns the current activity state.
func (a *ActivityMonitor) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stateLocked()
}

// LastActivity returns the time of the most recent observed activity.
func (a *ActivityMonitor) LastActivity() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastActivity
}

func (a *ActivityMonitor) stateLocked() State {
	if time.Since(a.lastActivity) < a.idleTimeout {
		return StateActive
	}
	return StateIdle
}
