// Package history keeps the process-wide command log that backs the
// command prompt's recall. The log is reset and reseeded with a project's
// preset commands on every activate and select.
package history

import "sync"

// History is an ordered, resettable command log. Duplicate entries are
// legal; no deduplication happens anywhere.
type History struct {
	mu      sync.Mutex
	entries []string
}

// New creates an empty history.
func New() *History {
	return &History{}
}

// Reset clears all entries.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}

// Seed appends each command in order.
func (h *History) Seed(commands []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, commands...)
}

// Append adds a single command to the end of the log.
func (h *History) Append(command string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, command)
}

// Entries returns a copy of the log, oldest first.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
