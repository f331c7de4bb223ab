package session

import "regexp"

// Prefix namespaces workon-owned sessions so they never collide with the
// user's own sessions on the same server.
const Prefix = "wk-"

var validNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

var unsafeCharRe = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Name derives the deterministic session name for a project. Characters
// tmux cannot handle in targets (dots, colons, spaces) are folded to "-".
func Name(project string) string {
	return Prefix + unsafeCharRe.ReplaceAllString(project, "-")
}

// ValidName reports whether name is a safe session identifier.
func ValidName(name string) bool {
	return name != "" && validNameRe.MatchString(name)
}
