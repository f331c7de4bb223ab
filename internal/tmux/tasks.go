package tmux

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Task is a descendant process running inside a session pane.
type Task struct {
	PID     int
	PPID    int
	State   string
	Command string
}

type processInfo struct {
	pid     int
	ppid    int
	state   string
	command string
}

// SessionTasks returns descendant processes for all panes in a session.
func (c *Client) SessionTasks(name string) ([]Task, error) {
	pids, err := c.panePIDs(name)
	if err != nil {
		return nil, err
	}
	if len(pids) == 0 {
		return nil, nil
	}

	processes, err := listProcesses()
	if err != nil {
		return nil, err
	}
	return collectDescendantTasks(pids, processes), nil
}

// SessionUserTasks filters SessionTasks down to the processes that
// represent project work, dropping the session shell and other wrappers.
func (c *Client) SessionUserTasks(name string) ([]Task, error) {
	tasks, err := c.SessionTasks(name)
	if err != nil {
		return nil, err
	}
	return filterUserTasks(tasks), nil
}

func (c *Client) panePIDs(name string) ([]int, error) {
	out, err := c.run("list-panes", "-t", name, "-F", "#{pane_pid}")
	if err != nil {
		return nil, err
	}
	return parsePIDs(out)
}

func listProcesses() (map[int]processInfo, error) {
	out, err := exec.Command("ps", "-axo", "pid=,ppid=,stat=,command=").Output()
	if err != nil {
		return nil, err
	}
	return parseProcessSnapshot(string(out))
}

func parsePIDs(raw string) ([]int, error) {
	var out []int
	seen := make(map[int]bool)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pid, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("parse pane pid %q: %w", line, err)
		}
		if seen[pid] {
			continue
		}
		seen[pid] = true
		out = append(out, pid)
	}
	return out, nil
}

func parseProcessSnapshot(raw string) (map[int]processInfo, error) {
	processes := make(map[int]processInfo)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 4 {
			return nil, fmt.Errorf("unexpected ps row format: %q", line)
		}
		pid, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("parse pid from %q: %w", line, err)
		}
		ppid, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("parse ppid from %q: %w", line, err)
		}
		processes[pid] = processInfo{
			pid:     pid,
			ppid:    ppid,
			state:   parts[2],
			command: strings.Join(parts[3:], " "),
		}
	}
	return processes, nil
}

func collectDescendantTasks(rootPIDs []int, processes map[int]processInfo) []Task {
	roots := make(map[int]bool, len(rootPIDs))
	for _, pid := range rootPIDs {
		roots[pid] = true
	}

	children := make(map[int][]processInfo)
	for _, p := range processes {
		children[p.ppid] = append(children[p.ppid], p)
	}

	seen := make(map[int]bool)
	queue := append([]int{}, rootPIDs...)
	var tasks []Task
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		for _, child := range children[parent] {
			if seen[child.pid] {
				continue
			}
			seen[child.pid] = true
			queue = append(queue, child.pid)

			if roots[child.pid] {
				continue
			}
			tasks = append(tasks, Task{
				PID:     child.pid,
				PPID:    child.ppid,
				State:   child.state,
				Command: child.command,
			})
		}
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].PID < tasks[j].PID
	})
	return tasks
}

// filterUserTasks keeps leaf processes and drops shell wrappers, so the
// list reads as "what is this project session actually running".
func filterUserTasks(tasks []Task) []Task {
	if len(tasks) == 0 {
		return nil
	}

	children := make(map[int]int)
	for _, t := range tasks {
		children[t.PPID]++
	}

	var leaf []Task
	for _, t := range tasks {
		if children[t.PID] == 0 {
			leaf = append(leaf, t)
		}
	}

	var filtered []Task
	for _, t := range leaf {
		if isShellWrapper(t.Command) {
			continue
		}
		filtered = append(filtered, t)
	}
	if len(filtered) > 0 {
		return filtered
	}
	return leaf
}

func isShellWrapper(command string) bool {
	cmd := strings.TrimSpace(strings.ToLower(command))
	if cmd == "" {
		return true
	}

	words := strings.Fields(cmd)
	if len(words) == 0 {
		return true
	}
	switch filepath.Base(words[0]) {
	case "sh", "bash", "zsh", "fish", "-sh", "-bash", "-zsh":
		return true
	}
	return false
}
