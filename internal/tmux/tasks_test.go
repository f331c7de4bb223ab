package tmux

import "testing"

func TestParsePIDs(t *testing.T) {
	pids, err := parsePIDs("101\n\n202\n101\n")
	if err != nil {
		t.Fatalf("parsePIDs: %v", err)
	}
	if len(pids) != 2 || pids[0] != 101 || pids[1] != 202 {
		t.Errorf("unexpected pids: %v", pids)
	}
}

func TestParsePIDsBadInput(t *testing.T) {
	if _, err := parsePIDs("abc\n"); err == nil {
		t.Error("non-numeric pid should error")
	}
}

func TestParseProcessSnapshot(t *testing.T) {
	raw := "  10  1 Ss /bin/bash\n  20 10 S+ python manage.py runserver\n"
	procs, err := parseProcessSnapshot(raw)
	if err != nil {
		t.Fatalf("parseProcessSnapshot: %v", err)
	}
	p, ok := procs[20]
	if !ok {
		t.Fatal("pid 20 missing")
	}
	if p.ppid != 10 || p.command != "python manage.py runserver" {
		t.Errorf("unexpected process: %+v", p)
	}
}

func TestCollectDescendantTasks(t *testing.T) {
	procs := map[int]processInfo{
		10: {pid: 10, ppid: 1, state: "Ss", command: "/bin/bash"},
		20: {pid: 20, ppid: 10, state: "S+", command: "python main.py"},
		30: {pid: 30, ppid: 20, state: "S", command: "worker"},
		99: {pid: 99, ppid: 1, state: "S", command: "unrelated"},
	}
	tasks := collectDescendantTasks([]int{10}, procs)
	if len(tasks) != 2 {
		t.Fatalf("expected 2 descendants, got %v", tasks)
	}
	if tasks[0].PID != 20 || tasks[1].PID != 30 {
		t.Errorf("tasks not sorted by pid: %v", tasks)
	}
}

func TestFilterUserTasksDropsShells(t *testing.T) {
	tasks := []Task{
		{PID: 20, PPID: 10, Command: "bash"},
		{PID: 30, PPID: 10, Command: "python main.py"},
	}
	got := filterUserTasks(tasks)
	if len(got) != 1 || got[0].PID != 30 {
		t.Errorf("expected only the python task, got %v", got)
	}
}

func TestFilterUserTasksKeepsLeavesWhenAllShells(t *testing.T) {
	tasks := []Task{{PID: 20, PPID: 10, Command: "zsh"}}
	got := filterUserTasks(tasks)
	if len(got) != 1 {
		t.Errorf("all-shell sessions should fall back to leaves, got %v", got)
	}
}

func TestFilterUserTasksDropsParents(t *testing.T) {
	tasks := []Task{
		{PID: 20, PPID: 10, Command: "make test"},
		{PID: 30, PPID: 20, Command: "go test ./..."},
	}
	got := filterUserTasks(tasks)
	if len(got) != 1 || got[0].PID != 30 {
		t.Errorf("only leaf processes should remain, got %v", got)
	}
}
