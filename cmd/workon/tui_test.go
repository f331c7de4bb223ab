package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/zakandrewking/workon/internal/history"
	"github.com/zakandrewking/workon/internal/hooks"
	"github.com/zakandrewking/workon/internal/project"
	"github.com/zakandrewking/workon/internal/session"
	"github.com/zakandrewking/workon/internal/workflow"
)

// memBackend is an in-memory session.Backend for driving the model in
// tests without tmux or a pty.
type memBackend struct {
	live map[string]bool
	sent map[string][]string
}

func newMemBackend() *memBackend {
	return &memBackend{live: make(map[string]bool), sent: make(map[string][]string)}
}

func (b *memBackend) Create(name, workDir string) error {
	b.live[name] = true
	return nil
}

func (b *memBackend) Destroy(name string) error {
	delete(b.live, name)
	return nil
}

func (b *memBackend) Send(name, text string) error {
	b.sent[name] = append(b.sent[name], text)
	return nil
}

func (b *memBackend) Exists(name string) (bool, error) { return b.live[name], nil }

func (b *memBackend) Clear(name string) error { return nil }

func newTestModel(t *testing.T) (model, *memBackend) {
	t.Helper()
	reg, err := project.NewRegistry([]project.Project{
		{Name: "alpha", Root: "/a", Main: "main.py", Commands: []string{"import os"}},
		{Name: "beta", Root: "/b", Main: "run.py"},
	})
	if err != nil {
		t.Fatal(err)
	}
	b := newMemBackend()
	mgr := workflow.New(reg, b, hooks.NewDispatcher(), history.New(), "", zerolog.Nop())
	return newModel(mgr, zerolog.Nop()), b
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m model, msgs ...tea.Msg) model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(model)
		if !ok {
			t.Fatal("Update should return a model")
		}
	}
	return m
}

func TestQuitKeepsSessions(t *testing.T) {
	m, b := newTestModel(t)
	m = update(t, m, keyMsg("a"), keyMsg("a")) // activate alpha via picker

	next, cmd := m.Update(keyMsg("q"))
	m = next.(model)
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if !b.live["wk-alpha"] {
		t.Error("q should leave sessions running")
	}
}

func TestCtrlCKillsSessions(t *testing.T) {
	m, b := newTestModel(t)
	m = update(t, m, keyMsg("a"), keyMsg("a"))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if b.live["wk-alpha"] {
		t.Error("ctrl+c should destroy sessions")
	}
}

func TestCtrlCRunsFlushHooks(t *testing.T) {
	reg, err := project.NewRegistry([]project.Project{
		{Name: "alpha", Root: "/a", Main: "main.py"},
	})
	if err != nil {
		t.Fatal(err)
	}
	b := newMemBackend()
	d := hooks.NewDispatcher()
	var flushed []string
	d.Register(hooks.BeforeDeactivate, func(dir string) error {
		flushed = append(flushed, dir)
		return nil
	})
	mgr := workflow.New(reg, b, d, history.New(), "", zerolog.Nop())
	m := newModel(mgr, zerolog.Nop())
	m = update(t, m, keyMsg("a"), keyMsg("a"))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if len(flushed) != 1 || flushed[0] != "/a" {
		t.Errorf("ctrl+c should run the flush hook with the project root, got %v", flushed)
	}
	if b.live["wk-alpha"] {
		t.Error("ctrl+c should destroy sessions")
	}
	if mgr.IsActive("alpha") {
		t.Error("ctrl+c should deactivate projects")
	}
}

func TestActivatePickerFlow(t *testing.T) {
	m, b := newTestModel(t)

	m = update(t, m, keyMsg("a"))
	if m.mode != modePickActivate {
		t.Fatalf("Expected activate picker, got mode %d", m.mode)
	}
	view := m.View()
	if !strings.Contains(view, "alpha") || !strings.Contains(view, "beta") {
		t.Errorf("Picker should list projects, got: %s", view)
	}

	m = update(t, m, keyMsg("a")) // first picker letter -> alpha
	if m.mode != modeHome {
		t.Error("Picker should return home after choosing")
	}
	if m.mgr.Current() != "alpha" {
		t.Errorf("Expected alpha current, got %q", m.mgr.Current())
	}
	if !b.live["wk-alpha"] {
		t.Error("Session should be created")
	}
	if m.homeNotice != "activated alpha" {
		t.Errorf("Unexpected notice %q", m.homeNotice)
	}
}

func TestPickerEscCancels(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(t, m, keyMsg("a"), tea.KeyMsg{Type: tea.KeyEsc})
	if m.mode != modeHome {
		t.Error("Esc should cancel the picker")
	}
	if m.mgr.Current() != "" {
		t.Error("Cancelled picker must not activate anything")
	}
}

func TestSelectPickerExcludesCurrent(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(t, m, keyMsg("a"), keyMsg("a")) // activate alpha
	m = update(t, m, keyMsg("a"), keyMsg("b")) // activate beta, now current

	m = update(t, m, keyMsg("s"))
	if m.mode != modePickSelect {
		t.Fatalf("Expected select picker, got mode %d", m.mode)
	}
	if len(m.pickerTargets) != 1 || m.pickerTargets["a"] != "alpha" {
		t.Errorf("Select picker should offer only alpha, got %v", m.pickerTargets)
	}

	m = update(t, m, keyMsg("a"))
	if m.mgr.Current() != "alpha" {
		t.Errorf("Expected alpha current after select, got %q", m.mgr.Current())
	}
}

func TestDeactivatePicker(t *testing.T) {
	m, b := newTestModel(t)
	m = update(t, m, keyMsg("a"), keyMsg("a"))

	m = update(t, m, keyMsg("x"), keyMsg("a"))
	if m.mgr.IsActive("alpha") {
		t.Error("alpha should be deactivated")
	}
	if b.live["wk-alpha"] {
		t.Error("Session should be destroyed")
	}
}

func TestCommandPromptDispatches(t *testing.T) {
	m, b := newTestModel(t)
	m = update(t, m, keyMsg("a"), keyMsg("a"))

	m = update(t, m, keyMsg(":"))
	if m.mode != modePrompt {
		t.Fatalf("Expected prompt mode, got %d", m.mode)
	}
	m = update(t, m,
		keyMsg("print(1)"),
		tea.KeyMsg{Type: tea.KeyEnter},
	)

	sent := b.sent["wk-alpha"]
	if len(sent) == 0 || sent[len(sent)-1] != "print(1)\n" {
		t.Errorf("Expected dispatched command, got %v", sent)
	}
	entries := m.mgr.History().Entries()
	if entries[len(entries)-1] != "print(1)" {
		t.Errorf("Command should be in history, got %v", entries)
	}
}

func TestCommandPromptWithoutCurrent(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(t, m, keyMsg(":"), keyMsg("x"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.homeNotice == "" {
		t.Error("Dispatch without a current project should surface an error")
	}
}

func TestCommandPromptExplicitTarget(t *testing.T) {
	m, b := newTestModel(t)
	m = update(t, m, keyMsg("a"), keyMsg("a")) // alpha is current

	m = update(t, m,
		keyMsg(":"),
		keyMsg("@wk-scratch"),
		tea.KeyMsg{Type: tea.KeySpace},
		keyMsg("echo hi"),
		tea.KeyMsg{Type: tea.KeyEnter},
	)

	if got := b.sent["wk-scratch"]; len(got) != 1 || got[0] != "echo hi\n" {
		t.Errorf("Expected dispatch to explicit session, got %v", got)
	}
	if m.mgr.Current() != "alpha" {
		t.Error("Explicit target must not change focus")
	}
}

func TestPromptHistoryRecall(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(t, m, keyMsg("a"), keyMsg("a")) // history seeded with "import os"
	m = update(t, m, keyMsg(":"), keyMsg("pr"), tea.KeyMsg{Type: tea.KeyUp})

	if m.input != "import os" {
		t.Errorf("Up should recall last history entry, got %q", m.input)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.input != "pr" {
		t.Errorf("Down past the end should restore the draft, got %q", m.input)
	}
}

func TestRunPendingKey(t *testing.T) {
	m, b := newTestModel(t)
	m = update(t, m, keyMsg("a"), keyMsg("a"))

	m = update(t, m, keyMsg("r"))
	sent := b.sent["wk-alpha"]
	if len(sent) == 0 || sent[len(sent)-1] != "python /a/main.py\n" {
		t.Errorf("r should run the pending command, got %v", sent)
	}
}

func TestSetPrefixFlow(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(t, m, keyMsg("a"), keyMsg("a"))

	m = update(t, m, keyMsg("p"))
	if m.input != "python" {
		t.Errorf("Prefix editor should prefill current prefix, got %q", m.input)
	}
	m = update(t, m, keyMsg("3"), tea.KeyMsg{Type: tea.KeyEnter})

	if m.mgr.Pending() != "python3 /a/main.py" {
		t.Errorf("Expected recomputed pending, got %q", m.mgr.Pending())
	}
}

func TestSetPendingFlow(t *testing.T) {
	m, b := newTestModel(t)
	m = update(t, m, keyMsg("a"), keyMsg("a"))

	m = update(t, m, keyMsg("c"))
	// Clear the prefilled pending command.
	for range m.input {
		m = update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	}
	m = update(t, m,
		keyMsg("make"),
		tea.KeyMsg{Type: tea.KeySpace},
		keyMsg("run"),
		tea.KeyMsg{Type: tea.KeyEnter},
	)

	if m.mgr.Pending() != "make run" {
		t.Errorf("Expected overridden pending, got %q", m.mgr.Pending())
	}

	m = update(t, m, keyMsg("r"))
	sent := b.sent["wk-alpha"]
	if len(sent) == 0 || sent[len(sent)-1] != "make run\n" {
		t.Errorf("r should run the overridden command, got %v", sent)
	}
}

func TestAttachWithoutSupport(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(t, m, keyMsg("a"), keyMsg("a"))

	next, cmd := m.Update(keyMsg("t"))
	m = next.(model)
	if cmd != nil {
		t.Error("Attach on an unsupported backend should not quit")
	}
	if m.shouldAttach {
		t.Error("shouldAttach must stay false without Attacher support")
	}
	if m.homeNotice == "" {
		t.Error("Expected a notice explaining attach is unsupported")
	}
}

func TestAttachRequestsQuit(t *testing.T) {
	reg, err := project.NewRegistry([]project.Project{
		{Name: "alpha", Root: "/a", Main: "main.py"},
	})
	if err != nil {
		t.Fatal(err)
	}
	b := &attachableBackend{memBackend: newMemBackend()}
	mgr := workflow.New(reg, b, hooks.NewDispatcher(), history.New(), "", zerolog.Nop())
	m := newModel(mgr, zerolog.Nop())
	m = update(t, m, keyMsg("a"), keyMsg("a"))

	next, cmd := m.Update(keyMsg("t"))
	m = next.(model)
	if cmd == nil {
		t.Fatal("Attach should quit the UI loop")
	}
	if !m.shouldAttach || m.sessionToAttach != "wk-alpha" {
		t.Errorf("Expected attach request for wk-alpha, got %q", m.sessionToAttach)
	}
}

type attachableBackend struct {
	*memBackend
}

func (b *attachableBackend) Attach(name string) error { return nil }

var _ session.Attacher = (*attachableBackend)(nil)

func TestViewShowsMarkers(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(t, m, keyMsg("a"), keyMsg("a")) // activate alpha
	m = update(t, m, keyMsg("a"), keyMsg("b")) // activate beta (current)

	view := m.View()
	if !strings.Contains(view, "+ alpha") {
		t.Errorf("Active project should be marked with +, got: %s", view)
	}
	if !strings.Contains(view, "* beta") {
		t.Errorf("Current project should be marked with *, got: %s", view)
	}
	if !strings.Contains(view, "pending:") {
		t.Errorf("View should show the pending command, got: %s", view)
	}
}

func TestViewRendersHints(t *testing.T) {
	m, _ := newTestModel(t)
	view := m.View()
	if view == "" {
		t.Fatal("View should not be empty")
	}
	for _, expected := range []string{"workon", "activate", "quit"} {
		if !strings.Contains(view, expected) {
			t.Errorf("View should contain %q, got: %s", expected, view)
		}
	}
}
