package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/zakandrewking/workon/internal/session"
	"github.com/zakandrewking/workon/internal/workflow"
)

type uiMode int

const (
	modeHome uiMode = iota
	modePickActivate
	modePickSelect
	modePickDeactivate
	modePrompt
	modePrefix
	modePending
	modeFile
)

type tickMsg time.Time

func tickCmd() tea.Msg {
	time.Sleep(1 * time.Second)
	return tickMsg(time.Now())
}

// activityStater is the optional backend capability behind the per-session
// activity column.
type activityStater interface {
	ActivityState(name string) (session.State, error)
}

type model struct {
	mgr *workflow.Manager
	log zerolog.Logger

	windowWidth int
	mode        uiMode
	homeNotice  string

	// pickerTargets maps a picker letter to a project name.
	pickerTargets map[string]string
	pickerOrder   []string

	// Line editor state shared by the prompt modes.
	input   string
	histPos int // -1 means live input, otherwise an index into history
	draft   string

	activity map[string]session.State

	shouldAttach    bool
	sessionToAttach string
}

func newModel(mgr *workflow.Manager, log zerolog.Logger) model {
	return model{
		mgr:           mgr,
		log:           log,
		windowWidth:   80,
		mode:          modeHome,
		histPos:       -1,
		pickerTargets: make(map[string]string),
		activity:      make(map[string]session.State),
	}
}

func pickerKey(i int) string {
	if i < 26 {
		return string(rune('a' + i))
	}
	if i < 36 {
		return string(rune('0' + i - 26))
	}
	return ""
}

func (m model) Init() tea.Cmd {
	return tickCmd
}

func (m *model) refreshActivity() {
	stater, ok := m.mgr.Backend().(activityStater)
	if !ok {
		return
	}
	for _, name := range m.mgr.Active() {
		state, err := stater.ActivityState(session.Name(name))
		if err != nil {
			continue
		}
		m.activity[name] = state
	}
}

// preparePicker fills pickerTargets from names and switches to pickMode.
func (m model) preparePicker(names []string, pickMode uiMode) model {
	m.pickerTargets = make(map[string]string)
	m.pickerOrder = m.pickerOrder[:0]
	for i, name := range names {
		key := pickerKey(i)
		if key == "" {
			break
		}
		m.pickerTargets[key] = name
		m.pickerOrder = append(m.pickerOrder, key)
	}
	m.mode = pickMode
	m.homeNotice = ""
	return m
}

func (m model) activateTargets() []string {
	return m.mgr.Registry().Names()
}

func (m model) selectTargets() []string {
	current := m.mgr.Current()
	var names []string
	for _, name := range m.mgr.Active() {
		if name != current {
			names = append(names, name)
		}
	}
	return names
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKeys(msg)
	case tickMsg:
		m.refreshActivity()
		return m, tickCmd
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		return m, nil
	}
	return m, nil
}

func (m model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		// Deactivate every project so flush hooks run before teardown.
		for _, name := range m.mgr.Active() {
			if _, err := m.mgr.Deactivate(name); err != nil {
				m.log.Error().Err(err).Str("project", name).Msg("deactivate on quit failed")
			}
		}
		return m, tea.Quit
	}

	switch m.mode {
	case modePickActivate, modePickSelect, modePickDeactivate:
		return m.updatePicker(key)
	case modePrompt, modePrefix, modePending, modeFile:
		return m.updateEditor(msg)
	}

	return m.updateHome(key)
}

func (m model) updateHome(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q":
		// Sessions keep running in the background.
		return m, tea.Quit
	case "a":
		names := m.activateTargets()
		if len(names) == 0 {
			m.homeNotice = "no projects configured"
			return m, nil
		}
		return m.preparePicker(names, modePickActivate), nil
	case "s":
		names := m.selectTargets()
		if len(names) == 0 {
			m.homeNotice = "no other active projects"
			return m, nil
		}
		return m.preparePicker(names, modePickSelect), nil
	case "x":
		names := m.mgr.Active()
		if len(names) == 0 {
			m.homeNotice = "no active projects"
			return m, nil
		}
		return m.preparePicker(names, modePickDeactivate), nil
	case ":":
		m.mode = modePrompt
		m.input = ""
		m.histPos = -1
		m.draft = ""
		m.homeNotice = ""
		return m, nil
	case "r":
		if err := m.mgr.RunPending(); err != nil {
			m.homeNotice = fmt.Sprintf("run failed: %v", err)
			return m, nil
		}
		m.homeNotice = fmt.Sprintf("ran: %s", m.mgr.Pending())
		return m, nil
	case "p":
		m.mode = modePrefix
		m.input = m.mgr.Prefix()
		m.homeNotice = ""
		return m, nil
	case "c":
		m.mode = modePending
		m.input = m.mgr.Pending()
		m.homeNotice = ""
		return m, nil
	case "f":
		m.mode = modeFile
		m.input = ""
		m.homeNotice = ""
		return m, nil
	case "t":
		sess, err := m.mgr.CurrentSession()
		if err != nil {
			m.homeNotice = "no current project to attach"
			return m, nil
		}
		if _, ok := m.mgr.Backend().(session.Attacher); !ok {
			m.homeNotice = "this backend does not support attach"
			return m, nil
		}
		m.shouldAttach = true
		m.sessionToAttach = sess
		return m, tea.Quit
	case "esc":
		m.homeNotice = ""
		return m, nil
	}
	return m, nil
}

func (m model) updatePicker(key string) (tea.Model, tea.Cmd) {
	if key == "esc" {
		m.mode = modeHome
		m.homeNotice = ""
		return m, nil
	}
	name, ok := m.pickerTargets[key]
	if !ok {
		m.homeNotice = fmt.Sprintf("Unknown target %q.", key)
		return m, nil
	}

	var status string
	var err error
	switch m.mode {
	case modePickActivate:
		status, err = m.mgr.Activate(name)
	case modePickSelect:
		status, err = m.mgr.Select(name)
	case modePickDeactivate:
		status, err = m.mgr.Deactivate(name)
	}
	m.mode = modeHome
	if err != nil {
		if !workflow.IsLifecycleError(err) {
			m.log.Error().Err(err).Str("project", name).Msg("lifecycle operation failed")
		}
		m.homeNotice = err.Error()
		return m, nil
	}
	m.homeNotice = status
	return m, nil
}

func (m model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeHome
		m.input = ""
		m.histPos = -1
		return m, nil
	case tea.KeyEnter:
		return m.submitEditor()
	case tea.KeyUp:
		if m.mode != modePrompt {
			return m, nil
		}
		entries := m.mgr.History().Entries()
		if len(entries) == 0 {
			return m, nil
		}
		if m.histPos == -1 {
			m.draft = m.input
			m.histPos = len(entries) - 1
		} else if m.histPos > 0 {
			m.histPos--
		}
		m.input = entries[m.histPos]
		return m, nil
	case tea.KeyDown:
		if m.mode != modePrompt || m.histPos == -1 {
			return m, nil
		}
		entries := m.mgr.History().Entries()
		if m.histPos < len(entries)-1 {
			m.histPos++
			m.input = entries[m.histPos]
		} else {
			m.histPos = -1
			m.input = m.draft
		}
		return m, nil
	case tea.KeyBackspace, tea.KeyDelete:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
		return m, nil
	case tea.KeySpace:
		m.input += " "
		return m, nil
	case tea.KeyRunes:
		m.input += string(msg.Runes)
		return m, nil
	}
	return m, nil
}

func (m model) submitEditor() (tea.Model, tea.Cmd) {
	mode, text := m.mode, m.input
	m.mode = modeHome
	m.input = ""
	m.histPos = -1

	switch mode {
	case modePrompt:
		if text == "" {
			return m, nil
		}
		// "@session text" overrides the target session.
		target := workflow.CurrentTarget()
		if strings.HasPrefix(text, "@") {
			name, rest, _ := strings.Cut(text[1:], " ")
			target = workflow.ExplicitTarget(name)
			text = rest
		}
		if err := m.mgr.Dispatch(text, target); err != nil {
			m.homeNotice = err.Error()
			return m, nil
		}
		m.homeNotice = fmt.Sprintf("sent: %s", text)
	case modePrefix:
		pending := m.mgr.SetPrefix(text)
		if pending != "" {
			m.homeNotice = fmt.Sprintf("pending: %s", pending)
		} else {
			m.homeNotice = fmt.Sprintf("prefix: %s", text)
		}
	case modePending:
		m.mgr.SetPending(text)
		m.homeNotice = fmt.Sprintf("pending: %s", text)
	case modeFile:
		if err := m.mgr.DispatchFile(text, workflow.CurrentTarget()); err != nil {
			m.homeNotice = err.Error()
			return m, nil
		}
		m.homeNotice = fmt.Sprintf("sent file: %s", text)
	}
	return m, nil
}

func (m model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7D56F4"))
	metaStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888"))
	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#4DA3FF"))
	currentStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#04B575")).
		Bold(true)
	activeStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#04B575"))
	idleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#999999"))
	alertStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#4DA3FF"))

	lines := []string{
		titleStyle.Render("workon"),
	}
	if m.homeNotice != "" {
		lines = append(lines, alertStyle.Render(m.homeNotice))
	}

	for _, name := range m.mgr.Registry().Names() {
		marker := " "
		style := idleStyle
		if m.mgr.IsActive(name) {
			marker = "+"
			style = activeStyle
		}
		if name == m.mgr.Current() {
			marker = "*"
			style = currentStyle
		}
		row := fmt.Sprintf("%s %s", marker, name)
		if m.mgr.IsActive(name) {
			if state, ok := m.activity[name]; ok {
				row += metaStyle.Render(fmt.Sprintf("  [%s]", state))
			}
		}
		lines = append(lines, style.Render(row))
	}

	if pending := m.mgr.Pending(); pending != "" {
		lines = append(lines, metaStyle.Render(fmt.Sprintf("pending: %s", pending)))
	}

	switch m.mode {
	case modePickActivate, modePickSelect, modePickDeactivate:
		verb := map[uiMode]string{
			modePickActivate:   "activate",
			modePickSelect:     "select",
			modePickDeactivate: "deactivate",
		}[m.mode]
		lines = append(lines, metaStyle.Render(verb+":"))
		for _, key := range m.pickerOrder {
			lines = append(lines, fmt.Sprintf("  %s %s", keyStyle.Render(key), m.pickerTargets[key]))
		}
		lines = append(lines, metaStyle.Render("esc cancel"))
	case modePrompt:
		lines = append(lines,
			fmt.Sprintf("%s%s", keyStyle.Render(": "), m.input),
			metaStyle.Render("enter send   up/down history   @session to override target   esc cancel"),
		)
	case modePrefix:
		lines = append(lines,
			fmt.Sprintf("%s%s", keyStyle.Render("prefix: "), m.input),
			metaStyle.Render("enter set   esc cancel"),
		)
	case modePending:
		lines = append(lines,
			fmt.Sprintf("%s%s", keyStyle.Render("command: "), m.input),
			metaStyle.Render("enter set   esc cancel"),
		)
	case modeFile:
		lines = append(lines,
			fmt.Sprintf("%s%s", keyStyle.Render("file: "), m.input),
			metaStyle.Render("enter send   esc cancel"),
		)
	default:
		lines = append(lines, "",
			fmt.Sprintf("%s activate  %s select  %s deactivate", keyStyle.Render("a"), keyStyle.Render("s"), keyStyle.Render("x")),
			fmt.Sprintf("%s command prompt  %s run pending  %s set prefix  %s set command  %s send file", keyStyle.Render(":"), keyStyle.Render("r"), keyStyle.Render("p"), keyStyle.Render("c"), keyStyle.Render("f")),
			fmt.Sprintf("%s attach  %s quit  %s kill all and quit", keyStyle.Render("t"), keyStyle.Render("q"), keyStyle.Render("ctrl+c")),
		)
	}

	out := ""
	for _, line := range lines {
		out += line + "\n"
	}
	return out
}
