package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zakandrewking/workon/internal/config"
	"github.com/zakandrewking/workon/internal/history"
	"github.com/zakandrewking/workon/internal/hooks"
	"github.com/zakandrewking/workon/internal/logger"
	"github.com/zakandrewking/workon/internal/project"
	"github.com/zakandrewking/workon/internal/session"
	"github.com/zakandrewking/workon/internal/tmux"
	"github.com/zakandrewking/workon/internal/workflow"
)

const maxTasksShownPerSession = 6

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "workon",
	Short: "Terminal manager for named project workflows",
	Long: `workon turns a list of named project configurations into live terminal
sessions. Activate a project to get a session set up in its root with its
environment loaded, route commands to it from a single prompt, and switch
between active projects without losing their preset command history.

Config: ~/.config/workon/config.yaml`,
	RunE:          runTUI,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if len(cfg.Projects) == 0 {
			fmt.Println("No projects configured.")
			return nil
		}
		for _, p := range cfg.Projects {
			fmt.Printf("%s\t%s\t%s\n", p.Name, p.Root, p.MainPath())
		}
		return nil
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List live sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := tmuxClient()
		if err != nil {
			return err
		}
		names, err := client.ListSessions()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No sessions are running.")
			return nil
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List processes running inside each session",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := tmuxClient()
		if err != nil {
			return err
		}
		names, err := client.ListSessions()
		if err != nil {
			return err
		}
		sort.Strings(names)

		seen := false
		for _, name := range names {
			if !strings.HasPrefix(name, session.Prefix) {
				continue
			}
			seen = true
			tasks, err := client.SessionUserTasks(name)
			if err != nil {
				fmt.Printf("%s: error reading tasks: %v\n", name, err)
				continue
			}
			fmt.Printf("%s: %d task process(es)\n", name, len(tasks))
			if len(tasks) == 0 {
				fmt.Println("  (none)")
				continue
			}
			limit := len(tasks)
			if limit > maxTasksShownPerSession {
				limit = maxTasksShownPerSession
			}
			for _, task := range tasks[:limit] {
				fmt.Printf("  pid=%d ppid=%d state=%s cmd=%s\n", task.PID, task.PPID, task.State, task.Command)
			}
			if len(tasks) > limit {
				fmt.Printf("  +%d more\n", len(tasks)-limit)
			}
		}
		if !seen {
			fmt.Println("No workon sessions are running.")
		}
		return nil
	},
}

var killAllCmd = &cobra.Command{
	Use:   "kill-all",
	Short: "Kill the session server and every session on it",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := tmuxClient()
		if err != nil {
			return err
		}
		return client.KillServer()
	},
}

func init() {
	rootCmd.Version = version
	rootCmd.AddCommand(listCmd, sessionsCmd, tasksCmd, killAllCmd)
}

func tmuxClient() (*tmux.Client, error) {
	if !tmux.Available() {
		return nil, fmt.Errorf("tmux is required but not found in PATH")
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return tmux.NewClient(cfg.Socket, time.Duration(cfg.SendTimeout)), nil
}

func buildBackend(cfg *config.Config) (session.Backend, error) {
	switch cfg.Backend {
	case config.BackendTmux:
		if !tmux.Available() {
			return nil, fmt.Errorf("tmux is required but not found in PATH (set backend: pty to run without it)")
		}
		return tmux.NewBackend(tmux.NewClient(cfg.Socket, time.Duration(cfg.SendTimeout))), nil
	case config.BackendPty:
		return session.NewPtyBackend(os.Getenv("SHELL")), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	log, closer, err := logger.Open(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closer.Close()

	reg, err := project.NewRegistry(cfg.Projects)
	if err != nil {
		return fmt.Errorf("invalid project config: %w", err)
	}

	backend, err := buildBackend(cfg)
	if err != nil {
		return err
	}

	dispatcher := hooks.NewDispatcher()
	dispatcher.Register(hooks.AfterActivate, func(dir string) error {
		log.Info().Str("env_dir", dir).Msg("environment ready")
		return nil
	})
	dispatcher.Register(hooks.BeforeDeactivate, func(dir string) error {
		log.Info().Str("dir", dir).Msg("tearing down")
		return nil
	})

	mgr := workflow.New(reg, backend, dispatcher, history.New(), cfg.CommandPrefix, log)

	// Main loop: run UI, attach when requested, repeat. Sessions are not
	// killed on exit; they persist until deactivated or kill-all.
	m := newModel(mgr, log)
	for {
		m.shouldAttach = false
		m.sessionToAttach = ""

		p := tea.NewProgram(m, tea.WithAltScreen())
		finalModel, err := p.Run()
		if err != nil {
			return fmt.Errorf("error running UI: %w", err)
		}
		m = finalModel.(model)

		if !m.shouldAttach || m.sessionToAttach == "" {
			return nil
		}

		attacher, ok := backend.(session.Attacher)
		if !ok {
			fmt.Fprintln(os.Stderr, "attach is not supported by this backend")
			continue
		}
		// Returns when the user detaches (Ctrl+D).
		if err := attacher.Attach(m.sessionToAttach); err != nil {
			fmt.Fprintf(os.Stderr, "Attach error: %v\n", err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
