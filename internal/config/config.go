package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/zakandrewking/workon/internal/project"
	"github.com/zakandrewking/workon/internal/tmux"
)

// Backend names accepted by the "backend" config field.
const (
	BackendTmux = "tmux"
	BackendPty  = "pty"
)

// Config is the workon configuration, read from
// ~/.config/workon/config.yaml and overridable through WORKON_* env vars.
type Config struct {
	// CommandPrefix is prepended to a project's entry point to form the
	// pending command (e.g. "python" + " /proj/main.py").
	CommandPrefix string `yaml:"command_prefix"`

	// Backend picks the session backend: "tmux" (default) or "pty".
	Backend string `yaml:"backend"`

	// Socket is the tmux socket name, keeping workon sessions off the
	// user's default server.
	Socket string `yaml:"socket"`

	// SendTimeout bounds each tmux command invocation.
	SendTimeout Duration `yaml:"send_timeout"`

	// LogFile overrides the default log path
	// (~/.local/state/workon/workon.log).
	LogFile string `yaml:"log_file"`

	// LogLevel is a zerolog level name: trace, debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	Projects []project.Project `yaml:"projects"`
}

// Duration accepts yaml duration strings like "10s" or "500ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// env holds the WORKON_* overrides applied on top of the file.
// WORKON_CONFIG is handled separately in Path, before the file is read.
type env struct {
	CommandPrefix string        `envconfig:"COMMAND_PREFIX"`
	Backend       string        `envconfig:"BACKEND"`
	Socket        string        `envconfig:"SOCKET"`
	SendTimeout   time.Duration `envconfig:"SEND_TIMEOUT"`
	LogFile       string        `envconfig:"LOG_FILE"`
	LogLevel      string        `envconfig:"LOG_LEVEL"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		CommandPrefix: "python",
		Backend:       BackendTmux,
		Socket:        tmux.DefaultSocket,
		SendTimeout:   Duration(tmux.DefaultTimeout),
		LogLevel:      "info",
		Projects:      []project.Project{},
	}
}

// Path returns the config file path: $WORKON_CONFIG when set, otherwise
// ~/.config/workon/config.yaml.
func Path() (string, error) {
	if p := os.Getenv("WORKON_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "workon", "config.yaml"), nil
}

// Load reads the config file, applies WORKON_* env overrides, and
// validates the result. A missing file yields the defaults.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var overrides env
	if err := envconfig.Process("workon", &overrides); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if overrides.CommandPrefix != "" {
		cfg.CommandPrefix = overrides.CommandPrefix
	}
	if overrides.Backend != "" {
		cfg.Backend = overrides.Backend
	}
	if overrides.Socket != "" {
		cfg.Socket = overrides.Socket
	}
	if overrides.SendTimeout != 0 {
		cfg.SendTimeout = Duration(overrides.SendTimeout)
	}
	if overrides.LogFile != "" {
		cfg.LogFile = overrides.LogFile
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the backend name and every project entry.
func (c *Config) Validate() error {
	if c.Backend != BackendTmux && c.Backend != BackendPty {
		return fmt.Errorf("unknown backend %q (want %q or %q)", c.Backend, BackendTmux, BackendPty)
	}
	if c.CommandPrefix == "" {
		return fmt.Errorf("command_prefix must not be empty")
	}

	seen := make(map[string]bool)
	for _, p := range c.Projects {
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate project %q", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}
