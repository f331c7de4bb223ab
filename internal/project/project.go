// Package project defines project workflow configurations and the
// read-only registry used to resolve them by name.
package project

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Project is a user-declared project workflow configuration.
// It is immutable once loaded; lifecycle state lives in the workflow manager.
type Project struct {
	// Name uniquely identifies the project within the registry.
	Name string `yaml:"name"`
	// Root is the project root directory. Should be absolute for
	// reliable session setup; relative roots are kept as-is.
	Root string `yaml:"root"`
	// Main is the entry-point path, relative to Root or absolute.
	Main string `yaml:"main"`
	// EnvDir is the environment directory handed to lifecycle hooks
	// (e.g. a virtualenv directory).
	EnvDir string `yaml:"env_dir"`
	// Activate is the environment-activation command run in the session
	// right after it is created. Empty means no activation step.
	Activate string `yaml:"activate"`
	// Commands are preset command strings seeded into history on
	// activation and selection, in declared order.
	Commands []string `yaml:"commands"`
}

// MainPath returns the absolute entry-point path, joining Root and Main
// when Main is relative. The freshly resolved root is always used.
func (p Project) MainPath() string {
	if p.Main == "" {
		return ""
	}
	if filepath.IsAbs(p.Main) {
		return filepath.Clean(p.Main)
	}
	return filepath.Join(p.Root, p.Main)
}

// Validate checks that the project has the fields the lifecycle needs.
func (p Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("project missing name")
	}
	if strings.TrimSpace(p.Root) == "" {
		return fmt.Errorf("project %q missing root", p.Name)
	}
	return nil
}
