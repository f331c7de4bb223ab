package project

import (
	"errors"
	"fmt"
)

// ErrUnknownProject is returned when a name does not resolve in the registry.
var ErrUnknownProject = errors.New("unknown project")

// Registry is a read-only name → Project lookup. It is populated once from
// configuration and never mutated afterwards, so lookups need no locking.
type Registry struct {
	order  []string
	byName map[string]Project
}

// NewRegistry builds a registry from the given projects, preserving their
// declaration order. Duplicate names and invalid projects are errors.
func NewRegistry(projects []Project) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]Project, len(projects)),
	}
	for _, p := range projects {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, exists := r.byName[p.Name]; exists {
			return nil, fmt.Errorf("duplicate project name %q", p.Name)
		}
		r.byName[p.Name] = p
		r.order = append(r.order, p.Name)
	}
	return r, nil
}

// Lookup resolves a project by name.
func (r *Registry) Lookup(name string) (Project, error) {
	p, ok := r.byName[name]
	if !ok {
		return Project{}, fmt.Errorf("%w: %q", ErrUnknownProject, name)
	}
	return p, nil
}

// Has reports whether a project name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Names returns the registered project names in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered projects.
func (r *Registry) Len() int {
	return len(r.order)
}
