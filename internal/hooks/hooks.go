// Package hooks provides the lifecycle extension points consumed by the
// workflow manager. Hooks are registered explicitly and invoked in
// registration order; a hook failure propagates as a failure of the
// enclosing lifecycle transition.
package hooks

import (
	"fmt"
	"sync"
)

// Point identifies a fixed lifecycle extension point.
type Point int

const (
	// AfterActivate runs after a project session is set up, with the
	// project's environment directory as argument.
	AfterActivate Point = iota
	// AfterSelect runs when an active project becomes current, with the
	// project's environment directory as argument.
	AfterSelect
	// BeforeDeactivate runs before a project's session is torn down, with
	// the project's root directory as argument. This is where externally
	// owned state gets flushed and related views closed.
	BeforeDeactivate
)

func (p Point) String() string {
	switch p {
	case AfterActivate:
		return "after-activate"
	case AfterSelect:
		return "after-select"
	case BeforeDeactivate:
		return "before-deactivate"
	default:
		return fmt.Sprintf("point(%d)", int(p))
	}
}

// Func is a lifecycle hook. The argument is the project's environment
// directory (activate/select) or root directory (deactivate).
type Func func(dir string) error

// Dispatcher holds ordered hook lists per extension point.
type Dispatcher struct {
	mu  sync.Mutex
	fns map[Point][]Func
}

// NewDispatcher creates a dispatcher with no hooks registered.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{fns: make(map[Point][]Func)}
}

// Register appends fn to the hook list for the given point.
func (d *Dispatcher) Register(point Point, fn Func) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fns[point] = append(d.fns[point], fn)
}

// Run invokes the hooks registered for point in registration order,
// stopping at the first error. No hooks registered is a no-op.
func (d *Dispatcher) Run(point Point, dir string) error {
	d.mu.Lock()
	fns := make([]Func, len(d.fns[point]))
	copy(fns, d.fns[point])
	d.mu.Unlock()

	for i, fn := range fns {
		if err := fn(dir); err != nil {
			return fmt.Errorf("%s hook %d: %w", point, i, err)
		}
	}
	return nil
}
