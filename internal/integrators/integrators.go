// Package integrators advances plant dynamics by one fixed step.
package integrators

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/regsim/internal/sim"
)

var ErrUnknown = errors.New("integrators: unknown integrator")

var constructors = map[string]func() sim.Integrator{
	"euler": func() sim.Integrator { return NewEuler() },
	"rk4":   func() sim.Integrator { return NewRK4() },
}

// New returns a fresh integrator by name. RK4 keeps scratch buffers, so
// concurrent runs each need their own.
func New(name string) (sim.Integrator, error) {
	fn, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
