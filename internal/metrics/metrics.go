// Package metrics scores closed-loop runs tick by tick.
package metrics

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/regsim/internal/sim"
)

var ErrUnknown = errors.New("metrics: unknown metric")

// DefaultBand is the error band used by the in_band metric.
const DefaultBand = 1.0

var constructors = map[string]func(dt float64) sim.Metric{
	"iae":            func(dt float64) sim.Metric { return NewIAE(dt) },
	"ise":            func(dt float64) sim.Metric { return NewISE(dt) },
	"control_effort": func(float64) sim.Metric { return NewControlEffort() },
	"switch_count":   func(float64) sim.Metric { return NewSwitchCount() },
	"max_overshoot":  func(float64) sim.Metric { return NewMaxOvershoot() },
	"in_band":        func(float64) sim.Metric { return NewStability(DefaultBand) },
}

func New(name string, dt float64) (sim.Metric, error) {
	fn, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return fn(dt), nil
}

func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Defaults returns a fresh instance of every tick metric.
func Defaults(dt float64) []sim.Metric {
	out := make([]sim.Metric, 0, len(constructors))
	for _, name := range Names() {
		out = append(out, constructors[name](dt))
	}
	return out
}
