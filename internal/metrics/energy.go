package metrics

import "github.com/san-kum/regsim/internal/sim"

// PowerFunc returns the actuator power in W during a tick.
type PowerFunc func(tick sim.Tick) float64

// Energy integrates actuator power over the run in J.
type Energy struct {
	name  string
	dt    float64
	power PowerFunc
	total float64
}

func NewEnergy(dt float64, power PowerFunc) *Energy {
	return &Energy{
		name:  "energy",
		dt:    dt,
		power: power,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(tick sim.Tick) {
	e.total += e.power(tick) * e.dt
}

func (e *Energy) Value() float64 { return e.total }

func (e *Energy) Reset() { e.total = 0 }
