package sim

import (
	"math"

	"github.com/san-kum/regsim/internal/regulator"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// IsValid reports whether every component is finite.
func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Add(o State) State {
	r := make(State, len(s))
	for i := range s {
		r[i] = s[i] + o[i]
	}
	return r
}

func (s State) Scale(k float64) State {
	r := make(State, len(s))
	for i := range s {
		r[i] = s[i] * k
	}
	return r
}

type Control []float64

type Dynamics interface {
	Derivative(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn Dynamics, x State, u Control, t float64, dt float64) State
}

// Controller closes the loop: it measures x at time t and returns the
// actuation together with the regulator reading that produced it.
type Controller interface {
	Compute(x State, t float64) (Control, regulator.Reading, error)
}

// Tick is everything known about one step of a closed-loop run.
type Tick struct {
	Index   int
	Time    float64
	State   State
	Control Control
	Reading regulator.Reading
}

type Metric interface {
	Name() string
	Observe(tick Tick)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(tick Tick)
}

type Config struct {
	Dt            float64
	Duration      float64
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{Dt: 0.1, Duration: 600, ValidateState: true}
}

// Steps is the number of ticks a run of cfg takes.
func (c Config) Steps() int {
	return int(math.Round(c.Duration / c.Dt))
}

type Result struct {
	Ticks      []Tick
	Final      State
	FinalTime  float64
	Metrics    map[string]float64
	StepsTaken int
}
