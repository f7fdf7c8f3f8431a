package integrators

import "github.com/san-kum/regsim/internal/sim"

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn sim.Dynamics, x sim.State, u sim.Control, t float64, dt float64) sim.State {
	return x.Add(dyn.Derivative(x, u, t).Scale(dt))
}
