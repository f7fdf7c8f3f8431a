package integrators

import (
	"testing"

	"github.com/san-kum/regsim/internal/sim"
)

type benchDynamics struct{}

func (b *benchDynamics) StateDim() int   { return 2 }
func (b *benchDynamics) ControlDim() int { return 0 }
func (b *benchDynamics) Derivative(x sim.State, u sim.Control, t float64) sim.State {
	return sim.State{x[1], -x[0]}
}

func BenchmarkEuler(b *testing.B) {
	integrator := NewEuler()
	dyn := &benchDynamics{}
	x := sim.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, nil, 0, 0.01)
	}
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	dyn := &benchDynamics{}
	x := sim.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, nil, 0, 0.01)
	}
}

// benchDiffusion is a 1D diffusion stencil the size of a fine pipe mesh.
type benchDiffusion struct{ n int }

func (b *benchDiffusion) StateDim() int   { return b.n }
func (b *benchDiffusion) ControlDim() int { return 1 }
func (b *benchDiffusion) Derivative(x sim.State, u sim.Control, t float64) sim.State {
	dx := make(sim.State, b.n)
	for i := range x {
		left, right := u[0], x[i]
		if i > 0 {
			left = x[i-1]
		}
		if i < b.n-1 {
			right = x[i+1]
		}
		dx[i] = left - 2*x[i] + right
	}
	return dx
}

func BenchmarkRK4_Diffusion200(b *testing.B) {
	integrator := NewRK4()
	dyn := &benchDiffusion{n: 200}
	x := make(sim.State, 200)
	u := sim.Control{1}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, u, 0, 0.1)
	}
}
