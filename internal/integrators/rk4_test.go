package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/regsim/internal/sim"
)

type simpleDynamics struct{}

func (s *simpleDynamics) Derivative(x sim.State, u sim.Control, t float64) sim.State {
	return sim.State{x[1], -x[0]}
}

func (s *simpleDynamics) StateDim() int   { return 2 }
func (s *simpleDynamics) ControlDim() int { return 0 }

// firstOrder relaxes towards the held input u with unit time constant.
type firstOrder struct{}

func (f *firstOrder) Derivative(x sim.State, u sim.Control, t float64) sim.State {
	return sim.State{u[0] - x[0]}
}

func (f *firstOrder) StateDim() int   { return 1 }
func (f *firstOrder) ControlDim() int { return 1 }

func TestRK4Accuracy(t *testing.T) {
	dyn := &simpleDynamics{}
	integ := NewRK4()

	x0 := sim.State{1.0, 0.0}
	u := sim.Control{}
	dt := 0.01
	steps := 100

	x := x0
	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, u, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}

	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestHeldInputResponse(t *testing.T) {
	tests := []struct {
		name string
		tol  float64
	}{
		{"euler", 0.03},
		{"rk4", 1e-6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			integ, err := New(tt.name)
			if err != nil {
				t.Fatal(err)
			}
			x := sim.State{0}
			u := sim.Control{2}
			dt := 0.05
			for i := 0; i < 20; i++ {
				x = integ.Step(&firstOrder{}, x, u, float64(i)*dt, dt)
			}
			want := 2 * (1 - math.Exp(-1))
			if math.Abs(x[0]-want) > tt.tol {
				t.Errorf("got %.6f, want %.6f", x[0], want)
			}
		})
	}
}

func TestStepDoesNotMutateInput(t *testing.T) {
	for _, name := range Names() {
		integ, _ := New(name)
		x := sim.State{1, 0}
		integ.Step(&simpleDynamics{}, x, nil, 0, 0.1)
		if x[0] != 1 || x[1] != 0 {
			t.Errorf("%s mutated its input: %v", name, x)
		}
	}
}

func TestNewUnknown(t *testing.T) {
	if _, err := New("verlet"); !errors.Is(err, ErrUnknown) {
		t.Errorf("expected ErrUnknown, got %v", err)
	}
	if got := Names(); len(got) != 2 || got[0] != "euler" || got[1] != "rk4" {
		t.Errorf("Names() = %v", got)
	}
}
