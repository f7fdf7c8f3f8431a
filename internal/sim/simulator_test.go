package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/regsim/internal/regulator"
)

type testDynamics struct{}

func (t *testDynamics) Derivative(x State, u Control, time float64) State {
	return State{-x[0] + u[0]}
}

func (t *testDynamics) StateDim() int   { return 1 }
func (t *testDynamics) ControlDim() int { return 1 }

type testIntegrator struct{}

func (t *testIntegrator) Step(dyn Dynamics, x State, u Control, time float64, dt float64) State {
	dx := dyn.Derivative(x, u, time)
	return State{x[0] + dt*dx[0]}
}

// testController holds the input at zero and records the clock it sees.
type testController struct {
	clock   *Clock
	indices []int
	failAt  int
}

func (c *testController) Compute(x State, t float64) (Control, regulator.Reading, error) {
	idx := c.clock.TimeIndex()
	if c.failAt > 0 && idx == c.failAt {
		return nil, regulator.Reading{}, errors.New("sensor unavailable")
	}
	c.indices = append(c.indices, idx)
	return Control{0}, regulator.Reading{Index: idx, Time: t, Measurement: x[0]}, nil
}

func newTestSim() (*Simulator, *testController) {
	clock := NewClock(0)
	ctrl := &testController{clock: clock}
	return New(&testDynamics{}, &testIntegrator{}, ctrl, clock), ctrl
}

func TestSimulatorRun(t *testing.T) {
	sim, ctrl := newTestSim()

	cfg := Config{
		Dt:       0.1,
		Duration: 1.0,
	}

	x0 := State{1.0}
	result, err := sim.Run(context.Background(), x0, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.Ticks) != 10 {
		t.Errorf("expected 10 ticks, got %d", len(result.Ticks))
	}
	if result.StepsTaken != 10 {
		t.Errorf("expected 10 steps, got %d", result.StepsTaken)
	}

	for i, idx := range ctrl.indices {
		if idx != i {
			t.Fatalf("controller saw index %d on tick %d", idx, i)
		}
	}
	if result.Ticks[3].Reading.Index != 3 || math.Abs(result.Ticks[3].Time-0.3) > 1e-12 {
		t.Errorf("tick 3 recorded as %+v", result.Ticks[3])
	}

	expected := 1.0 * math.Exp(-1.0)
	if math.Abs(result.Final[0]-expected) > 0.2 {
		t.Errorf("expected final state ~%.4f, got %.4f", expected, result.Final[0])
	}
	if math.Abs(result.FinalTime-1.0) > 1e-12 {
		t.Errorf("expected final time 1, got %v", result.FinalTime)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim, _ := newTestSim()

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Duration: 1.0}},
		{"negative dt", Config{Dt: -0.1, Duration: 1.0}},
		{"zero duration", Config{Dt: 0.1, Duration: 0}},
		{"negative duration", Config{Dt: 0.1, Duration: -1.0}},
		{"shorter than a step", Config{Dt: 1, Duration: 0.2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x0 := State{1.0}
			_, err := sim.Run(context.Background(), x0, tt.cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSimulatorControllerFailure(t *testing.T) {
	sim, ctrl := newTestSim()
	ctrl.failAt = 4

	result, err := sim.Run(context.Background(), State{1}, Config{Dt: 0.5, Duration: 5})
	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected StepError, got %v", err)
	}
	if stepErr.Step != 4 || stepErr.Time != 2 {
		t.Errorf("failure reported at step %d t=%v", stepErr.Step, stepErr.Time)
	}
	if len(result.Ticks) != 4 {
		t.Errorf("expected 4 completed ticks, got %d", len(result.Ticks))
	}
}

type divergingDynamics struct{ testDynamics }

func (d *divergingDynamics) Derivative(x State, u Control, time float64) State {
	return State{math.Inf(1)}
}

func TestSimulatorValidatesState(t *testing.T) {
	clock := NewClock(0)
	sim := New(&divergingDynamics{}, &testIntegrator{}, &testController{clock: clock}, clock)

	_, err := sim.Run(context.Background(), State{1}, Config{Dt: 0.1, Duration: 1, ValidateState: true})
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}

func TestSimulatorCancel(t *testing.T) {
	sim, _ := newTestSim()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := sim.Run(ctx, State{1}, Config{Dt: 0.1, Duration: 1}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

type testMetric struct {
	count int
	sum   float64
}

func (t *testMetric) Name() string { return "test" }
func (t *testMetric) Observe(tick Tick) {
	t.count++
	t.sum += tick.State[0]
}
func (t *testMetric) Value() float64 {
	if t.count == 0 {
		return 0
	}
	return t.sum / float64(t.count)
}
func (t *testMetric) Reset() {
	t.count = 0
	t.sum = 0
}

func TestSimulatorMetrics(t *testing.T) {
	sim, _ := newTestSim()

	metric := &testMetric{}
	sim.AddMetric(metric)

	cfg := Config{Dt: 0.1, Duration: 1.0}
	x0 := State{1.0}

	result, err := sim.Run(context.Background(), x0, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}

	if metric.count != 10 {
		t.Errorf("expected 10 observations, got %d", metric.count)
	}
}

type countingObserver struct{ n int }

func (o *countingObserver) OnStep(Tick) { o.n++ }

func TestRunWithCallbackStopsEarly(t *testing.T) {
	sim, _ := newTestSim()
	obs := &countingObserver{}
	sim.AddObserver(obs)

	seen := 0
	err := sim.RunWithCallback(context.Background(), State{1}, Config{Dt: 0.1, Duration: 1}, func(tick Tick) bool {
		seen++
		return tick.Index < 4
	})
	if err != nil {
		t.Fatal(err)
	}
	if seen != 5 || obs.n != 5 {
		t.Errorf("expected 5 ticks, callback saw %d, observer %d", seen, obs.n)
	}
}

func TestBatchRun(t *testing.T) {
	jobs := make([]Job, 6)
	for i := range jobs {
		i := i
		jobs[i] = func(ctx context.Context) (*Result, error) {
			if i == 2 {
				return nil, errors.New("unstable")
			}
			sim, _ := newTestSim()
			return sim.Run(ctx, State{float64(i)}, Config{Dt: 0.1, Duration: 1})
		}
	}

	results, errs, err := NewBatch(2).Run(context.Background(), jobs)
	if err != nil {
		t.Fatal(err)
	}
	for i := range jobs {
		if i == 2 {
			if errs[i] == nil || results[i] != nil {
				t.Errorf("job 2 should fail, got %v %v", results[i], errs[i])
			}
			continue
		}
		if errs[i] != nil {
			t.Fatalf("job %d: %v", i, errs[i])
		}
		if got := results[i].Ticks[0].State[0]; got != float64(i) {
			t.Errorf("job %d result out of order: starts at %v", i, got)
		}
	}
}
