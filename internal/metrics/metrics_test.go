package metrics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/regsim/internal/regulator"
	"github.com/san-kum/regsim/internal/sim"
)

func ticks(errs, signals []float64) []sim.Tick {
	out := make([]sim.Tick, len(errs))
	for i := range errs {
		out[i] = sim.Tick{Index: i, Reading: regulator.Reading{Error: errs[i], Signal: signals[i]}}
	}
	return out
}

func observe(m sim.Metric, ts []sim.Tick) float64 {
	m.Reset()
	for _, tk := range ts {
		m.Observe(tk)
	}
	return m.Value()
}

func TestMetricValues(t *testing.T) {
	ts := ticks(
		[]float64{4, 2, -1, -0.5, 0.5},
		[]float64{1, 1, 0, 0, 1},
	)
	tests := []struct {
		metric sim.Metric
		want   float64
	}{
		{NewIAE(0.5), 0.5 * (4 + 2 + 1 + 0.5 + 0.5)},
		{NewISE(0.5), 0.5 * (16 + 4 + 1 + 0.25 + 0.25)},
		{NewControlEffort(), 3.0 / 5},
		{NewSwitchCount(), 2},
		{NewMaxOvershoot(), 1},
		{NewStability(1), 3.0 / 5},
		{NewEnergy(0.5, func(tk sim.Tick) float64 { return 100 * tk.Reading.Signal }), 150},
	}
	for _, tt := range tests {
		t.Run(tt.metric.Name(), func(t *testing.T) {
			if got := observe(tt.metric, ts); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("got %g, want %g", got, tt.want)
			}
		})
	}
}

func TestOvershootFromAbove(t *testing.T) {
	m := NewMaxOvershoot()
	got := observe(m, ticks([]float64{0, -3, -1, 2, 0.5}, make([]float64, 5)))
	if got != 2 {
		t.Errorf("got %g, want 2", got)
	}
}

func TestResetClearsState(t *testing.T) {
	for _, m := range Defaults(1) {
		m.Observe(sim.Tick{Reading: regulator.Reading{Error: 5, Signal: 1}})
		m.Observe(sim.Tick{Reading: regulator.Reading{Error: -5, Signal: 0}})
		m.Reset()
		if v := m.Value(); v != 0 {
			t.Errorf("%s: value %g after reset", m.Name(), v)
		}
	}
}

func TestRegistry(t *testing.T) {
	names := Names()
	if len(names) != 6 || len(Defaults(1)) != 6 {
		t.Errorf("unexpected metric set %v", names)
	}
	for _, name := range names {
		m, err := New(name, 0.1)
		if err != nil || m.Name() != name {
			t.Errorf("New(%q) = %v, %v", name, m, err)
		}
	}
	if _, err := New("lyapunov", 0.1); !errors.Is(err, ErrUnknown) {
		t.Errorf("expected ErrUnknown, got %v", err)
	}
}
