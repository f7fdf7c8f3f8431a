package control

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestTwoStepHysteresisSequence(t *testing.T) {
	ctrl := NewTwoStep(10)

	// Off: on below target-h/2 = 95. On: off at target+h/2 = 105 and above.
	measurements := []float64{90, 95, 105, 96, 89}
	want := []float64{1, 1, 0, 0, 1}

	for i, m := range measurements {
		got := ctrl.Calculate(m, 100, 1)
		if got != want[i] {
			t.Errorf("step %d: measurement %g gave %g, want %g", i, m, got, want[i])
		}
	}
}

func TestTwoStepRange(t *testing.T) {
	ctrl := NewTwoStep(2)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		u := ctrl.Calculate(rng.NormFloat64()*50, rng.NormFloat64()*50, 0.1)
		if u != 0 && u != 1 {
			t.Fatalf("output %g is neither 0 nor 1", u)
		}
	}
}

func TestTwoStepSwitchOnIsMonotonic(t *testing.T) {
	// From the off state a higher measurement never switches on when a lower one did not.
	prev := 1.0
	for m := 80.0; m <= 120; m += 0.5 {
		ctrl := NewTwoStep(10)
		u := ctrl.Calculate(m, 100, 1)
		if u > prev {
			t.Fatalf("output rose from %g to %g at measurement %g", prev, u, m)
		}
		prev = u
	}
}

func TestTwoStepZeroBand(t *testing.T) {
	ctrl := NewTwoStep(0)
	if u := ctrl.Calculate(100, 100, 1); u != 0 {
		t.Errorf("measurement at target should give 0, got %g", u)
	}
	if u := ctrl.Calculate(99.9, 100, 1); u != 1 {
		t.Errorf("measurement below target should give 1, got %g", u)
	}
}

func TestPIDClamp(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		lo := -rng.Float64() * 10
		hi := rng.Float64() * 10
		p := NewPID(rng.Float64()*100, rng.Float64()*5, rng.Float64(), lo, hi)
		for i := 0; i < 100; i++ {
			u := p.Calculate(rng.NormFloat64()*1e6, rng.NormFloat64()*1e6, 1e-3+rng.Float64())
			if u < lo || u > hi {
				t.Fatalf("output %g outside [%g, %g]", u, lo, hi)
			}
		}
	}
}

func TestPIDProportionalOnly(t *testing.T) {
	p := NewPID(1, 1e9, 0, -100, 100)
	u := p.Calculate(0, 10, 1)
	if math.Abs(u-10) > 1e-6 {
		t.Errorf("expected ~10, got %g", u)
	}
}

func TestPIDZeroTiStaysFinite(t *testing.T) {
	p := NewPID(1, 0, 0, -1, 1)
	u := p.Calculate(0, 1, 0.1)
	if math.IsNaN(u) || math.IsInf(u, 0) {
		t.Fatalf("expected finite output, got %g", u)
	}
	if u != 1 {
		t.Errorf("expected saturated output 1, got %g", u)
	}
}

func TestPIDState(t *testing.T) {
	p := NewPID(2, 4, 0.5, -1000, 1000)

	u1 := p.Calculate(8, 10, 0.5)
	// e=2, I=1, D=(2-0)/0.5=4 -> 2*(2 + 1/4 + 0.5*4) = 8.5
	if math.Abs(u1-8.5) > 1e-9 {
		t.Errorf("first output = %g, want 8.5", u1)
	}

	u2 := p.Calculate(9, 10, 0.5)
	// e=1, I=1.5, D=(1-2)/0.5=-2 -> 2*(1 + 1.5/4 - 1) = 0.75
	if math.Abs(u2-0.75) > 1e-9 {
		t.Errorf("second output = %g, want 0.75", u2)
	}
	if p.Integral() != 1.5 || p.PreviousError() != 1 {
		t.Errorf("unexpected state integral=%g prevErr=%g", p.Integral(), p.PreviousError())
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"unknown mode", Config{Mode: "fuzzy"}, ErrUnknownMode},
		{"empty mode", Config{}, ErrUnknownMode},
		{"negative h", Config{Mode: ModeTwoStep, H: -1}, ErrInvalidParameter},
		{"inverted bounds", Config{Mode: ModePID, Kp: 1, OutputMin: 1, OutputMax: 0}, ErrInvalidParameter},
		{"negative Ti", Config{Mode: ModePID, Kp: 1, Ti: -1, OutputMax: 1}, ErrInvalidParameter},
		{"nan Kp", Config{Mode: ModePID, Kp: math.NaN(), OutputMax: 1}, ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.cfg)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if m != nil {
				t.Error("expected no method on error")
			}
		})
	}
}

func TestConfigYAML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Config
	}{
		{"twoStep default h", "mode: twoStep\n", Config{Mode: ModeTwoStep}},
		{"twoStep", "mode: twoStep\nh: 2.5\n", Config{Mode: ModeTwoStep, H: 2.5}},
		{"PID default max", "mode: PID\nKp: 1\nTi: 2\nTd: 0.1\noutputMin: 0\n",
			Config{Mode: ModePID, Kp: 1, Ti: 2, Td: 0.1, OutputMin: 0, OutputMax: 1}},
		{"PID explicit", "mode: PID\nKp: 1\nTi: 2\nTd: 0\noutputMin: -5\noutputMax: 5\n",
			Config{Mode: ModePID, Kp: 1, Ti: 2, OutputMin: -5, OutputMax: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Config
			if err := yaml.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}

			out, err := yaml.Marshal(got)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var back Config
			if err := yaml.Unmarshal(out, &back); err != nil {
				t.Fatalf("unmarshal written record %q: %v", out, err)
			}
			if diff := cmp.Diff(got, back); diff != "" {
				t.Errorf("round trip (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConfigYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"missing mode", "h: 1\n", ErrUnknownMode},
		{"unknown mode", "mode: fuzzy\n", ErrUnknownMode},
		{"missing Kp", "mode: PID\nTi: 1\nTd: 0\noutputMin: 0\n", ErrInvalidParameter},
		{"missing outputMin", "mode: PID\nKp: 1\nTi: 1\nTd: 0\n", ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			if err := yaml.Unmarshal([]byte(tt.in), &c); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestWrittenRecordOmitsDefaults(t *testing.T) {
	out, err := yaml.Marshal(Config{Mode: ModePID, Kp: 1, Ti: 2, Td: 0, OutputMin: 0, OutputMax: 1})
	if err != nil {
		t.Fatal(err)
	}
	want := "mode: PID\nKp: 1\nTi: 2\nTd: 0\noutputMin: 0\n"
	if string(out) != want {
		t.Errorf("got:\n%s\nwant:\n%s", out, want)
	}
}

func TestGetParams(t *testing.T) {
	pid := NewPID(0.5, 100, 2, 0, 1).GetParams()
	want := map[string]float64{"Kp": 0.5, "Ti": 100, "Td": 2, "outputMin": 0, "outputMax": 1}
	if diff := cmp.Diff(want, pid); diff != "" {
		t.Errorf("PID params (-want +got):\n%s", diff)
	}
	if got := (&TwoStep{H: 3}).GetParams()["h"]; got != 3 {
		t.Errorf("h = %g, want 3", got)
	}
}
