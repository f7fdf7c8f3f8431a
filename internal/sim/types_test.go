package sim

import (
	"errors"
	"math"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"zeros", State{0.0, 0.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Arithmetic(t *testing.T) {
	a := State{1, 2, 3}
	b := State{4, 5, 6}

	sum := a.Add(b)
	if sum[0] != 5 || sum[1] != 7 || sum[2] != 9 {
		t.Errorf("Add failed: got %v", sum)
	}

	scaled := a.Scale(2)
	if scaled[0] != 2 || scaled[1] != 4 || scaled[2] != 6 {
		t.Errorf("Scale failed: got %v", scaled)
	}

	c := a.Clone()
	c[0] = 99
	if a[0] == 99 {
		t.Error("Clone did not create independent copy")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Dt <= 0 {
		t.Error("DefaultConfig has invalid Dt")
	}
	if cfg.Duration <= 0 {
		t.Error("DefaultConfig has invalid Duration")
	}
	if cfg.Steps() != 6000 {
		t.Errorf("DefaultConfig steps = %d, want 6000", cfg.Steps())
	}
}

func TestClock(t *testing.T) {
	c := NewClock(0.1)
	for i := 0; i < 30; i++ {
		c.Advance()
	}
	if c.TimeIndex() != 30 {
		t.Errorf("index = %d, want 30", c.TimeIndex())
	}
	if math.Abs(c.Time()-3.0) > 1e-12 {
		t.Errorf("time = %v, want 3", c.Time())
	}

	c.Reset(0.5)
	if c.TimeIndex() != 0 || c.Time() != 0 || c.DeltaT() != 0.5 {
		t.Errorf("Reset left %d %v %v", c.TimeIndex(), c.Time(), c.DeltaT())
	}
}

func TestStepError(t *testing.T) {
	err := &StepError{Time: 1.5, Step: 150, Wrapped: ErrInvalidState}
	expected := "step 150 (t=1.5000): sim: invalid state (NaN or Inf detected)"
	if err.Error() != expected {
		t.Errorf("StepError.Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, ErrInvalidState) {
		t.Error("StepError does not unwrap")
	}
}
