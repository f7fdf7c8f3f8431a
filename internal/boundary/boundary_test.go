package boundary

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/regsim/internal/control"
	"github.com/san-kum/regsim/internal/regulator"
	"github.com/san-kum/regsim/internal/sensor"
	"github.com/san-kum/regsim/internal/target"
	"gopkg.in/yaml.v3"
)

type fixedClock struct{ index int }

func (c *fixedClock) TimeIndex() int  { return c.index }
func (c *fixedClock) Time() float64   { return float64(c.index) }
func (c *fixedClock) DeltaT() float64 { return 1 }

type constMesh struct{ value float64 }

func (m *constMesh) PatchField(field, patch string) ([]float64, []float64, error) {
	return []float64{m.value}, []float64{1}, nil
}
func (m *constMesh) CellField(field string) ([]float64, []float64, error) {
	return []float64{m.value}, []float64{1}, nil
}
func (m *constMesh) FindCell(p sensor.Point) int    { return 0 }
func (m *constMesh) Sum(v float64) (float64, error) { return v, nil }

func twoStepRegulator(t *testing.T, mesh *constMesh, clock *fixedClock) *regulator.Regulator {
	t.Helper()
	reg, err := regulator.New(regulator.Config{
		TargetValue: target.Uniform(50),
		Control:     control.Config{Mode: control.ModeTwoStep},
		Sensor:      sensor.Config{Kind: sensor.KindVolume, Field: "T"},
	}, mesh, clock)
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestMap(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		signal float64
		want   float64
	}{
		{"value off", Config{Type: Value, MinValue: 20, MaxValue: 80}, 0, 20},
		{"value on", Config{Type: Value, MinValue: 20, MaxValue: 80}, 1, 80},
		{"value half", Config{Type: Value, MinValue: 20, MaxValue: 80}, 0.5, 50},
		{"gradient", Config{Type: Gradient, MinValue: -10, MaxValue: 10}, 0.25, -5},
		{"heat flux on", Config{Type: HeatFlux, Q: 500, Kappa: 0.6}, 0.01, 500 / 0.6},
		{"heat flux off", Config{Type: HeatFlux, Q: 500, Kappa: 0.6}, 0, 0},
		{"heat flux negative", Config{Type: HeatFlux, Q: 500, Kappa: 0.6}, -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Map(tt.signal); got != tt.want {
				t.Errorf("Map(%g) = %g, want %g", tt.signal, got, tt.want)
			}
		})
	}
}

func TestCondition(t *testing.T) {
	if (Config{Type: Value}).Condition() != FixedValue {
		t.Error("value adapter should impose a fixed value")
	}
	for _, k := range []Kind{Gradient, HeatFlux} {
		if (Config{Type: k}).Condition() != FixedGradient {
			t.Errorf("%s adapter should impose a fixed gradient", k)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"unknown", Config{Type: "mixed", Patch: "wall"}, ErrUnknownType},
		{"no patch", Config{Type: Value}, ErrInvalid},
		{"zero kappa", Config{Type: HeatFlux, Patch: "wall", Q: 1}, ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestEvaluateFollowsRegulator(t *testing.T) {
	mesh := &constMesh{value: 40}
	clock := &fixedClock{}
	a, err := New(Config{Type: Value, Patch: "inlet", MinValue: 20, MaxValue: 80}, twoStepRegulator(t, mesh, clock))
	if err != nil {
		t.Fatal(err)
	}

	v, err := a.Evaluate()
	if err != nil || v != 80 {
		t.Fatalf("cold measurement: got %g, %v", v, err)
	}

	mesh.value = 60
	clock.index++
	v, err = a.Evaluate()
	if err != nil || v != 20 {
		t.Fatalf("hot measurement: got %g, %v", v, err)
	}
}

func TestNewRequiresRegulator(t *testing.T) {
	if _, err := New(Config{Type: Value, Patch: "inlet"}, nil); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestWrite(t *testing.T) {
	a, err := New(Config{Type: HeatFlux, Patch: "wall", Q: 200, Kappa: 0.5}, twoStepRegulator(t, &constMesh{}, &fixedClock{}))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := a.Write(&buf); err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"type: heatFlux",
		"patch: wall",
		"Q: 200",
		"kappa: 0.5",
		"targetValue: 50",
		"mode: twoStep",
		"sensor:",
		"  field: T",
		"  type: volume",
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("unexpected record:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestUnmarshalReplacesRecord(t *testing.T) {
	c := Config{Type: HeatFlux, Patch: "wall", Q: 100, Kappa: 2}
	if err := yaml.Unmarshal([]byte("type: value\npatch: inlet\nmaxValue: 80\n"), &c); err != nil {
		t.Fatal(err)
	}
	want := Config{Type: Value, Patch: "inlet", MaxValue: 80}
	if c != want {
		t.Errorf("got %+v, want %+v", c, want)
	}
}
