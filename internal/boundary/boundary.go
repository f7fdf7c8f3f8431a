// Package boundary turns a regulator's control signal into a boundary
// condition on one patch of the mesh.
//
//   - value:    fixed value min + (max-min)*signal
//   - gradient: fixed gradient min + (max-min)*signal
//   - heatFlux: fixed gradient Q/kappa while the signal is positive, else 0
package boundary

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/san-kum/regsim/internal/dict"
	"github.com/san-kum/regsim/internal/regulator"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownType = errors.New("boundary: unknown adapter type")
	ErrInvalid     = errors.New("boundary: invalid adapter")
)

type Kind string

const (
	Value    Kind = "value"
	Gradient Kind = "gradient"
	HeatFlux Kind = "heatFlux"
)

// Condition is the kind of boundary condition an adapter imposes.
type Condition int

const (
	FixedValue Condition = iota
	FixedGradient
)

func (c Condition) String() string {
	if c == FixedGradient {
		return "fixedGradient"
	}
	return "fixedValue"
}

type Config struct {
	Type     Kind    `yaml:"type"`
	Patch    string  `yaml:"patch"`
	MinValue float64 `yaml:"minValue,omitempty"`
	MaxValue float64 `yaml:"maxValue,omitempty"`
	Q        float64 `yaml:"Q,omitempty"`
	Kappa    float64 `yaml:"kappa,omitempty"`
}

// UnmarshalYAML replaces the whole record, so entries of another adapter
// type never survive from a previous value.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type plain Config
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*c = Config(p)
	return nil
}

func (c Config) Validate() error {
	if c.Patch == "" {
		return fmt.Errorf("%w: patch is required", ErrInvalid)
	}
	switch c.Type {
	case Value, Gradient:
		if math.IsNaN(c.MinValue) || math.IsNaN(c.MaxValue) {
			return fmt.Errorf("%w: minValue and maxValue must be numbers", ErrInvalid)
		}
	case HeatFlux:
		if c.Kappa == 0 || math.IsNaN(c.Kappa) {
			return fmt.Errorf("%w: kappa must be non-zero, got %g", ErrInvalid, c.Kappa)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, c.Type)
	}
	return nil
}

func (c Config) Condition() Condition {
	if c.Type == Value {
		return FixedValue
	}
	return FixedGradient
}

// Map converts a control signal into the boundary quantity.
func (c Config) Map(signal float64) float64 {
	switch c.Type {
	case HeatFlux:
		if signal > 0 {
			return c.Q / c.Kappa
		}
		return 0
	default:
		return (c.MaxValue-c.MinValue)*signal + c.MinValue
	}
}

// Adapter drives one patch from one regulator.
type Adapter struct {
	cfg Config
	reg *regulator.Regulator
}

func New(cfg Config, reg *regulator.Regulator) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, fmt.Errorf("%w: no regulator", ErrInvalid)
	}
	return &Adapter{cfg: cfg, reg: reg}, nil
}

// Evaluate reads the regulator for the current tick and returns the
// boundary quantity.
func (a *Adapter) Evaluate() (float64, error) {
	signal, err := a.reg.Read()
	if err != nil {
		return 0, fmt.Errorf("boundary %q: %w", a.cfg.Patch, err)
	}
	return a.cfg.Map(signal), nil
}

func (a *Adapter) Patch() string                   { return a.cfg.Patch }
func (a *Adapter) Condition() Condition            { return a.cfg.Condition() }
func (a *Adapter) Config() Config                  { return a.cfg }
func (a *Adapter) Regulator() *regulator.Regulator { return a.reg }

// Node writes the adapter entries followed by the regulator record.
func (a *Adapter) Node() (*yaml.Node, error) {
	rec, err := a.reg.Config().MarshalYAML()
	if err != nil {
		return nil, err
	}
	w := dict.NewWriter().Entry("type", string(a.cfg.Type)).Entry("patch", a.cfg.Patch)
	switch a.cfg.Type {
	case HeatFlux:
		w.Entry("Q", a.cfg.Q).Entry("kappa", a.cfg.Kappa)
	default:
		w.Entry("minValue", a.cfg.MinValue).Entry("maxValue", a.cfg.MaxValue)
	}
	return w.Merge(rec.(*yaml.Node)).Node()
}

func (a *Adapter) Write(out io.Writer) error {
	n, err := a.Node()
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(n); err != nil {
		return err
	}
	return enc.Close()
}
