package target

import (
	"fmt"

	"github.com/san-kum/regsim/internal/dict"
	"gopkg.in/yaml.v3"
)

type rawSpec struct {
	Type        Kind         `yaml:"type"`
	Value       float64      `yaml:"value"`
	Values      [][2]float64 `yaml:"values"`
	OutOfBounds string       `yaml:"outOfBounds"`
	Coeffs      [][2]float64 `yaml:"coeffs"`
	Amplitude   float64      `yaml:"amplitude"`
	Frequency   float64      `yaml:"frequency"`
	Level       float64      `yaml:"level"`
	T0          float64      `yaml:"t0"`
	MarkSpace   float64      `yaml:"markSpace"`
}

// UnmarshalYAML accepts either a bare scalar (a constant) or a mapping
// with a type entry.
func (s *Spec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var v float64
		if err := node.Decode(&v); err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrInvalid, node.Line, err)
		}
		*s = Uniform(v)
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: line %d: expected a scalar or a mapping", ErrInvalid, node.Line)
	}

	var raw rawSpec
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("%w: line %d: %v", ErrInvalid, node.Line, err)
	}
	if raw.Type == "" {
		return fmt.Errorf("%w: line %d: missing type", ErrInvalid, node.Line)
	}
	*s = Spec{
		Kind:        raw.Type,
		Value:       raw.Value,
		Values:      raw.Values,
		OutOfBounds: raw.OutOfBounds,
		Coeffs:      raw.Coeffs,
		Amplitude:   raw.Amplitude,
		Frequency:   raw.Frequency,
		Level:       raw.Level,
		T0:          raw.T0,
		MarkSpace:   raw.MarkSpace,
	}
	return nil
}

// MarshalYAML writes constants as a bare scalar and everything else as a
// mapping holding only the entries relevant to the kind.
func (s Spec) MarshalYAML() (interface{}, error) {
	if s.Kind == Constant {
		return s.Value, nil
	}

	w := dict.NewWriter().Entry("type", string(s.Kind))
	switch s.Kind {
	case Table:
		w.FlowEntry("values", s.Values)
		dict.EntryIfDifferent(w, "outOfBounds", "", s.OutOfBounds)
	case Polynomial:
		w.FlowEntry("coeffs", s.Coeffs)
	case Sine, Square:
		w.Entry("amplitude", s.Amplitude)
		w.Entry("frequency", s.Frequency)
		dict.EntryIfDifferent(w, "level", 0.0, s.Level)
		dict.EntryIfDifferent(w, "t0", 0.0, s.T0)
		if s.Kind == Square {
			dict.EntryIfDifferent(w, "markSpace", 0.0, s.MarkSpace)
		}
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalid, s.Kind)
	}
	return w.Node()
}
