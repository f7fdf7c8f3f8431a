package control

import (
	"fmt"

	"github.com/san-kum/regsim/internal/dict"
	"gopkg.in/yaml.v3"
)

type rawConfig struct {
	Mode      Kind     `yaml:"mode"`
	H         *float64 `yaml:"h"`
	Kp        *float64 `yaml:"Kp"`
	Ti        *float64 `yaml:"Ti"`
	Td        *float64 `yaml:"Td"`
	OutputMin *float64 `yaml:"outputMin"`
	OutputMax *float64 `yaml:"outputMax"`
}

// UnmarshalYAML reads the mode and its parameters from a mapping. Keys
// that do not belong to control methods are ignored so the same mapping can
// hold the rest of a regulator record.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	var raw rawConfig
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("%w: line %d: %v", ErrInvalidParameter, node.Line, err)
	}

	switch raw.Mode {
	case ModeTwoStep:
		*c = Config{Mode: ModeTwoStep}
		if raw.H != nil {
			c.H = *raw.H
		}
	case ModePID:
		kp, err := required("Kp", raw.Kp)
		if err != nil {
			return err
		}
		ti, err := required("Ti", raw.Ti)
		if err != nil {
			return err
		}
		td, err := required("Td", raw.Td)
		if err != nil {
			return err
		}
		outMin, err := required("outputMin", raw.OutputMin)
		if err != nil {
			return err
		}
		outMax := DefaultOutputMax
		if raw.OutputMax != nil {
			outMax = *raw.OutputMax
		}
		*c = Config{Mode: ModePID, Kp: kp, Ti: ti, Td: td, OutputMin: outMin, OutputMax: outMax}
	case "":
		return fmt.Errorf("%w: line %d: missing mode", ErrUnknownMode, node.Line)
	default:
		return fmt.Errorf("%w: line %d: %q", ErrUnknownMode, node.Line, raw.Mode)
	}
	return nil
}

func required(name string, v *float64) (float64, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidParameter, name)
	}
	return *v, nil
}

func (c Config) MarshalYAML() (interface{}, error) {
	return c.Node()
}

// Node writes the record as a mapping: the mode first, then the
// parameters of that mode. Defaulted parameters are left out.
func (c Config) Node() (*yaml.Node, error) {
	w := dict.NewWriter().Entry("mode", string(c.Mode))
	switch c.Mode {
	case ModeTwoStep:
		dict.EntryIfDifferent(w, "h", 0.0, c.H)
	case ModePID:
		w.Entry("Kp", c.Kp).Entry("Ti", c.Ti).Entry("Td", c.Td)
		w.Entry("outputMin", c.OutputMin)
		dict.EntryIfDifferent(w, "outputMax", DefaultOutputMax, c.OutputMax)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, c.Mode)
	}
	return w.Node()
}
