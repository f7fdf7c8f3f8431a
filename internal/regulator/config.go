package regulator

import (
	"fmt"

	"github.com/san-kum/regsim/internal/control"
	"github.com/san-kum/regsim/internal/dict"
	"github.com/san-kum/regsim/internal/sensor"
	"github.com/san-kum/regsim/internal/target"
	"gopkg.in/yaml.v3"
)

// Config is the regulator record. The control method entries sit at the
// top level of the record next to targetValue; the sensor has its own block.
type Config struct {
	TargetValue target.Spec
	Control     control.Config
	Sensor      sensor.Config
}

func (c Config) Validate() error {
	if _, err := target.New(c.TargetValue); err != nil {
		return fmt.Errorf("%w: targetValue: %w", ErrConfig, err)
	}
	if err := c.Control.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if err := c.Sensor.Validate(); err != nil {
		return fmt.Errorf("%w: sensor: %w", ErrConfig, err)
	}
	return nil
}

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: line %d: expected a mapping", ErrConfig, node.Line)
	}

	tv := dict.Lookup(node, "targetValue")
	if tv == nil {
		return fmt.Errorf("%w: line %d: missing targetValue", ErrConfig, node.Line)
	}
	var out Config
	if err := tv.Decode(&out.TargetValue); err != nil {
		return fmt.Errorf("%w: targetValue: %w", ErrConfig, err)
	}

	if err := out.Control.UnmarshalYAML(node); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}

	sn := dict.Lookup(node, "sensor")
	if sn == nil {
		return fmt.Errorf("%w: line %d: missing sensor block", ErrConfig, node.Line)
	}
	if err := sn.Decode(&out.Sensor); err != nil {
		return fmt.Errorf("%w: sensor: %w", ErrConfig, err)
	}

	*c = out
	return nil
}

func (c Config) MarshalYAML() (interface{}, error) {
	ctrl, err := c.Control.Node()
	if err != nil {
		return nil, err
	}
	sn, err := c.Sensor.Node()
	if err != nil {
		return nil, err
	}
	return dict.NewWriter().
		Entry("targetValue", c.TargetValue).
		Merge(ctrl).
		Entry("sensor", sn).
		Node()
}
