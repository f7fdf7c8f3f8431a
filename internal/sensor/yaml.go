package sensor

import (
	"fmt"

	"github.com/san-kum/regsim/internal/dict"
	"gopkg.in/yaml.v3"
)

type rawConfig struct {
	Type      Kind    `yaml:"type"`
	Field     string  `yaml:"field"`
	PatchName string  `yaml:"patchName"`
	Points    []Point `yaml:"points"`
}

// UnmarshalYAML reads a sensor block. Entries that belong to another
// sensor type are dropped.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	var raw rawConfig
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("%w: line %d: %v", ErrMissingEntry, node.Line, err)
	}
	if raw.Type == "" {
		return fmt.Errorf("%w: line %d: type", ErrMissingEntry, node.Line)
	}
	*c = Config{Kind: raw.Type, Field: raw.Field}
	switch raw.Type {
	case KindPatch:
		c.PatchName = raw.PatchName
	case KindPoints:
		c.Points = raw.Points
	case KindVolume:
	default:
		return fmt.Errorf("%w: line %d: %q", ErrUnknownType, node.Line, raw.Type)
	}
	return c.Validate()
}

func (c Config) MarshalYAML() (interface{}, error) {
	return c.Node()
}

func (c Config) Node() (*yaml.Node, error) {
	w := dict.NewWriter().
		Entry("field", c.Field).
		Entry("type", string(c.Kind))
	switch c.Kind {
	case KindPatch:
		w.Entry("patchName", c.PatchName)
	case KindPoints:
		w.FlowEntry("points", c.Points)
	case KindVolume:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, c.Kind)
	}
	return w.Node()
}
