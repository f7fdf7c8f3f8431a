package sensor

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Volume averages a field over the whole domain, weighted by cell volume.
type Volume struct {
	mesh  Mesh
	field string
}

func (s *Volume) Read() (float64, error) {
	values, volumes, err := s.mesh.CellField(s.field)
	if err != nil {
		return 0, fmt.Errorf("%w: field %q: %w", ErrLookup, s.field, err)
	}
	if len(values) != len(volumes) {
		return 0, fmt.Errorf("%w: field %q has %d values for %d cells", ErrLookup, s.field, len(values), len(volumes))
	}
	return weightedMean(s.mesh, floats.Dot(values, volumes), floats.Sum(volumes))
}

func (s *Volume) FieldName() string { return s.field }
func (s *Volume) Kind() Kind        { return KindVolume }

func (s *Volume) Config() Config {
	return Config{Kind: KindVolume, Field: s.field}
}
