package sensor

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Patch averages a field over the faces of a boundary patch, weighted by
// face area.
type Patch struct {
	mesh  Mesh
	field string
	patch string
}

func (s *Patch) Read() (float64, error) {
	values, areas, err := s.mesh.PatchField(s.field, s.patch)
	if err != nil {
		return 0, fmt.Errorf("%w: field %q on patch %q: %w", ErrLookup, s.field, s.patch, err)
	}
	if len(values) != len(areas) {
		return 0, fmt.Errorf("%w: patch %q has %d values for %d faces", ErrLookup, s.patch, len(values), len(areas))
	}
	return weightedMean(s.mesh, floats.Dot(values, areas), floats.Sum(areas))
}

func (s *Patch) FieldName() string { return s.field }
func (s *Patch) PatchName() string { return s.patch }
func (s *Patch) Kind() Kind        { return KindPatch }

func (s *Patch) Config() Config {
	return Config{Kind: KindPatch, Field: s.field, PatchName: s.patch}
}
