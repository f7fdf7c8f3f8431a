// Package sensor measures the controlled quantity for a regulator.
//
// A sensor reduces a named field to one scalar:
//
//   - patch:  area-weighted mean over the faces of a boundary patch
//   - points: arithmetic mean of the cell values at fixed locations
//   - volume: volume-weighted mean over every cell of the domain
//
// Under domain decomposition every partition holds its own sensor over its
// own [Mesh] view. Partial sums are combined with Mesh.Sum, a collective
// that every partition must enter on every read.
package sensor

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownType indicates a sensor type outside the supported set.
	ErrUnknownType = errors.New("sensor: unknown sensor type")

	// ErrMissingEntry indicates a required configuration entry is absent.
	ErrMissingEntry = errors.New("sensor: missing entry")

	// ErrLookup indicates a field, patch or point could not be found at read time.
	ErrLookup = errors.New("sensor: lookup failed")
)

type Kind string

const (
	KindPatch  Kind = "patch"
	KindPoints Kind = "points"
	KindVolume Kind = "volume"
)

type Point [3]float64

// Mesh is the view of the host domain a sensor reads from.
type Mesh interface {
	// PatchField returns the local face values of field on patch and the
	// matching face areas.
	PatchField(field, patch string) (values, areas []float64, err error)

	// CellField returns the local cell values of field and the cell volumes.
	CellField(field string) (values, volumes []float64, err error)

	// FindCell returns the local index of the cell containing p, or -1 when
	// p is not owned by this view.
	FindCell(p Point) int

	// Sum adds v over all partitions and returns the total to each of them.
	Sum(v float64) (float64, error)
}

type Sensor interface {
	Read() (float64, error)
	FieldName() string
	Kind() Kind
	Config() Config
}

// Config is the configuration record of a sensor.
type Config struct {
	Kind      Kind
	Field     string
	PatchName string  // patch only
	Points    []Point // points only
}

func (c Config) Validate() error {
	if c.Field == "" {
		return fmt.Errorf("%w: field", ErrMissingEntry)
	}
	switch c.Kind {
	case KindPatch:
		if c.PatchName == "" {
			return fmt.Errorf("%w: patchName", ErrMissingEntry)
		}
	case KindPoints:
		if len(c.Points) == 0 {
			return fmt.Errorf("%w: points", ErrMissingEntry)
		}
	case KindVolume:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, c.Kind)
	}
	return nil
}

func New(cfg Config, mesh Mesh) (Sensor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Kind {
	case KindPatch:
		return &Patch{mesh: mesh, field: cfg.Field, patch: cfg.PatchName}, nil
	case KindPoints:
		pts := make([]Point, len(cfg.Points))
		copy(pts, cfg.Points)
		return &Points{mesh: mesh, field: cfg.Field, points: pts}, nil
	case KindVolume:
		return &Volume{mesh: mesh, field: cfg.Field}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, cfg.Kind)
}

// weightedMean reduces a local weighted sum and weight total across
// partitions before dividing.
func weightedMean(mesh Mesh, num, den float64) (float64, error) {
	gnum, err := mesh.Sum(num)
	if err != nil {
		return 0, err
	}
	gden, err := mesh.Sum(den)
	if err != nil {
		return 0, err
	}
	if gden == 0 {
		return 0, fmt.Errorf("%w: total weight is zero", ErrLookup)
	}
	return gnum / gden, nil
}
