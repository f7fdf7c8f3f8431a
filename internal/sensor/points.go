package sensor

import "fmt"

// Points averages the cell values at a fixed list of locations. Each
// location is owned by exactly one partition.
type Points struct {
	mesh   Mesh
	field  string
	points []Point
}

func (s *Points) Read() (float64, error) {
	values, _, err := s.mesh.CellField(s.field)
	if err != nil {
		return 0, fmt.Errorf("%w: field %q: %w", ErrLookup, s.field, err)
	}

	sum, found := 0.0, 0.0
	for _, p := range s.points {
		cell := s.mesh.FindCell(p)
		if cell < 0 || cell >= len(values) {
			continue
		}
		sum += values[cell]
		found++
	}

	gsum, err := s.mesh.Sum(sum)
	if err != nil {
		return 0, err
	}
	gfound, err := s.mesh.Sum(found)
	if err != nil {
		return 0, err
	}
	if int(gfound) != len(s.points) {
		return 0, fmt.Errorf("%w: located %d of %d points", ErrLookup, int(gfound), len(s.points))
	}
	return gsum / float64(len(s.points)), nil
}

func (s *Points) FieldName() string { return s.field }
func (s *Points) Kind() Kind        { return KindPoints }

func (s *Points) Config() Config {
	pts := make([]Point, len(s.points))
	copy(pts, s.points)
	return Config{Kind: KindPoints, Field: s.field, Points: pts}
}
