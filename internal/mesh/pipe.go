package mesh

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrGeometry     = errors.New("mesh: invalid geometry")
	ErrUnknownPatch = errors.New("mesh: unknown patch")
	ErrUnknownField = errors.New("mesh: unknown field")
	ErrFieldSize    = errors.New("mesh: field size does not match")
)

// Patch names.
const (
	Inlet  = "inlet"
	Outlet = "outlet"
	Wall   = "wall"
)

// Geometry describes the pipe.
type Geometry struct {
	Length    float64 `yaml:"length"`
	Cells     int     `yaml:"cells"`
	Area      float64 `yaml:"area"`
	Perimeter float64 `yaml:"perimeter"`
}

func (g Geometry) Validate() error {
	switch {
	case g.Cells <= 0:
		return fmt.Errorf("%w: cells must be positive, got %d", ErrGeometry, g.Cells)
	case g.Length <= 0:
		return fmt.Errorf("%w: length must be positive, got %g", ErrGeometry, g.Length)
	case g.Area <= 0:
		return fmt.Errorf("%w: area must be positive, got %g", ErrGeometry, g.Area)
	case g.Perimeter <= 0:
		return fmt.Errorf("%w: perimeter must be positive, got %g", ErrGeometry, g.Perimeter)
	}
	return nil
}

type Pipe struct {
	geom    Geometry
	dx      float64
	centres []float64
	volumes []float64

	mu          sync.RWMutex
	cellFields  map[string][]float64
	patchFields map[string]map[string][]float64
}

func New(g Geometry) (*Pipe, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	dx := g.Length / float64(g.Cells)
	p := &Pipe{
		geom:        g,
		dx:          dx,
		centres:     make([]float64, g.Cells),
		volumes:     make([]float64, g.Cells),
		cellFields:  make(map[string][]float64),
		patchFields: map[string]map[string][]float64{Inlet: {}, Outlet: {}, Wall: {}},
	}
	for i := range p.centres {
		p.centres[i] = (float64(i) + 0.5) * dx
		p.volumes[i] = g.Area * dx
	}
	return p, nil
}

func (p *Pipe) Geometry() Geometry { return p.geom }
func (p *Pipe) Cells() int         { return p.geom.Cells }
func (p *Pipe) Dx() float64        { return p.dx }

func (p *Pipe) CellCentres() []float64 {
	out := make([]float64, len(p.centres))
	copy(out, p.centres)
	return out
}

// PatchFaces returns the number of faces of a patch.
func (p *Pipe) PatchFaces(patch string) (int, error) {
	switch patch {
	case Inlet, Outlet:
		return 1, nil
	case Wall:
		return p.geom.Cells, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPatch, patch)
}

func (p *Pipe) faceArea(patch string) float64 {
	if patch == Wall {
		return p.geom.Perimeter * p.dx
	}
	return p.geom.Area
}

// SetCellField stores a copy of values as the cell field name.
func (p *Pipe) SetCellField(name string, values []float64) error {
	if len(values) != p.geom.Cells {
		return fmt.Errorf("%w: cell field %q has %d values for %d cells",
			ErrFieldSize, name, len(values), p.geom.Cells)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cellFields[name] = store(p.cellFields[name], values)
	return nil
}

// SetPatchField stores a copy of values as the face values of field on patch.
func (p *Pipe) SetPatchField(field, patch string, values []float64) error {
	n, err := p.PatchFaces(patch)
	if err != nil {
		return err
	}
	if len(values) != n {
		return fmt.Errorf("%w: patch %q field %q has %d values for %d faces",
			ErrFieldSize, patch, field, len(values), n)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fields := p.patchFields[patch]
	fields[field] = store(fields[field], values)
	return nil
}

func (p *Pipe) CellField(name string) ([]float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	values, ok := p.cellFields[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return append([]float64(nil), values...), nil
}

// View returns the whole pipe as a single partition with no peers.
func (p *Pipe) View() *Partition {
	return &Partition{pipe: p, lo: 0, hi: p.geom.Cells, rank: 0, last: true}
}

// Decompose splits the cells into n contiguous partitions of near equal
// size. The inlet face belongs to the first partition and the outlet face
// to the last.
func (p *Pipe) Decompose(n int) ([]*Partition, error) {
	if n <= 0 || n > p.geom.Cells {
		return nil, fmt.Errorf("%w: cannot split %d cells into %d partitions",
			ErrGeometry, p.geom.Cells, n)
	}
	comm := NewComm(n)
	parts := make([]*Partition, n)
	base, extra := p.geom.Cells/n, p.geom.Cells%n
	lo := 0
	for rank := 0; rank < n; rank++ {
		size := base
		if rank < extra {
			size++
		}
		parts[rank] = &Partition{
			pipe: p,
			lo:   lo,
			hi:   lo + size,
			rank: rank,
			last: rank == n-1,
			comm: comm,
		}
		lo += size
	}
	return parts, nil
}

func store(dst, src []float64) []float64 {
	if cap(dst) < len(src) {
		dst = make([]float64, len(src))
	}
	dst = dst[:len(src)]
	copy(dst, src)
	return dst
}
