package mesh

import (
	"fmt"

	"github.com/san-kum/regsim/internal/sensor"
)

// Partition is the local view of a contiguous cell range [lo, hi).
type Partition struct {
	pipe   *Pipe
	lo, hi int
	rank   int
	last   bool
	comm   *Comm
}

var _ sensor.Mesh = (*Partition)(nil)

func (p *Partition) Rank() int { return p.rank }

func (p *Partition) Size() int {
	if p.comm == nil {
		return 1
	}
	return p.comm.Size()
}

// Range returns the global indices of the first and one past the last cell.
func (p *Partition) Range() (lo, hi int) { return p.lo, p.hi }

func (p *Partition) Comm() *Comm { return p.comm }

// faces returns the global face range of patch owned by this partition.
func (p *Partition) faces(patch string) (lo, hi int, err error) {
	switch patch {
	case Inlet:
		if p.lo == 0 {
			return 0, 1, nil
		}
		return 0, 0, nil
	case Outlet:
		if p.last {
			return 0, 1, nil
		}
		return 0, 0, nil
	case Wall:
		return p.lo, p.hi, nil
	}
	return 0, 0, fmt.Errorf("%w: %q", ErrUnknownPatch, patch)
}

func (p *Partition) PatchField(field, patch string) ([]float64, []float64, error) {
	lo, hi, err := p.faces(patch)
	if err != nil {
		return nil, nil, err
	}

	p.pipe.mu.RLock()
	values, ok := p.pipe.patchFields[patch][field]
	var v []float64
	if ok {
		v = append([]float64(nil), values[lo:hi]...)
	}
	p.pipe.mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q on patch %q", ErrUnknownField, field, patch)
	}

	n := hi - lo
	a := make([]float64, n)
	area := p.pipe.faceArea(patch)
	for i := range a {
		a[i] = area
	}
	return v, a, nil
}

func (p *Partition) CellField(field string) ([]float64, []float64, error) {
	p.pipe.mu.RLock()
	values, ok := p.pipe.cellFields[field]
	var v []float64
	if ok {
		v = append([]float64(nil), values[p.lo:p.hi]...)
	}
	p.pipe.mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return v, append([]float64(nil), p.pipe.volumes[p.lo:p.hi]...), nil
}

// FindCell locates p along the pipe axis. Cells own the half-open interval
// [x0, x1) except the last cell of the pipe, which also owns x = length.
func (p *Partition) FindCell(pt sensor.Point) int {
	x := pt[0]
	length := p.pipe.geom.Length
	if x < 0 || x > length {
		return -1
	}
	cell := int(x / p.pipe.dx)
	if cell >= p.pipe.geom.Cells {
		cell = p.pipe.geom.Cells - 1
	}
	if cell < p.lo || cell >= p.hi {
		return -1
	}
	return cell - p.lo
}

func (p *Partition) Sum(v float64) (float64, error) {
	if p.comm == nil {
		return v, nil
	}
	return p.comm.Sum(p.rank, v)
}
