// Package plant models the thermal process under regulation: fluid flowing
// through a pipe that loses heat through its wall.
//
// Each cell obeys
//
//	dT/dt = -v dT/dx + alpha d2T/dx2 + alpha (P/A) g_wall
//
// with upwind advection, central diffusion and the wall normal gradient
// g_wall. An uncontrolled wall loses heat convectively,
// g_wall = -h/k (T - T_ambient). The inlet is a fixed temperature and the
// outlet a zero gradient.
//
// One boundary can be driven by an actuator: the inlet with a fixed value,
// or the wall with a fixed value or a fixed gradient. The control input is
// that boundary quantity.
package plant

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/regsim/internal/boundary"
	"github.com/san-kum/regsim/internal/mesh"
	"github.com/san-kum/regsim/internal/sim"
)

// Field is the name of the temperature field published to the mesh.
const Field = "T"

var ErrParams = errors.New("plant: invalid parameters")

type Params struct {
	Velocity         float64 `yaml:"velocity"`
	Diffusivity      float64 `yaml:"diffusivity"`
	Conductivity     float64 `yaml:"conductivity"`
	HTC              float64 `yaml:"htc"`
	Ambient          float64 `yaml:"ambient"`
	InletTemperature float64 `yaml:"inletTemperature"`
	Initial          float64 `yaml:"initial"`
}

func DefaultParams() Params {
	return Params{
		Velocity:         0.05,
		Diffusivity:      1.43e-7,
		Conductivity:     0.6,
		HTC:              25,
		Ambient:          15,
		InletTemperature: 20,
		Initial:          15,
	}
}

func (p Params) Validate() error {
	switch {
	case p.Velocity < 0:
		return fmt.Errorf("%w: velocity must be >= 0, got %g", ErrParams, p.Velocity)
	case p.Diffusivity < 0:
		return fmt.Errorf("%w: diffusivity must be >= 0, got %g", ErrParams, p.Diffusivity)
	case p.Conductivity <= 0:
		return fmt.Errorf("%w: conductivity must be positive, got %g", ErrParams, p.Conductivity)
	case p.HTC < 0:
		return fmt.Errorf("%w: htc must be >= 0, got %g", ErrParams, p.HTC)
	}
	return nil
}

// Drive names the boundary the actuator acts on.
type Drive struct {
	Patch     string
	Condition boundary.Condition
}

func (d Drive) validate() error {
	switch {
	case d.Patch == mesh.Inlet && d.Condition == boundary.FixedValue:
	case d.Patch == mesh.Wall:
	default:
		return fmt.Errorf("%w: cannot drive %s on patch %q", ErrParams, d.Condition, d.Patch)
	}
	return nil
}

type Pipe struct {
	params Params
	drive  *Drive

	n      int
	dx     float64
	wallD    float64 // distance from cell centre to wall, A/P
	wallPA   float64 // wall perimeter over area
	wallFace float64
	area     float64
}

var _ sim.Dynamics = (*Pipe)(nil)

// New builds the dynamics on the geometry of m. A nil drive leaves every
// boundary at its fixed setting.
func New(m *mesh.Pipe, p Params, drive *Drive) (*Pipe, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if drive != nil {
		if err := drive.validate(); err != nil {
			return nil, err
		}
	}
	g := m.Geometry()
	return &Pipe{
		params:   p,
		drive:    drive,
		n:        g.Cells,
		dx:       m.Dx(),
		wallD:    g.Area / g.Perimeter,
		wallPA:   g.Perimeter / g.Area,
		wallFace: g.Perimeter * m.Dx(),
		area:     g.Area,
	}, nil
}

func (p *Pipe) StateDim() int   { return p.n }
func (p *Pipe) ControlDim() int { return 1 }
func (p *Pipe) Params() Params  { return p.params }

func (p *Pipe) InitialState() sim.State {
	x := make(sim.State, p.n)
	for i := range x {
		x[i] = p.params.Initial
	}
	return x
}

// MaxStableDt is the largest explicit Euler step that keeps advection and
// diffusion stable on this mesh.
func (p *Pipe) MaxStableDt() float64 {
	limit := math.Inf(1)
	if p.params.Velocity > 0 {
		limit = p.dx / p.params.Velocity
	}
	if p.params.Diffusivity > 0 {
		limit = math.Min(limit, p.dx*p.dx/(2*p.params.Diffusivity))
	}
	return limit
}

func (p *Pipe) drives(patch string) bool {
	return p.drive != nil && p.drive.Patch == patch
}

func (p *Pipe) inlet(u sim.Control) float64 {
	if p.drives(mesh.Inlet) {
		return u[0]
	}
	return p.params.InletTemperature
}

// wallGradient is the outward normal gradient on the wall face of a cell
// at temperature t.
func (p *Pipe) wallGradient(t float64, u sim.Control) float64 {
	if p.drives(mesh.Wall) {
		if p.drive.Condition == boundary.FixedValue {
			return (u[0] - t) / p.wallD
		}
		return u[0]
	}
	return -p.params.HTC / p.params.Conductivity * (t - p.params.Ambient)
}

func (p *Pipe) Derivative(x sim.State, u sim.Control, t float64) sim.State {
	dx := make(sim.State, p.n)
	v, alpha, h := p.params.Velocity, p.params.Diffusivity, p.dx
	tin := p.inlet(u)

	for i := 0; i < p.n; i++ {
		up := tin
		if i > 0 {
			up = x[i-1]
		}
		adv := -v * (x[i] - up) / h

		// Face fluxes per unit area. The inlet face sits half a cell away.
		var left, right float64
		if i == 0 {
			left = (x[0] - tin) / (0.5 * h)
		} else {
			left = (x[i] - x[i-1]) / h
		}
		if i < p.n-1 {
			right = (x[i+1] - x[i]) / h
		}
		diff := alpha * (right - left) / h

		wall := alpha * p.wallPA * p.wallGradient(x[i], u)

		dx[i] = adv + diff + wall
	}
	return dx
}

// Sync publishes the state and the boundary values implied by u into the
// mesh fields sensors read from.
func (p *Pipe) Sync(x sim.State, u sim.Control, m *mesh.Pipe) error {
	if len(x) != p.n {
		return fmt.Errorf("%w: state has %d cells, mesh %d", ErrParams, len(x), p.n)
	}
	if err := m.SetCellField(Field, x); err != nil {
		return err
	}
	if err := m.SetPatchField(Field, mesh.Inlet, []float64{p.inlet(u)}); err != nil {
		return err
	}
	if err := m.SetPatchField(Field, mesh.Outlet, []float64{x[p.n-1]}); err != nil {
		return err
	}

	wall := make([]float64, p.n)
	for i, t := range x {
		if p.drives(mesh.Wall) && p.drive.Condition == boundary.FixedValue {
			wall[i] = u[0]
			continue
		}
		wall[i] = t + p.wallGradient(t, u)*p.wallD
	}
	return m.SetPatchField(Field, mesh.Wall, wall)
}

// WallPower returns the heat flow in W entering the fluid through the wall.
func (p *Pipe) WallPower(x sim.State, u sim.Control) float64 {
	q := 0.0
	for _, t := range x {
		q += p.params.Conductivity * p.wallGradient(t, u) * p.wallFace
	}
	return q
}

// ActuatorPower returns the heat flow in W the actuator adds to the fluid:
// the wall heat flow when the wall is driven, or the advected heat above
// the nominal inlet temperature when the inlet is driven. The inlet heat
// capacity is k/alpha, so a non-diffusive plant reports no inlet power.
func (p *Pipe) ActuatorPower(x sim.State, u sim.Control) float64 {
	switch {
	case p.drives(mesh.Wall):
		return p.WallPower(x, u)
	case p.drives(mesh.Inlet) && p.params.Diffusivity > 0:
		rhoCp := p.params.Conductivity / p.params.Diffusivity
		return rhoCp * p.params.Velocity * p.area * (u[0] - p.params.InletTemperature)
	}
	return 0
}
