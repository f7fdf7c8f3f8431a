package experiment

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/san-kum/regsim/internal/boundary"
	"github.com/san-kum/regsim/internal/logging"
	"github.com/san-kum/regsim/internal/mesh"
	"github.com/san-kum/regsim/internal/plant"
	"github.com/san-kum/regsim/internal/regulator"
	"github.com/san-kum/regsim/internal/sim"
	"golang.org/x/sync/errgroup"
)

// ErrPartitionMismatch indicates partitions computed different actuations
// for the same tick.
var ErrPartitionMismatch = errors.New("experiment: partitions disagree on actuation")

// ClosedLoop is the controller of a run. Every tick it publishes the plant
// state into the mesh, evaluates the adapter of each partition
// concurrently and checks they agree.
type ClosedLoop struct {
	plant    *plant.Pipe
	mesh     *mesh.Pipe
	adapters []*boundary.Adapter
	comm     *mesh.Comm
	logger   logr.Logger

	last sim.Control
}

var _ sim.Controller = (*ClosedLoop)(nil)

// NewClosedLoop wires one adapter per partition. comm is the collective
// the partitions share, or nil for a serial run.
func NewClosedLoop(p *plant.Pipe, m *mesh.Pipe, adapters []*boundary.Adapter, comm *mesh.Comm, logger logr.Logger) *ClosedLoop {
	return &ClosedLoop{
		plant:    p,
		mesh:     m,
		adapters: adapters,
		comm:     comm,
		logger:   logger,
		last:     sim.Control{adapters[0].Config().Map(0)},
	}
}

func (c *ClosedLoop) Compute(x sim.State, t float64) (sim.Control, regulator.Reading, error) {
	if err := c.plant.Sync(x, c.last, c.mesh); err != nil {
		return nil, regulator.Reading{}, err
	}

	values, err := c.evaluate()
	if err != nil {
		return nil, regulator.Reading{}, err
	}
	for rank, v := range values[1:] {
		if v != values[0] {
			return nil, regulator.Reading{}, fmt.Errorf("%w: partition %d has %g, partition 0 has %g",
				ErrPartitionMismatch, rank+1, v, values[0])
		}
	}

	u := sim.Control{values[0]}
	c.last = u
	reading, _ := c.adapters[0].Regulator().Last()

	c.logger.V(logging.TRACE).Info("Closed loop tick",
		"timeIndex", reading.Index,
		"time", t,
		"patch", c.adapters[0].Patch(),
		"actuation", u[0],
	)
	return u, reading, nil
}

func (c *ClosedLoop) evaluate() ([]float64, error) {
	values := make([]float64, len(c.adapters))
	if len(c.adapters) == 1 {
		v, err := c.adapters[0].Evaluate()
		values[0] = v
		return values, err
	}

	var g errgroup.Group
	for rank, a := range c.adapters {
		rank, a := rank, a
		g.Go(func() error {
			v, err := a.Evaluate()
			if err != nil {
				// Peers may be blocked in a collective this rank will never enter.
				c.comm.Abort(err)
				return fmt.Errorf("partition %d: %w", rank, err)
			}
			values[rank] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return values, nil
}

// Last returns the actuation applied on the most recent tick.
func (c *ClosedLoop) Last() sim.Control { return c.last }
