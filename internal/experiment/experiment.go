// Package experiment assembles a closed-loop run from a run file: mesh,
// plant, one regulator and boundary adapter per partition, integrator and
// metrics.
package experiment

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/san-kum/regsim/internal/boundary"
	"github.com/san-kum/regsim/internal/config"
	"github.com/san-kum/regsim/internal/integrators"
	"github.com/san-kum/regsim/internal/logging"
	"github.com/san-kum/regsim/internal/mesh"
	"github.com/san-kum/regsim/internal/metrics"
	"github.com/san-kum/regsim/internal/plant"
	"github.com/san-kum/regsim/internal/regulator"
	"github.com/san-kum/regsim/internal/sim"
)

var ErrAlreadyRun = errors.New("experiment: already run")

type Experiment struct {
	cfg       *config.Config
	mesh      *mesh.Pipe
	plant     *plant.Pipe
	adapters  []*boundary.Adapter
	loop      *ClosedLoop
	simulator *sim.Simulator
	logger    logr.Logger
	ran       bool
}

type Option func(*Experiment)

func WithLogger(logger logr.Logger) Option {
	return func(e *Experiment) { e.logger = logger }
}

// New builds an experiment. An experiment runs once; regulators keep their
// state between ticks and are not rewound.
func New(cfg *config.Config, opts ...Option) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Experiment{cfg: cfg, logger: logr.Discard()}
	for _, opt := range opts {
		opt(e)
	}

	m, err := mesh.New(cfg.Mesh)
	if err != nil {
		return nil, err
	}
	drive := cfg.Drive()
	p, err := plant.New(m, cfg.Plant, &drive)
	if err != nil {
		return nil, err
	}

	parts := []*mesh.Partition{m.View()}
	if cfg.Simulation.Partitions > 1 {
		if parts, err = m.Decompose(cfg.Simulation.Partitions); err != nil {
			return nil, err
		}
	}

	clock := sim.NewClock(cfg.Simulation.Dt)
	adapters := make([]*boundary.Adapter, len(parts))
	for i, part := range parts {
		name := fmt.Sprintf("%s.%d", cfg.Actuator.Patch, part.Rank())
		reg, err := regulator.New(cfg.Regulator, part, clock,
			regulator.WithName(name),
			regulator.WithLogger(e.logger.WithValues("partition", part.Rank())),
		)
		if err != nil {
			return nil, err
		}
		if adapters[i], err = boundary.New(cfg.Actuator, reg); err != nil {
			return nil, err
		}
	}

	integ, err := integrators.New(cfg.Simulation.Integrator)
	if err != nil {
		return nil, err
	}

	e.mesh = m
	e.plant = p
	e.adapters = adapters
	e.loop = NewClosedLoop(p, m, adapters, parts[0].Comm(), e.logger)
	e.simulator = sim.New(p, integ, e.loop, clock)
	for _, metric := range metrics.Defaults(cfg.Simulation.Dt) {
		e.simulator.AddMetric(metric)
	}
	e.simulator.AddMetric(metrics.NewEnergy(cfg.Simulation.Dt, func(tick sim.Tick) float64 {
		return p.ActuatorPower(tick.State, tick.Control)
	}))

	if dt, limit := cfg.Simulation.Dt, p.MaxStableDt(); dt > limit {
		e.logger.Info("Time step exceeds the explicit stability limit", "dt", dt, "limit", limit)
	}
	return e, nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.ran {
		return nil, ErrAlreadyRun
	}
	e.ran = true

	e.logger.V(logging.VERBOSE).Info("Starting run",
		"integrator", e.cfg.Simulation.Integrator,
		"partitions", len(e.adapters),
		"patch", e.cfg.Actuator.Patch,
		"mode", e.cfg.Regulator.Control.Mode,
	)
	return e.simulator.Run(ctx, e.plant.InitialState(), e.SimConfig())
}

// RunWithCallback runs the experiment handing every tick to callback.
func (e *Experiment) RunWithCallback(ctx context.Context, callback func(sim.Tick) bool) error {
	if e.ran {
		return ErrAlreadyRun
	}
	e.ran = true
	return e.simulator.RunWithCallback(ctx, e.plant.InitialState(), e.SimConfig(), callback)
}

func (e *Experiment) SimConfig() sim.Config {
	return sim.Config{
		Dt:            e.cfg.Simulation.Dt,
		Duration:      e.cfg.Simulation.Duration,
		ValidateState: true,
	}
}

func (e *Experiment) Config() *config.Config        { return e.cfg }
func (e *Experiment) Simulator() *sim.Simulator     { return e.simulator }
func (e *Experiment) Mesh() *mesh.Pipe              { return e.mesh }
func (e *Experiment) Plant() *plant.Pipe            { return e.plant }
func (e *Experiment) Adapters() []*boundary.Adapter { return e.adapters }

// Regulator returns the regulator of the first partition. Every partition
// computes the same signal.
func (e *Experiment) Regulator() *regulator.Regulator {
	return e.adapters[0].Regulator()
}
