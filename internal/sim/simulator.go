package sim

import (
	"context"
	"fmt"
)

type Simulator struct {
	dyn        Dynamics
	integrator Integrator
	controller Controller
	clock      *Clock
	metrics    []Metric
	observers  []Observer
}

// New builds a simulator. The clock is shared with whatever the controller
// reads time from; Run resets and advances it.
func New(dyn Dynamics, integrator Integrator, controller Controller, clock *Clock) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		controller: controller,
		clock:      clock,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }
func (s *Simulator) Clock() *Clock          { return s.clock }

func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := cfg.Steps()
	result := &Result{
		Ticks:   make([]Tick, 0, steps),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	err := s.loop(ctx, x0, cfg, func(tick Tick) bool {
		result.Ticks = append(result.Ticks, tick)
		return true
	}, result)

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, err
}

// RunWithCallback runs the loop and hands every tick to callback. The run
// stops early when callback returns false.
func (s *Simulator) RunWithCallback(ctx context.Context, x0 State, cfg Config, callback func(Tick) bool) error {
	if err := s.validateConfig(cfg); err != nil {
		return err
	}
	return s.loop(ctx, x0, cfg, callback, &Result{})
}

func (s *Simulator) loop(ctx context.Context, x0 State, cfg Config, each func(Tick) bool, result *Result) error {
	x := x0.Clone()
	s.clock.Reset(cfg.Dt)
	steps := cfg.Steps()

	defer func() {
		result.Final = x
		result.FinalTime = s.clock.Time()
	}()

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		t := s.clock.Time()
		u, reading, err := s.controller.Compute(x, t)
		if err != nil {
			return &StepError{Step: i, Time: t, Wrapped: err}
		}

		tick := Tick{Index: s.clock.TimeIndex(), Time: t, State: x, Control: u, Reading: reading}
		for _, m := range s.metrics {
			m.Observe(tick)
		}
		for _, obs := range s.observers {
			obs.OnStep(tick)
		}
		if !each(tick) {
			return nil
		}

		next := s.integrator.Step(s.dyn, x, u, t, cfg.Dt)
		if cfg.ValidateState && !next.IsValid() {
			return &StepError{Step: i, Time: t, Wrapped: ErrInvalidState}
		}

		x = next
		s.clock.Advance()
		result.StepsTaken++
	}
	return nil
}

func (s *Simulator) validateConfig(cfg Config) error {
	if !(cfg.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, cfg.Dt)
	}
	if !(cfg.Duration > 0) {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, cfg.Duration)
	}
	if cfg.Steps() == 0 {
		return fmt.Errorf("%w: duration %f is shorter than one step", ErrInvalidConfig, cfg.Duration)
	}
	return nil
}
