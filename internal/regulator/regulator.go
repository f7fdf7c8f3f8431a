package regulator

import (
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"github.com/san-kum/regsim/internal/control"
	"github.com/san-kum/regsim/internal/logging"
	"github.com/san-kum/regsim/internal/sensor"
	"github.com/san-kum/regsim/internal/target"
	"gopkg.in/yaml.v3"
)

// Clock is the host's view of simulation time. TimeIndex identifies the
// current tick and grows strictly from one tick to the next.
type Clock interface {
	TimeIndex() int
	Time() float64
	DeltaT() float64
}

// Reading is the outcome of one control tick.
type Reading struct {
	Index       int
	Time        float64
	Measurement float64
	Target      float64
	Error       float64
	Signal      float64
}

type Regulator struct {
	name   string
	clock  Clock
	sensor sensor.Sensor
	method control.Method
	target target.Provider
	spec   target.Spec
	logger logr.Logger

	timeIndex int
	computed  bool
	last      Reading
}

type Option func(*Regulator)

func WithLogger(logger logr.Logger) Option {
	return func(r *Regulator) { r.logger = logger }
}

func WithName(name string) Option {
	return func(r *Regulator) { r.name = name }
}

// New builds a regulator from its record. Nothing is built when any part of
// the record is invalid.
func New(cfg Config, mesh sensor.Mesh, clock Clock, opts ...Option) (*Regulator, error) {
	s, err := sensor.New(cfg.Sensor, mesh)
	if err != nil {
		return nil, fmt.Errorf("%w: sensor: %w", ErrConfig, err)
	}
	m, err := control.New(cfg.Control)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	p, err := target.New(cfg.TargetValue)
	if err != nil {
		return nil, fmt.Errorf("%w: targetValue: %w", ErrConfig, err)
	}

	r := &Regulator{
		name:      "regulator",
		clock:     clock,
		sensor:    s,
		method:    m,
		target:    p,
		spec:      cfg.TargetValue,
		logger:    logr.Discard(),
		timeIndex: clock.TimeIndex(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Read runs one control tick and returns the control signal. Within a tick
// that was already computed it returns the cached signal.
// A tick with dt <= 0 fails with ErrNonPositiveTimeStep for every control mode.
func (r *Regulator) Read() (float64, error) {
	idx := r.clock.TimeIndex()
	if r.computed && idx == r.timeIndex {
		return r.last.Signal, nil
	}

	t := r.clock.Time()
	dt := r.clock.DeltaT()
	if !(dt > 0) {
		return 0, &TickError{Index: idx, Time: t, Wrapped: fmt.Errorf("%w: got %g", ErrNonPositiveTimeStep, dt)}
	}

	sp, err := target.Evaluate(r.target, t)
	if err != nil {
		return 0, &TickError{Index: idx, Time: t, Wrapped: err}
	}
	measurement, err := r.sensor.Read()
	if err != nil {
		return 0, &TickError{Index: idx, Time: t, Wrapped: err}
	}
	signal := r.method.Calculate(measurement, sp, dt)

	r.timeIndex = idx
	r.computed = true
	r.last = Reading{
		Index:       idx,
		Time:        t,
		Measurement: measurement,
		Target:      sp,
		Error:       sp - measurement,
		Signal:      signal,
	}

	r.logger.V(logging.DEBUG).Info("Regulator tick",
		"name", r.name,
		"timeIndex", idx,
		"targetValue", sp,
		"sensorValue", measurement,
		"error", sp-measurement,
		"outputSignal", signal,
	)
	return signal, nil
}

// Last returns the reading of the most recent computed tick.
func (r *Regulator) Last() (Reading, bool) {
	return r.last, r.computed
}

func (r *Regulator) Name() string { return r.name }

func (r *Regulator) Sensor() sensor.Sensor { return r.sensor }

func (r *Regulator) Method() control.Method { return r.method }

// Config returns the record this regulator was built from.
func (r *Regulator) Config() Config {
	return Config{
		TargetValue: r.spec,
		Control:     r.method.Config(),
		Sensor:      r.sensor.Config(),
	}
}

// Write dumps the regulator record as YAML.
func (r *Regulator) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r.Config()); err != nil {
		return err
	}
	return enc.Close()
}
