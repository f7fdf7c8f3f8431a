package control

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrUnknownMode indicates a mode tag outside the supported set.
	ErrUnknownMode = errors.New("control: unknown control method")

	// ErrInvalidParameter indicates a missing or out-of-range parameter.
	ErrInvalidParameter = errors.New("control: invalid parameter")
)

type Kind string

const (
	ModeTwoStep Kind = "twoStep"
	ModePID     Kind = "PID"
)

const DefaultOutputMax = 1.0

// Method computes a bounded control signal from a measurement and a target.
type Method interface {
	Calculate(measurement, target, dt float64) float64
	Kind() Kind
	Config() Config
}

// Config is the configuration record of a control method. Only the fields
// belonging to Mode are meaningful.
type Config struct {
	Mode Kind

	H float64 // twoStep hysteresis width

	Kp        float64
	Ti        float64
	Td        float64
	OutputMin float64
	OutputMax float64
}

func New(cfg Config) (Method, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Mode {
	case ModeTwoStep:
		return NewTwoStep(cfg.H), nil
	case ModePID:
		return NewPID(cfg.Kp, cfg.Ti, cfg.Td, cfg.OutputMin, cfg.OutputMax), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMode, cfg.Mode)
}

func (c Config) Validate() error {
	switch c.Mode {
	case ModeTwoStep:
		if c.H < 0 || math.IsNaN(c.H) {
			return fmt.Errorf("%w: h must be >= 0, got %g", ErrInvalidParameter, c.H)
		}
	case ModePID:
		for name, v := range map[string]float64{"Kp": c.Kp, "Ti": c.Ti, "Td": c.Td, "outputMin": c.OutputMin, "outputMax": c.OutputMax} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: %s must be finite, got %g", ErrInvalidParameter, name, v)
			}
		}
		if c.Ti < 0 {
			return fmt.Errorf("%w: Ti must be >= 0, got %g", ErrInvalidParameter, c.Ti)
		}
		if c.OutputMin > c.OutputMax {
			return fmt.Errorf("%w: outputMin %g exceeds outputMax %g", ErrInvalidParameter, c.OutputMin, c.OutputMax)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, c.Mode)
	}
	return nil
}
