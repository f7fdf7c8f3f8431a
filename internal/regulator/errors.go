package regulator

import (
	"errors"
	"fmt"

	"github.com/san-kum/regsim/internal/sensor"
)

var (
	// ErrConfig indicates an invalid regulator record. No regulator is built.
	ErrConfig = errors.New("regulator: invalid configuration")

	// ErrLookup indicates the sensor could not find its field, patch or points.
	ErrLookup = sensor.ErrLookup

	// ErrNonPositiveTimeStep indicates a tick with dt <= 0.
	ErrNonPositiveTimeStep = errors.New("regulator: time step must be positive")
)

// TickError wraps a failure with the tick it happened on.
type TickError struct {
	Index   int
	Time    float64
	Wrapped error
}

func (e *TickError) Error() string {
	return fmt.Sprintf("regulator: tick %d (t=%g): %v", e.Index, e.Time, e.Wrapped)
}

func (e *TickError) Unwrap() error {
	return e.Wrapped
}
