// Package target provides the setpoint functions a regulator tracks.
//
// A target is either a constant or a function of simulation time:
//
//   - constant:   a fixed value
//   - table:      piecewise-linear interpolation of (t, value) pairs
//   - polynomial: Σ c·t^e
//   - sine:       level + amplitude·sin(2πf(t−t0))
//   - square:     level ± amplitude with a mark/space ratio
//
// A Spec is the configuration record; New turns it into a Provider.
package target

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	ErrInvalid    = errors.New("target: invalid function")
	ErrOutOfRange = errors.New("target: time outside table")
)

type Kind string

const (
	Constant   Kind = "constant"
	Table      Kind = "table"
	Polynomial Kind = "polynomial"
	Sine       Kind = "sine"
	Square     Kind = "square"
)

// Table out-of-bounds modes.
const (
	Clamp  = "clamp"
	Repeat = "repeat"
	Error  = "error"
)

// Provider evaluates the setpoint at time t.
type Provider interface {
	Value(t float64) float64
}

type Spec struct {
	Kind Kind

	Value float64 // constant

	Values      [][2]float64 // table (t, value)
	OutOfBounds string       // table: clamp, repeat or error

	Coeffs [][2]float64 // polynomial (coefficient, exponent)

	Amplitude float64 // sine, square
	Frequency float64
	Level     float64
	T0        float64
	MarkSpace float64 // square, mark/space ratio
}

// Uniform returns the spec of a constant target.
func Uniform(v float64) Spec {
	return Spec{Kind: Constant, Value: v}
}

func New(s Spec) (Provider, error) {
	switch s.Kind {
	case Constant:
		return constant(s.Value), nil
	case Table:
		return newTable(s.Values, s.OutOfBounds)
	case Polynomial:
		if len(s.Coeffs) == 0 {
			return nil, fmt.Errorf("%w: polynomial needs at least one coefficient", ErrInvalid)
		}
		return polynomial(s.Coeffs), nil
	case Sine:
		return sine{amplitude: s.Amplitude, frequency: s.Frequency, level: s.Level, t0: s.T0}, nil
	case Square:
		if s.Frequency <= 0 {
			return nil, fmt.Errorf("%w: square frequency must be positive, got %g", ErrInvalid, s.Frequency)
		}
		ms := s.MarkSpace
		if ms == 0 {
			ms = 1
		}
		if ms < 0 {
			return nil, fmt.Errorf("%w: square markSpace must be positive, got %g", ErrInvalid, ms)
		}
		return square{amplitude: s.Amplitude, frequency: s.Frequency, level: s.Level, t0: s.T0, mark: ms / (1 + ms)}, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalid, s.Kind)
	}
}

// Evaluate returns p at time t. Providers that are only defined on a
// range fail with ErrOutOfRange outside it.
func Evaluate(p Provider, t float64) (float64, error) {
	if b, ok := p.(interface{ check(float64) error }); ok {
		if err := b.check(t); err != nil {
			return 0, err
		}
	}
	return p.Value(t), nil
}

type constant float64

func (c constant) Value(float64) float64 { return float64(c) }

type table struct {
	times  []float64
	values []float64
	repeat bool
	strict bool
}

func newTable(pairs [][2]float64, bounds string) (*table, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: table has no values", ErrInvalid)
	}
	switch bounds {
	case "", Clamp, Repeat, Error:
	default:
		return nil, fmt.Errorf("%w: unknown outOfBounds %q", ErrInvalid, bounds)
	}
	tb := &table{
		times:  make([]float64, len(pairs)),
		values: make([]float64, len(pairs)),
		repeat: bounds == Repeat,
		strict: bounds == Error,
	}
	for i, p := range pairs {
		if i > 0 && p[0] <= pairs[i-1][0] {
			return nil, fmt.Errorf("%w: table times must be strictly increasing (%g after %g)", ErrInvalid, p[0], pairs[i-1][0])
		}
		tb.times[i] = p[0]
		tb.values[i] = p[1]
	}
	if tb.repeat && len(pairs) < 2 {
		return nil, fmt.Errorf("%w: repeating table needs at least two values", ErrInvalid)
	}
	return tb, nil
}

func (tb *table) check(t float64) error {
	first, last := tb.times[0], tb.times[len(tb.times)-1]
	if tb.strict && (t < first || t > last) {
		return fmt.Errorf("%w: t=%g not in [%g, %g]", ErrOutOfRange, t, first, last)
	}
	return nil
}

// Value clamps outside the table unless it repeats. A strict table is
// checked by Evaluate.
func (tb *table) Value(t float64) float64 {
	n := len(tb.times)
	first, last := tb.times[0], tb.times[n-1]
	if tb.repeat {
		span := last - first
		t = first + math.Mod(t-first, span)
		if t < first {
			t += span
		}
	}
	if t <= first {
		return tb.values[0]
	}
	if t >= last {
		return tb.values[n-1]
	}
	i := sort.SearchFloat64s(tb.times, t)
	if tb.times[i] == t {
		return tb.values[i]
	}
	t0, t1 := tb.times[i-1], tb.times[i]
	w := (t - t0) / (t1 - t0)
	return tb.values[i-1] + w*(tb.values[i]-tb.values[i-1])
}

type polynomial [][2]float64

func (p polynomial) Value(t float64) float64 {
	sum := 0.0
	for _, c := range p {
		sum += c[0] * math.Pow(t, c[1])
	}
	return sum
}

type sine struct {
	amplitude, frequency, level, t0 float64
}

func (s sine) Value(t float64) float64 {
	return s.level + s.amplitude*math.Sin(2*math.Pi*s.frequency*(t-s.t0))
}

type square struct {
	amplitude, frequency, level, t0 float64
	mark                            float64
}

func (s square) Value(t float64) float64 {
	phase := math.Mod(s.frequency*(t-s.t0), 1)
	if phase < 0 {
		phase++
	}
	if phase < s.mark {
		return s.level + s.amplitude
	}
	return s.level - s.amplitude
}
