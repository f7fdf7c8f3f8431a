package viz

import (
	"errors"

	"github.com/san-kum/regsim/internal/sim"
)

var ErrNoData = errors.New("viz: no ticks to draw")

// Series holds the per-tick columns of a run.
type Series struct {
	Time        []float64
	Measurement []float64
	Target      []float64
	Signal      []float64
	Actuation   []float64
}

func NewSeries(ticks []sim.Tick) Series {
	s := Series{
		Time:        make([]float64, len(ticks)),
		Measurement: make([]float64, len(ticks)),
		Target:      make([]float64, len(ticks)),
		Signal:      make([]float64, len(ticks)),
		Actuation:   make([]float64, len(ticks)),
	}
	for i, tick := range ticks {
		s.Time[i] = tick.Time
		s.Measurement[i] = tick.Reading.Measurement
		s.Target[i] = tick.Reading.Target
		s.Signal[i] = tick.Reading.Signal
		if len(tick.Control) > 0 {
			s.Actuation[i] = tick.Control[0]
		}
	}
	return s
}

func (s Series) Len() int { return len(s.Time) }

// Downsample keeps at most n evenly spaced points, always including the
// last one.
func (s Series) Downsample(n int) Series {
	size := s.Len()
	if n <= 0 || size <= n {
		return s
	}
	pick := func(src []float64) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = src[i*(size-1)/(n-1)]
		}
		return out
	}
	if n == 1 {
		pick = func(src []float64) []float64 { return []float64{src[size-1]} }
	}
	return Series{
		Time:        pick(s.Time),
		Measurement: pick(s.Measurement),
		Target:      pick(s.Target),
		Signal:      pick(s.Signal),
		Actuation:   pick(s.Actuation),
	}
}
