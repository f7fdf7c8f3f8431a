package metrics

import (
	"math"

	"github.com/san-kum/regsim/internal/sim"
)

// Stability is the fraction of ticks whose control error stays within
// the band.
type Stability struct {
	name       string
	band       float64
	violations int
	samples    int
}

func NewStability(band float64) *Stability {
	return &Stability{
		name: "in_band",
		band: band,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(tick sim.Tick) {
	s.samples++
	if math.Abs(tick.Reading.Error) > s.band {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
