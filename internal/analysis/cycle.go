package analysis

import (
	"math"

	"github.com/san-kum/regsim/internal/sim"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Cycle describes a sustained oscillation of the measurement about the
// target.
type Cycle struct {
	Period    float64
	Amplitude float64 // half of peak-to-peak
	Mean      float64
	Cycles    int
}

// LimitCycle measures the oscillation over ticks with Time >= from. Periods
// come from upward crossings of the target, located by linear
// interpolation. It returns false when fewer than two crossings occur.
func LimitCycle(ticks []sim.Tick, from float64) (Cycle, bool) {
	var crossings []float64
	var window []float64
	var prev *sim.Tick

	for i := range ticks {
		tk := &ticks[i]
		if tk.Time < from {
			continue
		}
		window = append(window, tk.Reading.Measurement)
		if prev != nil {
			e0 := prev.Reading.Measurement - prev.Reading.Target
			e1 := tk.Reading.Measurement - tk.Reading.Target
			if e0 < 0 && e1 >= 0 {
				frac := -e0 / (e1 - e0)
				crossings = append(crossings, prev.Time+frac*(tk.Time-prev.Time))
			}
		}
		prev = tk
	}
	if len(crossings) < 2 {
		return Cycle{}, false
	}

	first, last := crossings[0], crossings[len(crossings)-1]
	n := len(crossings) - 1

	var cycleWindow []float64
	for i := range ticks {
		if ticks[i].Time >= first && ticks[i].Time <= last {
			cycleWindow = append(cycleWindow, ticks[i].Reading.Measurement)
		}
	}
	if len(cycleWindow) == 0 {
		cycleWindow = window
	}

	return Cycle{
		Period:    (last - first) / float64(n),
		Amplitude: (floats.Max(cycleWindow) - floats.Min(cycleWindow)) / 2,
		Mean:      stat.Mean(cycleWindow, nil),
		Cycles:    n,
	}, true
}

// Settling returns the time of the first tick after which |error| stays
// within band for the rest of the run. It returns false if the last tick is
// outside the band.
func Settling(ticks []sim.Tick, band float64) (float64, bool) {
	settled := -1
	for i := len(ticks) - 1; i >= 0; i-- {
		if math.Abs(ticks[i].Reading.Error) > band {
			break
		}
		settled = i
	}
	if settled < 0 {
		return 0, false
	}
	return ticks[settled].Time, true
}
