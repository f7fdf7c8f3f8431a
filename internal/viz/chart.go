package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/regsim/internal/sim"
)

type PlotOptions struct {
	Width  int
	Height int
	Signal bool
}

func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Width: 70, Height: 15}
}

// Plot renders measurement against target, and optionally the control
// signal in a second chart, as terminal text.
func Plot(ticks []sim.Tick, opts PlotOptions) (string, error) {
	if len(ticks) == 0 {
		return "", ErrNoData
	}
	s := NewSeries(ticks).Downsample(opts.Width)
	last := ticks[len(ticks)-1]

	out := asciigraph.PlotMany(
		[][]float64{s.Measurement, s.Target},
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.SeriesColors(asciigraph.Cyan, asciigraph.Red),
		asciigraph.Caption(fmt.Sprintf("measurement (cyan) vs target (red), t = 0..%.1fs", last.Time)),
	)
	if opts.Signal {
		out += "\n\n" + asciigraph.Plot(
			s.Signal,
			asciigraph.Height(opts.Height/3+1),
			asciigraph.Width(opts.Width),
			asciigraph.Caption("signal"),
		)
	}
	return out, nil
}
