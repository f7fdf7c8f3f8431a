package main

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/regsim/internal/analysis"
	"github.com/san-kum/regsim/internal/storage"
	"github.com/spf13/cobra"
)

var (
	analyzeFrom float64
	analyzeBand float64
)

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	ticks, err := st.LoadTicks(runID)
	if err != nil {
		return err
	}
	if len(ticks) < 2 {
		return fmt.Errorf("no data")
	}

	fmt.Printf("oscillation analysis: %s\n", meta.ID)
	fmt.Printf("run: %s (%s, %s sensor)\n\n", meta.Name, meta.Mode, meta.Sensor)

	from := analyzeFrom
	if !cmd.Flags().Changed("from") {
		from = meta.Duration / 2
	}
	var data []float64
	for _, tk := range ticks {
		if tk.Time >= from {
			data = append(data, tk.Reading.Measurement)
		}
	}

	ps := analysis.PowerSpectrum(data)
	if len(ps) > 4 {
		graph := asciigraph.Plot(ps[1:len(ps)/4],
			asciigraph.Height(12),
			asciigraph.Width(70),
			asciigraph.Caption(fmt.Sprintf("power spectrum of measurement, t >= %.0fs", from)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if freq, _, err := analysis.DominantFrequency(data, meta.Dt); err == nil && freq > 0 {
		fmt.Printf("dominant frequency: %.5f hz (period %.1f s)\n", freq, 1/freq)
	}
	if c, ok := analysis.LimitCycle(ticks, from); ok {
		fmt.Printf("limit cycle: period %.1f s, amplitude %.3f about %.3f over %d cycles\n", c.Period, c.Amplitude, c.Mean, c.Cycles)
	} else {
		fmt.Println("limit cycle: none")
	}
	if at, ok := analysis.Settling(ticks, analyzeBand); ok {
		fmt.Printf("settled within ±%g at t = %.1f s\n", analyzeBand, at)
	} else {
		fmt.Printf("not settled within ±%g\n", analyzeBand)
	}
	return nil
}
