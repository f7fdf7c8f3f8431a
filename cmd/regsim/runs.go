package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/san-kum/regsim/internal/storage"
	"github.com/san-kum/regsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	plotWidth  int
	plotHeight int
	plotSignal bool
	outFile    string
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tDURATION\tDT\tACTUATOR\tMODE\tSENSOR\tIAE\tSTATUS")

	for _, run := range runs {
		status := "ok"
		if run.Error != "" {
			status = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.0fs\t%.3gs\t%s/%s\t%s\t%s\t%.4g\t%s\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Actuator,
			run.Patch,
			run.Mode,
			run.Sensor,
			run.Metrics["iae"],
			status,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
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

	chart, err := viz.Plot(ticks, viz.PlotOptions{Width: plotWidth, Height: plotHeight, Signal: plotSignal})
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s, %s)\n\n", meta.Name, meta.Mode, meta.Sensor)
	fmt.Println(chart)
	if meta.Error != "" {
		fmt.Printf("\nrun failed: %s\n", meta.Error)
	}
	return nil
}

func renderRun(cmd *cobra.Command, args []string) error {
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

	path := outFile
	if path == "" {
		path = filepath.Join(dataDir, runID, "chart.png")
	}
	opts := viz.DefaultRenderOptions()
	opts.Title = fmt.Sprintf("%s: %s regulator, %s sensor", meta.Name, meta.Mode, meta.Sensor)
	if err := viz.SavePNG(path, ticks, opts); err != nil {
		return err
	}
	fmt.Printf("rendered %s\n", path)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
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

	if outFile == "" {
		return storage.ExportJSON(os.Stdout, *meta, ticks)
	}
	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	if err := storage.ExportJSON(f, *meta, ticks); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", outFile)
	return nil
}
