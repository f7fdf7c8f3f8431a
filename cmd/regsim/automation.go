package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/san-kum/regsim/internal/automation"
	"github.com/san-kum/regsim/internal/config"
	"github.com/san-kum/regsim/internal/storage"
	"github.com/spf13/cobra"
)

var (
	workers    int
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	mcParams   []string
	mcSpread   float64
	mcTrials   int
	mcBand     float64
	mcSeed     int64
)

func runBatch(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("running scenario %s (%d steps)...\n", scenario.Name, len(scenario.Steps))
	outcomes, err := automation.RunScenario(ctx, scenario, workers, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tRUN ID\tIAE\tSTATUS")
	failed := 0
	for _, o := range outcomes {
		status := "ok"
		if o.Err != nil {
			status = o.Err.Error()
			failed++
		}
		if o.Result == nil {
			fmt.Fprintf(w, "%s\t-\t-\t%s\n", o.Name, status)
			continue
		}
		id, err := st.Save(storage.Run{Name: o.Name, Config: o.Config, Result: o.Result, Regulator: o.Regulator, Err: o.Err})
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%.4g\t%s\n", o.Name, id, o.Result.Metrics["iae"], status)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d steps failed", failed, len(outcomes))
	}
	return nil
}

func baseConfig(cmd *cobra.Command) (func() *config.Config, error) {
	// Validate once up front; each call then reloads a fresh copy.
	if _, err := loadConfig(cmd); err != nil {
		return nil, err
	}
	return func() *config.Config {
		cfg, _ := loadConfig(cmd)
		return cfg
	}, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := baseConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweep := &automation.ParameterSweep{Base: base, Param: sweepParam, Min: sweepMin, Max: sweepMax, Steps: sweepSteps}
	fmt.Printf("sweeping %s over [%g, %g] in %d steps...\n", sweepParam, sweepMin, sweepMax, sweepSteps)
	results, err := automation.RunSweep(ctx, sweep, workers, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tIAE\tIN_BAND\tSWITCHES\tENERGY\n", sweepParam)
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "%g\tfailed: %v\t\t\t\n", r.Value, r.Err)
			continue
		}
		m := r.Metrics
		fmt.Fprintf(w, "%g\t%.4g\t%.3f\t%.0f\t%.4g\n", r.Value, m["iae"], m["in_band"], m["switch_count"], m["energy"])
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	base, err := baseConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mc := &automation.MonteCarloConfig{
		Base:      base,
		Params:    mcParams,
		Spread:    mcSpread,
		NumTrials: mcTrials,
		Band:      mcBand,
		Seed:      mcSeed,
	}
	fmt.Printf("running %d trials perturbing %v by ±%.0f%%...\n", mcTrials, mcParams, mcSpread*100)
	results, err := automation.RunMonteCarlo(ctx, mc, workers, logger)
	if err != nil {
		return err
	}

	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Printf("  trial %3d  %v  failed: %v\n", r.TrialID, r.Params, r.Err)
		case !r.Settled:
			fmt.Printf("  trial %3d  %v  not settled\n", r.TrialID, r.Params)
		}
	}
	settled, unsettled := automation.MonteCarloStats(results)
	fmt.Printf("\nsettled within ±%g: %d/%d (%d not settled)\n", mcBand, settled, len(results), unsettled)
	return nil
}
