package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/san-kum/regsim/internal/config"
	"github.com/san-kum/regsim/internal/logging"
	"github.com/san-kum/regsim/internal/metrics"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	preset     string
	dt         float64
	duration   float64
	integrator string
	partitions int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "regsim",
		Short:         "closed-loop boundary regulation on a heated pipe",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".regsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "INFO", "log verbosity (INFO, VERBOSE, DEBUG, TRACE)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a closed loop and store the result",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot measurement and target in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotWidth, "width", 70, "chart width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 15, "chart height")
	plotCmd.Flags().BoolVar(&plotSignal, "signal", false, "also plot the control signal")

	renderCmd := &cobra.Command{
		Use:   "render [run_id]",
		Short: "render a stored run to PNG",
		Args:  cobra.ExactArgs(1),
		RunE:  renderRun,
	}
	renderCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default <data>/<run_id>/chart.png)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "oscillation analysis of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().Float64Var(&analyzeFrom, "from", 0, "analyse ticks from this time on (default half the run)")
	analyzeCmd.Flags().Float64Var(&analyzeBand, "band", metrics.DefaultBand, "settling band around the target")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the resolved run file",
		Args:  cobra.NoArgs,
		RunE:  printConfig,
	}
	addRunFlags(configCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets [group]",
		Short: "list presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a closed loop with a live terminal view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run a closed loop exposing metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	addRunFlags(serveCmd)
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "listen address (default from run file)")
	serveCmd.Flags().BoolVar(&hold, "hold", false, "keep serving after the run finishes")
	serveCmd.Flags().Float64Var(&pace, "pace", 0, "simulated seconds per wall-clock second (0 runs flat out)")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search control gains",
		Args:  cobra.NoArgs,
		RunE:  runTune,
	}
	addRunFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&tuneParams, "param", nil, "grid axis as name=v1,v2,... (h, Kp, Ti, Td)")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "iae", "metric to minimise")
	tuneCmd.Flags().IntVar(&tuneWorkers, "workers", 0, "concurrent runs (0 = unbounded)")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario]",
		Short: "run every step of a scenario file and store the runs",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = unbounded)")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep a plant parameter and compare run metrics",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = unbounded)")
	sweepCmd.Flags().StringVar(&sweepParam, "param", "velocity", "plant parameter")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.01, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 0.1, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")

	mcCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "check the regulator settles on randomly perturbed plants",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addRunFlags(mcCmd)
	mcCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = unbounded)")
	mcCmd.Flags().StringSliceVar(&mcParams, "param", []string{"velocity", "htc"}, "plant parameters to perturb")
	mcCmd.Flags().Float64Var(&mcSpread, "spread", 0.2, "relative perturbation")
	mcCmd.Flags().IntVar(&mcTrials, "trials", 20, "number of trials")
	mcCmd.Flags().Float64Var(&mcBand, "band", metrics.DefaultBand, "settling band around the target")
	mcCmd.Flags().Int64Var(&mcSeed, "seed", 0, "random seed (0 = time based)")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, renderCmd, exportCmd, analyzeCmd, configCmd, presetsCmd, liveCmd, serveCmd, tuneCmd, batchCmd, sweepCmd, mcCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "run file (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "preset as group/name (see presets)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "time step")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "simulated duration")
	cmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator")
	cmd.Flags().IntVar(&partitions, "partitions", 1, "mesh partitions")
}

// loadConfig resolves the run file: preset, then config file, then flags
// explicitly set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		group, name, ok := strings.Cut(preset, "/")
		if !ok {
			return nil, fmt.Errorf("preset must be group/name, got %q", preset)
		}
		cfg = config.GetPreset(group, name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available in %s: %v)", preset, group, config.ListPresets(group))
		}
	}
	if configFile != "" {
		if preset != "" {
			return nil, fmt.Errorf("--config and --preset are exclusive")
		}
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("dt") {
		cfg.Simulation.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Simulation.Duration = duration
	}
	if cmd.Flags().Changed("integrator") {
		cfg.Simulation.Integrator = integrator
	}
	if cmd.Flags().Changed("partitions") {
		cfg.Simulation.Partitions = partitions
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runName() string {
	if preset != "" {
		return preset
	}
	if configFile != "" {
		return configFile
	}
	return "default"
}

func newLogger() (logr.Logger, error) {
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return logr.Discard(), err
	}
	return logging.New(level)
}
