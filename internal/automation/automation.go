// Package automation runs families of closed-loop experiments: scripted
// scenarios, plant parameter sweeps and Monte Carlo robustness trials.
package automation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/san-kum/regsim/internal/analysis"
	"github.com/san-kum/regsim/internal/config"
	"github.com/san-kum/regsim/internal/experiment"
	"github.com/san-kum/regsim/internal/optim"
	"github.com/san-kum/regsim/internal/plant"
	"github.com/san-kum/regsim/internal/regulator"
	"github.com/san-kum/regsim/internal/sim"
	"gopkg.in/yaml.v3"
)

var (
	ErrScenario     = errors.New("automation: invalid scenario")
	ErrUnknownParam = errors.New("automation: unknown plant parameter")
)

// Scenario is a scripted list of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run of a scenario. Exactly one of Preset (group/name)
// and File selects the base run file; the remaining fields override it.
type ScenarioStep struct {
	Name       string             `yaml:"name"`
	Preset     string             `yaml:"preset"`
	File       string             `yaml:"file"`
	Duration   float64            `yaml:"duration"`
	Dt         float64            `yaml:"dt"`
	Partitions int                `yaml:"partitions"`
	Gains      map[string]float64 `yaml:"gains"`
	Plant      map[string]float64 `yaml:"plant"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScenario, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%w: no steps", ErrScenario)
	}
	return &scenario, nil
}

// Config resolves the run file of a step.
func (s ScenarioStep) Config() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case s.Preset != "" && s.File != "":
		return nil, fmt.Errorf("%w: step %q sets both preset and file", ErrScenario, s.Name)
	case s.Preset != "":
		group, name, _ := strings.Cut(s.Preset, "/")
		cfg = config.GetPreset(group, name)
		if cfg == nil {
			return nil, fmt.Errorf("%w: unknown preset %q", ErrScenario, s.Preset)
		}
	case s.File != "":
		loaded, err := config.Load(s.File)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	default:
		cfg = config.DefaultConfig()
	}

	if s.Duration > 0 {
		cfg.Simulation.Duration = s.Duration
	}
	if s.Dt > 0 {
		cfg.Simulation.Dt = s.Dt
	}
	if s.Partitions > 0 {
		cfg.Simulation.Partitions = s.Partitions
	}
	if err := optim.Apply(cfg, s.Gains); err != nil {
		return nil, err
	}
	for name, v := range s.Plant {
		if err := SetPlantParam(&cfg.Plant, name, v); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("step %q: %w", s.Name, err)
	}
	return cfg, nil
}

// SetPlantParam sets a plant parameter by its run file key.
func SetPlantParam(p *plant.Params, name string, v float64) error {
	switch name {
	case "velocity":
		p.Velocity = v
	case "diffusivity":
		p.Diffusivity = v
	case "conductivity":
		p.Conductivity = v
	case "htc":
		p.HTC = v
	case "ambient":
		p.Ambient = v
	case "inletTemperature":
		p.InletTemperature = v
	case "initial":
		p.Initial = v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	return nil
}

// Outcome is one finished run of a family.
type Outcome struct {
	Name      string
	Config    *config.Config
	Result    *sim.Result
	Regulator *regulator.Regulator
	Err       error
}

// runAll builds and runs every config with at most workers in flight.
// Build failures are reported per outcome.
func runAll(ctx context.Context, names []string, cfgs []*config.Config, workers int, logger logr.Logger) ([]Outcome, error) {
	outcomes := make([]Outcome, len(cfgs))
	jobs := make([]sim.Job, len(cfgs))
	for i, cfg := range cfgs {
		i, cfg := i, cfg
		outcomes[i] = Outcome{Name: names[i], Config: cfg}
		jobs[i] = func(ctx context.Context) (*sim.Result, error) {
			exp, err := experiment.New(cfg, experiment.WithLogger(logger.WithValues("run", names[i])))
			if err != nil {
				return nil, err
			}
			outcomes[i].Regulator = exp.Regulator()
			return exp.Run(ctx)
		}
	}

	results, errs, err := sim.NewBatch(workers).Run(ctx, jobs)
	for i := range outcomes {
		outcomes[i].Result = results[i]
		outcomes[i].Err = errs[i]
	}
	return outcomes, err
}

// RunScenario executes every step of a scenario.
func RunScenario(ctx context.Context, scenario *Scenario, workers int, logger logr.Logger) ([]Outcome, error) {
	names := make([]string, len(scenario.Steps))
	cfgs := make([]*config.Config, len(scenario.Steps))
	for i, step := range scenario.Steps {
		cfg, err := step.Config()
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		names[i] = step.Name
		if names[i] == "" {
			names[i] = fmt.Sprintf("%s/%d", scenario.Name, i+1)
		}
		cfgs[i] = cfg
	}
	return runAll(ctx, names, cfgs, workers, logger)
}

// ParameterSweep varies one plant parameter linearly over Steps values.
type ParameterSweep struct {
	Base     func() *config.Config
	Param    string
	Min, Max float64
	Steps    int
}

type SweepResult struct {
	Value   float64
	Metrics map[string]float64
	Err     error
}

func RunSweep(ctx context.Context, sweep *ParameterSweep, workers int, logger logr.Logger) ([]SweepResult, error) {
	if sweep.Steps < 2 {
		return nil, fmt.Errorf("%w: sweep needs at least 2 steps", ErrScenario)
	}
	step := (sweep.Max - sweep.Min) / float64(sweep.Steps-1)

	names := make([]string, sweep.Steps)
	cfgs := make([]*config.Config, sweep.Steps)
	values := make([]float64, sweep.Steps)
	for i := range cfgs {
		values[i] = sweep.Min + float64(i)*step
		cfg := sweep.Base()
		if err := SetPlantParam(&cfg.Plant, sweep.Param, values[i]); err != nil {
			return nil, err
		}
		names[i] = fmt.Sprintf("%s=%g", sweep.Param, values[i])
		cfgs[i] = cfg
	}

	outcomes, err := runAll(ctx, names, cfgs, workers, logger)
	if err != nil {
		return nil, err
	}
	results := make([]SweepResult, len(outcomes))
	for i, o := range outcomes {
		results[i] = SweepResult{Value: values[i], Err: o.Err}
		if o.Result != nil {
			results[i].Metrics = o.Result.Metrics
		}
	}
	return results, nil
}

// MonteCarloConfig perturbs every named plant parameter by a uniform
// relative spread, e.g. 0.2 for ±20%.
type MonteCarloConfig struct {
	Base      func() *config.Config
	Params    []string
	Spread    float64
	NumTrials int
	Band      float64
	Seed      int64
}

type MonteCarloResult struct {
	TrialID int
	Params  map[string]float64
	Settled bool
	At      float64
	Err     error
}

func plantParam(p plant.Params, name string) float64 {
	switch name {
	case "velocity":
		return p.Velocity
	case "diffusivity":
		return p.Diffusivity
	case "conductivity":
		return p.Conductivity
	case "htc":
		return p.HTC
	case "ambient":
		return p.Ambient
	case "inletTemperature":
		return p.InletTemperature
	case "initial":
		return p.Initial
	}
	return 0
}

// RunMonteCarlo runs trials on randomly perturbed plants. A trial is
// robust when the run completes and its error ends within Band.
func RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig, workers int, logger logr.Logger) ([]MonteCarloResult, error) {
	seed := mc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	names := make([]string, mc.NumTrials)
	cfgs := make([]*config.Config, mc.NumTrials)
	results := make([]MonteCarloResult, mc.NumTrials)
	for trial := range cfgs {
		cfg := mc.Base()
		params := make(map[string]float64, len(mc.Params))
		for _, name := range mc.Params {
			v := plantParam(cfg.Plant, name) * (1 + (rng.Float64()-0.5)*2*mc.Spread)
			if err := SetPlantParam(&cfg.Plant, name, v); err != nil {
				return nil, err
			}
			params[name] = v
		}
		names[trial] = fmt.Sprintf("trial-%d", trial)
		cfgs[trial] = cfg
		results[trial] = MonteCarloResult{TrialID: trial, Params: params}
	}

	outcomes, err := runAll(ctx, names, cfgs, workers, logger)
	if err != nil {
		return nil, err
	}
	for i, o := range outcomes {
		results[i].Err = o.Err
		if o.Err == nil && o.Result != nil {
			results[i].At, results[i].Settled = analysis.Settling(o.Result.Ticks, mc.Band)
		}
	}
	return results, nil
}

func MonteCarloStats(results []MonteCarloResult) (settledCount int, unsettledCount int) {
	for _, r := range results {
		if r.Settled {
			settledCount++
		} else {
			unsettledCount++
		}
	}
	return
}
