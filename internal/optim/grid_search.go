// Package optim searches regulator gains for the lowest run metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/go-logr/logr"
	"github.com/san-kum/regsim/internal/config"
	"github.com/san-kum/regsim/internal/control"
	"github.com/san-kum/regsim/internal/experiment"
	"github.com/san-kum/regsim/internal/logging"
	"github.com/san-kum/regsim/internal/sim"
)

var (
	ErrUnknownParam = errors.New("optim: unknown parameter")
	ErrGrid         = errors.New("optim: invalid grid")
	ErrNoCandidate  = errors.New("optim: no candidate completed")
)

// Params names the tunable control method entries and the mode each
// belongs to.
var Params = map[string]control.Kind{
	"h":  control.ModeTwoStep,
	"Kp": control.ModePID,
	"Ti": control.ModePID,
	"Td": control.ModePID,
}

// Apply sets the named control entries on cfg.
func Apply(cfg *config.Config, params map[string]float64) error {
	ctrl := &cfg.Regulator.Control
	for name, v := range params {
		mode, ok := Params[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownParam, name)
		}
		if mode != ctrl.Mode {
			return fmt.Errorf("%w: %q does not apply to mode %s", ErrUnknownParam, name, ctrl.Mode)
		}
		switch name {
		case "h":
			ctrl.H = v
		case "Kp":
			ctrl.Kp = v
		case "Ti":
			ctrl.Ti = v
		case "Td":
			ctrl.Td = v
		}
	}
	return nil
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	workers    int
	logger     logr.Logger
}

func NewGridSearch(params []string, ranges [][]float64, workers int, logger logr.Logger) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("%w: %d names for %d ranges", ErrGrid, len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("%w: no values for %q", ErrGrid, params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges, workers: workers, logger: logger}, nil
}

// Points enumerates the grid, the last parameter varying fastest.
func (g *GridSearch) Points() []map[string]float64 {
	var out []map[string]float64
	var walk func(depth int, current map[string]float64)
	walk = func(depth int, current map[string]float64) {
		if depth == len(g.paramNames) {
			out = append(out, current)
			return
		}
		for _, v := range g.ranges[depth] {
			next := make(map[string]float64, len(current)+1)
			for k, cv := range current {
				next[k] = cv
			}
			next[g.paramNames[depth]] = v
			walk(depth+1, next)
		}
	}
	walk(0, map[string]float64{})
	return out
}

// Candidate is one evaluated grid point.
type Candidate struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type Outcome struct {
	Best       Candidate
	Candidates []Candidate
}

// Search runs one experiment per grid point on a copy of base and returns
// the point minimising metric. Failed runs are kept with their error and
// never win.
func (g *GridSearch) Search(ctx context.Context, base func() *config.Config, metric string) (*Outcome, error) {
	points := g.Points()
	candidates := make([]Candidate, len(points))
	jobs := make([]sim.Job, len(points))

	for i, p := range points {
		i := i
		candidates[i] = Candidate{Params: p, Value: math.Inf(1)}
		cfg := base()
		if err := Apply(cfg, p); err != nil {
			return nil, err
		}
		jobs[i] = func(ctx context.Context) (*sim.Result, error) {
			exp, err := experiment.New(cfg, experiment.WithLogger(g.logger.WithValues("candidate", i)))
			if err != nil {
				return nil, err
			}
			return exp.Run(ctx)
		}
	}

	results, errs, err := sim.NewBatch(g.workers).Run(ctx, jobs)
	if err != nil {
		return nil, err
	}

	best := -1
	for i := range candidates {
		if errs[i] != nil {
			candidates[i].Err = errs[i]
			g.logger.V(logging.VERBOSE).Info("Candidate failed", "params", points[i], "error", errs[i].Error())
			continue
		}
		v, ok := results[i].Metrics[metric]
		if !ok {
			return nil, fmt.Errorf("optim: run has no metric %q", metric)
		}
		candidates[i].Value = v
		if best < 0 || v < candidates[best].Value {
			best = i
		}
	}
	if best < 0 {
		return &Outcome{Candidates: candidates}, ErrNoCandidate
	}
	return &Outcome{Best: candidates[best], Candidates: candidates}, nil
}

// Ranked returns the candidates ordered by value, failures last.
func (o *Outcome) Ranked() []Candidate {
	out := append([]Candidate(nil), o.Candidates...)
	sort.SliceStable(out, func(i, j int) bool {
		if (out[i].Err == nil) != (out[j].Err == nil) {
			return out[i].Err == nil
		}
		return out[i].Value < out[j].Value
	})
	return out
}
