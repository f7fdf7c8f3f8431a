package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/san-kum/regsim/internal/config"
	"github.com/san-kum/regsim/internal/optim"
	"github.com/spf13/cobra"
)

var (
	tuneParams  []string
	tuneMetric  string
	tuneWorkers int
)

// parseAxis reads name=v1,v2,...
func parseAxis(s string) (string, []float64, error) {
	name, list, ok := strings.Cut(s, "=")
	if !ok || name == "" || list == "" {
		return "", nil, fmt.Errorf("bad --param %q, want name=v1,v2,...", s)
	}
	var values []float64
	for _, f := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return "", nil, fmt.Errorf("bad value in --param %q: %w", s, err)
		}
		values = append(values, v)
	}
	return name, values, nil
}

func runTune(cmd *cobra.Command, args []string) error {
	if len(tuneParams) == 0 {
		return fmt.Errorf("at least one --param is required")
	}
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}

	names := make([]string, 0, len(tuneParams))
	ranges := make([][]float64, 0, len(tuneParams))
	for _, p := range tuneParams {
		name, values, err := parseAxis(p)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	g, err := optim.NewGridSearch(names, ranges, tuneWorkers, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("searching %d candidates for the lowest %s...\n", len(g.Points()), tuneMetric)
	clone := func() *config.Config {
		c := *base
		return &c
	}
	out, err := g.Search(ctx, clone, tuneMetric)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := strings.Join(names, "\t")
	fmt.Fprintf(w, "%s\t%s\n", header, strings.ToUpper(tuneMetric))
	for _, c := range out.Ranked() {
		cols := make([]string, len(names))
		for i, n := range names {
			cols[i] = strconv.FormatFloat(c.Params[n], 'g', 6, 64)
		}
		value := strconv.FormatFloat(c.Value, 'g', 6, 64)
		if c.Err != nil {
			value = "failed: " + c.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\n", strings.Join(cols, "\t"), value)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nbest: %v (%s = %.6g)\n", out.Best.Params, tuneMetric, out.Best.Value)
	return nil
}
