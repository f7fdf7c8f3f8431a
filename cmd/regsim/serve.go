package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/san-kum/regsim/internal/monitor"
	"github.com/san-kum/regsim/internal/sim"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	listenAddr string
	hold       bool
	pace       float64
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, exp, logger, err := newExperiment(cmd)
	if err != nil {
		return err
	}
	addr := cfg.Monitor.Listen
	if listenAddr != "" {
		addr = listenAddr
	}

	reg := exp.Regulator()
	metrics := monitor.NewMetrics(reg.Name())
	exp.Simulator().AddObserver(metrics)
	publishers, err := attachPublishers(exp, runName(), logger)
	if err != nil {
		return err
	}
	defer closePublishers(publishers, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	serveCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()

	g, gctx := errgroup.WithContext(serveCtx)
	g.Go(func() error {
		return monitor.NewServer(metrics, reg, logger.WithName("monitor")).ListenAndServe(gctx, addr)
	})
	g.Go(func() error {
		var delay time.Duration
		if pace > 0 {
			delay = time.Duration(cfg.Simulation.Dt / pace * float64(time.Second))
		}
		err := exp.RunWithCallback(gctx, func(sim.Tick) bool {
			if delay == 0 {
				return true
			}
			select {
			case <-time.After(delay):
				return true
			case <-gctx.Done():
				return false
			}
		})

		var stepErr *sim.StepError
		if errors.As(err, &stepErr) {
			metrics.RecordFailure()
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		_, ticks := metrics.Last()
		fmt.Printf("run finished after %d ticks\n", ticks)
		if !hold {
			stopServer()
		}
		return nil
	})

	fmt.Printf("serving metrics on %s\n", addr)
	return g.Wait()
}
