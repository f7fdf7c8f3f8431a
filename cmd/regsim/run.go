package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/san-kum/regsim/internal/config"
	"github.com/san-kum/regsim/internal/experiment"
	"github.com/san-kum/regsim/internal/publish"
	"github.com/san-kum/regsim/internal/sim"
	"github.com/san-kum/regsim/internal/storage"
	"github.com/spf13/cobra"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, exp, logger, err := newExperiment(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	publishers, err := attachPublishers(exp, runName(), logger)
	if err != nil {
		return err
	}
	defer closePublishers(publishers, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("running %s (%s, %s on %s)...\n", runName(), cfg.Regulator.Control.Mode, cfg.Actuator.Type, cfg.Actuator.Patch)
	start := time.Now()
	result, runErr := exp.Run(ctx)
	elapsed := time.Since(start)

	if result == nil {
		return runErr
	}
	runID, err := st.Save(storage.Run{
		Name:      runName(),
		Config:    cfg,
		Result:    result,
		Regulator: exp.Regulator(),
		Err:       runErr,
	})
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	printMetrics(result.Metrics)

	var stepErr *sim.StepError
	if errors.As(runErr, &stepErr) {
		return fmt.Errorf("run stopped at t=%.2f: %w", stepErr.Time, runErr)
	}
	return runErr
}

func printMetrics(metrics map[string]float64) {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %-15s %.6g\n", name, metrics[name])
	}
}

// attachPublishers adds a tick publisher per configured sink.
func attachPublishers(exp *experiment.Experiment, run string, logger logr.Logger) ([]*publish.Publisher, error) {
	out := exp.Config().Outputs
	name := exp.Regulator().Name()
	var pubs []*publish.Publisher

	if k := out.Kafka; k != nil {
		sink, err := publish.NewKafka(k.Brokers, k.Topic)
		if err != nil {
			return nil, err
		}
		pubs = append(pubs, publish.New(sink, run, name, out.Every, logger.WithName("kafka")))
	}
	if m := out.MQTT; m != nil {
		clientID := m.ClientID
		if clientID == "" {
			clientID = "regsim-" + name
		}
		sink, err := publish.NewMQTT(m.Broker, m.Topic, clientID)
		if err != nil {
			closePublishers(pubs, logger)
			return nil, err
		}
		pubs = append(pubs, publish.New(sink, run, name, out.Every, logger.WithName("mqtt")))
	}

	for _, p := range pubs {
		exp.Simulator().AddObserver(p)
	}
	return pubs, nil
}

func closePublishers(pubs []*publish.Publisher, logger logr.Logger) {
	for _, p := range pubs {
		sent, failed := p.Stats()
		if failed > 0 {
			logger.Error(p.Err(), "Some ticks were not published", "sent", sent, "failed", failed)
		}
		if err := p.Close(); err != nil {
			logger.Error(err, "Failed to close publisher")
		}
	}
}

// newExperiment loads the run file and builds an experiment with logging.
func newExperiment(cmd *cobra.Command) (*config.Config, *experiment.Experiment, logr.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, logr.Discard(), err
	}
	logger, err := newLogger()
	if err != nil {
		return nil, nil, logr.Discard(), err
	}
	exp, err := experiment.New(cfg, experiment.WithLogger(logger))
	if err != nil {
		return nil, nil, logger, err
	}
	return cfg, exp, logger, nil
}
