package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/regsim/internal/viz"
	"github.com/spf13/cobra"
)

func runLive(cmd *cobra.Command, args []string) error {
	cfg, exp, _, err := newExperiment(cmd)
	if err != nil {
		return err
	}

	m := viz.Start(context.Background(), exp, runName(), cfg.Simulation.Duration)
	if c, ok := exp.Regulator().Method().(viz.Configurable); ok {
		m = m.WithParams(c)
	}
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("live view: %w", err)
	}
	if vm, ok := final.(viz.Model); ok {
		return vm.Err()
	}
	return nil
}
