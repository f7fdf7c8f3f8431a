package main

import (
	"fmt"
	"os"

	"github.com/san-kum/regsim/internal/config"
	"github.com/spf13/cobra"
)

func printConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return config.Write(os.Stdout, cfg)
}

func listPresets(cmd *cobra.Command, args []string) error {
	groups := config.ListGroups()
	if len(args) == 1 {
		if len(config.ListPresets(args[0])) == 0 {
			fmt.Printf("no presets for group: %s\n", args[0])
			return nil
		}
		groups = args
	}
	for _, g := range groups {
		fmt.Printf("%s:\n", g)
		for _, p := range config.ListPresets(g) {
			cfg := config.GetPreset(g, p)
			fmt.Printf("  %-8s %s on %s, %s regulator, %s sensor\n",
				p, cfg.Actuator.Type, cfg.Actuator.Patch, cfg.Regulator.Control.Mode, cfg.Regulator.Sensor.Kind)
		}
	}
	return nil
}
