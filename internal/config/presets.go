package config

import (
	"sort"

	"github.com/san-kum/regsim/internal/boundary"
	"github.com/san-kum/regsim/internal/control"
	"github.com/san-kum/regsim/internal/mesh"
	"github.com/san-kum/regsim/internal/plant"
	"github.com/san-kum/regsim/internal/regulator"
	"github.com/san-kum/regsim/internal/sensor"
	"github.com/san-kum/regsim/internal/target"
)

// Presets are grouped by actuated boundary. Each call builds a fresh config.
var Presets = map[string]map[string]func() *Config{
	"heater": {
		"twostep": DefaultConfig,
		"pid": func() *Config {
			c := DefaultConfig()
			c.Actuator = boundary.Config{Type: boundary.Gradient, Patch: mesh.Wall, MinValue: 0, MaxValue: 20000}
			c.Regulator.Control = control.Config{Mode: control.ModePID, Kp: 0.02, Ti: 100, Td: 0, OutputMin: 0, OutputMax: 1}
			return c
		},
		"split": func() *Config {
			c := DefaultConfig()
			c.Simulation.Partitions = 4
			c.Regulator.Sensor = sensor.Config{Kind: sensor.KindVolume, Field: plant.Field}
			c.Regulator.TargetValue = target.Uniform(25)
			return c
		},
	},
	"inlet": {
		"pid": func() *Config {
			c := DefaultConfig()
			c.Actuator = boundary.Config{Type: boundary.Value, Patch: mesh.Inlet, MinValue: 20, MaxValue: 80}
			c.Regulator = inletRegulator(target.Uniform(40))
			return c
		},
		"ramp": func() *Config {
			c := DefaultConfig()
			c.Simulation.Duration = 3600
			c.Actuator = boundary.Config{Type: boundary.Value, Patch: mesh.Inlet, MinValue: 20, MaxValue: 80}
			c.Regulator = inletRegulator(target.Spec{
				Kind:   target.Table,
				Values: [][2]float64{{0, 30}, {1200, 30}, {2400, 50}, {3600, 50}},
			})
			return c
		},
	},
	"jacket": {
		"sine": func() *Config {
			c := DefaultConfig()
			c.Simulation.Duration = 3600
			c.Plant.Velocity = 0.005
			c.Actuator = boundary.Config{Type: boundary.Value, Patch: mesh.Wall, MinValue: 10, MaxValue: 90}
			c.Regulator = regulatorConfig(
				target.Spec{Kind: target.Sine, Amplitude: 3, Frequency: 1.0 / 1200, Level: 30},
				control.Config{Mode: control.ModePID, Kp: 0.02, Ti: 300, Td: 0, OutputMin: 0, OutputMax: 1},
				sensor.Config{Kind: sensor.KindVolume, Field: plant.Field},
			)
			return c
		},
		"square": func() *Config {
			c := DefaultConfig()
			c.Simulation.Duration = 3600
			c.Plant.Velocity = 0.005
			c.Actuator = boundary.Config{Type: boundary.Value, Patch: mesh.Wall, MinValue: 10, MaxValue: 90}
			c.Regulator = regulatorConfig(
				target.Spec{Kind: target.Square, Amplitude: 4, Frequency: 1.0 / 1800, Level: 30, MarkSpace: 1},
				control.Config{Mode: control.ModeTwoStep, H: 2},
				sensor.Config{Kind: sensor.KindPatch, Field: plant.Field, PatchName: mesh.Outlet},
			)
			return c
		},
	},
}

func regulatorConfig(tv target.Spec, ctrl control.Config, s sensor.Config) regulator.Config {
	return regulator.Config{TargetValue: tv, Control: ctrl, Sensor: s}
}

func inletRegulator(tv target.Spec) regulator.Config {
	return regulatorConfig(
		tv,
		control.Config{Mode: control.ModePID, Kp: 0.008, Ti: 100, Td: 0, OutputMin: 0, OutputMax: 1},
		sensor.Config{Kind: sensor.KindPoints, Field: plant.Field, Points: []sensor.Point{{5, 0, 0}}},
	)
}

func GetPreset(group, preset string) *Config {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	fn, ok := groupPresets[preset]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets(group string) []string {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(groupPresets))
	for name := range groupPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListGroups() []string {
	groups := make([]string, 0, len(Presets))
	for g := range Presets {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}
