// Package config reads and writes run files.
//
// A run file describes one closed-loop experiment: time stepping, the pipe
// mesh and plant, the actuated boundary with its regulator record, and the
// optional telemetry sinks.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/san-kum/regsim/internal/boundary"
	"github.com/san-kum/regsim/internal/control"
	"github.com/san-kum/regsim/internal/integrators"
	"github.com/san-kum/regsim/internal/mesh"
	"github.com/san-kum/regsim/internal/plant"
	"github.com/san-kum/regsim/internal/regulator"
	"github.com/san-kum/regsim/internal/sensor"
	"github.com/san-kum/regsim/internal/target"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt         = 0.5
	DefaultDuration   = 1800.0
	DefaultIntegrator = "rk4"
	DefaultPublish    = 10
	DefaultListen     = ":9108"
)

var ErrInvalid = errors.New("config: invalid run file")

type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Mesh       mesh.Geometry    `yaml:"mesh"`
	Plant      plant.Params     `yaml:"plant"`
	Actuator   boundary.Config  `yaml:"actuator"`
	Regulator  regulator.Config `yaml:"regulator"`
	Outputs    OutputsConfig    `yaml:"outputs"`
	Monitor    MonitorConfig    `yaml:"monitor"`
}

type SimulationConfig struct {
	Dt         float64 `yaml:"dt"`
	Duration   float64 `yaml:"duration"`
	Integrator string  `yaml:"integrator"`
	Partitions int     `yaml:"partitions"`
}

// OutputsConfig lists where tick records are published. Every sets the
// publishing interval in ticks.
type OutputsConfig struct {
	Every int          `yaml:"every"`
	Kafka *KafkaConfig `yaml:"kafka,omitempty"`
	MQTT  *MQTTConfig  `yaml:"mqtt,omitempty"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"clientId"`
}

type MonitorConfig struct {
	Listen string `yaml:"listen"`
}

func DefaultGeometry() mesh.Geometry {
	return mesh.Geometry{Length: 10, Cells: 50, Area: 7.854e-3, Perimeter: 0.3142}
}

// DefaultConfig is a wall heater switched by a two-step regulator that
// holds the outlet temperature.
func DefaultConfig() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Dt:         DefaultDt,
			Duration:   DefaultDuration,
			Integrator: DefaultIntegrator,
			Partitions: 1,
		},
		Mesh:  DefaultGeometry(),
		Plant: plant.DefaultParams(),
		Actuator: boundary.Config{
			Type:  boundary.HeatFlux,
			Patch: mesh.Wall,
			Q:     10000,
			Kappa: 0.6,
		},
		Regulator: regulator.Config{
			TargetValue: target.Uniform(30),
			Control:     control.Config{Mode: control.ModeTwoStep, H: 1},
			Sensor:      sensor.Config{Kind: sensor.KindPatch, Field: plant.Field, PatchName: mesh.Outlet},
		},
		Outputs: OutputsConfig{Every: DefaultPublish},
		Monitor: MonitorConfig{Listen: DefaultListen},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse reads a run file over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, cfg); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write encodes cfg as a run file.
func Write(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

func (c *Config) Validate() error {
	s := c.Simulation
	if !(s.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalid, s.Dt)
	}
	if !(s.Duration > 0) {
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalid, s.Duration)
	}
	if _, err := integrators.New(s.Integrator); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if s.Partitions < 1 || s.Partitions > c.Mesh.Cells {
		return fmt.Errorf("%w: partitions must be in [1, %d], got %d", ErrInvalid, c.Mesh.Cells, s.Partitions)
	}
	if err := c.Mesh.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := c.Plant.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := c.Actuator.Validate(); err != nil {
		return fmt.Errorf("%w: actuator: %w", ErrInvalid, err)
	}
	if err := c.Regulator.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Outputs.Every < 1 {
		return fmt.Errorf("%w: outputs.every must be >= 1, got %d", ErrInvalid, c.Outputs.Every)
	}
	if k := c.Outputs.Kafka; k != nil && (len(k.Brokers) == 0 || k.Topic == "") {
		return fmt.Errorf("%w: kafka needs brokers and a topic", ErrInvalid)
	}
	if m := c.Outputs.MQTT; m != nil && (m.Broker == "" || m.Topic == "") {
		return fmt.Errorf("%w: mqtt needs a broker and a topic", ErrInvalid)
	}
	return nil
}

// Drive is the plant boundary the actuator acts on.
func (c *Config) Drive() plant.Drive {
	return plant.Drive{Patch: c.Actuator.Patch, Condition: c.Actuator.Condition()}
}
