// Package storage keeps finished runs on disk.
//
// Each run gets a directory named by its ID holding metadata.json,
// ticks.csv with one row per tick, regulator.yaml with the regulator's own
// record, and run.yaml with the full run file.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/regsim/internal/config"
	"github.com/san-kum/regsim/internal/regulator"
	"github.com/san-kum/regsim/internal/sim"
)

const (
	metadataFile  = "metadata.json"
	ticksFile     = "ticks.csv"
	regulatorFile = "regulator.yaml"
	runFile       = "run.yaml"
)

var ErrBadRecord = errors.New("storage: malformed tick record")

var tickHeader = []string{"time", "index", "measurement", "target", "error", "signal", "actuation"}

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Timestamp  time.Time          `json:"timestamp"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Integrator string             `json:"integrator"`
	Partitions int                `json:"partitions"`
	Patch      string             `json:"patch"`
	Actuator   string             `json:"actuator"`
	Mode       string             `json:"mode"`
	Sensor     string             `json:"sensor"`
	Steps      int                `json:"steps"`
	Metrics    map[string]float64 `json:"metrics"`
	Error      string             `json:"error,omitempty"`
}

// Run is what Save records. Err is the error the run stopped with, if any;
// a failed run is still stored up to the last completed tick.
type Run struct {
	Name      string
	Config    *config.Config
	Result    *sim.Result
	Regulator *regulator.Regulator
	Err       error
}

func (s *Store) Save(run Run) (string, error) {
	id := uuid.NewString()
	runDir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	cfg := run.Config
	meta := RunMetadata{
		ID:         id,
		Name:       run.Name,
		Timestamp:  s.now(),
		Dt:         cfg.Simulation.Dt,
		Duration:   cfg.Simulation.Duration,
		Integrator: cfg.Simulation.Integrator,
		Partitions: cfg.Simulation.Partitions,
		Patch:      cfg.Actuator.Patch,
		Actuator:   string(cfg.Actuator.Type),
		Mode:       string(cfg.Regulator.Control.Mode),
		Sensor:     string(cfg.Regulator.Sensor.Kind),
		Steps:      run.Result.StepsTaken,
		Metrics:    run.Result.Metrics,
	}
	if run.Err != nil {
		meta.Error = run.Err.Error()
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeTicks(filepath.Join(runDir, ticksFile), run.Result.Ticks); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, runFile), cfg); err != nil {
		return "", err
	}
	if run.Regulator != nil {
		f, err := os.Create(filepath.Join(runDir, regulatorFile))
		if err != nil {
			return "", err
		}
		defer f.Close()
		if err := run.Regulator.Write(f); err != nil {
			return "", err
		}
	}
	return id, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTicks(path string, ticks []sim.Tick) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(tickHeader); err != nil {
		return err
	}
	for _, tk := range ticks {
		r := tk.Reading
		actuation := 0.0
		if len(tk.Control) > 0 {
			actuation = tk.Control[0]
		}
		row := []string{
			formatFloat(tk.Time),
			strconv.Itoa(tk.Index),
			formatFloat(r.Measurement),
			formatFloat(r.Target),
			formatFloat(r.Error),
			formatFloat(r.Signal),
			formatFloat(actuation),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns every stored run, oldest first. Directories without
// readable metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadConfig reads back the run file a run was started with.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, runFile))
}

// LoadRegulator returns the stored regulator record.
func (s *Store) LoadRegulator(runID string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.baseDir, runID, regulatorFile))
}

// LoadTicks reads the tick table. The plant state is not stored, so the
// returned ticks carry no State.
func (s *Store) LoadTicks(runID string) ([]sim.Tick, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, ticksFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(tickHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRecord, err)
	}
	if len(records) < 2 {
		return []sim.Tick{}, nil
	}

	ticks := make([]sim.Tick, 0, len(records)-1)
	for line, rec := range records[1:] {
		var v [7]float64
		for i, field := range rec {
			if i == 1 {
				continue
			}
			if v[i], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ErrBadRecord, line+2, err)
			}
		}
		idx, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrBadRecord, line+2, err)
		}
		ticks = append(ticks, sim.Tick{
			Index:   idx,
			Time:    v[0],
			Control: sim.Control{v[6]},
			Reading: regulator.Reading{
				Index:       idx,
				Time:        v[0],
				Measurement: v[2],
				Target:      v[3],
				Error:       v[4],
				Signal:      v[5],
			},
		})
	}
	return ticks, nil
}
