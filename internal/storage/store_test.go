package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/san-kum/regsim/internal/config"
	"github.com/san-kum/regsim/internal/mesh"
	"github.com/san-kum/regsim/internal/regulator"
	"github.com/san-kum/regsim/internal/sim"
)

func testResult() *sim.Result {
	return &sim.Result{
		Ticks: []sim.Tick{
			{Index: 0, Time: 0, Control: sim.Control{16666.7}, Reading: regulator.Reading{Index: 0, Time: 0, Measurement: 15, Target: 30, Error: 15, Signal: 1}},
			{Index: 1, Time: 0.5, Control: sim.Control{0}, Reading: regulator.Reading{Index: 1, Time: 0.5, Measurement: 30.6, Target: 30, Error: -0.6, Signal: 0}},
		},
		StepsTaken: 2,
		Metrics:    map[string]float64{"iae": 7.8},
	}
}

func testRegulator(t *testing.T, cfg *config.Config) *regulator.Regulator {
	t.Helper()
	m, err := mesh.New(cfg.Mesh)
	if err != nil {
		t.Fatal(err)
	}
	reg, err := regulator.New(cfg.Regulator, m.View(), sim.NewClock(cfg.Simulation.Dt))
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	st.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg := config.DefaultConfig()
	runID, err := st.Save(Run{Name: "heater/twostep", Config: cfg, Result: testResult(), Regulator: testRegulator(t, cfg)})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Name != "heater/twostep" || meta.Mode != "twoStep" || meta.Patch != "wall" || meta.Sensor != "patch" {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Steps != 2 || meta.Metrics["iae"] != 7.8 || meta.Error != "" {
		t.Errorf("unexpected metadata %+v", meta)
	}

	ticks, err := st.LoadTicks(runID)
	if err != nil {
		t.Fatalf("load ticks failed: %v", err)
	}
	if diff := cmp.Diff(testResult().Ticks, ticks); diff != "" {
		t.Errorf("ticks mismatch (-want +got):\n%s", diff)
	}

	back, err := st.LoadConfig(runID)
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	if diff := cmp.Diff(cfg, back); diff != "" {
		t.Errorf("run file mismatch (-want +got):\n%s", diff)
	}

	rec, err := st.LoadRegulator(runID)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(rec), "targetValue: 30\nmode: twoStep\nh: 1\n") {
		t.Errorf("unexpected regulator record:\n%s", rec)
	}
}

func TestStoreFailedRun(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(Run{Name: "broken", Config: config.DefaultConfig(), Result: &sim.Result{}, Err: errors.New("sensor: lookup failed")})
	if err != nil {
		t.Fatal(err)
	}
	meta, _ := st.Load(runID)
	if meta.Error != "sensor: lookup failed" {
		t.Errorf("error not recorded: %+v", meta)
	}
	if _, err := st.LoadRegulator(runID); !os.IsNotExist(err) {
		t.Errorf("no regulator record expected, got %v", err)
	}
	ticks, err := st.LoadTicks(runID)
	if err != nil || len(ticks) != 0 {
		t.Errorf("expected an empty tick table, got %v %v", ticks, err)
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"second", "first"} {
		offset := time.Duration(1-i) * time.Hour
		st.now = func() time.Time { return base.Add(offset) }
		if _, err := st.Save(Run{Name: name, Config: config.DefaultConfig(), Result: testResult()}); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}
	os.MkdirAll(filepath.Join(tmpDir, "stray"), 0755)

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 || runs[0].Name != "first" || runs[1].Name != "second" {
		t.Errorf("expected runs oldest first, got %+v", runs)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	cfg := config.DefaultConfig()

	runID, err := st.Save(Run{Name: "test", Config: cfg, Result: testResult(), Regulator: testRegulator(t, cfg)})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{"metadata.json", "ticks.csv", "regulator.yaml", "run.yaml"} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}

	data, _ := os.ReadFile(filepath.Join(tmpDir, runID, "ticks.csv"))
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "time,index,measurement,target,error,signal,actuation" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[2] != "0.5,1,30.6,30,-0.6,0,0" {
		t.Errorf("unexpected row %q", lines[2])
	}
}

func TestLoadTicksRejectsBadRows(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	dir := filepath.Join(tmpDir, "run")
	os.MkdirAll(dir, 0755)
	os.WriteFile(filepath.Join(dir, "ticks.csv"), []byte("time,index,measurement,target,error,signal,actuation\n0,zero,1,1,0,0,0\n"), 0644)

	if _, err := st.LoadTicks("run"); !errors.Is(err, ErrBadRecord) {
		t.Errorf("expected ErrBadRecord, got %v", err)
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	meta := RunMetadata{ID: "abc", Metrics: map[string]float64{"iae": 1}}
	if err := ExportJSON(&buf, meta, testResult().Ticks); err != nil {
		t.Fatal(err)
	}

	var got ExportData
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Steps != 2 || got.Run.ID != "abc" || got.Signals[0] != 1 || got.Actuations[0] != 16666.7 {
		t.Errorf("unexpected export %+v", got)
	}
}
