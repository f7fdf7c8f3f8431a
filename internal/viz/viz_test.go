package viz

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/regsim/internal/regulator"
	"github.com/san-kum/regsim/internal/sim"
)

func makeTicks(n int) []sim.Tick {
	ticks := make([]sim.Tick, n)
	for i := range ticks {
		m := 20 + float64(i)*0.1
		sig := 0.0
		if m < 25 {
			sig = 1
		}
		ticks[i] = sim.Tick{
			Index:   i,
			Time:    float64(i) * 0.5,
			Control: sim.Control{sig * 1000},
			Reading: regulator.Reading{Index: i, Time: float64(i) * 0.5, Measurement: m, Target: 25, Error: 25 - m, Signal: sig},
		}
	}
	return ticks
}

func TestSeries(t *testing.T) {
	s := NewSeries(makeTicks(101))
	if s.Len() != 101 {
		t.Fatalf("Len() = %d", s.Len())
	}
	if s.Actuation[0] != 1000 || s.Target[50] != 25 {
		t.Errorf("unexpected columns: %v %v", s.Actuation[0], s.Target[50])
	}

	d := s.Downsample(11)
	if d.Len() != 11 {
		t.Fatalf("Downsample(11).Len() = %d", d.Len())
	}
	if d.Time[0] != 0 || d.Time[10] != 50 || d.Time[5] != 25 {
		t.Errorf("downsampled times: %v", d.Time)
	}
	if s.Downsample(500).Len() != 101 {
		t.Error("downsampling to more points should keep the series")
	}
}

func TestPlot(t *testing.T) {
	if _, err := Plot(nil, DefaultPlotOptions()); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}

	opts := DefaultPlotOptions()
	opts.Signal = true
	out, err := Plot(makeTicks(200), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "measurement") || !strings.Contains(out, "signal") {
		t.Errorf("missing captions:\n%s", out)
	}
}

func TestRenderPNG(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultRenderOptions()
	opts.DPI = 50
	opts.Title = "heater/twostep"
	if err := RenderPNG(&buf, makeTicks(100), opts); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("output is not a PNG")
	}

	if err := RenderPNG(&buf, nil, opts); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestModelDrainsTicks(t *testing.T) {
	ticks := make(chan sim.Tick, 10)
	done := make(chan error, 1)
	for _, tick := range makeTicks(6) {
		ticks <- tick
	}

	m := NewModel("heater", 3, ticks, done, nil)
	next, _ := m.Update(TickMsg(time.Now()))
	m = next.(Model)
	if m.seen != 4 {
		t.Errorf("first frame drained %d ticks, want 4", m.seen)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{' '}})
	m = next.(Model)
	next, _ = m.Update(TickMsg(time.Now()))
	m = next.(Model)
	if m.seen != 4 {
		t.Errorf("paused model drained ticks: %d", m.seen)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{' '}})
	m = next.(Model)
	close(ticks)
	done <- nil
	next, _ = m.Update(TickMsg(time.Now()))
	m = next.(Model)
	if m.seen != 6 || !m.finished || m.Err() != nil {
		t.Errorf("seen=%d finished=%v err=%v", m.seen, m.finished, m.Err())
	}
	if !strings.Contains(m.View(), "FINISHED") {
		t.Error("view does not report the finished run")
	}
}

type gains map[string]float64

func (g gains) GetParams() map[string]float64 { return g }

func TestModelShowsParams(t *testing.T) {
	m := NewModel("x", 0, nil, nil, nil).WithParams(gains{"Ti": 100, "Kp": 0.02})
	view := m.View()
	if !strings.Contains(view, "PARAMETERS") || !strings.Contains(view, "0.02") {
		t.Errorf("parameters missing from view:\n%s", view)
	}
	if m.paramKeys[0] != "Kp" {
		t.Errorf("keys not sorted: %v", m.paramKeys)
	}
}

func TestModelKeys(t *testing.T) {
	cancelled := false
	m := NewModel("x", 0, nil, nil, func() { cancelled = true })

	press := func(m Model, key string) Model {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
		return next.(Model)
	}
	m = press(m, "+")
	if m.speed != 8 {
		t.Errorf("speed = %d, want 8", m.speed)
	}
	m = press(press(press(press(m, "-"), "-"), "-"), "-")
	if m.speed != 1 {
		t.Errorf("speed = %d, want 1", m.speed)
	}
	m = press(m, "t")
	if m.theme.Name != ThemeNames()[1] {
		t.Errorf("theme = %s", m.theme.Name)
	}
	m = press(m, "?")
	if !strings.Contains(m.View(), "Toggle this help") {
		t.Error("help overlay not shown")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil || !cancelled {
		t.Error("quit should cancel the run")
	}
}

type fakeRunner struct{ n int }

func (f fakeRunner) RunWithCallback(ctx context.Context, cb func(sim.Tick) bool) error {
	for _, tick := range makeTicks(f.n) {
		if !cb(tick) {
			return ctx.Err()
		}
	}
	return nil
}

func TestStartFollowsRunner(t *testing.T) {
	m := Start(context.Background(), fakeRunner{n: 20}, "fake", 10)
	m.speed = maxSpeed

	deadline := time.Now().Add(5 * time.Second)
	for !m.finished && time.Now().Before(deadline) {
		next, _ := m.Update(TickMsg(time.Now()))
		m = next.(Model)
		time.Sleep(time.Millisecond)
	}
	if !m.finished || m.seen != 20 {
		t.Errorf("finished=%v seen=%d", m.finished, m.seen)
	}
}
