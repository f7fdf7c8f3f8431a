package viz

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/regsim/internal/sim"
)

const (
	historyCapacity = 600
	graphWidth      = 60
	graphHeight     = 12
	maxSpeed        = 64
)

type TickMsg time.Time

// Runner is a closed loop that reports every tick to a callback and stops
// when the callback returns false.
type Runner interface {
	RunWithCallback(ctx context.Context, callback func(sim.Tick) bool) error
}

// Configurable exposes parameters for display.
type Configurable interface {
	GetParams() map[string]float64
}

// Model follows a run in progress. The run executes in its own goroutine and
// blocks on each tick until the model drains it, so pausing the view pauses
// the simulation.
type Model struct {
	title    string
	duration float64
	ticks    <-chan sim.Tick
	done     <-chan error
	cancel   context.CancelFunc

	measurement []float64
	target      []float64
	signal      []float64
	last        sim.Tick
	seen        int
	params      map[string]float64
	paramKeys   []string

	running  bool
	finished bool
	err      error
	speed    int
	theme    Theme
	showHelp bool
}

// NewModel builds a model draining ticks until done yields the run's
// result. cancel is called when the user quits.
func NewModel(title string, duration float64, ticks <-chan sim.Tick, done <-chan error, cancel context.CancelFunc) Model {
	return Model{
		title:       title,
		duration:    duration,
		ticks:       ticks,
		done:        done,
		cancel:      cancel,
		measurement: make([]float64, 0, historyCapacity),
		target:      make([]float64, 0, historyCapacity),
		signal:      make([]float64, 0, historyCapacity),
		running:     true,
		speed:       4,
		theme:       Themes[0],
	}
}

// Start launches r and returns a model following it.
func Start(ctx context.Context, r Runner, title string, duration float64) Model {
	ctx, cancel := context.WithCancel(ctx)
	ticks := make(chan sim.Tick)
	done := make(chan error, 1)

	go func() {
		defer close(ticks)
		done <- r.RunWithCallback(ctx, func(tick sim.Tick) bool {
			select {
			case ticks <- tick:
				return true
			case <-ctx.Done():
				return false
			}
		})
	}()
	return NewModel(title, duration, ticks, done, cancel)
}

// WithParams shows the parameters of c next to the readings.
func (m Model) WithParams(c Configurable) Model {
	m.params = c.GetParams()
	m.paramKeys = make([]string, 0, len(m.params))
	for k := range m.params {
		m.paramKeys = append(m.paramKeys, k)
	}
	sort.Strings(m.paramKeys)
	return m
}

func frame() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return frame() }

// Err returns the run's error once it has finished.
func (m Model) Err() error { return m.err }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "+", "=":
			if m.speed < maxSpeed {
				m.speed *= 2
			}
		case "-", "_":
			if m.speed > 1 {
				m.speed /= 2
			}
		case "t":
			m.theme = m.theme.next()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && !m.finished {
			m.drain()
		}
		return m, frame()
	}
	return m, nil
}

// drain consumes up to speed ticks without blocking.
func (m *Model) drain() {
	for i := 0; i < m.speed; i++ {
		select {
		case tick, ok := <-m.ticks:
			if !ok {
				m.finished = true
				m.err = <-m.done
				return
			}
			m.record(tick)
		default:
			return
		}
	}
}

func (m *Model) record(tick sim.Tick) {
	push := func(buf []float64, v float64) []float64 {
		buf = append(buf, v)
		if len(buf) > historyCapacity {
			buf = buf[1:]
		}
		return buf
	}
	m.measurement = push(m.measurement, tick.Reading.Measurement)
	m.target = push(m.target, tick.Reading.Target)
	m.signal = push(m.signal, tick.Reading.Signal)
	m.last = tick
	m.seen++
}

func (m Model) status() string {
	switch {
	case m.finished && m.err != nil:
		return "FAILED: " + m.err.Error()
	case m.finished:
		return "FINISHED"
	case !m.running:
		return "PAUSED"
	}
	return fmt.Sprintf("RUNNING x%d", m.speed)
}

func (m Model) View() string {
	th := m.theme
	var s strings.Builder
	s.WriteString(th.header().Render(strings.ToUpper(m.title)) + "  " + m.status() + "\n\n")

	if len(m.measurement) > 1 {
		chart := asciigraph.PlotMany(
			[][]float64{m.measurement, m.target},
			asciigraph.Height(graphHeight),
			asciigraph.Width(graphWidth),
			asciigraph.SeriesColors(asciigraph.Cyan, asciigraph.Red),
		)
		s.WriteString(lipgloss.NewStyle().Foreground(th.Measurement).Render(chart) + "\n\n")
	}

	r := m.last.Reading
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + th.value().Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.1fs (tick %d)", m.last.Time, m.last.Index))
	row("Measurement", fmt.Sprintf("%.3f", r.Measurement))
	row("Target", fmt.Sprintf("%.3f", r.Target))
	row("Error", fmt.Sprintf("%+.3f", r.Error))
	row("Signal", fmt.Sprintf("%.3f", r.Signal))
	if len(m.last.Control) > 0 {
		row("Actuation", fmt.Sprintf("%.4g", m.last.Control[0]))
	}
	if len(m.paramKeys) > 0 {
		s.WriteString("\n" + th.header().Render("PARAMETERS") + "\n")
		for _, k := range m.paramKeys {
			row(k, fmt.Sprintf("%g", m.params[k]))
		}
	}
	s.WriteString("\n" + SignalStrip(th, m.signal, graphWidth) + "\n")
	if m.duration > 0 {
		s.WriteString(ProgressBar(th, m.last.Time/m.duration, graphWidth) + "\n")
	}
	s.WriteString(helpStyle.Render("SP:Pause +/-:Speed T:Theme ?:Help Q:Quit"))

	view := panelStyle.Render(s.String())
	if m.showHelp {
		help := strings.Join([]string{
			"Space  Pause/Resume the run",
			"+ / -  Double/halve ticks per frame",
			"T      Cycle themes (" + strings.Join(ThemeNames(), ", ") + ")",
			"?      Toggle this help",
			"Q      Stop the run and quit",
		}, "\n")
		return panelStyle.Render(help) + "\n" + view
	}
	return view
}
