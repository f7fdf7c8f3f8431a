package metrics

import (
	"math"

	"github.com/san-kum/regsim/internal/sim"
)

// IAE is the integral of the absolute control error.
type IAE struct {
	dt  float64
	sum float64
}

func NewIAE(dt float64) *IAE { return &IAE{dt: dt} }

func (m *IAE) Name() string          { return "iae" }
func (m *IAE) Observe(tick sim.Tick) { m.sum += math.Abs(tick.Reading.Error) * m.dt }
func (m *IAE) Value() float64        { return m.sum }
func (m *IAE) Reset()                { m.sum = 0 }

// ISE is the integral of the squared control error.
type ISE struct {
	dt  float64
	sum float64
}

func NewISE(dt float64) *ISE { return &ISE{dt: dt} }

func (m *ISE) Name() string { return "ise" }
func (m *ISE) Observe(tick sim.Tick) {
	e := tick.Reading.Error
	m.sum += e * e * m.dt
}
func (m *ISE) Value() float64 { return m.sum }
func (m *ISE) Reset()         { m.sum = 0 }

// SwitchCount counts the ticks on which the regulator signal changed.
type SwitchCount struct {
	count   int
	prev    float64
	started bool
}

func NewSwitchCount() *SwitchCount { return &SwitchCount{} }

func (m *SwitchCount) Name() string { return "switch_count" }

func (m *SwitchCount) Observe(tick sim.Tick) {
	s := tick.Reading.Signal
	if m.started && s != m.prev {
		m.count++
	}
	m.prev, m.started = s, true
}

func (m *SwitchCount) Value() float64 { return float64(m.count) }

func (m *SwitchCount) Reset() {
	m.count = 0
	m.started = false
}

// MaxOvershoot is the largest distance the measurement travelled past the
// target, in the direction of the first nonzero error.
type MaxOvershoot struct {
	dir   float64
	worst float64
}

func NewMaxOvershoot() *MaxOvershoot { return &MaxOvershoot{} }

func (m *MaxOvershoot) Name() string { return "max_overshoot" }

func (m *MaxOvershoot) Observe(tick sim.Tick) {
	e := tick.Reading.Error
	if m.dir == 0 {
		if e != 0 {
			m.dir = math.Copysign(1, e)
		}
		return
	}
	if past := -m.dir * e; past > m.worst {
		m.worst = past
	}
}

func (m *MaxOvershoot) Value() float64 { return m.worst }

func (m *MaxOvershoot) Reset() {
	m.dir = 0
	m.worst = 0
}
