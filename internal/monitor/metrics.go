// Package monitor exposes a running closed loop over HTTP: Prometheus
// metrics, the latest tick and the regulator record.
package monitor

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/san-kum/regsim/internal/sim"
)

const namespace = "regsim"

// Metrics mirrors every tick into Prometheus collectors. It implements
// sim.Observer.
type Metrics struct {
	name     string
	registry *prometheus.Registry

	measurement *prometheus.GaugeVec
	target      *prometheus.GaugeVec
	errorValue  *prometheus.GaugeVec
	signal      *prometheus.GaugeVec
	actuation   *prometheus.GaugeVec
	simTime     *prometheus.GaugeVec
	ticks       *prometheus.CounterVec
	failures    *prometheus.CounterVec

	mu    sync.RWMutex
	last  sim.Tick
	count int
}

var _ sim.Observer = (*Metrics)(nil)

func gauge(name, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, []string{"regulator"})
}

// NewMetrics registers the collectors of one regulator on a fresh registry.
func NewMetrics(name string) *Metrics {
	m := &Metrics{
		name:        name,
		registry:    prometheus.NewRegistry(),
		measurement: gauge("measurement", "Sensor reading of the last tick."),
		target:      gauge("target", "Target value of the last tick."),
		errorValue:  gauge("error", "Control error (target - measurement) of the last tick."),
		signal:      gauge("signal", "Control signal of the last tick."),
		actuation:   gauge("actuation", "Boundary quantity applied on the last tick."),
		simTime:     gauge("sim_time_seconds", "Simulated time of the last tick."),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Total control ticks computed.",
		}, []string{"regulator"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "read_errors_total",
			Help:      "Total ticks whose regulator read failed.",
		}, []string{"regulator"}),
	}

	m.registry.MustRegister(
		m.measurement,
		m.target,
		m.errorValue,
		m.signal,
		m.actuation,
		m.simTime,
		m.ticks,
		m.failures,
	)
	m.failures.WithLabelValues(name).Add(0)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) OnStep(tick sim.Tick) {
	r := tick.Reading
	m.measurement.WithLabelValues(m.name).Set(r.Measurement)
	m.target.WithLabelValues(m.name).Set(r.Target)
	m.errorValue.WithLabelValues(m.name).Set(r.Error)
	m.signal.WithLabelValues(m.name).Set(r.Signal)
	if len(tick.Control) > 0 {
		m.actuation.WithLabelValues(m.name).Set(tick.Control[0])
	}
	m.simTime.WithLabelValues(m.name).Set(tick.Time)
	m.ticks.WithLabelValues(m.name).Inc()

	m.mu.Lock()
	m.last = tick
	m.count++
	m.mu.Unlock()
}

// RecordFailure counts a failed tick.
func (m *Metrics) RecordFailure() {
	m.failures.WithLabelValues(m.name).Inc()
}

// Last returns the most recent tick and the number of ticks seen.
func (m *Metrics) Last() (sim.Tick, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last, m.count
}
