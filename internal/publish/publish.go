// Package publish streams tick records to message brokers.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/san-kum/regsim/internal/sim"
)

const sendTimeout = 5 * time.Second

var ErrClosed = errors.New("publish: sink closed")

// Record is the payload published for one tick.
type Record struct {
	Run         string  `json:"run,omitempty"`
	Regulator   string  `json:"regulator"`
	Index       int     `json:"timeIndex"`
	Time        float64 `json:"time"`
	Measurement float64 `json:"measurement"`
	Target      float64 `json:"target"`
	Error       float64 `json:"error"`
	Signal      float64 `json:"signal"`
	Actuation   float64 `json:"actuation"`
}

func NewRecord(run, regulator string, tick sim.Tick) Record {
	r := Record{
		Run:         run,
		Regulator:   regulator,
		Index:       tick.Index,
		Time:        tick.Time,
		Measurement: tick.Reading.Measurement,
		Target:      tick.Reading.Target,
		Error:       tick.Reading.Error,
		Signal:      tick.Reading.Signal,
	}
	if len(tick.Control) > 0 {
		r.Actuation = tick.Control[0]
	}
	return r
}

// Sink delivers one encoded record under a key.
type Sink interface {
	Send(ctx context.Context, key string, payload []byte) error
	Close() error
}

// Publisher forwards every Nth tick to a sink. It implements sim.Observer;
// delivery failures are logged and the first one is kept for Err.
type Publisher struct {
	sink      Sink
	run       string
	regulator string
	every     int
	logger    logr.Logger

	mu     sync.Mutex
	sent   int
	failed int
	err    error
	closed bool
}

var _ sim.Observer = (*Publisher)(nil)

func New(sink Sink, run, regulator string, every int, logger logr.Logger) *Publisher {
	if every < 1 {
		every = 1
	}
	return &Publisher{
		sink:      sink,
		run:       run,
		regulator: regulator,
		every:     every,
		logger:    logger.WithValues("regulator", regulator),
	}
}

func (p *Publisher) OnStep(tick sim.Tick) {
	if tick.Index%p.every != 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.record(ErrClosed)
		return
	}

	payload, err := json.Marshal(NewRecord(p.run, p.regulator, tick))
	if err != nil {
		p.record(err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := p.sink.Send(ctx, p.regulator, payload); err != nil {
		p.record(fmt.Errorf("tick %d: %w", tick.Index, err))
		return
	}
	p.sent++
}

func (p *Publisher) record(err error) {
	p.failed++
	if p.err == nil {
		p.err = err
	}
	p.logger.Error(err, "Failed to publish tick")
}

// Stats returns the number of records delivered and failed.
func (p *Publisher) Stats() (sent, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sent, p.failed
}

func (p *Publisher) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.sink.Close()
}
