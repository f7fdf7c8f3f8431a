package mesh

import (
	"errors"
	"sync"
)

var ErrAborted = errors.New("mesh: collective aborted")

// Comm is an all-reduce barrier shared by the partitions of one
// decomposition. Every rank must enter each collective exactly once.
// Contributions are added in rank order so every run gives the same total.
type Comm struct {
	mu   sync.Mutex
	cond *sync.Cond

	size       int
	arrived    int
	slots      []float64
	result     float64
	generation uint64
	err        error
}

func NewComm(size int) *Comm {
	c := &Comm{size: size, slots: make([]float64, size)}
	c.cond = sync.NewCond(&c.mu)
	return c
}

func (c *Comm) Size() int { return c.size }

// Sum blocks until every rank has contributed and returns the total.
func (c *Comm) Sum(rank int, v float64) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return 0, c.err
	}

	gen := c.generation
	c.slots[rank] = v
	c.arrived++
	if c.arrived == c.size {
		total := 0.0
		for i, s := range c.slots {
			total += s
			c.slots[i] = 0
		}
		c.result = total
		c.arrived = 0
		c.generation++
		c.cond.Broadcast()
		return total, nil
	}

	for gen == c.generation && c.err == nil {
		c.cond.Wait()
	}
	if gen == c.generation {
		return 0, c.err
	}
	return c.result, nil
}

// Abort releases every rank blocked in Sum and fails all later collectives.
func (c *Comm) Abort(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		c.err = ErrAborted
		if err != nil {
			c.err = errors.Join(ErrAborted, err)
		}
	}
	c.cond.Broadcast()
}

func (c *Comm) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}
