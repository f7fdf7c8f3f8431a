package sim

// Clock counts ticks of a run. It satisfies regulator.Clock.
//
// The clock is advanced by the simulator between ticks only, so readers
// running during a tick see a fixed index and time.
type Clock struct {
	index int
	t     float64
	dt    float64
}

func NewClock(dt float64) *Clock {
	return &Clock{dt: dt}
}

func (c *Clock) TimeIndex() int  { return c.index }
func (c *Clock) Time() float64   { return c.t }
func (c *Clock) DeltaT() float64 { return c.dt }

func (c *Clock) Advance() {
	c.index++
	c.t = float64(c.index) * c.dt
}

// Reset rewinds the clock to tick zero with step dt.
func (c *Clock) Reset(dt float64) {
	c.index = 0
	c.t = 0
	c.dt = dt
}
