package control

// TwoStep is a hysteresis controller. Once on it stays on until the
// measurement rises h/2 above the target; once off it stays off until the
// measurement falls h/2 below it.
type TwoStep struct {
	H      float64
	output float64
}

func NewTwoStep(h float64) *TwoStep {
	return &TwoStep{H: h}
}

func (c *TwoStep) Calculate(measurement, target, dt float64) float64 {
	corrected := target - 0.5*c.H
	if c.output > 0 {
		corrected = target + 0.5*c.H
	}
	if corrected-measurement <= 0 {
		c.output = 0
	} else {
		c.output = 1
	}
	return c.output
}

// Output returns the latched output of the previous call.
func (c *TwoStep) Output() float64 { return c.output }

func (c *TwoStep) Kind() Kind { return ModeTwoStep }

func (c *TwoStep) Config() Config {
	return Config{Mode: ModeTwoStep, H: c.H}
}

func (c *TwoStep) GetParams() map[string]float64 {
	return map[string]float64{"h": c.H}
}
