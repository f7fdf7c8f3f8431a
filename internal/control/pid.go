package control

import "math"

// tiEpsilon keeps the integral term finite when Ti is zero.
const tiEpsilon = 1e-15

// PID integrates the error with the rectangular rule and differentiates it
// against the error of the previous call. The output is clamped to
// [OutputMin, OutputMax].
type PID struct {
	Kp        float64
	Ti        float64
	Td        float64
	OutputMin float64
	OutputMax float64

	integral float64
	prevErr  float64
}

func NewPID(kp, ti, td, outMin, outMax float64) *PID {
	return &PID{
		Kp:        kp,
		Ti:        ti,
		Td:        td,
		OutputMin: outMin,
		OutputMax: outMax,
	}
}

// Calculate advances the integral and derivative state by one step.
// dt must be positive.
func (p *PID) Calculate(measurement, target, dt float64) float64 {
	err := target - measurement

	p.integral += err * dt
	derivative := (err - p.prevErr) / dt
	p.prevErr = err

	u := p.Kp * (err + p.integral/(p.Ti+tiEpsilon) + p.Td*derivative)

	return math.Max(math.Min(u, p.OutputMax), p.OutputMin)
}

// Integral returns the accumulated error integral.
func (p *PID) Integral() float64 { return p.integral }

// PreviousError returns the error seen by the last call.
func (p *PID) PreviousError() float64 { return p.prevErr }

func (p *PID) Kind() Kind { return ModePID }

func (p *PID) Config() Config {
	return Config{
		Mode:      ModePID,
		Kp:        p.Kp,
		Ti:        p.Ti,
		Td:        p.Td,
		OutputMin: p.OutputMin,
		OutputMax: p.OutputMax,
	}
}

// GetParams returns the gains for display.
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp":        p.Kp,
		"Ti":        p.Ti,
		"Td":        p.Td,
		"outputMin": p.OutputMin,
		"outputMax": p.OutputMax,
	}
}
