// Package control provides the control laws a regulator evaluates once per
// tick.
//
// Two methods are available, selected by the mode tag of a [Config]:
//
//   - [TwoStep]: hysteresis (bang-bang) control, output 0 or 1
//   - [PID]: Proportional-Integral-Derivative control with output clamping
//
// # Usage
//
//	m, err := control.New(control.Config{Mode: control.ModePID, Kp: 0.5, Ti: 20, OutputMin: 0, OutputMax: 1})
//	u := m.Calculate(measurement, target, dt) // dt must be > 0
//
// Methods carry state between calls (latched output, error integral,
// previous error) and are not safe for concurrent use.
package control
