// Package regulator ties a sensor, a control method and a setpoint together
// into one feedback regulator.
//
// Each call to [Regulator.Read] is one control tick: read the clock, evaluate
// the target at the current time, read the sensor and evaluate the control
// law. The control law is evaluated at most once per tick index; further
// reads within the same tick return the cached signal so that integral and
// derivative state age exactly once per tick.
//
// A Regulator is owned by a single caller and is not safe for concurrent
// use. Under domain decomposition each partition owns its own Regulator.
package regulator
