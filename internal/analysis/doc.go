// Package analysis characterises the oscillation of a closed loop.
//
// A two-step regulator settles into a limit cycle around its target rather
// than a fixed point; a PID loop should settle into the band and stay there.
//
//   - [PowerSpectrum], [DominantFrequency]: spectrum of a sampled series
//   - [LimitCycle]: period and amplitude from target crossings
//   - [Settling]: time after which the error stays within a band
package analysis
