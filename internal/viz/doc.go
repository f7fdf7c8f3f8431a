// Package viz draws closed-loop runs: terminal charts with asciigraph, PNG
// charts with gonum/plot and a live Bubble Tea view of a running loop.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	+/-   - Ticks drawn per frame
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Stop the run and quit
package viz
