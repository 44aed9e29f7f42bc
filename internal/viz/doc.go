// Package viz renders heat-sink runs in the terminal.
//
//   - [Model]: Bubble Tea live view fed by a [Feed] while a run is in progress
//   - [Watch]: runs a simulation behind the live view and returns its outcome
//   - [ProfilePlot], [ConvergencePlot]: asciigraph charts of saved runs
//   - [Summary]: end-of-run table with temperatures in °C
//
// # Key Bindings
//
//	q, Ctrl+C - Cancel the run and quit
//	p         - Toggle the plot between max rate and mean temperatures
package viz
