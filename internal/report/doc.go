// Package report renders the results of a check run: the summary table shown
// on the console, the timestamped Failed-/Success- result logs written to the
// log directory, and an optional Prometheus textfile for node_exporter.
package report
