// Package logging assembles structured slog loggers and formatting helpers used
// across audiocheck.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, tags every record of a check run with its run identifier, and
// prunes old run logs. The package also provides a no-op logger for tests and
// wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components
// emit data with the same shape as the rest of the tool.
package logging
