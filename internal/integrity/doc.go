// Package integrity schedules integrity checks over a set of files.
//
// Runner fans paths out to a bounded pool of workers that evaluate each file
// through the decision engine. Workers never touch the store: a single
// orchestrator goroutine collects outcomes in completion order and feeds them
// to a batch buffer that flushes every configured number of results. In
// sequential mode each verdict is written as soon as it is known instead.
//
// Sweep removes verdicts for files that no longer exist and runs after a
// completed check.
package integrity
