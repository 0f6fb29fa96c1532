package integrity

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"audiocheck/internal/batch"
	"audiocheck/internal/decision"
	"audiocheck/internal/fingerprint"
	"audiocheck/internal/ledger"
	"audiocheck/internal/logging"
	"audiocheck/internal/verifier"
)

// Mode selects how verdicts reach the store.
type Mode int

const (
	// Batched runs workers concurrently and flushes verdicts in batches.
	Batched Mode = iota
	// Sequential checks one file at a time and writes each verdict immediately.
	Sequential
)

func (m Mode) String() string {
	if m == Sequential {
		return "sequential"
	}
	return "batched"
}

// Options configures a run.
type Options struct {
	Workers   int
	Force     bool
	Mode      Mode
	BatchSize int
}

// Store is the persistence surface a run needs.
type Store interface {
	decision.Lookup
	batch.Writer
	Snapshot(ctx context.Context) (*ledger.Snapshot, error)
}

// Observer receives progress notifications from the orchestrator goroutine.
type Observer interface {
	Started(total int)
	Result(out decision.Outcome)
}

// Runner checks files against the store.
type Runner struct {
	store    Store
	verifier verifier.Verifier
	resolver fingerprint.Resolver
	logger   *slog.Logger
	observer Observer
	opts     Options
}

// NewRunner constructs a Runner. A nil resolver selects the filesystem.
func NewRunner(store Store, v verifier.Verifier, resolver fingerprint.Resolver, logger *slog.Logger, opts Options) *Runner {
	if resolver == nil {
		resolver = fingerprint.OS{}
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = batch.DefaultSize
	}
	return &Runner{
		store:    store,
		verifier: v,
		resolver: resolver,
		logger:   logging.NewComponentLogger(logger, "integrity"),
		opts:     opts,
	}
}

// WithObserver attaches a progress observer.
func (r *Runner) WithObserver(o Observer) *Runner {
	r.observer = o
	return r
}

// Run checks every path. On cancellation, outcomes already collected are
// written before Run returns the context error. A store failure aborts the
// run; flushes committed before it remain.
func (r *Runner) Run(ctx context.Context, paths []string) (Report, error) {
	paths = dedupe(paths)
	start := time.Now()
	r.logger.Info("check started",
		logging.Int("files", len(paths)),
		logging.String("mode", r.opts.Mode.String()),
		logging.Int("workers", r.opts.Workers),
		logging.Bool("force", r.opts.Force),
		logging.String(logging.FieldEventType, "check_started"),
	)
	if r.observer != nil {
		r.observer.Started(len(paths))
	}

	var (
		report Report
		err    error
	)
	if r.opts.Mode == Sequential {
		report, err = r.runSequential(ctx, paths)
	} else {
		report, err = r.runBatched(ctx, paths)
	}
	report.Summary.Total = len(paths)
	report.Duration = time.Since(start)

	attrs := []logging.Attr{
		logging.Int("processed", report.Summary.Processed()),
		logging.Int("passed", report.Summary.Passed),
		logging.Int("failed", report.Summary.Failed),
		logging.Int("not_found", report.Summary.NotFound),
		logging.Int("errors", report.Summary.Errors),
		logging.Int("verified", report.Verified),
		logging.Duration("duration", report.Duration),
		logging.String(logging.FieldEventType, "check_finished"),
	}
	if err != nil {
		attrs = append(attrs, logging.Error(err))
		logging.WarnWithContext(r.logger, "check stopped early", "check_stopped",
			append(attrs, logging.String(logging.FieldImpact, "remaining files were not checked"))...)
		return report, err
	}
	r.logger.Info("check finished", logging.Args(attrs...)...)
	return report, nil
}

func (r *Runner) runBatched(ctx context.Context, paths []string) (Report, error) {
	var report Report
	snapshot, err := r.store.Snapshot(ctx)
	if err != nil {
		return report, fmt.Errorf("load stored verdicts: %w", err)
	}
	engine := decision.NewEngine(snapshot, r.resolver, r.verifier)
	buf := batch.New(r.store, r.opts.BatchSize, r.logger)
	// Writes must land even after the caller cancels.
	writeCtx := context.WithoutCancel(ctx)

	// Stopping dispatch leaves checks already running to finish, so their
	// verdicts are still collected after a store failure.
	dispatchCtx, stopDispatch := context.WithCancel(ctx)
	defer stopDispatch()

	results := make(chan decision.Outcome, r.opts.Workers)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.opts.Workers)
	go func() {
		defer close(results)
		for _, path := range paths {
			if dispatchCtx.Err() != nil {
				break
			}
			group.Go(func() error {
				if dispatchCtx.Err() != nil {
					return nil
				}
				out := engine.Process(groupCtx, path, r.opts.Force)
				if groupCtx.Err() != nil {
					// Interrupted mid-check; the verdict is not trustworthy.
					return nil
				}
				select {
				case results <- out:
				case <-groupCtx.Done():
				}
				return nil
			})
		}
		_ = group.Wait()
	}()

	var storeErr error
	for out := range results {
		report.add(out)
		if r.observer != nil {
			r.observer.Result(out)
		}
		if storeErr != nil {
			buf.Retain(out)
			continue
		}
		if _, err := buf.Add(writeCtx, out); err != nil {
			storeErr = err
			stopDispatch()
		}
	}

	if storeErr != nil {
		if retryErr := buf.Flush(writeCtx); retryErr != nil {
			r.logger.Debug("final flush retry failed", logging.Error(retryErr))
		}
		report.Flushes, _ = buf.Stats()
		report.Unsaved = buf.Pending()
		return report, storeErr
	}
	closeErr := buf.Close(writeCtx)
	report.Flushes, _ = buf.Stats()
	report.Unsaved = buf.Pending()
	if closeErr != nil {
		return report, closeErr
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (r *Runner) runSequential(ctx context.Context, paths []string) (Report, error) {
	var report Report
	engine := decision.NewEngine(r.store, r.resolver, r.verifier)
	writeCtx := context.WithoutCancel(ctx)

	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		out := engine.Process(ctx, path, r.opts.Force)
		if ctx.Err() != nil {
			break
		}
		report.add(out)
		if r.observer != nil {
			r.observer.Result(out)
		}
		if writes := batch.Writes(out); !writes.Empty() {
			if err := r.store.ApplyBatch(writeCtx, writes); err != nil {
				report.Unsaved = writes.Len()
				return report, fmt.Errorf("%w: %s: %w", batch.ErrStoreWrite, path, err)
			}
			report.Flushes++
		}
	}
	return report, ctx.Err()
}

func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		key := ledger.Key(p)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}
