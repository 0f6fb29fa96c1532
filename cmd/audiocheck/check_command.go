package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"audiocheck/internal/config"
	"audiocheck/internal/discover"
	"audiocheck/internal/fingerprint"
	"audiocheck/internal/integrity"
	"audiocheck/internal/ledger"
	"audiocheck/internal/logging"
	"audiocheck/internal/preflight"
	"audiocheck/internal/report"
	"audiocheck/internal/runlock"
	"audiocheck/internal/verifier"
)

type checkOptions struct {
	verbose   bool
	summary   bool
	saveLog   bool
	recheck   bool
	workers   int
	batchSize int
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var opts checkOptions

	cmd := &cobra.Command{
		Use:   "check <path>...",
		Short: "Verify audio files, reusing cached verdicts for unchanged files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runCheck(cmd, ctx, cfg, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Check one file at a time and print every result")
	cmd.Flags().BoolVarP(&opts.summary, "summary", "s", false, "Print only the summary")
	cmd.Flags().BoolVar(&opts.saveLog, "save-log", false, "Write Failed-/Success- result logs to the log directory")
	cmd.Flags().BoolVarP(&opts.recheck, "recheck", "r", false, "Ignore cached verdicts and verify every file")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Worker count (default from config, 0 = CPU count)")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "Verdicts written per database transaction")
	cmd.MarkFlagsMutuallyExclusive("verbose", "summary")
	return cmd
}

func runCheck(cmd *cobra.Command, cmdCtx *commandContext, cfg *config.Config, targets []string, opts checkOptions) error {
	if opts.workers < 0 || opts.batchSize < 0 {
		return errors.New("--workers and --batch-size must not be negative")
	}
	if opts.workers > 0 {
		cfg.Check.Workers = opts.workers
	}
	if opts.batchSize > 0 {
		cfg.Check.BatchSize = opts.batchSize
	}

	runID := uuid.NewString()
	logger, err := logging.NewFromConfig(cfg, runID)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	pruneLogs(logger, cfg, runID)

	if err := preflight.Summarize(preflight.RunAll(cfg)); err != nil {
		return err
	}

	lock, err := runlock.Acquire(cfg.LockPath())
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("failed to release run lock", logging.String(logging.FieldPath, lock.Path()), logging.Error(err))
		}
	}()

	store, err := ledger.Open(cfg)
	if err != nil {
		return fmt.Errorf("open verdict database: %w", err)
	}
	defer store.Close()
	if m := store.OpenMigration(); m.Changed() {
		logger.Info("verdict database migrated",
			logging.Any("added_columns", m.AddedColumns),
			logging.Int("backfilled", m.Backfilled),
			logging.String(logging.FieldEventType, "schema_migrated"),
		)
	}

	paths, err := collectPaths(cfg, targets)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mode := integrity.Batched
	if opts.verbose {
		mode = integrity.Sequential
	}
	v := verifier.FFmpeg{
		Binary:  cfg.VerifierBinary(),
		Args:    cfg.Verifier.Args,
		Timeout: cfg.VerifierTimeout(),
	}
	runner := integrity.NewRunner(store, v, fingerprint.OS{}, logger, integrity.Options{
		Workers:   cfg.WorkerCount(),
		Force:     opts.recheck,
		Mode:      mode,
		BatchSize: cfg.Check.BatchSize,
	})

	out := cmd.OutOrStdout()
	var observer *consoleObserver
	if !opts.summary && !cmdCtx.JSONMode() {
		observer = newConsoleObserver(out, opts.verbose)
		runner.WithObserver(observer)
	}

	rep, runErr := runner.Run(runCtx, paths)
	if observer != nil {
		observer.Finish()
	}

	swept := 0
	if runErr == nil {
		swept, runErr = integrity.Sweep(runCtx, store, fingerprint.OS{}, logger)
	}

	var resultLogs *report.ResultLogs
	if opts.saveLog || cfg.Report.SaveLogs || (!opts.verbose && !opts.summary) {
		resultLogs, err = writeResultLogs(cfg.Paths.LogDir, rep)
		if err != nil {
			logging.WarnWithContext(logger, "result logs not written", "result_logs_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "per-file results are only in the run log"),
			)
		}
	}

	if cfg.Report.MetricsFile != "" {
		if err := report.WriteMetrics(cfg.Report.MetricsFile, rep, swept); err != nil {
			logging.WarnWithContext(logger, "metrics file not written", "metrics_failed",
				logging.String(logging.FieldPath, cfg.Report.MetricsFile),
				logging.Error(err),
			)
		}
	}

	if cmdCtx.JSONMode() {
		if err := writeJSON(cmd, checkResponse{
			RunID:    runID,
			Summary:  rep.Summary,
			Verified: rep.Verified,
			Swept:    swept,
			Duration: rep.Duration.Round(time.Millisecond).String(),
		}); err != nil {
			return err
		}
		return runErr
	}

	fmt.Fprintln(out, report.SummaryTable(rep.Summary))
	if swept > 0 {
		fmt.Fprintf(out, "Removed %d stale record(s) for files no longer on disk\n", swept)
	}
	if resultLogs != nil {
		fmt.Fprintf(out, "Failed log: %s\n", resultLogs.FailedPath)
		fmt.Fprintf(out, "Success log: %s\n", resultLogs.SuccessPath)
	}
	if rep.Unsaved > 0 {
		fmt.Fprintf(out, "%d result(s) could not be saved to the database\n", rep.Unsaved)
	}
	return runErr
}

type checkResponse struct {
	RunID    string            `json:"run_id"`
	Summary  integrity.Summary `json:"summary"`
	Verified int               `json:"verified"`
	Swept    int               `json:"swept"`
	Duration string            `json:"duration"`
}

func collectPaths(cfg *config.Config, targets []string) ([]string, error) {
	opts := discover.Options{Extensions: cfg.Check.Extensions, Exclude: cfg.Check.Exclude}
	var paths []string
	for _, target := range targets {
		expanded, err := config.ExpandPath(target)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", target, err)
		}
		found, err := discover.Discover(expanded, opts)
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}
	return paths, nil
}

func writeResultLogs(dir string, rep integrity.Report) (*report.ResultLogs, error) {
	logs, err := report.OpenResultLogs(dir, time.Now())
	if err != nil {
		return nil, err
	}
	var errs []error
	for _, out := range rep.Results {
		if err := logs.Write(out); err != nil {
			errs = append(errs, err)
			break
		}
	}
	errs = append(errs, logs.Close(rep.Summary))
	return logs, errors.Join(errs...)
}

func pruneLogs(logger *slog.Logger, cfg *config.Config, runID string) {
	dir := cfg.Paths.LogDir
	removed := report.PruneLogs(logger, dir, cfg.Logging.RetentionDays, logging.RunLogPath(dir, runID))
	if removed > 0 {
		logger.Info("old logs pruned",
			logging.Int("removed", removed),
			logging.String(logging.FieldEventType, "log_retention"),
		)
	}
}
