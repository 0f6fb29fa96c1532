package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"audiocheck/internal/fileutil"
	"audiocheck/internal/inspect"
	"audiocheck/internal/ledger"
	"audiocheck/internal/logging"
	"audiocheck/internal/report"
)

func newDBCheckCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dbcheck",
		Short: "Inspect and maintain the verdict database",
	}
	cmd.AddCommand(newDBStatsCommand(ctx))
	cmd.AddCommand(newDBListCommand(ctx))
	cmd.AddCommand(newDBExportCommand(ctx))
	cmd.AddCommand(newDBMigrateCommand(ctx))
	cmd.AddCommand(newDBWatchCommand(ctx))
	cmd.AddCommand(newDBHealthCommand(ctx))
	return cmd
}

func (c *commandContext) withStore(fn func(*ledger.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := ledger.OpenExisting(cfg.DatabasePath())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newDBStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show record counts per verdict",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *ledger.Store) error {
				stats, err := inspect.QuickStats(cmd.Context(), store)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, statsResponse{
						Path:      stats.Path,
						SizeBytes: stats.SizeBytes,
						Passed:    stats.Counts.Passed,
						Failed:    stats.Counts.Failed,
						Total:     stats.Counts.Total(),
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database: %s (%s)\n", stats.Path, humanize.Bytes(uint64(stats.SizeBytes)))
				rows := [][]string{
					{"Passed", humanize.Comma(int64(stats.Counts.Passed)), fmt.Sprintf("%.1f%%", stats.Share(stats.Counts.Passed))},
					{"Failed", humanize.Comma(int64(stats.Counts.Failed)), fmt.Sprintf("%.1f%%", stats.Share(stats.Counts.Failed))},
					{"Total", humanize.Comma(int64(stats.Counts.Total())), ""},
				}
				fmt.Fprintln(out, report.RenderTable([]string{"Verdict", "Files", "Share"}, rows,
					[]report.Alignment{report.AlignLeft, report.AlignRight, report.AlignRight}))
				return nil
			})
		},
	}
}

type statsResponse struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	Passed    int    `json:"passed"`
	Failed    int    `json:"failed"`
	Total     int    `json:"total"`
}

type listFlags struct {
	verify bool
	filter string
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.verify, "verify", false, "Re-check each record against the file on disk")
	cmd.Flags().StringVar(&f.filter, "filter", "all", "Records to include: all, passed or failed")
}

func (f *listFlags) options() (inspect.ListOptions, error) {
	filter, err := inspect.ParseFilter(f.filter)
	if err != nil {
		return inspect.ListOptions{}, err
	}
	return inspect.ListOptions{Verify: f.verify, Filter: filter}, nil
}

func newDBListCommand(ctx *commandContext) *cobra.Command {
	var flags listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored verdicts",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *ledger.Store) error {
				entries, tally, err := inspect.List(cmd.Context(), store, opts)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return inspect.Export(cmd.OutOrStdout(), entries, inspect.FormatJSON)
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No records")
				} else {
					rows := make([][]string, 0, len(entries))
					for _, e := range entries {
						checked := ""
						if !e.LastChecked.IsZero() {
							checked = e.LastChecked.Local().Format("2006-01-02 15:04:05")
						}
						rows = append(rows, []string{e.State, e.Path, checked, e.Message})
					}
					fmt.Fprintln(out, report.RenderTable([]string{"Status", "File", "Last Checked", "Message"}, rows, nil))
				}
				fmt.Fprintln(out, tallyLine(tally))
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func tallyLine(tally inspect.Tally) string {
	states := make([]string, 0, len(tally))
	for state := range tally {
		states = append(states, state)
	}
	sort.Strings(states)
	parts := make([]string, 0, len(states)+1)
	for _, state := range states {
		parts = append(parts, fmt.Sprintf("%s: %d", state, tally[state]))
	}
	parts = append(parts, fmt.Sprintf("Total: %d", tally.Total()))
	return strings.Join(parts, ", ")
}

func newDBExportCommand(ctx *commandContext) *cobra.Command {
	var flags listFlags
	var format string
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored verdicts as CSV, JSON or YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			fmtValue, err := inspect.ParseFormat(format)
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *ledger.Store) error {
				entries, _, err := inspect.List(cmd.Context(), store, opts)
				if err != nil {
					return err
				}
				if output == "-" {
					return inspect.Export(cmd.OutOrStdout(), entries, fmtValue)
				}
				target := strings.TrimSpace(output)
				if target == "" {
					target = inspect.ExportName(opts.Filter, fmtValue, time.Now())
				}
				if err := writeExport(target, entries, fmtValue); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d record(s) to %s\n", len(entries), target)
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Export format: csv, json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (\"-\" for stdout)")
	return cmd
}

func writeExport(path string, entries []inspect.Entry, format inspect.Format) error {
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return inspect.Export(w, entries, format)
	})
}

func newDBMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Add missing columns and backfill modification times",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ledger.OpenPath(cfg.DatabasePath())
			if err != nil {
				return err
			}
			defer store.Close()

			m := store.OpenMigration()
			if ctx.JSONMode() {
				return writeJSON(cmd, migrateResponse{
					Path:         store.Path(),
					AddedColumns: m.AddedColumns,
					Backfilled:   m.Backfilled,
				})
			}
			out := cmd.OutOrStdout()
			if !m.Changed() {
				fmt.Fprintf(out, "Database %s is up to date\n", store.Path())
				return nil
			}
			tables := make([]string, 0, len(m.AddedColumns))
			for table := range m.AddedColumns {
				tables = append(tables, table)
			}
			sort.Strings(tables)
			for _, table := range tables {
				fmt.Fprintf(out, "Added to %s: %s\n", table, strings.Join(m.AddedColumns[table], ", "))
			}
			fmt.Fprintf(out, "Backfilled modification time for %d record(s)\n", m.Backfilled)
			return nil
		},
	}
}

type migrateResponse struct {
	Path         string              `json:"path"`
	AddedColumns map[string][]string `json:"added_columns"`
	Backfilled   int                 `json:"backfilled"`
}

func newDBWatchCommand(ctx *commandContext) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print verdict count changes as a check run progresses",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *ledger.Store) error {
				watchCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", store.Path())
				return inspect.Watch(watchCtx, store, interval, logging.NewNop(), func(c inspect.Change) {
					printChange(out, c)
				})
			})
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", inspect.DefaultWatchInterval, "Polling interval when no filesystem events arrive")
	return cmd
}

func printChange(out io.Writer, c inspect.Change) {
	stamp := c.At.Format("15:04:05")
	lines := c.Lines()
	if len(lines) == 0 {
		fmt.Fprintf(out, "[%s] Passed: %d, Failed: %d, Total: %d\n", stamp, c.After.Passed, c.After.Failed, c.After.Total())
		return
	}
	for _, line := range lines {
		fmt.Fprintf(out, "[%s] %s\n", stamp, line)
	}
}

func newDBHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check verdict database health (tables, columns, integrity)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *ledger.Store) error {
				health, err := store.CheckHealth(cmd.Context())
				if err != nil && health.Error == "" {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, health)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database path: %s\n", health.DBPath)
				fmt.Fprintf(out, "Database exists: %s\n", yesNo(health.DatabaseExists))
				fmt.Fprintf(out, "Readable: %s\n", yesNo(health.DatabaseReadable))
				if len(health.TablesPresent) > 0 {
					fmt.Fprintf(out, "Tables: %s\n", strings.Join(health.TablesPresent, ", "))
				}
				if len(health.MissingColumns) > 0 {
					missing := append([]string(nil), health.MissingColumns...)
					sort.Strings(missing)
					fmt.Fprintf(out, "Missing columns: %s\n", strings.Join(missing, ", "))
				} else {
					fmt.Fprintln(out, "Missing columns: none")
				}
				fmt.Fprintf(out, "Integrity check: %s\n", health.IntegrityCheck)
				fmt.Fprintf(out, "Passed: %d\n", health.Counts.Passed)
				fmt.Fprintf(out, "Failed: %d\n", health.Counts.Failed)
				if health.Error != "" {
					fmt.Fprintf(out, "Error: %s\n", health.Error)
				}
				return err
			})
		},
	}
}
