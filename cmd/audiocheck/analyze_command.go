package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"audiocheck/internal/config"
	"audiocheck/internal/deps"
	"audiocheck/internal/ffprobe"
	"audiocheck/internal/fileutil"
	"audiocheck/internal/report"
)

type analyzeOptions struct {
	binary  string
	output  string
	workers int
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze <path>...",
		Short: "Report codec, sample rate, bit depth, channels and bitrate of audio files",
		Long: "Analyze reads stream metadata with ffprobe and flags each file as lossless or lossy.\n" +
			"Low bit depth or sample rate is reported as a warning. The verdict database is not touched.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runAnalyze(cmd, ctx, cfg, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.binary, "ffprobe", "ffprobe", "ffprobe executable")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Also write the report table to this file")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Worker count (default from config, 0 = CPU count)")
	return cmd
}

func runAnalyze(cmd *cobra.Command, cmdCtx *commandContext, cfg *config.Config, targets []string, opts analyzeOptions) error {
	if opts.workers < 0 {
		return errors.New("--workers must not be negative")
	}
	if opts.workers > 0 {
		cfg.Check.Workers = opts.workers
	}
	status := deps.CheckBinaries([]deps.Requirement{{
		Name:        "FFprobe",
		Command:     opts.binary,
		Description: "Required to read audio stream metadata",
	}})
	if missing := deps.Missing(status); len(missing) > 0 {
		return fmt.Errorf("%s: %s", missing[0].Name, missing[0].Detail)
	}

	paths, err := collectPaths(cfg, targets)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := analyzeAll(runCtx, status[0].Command, paths, cfg.WorkerCount())
	if err != nil {
		return err
	}

	if opts.output != "" {
		table := renderAnalysis(results)
		if err := fileutil.WriteAtomic(opts.output, 0o644, func(w io.Writer) error {
			_, err := io.WriteString(w, table+"\n")
			return err
		}); err != nil {
			return fmt.Errorf("write analysis: %w", err)
		}
	}

	if cmdCtx.JSONMode() {
		return writeJSON(cmd, analyzeResponse{Files: results})
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "No audio files found")
		return nil
	}
	fmt.Fprintln(out, renderAnalysis(results))
	if opts.output != "" {
		fmt.Fprintf(out, "Analysis saved to %s\n", opts.output)
	}
	return nil
}

type analyzeResponse struct {
	Files []ffprobe.Analysis `json:"files"`
}

// analyzeAll keeps results in path order regardless of completion order.
func analyzeAll(ctx context.Context, binary string, paths []string, workers int) ([]ffprobe.Analysis, error) {
	results := make([]ffprobe.Analysis, len(paths))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(max(workers, 1))
	for i, path := range paths {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			results[i] = ffprobe.AnalyzeFile(groupCtx, binary, path)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func renderAnalysis(results []ffprobe.Analysis) string {
	rows := make([][]string, 0, len(results))
	for _, a := range results {
		notes := strings.Join(a.Warnings, "; ")
		if a.Error != "" {
			notes = a.Error
		}
		rows = append(rows, []string{
			a.Path,
			orNA(a.Codec),
			string(a.Encoding),
			formatUnit(int64(a.SampleRate), "Hz"),
			formatUnit(int64(a.BitDepth), "bit"),
			a.ChannelLabel(),
			formatBitRate(a.BitRate),
			notes,
		})
	}
	return report.RenderTable(
		[]string{"File", "Codec", "Encoding", "Sample rate", "Bit depth", "Channels", "Bitrate", "Notes"},
		rows,
		[]report.Alignment{report.AlignLeft, report.AlignLeft, report.AlignLeft, report.AlignRight, report.AlignRight},
	)
}

func formatUnit(v int64, unit string) string {
	if v <= 0 {
		return "N/A"
	}
	return humanize.Comma(v) + " " + unit
}

func formatBitRate(bps int64) string {
	if bps <= 0 {
		return "N/A"
	}
	return humanize.Comma(bps/1000) + " kbps"
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
