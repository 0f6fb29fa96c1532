package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"audiocheck/internal/decision"
	"audiocheck/internal/ledger"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type palette struct {
	passed *color.Color
	failed *color.Color
	warn   *color.Color
}

func newPalette(colorize bool) palette {
	p := palette{
		passed: color.New(color.FgGreen),
		failed: color.New(color.FgRed),
		warn:   color.New(color.FgYellow),
	}
	if !colorize {
		p.passed.DisableColor()
		p.failed.DisableColor()
		p.warn.DisableColor()
	}
	return p
}

func (p palette) forOutcome(out decision.Outcome) *color.Color {
	switch {
	case !out.Verdict():
		return p.warn
	case out.Status == ledger.StatusPassed:
		return p.passed
	default:
		return p.failed
	}
}

// consoleObserver prints per-file lines in verbose mode and drives a progress
// bar otherwise. Failures are always printed.
type consoleObserver struct {
	out      io.Writer
	verbose  bool
	showBar  bool
	colors   palette
	bar      *progressbar.ProgressBar
	finished bool
}

func newConsoleObserver(out io.Writer, verbose bool) *consoleObserver {
	interactive := shouldColorize(out)
	return &consoleObserver{
		out:     out,
		verbose: verbose,
		showBar: interactive && !verbose,
		colors:  newPalette(interactive),
	}
}

func (o *consoleObserver) Started(total int) {
	if !o.showBar || total == 0 {
		return
	}
	o.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(o.out),
		progressbar.OptionSetDescription("Checking"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func (o *consoleObserver) Result(out decision.Outcome) {
	if o.verbose || out.Status != ledger.StatusPassed {
		if o.bar != nil {
			_ = o.bar.Clear()
		}
		o.colors.forOutcome(out).Fprintln(o.out, out.Line())
	}
	if o.bar != nil {
		_ = o.bar.Add(1)
	}
}

func (o *consoleObserver) Finish() {
	if o.bar == nil || o.finished {
		return
	}
	o.finished = true
	_ = o.bar.Finish()
	fmt.Fprintln(o.out)
}
