package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"audiocheck/internal/decision"
	"audiocheck/internal/integrity"
	"audiocheck/internal/ledger"
)

const (
	logTimestampLayout = "2006-01-02_15-04-05"
	failedLogPrefix    = "Failed-"
	successLogPrefix   = "Success-"
	resultLogExt       = ".txt"
)

// ResultLogs writes passed outcomes to a Success- file and everything else to
// a Failed- file.
type ResultLogs struct {
	FailedPath  string
	SuccessPath string
	failed      *os.File
	success     *os.File
}

// OpenResultLogs creates both result logs in dir, stamped with now.
func OpenResultLogs(dir string, now time.Time) (*ResultLogs, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	stamp := now.Format(logTimestampLayout)
	logs := &ResultLogs{
		FailedPath:  filepath.Join(dir, failedLogPrefix+stamp+resultLogExt),
		SuccessPath: filepath.Join(dir, successLogPrefix+stamp+resultLogExt),
	}
	var err error
	if logs.failed, err = os.Create(logs.FailedPath); err != nil {
		return nil, fmt.Errorf("create failed log: %w", err)
	}
	if logs.success, err = os.Create(logs.SuccessPath); err != nil {
		_ = logs.failed.Close()
		return nil, fmt.Errorf("create success log: %w", err)
	}
	return logs, nil
}

// Write appends one outcome line to the matching log.
func (l *ResultLogs) Write(out decision.Outcome) error {
	w := io.Writer(l.failed)
	if out.Verdict() && out.Status == ledger.StatusPassed {
		w = l.success
	}
	_, err := fmt.Fprintln(w, out.Line())
	return err
}

// Close appends the summary to both logs and closes them.
func (l *ResultLogs) Close(s integrity.Summary) error {
	text := SummaryText(s)
	var errs []error
	for _, f := range []*os.File{l.failed, l.success} {
		if _, err := io.WriteString(f, text); err != nil {
			errs = append(errs, err)
		}
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SummaryText renders counts in the plain form appended to result logs.
func SummaryText(s integrity.Summary) string {
	var b strings.Builder
	b.WriteString("\nSummary:\n")
	fmt.Fprintf(&b, "Total files: %d\n", s.Total)
	fmt.Fprintf(&b, "Passed: %d\n", s.Passed)
	fmt.Fprintf(&b, "Failed: %d\n", s.Failed)
	if s.NotFound > 0 {
		fmt.Fprintf(&b, "Not found: %d\n", s.NotFound)
	}
	if s.Errors > 0 {
		fmt.Fprintf(&b, "Errors: %d\n", s.Errors)
	}
	return b.String()
}
