package report

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"audiocheck/internal/logging"
)

// PruneLogs removes run logs and result logs in dir whose modification time
// is older than retentionDays, sparing keep (the current run log). It returns
// the number of files removed. Zero days disables pruning.
func PruneLogs(logger *slog.Logger, dir string, retentionDays int, keep string) int {
	dir = strings.TrimSpace(dir)
	if retentionDays <= 0 || dir == "" {
		return 0
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	if keep != "" {
		keep = filepath.Clean(keep)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !prunable(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if path == keep {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			logging.WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				logging.String(logging.FieldPath, path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check file permissions and log_dir ownership"),
			)
			continue
		}
		removed++
		if logger != nil {
			logger.Debug("log pruned",
				logging.String(logging.FieldPath, path),
				logging.String(logging.FieldEventType, "log_pruned"),
			)
		}
	}
	return removed
}

// prunable matches the files audiocheck itself writes into the log directory.
func prunable(name string) bool {
	runLog := filepath.Base(logging.RunLogPath("", "*"))
	for _, pattern := range []string{
		runLog,
		failedLogPrefix + "*" + resultLogExt,
		successLogPrefix + "*" + resultLogExt,
	} {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
