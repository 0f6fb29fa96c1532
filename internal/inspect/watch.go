package inspect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"audiocheck/internal/ledger"
	"audiocheck/internal/logging"
)

// DefaultWatchInterval is the polling fallback used alongside filesystem events.
const DefaultWatchInterval = 2 * time.Second

// Change describes a difference between two successive count readings.
type Change struct {
	Before ledger.Counts
	After  ledger.Counts
	At     time.Time
}

// Lines renders the changed partitions as "Passed: a → b".
func (c Change) Lines() []string {
	var lines []string
	if c.Before.Passed != c.After.Passed {
		lines = append(lines, fmt.Sprintf("Passed: %d → %d", c.Before.Passed, c.After.Passed))
	}
	if c.Before.Failed != c.After.Failed {
		lines = append(lines, fmt.Sprintf("Failed: %d → %d", c.Before.Failed, c.After.Failed))
	}
	return lines
}

// Watch reports count changes until ctx is cancelled. Database and WAL file
// writes trigger an immediate re-read; the interval ticker covers
// filesystems that deliver no events. The initial counts are reported once
// with Before equal to After.
func Watch(ctx context.Context, store Counter, interval time.Duration, logger *slog.Logger, onChange func(Change)) error {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	last, err := store.Counts(ctx)
	if err != nil {
		return err
	}
	onChange(Change{Before: last, After: last, At: time.Now()})

	var events <-chan fsnotify.Event
	var watchErrs <-chan error
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("filesystem watch unavailable; polling only",
			logging.String(logging.FieldEventType, "watch_fallback"),
			logging.Error(err),
		)
	} else {
		defer watcher.Close()
		if err := watcher.Add(filepath.Dir(store.Path())); err != nil {
			logger.Warn("filesystem watch unavailable; polling only",
				logging.String(logging.FieldEventType, "watch_fallback"),
				logging.Error(err),
			)
		} else {
			events = watcher.Events
			watchErrs = watcher.Errors
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	dbName := filepath.Base(store.Path())
	refresh := func() error {
		counts, err := store.Counts(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			logger.Warn("count refresh failed", logging.Error(err))
			return nil
		}
		if counts != last {
			onChange(Change{Before: last, After: counts, At: time.Now()})
			last = counts
		}
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !relevant(ev, dbName) {
				continue
			}
			if err := refresh(); err != nil {
				return nil
			}
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			logger.Debug("watch error", logging.Error(err))
		case <-ticker.C:
			if err := refresh(); err != nil {
				return nil
			}
		}
	}
}

func relevant(ev fsnotify.Event, dbName string) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	name := filepath.Base(ev.Name)
	return name == dbName || name == dbName+"-wal"
}
