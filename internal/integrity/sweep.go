package integrity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"audiocheck/internal/fingerprint"
	"audiocheck/internal/ledger"
	"audiocheck/internal/logging"
)

// SweepStore is the persistence surface Sweep needs.
type SweepStore interface {
	ListAll(ctx context.Context) ([]ledger.Record, error)
	Delete(ctx context.Context, paths []string) (int, error)
}

// Sweep deletes the verdicts of files that no longer exist, in one
// transaction, and returns how many records were removed. Files that cannot
// be statted for any other reason keep their records.
func Sweep(ctx context.Context, store SweepStore, resolver fingerprint.Resolver, logger *slog.Logger) (int, error) {
	if resolver == nil {
		resolver = fingerprint.OS{}
	}
	logger = logging.NewComponentLogger(logger, "sweep")

	records, err := store.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("sweep: %w", err)
	}
	var gone []string
	for _, rec := range records {
		_, err := resolver.Stat(rec.Path)
		switch {
		case err == nil:
		case errors.Is(err, fingerprint.ErrNotFound):
			gone = append(gone, rec.Path)
		default:
			logger.Debug("record kept; file could not be statted",
				logging.String(logging.FieldPath, rec.Path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "sweep_stat_failed"),
			)
		}
	}
	if len(gone) == 0 {
		return 0, nil
	}
	removed, err := store.Delete(ctx, gone)
	if err != nil {
		return 0, fmt.Errorf("sweep: %w", err)
	}
	logger.Info("removed verdicts for missing files",
		logging.Int("removed", removed),
		logging.Int("scanned", len(records)),
		logging.String(logging.FieldEventType, "sweep_completed"),
	)
	return removed, nil
}
