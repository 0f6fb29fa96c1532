package inspect

import (
	"context"
	"os"

	"audiocheck/internal/ledger"
)

// Stats is a quick view of the database.
type Stats struct {
	Path      string
	SizeBytes int64
	Counts    ledger.Counts
}

// Share returns n as a percentage of the total record count.
func (s Stats) Share(n int) float64 {
	total := s.Counts.Total()
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// Counter is the read surface QuickStats needs.
type Counter interface {
	Counts(ctx context.Context) (ledger.Counts, error)
	Path() string
}

// QuickStats counts records per partition.
func QuickStats(ctx context.Context, store Counter) (Stats, error) {
	counts, err := store.Counts(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Path: store.Path(), Counts: counts}
	if info, err := os.Stat(stats.Path); err == nil {
		stats.SizeBytes = info.Size()
	}
	return stats, nil
}
