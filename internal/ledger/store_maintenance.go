package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// CheckHealth returns diagnostic information about the verdict database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	ctx = ensureContext(ctx)
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("verdict database path is unknown")
	}
	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat verdict database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("verdict database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("verdict database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping verdict database: %w", err)
	}
	health.DatabaseReadable = true

	for _, partition := range Partitions {
		var exists int
		if err := s.db.QueryRowContext(connCtx,
			"SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = ?", partition.table()).Scan(&exists); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("query table %s: %w", partition.table(), err)
		}
		if exists == 0 {
			continue
		}
		health.TablesPresent = append(health.TablesPresent, partition.table())

		columns, err := tableColumns(connCtx, s.db, partition.table())
		if err != nil {
			health.Error = err.Error()
			return health, err
		}
		for _, col := range expectedColumns {
			if _, ok := columns[col.name]; !ok {
				health.MissingColumns = append(health.MissingColumns, partition.table()+"."+col.name)
			}
		}
	}

	if err := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check").Scan(&health.IntegrityCheck); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}

	if len(health.TablesPresent) == len(Partitions) {
		counts, err := s.Counts(connCtx)
		if err != nil {
			health.Error = err.Error()
			return health, err
		}
		health.Counts = counts
	}
	return health, nil
}
