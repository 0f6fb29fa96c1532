package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"slices"

	"audiocheck/internal/fingerprint"
)

//go:embed schema.sql
var schemaSQL string

type columnSpec struct {
	name    string
	sqlType string
}

// expectedColumns lists the verdict columns every partition must carry.
var expectedColumns = []columnSpec{
	{"file_path", "TEXT"},
	{"file_hash", "TEXT"},
	{"mtime", "REAL"},
	{"status", "TEXT"},
	{"last_checked", "TEXT"},
}

// Migrate creates missing tables, adds any missing columns to tables written
// by earlier releases, and backfills mtime for rows that gained the column by
// statting each path. Rows whose file is gone keep a NULL mtime. Running it on
// a current database changes nothing.
func (s *Store) Migrate(ctx context.Context) (MigrationReport, error) {
	ctx = ensureContext(ctx)
	report := MigrationReport{}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		report = MigrationReport{}
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		for _, partition := range Partitions {
			present, err := tableColumns(ctx, tx, partition.table())
			if err != nil {
				return err
			}
			var added []string
			for _, col := range expectedColumns {
				if _, ok := present[col.name]; ok {
					continue
				}
				stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", partition.table(), col.name, col.sqlType)
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("add column %s.%s: %w", partition.table(), col.name, err)
				}
				added = append(added, col.name)
			}
			if len(added) == 0 {
				continue
			}
			if report.AddedColumns == nil {
				report.AddedColumns = make(map[string][]string)
			}
			report.AddedColumns[partition.table()] = added
			if slices.Contains(added, "mtime") {
				n, err := s.backfillMtime(ctx, tx, partition)
				if err != nil {
					return err
				}
				report.Backfilled += n
			}
		}
		return nil
	})
	if err != nil {
		return MigrationReport{}, fmt.Errorf("migrate verdict database: %w", err)
	}
	return report, nil
}

func (s *Store) backfillMtime(ctx context.Context, tx *sql.Tx, partition Partition) (int, error) {
	paths, err := queryPaths(ctx, tx, partition)
	if err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("UPDATE %s SET mtime = ? WHERE file_path = ?", partition.table()))
	if err != nil {
		return 0, fmt.Errorf("prepare mtime backfill: %w", err)
	}
	defer stmt.Close()

	filled := 0
	for _, path := range paths {
		mtime, err := s.stat(path)
		if err != nil {
			if errors.Is(err, fingerprint.ErrNotFound) || errors.Is(err, fingerprint.ErrUnreadable) {
				continue
			}
			return filled, fmt.Errorf("stat %s during backfill: %w", path, err)
		}
		if _, err := stmt.ExecContext(ctx, mtime, path); err != nil {
			return filled, fmt.Errorf("backfill mtime: %w", err)
		}
		filled++
	}
	return filled, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func tableColumns(ctx context.Context, q queryer, table string) (map[string]struct{}, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	columns := make(map[string]struct{})
	for rows.Next() {
		var (
			cid     int
			name    string
			typeStr string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typeStr, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		columns[name] = struct{}{}
	}
	return columns, rows.Err()
}

func queryPaths(ctx context.Context, q queryer, partition Partition) ([]string, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("SELECT file_path FROM %s ORDER BY file_path", partition.table()))
	if err != nil {
		return nil, fmt.Errorf("list %s paths: %w", partition, err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scan path: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}
