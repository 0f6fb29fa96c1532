package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Lookup returns the live record for path from either partition.
func (s *Store) Lookup(ctx context.Context, path string) (Record, bool, error) {
	ctx = ensureContext(ctx)
	key := Key(path)
	for _, partition := range Partitions {
		row := s.db.QueryRowContext(ctx,
			fmt.Sprintf("SELECT %s FROM %s WHERE file_path = ?", recordColumns, partition.table()), key)
		rec, err := scanRecord(row, partition)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return Record{}, false, fmt.Errorf("lookup %s in %s: %w", key, partition, err)
		}
		return rec, true, nil
	}
	return Record{}, false, nil
}

// List returns every record in partition p ordered by path.
func (s *Store) List(ctx context.Context, p Partition) ([]Record, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s ORDER BY file_path", recordColumns, p.table()))
	if err != nil {
		return nil, fmt.Errorf("list %s records: %w", p, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows, p)
		if err != nil {
			return nil, fmt.Errorf("scan %s record: %w", p, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListAll returns the records of both partitions, passed first.
func (s *Store) ListAll(ctx context.Context) ([]Record, error) {
	var all []Record
	for _, partition := range Partitions {
		records, err := s.List(ctx, partition)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}

// Counts returns the number of records in each partition.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	ctx = ensureContext(ctx)
	var counts Counts
	for _, partition := range Partitions {
		var n int
		if err := s.db.QueryRowContext(ctx,
			fmt.Sprintf("SELECT COUNT(1) FROM %s", partition.table())).Scan(&n); err != nil {
			return Counts{}, fmt.Errorf("count %s records: %w", partition, err)
		}
		if partition == Passed {
			counts.Passed = n
		} else {
			counts.Failed = n
		}
	}
	return counts, nil
}

// Snapshot loads every record into memory for concurrent read-only lookups.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{records: make(map[string]Record, len(all))}
	for _, rec := range all {
		// Passed is listed first; a stray duplicate keeps its passed record.
		if _, ok := snap.records[rec.Path]; !ok {
			snap.records[rec.Path] = rec
		}
	}
	return snap, nil
}

// Snapshot is an immutable view of the store taken before a run starts.
type Snapshot struct {
	records map[string]Record
}

// Lookup implements the same contract as Store.Lookup.
func (s *Snapshot) Lookup(_ context.Context, path string) (Record, bool, error) {
	rec, ok := s.records[Key(path)]
	return rec, ok, nil
}

// Len reports the number of records captured.
func (s *Snapshot) Len() int {
	return len(s.records)
}

// Delete removes the records for paths from both partitions in one
// transaction and returns how many rows were removed.
func (s *Store) Delete(ctx context.Context, paths []string) (int, error) {
	if len(paths) == 0 {
		return 0, nil
	}
	removed := 0
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		removed = 0
		for _, partition := range Partitions {
			stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE file_path = ?", partition.table()))
			if err != nil {
				return fmt.Errorf("prepare delete: %w", err)
			}
			for _, path := range paths {
				res, err := stmt.ExecContext(ctx, Key(path))
				if err != nil {
					_ = stmt.Close()
					return fmt.Errorf("delete %s from %s: %w", path, partition, err)
				}
				if n, err := res.RowsAffected(); err == nil {
					removed += int(n)
				}
			}
			_ = stmt.Close()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
