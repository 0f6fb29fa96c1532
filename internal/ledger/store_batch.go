package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ApplyBatch commits every queued write in one transaction. Per partition,
// mtime refreshes run first; each verdict upsert then deletes the path from
// the opposite partition before inserting or replacing it in its own.
func (s *Store) ApplyBatch(ctx context.Context, batch Batch) error {
	if batch.Empty() {
		return nil
	}
	ctx = ensureContext(ctx)
	checkedAt := formatTime(time.Now())
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, partition := range Partitions {
			if err := applyMtimes(ctx, tx, partition, batch.Mtimes[partition]); err != nil {
				return err
			}
			var upserts []Record
			for _, rec := range batch.Upserts {
				if PartitionFor(rec.Status) == partition {
					upserts = append(upserts, rec)
				}
			}
			if err := applyUpserts(ctx, tx, partition, upserts, checkedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

func applyMtimes(ctx context.Context, tx *sql.Tx, partition Partition, updates []MtimeUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("UPDATE %s SET mtime = ? WHERE file_path = ?", partition.table()))
	if err != nil {
		return fmt.Errorf("prepare mtime update: %w", err)
	}
	defer stmt.Close()
	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, u.Mtime, Key(u.Path)); err != nil {
			return fmt.Errorf("update mtime for %s: %w", u.Path, err)
		}
	}
	return nil
}

func applyUpserts(ctx context.Context, tx *sql.Tx, partition Partition, records []Record, checkedAt string) error {
	if len(records) == 0 {
		return nil
	}
	del, err := tx.PrepareContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE file_path = ?", partition.Opposite().table()))
	if err != nil {
		return fmt.Errorf("prepare opposite delete: %w", err)
	}
	defer del.Close()
	ins, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT OR REPLACE INTO %s (%s) VALUES (?, ?, ?, ?, ?)", partition.table(), recordColumns))
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer ins.Close()

	for _, rec := range records {
		key := Key(rec.Path)
		if _, err := del.ExecContext(ctx, key); err != nil {
			return fmt.Errorf("clear %s from %s: %w", key, partition.Opposite(), err)
		}
		stamp := checkedAt
		if !rec.LastChecked.IsZero() {
			stamp = formatTime(rec.LastChecked)
		}
		var mtime any
		if rec.HasMtime {
			mtime = rec.Mtime
		}
		if _, err := ins.ExecContext(ctx, key, rec.Hash, mtime, string(partition.Status()), stamp); err != nil {
			return fmt.Errorf("upsert %s into %s: %w", key, partition, err)
		}
	}
	return nil
}
