package ledger

import (
	"database/sql"
	"errors"
	"path/filepath"
	"time"
)

const recordColumns = "file_path, file_hash, mtime, status, last_checked"

// Key returns the record key for path. Only the separators are cleaned; the
// bytes of each name are kept so the key still opens the file on disk.
func Key(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Clean(path)
}

func scanRecord(scanner interface{ Scan(dest ...any) error }, partition Partition) (Record, error) {
	var (
		path        string
		hash        sql.NullString
		mtime       sql.NullFloat64
		status      sql.NullString
		lastChecked sql.NullString
	)
	if err := scanner.Scan(&path, &hash, &mtime, &status, &lastChecked); err != nil {
		return Record{}, err
	}
	rec := Record{
		Path:      path,
		Hash:      hash.String,
		Mtime:     mtime.Float64,
		HasMtime:  mtime.Valid,
		Status:    partition.Status(),
		Partition: partition,
	}
	if parsed, err := ParseStatus(status.String); err == nil {
		rec.Status = parsed
	}
	if checked, err := parseTimeString(lastChecked.String); err == nil {
		rec.LastChecked = checked
	}
	return rec, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTimeString accepts RFC 3339 values and the naive ISO-8601 stamps
// written by earlier releases.
func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognised time format")
}
