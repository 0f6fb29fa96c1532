package ledger

import (
	"fmt"
	"strings"
	"time"
)

// Status is a persisted verdict.
type Status string

const (
	// StatusPassed marks a file the verifier accepted.
	StatusPassed Status = "PASSED"
	// StatusFailed marks a file the verifier rejected.
	StatusFailed Status = "FAILED"
)

// ParseStatus converts stored or user supplied text to a Status.
func ParseStatus(value string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(value))) {
	case StatusPassed:
		return StatusPassed, nil
	case StatusFailed:
		return StatusFailed, nil
	default:
		return "", fmt.Errorf("unknown status %q", value)
	}
}

// Partition selects one of the two verdict tables.
type Partition int

const (
	// Passed holds records whose last verdict was PASSED.
	Passed Partition = iota
	// Failed holds records whose last verdict was FAILED.
	Failed
)

// Partitions lists every partition in lookup order.
var Partitions = []Partition{Passed, Failed}

// PartitionFor returns the partition that stores status.
func PartitionFor(status Status) Partition {
	if status == StatusPassed {
		return Passed
	}
	return Failed
}

// Opposite returns the other partition.
func (p Partition) Opposite() Partition {
	if p == Passed {
		return Failed
	}
	return Passed
}

// Status returns the verdict implied by membership in p.
func (p Partition) Status() Status {
	if p == Passed {
		return StatusPassed
	}
	return StatusFailed
}

func (p Partition) table() string {
	if p == Passed {
		return "passed_files"
	}
	return "failed_files"
}

func (p Partition) String() string {
	if p == Passed {
		return "passed"
	}
	return "failed"
}

// Record is one persisted verdict.
type Record struct {
	Path        string
	Hash        string
	Mtime       float64
	HasMtime    bool
	Status      Status
	LastChecked time.Time
	Partition   Partition
}

// MtimeUpdate refreshes the stored modification time of an unchanged file.
type MtimeUpdate struct {
	Path  string
	Mtime float64
}

// Batch groups pending writes so they commit in a single transaction.
type Batch struct {
	Mtimes  map[Partition][]MtimeUpdate
	Upserts []Record
}

// AddMtime queues an mtime refresh for a record in partition p.
func (b *Batch) AddMtime(p Partition, path string, mtime float64) {
	if b.Mtimes == nil {
		b.Mtimes = make(map[Partition][]MtimeUpdate, len(Partitions))
	}
	b.Mtimes[p] = append(b.Mtimes[p], MtimeUpdate{Path: path, Mtime: mtime})
}

// AddUpsert queues a full verdict write. The record's status picks its partition.
func (b *Batch) AddUpsert(rec Record) {
	b.Upserts = append(b.Upserts, rec)
}

// Len reports the number of queued writes.
func (b *Batch) Len() int {
	n := len(b.Upserts)
	for _, updates := range b.Mtimes {
		n += len(updates)
	}
	return n
}

// Empty reports whether the batch has nothing to write.
func (b *Batch) Empty() bool {
	return b.Len() == 0
}

// Counts summarises the store contents.
type Counts struct {
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Total returns the number of records across both partitions.
func (c Counts) Total() int {
	return c.Passed + c.Failed
}

// MigrationReport describes what Migrate changed.
type MigrationReport struct {
	AddedColumns map[string][]string
	Backfilled   int
}

// Changed reports whether the migration altered the schema.
func (r MigrationReport) Changed() bool {
	return len(r.AddedColumns) > 0
}

// DatabaseHealth reports the state of the verdict database.
type DatabaseHealth struct {
	DBPath           string   `json:"db_path"`
	DatabaseExists   bool     `json:"database_exists"`
	DatabaseReadable bool     `json:"database_readable"`
	TablesPresent    []string `json:"tables_present"`
	MissingColumns   []string `json:"missing_columns"`
	IntegrityCheck   string   `json:"integrity_check"`
	Counts           Counts   `json:"counts"`
	Error            string   `json:"error,omitempty"`
}

// Healthy reports whether the database passed every check.
func (h DatabaseHealth) Healthy() bool {
	return h.DatabaseExists && h.DatabaseReadable && len(h.TablesPresent) == len(Partitions) &&
		len(h.MissingColumns) == 0 && h.IntegrityCheck == "ok" && h.Error == ""
}
