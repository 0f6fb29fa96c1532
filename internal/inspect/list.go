package inspect

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"audiocheck/internal/fingerprint"
	"audiocheck/internal/ledger"
)

// Entry states beyond PASSED and FAILED, produced by verification.
const (
	StateMissing = "MISSING"
	StateChanged = "CHANGED"
	StateError   = "ERROR"
)

// Filter narrows a listing.
type Filter string

const (
	FilterAll    Filter = "all"
	FilterPassed Filter = "passed"
	FilterFailed Filter = "failed"
)

// ParseFilter validates a user supplied filter value.
func ParseFilter(value string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(value))); f {
	case "", FilterAll:
		return FilterAll, nil
	case FilterPassed, FilterFailed:
		return f, nil
	default:
		return "", fmt.Errorf("unknown filter %q (want all, passed or failed)", value)
	}
}

// Entry is one listed record.
type Entry struct {
	State       string    `json:"status" yaml:"status"`
	Path        string    `json:"file_path" yaml:"file_path"`
	Hash        string    `json:"hash" yaml:"hash"`
	LastChecked time.Time `json:"last_checked" yaml:"last_checked"`
	Message     string    `json:"message,omitempty" yaml:"message,omitempty"`
	Mtime       *float64  `json:"mtime" yaml:"mtime"`
}

// ListOptions configures List.
type ListOptions struct {
	Verify   bool
	Filter   Filter
	Resolver fingerprint.Resolver
}

// Tally counts entries by state.
type Tally map[string]int

// Total returns the number of entries counted.
func (t Tally) Total() int {
	n := 0
	for _, c := range t {
		n += c
	}
	return n
}

// Reader is the read surface List needs.
type Reader interface {
	ListAll(ctx context.Context) ([]ledger.Record, error)
}

// List returns every record, re-checked against the filesystem when
// opts.Verify is set, and filtered by opts.Filter. The tally covers all
// entries before filtering.
func List(ctx context.Context, store Reader, opts ListOptions) ([]Entry, Tally, error) {
	resolver := opts.Resolver
	if resolver == nil {
		resolver = fingerprint.OS{}
	}
	records, err := store.ListAll(ctx)
	if err != nil {
		return nil, nil, err
	}

	tally := Tally{}
	var entries []Entry
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		entry := Entry{
			State:       string(rec.Status),
			Path:        rec.Path,
			Hash:        rec.Hash,
			LastChecked: rec.LastChecked,
		}
		if rec.HasMtime {
			mtime := rec.Mtime
			entry.Mtime = &mtime
		}
		if opts.Verify {
			verifyEntry(&entry, resolver)
		}
		tally[entry.State]++
		if keep(opts.Filter, entry.State) {
			entries = append(entries, entry)
		}
	}
	return entries, tally, nil
}

func verifyEntry(entry *Entry, resolver fingerprint.Resolver) {
	hash, err := resolver.Digest(entry.Path)
	switch {
	case errors.Is(err, fingerprint.ErrNotFound) || errors.Is(err, os.ErrNotExist):
		entry.State = StateMissing
		entry.Message = "File no longer exists"
	case err != nil:
		entry.State = StateError
		entry.Message = "Unable to read file"
	case hash != entry.Hash:
		entry.State = StateChanged
		entry.Message = "Hash mismatch"
	}
}

func keep(filter Filter, state string) bool {
	switch filter {
	case FilterPassed:
		return state == string(ledger.StatusPassed)
	case FilterFailed:
		return state != string(ledger.StatusPassed)
	default:
		return true
	}
}
