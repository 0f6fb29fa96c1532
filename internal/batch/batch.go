// Package batch buffers verdict writes and flushes them to the store in
// fixed-size transactions.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"audiocheck/internal/decision"
	"audiocheck/internal/ledger"
	"audiocheck/internal/logging"
)

// DefaultSize is the number of results collected between flushes.
const DefaultSize = 100

// ErrStoreWrite wraps a failed flush. The batch that failed stays buffered.
var ErrStoreWrite = errors.New("store write failed")

// Writer commits a batch atomically.
type Writer interface {
	ApplyBatch(ctx context.Context, batch ledger.Batch) error
}

// Buffer accumulates writes from outcomes and flushes them every size results.
// It is not safe for concurrent use; a single orchestrator owns it.
type Buffer struct {
	store   Writer
	size    int
	logger  *slog.Logger
	pending ledger.Batch
	results int
	flushes int
	written int
}

// New returns a buffer that flushes to store every size results. A size of
// zero or less selects DefaultSize.
func New(store Writer, size int, logger *slog.Logger) *Buffer {
	if size <= 0 {
		size = DefaultSize
	}
	return &Buffer{
		store:  store,
		size:   size,
		logger: logging.NewComponentLogger(logger, "batch"),
	}
}

// Writes converts one outcome into the store writes it implies. Cached,
// not-found and error outcomes imply none.
func Writes(out decision.Outcome) ledger.Batch {
	var b ledger.Batch
	appendOutcome(&b, out)
	return b
}

func appendOutcome(b *ledger.Batch, out decision.Outcome) {
	switch out.Action {
	case decision.UpdateMtime:
		b.AddMtime(out.Partition, out.Path, out.Mtime)
	case decision.RunVerifier:
		b.AddUpsert(ledger.Record{
			Path:     out.Path,
			Hash:     out.Hash,
			Mtime:    out.Mtime,
			HasMtime: true,
			Status:   out.Status,
		})
	}
}

// Add records an outcome. Every size results it flushes and reports true.
func (b *Buffer) Add(ctx context.Context, out decision.Outcome) (bool, error) {
	appendOutcome(&b.pending, out)
	b.results++
	if b.results < b.size {
		return false, nil
	}
	return true, b.Flush(ctx)
}

// Retain queues the writes an outcome implies without flushing. It is used
// once the store has failed, so Pending keeps counting every unsaved verdict.
func (b *Buffer) Retain(out decision.Outcome) {
	appendOutcome(&b.pending, out)
}

// Flush commits pending writes in one transaction. On failure the pending
// writes are kept so a later Flush retries them as a unit.
func (b *Buffer) Flush(ctx context.Context) error {
	if b.pending.Empty() {
		b.results = 0
		return nil
	}
	n := b.pending.Len()
	if err := b.store.ApplyBatch(ctx, b.pending); err != nil {
		logging.ErrorWithContext(b.logger, "batch flush failed; writes retained", "batch_flush_failed",
			logging.Int("pending", n),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check disk space and that no other process holds the database"),
		)
		return fmt.Errorf("%w: %d pending writes: %w", ErrStoreWrite, n, err)
	}
	b.pending = ledger.Batch{}
	b.results = 0
	b.flushes++
	b.written += n
	b.logger.Debug("batch flushed",
		logging.Int("writes", n),
		logging.Int("flushes", b.flushes),
		logging.String(logging.FieldEventType, "batch_flushed"),
	)
	return nil
}

// Close flushes anything still pending.
func (b *Buffer) Close(ctx context.Context) error {
	return b.Flush(ctx)
}

// Pending reports the number of buffered writes not yet committed.
func (b *Buffer) Pending() int {
	return b.pending.Len()
}

// Stats reports how many flushes committed and how many writes they carried.
func (b *Buffer) Stats() (flushes, written int) {
	return b.flushes, b.written
}
