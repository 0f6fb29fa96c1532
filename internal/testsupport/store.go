package testsupport

import (
	"context"
	"testing"

	"audiocheck/internal/config"
	"audiocheck/internal/ledger"
)

// MustOpenStore opens a ledger.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedRecords writes records directly, bypassing the decision engine.
func SeedRecords(t testing.TB, store *ledger.Store, records ...ledger.Record) {
	t.Helper()

	var batch ledger.Batch
	for _, rec := range records {
		batch.AddUpsert(rec)
	}
	if err := store.ApplyBatch(context.Background(), batch); err != nil {
		t.Fatalf("store.ApplyBatch: %v", err)
	}
}

// MustLookup returns the live record for path, failing the test when absent.
func MustLookup(t testing.TB, store *ledger.Store, path string) ledger.Record {
	t.Helper()

	rec, ok, err := store.Lookup(context.Background(), path)
	if err != nil {
		t.Fatalf("store.Lookup(%s): %v", path, err)
	}
	if !ok {
		t.Fatalf("expected record for %s", path)
	}
	return rec
}
