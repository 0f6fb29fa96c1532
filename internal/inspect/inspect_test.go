package inspect_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"audiocheck/internal/fingerprint"
	"audiocheck/internal/inspect"
	"audiocheck/internal/ledger"
	"audiocheck/internal/testsupport"
)

type seeded struct {
	store   *ledger.Store
	intact  string
	changed string
	missing string
	failed  string
}

func seed(t *testing.T) seeded {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	dir := testsupport.MusicDir(cfg)

	s := seeded{
		store:   store,
		intact:  filepath.Join(dir, "intact.flac"),
		changed: filepath.Join(dir, "changed.flac"),
		missing: filepath.Join(dir, "missing.flac"),
		failed:  filepath.Join(dir, "failed.flac"),
	}
	testsupport.WriteContent(t, s.intact, "intact audio")
	testsupport.WriteContent(t, s.changed, "original audio")
	testsupport.WriteContent(t, s.failed, "corrupt audio")

	digest := func(path string) string {
		h, err := fingerprint.OS{}.Digest(path)
		if err != nil {
			t.Fatalf("digest %s: %v", path, err)
		}
		return h
	}
	changedHash := digest(s.changed)
	testsupport.WriteContent(t, s.changed, "rewritten audio")

	testsupport.SeedRecords(t, store,
		ledger.Record{Path: s.intact, Hash: digest(s.intact), Mtime: 100, HasMtime: true, Status: ledger.StatusPassed},
		ledger.Record{Path: s.changed, Hash: changedHash, Status: ledger.StatusPassed},
		ledger.Record{Path: s.missing, Hash: "deadbeef", Status: ledger.StatusPassed},
		ledger.Record{Path: s.failed, Hash: digest(s.failed), Status: ledger.StatusFailed, LastChecked: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
	)
	return s
}

func statesByPath(entries []inspect.Entry) map[string]string {
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[e.Path] = e.State
	}
	return out
}

func TestListWithoutVerifyReportsStoredStatus(t *testing.T) {
	s := seed(t)
	entries, tally, err := inspect.List(context.Background(), s.store, inspect.ListOptions{Filter: inspect.FilterAll})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	if tally[string(ledger.StatusPassed)] != 3 || tally[string(ledger.StatusFailed)] != 1 {
		t.Fatalf("unexpected tally %v", tally)
	}
	for _, e := range entries {
		if e.Path == s.intact && (e.Mtime == nil || *e.Mtime != 100) {
			t.Fatalf("expected stored mtime on intact entry, got %v", e.Mtime)
		}
		if e.Path == s.changed && e.Mtime != nil {
			t.Fatalf("expected nil mtime for record stored without one")
		}
	}
}

func TestListVerifyClassifiesFilesystemState(t *testing.T) {
	s := seed(t)
	entries, tally, err := inspect.List(context.Background(), s.store, inspect.ListOptions{Verify: true})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	got := statesByPath(entries)
	want := map[string]string{
		s.intact:  "PASSED",
		s.changed: inspect.StateChanged,
		s.missing: inspect.StateMissing,
		s.failed:  "FAILED",
	}
	for path, state := range want {
		if got[path] != state {
			t.Fatalf("%s: expected %s, got %s", filepath.Base(path), state, got[path])
		}
	}
	if tally.Total() != 4 {
		t.Fatalf("expected tally total 4, got %d", tally.Total())
	}
}

func TestListFilterFailedIncludesVerificationProblems(t *testing.T) {
	s := seed(t)
	entries, tally, err := inspect.List(context.Background(), s.store, inspect.ListOptions{Verify: true, Filter: inspect.FilterFailed})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 problem entries, got %d", len(entries))
	}
	if _, ok := statesByPath(entries)[s.intact]; ok {
		t.Fatalf("intact file should be filtered out")
	}
	if tally.Total() != 4 {
		t.Fatalf("tally should cover unfiltered entries, got %d", tally.Total())
	}

	passed, _, err := inspect.List(context.Background(), s.store, inspect.ListOptions{Verify: true, Filter: inspect.FilterPassed})
	if err != nil {
		t.Fatalf("List passed: %v", err)
	}
	if len(passed) != 1 || passed[0].Path != s.intact {
		t.Fatalf("expected only the intact entry, got %+v", passed)
	}
}

func TestParseFilterAndFormat(t *testing.T) {
	if f, err := inspect.ParseFilter(""); err != nil || f != inspect.FilterAll {
		t.Fatalf("empty filter: %v %v", f, err)
	}
	if _, err := inspect.ParseFilter("broken"); err == nil {
		t.Fatal("expected error for unknown filter")
	}
	if f, err := inspect.ParseFormat("YML"); err != nil || f != inspect.FormatYAML {
		t.Fatalf("yml format: %v %v", f, err)
	}
	if _, err := inspect.ParseFormat("xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestExportFormats(t *testing.T) {
	s := seed(t)
	entries, _, err := inspect.List(context.Background(), s.store, inspect.ListOptions{Filter: inspect.FilterFailed})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one failed entry, got %d", len(entries))
	}

	var buf bytes.Buffer
	if err := inspect.Export(&buf, entries, inspect.FormatCSV); err != nil {
		t.Fatalf("csv export: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 || rows[0][1] != "File Path" || rows[1][0] != "FAILED" {
		t.Fatalf("unexpected csv rows %v", rows)
	}
	if rows[1][3] != "2024-05-01T12:00:00Z" || rows[1][5] != "" {
		t.Fatalf("unexpected csv time columns %v", rows[1])
	}

	buf.Reset()
	if err := inspect.Export(&buf, entries, inspect.FormatJSON); err != nil {
		t.Fatalf("json export: %v", err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if decoded[0]["file_path"] != s.failed || decoded[0]["mtime"] != nil {
		t.Fatalf("unexpected json entry %v", decoded[0])
	}

	buf.Reset()
	if err := inspect.Export(&buf, entries, inspect.FormatYAML); err != nil {
		t.Fatalf("yaml export: %v", err)
	}
	var fromYAML []map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &fromYAML); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if fromYAML[0]["status"] != "FAILED" {
		t.Fatalf("unexpected yaml entry %v", fromYAML[0])
	}
}

func TestExportJSONEmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	if err := inspect.Export(&buf, nil, inspect.FormatJSON); err != nil {
		t.Fatalf("export: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("expected empty array, got %q", buf.String())
	}
}

func TestQuickStats(t *testing.T) {
	s := seed(t)
	stats, err := inspect.QuickStats(context.Background(), s.store)
	if err != nil {
		t.Fatalf("QuickStats: %v", err)
	}
	if stats.Counts.Passed != 3 || stats.Counts.Failed != 1 {
		t.Fatalf("unexpected counts %+v", stats.Counts)
	}
	if stats.SizeBytes <= 0 {
		t.Fatalf("expected database size, got %d", stats.SizeBytes)
	}
	if share := stats.Share(stats.Counts.Failed); share != 25 {
		t.Fatalf("expected 25%% failed, got %v", share)
	}
}

func TestChangeLines(t *testing.T) {
	c := inspect.Change{Before: ledger.Counts{Passed: 1, Failed: 2}, After: ledger.Counts{Passed: 3, Failed: 2}}
	lines := c.Lines()
	if len(lines) != 1 || lines[0] != "Passed: 1 → 3" {
		t.Fatalf("unexpected lines %v", lines)
	}
}

func TestWatchReportsCountChanges(t *testing.T) {
	s := seed(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var changes []inspect.Change
	seen := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- inspect.Watch(ctx, s.store, 20*time.Millisecond, nil, func(c inspect.Change) {
			mu.Lock()
			changes = append(changes, c)
			mu.Unlock()
			seen <- struct{}{}
		})
	}()

	select {
	case <-seen:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for initial counts")
	}

	testsupport.SeedRecords(t, s.store, ledger.Record{Path: "/music/new.flac", Hash: "abc", Status: ledger.StatusFailed})

	select {
	case <-seen:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch returned %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	last := changes[len(changes)-1]
	if last.After.Failed != 2 || last.Before.Failed != 1 {
		t.Fatalf("unexpected change %+v", last)
	}
}
