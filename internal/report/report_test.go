package report_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"audiocheck/internal/decision"
	"audiocheck/internal/integrity"
	"audiocheck/internal/ledger"
	"audiocheck/internal/report"
)

func sampleReport() integrity.Report {
	outs := []decision.Outcome{
		{Action: decision.RunVerifier, Path: "/m/a.flac", Status: ledger.StatusPassed},
		{Action: decision.UseCached, Path: "/m/b.flac", Status: ledger.StatusFailed, Message: decision.MessageCached},
		{Action: decision.FileNotFound, Path: "/m/c.flac", Message: decision.MessageNotFound},
	}
	var rep integrity.Report
	for _, o := range outs {
		rep.Results = append(rep.Results, o)
		rep.Summary.Add(o)
	}
	rep.Summary.Total = len(outs)
	rep.Flushes = 1
	rep.Duration = 1500 * time.Millisecond
	return rep
}

func TestResultLogsRouteByStatus(t *testing.T) {
	dir := t.TempDir()
	rep := sampleReport()
	logs, err := report.OpenResultLogs(dir, time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local))
	if err != nil {
		t.Fatalf("OpenResultLogs: %v", err)
	}
	if filepath.Base(logs.FailedPath) != "Failed-2024-05-06_07-08-09.txt" {
		t.Fatalf("unexpected failed log name %s", logs.FailedPath)
	}
	for _, out := range rep.Results {
		if err := logs.Write(out); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := logs.Close(rep.Summary); err != nil {
		t.Fatalf("Close: %v", err)
	}

	success, _ := os.ReadFile(logs.SuccessPath)
	failed, _ := os.ReadFile(logs.FailedPath)
	if !strings.HasPrefix(string(success), "PASSED /m/a.flac\n") {
		t.Fatalf("success log = %q", success)
	}
	if !strings.Contains(string(failed), "FAILED /m/b.flac: Cached result\n") || !strings.Contains(string(failed), "NOT_FOUND /m/c.flac") {
		t.Fatalf("failed log = %q", failed)
	}
	for _, content := range [][]byte{success, failed} {
		if !strings.Contains(string(content), "Total files: 3\nPassed: 1\nFailed: 1\nNot found: 1\n") {
			t.Fatalf("summary missing from %q", content)
		}
	}
}

func TestSummaryTable(t *testing.T) {
	out := report.SummaryTable(integrity.Summary{Total: 1200, Passed: 1100, Failed: 100})
	for _, want := range []string{"Total files", "1,200", "1,100", "Failed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Not found") {
		t.Fatalf("zero rows should be hidden:\n%s", out)
	}
}

func TestWriteMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "textfile", "audiocheck.prom")
	if err := report.WriteMetrics(path, sampleReport(), 2); err != nil {
		t.Fatalf("WriteMetrics: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	content := string(data)
	for _, want := range []string{
		`audiocheck_files{result="passed"} 1`,
		`audiocheck_decisions{action="USE_CACHED"} 1`,
		`audiocheck_decisions{action="UPDATE_MTIME"} 0`,
		`audiocheck_run_duration_seconds 1.5`,
		`audiocheck_swept_records 2`,
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("metrics missing %q:\n%s", want, content)
		}
	}
}

func TestPruneLogsRemovesOnlyStaleAudiocheckLogs(t *testing.T) {
	dir := t.TempDir()
	oldRun := filepath.Join(dir, "audiocheck-old.log")
	current := filepath.Join(dir, "audiocheck-current.log")
	oldFailed := filepath.Join(dir, "Failed-2020-01-01_00-00-00.txt")
	oldSuccess := filepath.Join(dir, "Success-2020-01-01_00-00-00.txt")
	freshFailed := filepath.Join(dir, "Failed-fresh.txt")
	notes := filepath.Join(dir, "notes.txt")
	for _, p := range []string{oldRun, current, oldFailed, oldSuccess, freshFailed, notes} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	stale := time.Now().AddDate(0, 0, -10)
	for _, p := range []string{oldRun, current, oldFailed, oldSuccess, notes} {
		if err := os.Chtimes(p, stale, stale); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	if got := report.PruneLogs(nil, dir, 0, current); got != 0 {
		t.Fatalf("retention 0 should disable pruning, removed %d", got)
	}
	if removed := report.PruneLogs(nil, dir, 5, current); removed != 3 {
		t.Fatalf("expected 3 removals, got %d", removed)
	}
	for _, p := range []string{oldRun, oldFailed, oldSuccess} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed, stat err=%v", p, err)
		}
	}
	for _, p := range []string{current, freshFailed, notes} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s kept: %v", p, err)
		}
	}
}
