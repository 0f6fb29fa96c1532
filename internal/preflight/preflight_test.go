package preflight

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"audiocheck/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("volume", dir, 1); !result.Passed {
		t.Fatalf("expected pass with 1 byte minimum, got: %s", result.Detail)
	}
	result := CheckFreeSpace("volume", dir, math.MaxUint64)
	if result.Passed {
		t.Fatal("expected failure for impossible minimum")
	}
	if !strings.Contains(result.Detail, "required") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestRunAllWithStubbedVerifier(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	results := RunAll(cfg)
	if err := Summarize(results); err != nil {
		t.Fatalf("expected all checks to pass: %v", err)
	}
}

func TestRunAllReportsMissingVerifier(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Verifier.Binary = "clearly-not-present-verifier"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	err := Summarize(RunAll(cfg))
	if err == nil || !strings.Contains(err.Error(), "FFmpeg") {
		t.Fatalf("expected verifier failure, got %v", err)
	}
}
