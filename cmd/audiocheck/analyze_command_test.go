package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"audiocheck/internal/ffprobe"
	"audiocheck/internal/testsupport"
)

// stubFFprobe puts the canned ffprobe ahead of the env's stubs on PATH.
func stubFFprobe(t *testing.T) {
	t.Helper()
	testsupport.NewConfig(t, testsupport.WithStubbedBinaries("ffprobe"))
}

func TestAnalyzeReportsMetadata(t *testing.T) {
	env := setupCLITestEnv(t)
	stubFFprobe(t)
	hires := filepath.Join(env.musicDir, "hires.flac")
	mp3 := filepath.Join(env.musicDir, "track.mp3")
	aac := filepath.Join(env.musicDir, "aac-track.m4a")
	lowres := filepath.Join(env.musicDir, "lowres.flac")
	corrupt := filepath.Join(env.musicDir, "corrupt.flac")
	for _, p := range []string{hires, mp3, aac, lowres, corrupt} {
		testsupport.WriteContent(t, p, "x")
	}

	out, _, err := runCLI(t, []string{"--json", "analyze", "--workers", "3", env.musicDir}, env.configPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var resp analyzeResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode response %q: %v", out, err)
	}
	if len(resp.Files) != 5 {
		t.Fatalf("expected 5 analyses, got %d", len(resp.Files))
	}
	byPath := make(map[string]ffprobe.Analysis, len(resp.Files))
	for _, a := range resp.Files {
		byPath[a.Path] = a
	}

	if a := byPath[hires]; a.Encoding != ffprobe.EncodingLossless || a.BitDepth != 24 || a.SampleRate != 96000 {
		t.Fatalf("unexpected hires analysis %+v", a)
	}
	if a := byPath[mp3]; a.Encoding != ffprobe.EncodingLossy || a.BitRate != 320000 {
		t.Fatalf("unexpected mp3 analysis %+v", a)
	}
	if a := byPath[aac]; a.Encoding != ffprobe.EncodingLossy || a.Codec != "aac" {
		t.Fatalf("unexpected m4a analysis %+v", a)
	}
	if a := byPath[lowres]; len(a.Warnings) != 2 || a.Channels != 1 {
		t.Fatalf("expected low resolution warnings, got %+v", a)
	}
	if a := byPath[corrupt]; a.Error == "" {
		t.Fatalf("expected error for corrupt file, got %+v", a)
	}
	if _, err := os.Stat(env.cfg.DatabasePath()); !os.IsNotExist(err) {
		t.Fatalf("analyze must not create the verdict database, stat err = %v", err)
	}
}

func TestAnalyzeRendersTableAndSavesReport(t *testing.T) {
	env := setupCLITestEnv(t)
	stubFFprobe(t)
	testsupport.WriteContent(t, filepath.Join(env.musicDir, "track.mp3"), "x")
	reportPath := filepath.Join(testsupport.BaseDir(env.cfg), "analysis.txt")

	out, _, err := runCLI(t, []string{"analyze", "--output", reportPath, env.musicDir}, env.configPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	requireContains(t, out, "Sample rate")
	requireContains(t, out, "44,100 Hz")
	requireContains(t, out, "320 kbps")
	requireContains(t, out, "Stereo")
	requireContains(t, out, "Analysis saved to")

	saved, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("read saved report: %v", err)
	}
	if !strings.Contains(string(saved), "lossy") {
		t.Fatalf("saved report missing encoding column: %s", saved)
	}
}

func TestAnalyzeFailsWithoutFFprobe(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteContent(t, filepath.Join(env.musicDir, "track.flac"), "x")

	_, _, err := runCLI(t, []string{"analyze", "--ffprobe", "definitely-not-ffprobe", env.musicDir}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected missing ffprobe error, got %v", err)
	}
}
