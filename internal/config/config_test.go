package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"audiocheck/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantCache := filepath.Join(tempHome, ".local", "share", "audiocheck", "cache")
	if cfg.Paths.CacheDir != wantCache {
		t.Fatalf("unexpected cache dir: got %q want %q", cfg.Paths.CacheDir, wantCache)
	}
	if cfg.DatabasePath() != filepath.Join(wantCache, "integrity_check.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.Check.BatchSize != 100 {
		t.Fatalf("expected default batch size 100, got %d", cfg.Check.BatchSize)
	}
	if cfg.WorkerCount() != runtime.NumCPU() {
		t.Fatalf("expected worker count to follow CPU count, got %d", cfg.WorkerCount())
	}
	if cfg.VerifierBinary() != "ffmpeg" {
		t.Fatalf("unexpected verifier binary: %q", cfg.VerifierBinary())
	}
	if cfg.VerifierTimeout() != 0 {
		t.Fatalf("expected no verifier timeout, got %s", cfg.VerifierTimeout())
	}
	if len(cfg.Check.Extensions) != len(config.DefaultExtensions) {
		t.Fatalf("unexpected extensions: %v", cfg.Check.Extensions)
	}
}

func TestLoadCustomConfigOverrides(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	custom := map[string]any{
		"paths": map[string]any{
			"cache_dir": "~/verdicts",
			"log_dir":   "~/reports",
		},
		"check": map[string]any{
			"workers":    3,
			"batch_size": 25,
			"extensions": []string{"FLAC", ".mp3", "flac"},
			"exclude":    []string{"**/Samples/**", "  "},
		},
		"verifier": map[string]any{
			"binary":          "  /opt/ffmpeg/bin/ffmpeg ",
			"timeout_seconds": 90,
		},
		"logging": map[string]any{
			"format":  "JSON",
			"level":   "DEBUG",
			"outputs": []string{"stderr", " ", "~/reports/console.log"},
		},
	}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(cfgPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != cfgPath {
		t.Fatalf("expected existing config at %q, got %q (exists=%v)", cfgPath, resolved, exists)
	}
	if cfg.Paths.CacheDir != filepath.Join(tempHome, "verdicts") {
		t.Fatalf("unexpected cache dir: %q", cfg.Paths.CacheDir)
	}
	if cfg.Paths.LogDir != filepath.Join(tempHome, "reports") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.WorkerCount() != 3 || cfg.Check.BatchSize != 25 {
		t.Fatalf("unexpected check settings: %+v", cfg.Check)
	}
	if strings.Join(cfg.Check.Extensions, ",") != ".flac,.mp3" {
		t.Fatalf("expected normalized extensions, got %v", cfg.Check.Extensions)
	}
	if len(cfg.Check.Exclude) != 1 || cfg.Check.Exclude[0] != "**/Samples/**" {
		t.Fatalf("unexpected exclude globs: %v", cfg.Check.Exclude)
	}
	if cfg.VerifierBinary() != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("unexpected verifier binary: %q", cfg.VerifierBinary())
	}
	if cfg.VerifierTimeout().Seconds() != 90 {
		t.Fatalf("unexpected verifier timeout: %s", cfg.VerifierTimeout())
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	wantOutputs := []string{"stderr", filepath.Join(tempHome, "reports", "console.log")}
	if strings.Join(cfg.Logging.Outputs, ",") != strings.Join(wantOutputs, ",") {
		t.Fatalf("unexpected logging outputs: %v", cfg.Logging.Outputs)
	}
}

func TestLoadHonoursEnvironmentOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cacheDir := t.TempDir()
	t.Setenv("AUDIOCHECK_CACHE_DIR", cacheDir)
	t.Setenv("AUDIOCHECK_WORKERS", "7")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.CacheDir != cacheDir {
		t.Fatalf("expected cache dir from env, got %q", cfg.Paths.CacheDir)
	}
	if cfg.WorkerCount() != 7 {
		t.Fatalf("expected 7 workers from env, got %d", cfg.WorkerCount())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"negative workers", func(c *config.Config) { c.Check.Workers = -1 }, "check.workers"},
		{"zero batch", func(c *config.Config) { c.Check.BatchSize = 0 }, "check.batch_size"},
		{"bad glob", func(c *config.Config) { c.Check.Exclude = []string{"[unclosed"} }, "check.exclude"},
		{"negative timeout", func(c *config.Config) { c.Verifier.TimeoutSeconds = -5 }, "verifier.timeout_seconds"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Check.BatchSize != 100 {
		t.Fatalf("unexpected sample batch size: %d", cfg.Check.BatchSize)
	}
}

func TestEnsureDirectoriesCreatesCacheAndLogs(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.CacheDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}
