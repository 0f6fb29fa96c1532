package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"audiocheck/internal/config"
	"audiocheck/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	musicDir   string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("AUDIOCHECK_WORKERS", "")
	t.Setenv("AUDIOCHECK_CACHE_DIR", "")

	configPath := filepath.Join(homeDir, ".config", "audiocheck", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	musicDir := testsupport.MusicDir(cfg)
	if err := os.MkdirAll(musicDir, 0o755); err != nil {
		t.Fatalf("mkdir music dir: %v", err)
	}
	return &cliTestEnv{cfg: cfg, configPath: configPath, musicDir: musicDir}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ncache_dir = %q\nlog_dir = %q\n\n[check]\nworkers = %d\nmin_free_mib = 0\n\n[verifier]\nbinary = %q\n\n[logging]\nlevel = \"error\"\n",
		cfg.Paths.CacheDir,
		cfg.Paths.LogDir,
		cfg.Check.Workers,
		cfg.VerifierBinary(),
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// seedLibrary writes one intact and one corrupt track plus a non-audio file.
func (e *cliTestEnv) seedLibrary(t *testing.T) (good, corrupt string) {
	t.Helper()
	good = filepath.Join(e.musicDir, "Artist", "good.flac")
	corrupt = filepath.Join(e.musicDir, "Artist", "corrupt.flac")
	testsupport.WriteContent(t, good, "good audio")
	testsupport.WriteContent(t, corrupt, "bad audio")
	testsupport.WriteContent(t, filepath.Join(e.musicDir, "Artist", "cover.txt"), "not audio")
	return good, corrupt
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
