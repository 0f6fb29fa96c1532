package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	CacheDir string `toml:"cache_dir"`
	LogDir   string `toml:"log_dir"`
}

// Check contains configuration for integrity check runs.
type Check struct {
	Workers    int      `toml:"workers"`    // 0 selects the host CPU count
	BatchSize  int      `toml:"batch_size"` // results buffered per store flush
	Extensions []string `toml:"extensions"`
	Exclude    []string `toml:"exclude"` // doublestar globs relative to the scanned root
	MinFreeMiB int      `toml:"min_free_mib"`
}

// Verifier contains configuration for the external checker.
type Verifier struct {
	Binary         string   `toml:"binary"`
	Args           []string `toml:"args"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
	// Outputs lists console log destinations: "stderr", "stdout" or file paths.
	Outputs []string `toml:"outputs"`
}

// Report contains configuration for run reports.
type Report struct {
	SaveLogs    bool   `toml:"save_logs"`
	MetricsFile string `toml:"metrics_file"`
}

// Config encapsulates all configuration values for audiocheck.
//
// Configuration sections by subsystem:
//   - Paths: verdict database and report directories
//   - Check: worker pool, flush cadence and file selection
//   - Verifier: external checker invocation
//   - Logging: log format, level, and retention
//   - Report: result log files and metrics export
type Config struct {
	Paths    Paths    `toml:"paths"`
	Check    Check    `toml:"check"`
	Verifier Verifier `toml:"verifier"`
	Logging  Logging  `toml:"logging"`
	Report   Report   `toml:"report"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/audiocheck/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("audiocheck.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the cache and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the verdict database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.CacheDir, defaultDatabaseName)
}

// LockPath returns the lock file guarding writers of the verdict database.
func (c *Config) LockPath() string {
	return c.DatabasePath() + ".lock"
}

// VerifierBinary returns the checker executable name.
func (c *Config) VerifierBinary() string {
	if bin := strings.TrimSpace(c.Verifier.Binary); bin != "" {
		return bin
	}
	return defaultVerifierBinary
}

// VerifierTimeout returns the per-file checker timeout, or zero when unbounded.
func (c *Config) VerifierTimeout() time.Duration {
	if c.Verifier.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Verifier.TimeoutSeconds) * time.Second
}

// WorkerCount resolves the configured worker count, falling back to the CPU count.
func (c *Config) WorkerCount() int {
	if c.Check.Workers > 0 {
		return c.Check.Workers
	}
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 4
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
