package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeCheck(); err != nil {
		return err
	}
	c.normalizeVerifier()
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	return c.normalizeReport()
}

func (c *Config) normalizePaths() error {
	var err error
	if value, ok := os.LookupEnv("AUDIOCHECK_CACHE_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.CacheDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCheck() error {
	if value, ok := os.LookupEnv("AUDIOCHECK_WORKERS"); ok && strings.TrimSpace(value) != "" {
		workers, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("AUDIOCHECK_WORKERS: %w", err)
		}
		c.Check.Workers = workers
	}
	if c.Check.BatchSize == 0 {
		c.Check.BatchSize = defaultBatchSize
	}

	exts := make([]string, 0, len(c.Check.Extensions))
	seen := make(map[string]struct{}, len(c.Check.Extensions))
	for _, ext := range c.Check.Extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = append(exts, DefaultExtensions...)
	}
	c.Check.Extensions = exts

	globs := c.Check.Exclude[:0]
	for _, g := range c.Check.Exclude {
		if trimmed := strings.TrimSpace(g); trimmed != "" {
			globs = append(globs, trimmed)
		}
	}
	c.Check.Exclude = globs
	return nil
}

func (c *Config) normalizeVerifier() {
	c.Verifier.Binary = strings.TrimSpace(c.Verifier.Binary)
	if c.Verifier.Binary == "" {
		c.Verifier.Binary = defaultVerifierBinary
	}
	args := c.Verifier.Args[:0]
	for _, arg := range c.Verifier.Args {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			args = append(args, trimmed)
		}
	}
	c.Verifier.Args = args
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
	outputs := make([]string, 0, len(c.Logging.Outputs))
	for _, out := range c.Logging.Outputs {
		out = strings.TrimSpace(out)
		switch out {
		case "":
			continue
		case "stderr", "stdout":
		default:
			expanded, err := expandPath(out)
			if err != nil {
				return fmt.Errorf("logging.outputs: %w", err)
			}
			out = expanded
		}
		outputs = append(outputs, out)
	}
	c.Logging.Outputs = outputs
	return nil
}

func (c *Config) normalizeReport() error {
	c.Report.MetricsFile = strings.TrimSpace(c.Report.MetricsFile)
	if c.Report.MetricsFile == "" {
		return nil
	}
	var err error
	if c.Report.MetricsFile, err = expandPath(c.Report.MetricsFile); err != nil {
		return fmt.Errorf("report.metrics_file: %w", err)
	}
	return nil
}
