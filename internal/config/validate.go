package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCheck(); err != nil {
		return err
	}
	return c.validateVerifier()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		return errors.New("paths.cache_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateCheck() error {
	if c.Check.Workers < 0 {
		return errors.New("check.workers must be >= 0 (0 selects the CPU count)")
	}
	if c.Check.BatchSize <= 0 {
		return errors.New("check.batch_size must be positive")
	}
	if c.Check.MinFreeMiB < 0 {
		return errors.New("check.min_free_mib must be >= 0")
	}
	for _, glob := range c.Check.Exclude {
		if !doublestar.ValidatePattern(glob) {
			return fmt.Errorf("check.exclude: invalid glob %q", glob)
		}
	}
	return nil
}

func (c *Config) validateVerifier() error {
	if c.Verifier.TimeoutSeconds < 0 {
		return errors.New("verifier.timeout_seconds must be >= 0")
	}
	return nil
}
