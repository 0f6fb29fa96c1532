// Package config loads, normalizes, and validates audiocheck configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// AUDIOCHECK_WORKERS. The Config type centralizes every knob the check and
// dbcheck commands need so the cache directory, report directory and verifier
// invocation are resolved in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
