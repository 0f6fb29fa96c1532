// Package main hosts the audiocheck CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, then hands off to the
// internal packages: check runs the integrity pass over a music library,
// analyze reports stream metadata through ffprobe, dbcheck inspects and maintains the verdict database, and config scaffolds
// and validates the TOML configuration.
//
// Keep this package lean: new behaviour belongs in the internal packages and
// is surfaced here through commands or flags.
package main
