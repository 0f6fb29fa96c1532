// Package preflight provides readiness checks run before a check pass.
//
// A failed check halts the run before any file is verified: the database
// directory must be writable, the volume holding it must have room for the
// write-ahead log, and the verifier binary must resolve.
package preflight
