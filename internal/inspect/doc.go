// Package inspect reads the verdict database for the dbcheck commands:
// counts, listings optionally re-verified against the filesystem, exports and
// a live watch of count changes.
//
// Nothing here writes verdicts; schema migration is done by ledger.Open.
package inspect
