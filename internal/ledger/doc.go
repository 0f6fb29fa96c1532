// Package ledger persists integrity verdicts in SQLite.
//
// Verdicts live in two partitions, passed_files and failed_files, which share
// a schema keyed by file path. A path has at most one live record across both
// partitions: every verdict write removes the path from the opposite partition
// inside the same transaction before inserting it. Writes arrive as a Batch so
// a flush of many results commits or rolls back as a unit.
//
// Open migrates databases written by earlier releases in place, adding missing
// columns and backfilling modification times from the filesystem.
package ledger
