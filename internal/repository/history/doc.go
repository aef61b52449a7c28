// Package history implements the firing journal.
//
// The SQLiteRepository appends one row per granted firing and serves
// newest-first queries for the control API. The journal is an audit log
// only: the engine's dedup guard never reads it back, so its loss or
// absence cannot change firing behavior.
package history
