// Package model defines the core data structures shared across linkrot.
//
// This package contains the following main types:
//   - CheckReport: the accumulated result of one site check
//   - DocumentResult: per-document scan output (links in document order)
//   - BrokenLink: one unresolved target with all of its source locations
//   - DocumentError: a per-document failure that did not abort the run
//
// Models live in their own package to avoid circular dependencies: the
// pipeline, checker, database, and report packages all consume them.
// The report-facing types are serializable to JSON for report output and
// database storage.
package model
