package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration. They are
// package-level sentinels so callers can use errors.Is() for programmatic
// handling while still getting human-readable messages.
var (
	// ErrNoRoot is returned when no site root directory is specified.
	ErrNoRoot = errors.New("no site root specified: provide one or more directories to check")

	// ErrInvalidJobs is returned when the worker count is not positive.
	// Zero workers would mean no documents ever get scanned.
	ErrInvalidJobs = errors.New("invalid jobs: must be positive")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used at
	// a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
