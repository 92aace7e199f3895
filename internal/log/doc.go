// Package log provides slog-based logging helpers for linkrot.
//
// The package wraps standard slog handlers with a RelPathHandler that
// rewrites absolute filesystem paths in log attributes to site-relative
// form. Check runs log many document paths; relative paths keep output
// readable and stable across machines, which matters when logs end up in
// CI artifacts.
package log
