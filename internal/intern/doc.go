// Package intern provides string ownership for scan results.
//
// Every href and paragraph fingerprint the scanner produces must outlive the
// read buffer it was sliced from. This package centralizes that ownership
// behind the Store interface with two interchangeable strategies:
//
//   - Arena: a private, append-only store for a single scan. No locking.
//     Results are valid for as long as the Arena is retained.
//   - Interner: a process-wide, thread-safe deduplicating store. Identical
//     strings are coalesced to one storage slot regardless of which worker
//     interned them first. Entries are never mutated or removed, so returned
//     strings are safe to read without synchronization.
//
// The scanner only sees the Store interface; the strategy is chosen at
// composition time.
package intern
