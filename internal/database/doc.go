// Package database provides SQLite-based storage for check history.
//
// Every completed check can be saved as a run, keyed by the site root.
// The compare command reads runs back to show which broken links appeared
// or were fixed between two checks of the same site.
package database
