// Package main provides the entry point for the linkrot CLI.
//
// Linkrot is an offline link checker for static sites. It scans a rendered
// site directory, extracts every internal link, and reports the ones that
// point at documents or anchors that do not exist.
//
// Usage:
//
//	linkrot check <site-root>
//	linkrot check --check-anchors <site-root>
//
// See --help for all available options.
package main

// main is the entry point for linkrot.
func main() {
	Execute()
}
