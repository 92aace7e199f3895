// Package htmldoc implements the per-document HTML link scanner.
//
// # Architecture
//
// The package is built around the Document type, which carries the identity
// of one markup file (its filesystem path and its canonical site-relative
// href) and scans the file's token stream for link occurrences:
//
//   - a UsedLink for every link-bearing attribute (a/href, img/src, ...)
//   - a DefinedLink for every addressable anchor (id, or a/name)
//
// Relative references are resolved against the document's href with pure
// string canonicalization; no network scheme is ever resolved, and references
// to external schemes (http://, mailto:, ...) are dropped at extraction time.
//
// # Paragraph context
//
// While scanning, the document tracks paragraph-bearing block elements
// (p, li, dt, dd) and fingerprints their text content through a
// ParagraphWalker. Every use inside a paragraph is tagged with the
// paragraph's fingerprint so the reporting layer can give a human a place
// to look for the broken link.
//
// # Malformed markup
//
// Input is assumed to be machine-generated and mostly well-formed. The
// scanner degrades gracefully on unbalanced or unclosed tags: extraction is
// best-effort, and trailing uses in an unclosed paragraph simply keep an
// absent fingerprint.
package htmldoc
