package model

import (
	"time"

	"github.com/nao1215/linkrot/internal/htmldoc"
)

// CheckReport is the accumulated result of checking one site root.
// Pipeline steps fill it in sequence: discovery adds paths, scanning adds
// per-document results and errors, reconciliation adds broken links and
// counters.
type CheckReport struct {
	// Root is the site root directory that was checked.
	Root string `json:"root"`

	// CheckAnchors reports whether anchor definitions were tracked.
	CheckAnchors bool `json:"check_anchors"`

	// GetParagraphs reports whether paragraph fingerprinting was enabled.
	GetParagraphs bool `json:"get_paragraphs"`

	// StartedAt is when the check began.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the total wall-clock duration of the check.
	Elapsed time.Duration `json:"elapsed"`

	// Paths are the discovered markup files, sorted for determinism.
	// Intermediate pipeline data, not part of the serialized report.
	Paths []string `json:"-"`

	// Documents holds per-document scan output for reconciliation.
	// Intermediate pipeline data, not part of the serialized report.
	Documents []DocumentResult `json:"-"`

	// DocumentCount is the number of documents successfully scanned.
	DocumentCount int `json:"document_count"`

	// UsedLinks is the total number of link uses extracted.
	UsedLinks int `json:"used_links"`

	// DefinedLinks is the total number of anchor definitions extracted.
	DefinedLinks int `json:"defined_links"`

	// Broken lists every unresolved target, sorted by href.
	Broken []BrokenLink `json:"broken,omitempty"`

	// DocumentErrors lists documents that could not be scanned. A
	// document's failure never aborts the run; it is recorded here.
	DocumentErrors []DocumentError `json:"document_errors,omitempty"`
}

// NewCheckReport creates an empty report for the given site root.
func NewCheckReport(root string) *CheckReport {
	return &CheckReport{
		Root:      root,
		StartedAt: time.Now(),
	}
}

// AddDocumentError records a per-document failure.
func (r *CheckReport) AddDocumentError(path string, err error) {
	r.DocumentErrors = append(r.DocumentErrors, DocumentError{
		Path:    path,
		Message: err.Error(),
	})
}

// BrokenCount returns the number of unresolved targets.
func (r *CheckReport) BrokenCount() int {
	return len(r.Broken)
}

// HasFindings reports whether the check found broken links or document
// errors. Drives the CLI's exit code.
func (r *CheckReport) HasFindings() bool {
	return len(r.Broken) > 0 || len(r.DocumentErrors) > 0
}

// DocumentResult is the scan output of one document: its identity and its
// links in document order.
type DocumentResult struct {
	// Path is the document's filesystem path.
	Path string

	// Href is the document's canonical site-relative href.
	Href htmldoc.Href

	// Links are the document's uses and definitions in document order.
	Links []htmldoc.Link
}

// BrokenLink is one unresolved target together with every location that
// references it.
type BrokenLink struct {
	// Href is the target that could not be resolved. With anchor
	// checking enabled this may carry a fragment, meaning the path
	// exists but the anchor does not.
	Href htmldoc.Href `json:"href"`

	// Sources are the locations referencing the target, in scan order.
	Sources []LinkSource `json:"sources"`
}

// LinkSource is one referencing location of a broken target.
type LinkSource struct {
	// Path is the filesystem path of the referencing document.
	Path string `json:"path"`

	// Paragraph is the rendered fingerprint of the enclosing paragraph,
	// when paragraph tracking was enabled and the use sat inside one.
	Paragraph string `json:"paragraph,omitempty"`
}

// DocumentError records a document whose scan failed (unreadable bytes,
// invalid encoding, or an identity not under the site root).
type DocumentError struct {
	// Path is the document's filesystem path.
	Path string `json:"path"`

	// Message is the human-readable failure description.
	Message string `json:"message"`
}
