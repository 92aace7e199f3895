package htmldoc

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nao1215/linkrot/internal/intern"
)

// ErrNotUnderRoot is returned when a document's file path is not rooted
// under the configured site root.
var ErrNotUnderRoot = errors.New("document path is not under the site root")

// indexFileNames are the file names whose href denotes the containing
// directory rather than the file itself.
var indexFileNames = map[string]bool{
	"index.html": true,
	"index.htm":  true,
}

// Document is the identity of one markup file: its filesystem path, its
// canonical site-relative Href, and whether it is an index document.
// A Document is constructed once per discovered file and immutable
// thereafter.
type Document struct {
	// Path is the document's filesystem path as discovered.
	Path string

	// Href is the document's canonical site-relative href. For an index
	// document this is the parent directory's relative path.
	Href Href

	// IsIndex reports whether the document's file name is an index file,
	// so relative references resolve inside the directory it names.
	IsIndex bool

	// store owns the bytes of Href and of every Href produced by Join.
	store intern.Store
}

// NewDocument derives a document's identity from its path relative to the
// site root. The final "index.html"/"index.htm" component is folded into
// the parent directory's href. Platform path separators are normalized
// to '/'. Returns ErrNotUnderRoot when path does not live under root.
func NewDocument(store intern.Store, root, path string) (*Document, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q under %q: %v", ErrNotUnderRoot, path, root, err)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return nil, fmt.Errorf("%w: %q under %q", ErrNotUnderRoot, path, root)
	}

	href := rel
	isIndex := false
	if base := rel[strings.LastIndexByte(rel, '/')+1:]; indexFileNames[base] {
		isIndex = true
		if i := strings.LastIndexByte(rel, '/'); i >= 0 {
			href = rel[:i]
		} else {
			href = ""
		}
	}

	return &Document{
		Path:    path,
		Href:    Href(store.Intern(href)),
		IsIndex: isIndex,
		store:   store,
	}, nil
}

// Join resolves a relative reference found in this document into a
// canonical Href. The reference is split at the first '?' or '#'; the path
// portion is canonicalized against the document's href (descending into
// the directory first for index documents). Query strings are always
// discarded. A non-trivial fragment is appended only when preserveAnchor
// is set. The result is owned by the document's Store.
func (d *Document) Join(preserveAnchor bool, ref string) Href {
	qsStart := strings.IndexAny(ref, "?#")
	if qsStart < 0 {
		qsStart = len(ref)
	}
	anchorStart := strings.IndexByte(ref, '#')
	if anchorStart < 0 {
		anchorStart = len(ref)
	}

	buf := make([]byte, 0, len(d.Href)+len(ref)+1)
	buf = append(buf, d.Href...)
	if d.IsIndex {
		buf = append(buf, '/')
	}

	buf = pushAndCanonicalize(buf, ref[:qsStart])

	if preserveAnchor {
		if anchor := ref[anchorStart:]; len(anchor) > 1 {
			buf = append(buf, anchor...)
		}
	}

	return Href(d.store.InternBytes(buf))
}
