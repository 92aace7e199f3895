// Package walker discovers markup files under a site root.
//
// Discovery is deliberately separate from scanning: the walker produces a
// sorted list of paths once, and the pipeline fans the per-document scans
// out over workers. Sorting keeps report output deterministic regardless
// of directory iteration order.
package walker

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"
)

// markupExtensions are the file extensions treated as scannable documents.
var markupExtensions = map[string]bool{
	".html": true,
	".htm":  true,
}

// Walker collects the markup files of one site root.
type Walker struct {
	// root is the site root directory.
	root string

	// ignorePatterns are glob patterns matched against the site-relative
	// path (forward slashes). Matching files and directories are skipped.
	ignorePatterns []string
}

// Option configures a Walker.
type Option func(*Walker)

// WithIgnorePatterns sets glob patterns for paths to skip. Patterns are
// matched with path.Match against the root-relative, slash-separated path.
func WithIgnorePatterns(patterns []string) Option {
	return func(w *Walker) {
		w.ignorePatterns = patterns
	}
}

// New creates a Walker for the given site root.
func New(root string, opts ...Option) *Walker {
	w := &Walker{root: root}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Collect walks the site root and returns every .html/.htm file, sorted.
func (w *Walker) Collect() ([]string, error) {
	var paths []string

	err := godirwalk.Walk(w.root, &godirwalk.Options{
		Unsorted: true, // results are sorted once at the end
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			rel, err := filepath.Rel(w.root, osPathname)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)

			if w.ignored(rel) {
				if de.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if de.IsDir() {
				return nil
			}
			if markupExtensions[strings.ToLower(filepath.Ext(osPathname))] {
				paths = append(paths, osPathname)
			}
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk site root %s: %w", w.root, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// ignored reports whether the relative path matches an ignore pattern.
func (w *Walker) ignored(rel string) bool {
	if rel == "." {
		return false
	}
	for _, pattern := range w.ignorePatterns {
		if ok, err := path.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}
