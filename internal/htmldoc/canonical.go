package htmldoc

import (
	"bytes"
	"strings"
)

// pushAndCanonicalize resolves path against base and returns the normalized
// site-relative result. It is pure string surgery; the filesystem is never
// consulted and no URL semantics (queries, percent-escapes) apply.
//
// Resolution rules, in order:
//  1. A path starting with '/' discards the whole base.
//  2. An empty path is a same-document self-reference: a trailing '/' on
//     base is dropped and the base returned otherwise unchanged.
//  3. Otherwise base is truncated to its containing directory, and path's
//     segments are applied: "" and "." are ignored, ".." pops the last
//     segment of base, anything else is appended.
//
// Repeated ".." past the root clamp at the empty string.
func pushAndCanonicalize(base []byte, path string) []byte {
	switch {
	case strings.HasPrefix(path, "/"):
		base = base[:0]
	case path == "":
		if bytes.HasSuffix(base, []byte("/")) {
			base = base[:len(base)-1]
		}
		return base
	default:
		base = truncateToDir(base)
	}

	for seg := range strings.SplitSeq(path, "/") {
		switch seg {
		case "", ".":
		case "..":
			base = truncateToDir(base)
		default:
			if len(base) > 0 {
				base = append(base, '/')
			}
			base = append(base, seg...)
		}
	}

	return base
}

// truncateToDir cuts base to the portion before its last '/', or to empty
// if it contains none.
func truncateToDir(base []byte) []byte {
	if i := bytes.LastIndexByte(base, '/'); i >= 0 {
		return base[:i]
	}
	return base[:0]
}
