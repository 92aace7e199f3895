package htmldoc

import "strings"

// Href is a canonical, site-rooted link target: no leading slash,
// forward-slash separated, optionally carrying a trailing "#fragment".
// Hrefs never contain a scheme; external references are filtered out
// before an Href is created. Equality and ordering are byte-wise.
type Href string

// WithoutAnchor returns the Href truncated before the first '#'.
func (h Href) WithoutAnchor() Href {
	if i := strings.IndexByte(string(h), '#'); i >= 0 {
		return h[:i]
	}
	return h
}

// Anchor returns the fragment portion including the leading '#',
// or the empty string if the Href carries no fragment.
func (h Href) Anchor() string {
	if i := strings.IndexByte(string(h), '#'); i >= 0 {
		return string(h[i:])
	}
	return ""
}

// String returns the Href as a plain string.
func (h Href) String() string {
	return string(h)
}
