// Package checker reconciles link uses against the global set of link
// definitions and produces the broken-link portion of a check report.
//
// A target is defined when its path names a scanned document; with anchor
// checking enabled, a fragment-carrying target additionally requires a
// matching anchor definition (an id or legacy a/name attribute) in that
// document.
package checker

import (
	"path/filepath"
	"sort"

	"github.com/nao1215/linkrot/internal/htmldoc"
	"github.com/nao1215/linkrot/internal/model"
)

// Checker matches uses against definitions across all scanned documents.
type Checker struct {
	// checkAnchors enables fragment validation. Without it a use
	// resolves as soon as its anchor-stripped path names a document.
	checkAnchors bool
}

// New creates a Checker.
func New(checkAnchors bool) *Checker {
	return &Checker{checkAnchors: checkAnchors}
}

// Check reconciles every use in report.Documents against the defined set
// and fills report.Broken, report.UsedLinks, report.DefinedLinks, and
// report.DocumentCount. Broken links are grouped by target and sorted by
// href; sources keep scan order.
func (c *Checker) Check(report *model.CheckReport) {
	defined, aliases := c.definedSet(report.Documents)

	grouped := make(map[htmldoc.Href][]model.LinkSource)
	var order []htmldoc.Href

	usedTotal := 0
	for _, doc := range report.Documents {
		for _, link := range doc.Links {
			use, ok := link.(*htmldoc.UsedLink)
			if !ok {
				continue
			}
			usedTotal++

			if c.resolves(use.Href, defined, aliases) {
				continue
			}

			src := model.LinkSource{Path: use.Path}
			if p := use.Paragraph; p != nil {
				src.Paragraph = p.String()
			}
			if _, seen := grouped[use.Href]; !seen {
				order = append(order, use.Href)
			}
			grouped[use.Href] = append(grouped[use.Href], src)
		}
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	report.Broken = report.Broken[:0]
	for _, href := range order {
		report.Broken = append(report.Broken, model.BrokenLink{
			Href:    href,
			Sources: grouped[href],
		})
	}

	report.UsedLinks = usedTotal
	report.DefinedLinks = countDefines(report.Documents)
	report.DocumentCount = len(report.Documents)
}

// definedSet builds the set of resolvable targets: every scanned
// document's own href, plus every anchor definition when anchors are
// checked. For index documents it also records the literal file spelling
// ("blog/index.html") as an alias of the folded href ("blog"), since a
// link written against the file name serves the same page.
func (c *Checker) definedSet(docs []model.DocumentResult) (map[htmldoc.Href]bool, map[htmldoc.Href]htmldoc.Href) {
	defined := make(map[htmldoc.Href]bool, len(docs))
	aliases := make(map[htmldoc.Href]htmldoc.Href)

	for _, doc := range docs {
		defined[doc.Href] = true

		if base := filepath.Base(doc.Path); base == "index.html" || base == "index.htm" {
			literal := htmldoc.Href(base)
			if doc.Href != "" {
				literal = doc.Href + "/" + literal
			}
			aliases[literal] = doc.Href
		}

		if !c.checkAnchors {
			continue
		}
		for _, link := range doc.Links {
			if def, ok := link.(*htmldoc.DefinedLink); ok {
				defined[def.Href] = true
			}
		}
	}
	return defined, aliases
}

// resolves reports whether a use's target is defined.
func (c *Checker) resolves(href htmldoc.Href, defined map[htmldoc.Href]bool, aliases map[htmldoc.Href]htmldoc.Href) bool {
	path := href.WithoutAnchor()

	// Fold the literal index-file spelling onto the document href, for
	// both the path lookup and the anchor lookup below.
	if folded, ok := aliases[path]; ok {
		href = folded + href[len(path):]
		path = folded
	}

	if !defined[path] {
		return false
	}
	if c.checkAnchors && href != path {
		// The path exists; the fragment must be defined too.
		return defined[href]
	}
	return true
}

// countDefines counts anchor definitions across all documents.
func countDefines(docs []model.DocumentResult) int {
	n := 0
	for _, doc := range docs {
		for _, link := range doc.Links {
			if _, ok := link.(*htmldoc.DefinedLink); ok {
				n++
			}
		}
	}
	return n
}
