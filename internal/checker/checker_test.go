package checker

import (
	"testing"

	"github.com/nao1215/linkrot/internal/htmldoc"
	"github.com/nao1215/linkrot/internal/model"
)

// doc builds a DocumentResult with the given href and links.
func doc(path string, href htmldoc.Href, links ...htmldoc.Link) model.DocumentResult {
	return model.DocumentResult{Path: path, Href: href, Links: links}
}

// use builds a UsedLink.
func use(href htmldoc.Href, path string) *htmldoc.UsedLink {
	return &htmldoc.UsedLink{Href: href, Path: path}
}

// define builds a DefinedLink.
func define(href htmldoc.Href) *htmldoc.DefinedLink {
	return &htmldoc.DefinedLink{Href: href}
}

// TestCheckerResolvesDocumentHrefs tests path-level matching.
func TestCheckerResolvesDocumentHrefs(t *testing.T) {
	t.Parallel()

	report := model.NewCheckReport("public")
	report.Documents = []model.DocumentResult{
		doc("public/a.html", "a.html",
			use("b.html", "public/a.html"),
			use("missing.html", "public/a.html"),
		),
		doc("public/b.html", "b.html",
			use("a.html", "public/b.html"),
		),
	}

	New(false).Check(report)

	if report.UsedLinks != 3 {
		t.Errorf("expected 3 used links, got %d", report.UsedLinks)
	}
	if report.DocumentCount != 2 {
		t.Errorf("expected 2 documents, got %d", report.DocumentCount)
	}
	if len(report.Broken) != 1 {
		t.Fatalf("expected 1 broken link, got %d", len(report.Broken))
	}
	if report.Broken[0].Href != "missing.html" {
		t.Errorf("got broken href %q, expected 'missing.html'", report.Broken[0].Href)
	}
	if len(report.Broken[0].Sources) != 1 || report.Broken[0].Sources[0].Path != "public/a.html" {
		t.Errorf("unexpected sources: %+v", report.Broken[0].Sources)
	}
}

// TestCheckerAnchors tests fragment validation.
func TestCheckerAnchors(t *testing.T) {
	t.Parallel()

	t.Run("anchors off ignores fragments", func(t *testing.T) {
		t.Parallel()

		report := model.NewCheckReport("public")
		report.Documents = []model.DocumentResult{
			doc("public/a.html", "a.html",
				use("b.html#nowhere", "public/a.html"),
			),
			doc("public/b.html", "b.html"),
		}

		New(false).Check(report)

		if len(report.Broken) != 0 {
			t.Errorf("expected no broken links, got %+v", report.Broken)
		}
	})

	t.Run("anchors on requires matching definition", func(t *testing.T) {
		t.Parallel()

		report := model.NewCheckReport("public")
		report.Documents = []model.DocumentResult{
			doc("public/a.html", "a.html",
				use("b.html#present", "public/a.html"),
				use("b.html#absent", "public/a.html"),
			),
			doc("public/b.html", "b.html",
				define("b.html#present"),
			),
		}

		New(true).Check(report)

		if report.DefinedLinks != 1 {
			t.Errorf("expected 1 defined link, got %d", report.DefinedLinks)
		}
		if len(report.Broken) != 1 {
			t.Fatalf("expected 1 broken link, got %d: %+v", len(report.Broken), report.Broken)
		}
		if report.Broken[0].Href != "b.html#absent" {
			t.Errorf("got broken href %q, expected 'b.html#absent'", report.Broken[0].Href)
		}
	})
}

// TestCheckerIndexAliases tests that the literal index-file spelling
// resolves against the folded document href.
func TestCheckerIndexAliases(t *testing.T) {
	t.Parallel()

	t.Run("literal spelling resolves", func(t *testing.T) {
		t.Parallel()

		report := model.NewCheckReport("public")
		report.Documents = []model.DocumentResult{
			doc("public/a.html", "a.html",
				use("blog/index.html", "public/a.html"),
				use("index.html", "public/a.html"),
			),
			doc("public/blog/index.html", "blog"),
			doc("public/index.html", ""),
		}

		New(false).Check(report)

		if len(report.Broken) != 0 {
			t.Errorf("expected index spellings to resolve, got %+v", report.Broken)
		}
	})

	t.Run("anchors fold onto the document href", func(t *testing.T) {
		t.Parallel()

		report := model.NewCheckReport("public")
		report.Documents = []model.DocumentResult{
			doc("public/a.html", "a.html",
				use("blog/index.html#top", "public/a.html"),
				use("blog/index.html#absent", "public/a.html"),
			),
			// Definitions in an index document are interned against
			// the folded href.
			doc("public/blog/index.html", "blog",
				define("blog#top"),
			),
		}

		New(true).Check(report)

		if len(report.Broken) != 1 {
			t.Fatalf("expected 1 broken link, got %d: %+v", len(report.Broken), report.Broken)
		}
		if report.Broken[0].Href != "blog/index.html#absent" {
			t.Errorf("got broken href %q, expected the literal spelling", report.Broken[0].Href)
		}
	})
}

// TestCheckerGroupsAndSorts tests output grouping and ordering.
func TestCheckerGroupsAndSorts(t *testing.T) {
	t.Parallel()

	report := model.NewCheckReport("public")
	report.Documents = []model.DocumentResult{
		doc("public/a.html", "a.html",
			use("zzz.html", "public/a.html"),
			use("aaa.html", "public/a.html"),
		),
		doc("public/b.html", "b.html",
			use("zzz.html", "public/b.html"),
		),
	}

	New(false).Check(report)

	if len(report.Broken) != 2 {
		t.Fatalf("expected 2 broken links, got %d", len(report.Broken))
	}
	if report.Broken[0].Href != "aaa.html" || report.Broken[1].Href != "zzz.html" {
		t.Errorf("broken links not sorted by href: %+v", report.Broken)
	}
	if len(report.Broken[1].Sources) != 2 {
		t.Errorf("expected 'zzz.html' sources grouped, got %+v", report.Broken[1].Sources)
	}
}

// TestCheckerParagraphContext tests fingerprint propagation into sources.
func TestCheckerParagraphContext(t *testing.T) {
	t.Parallel()

	u := use("missing.html", "public/a.html")
	u.Paragraph = htmldoc.TextParagraph{Text: "See the missing page."}

	report := model.NewCheckReport("public")
	report.Documents = []model.DocumentResult{
		doc("public/a.html", "a.html", u),
	}

	New(false).Check(report)

	if len(report.Broken) != 1 {
		t.Fatalf("expected 1 broken link, got %d", len(report.Broken))
	}
	src := report.Broken[0].Sources[0]
	if src.Paragraph != "See the missing page." {
		t.Errorf("got paragraph %q, expected the verbatim text", src.Paragraph)
	}
}
