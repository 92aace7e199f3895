package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nao1215/linkrot/internal/model"
)

// testReport builds a finished report with one broken link.
func testReport(root string) *model.CheckReport {
	report := model.NewCheckReport(root)
	report.StartedAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	report.Elapsed = 42 * time.Millisecond
	report.DocumentCount = 3
	report.UsedLinks = 7
	report.DefinedLinks = 3
	report.Broken = []model.BrokenLink{
		{
			Href: "missing.html",
			Sources: []model.LinkSource{
				{Path: "public/index.html"},
				{Path: "public/about.html", Paragraph: "0a1b2c"},
			},
		},
	}
	return report
}

// TestOpen tests database creation behavior.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database with default options", func(t *testing.T) {
		t.Parallel()

		hdb, err := Open(t.TempDir(), DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer hdb.Close()
	})

	t.Run("missing database without create fails", func(t *testing.T) {
		t.Parallel()

		opts := DefaultOptions()
		opts.CreateIfNotExists = false
		if _, err := Open(t.TempDir(), opts); err == nil {
			t.Error("expected an error for a missing database")
		}
	})
}

// TestSaveCheckReport tests run persistence and retrieval.
func TestSaveCheckReport(t *testing.T) {
	t.Parallel()

	hdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer hdb.Close()

	ctx := context.Background()

	runID, err := hdb.SaveCheckReport(ctx, testReport("public"))
	if err != nil {
		t.Fatalf("failed to save report: %v", err)
	}
	if runID <= 0 {
		t.Errorf("got run id %d, expected a positive id", runID)
	}

	t.Run("run summary reflects the report", func(t *testing.T) {
		runs, err := hdb.ListRuns(ctx, "public")
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("got %d runs, expected 1", len(runs))
		}
		if runs[0].ID != runID {
			t.Errorf("got run id %d, expected %d", runs[0].ID, runID)
		}
		if runs[0].DocumentCount != 3 {
			t.Errorf("got document count %d, expected 3", runs[0].DocumentCount)
		}
		if runs[0].BrokenCount != 1 {
			t.Errorf("got broken count %d, expected 1", runs[0].BrokenCount)
		}
	})

	t.Run("full report round-trips", func(t *testing.T) {
		got, err := hdb.GetRun(ctx, runID)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.Root != "public" {
			t.Errorf("got root %q, expected %q", got.Root, "public")
		}
		if got.UsedLinks != 7 {
			t.Errorf("got used links %d, expected 7", got.UsedLinks)
		}
		if len(got.Broken) != 1 || got.Broken[0].Href != "missing.html" {
			t.Errorf("broken links did not round-trip: %+v", got.Broken)
		}
		if len(got.Broken[0].Sources) != 2 {
			t.Errorf("got %d sources, expected 2", len(got.Broken[0].Sources))
		}
	})

	t.Run("broken hrefs are deduplicated", func(t *testing.T) {
		hrefs, err := hdb.BrokenHrefs(ctx, runID)
		if err != nil {
			t.Fatalf("failed to list broken hrefs: %v", err)
		}
		if len(hrefs) != 1 || hrefs[0] != "missing.html" {
			t.Errorf("got hrefs %v, expected [missing.html]", hrefs)
		}
	})

	t.Run("unknown run id fails", func(t *testing.T) {
		if _, err := hdb.GetRun(ctx, runID+100); !errors.Is(err, ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})
}

// TestRunHistory tests ordering and per-root isolation of the history.
func TestRunHistory(t *testing.T) {
	t.Parallel()

	hdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer hdb.Close()

	ctx := context.Background()

	first := testReport("public")
	second := testReport("public")
	second.StartedAt = first.StartedAt.Add(time.Hour)
	second.Broken = nil

	if _, err := hdb.SaveCheckReport(ctx, first); err != nil {
		t.Fatalf("failed to save first run: %v", err)
	}
	secondID, err := hdb.SaveCheckReport(ctx, second)
	if err != nil {
		t.Fatalf("failed to save second run: %v", err)
	}
	if _, err := hdb.SaveCheckReport(ctx, testReport("docs/site")); err != nil {
		t.Fatalf("failed to save other root: %v", err)
	}

	t.Run("newest run first", func(t *testing.T) {
		runs, err := hdb.ListRuns(ctx, "public")
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("got %d runs, expected 2", len(runs))
		}
		if runs[0].ID != secondID {
			t.Errorf("got first run id %d, expected the newest run %d", runs[0].ID, secondID)
		}
	})

	t.Run("latest runs are limited", func(t *testing.T) {
		runs, err := hdb.LatestRuns(ctx, "public", 1)
		if err != nil {
			t.Fatalf("failed to list latest runs: %v", err)
		}
		if len(runs) != 1 || runs[0].ID != secondID {
			t.Errorf("got runs %+v, expected only run %d", runs, secondID)
		}
	})

	t.Run("roots are listed alphabetically", func(t *testing.T) {
		roots, err := hdb.ListRoots(ctx)
		if err != nil {
			t.Fatalf("failed to list roots: %v", err)
		}
		if len(roots) != 2 || roots[0] != "docs/site" || roots[1] != "public" {
			t.Errorf("got roots %v, expected [docs/site public]", roots)
		}
	})
}
