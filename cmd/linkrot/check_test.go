package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/linkrot/internal/model"
)

// writeTestSite writes a small site and returns its root directory.
// The site has one valid cross-document link and one dead link.
func writeTestSite(t *testing.T) string {
	t.Helper()

	root := t.TempDir()

	files := map[string]string{
		"index.html": `<html><body>
<p>Read <a href="about.html">about us</a> or the <a href="missing.html">old page</a>.</p>
</body></html>`,
		"about.html": `<html><body>
<h1 id="team">Team</h1>
<p>Back to <a href="/">home</a>.</p>
</body></html>`,
	}

	for name, content := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0600); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return root
}

// runLinkrot executes the CLI with the given arguments and returns its
// combined standard output.
func runLinkrot(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

// TestCheckCmd tests the check command end to end.
func TestCheckCmd(t *testing.T) {
	t.Parallel()

	t.Run("reports dead links and exits with findings", func(t *testing.T) {
		t.Parallel()

		root := writeTestSite(t)
		output, err := runLinkrot(t, "check", "--no-db", root)

		if !errors.Is(err, ErrFindings) {
			t.Fatalf("expected ErrFindings, got %v", err)
		}
		if !bytes.Contains([]byte(output), []byte("missing.html")) {
			t.Errorf("expected output to name the dead link, got %q", output)
		}
	})

	t.Run("clean site exits without error", func(t *testing.T) {
		t.Parallel()

		root := writeTestSite(t)
		if err := os.WriteFile(filepath.Join(root, "missing.html"), []byte("<html></html>"), 0600); err != nil {
			t.Fatalf("failed to complete site: %v", err)
		}

		output, err := runLinkrot(t, "check", "--no-db", root)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !bytes.Contains([]byte(output), []byte("All links resolved")) {
			t.Errorf("expected clean summary, got %q", output)
		}
	})

	t.Run("missing site root fails", func(t *testing.T) {
		t.Parallel()

		if _, err := runLinkrot(t, "check", "--no-db"); err == nil {
			t.Fatal("expected an error when no site root is given")
		}
	})

	t.Run("json report is written to the output file", func(t *testing.T) {
		t.Parallel()

		root := writeTestSite(t)
		outFile := filepath.Join(t.TempDir(), "reports", "check.json")

		_, err := runLinkrot(t, "check", "--no-db", "--json", "-o", outFile, root)
		if !errors.Is(err, ErrFindings) {
			t.Fatalf("expected ErrFindings, got %v", err)
		}

		data, err := os.ReadFile(outFile)
		if err != nil {
			t.Fatalf("failed to read report file: %v", err)
		}

		var rep model.CheckReport
		if err := json.Unmarshal(data, &rep); err != nil {
			t.Fatalf("report file is not valid JSON: %v", err)
		}
		if rep.Root != root {
			t.Errorf("got root %q, expected %q", rep.Root, root)
		}
		if len(rep.Broken) != 1 || rep.Broken[0].Href != "missing.html" {
			t.Errorf("expected missing.html to be broken, got %+v", rep.Broken)
		}
	})

	t.Run("anchor checking finds missing fragments", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		page := `<html><body>
<p><a href="about.html#team">team</a> and <a href="about.html#gone">nothing</a></p>
</body></html>`
		about := `<html><body><h1 id="team">Team</h1></body></html>`
		if err := os.WriteFile(filepath.Join(root, "index.html"), []byte(page), 0600); err != nil {
			t.Fatalf("failed to write site: %v", err)
		}
		if err := os.WriteFile(filepath.Join(root, "about.html"), []byte(about), 0600); err != nil {
			t.Fatalf("failed to write site: %v", err)
		}

		// Without anchor checking the site is clean.
		if _, err := runLinkrot(t, "check", "--no-db", root); err != nil {
			t.Fatalf("expected clean run without anchor checking, got %v", err)
		}

		output, err := runLinkrot(t, "check", "--no-db", "--check-anchors", root)
		if !errors.Is(err, ErrFindings) {
			t.Fatalf("expected ErrFindings with anchor checking, got %v", err)
		}
		if !bytes.Contains([]byte(output), []byte("about.html#gone")) {
			t.Errorf("expected output to name the missing anchor, got %q", output)
		}
	})

	t.Run("ignore pattern skips documents", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		if err := os.WriteFile(filepath.Join(root, "ok.html"),
			[]byte(`<html><body><p>fine</p></body></html>`), 0600); err != nil {
			t.Fatalf("failed to write site: %v", err)
		}
		if err := os.WriteFile(filepath.Join(root, "draft.html"),
			[]byte(`<html><body><p><a href="missing.html">dead</a></p></body></html>`), 0600); err != nil {
			t.Fatalf("failed to write site: %v", err)
		}

		// Ignoring draft.html removes the only document with a dead link.
		_, err := runLinkrot(t, "check", "--no-db", "--ignore", "draft.html", root)
		if err != nil {
			t.Fatalf("expected clean run with ignored document, got %v", err)
		}
	})

	t.Run("markdown report format", func(t *testing.T) {
		t.Parallel()

		root := writeTestSite(t)
		output, err := runLinkrot(t, "check", "--no-db", "--markdown", root)
		if !errors.Is(err, ErrFindings) {
			t.Fatalf("expected ErrFindings, got %v", err)
		}
		if !bytes.Contains([]byte(output), []byte("# Linkrot Report")) {
			t.Errorf("expected markdown output, got %q", output)
		}
	})

	t.Run("conflicting report formats fail", func(t *testing.T) {
		t.Parallel()

		root := writeTestSite(t)
		if _, err := runLinkrot(t, "check", "--no-db", "--json", "--markdown", root); err == nil {
			t.Fatal("expected an error for conflicting formats")
		}
	})

	t.Run("explicit missing config file fails", func(t *testing.T) {
		t.Parallel()

		root := writeTestSite(t)
		_, err := runLinkrot(t, "check", "--no-db", "-c", filepath.Join(root, "nope.yaml"), root)
		if err == nil {
			t.Fatal("expected an error for missing config file")
		}
	})

	t.Run("config file in site root applies", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		page := `<html><body><p><a href="index.html#gone">self</a></p></body></html>`
		if err := os.WriteFile(filepath.Join(root, "index.html"), []byte(page), 0600); err != nil {
			t.Fatalf("failed to write site: %v", err)
		}
		// Anchor checking comes from the site's own config file.
		if err := os.WriteFile(filepath.Join(root, ".linkrot"), []byte("checkAnchors: true\n"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		_, err := runLinkrot(t, "check", "--no-db", root)
		if !errors.Is(err, ErrFindings) {
			t.Fatalf("expected ErrFindings from config-enabled anchor checking, got %v", err)
		}
	})

	t.Run("multiple roots are checked independently", func(t *testing.T) {
		t.Parallel()

		brokenRoot := writeTestSite(t)

		cleanRoot := t.TempDir()
		if err := os.WriteFile(filepath.Join(cleanRoot, "index.html"),
			[]byte(`<html><body><p>hello</p></body></html>`), 0600); err != nil {
			t.Fatalf("failed to write site: %v", err)
		}

		output, err := runLinkrot(t, "check", "--no-db", cleanRoot, brokenRoot)
		if !errors.Is(err, ErrFindings) {
			t.Fatalf("expected ErrFindings from the broken root, got %v", err)
		}
		if !bytes.Contains([]byte(output), []byte(cleanRoot)) || !bytes.Contains([]byte(output), []byte(brokenRoot)) {
			t.Errorf("expected a report per root, got %q", output)
		}
	})
}

// TestBuildConfig tests flag-to-config mapping.
func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("maps flags", func(t *testing.T) {
		t.Parallel()

		cmd := NewCheckCmd()
		if err := cmd.Flags().Set("check-anchors", "true"); err != nil {
			t.Fatal(err)
		}
		if err := cmd.Flags().Set("jobs", "3"); err != nil {
			t.Fatal(err)
		}
		if err := cmd.Flags().Set("ignore", "drafts"); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd, []string{"public"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !cfg.CheckAnchors {
			t.Error("expected CheckAnchors to be set")
		}
		if cfg.Jobs != 3 {
			t.Errorf("got jobs %d, expected 3", cfg.Jobs)
		}
		if len(cfg.IgnorePatterns) != 1 || cfg.IgnorePatterns[0] != "drafts" {
			t.Errorf("got ignore patterns %v", cfg.IgnorePatterns)
		}
		if len(cfg.Roots) != 1 || cfg.Roots[0] != "public" {
			t.Errorf("got roots %v", cfg.Roots)
		}
	})
}
