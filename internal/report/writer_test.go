package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/linkrot/internal/model"
)

// createTestReport creates a report with sample data for testing.
func createTestReport() *model.CheckReport {
	report := model.NewCheckReport("public")
	report.StartedAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	report.Elapsed = 1500 * time.Millisecond
	report.DocumentCount = 12
	report.UsedLinks = 48
	report.DefinedLinks = 9
	report.CheckAnchors = true
	report.Broken = []model.BrokenLink{
		{
			Href: "missing.html",
			Sources: []model.LinkSource{
				{Path: "public/index.html"},
				{Path: "public/blog/post.html", Paragraph: "0a1b2c"},
			},
		},
		{
			Href: "platform/index.html#gone",
			Sources: []model.LinkSource{
				{Path: "public/about.html"},
			},
		},
	}
	report.DocumentErrors = []model.DocumentError{
		{Path: "public/legacy.html", Message: "invalid encoding"},
	}
	return report
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "LINKROT REPORT") {
			t.Error("expected output to contain header")
		}
		if !strings.Contains(output, "public") {
			t.Error("expected output to contain the site root")
		}
	})

	t.Run("lists broken links with their sources", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "missing.html") {
			t.Error("expected output to contain the broken target")
		}
		if !strings.Contains(output, "public/blog/post.html") {
			t.Error("expected output to contain the referencing document")
		}
		if !strings.Contains(output, "platform/index.html#gone") {
			t.Error("expected output to contain the broken anchor")
		}
	})

	t.Run("lists document errors", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "public/legacy.html: invalid encoding") {
			t.Error("expected output to contain document errors")
		}
	})

	t.Run("verbose mode shows paragraph fingerprints", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "0a1b2c") {
			t.Error("expected output to contain the paragraph fingerprint")
		}
	})

	t.Run("clean report skips findings sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		report := model.NewCheckReport("public")
		if _, err := w.Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if strings.Contains(output, "BROKEN LINKS") {
			t.Error("expected broken links section to be hidden for a clean report")
		}
		if !strings.Contains(output, "All links resolved") {
			t.Error("expected clean summary line")
		}
	})

	t.Run("showEmpty displays empty sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithShowEmpty(true))

		report := model.NewCheckReport("public")
		if _, err := w.Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "No broken links") {
			t.Error("expected empty broken links section")
		}
	})
}

// TestJSONWriter tests JSON report output.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("output is valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded model.CheckReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.Root != "public" {
			t.Errorf("got root %q, expected %q", decoded.Root, "public")
		}
		if len(decoded.Broken) != 2 {
			t.Errorf("got %d broken links, expected 2", len(decoded.Broken))
		}
	})

	t.Run("pretty print indents output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "\n  \"root\"") {
			t.Error("expected indented JSON output")
		}
	})
}

// TestMarkdownWriter tests Markdown report output.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes broken links table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "# Linkrot Report") {
			t.Error("expected markdown header")
		}
		if !strings.Contains(output, "`missing.html`") {
			t.Error("expected broken target in the table")
		}
		if !strings.Contains(output, "## Document Errors") {
			t.Error("expected document errors section")
		}
	})

	t.Run("clean report omits errors section", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(model.NewCheckReport("public")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if strings.Contains(output, "## Document Errors") {
			t.Error("expected document errors section to be omitted")
		}
		if !strings.Contains(output, "No broken links detected.") {
			t.Error("expected clean broken links section")
		}
	})
}

// TestMultiWriter tests fan-out to multiple writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var text, js bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))

		if _, err := mw.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if text.Len() == 0 || js.Len() == 0 {
			t.Error("expected output in both writers")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		mw := NewMultiWriter(NewJSONWriter(&failingWriter{}), NewJSONWriter(&buf))

		if _, err := mw.Write(createTestReport()); err == nil {
			t.Fatal("expected an error from the failing writer")
		}
		if buf.Len() != 0 {
			t.Error("expected later writers to be skipped after an error")
		}
	})
}

// failingWriter always fails, for error-path tests.
type failingWriter struct{}

func (f *failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("write failed")
}

// TestTruncateString tests the markdown cell truncation helper.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short string unchanged", "abc", 10, "abc"},
		{"exact length unchanged", "abcde", 5, "abcde"},
		{"long string gets ellipsis", "abcdefghij", 8, "abcde..."},
		{"tiny limit hard-cuts", "abcdef", 2, "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := truncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("got %q, expected %q", got, tt.want)
			}
		})
	}
}
