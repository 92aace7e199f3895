package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/nao1215/linkrot/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and CI job summaries.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CheckReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeBrokenLinks(md, report)
	w.writeDocumentErrors(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with check information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CheckReport) {
	md.H1("Linkrot Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Site Root", "`" + report.Root + "`"},
			{"Check Date", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Documents", strconv.Itoa(report.DocumentCount)},
			{"Links Used", strconv.Itoa(report.UsedLinks)},
			{"Elapsed", report.Elapsed.Round(timeRounding).String()},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")

	w.writeAlert(md, report)
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.CheckReport) string {
	if report.HasFindings() {
		return "❌ " + strconv.Itoa(len(report.Broken)) + " broken link(s)"
	}
	return "✅ All links resolved"
}

// writeAlert writes an appropriate alert based on the findings.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.CheckReport) {
	switch {
	case len(report.Broken) > 0:
		md.Cautionf(
			"Broken links detected! %d target(s) could not be resolved.",
			len(report.Broken),
		)
	case len(report.DocumentErrors) > 0:
		md.Warningf(
			"%d document(s) could not be scanned.",
			len(report.DocumentErrors),
		)
	default:
		md.Tip("No broken links detected.")
	}
	md.PlainText("")
}

// writeBrokenLinks writes the broken links table.
func (w *MarkdownWriter) writeBrokenLinks(md *markdown.Markdown, report *model.CheckReport) {
	md.H2("Broken Links")
	md.PlainText("")

	if len(report.Broken) == 0 {
		md.PlainText("No broken links detected.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(report.Broken))
	for _, broken := range report.Broken {
		paths := make([]string, 0, len(broken.Sources))
		for _, src := range broken.Sources {
			paths = append(paths, "`"+src.Path+"`")
		}

		rows = append(rows, []string{
			"`" + string(broken.Href) + "`",
			strconv.Itoa(len(broken.Sources)),
			truncateString(strings.Join(paths, ", "), 100),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Target", "Uses", "Used In"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeDocumentErrors writes the document errors table.
func (w *MarkdownWriter) writeDocumentErrors(md *markdown.Markdown, report *model.CheckReport) {
	if len(report.DocumentErrors) == 0 {
		return
	}

	md.H2("Document Errors")
	md.PlainText("")

	rows := make([][]string, 0, len(report.DocumentErrors))
	for _, docErr := range report.DocumentErrors {
		rows = append(rows, []string{
			"`" + docErr.Path + "`",
			truncateString(docErr.Message, 80),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Document", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
