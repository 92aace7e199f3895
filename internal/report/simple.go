package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/linkrot/internal/model"
)

// timeRounding is the precision used when rendering elapsed durations.
const timeRounding = time.Millisecond

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no findings are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.CheckReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeBrokenLinks(&sb, report)
	w.writeDocumentErrors(&sb, report)
	w.writeSummary(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with check information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CheckReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          LINKROT REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Site Root:      %s\n", report.Root))
	sb.WriteString(fmt.Sprintf("Check Date:     %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Documents:      %d\n", report.DocumentCount))
	sb.WriteString(fmt.Sprintf("Links Used:     %d\n", report.UsedLinks))

	if report.CheckAnchors {
		sb.WriteString(fmt.Sprintf("Anchors:        %d defined (anchor checking on)\n", report.DefinedLinks))
	}

	sb.WriteString("\n")
}

// writeBrokenLinks writes every unresolved target with its referencing
// locations.
func (w *SimpleWriter) writeBrokenLinks(sb *strings.Builder, report *model.CheckReport) {
	if len(report.Broken) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("BROKEN LINKS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.Broken) == 0 {
		sb.WriteString("  No broken links\n\n")
		return
	}

	for _, broken := range report.Broken {
		sb.WriteString(fmt.Sprintf("  [x] %s\n", broken.Href))
		for _, src := range broken.Sources {
			sb.WriteString(fmt.Sprintf("      used in %s\n", src.Path))
			if w.verbose && src.Paragraph != "" {
				sb.WriteString(fmt.Sprintf("      paragraph %s\n", src.Paragraph))
			}
		}
	}
	sb.WriteString("\n")
}

// writeDocumentErrors writes documents that could not be scanned.
func (w *SimpleWriter) writeDocumentErrors(sb *strings.Builder, report *model.CheckReport) {
	if len(report.DocumentErrors) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("DOCUMENT ERRORS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.DocumentErrors) == 0 {
		sb.WriteString("  No document errors\n")
	} else {
		for _, docErr := range report.DocumentErrors {
			sb.WriteString(fmt.Sprintf("  [!] %s: %s\n", docErr.Path, docErr.Message))
		}
	}
	sb.WriteString("\n")
}

// writeSummary writes the closing summary line.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.CheckReport) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	switch {
	case report.HasFindings():
		sb.WriteString(fmt.Sprintf("Found %d broken link(s) and %d document error(s) in %s\n",
			len(report.Broken), len(report.DocumentErrors), report.Elapsed.Round(timeRounding)))
	default:
		sb.WriteString(fmt.Sprintf("All links resolved in %s\n", report.Elapsed.Round(timeRounding)))
	}

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
