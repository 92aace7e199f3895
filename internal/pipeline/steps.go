package pipeline

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/linkrot/internal/checker"
	"github.com/nao1215/linkrot/internal/htmldoc"
	"github.com/nao1215/linkrot/internal/intern"
	"github.com/nao1215/linkrot/internal/model"
	"github.com/nao1215/linkrot/internal/walker"
)

// DiscoverStep collects the markup files under the report's site root.
type DiscoverStep struct {
	// ignorePatterns are glob patterns for paths to skip.
	ignorePatterns []string

	// logger for structured logging.
	logger *slog.Logger
}

// DiscoverStepOption configures a DiscoverStep.
type DiscoverStepOption func(*DiscoverStep)

// WithDiscoverIgnorePatterns sets paths to skip during discovery.
func WithDiscoverIgnorePatterns(patterns []string) DiscoverStepOption {
	return func(s *DiscoverStep) {
		s.ignorePatterns = patterns
	}
}

// WithDiscoverLogger sets a custom logger for the discovery step.
func WithDiscoverLogger(logger *slog.Logger) DiscoverStepOption {
	return func(s *DiscoverStep) {
		s.logger = logger
	}
}

// NewDiscoverStep creates a document discovery step.
func NewDiscoverStep(opts ...DiscoverStepOption) *DiscoverStep {
	s := &DiscoverStep{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *DiscoverStep) Name() string {
	return "discover-documents"
}

// Do walks the site root and records the sorted document paths.
func (s *DiscoverStep) Do(_ context.Context, report *model.CheckReport) error {
	w := walker.New(report.Root, walker.WithIgnorePatterns(s.ignorePatterns))
	paths, err := w.Collect()
	if err != nil {
		return err
	}

	report.Paths = paths
	s.logger.Debug("documents discovered",
		"root", report.Root,
		"count", len(paths),
	)
	return nil
}

// ScanStep scans every discovered document concurrently and collects the
// extracted links. Documents are the unit of parallel work; workers share
// only the Store, so it must be safe for concurrent use when jobs > 1
// (the shared Interner is; a private Arena is not).
type ScanStep struct {
	// store owns every href and fingerprint produced by the scans.
	store intern.Store

	// jobs is the maximum number of concurrent document scans.
	jobs int

	// checkAnchors enables anchor-definition extraction.
	checkAnchors bool

	// getParagraphs enables paragraph fingerprinting.
	getParagraphs bool

	// logger for structured logging.
	logger *slog.Logger
}

// ScanStepOption configures a ScanStep.
type ScanStepOption func(*ScanStep)

// WithScanJobs sets the maximum number of concurrent document scans.
// Defaults to the number of CPUs.
func WithScanJobs(n int) ScanStepOption {
	return func(s *ScanStep) {
		if n > 0 {
			s.jobs = n
		}
	}
}

// WithScanAnchors enables anchor-definition extraction.
func WithScanAnchors(enabled bool) ScanStepOption {
	return func(s *ScanStep) {
		s.checkAnchors = enabled
	}
}

// WithScanParagraphs enables paragraph fingerprinting.
func WithScanParagraphs(enabled bool) ScanStepOption {
	return func(s *ScanStep) {
		s.getParagraphs = enabled
	}
}

// WithScanLogger sets a custom logger for the scan step.
func WithScanLogger(logger *slog.Logger) ScanStepOption {
	return func(s *ScanStep) {
		s.logger = logger
	}
}

// NewScanStep creates a document scanning step backed by store.
func NewScanStep(store intern.Store, opts ...ScanStepOption) *ScanStep {
	s := &ScanStep{
		store:  store,
		jobs:   runtime.NumCPU(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ScanStep) Name() string {
	return "scan-documents"
}

// Do scans report.Paths with up to jobs workers. A document's failure is
// recorded in the report and never aborts the run; only cancellation
// stops the step early.
func (s *ScanStep) Do(ctx context.Context, report *model.CheckReport) error {
	// Pre-allocate to keep results in discovery order regardless of
	// which worker finishes first.
	results := make([]*model.DocumentResult, len(report.Paths))

	var mu sync.Mutex // guards report.DocumentErrors

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.jobs)

	for i, path := range report.Paths {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			doc, err := htmldoc.NewDocument(s.store, report.Root, path)
			if err != nil {
				mu.Lock()
				report.AddDocumentError(path, err)
				mu.Unlock()
				return nil
			}

			opts := htmldoc.ScanOptions{
				CheckAnchors:  s.checkAnchors,
				GetParagraphs: s.getParagraphs,
			}
			if s.getParagraphs {
				// Each worker owns its walker; no locking needed.
				opts.Walker = htmldoc.NewParagraphHasher()
			}

			var links []htmldoc.Link
			if err := doc.Links(&links, opts); err != nil {
				s.logger.Warn("document scan failed",
					"path", path,
					"error", err,
				)
				mu.Lock()
				report.AddDocumentError(path, err)
				mu.Unlock()
				return nil
			}

			results[i] = &model.DocumentResult{
				Path:  doc.Path,
				Href:  doc.Href,
				Links: links,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for _, res := range results {
		if res != nil {
			report.Documents = append(report.Documents, *res)
		}
	}

	s.logger.Debug("documents scanned",
		"root", report.Root,
		"scanned", len(report.Documents),
		"failed", len(report.DocumentErrors),
	)
	return nil
}

// ReconcileStep matches every use against the defined set and fills the
// report's broken-link list and counters.
type ReconcileStep struct {
	// checkAnchors enables fragment validation during matching.
	checkAnchors bool
}

// NewReconcileStep creates a reconciliation step.
func NewReconcileStep(checkAnchors bool) *ReconcileStep {
	return &ReconcileStep{checkAnchors: checkAnchors}
}

// Name returns the step name.
func (s *ReconcileStep) Name() string {
	return "reconcile-links"
}

// Do runs the checker over the scanned documents.
func (s *ReconcileStep) Do(_ context.Context, report *model.CheckReport) error {
	checker.New(s.checkAnchors).Check(report)
	return nil
}

// ReportSaver persists a finished check report. Implemented by
// database.HistoryDB; defined here so the step is testable without a
// database.
type ReportSaver interface {
	SaveCheckReport(ctx context.Context, report *model.CheckReport) (int64, error)
}

// HistoryStep saves the finished report for later run-over-run comparison.
type HistoryStep struct {
	// saver is the persistence backend. A nil saver makes the step a
	// no-op, so callers can wire it unconditionally.
	saver ReportSaver

	// logger for structured logging.
	logger *slog.Logger
}

// NewHistoryStep creates a history persistence step.
func NewHistoryStep(saver ReportSaver, logger *slog.Logger) *HistoryStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryStep{saver: saver, logger: logger}
}

// Name returns the step name.
func (s *HistoryStep) Name() string {
	return "save-history"
}

// Do persists the report if a saver is configured.
func (s *HistoryStep) Do(ctx context.Context, report *model.CheckReport) error {
	if s.saver == nil {
		return nil
	}

	// This is the last step, so the elapsed time is complete here.
	if report.Elapsed == 0 {
		report.Elapsed = time.Since(report.StartedAt)
	}

	id, err := s.saver.SaveCheckReport(ctx, report)
	if err != nil {
		return err
	}

	s.logger.Debug("check report saved",
		"root", report.Root,
		"run_id", id,
	)
	return nil
}
