package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/linkrot/internal/model"
)

// BatchProcessor handles concurrent checking of multiple site roots.
// It uses errgroup to manage goroutines and respect concurrency limits.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each root.
	// A factory ensures each check gets a fresh pipeline instance.
	pipelineFactory func(root string) *Pipeline

	// concurrency is the maximum number of concurrent checks.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed check reports.
	// Access is synchronized via mutex.
	results []*model.CheckReport
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithBatchConcurrency sets the maximum number of concurrent checks.
// Default is 4 if not specified.
func WithBatchConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory is called once per site root so that pipeline state
// never leaks between checks.
func NewBatchProcessor(pipelineFactory func(root string) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     4,
		results:         make([]*model.CheckReport, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch checks multiple site roots concurrently.
// It respects the configured concurrency limit and context cancellation.
//
// Returns all reports collected, in input order, even for roots whose
// check failed; failures are logged and leave a report with document
// errors rather than aborting the batch.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, roots []string) ([]*model.CheckReport, error) {
	bp.logger.Info("starting batch check",
		"total_roots", len(roots),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Pre-allocate results slice to maintain order
	bp.results = make([]*model.CheckReport, len(roots))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, root := range roots {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("checking site root",
				"root", root,
				"index", i+1,
				"total", len(roots),
			)

			report := model.NewCheckReport(root)

			p := bp.pipelineFactory(root)
			err := p.Execute(ctx, report)
			report.Elapsed = time.Since(report.StartedAt)

			bp.mu.Lock()
			bp.results[i] = report
			bp.mu.Unlock()

			if err != nil {
				bp.logger.Warn("check failed",
					"root", root,
					"error", err,
				)
				// Don't fail the errgroup; other roots should still
				// be checked.
				return nil
			}

			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch check complete",
		"total_roots", len(roots),
		"elapsed", time.Since(startTime),
	)

	return bp.results, err
}

// ProcessBatchWithCallback checks multiple roots and calls a callback for
// each completed check. This is useful for streaming results.
//
// The callback is called from the goroutine that completed the check, so
// it must be thread-safe if it accesses shared state.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	roots []string,
	callback func(report *model.CheckReport, index int),
) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, root := range roots {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			report := model.NewCheckReport(root)
			p := bp.pipelineFactory(root)
			_ = p.Execute(ctx, report) //nolint:errcheck // Failures leave document errors in the report
			report.Elapsed = time.Since(report.StartedAt)

			callback(report, i)

			return nil
		})
	}

	return g.Wait()
}
