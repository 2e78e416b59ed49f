package crawler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/sitescan/internal/config"
	"github.com/nao1215/sitescan/internal/model"
	"golang.org/x/sync/errgroup"
)

// Factory builds a ready-to-run Crawler for the named target. It is called
// once per target and must return an independent instance with its own
// fetcher and store; crawls share nothing. Returning an error skips the
// target, which the batch records as a failed report.
type Factory func(target string) (*Crawler, error)

// BatchProcessor crawls multiple targets concurrently.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: a separate BatchProcessor rather than batch support
// inside Crawler because:
//  1. It keeps the Crawler focused on a single target's step loop
//  2. Each target gets a fresh Crawler and fetcher, so no state leaks
//     between runs
//  3. Concurrency policy (limits, cancellation) lives in one place
type BatchProcessor struct {
	// factory creates the Crawler for each target.
	factory Factory

	// concurrency is the maximum number of targets crawled at once.
	// Each target still crawls single-threaded.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed crawl reports, indexed to match the
	// targets slice. Access is synchronized via mu.
	results []*model.CrawlReport
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(bp *BatchProcessor) {
		bp.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent crawls.
// Non-positive values are ignored and the default
// (config.DefaultBatchSize) is kept.
func WithConcurrency(n int) BatchOption {
	return func(bp *BatchProcessor) {
		if n > 0 {
			bp.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor. The factory is called for
// each target so every crawl starts from a fresh Crawler.
func NewBatchProcessor(factory Factory, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		factory:     factory,
		concurrency: config.DefaultBatchSize,
		results:     make([]*model.CrawlReport, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch crawls the targets concurrently and returns one report per
// target, in input order. A target that fails to build or crawl still
// yields a report carrying its error; only context cancellation makes the
// returned error non-nil, and cancelled entries may be nil.
//
// Design decision: errgroup.SetLimit rather than a hand-rolled worker pool
// because:
//  1. It bounds concurrency and propagates cancellation in a few lines
//  2. Per-target outcomes live in the reports, so goroutines never need
//     to return crawl errors
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, targets []string) ([]*model.CrawlReport, error) {
	bp.logger.Info("starting batch crawl",
		"total_targets", len(targets),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Pre-allocate so reports land at their target's index.
	bp.results = make([]*model.CrawlReport, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			// Check for cancellation before starting
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("crawling target",
				"target", target,
				"index", i+1,
				"total", len(targets),
			)

			report := bp.runOne(ctx, target)

			// Store the report regardless of outcome; it carries its
			// own error information.
			bp.mu.Lock()
			bp.results[i] = report
			bp.mu.Unlock()

			if !report.State.Success() {
				bp.logger.Warn("crawl ended unsuccessfully",
					"target", target,
					"state", report.State.String(),
					"error", report.ErrorMessage,
				)
				// Don't return the error to errgroup - the other
				// targets should keep crawling.
				return nil
			}

			bp.logger.Info("crawl completed",
				"target", target,
				"pages", report.PagesVisited,
			)

			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch crawl complete",
		"total_targets", len(targets),
		"elapsed", time.Since(startTime),
	)

	return bp.results, err
}

// runOne builds and runs the Crawler for one target. Factory errors become
// failed reports so the result slice stays aligned with the input.
func (bp *BatchProcessor) runOne(ctx context.Context, target string) *model.CrawlReport {
	c, err := bp.factory(target)
	if err != nil {
		report := model.NewCrawlReport(target, nil)
		report.Finish(model.StateFailed, err)
		return report
	}
	return c.Run(ctx)
}
