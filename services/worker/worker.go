package worker

import (
	"context"
	"fmt"
	"time"

	"sjsage522/newsharvester/internal/crawler"
	"sjsage522/newsharvester/logger"
	"sjsage522/newsharvester/pkg/errors"
	"sjsage522/newsharvester/services/publisher"
	"sjsage522/newsharvester/services/store"
)

// ListingSource discovers stubs for one category run
type ListingSource interface {
	Scrape(ctx context.Context, run *crawler.Run) error
}

// DetailSource turns a stub into a full article
type DetailSource interface {
	Scrape(ctx context.Context, stub crawler.ArticleStub) (*crawler.ScrapedArticle, error)
}

// Gate answers whether a source URL was already ingested
type Gate interface {
	Exists(ctx context.Context, sourceURL string) (bool, error)
	MarkSeen(ctx context.Context, sourceURL string)
}

// Options holds the pipeline settings taken from the config
type Options struct {
	Origin        string
	Categories    []string
	CategoryDelay time.Duration
	ArticleDelay  time.Duration
	Limit         int
}

// Worker runs the ingestion pipeline: listing, dedup, detail, persist, publish
type Worker struct {
	listing   ListingSource
	detail    DetailSource
	gate      Gate
	store     store.Store
	publisher publisher.Publisher
	opts      Options
	log       *logger.Logger

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewWorker creates a new worker
func NewWorker(
	listing ListingSource,
	detail DetailSource,
	gate Gate,
	st store.Store,
	pub publisher.Publisher,
	opts Options,
) *Worker {
	if pub == nil {
		pub = publisher.NopPublisher{}
	}
	return &Worker{
		listing:   listing,
		detail:    detail,
		gate:      gate,
		store:     st,
		publisher: pub,
		opts:      opts,
		log:       logger.ForWorker(),
		sleep:     sleepContext,
		now:       time.Now,
	}
}

// Run processes every category sequentially with the category delay between them.
// A failing category is reported and the next one still runs. A cancelled ctx
// stops the run between items.
func (w *Worker) Run(ctx context.Context, limit int) RunReport {
	if limit <= 0 {
		limit = w.opts.Limit
	}

	report := RunReport{StartedAt: w.now(), Limit: limit}
	w.log.Info().Int("categories", len(w.opts.Categories)).Int("limit", limit).Msg("crawl run started")

	for i, category := range w.opts.Categories {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}
		if i > 0 {
			if err := w.sleep(ctx, w.opts.CategoryDelay); err != nil {
				report.Cancelled = true
				break
			}
		}

		cr, err := w.safeIngest(ctx, category, limit)
		if err != nil {
			w.log.Error().Err(err).Str("category", category).Msg("category run failed")
		}
		report.Categories = append(report.Categories, cr)
	}

	// Trim the event stream after crawling
	if err := w.publisher.TrimStreams(context.WithoutCancel(ctx)); err != nil {
		w.log.Warn().Err(err).Msg("stream trimming failed")
	}

	report.FinishedAt = w.now()
	w.log.Info().
		Int("persisted", report.Persisted()).
		Int("failed", report.Failed()).
		Dur("elapsed", report.FinishedAt.Sub(report.StartedAt)).
		Bool("cancelled", report.Cancelled).
		Msg("crawl run finished")
	return report
}

// safeIngest keeps a panic in one category from ending the run
func (w *Worker) safeIngest(ctx context.Context, category string, limit int) (report CategoryReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while ingesting %s: %v", category, r)
			report.Category = category
			report.setErr(err)
		}
	}()
	return w.IngestCategory(ctx, category, limit)
}

// IngestCategory runs listing discovery for one category and ingests every new stub.
// Only a listing failure is returned; per-article failures are counted and skipped.
func (w *Worker) IngestCategory(ctx context.Context, category string, limit int) (CategoryReport, error) {
	if limit <= 0 {
		limit = w.opts.Limit
	}

	started := w.now()
	listingURL := crawler.Normalize(category, w.opts.Origin)
	log := logger.ForScraper(category)
	report := CategoryReport{Category: category, ListingURL: listingURL}

	run := crawler.NewRun(category, listingURL, limit, started)
	if err := w.listing.Scrape(ctx, run); err != nil {
		report.setErr(err)
		report.Elapsed = w.now().Sub(started)
		return report, err
	}
	report.Discovered = len(run.Stubs)

	fetched := false
	for _, stub := range run.Stubs {
		if ctx.Err() != nil {
			break
		}
		if fetched {
			if err := w.sleep(ctx, w.opts.ArticleDelay); err != nil {
				break
			}
		}
		// The item in flight finishes even if ctx is cancelled meanwhile
		fetched = w.ingestStub(context.WithoutCancel(ctx), stub, &report, log)
	}

	report.Elapsed = w.now().Sub(started)
	log.Info().
		Int("discovered", report.Discovered).
		Int("skipped", report.Skipped).
		Int("persisted", report.Persisted).
		Int("failed", report.Failed).
		Dur("elapsed", report.Elapsed).
		Msg("category ingested")
	return report, nil
}

// ingestStub returns true when the detail page was fetched
func (w *Worker) ingestStub(ctx context.Context, stub crawler.ArticleStub, report *CategoryReport, log *logger.Logger) bool {
	exists, err := w.gate.Exists(ctx, stub.Link)
	if err != nil {
		report.Failed++
		log.Error().Err(err).Str("url", stub.Link).Msg("dedup lookup failed; stub skipped")
		return false
	}
	if exists {
		report.Skipped++
		return false
	}

	article, err := w.detail.Scrape(ctx, stub)
	if err != nil {
		// The stub is dropped and reconsidered on the next run
		report.Failed++
		log.Warn().Err(err).Str("url", stub.Link).Bool("retryable", errors.IsRetryable(err)).Msg("detail scrape failed; stub dropped")
		return true
	}

	id, inserted, err := w.store.Insert(ctx, article)
	if err != nil {
		report.Failed++
		log.Error().Err(err).Str("url", article.SourceURL).Bool("retryable", errors.IsRetryable(err)).Msg("persist failed; article skipped")
		return true
	}
	w.gate.MarkSeen(ctx, article.SourceURL)
	if !inserted {
		report.Skipped++
		return true
	}
	report.Persisted++
	log.Debug().Str("id", id).Str("url", article.SourceURL).Msg("article persisted")

	w.publish(ctx, id, article, log)
	return true
}

func (w *Worker) publish(ctx context.Context, id string, article *crawler.ScrapedArticle, log *logger.Logger) {
	payload, err := publisher.ArticleIngested{
		ID:          id,
		SourceURL:   article.SourceURL,
		Title:       article.Title,
		Category:    article.Category,
		PublishedAt: article.PublishedAt,
	}.Marshal()
	if err != nil {
		log.Error().Err(err).Str("url", article.SourceURL).Msg("failed to encode ingest event")
		return
	}
	if err := w.publisher.Publish(ctx, publisher.ArticleIngestedKey, payload); err != nil {
		log.Warn().Err(err).Str("url", article.SourceURL).Msg("failed to publish ingest event")
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
