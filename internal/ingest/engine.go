// Package ingest fetches listing detail pages and persists one record per
// link.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/immocrawl/internal/store"
	"github.com/law-makers/immocrawl/pkg/models"
)

// PageGetter fetches one detail page
type PageGetter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// RecordExtractor turns detail markup into a record
type RecordExtractor interface {
	Extract(markup []byte, sourceURL string) (models.PropertyRecord, error)
}

// Summary counts what a run produced
type Summary struct {
	Attempted int // records persisted
	Extracted int
	Degraded  int // sentinel records after fetch or parse failure
}

// Engine runs detail ingestion
type Engine struct {
	pages     PageGetter
	extractor RecordExtractor
	sink      store.RecordSink
	workers   int
	logger    zerolog.Logger

	// OnRecord, when set, is called by the writer after each persisted record
	OnRecord func(Outcome)
}

// NewEngine creates an ingestion engine using up to workers concurrent
// fetchers, clamped to 1..MaxWorkers
func NewEngine(pages PageGetter, extractor RecordExtractor, sink store.RecordSink, workers int) *Engine {
	return &Engine{
		pages:     pages,
		extractor: extractor,
		sink:      sink,
		workers:   clampWorkers(workers),
		logger:    log.Logger,
	}
}

// WithLogger sets the logger used for item events
func (e *Engine) WithLogger(l zerolog.Logger) *Engine {
	e.logger = l
	return e
}

// Workers returns the effective pool size
func (e *Engine) Workers() int {
	return e.workers
}

// Run ingests links. Every link that is attempted yields exactly one record.
// A sink failure aborts the run and is returned. On cancellation no new link
// is started, records already produced are persisted and the context error is
// returned. With more than one worker, output order may differ from links.
func (e *Engine) Run(ctx context.Context, links []models.ListingLink) (Summary, error) {
	var sum Summary
	if err := ctx.Err(); err != nil {
		return sum, err
	}
	if len(links) == 0 {
		return sum, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.logger.Info().Int("links", len(links)).Int("workers", e.workers).Msg("Starting detail ingestion")

	// writes outlive cancellation so collected records are flushed
	writeCtx := context.WithoutCancel(ctx)

	var sinkErr error
	for out := range e.dispatch(runCtx, links) {
		if sinkErr != nil {
			continue
		}
		if err := e.sink.Write(writeCtx, out.Record); err != nil {
			sinkErr = fmt.Errorf("persist record for %s: %w", out.Link, err)
			e.logger.Error().Err(err).Str("url", out.Link).Msg("Failed to persist record, aborting")
			cancel()
			continue
		}

		sum.Attempted++
		if out.Degraded() {
			sum.Degraded++
		} else {
			sum.Extracted++
		}

		e.logger.Info().
			Int("done", sum.Attempted).
			Int("total", len(links)).
			Str("url", out.Link).
			Bool("degraded", out.Degraded()).
			Msg("Listing processed")

		if e.OnRecord != nil {
			e.OnRecord(out)
		}
	}

	if sinkErr != nil {
		return sum, sinkErr
	}
	if err := ctx.Err(); err != nil {
		return sum, err
	}
	return sum, nil
}

// process fetches and extracts one link. It reports false when the fetch was
// interrupted by cancellation, in which case no record is produced.
func (e *Engine) process(ctx context.Context, link models.ListingLink) (Outcome, bool) {
	markup, err := e.pages.Get(ctx, link)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return Outcome{}, false
		}
		e.logger.Warn().Err(err).Str("url", link).Msg("Failed to fetch listing")
		return Outcome{Link: link, Record: models.NewSentinelRecord(link), Err: err}, true
	}

	rec, err := e.extractor.Extract(markup, link)
	if err != nil {
		e.logger.Warn().Err(err).Str("url", link).Msg("Failed to parse listing")
		return Outcome{Link: link, Record: models.NewSentinelRecord(link), Err: err}, true
	}
	return Outcome{Link: link, Record: rec}, true
}
