// Package discover walks a paginated listing index and collects the
// deduplicated set of listing links.
package discover

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// PageGetter fetches one index page
type PageGetter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// SnapshotWriter persists the complete current link set
type SnapshotWriter interface {
	WriteLinks(links []string) error
}

// Config controls pagination
type Config struct {
	BaseURL    string
	PageSuffix string // appended to BaseURL before the page index
	MaxPages   int
	Warmup     int // early stop only applies past this page index
}

// PageResult describes the outcome of one index page
type PageResult struct {
	Page     int
	URL      string
	Strategy string
	Found    int
	New      int
	Total    int
	Err      error
}

// Engine drives link discovery
type Engine struct {
	cfg        Config
	pages      PageGetter
	snapshot   SnapshotWriter
	norm       Normalizer
	strategies []Strategy
	logger     zerolog.Logger

	// OnPage, when set, is called after every page
	OnPage func(PageResult)
}

// NewEngine creates a discovery engine. snapshot may be nil.
func NewEngine(cfg Config, pages PageGetter, snapshot SnapshotWriter, norm Normalizer) *Engine {
	if cfg.PageSuffix == "" {
		cfg.PageSuffix = ":p:"
	}
	return &Engine{
		cfg:        cfg,
		pages:      pages,
		snapshot:   snapshot,
		norm:       norm,
		strategies: DefaultStrategies(),
		logger:     log.Logger,
	}
}

// WithStrategies replaces the ranked strategy chain
func (e *Engine) WithStrategies(s []Strategy) *Engine {
	e.strategies = s
	return e
}

// WithLogger sets the logger used for page events
func (e *Engine) WithLogger(l zerolog.Logger) *Engine {
	e.logger = l
	return e
}

// PageURL returns the index URL of page n
func (e *Engine) PageURL(n int) string {
	return e.cfg.BaseURL + e.cfg.PageSuffix + strconv.Itoa(n)
}

// ProcessPage merges the links found in markup into acc and returns it.
// Markup that cannot be parsed contributes no links.
func (e *Engine) ProcessPage(acc *LinkSet, page int, markup []byte) (*LinkSet, PageResult) {
	if acc == nil {
		acc = NewLinkSet()
	}
	res := PageResult{Page: page, URL: e.PageURL(page)}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		res.Err = fmt.Errorf("parse page %d: %w", page, err)
		res.Total = acc.Len()
		return acc, res
	}

	hrefs, strategy := Locate(doc, e.strategies)
	links := e.norm.NormalizeAll(hrefs)

	res.Strategy = strategy
	res.Found = len(links)
	res.New = acc.Merge(links)
	res.Total = acc.Len()
	return acc, res
}

// ShouldStop reports whether pagination ends after a processed page
func (e *Engine) ShouldStop(res PageResult) bool {
	return res.New == 0 && res.Page > e.cfg.Warmup
}

// Run visits pages 1..MaxPages, growing seed. The snapshot is rewritten after
// every page that was fetched. On cancellation the set collected so far is
// returned together with the context error.
func (e *Engine) Run(ctx context.Context, seed *LinkSet) (*LinkSet, error) {
	acc := seed
	if acc == nil {
		acc = NewLinkSet()
	}

	for page := 1; page <= e.cfg.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return acc, err
		}

		pageURL := e.PageURL(page)
		e.logger.Info().Int("page", page).Int("max_pages", e.cfg.MaxPages).Str("url", pageURL).Msg("Scraping index page")

		markup, err := e.pages.Get(ctx, pageURL)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return acc, ctx.Err()
			}
			e.logger.Warn().Err(err).Int("page", page).Str("url", pageURL).Msg("Failed to fetch index page")
			e.notify(PageResult{Page: page, URL: pageURL, Total: acc.Len(), Err: err})
			continue
		}

		var res PageResult
		acc, res = e.ProcessPage(acc, page, markup)
		if res.Err != nil {
			e.logger.Warn().Err(res.Err).Int("page", page).Msg("Index page could not be parsed")
		}

		if e.snapshot != nil {
			if err := e.snapshot.WriteLinks(acc.Sorted()); err != nil {
				return acc, fmt.Errorf("save link snapshot: %w", err)
			}
		}

		e.logger.Info().
			Int("page", page).
			Str("strategy", res.Strategy).
			Int("found", res.Found).
			Int("new", res.New).
			Int("total", res.Total).
			Msg("Index page processed")
		e.notify(res)

		if e.ShouldStop(res) {
			e.logger.Info().Int("page", page).Msg("No new links past warm-up, stopping early")
			break
		}
	}

	return acc, nil
}

func (e *Engine) notify(res PageResult) {
	if e.OnPage != nil {
		e.OnPage(res)
	}
}
