// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/immocrawl/internal/config"
	"github.com/law-makers/immocrawl/internal/discover"
	"github.com/law-makers/immocrawl/internal/extract"
	"github.com/law-makers/immocrawl/internal/fetch"
	"github.com/law-makers/immocrawl/internal/ingest"
	"github.com/law-makers/immocrawl/internal/metrics"
	"github.com/law-makers/immocrawl/internal/pipeline"
	"github.com/law-makers/immocrawl/internal/proxy"
	"github.com/law-makers/immocrawl/internal/ratelimit"
	"github.com/law-makers/immocrawl/internal/retry"
	"github.com/law-makers/immocrawl/internal/runctx"
	"github.com/law-makers/immocrawl/internal/store"
	"github.com/law-makers/immocrawl/pkg/models"
)

// Progress receives pipeline events for display
type Progress interface {
	PageDone(res discover.PageResult)
	IngestStarted(total int)
	RecordDone(out ingest.Outcome)
}

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once per command invocation. Use Close() to release
// connections on shutdown.
type Application struct {
	Config     *config.Config
	Logger     *zerolog.Logger
	Tokens     *ratelimit.DomainLimiter
	HTTPClient *http.Client
	Proxies    *proxy.Pool
	Listing    *fetch.Client // index pages, listing delay
	Detail     *fetch.Client // detail pages, detail delay
	Extractor  *extract.Extractor
	Links      store.LinkFile
	Metrics    *metrics.Metrics
	Progress   Progress

	// openSinks is replaceable in tests
	openSinks   func(ctx context.Context) (store.RecordSink, error)
	stopMetrics context.CancelFunc
	startTime   time.Time
}

// observers fans progress events out to several receivers
type observers []Progress

func (o observers) PageDone(res discover.PageResult) {
	for _, p := range o {
		p.PageDone(res)
	}
}

func (o observers) IngestStarted(total int) {
	for _, p := range o {
		p.IngestStarted(total)
	}
}

func (o observers) RecordDone(out ingest.Outcome) {
	for _, p := range o {
		p.RecordDone(out)
	}
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Creates one per-host token bucket and one request schedule shared by
//     both politeness limiters
//   - Initializes the HTTP client, proxy rotation and fetch clients
//   - Creates the extractor and the run metrics
//   - Starts the metrics endpoint when an address is configured
//
// Sinks are opened when ingestion starts.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := SetupLogging(cfg, os.Stderr)

	tokens := ratelimit.NewDomainLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	schedule := ratelimit.NewSchedule()
	listingDelay := ratelimit.Interval{Min: cfg.ListingDelayMin, Max: cfg.ListingDelayMax}
	detailDelay := ratelimit.Interval{Min: cfg.DetailDelayMin, Max: cfg.DetailDelayMax}
	for _, iv := range []ratelimit.Interval{listingDelay, detailDelay} {
		if err := iv.Validate(); err != nil {
			return nil, err
		}
	}
	logger.Debug().
		Float64("rps", cfg.RateLimitRPS).
		Int("burst", cfg.RateLimitBurst).
		Str("listing_delay", listingDelay.String()).
		Str("detail_delay", detailDelay.String()).
		Msg("Rate limiters initialized")

	var proxies *proxy.Pool
	if len(cfg.Proxies) > 0 {
		proxies = proxy.NewPool(cfg.Proxies)
		logger.Debug().Int("proxies", proxies.Len()).Msg("Proxy rotation enabled")
	}

	httpClient := fetch.NewHTTPClient()
	fetcher := fetch.New(httpClient, proxies, fetch.Options{
		UserAgent:      cfg.UserAgent,
		AcceptLanguage: cfg.AcceptLanguage,
		Headers:        cfg.Headers,
		Timeout:        cfg.HTTPTimeout,
	})

	rc := retry.DefaultConfig()
	rc.MaxAttempts = cfg.Retries + 1
	rc.InitialBackoff = cfg.RetryBackoff

	a := &Application{
		Config:     cfg,
		Logger:     &logger,
		Tokens:     tokens,
		HTTPClient: httpClient,
		Proxies:    proxies,
		Listing:    fetch.NewClient(fetcher, ratelimit.NewPoliteness(tokens, listingDelay).WithSchedule(schedule), rc),
		Detail:     fetch.NewClient(fetcher, ratelimit.NewPoliteness(tokens, detailDelay).WithSchedule(schedule), rc),
		Extractor:  extract.New(models.AmenityStyle(cfg.AmenityStyle)),
		Links:      store.LinkFile{Path: cfg.LinksFile},
		Metrics:    metrics.New(),
		startTime:  time.Now(),
	}
	a.openSinks = a.defaultSinks

	if cfg.MetricsAddr != "" {
		metricsCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
		a.stopMetrics = stop
		go func() {
			if err := a.Metrics.Serve(metricsCtx, cfg.MetricsAddr); err != nil {
				logger.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("Metrics endpoint failed")
			}
		}()
	}

	logger.Debug().Msg("Application initialized successfully")
	return a, nil
}

// SetupLogging configures the global zerolog logger from cfg and returns it.
// An unknown level falls back to warn.
func SetupLogging(cfg *config.Config, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.JSONLog {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly})
	}

	log.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")
	return log.Logger
}

// Pipeline returns the orchestrator bound to this application
func (a *Application) Pipeline() *pipeline.Pipeline {
	return &pipeline.Pipeline{
		Discover: a.discover,
		Ingest:   a.ingest,
		Links:    a.Links,
		Fresh:    a.Config.Fresh,
	}
}

// Run executes mode with this application's components
func (a *Application) Run(ctx context.Context, mode models.Mode) (pipeline.Report, error) {
	return a.Pipeline().Run(runctx.WithRun(ctx), mode)
}

func (a *Application) discover(ctx context.Context, seed *discover.LinkSet) (*discover.LinkSet, error) {
	cfg := a.Config
	eng := discover.NewEngine(
		discover.Config{
			BaseURL:  cfg.BaseURL,
			MaxPages: cfg.MaxPages,
			Warmup:   cfg.WarmupPages,
		},
		a.Listing,
		a.Links,
		discover.Normalizer{Origin: cfg.Origin},
	).WithLogger(runctx.Logger(ctx))

	eng.OnPage = a.observers().PageDone
	return eng.Run(ctx, seed)
}

func (a *Application) ingest(ctx context.Context, links []models.ListingLink) (sum ingest.Summary, err error) {
	sink, err := a.openSinks(ctx)
	if err != nil {
		return sum, err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close output: %w", cerr))
		}
	}()

	eng := ingest.NewEngine(a.Detail, a.Extractor, sink, a.Config.Workers).WithLogger(runctx.Logger(ctx))
	obs := a.observers()
	obs.IngestStarted(len(links))
	eng.OnRecord = obs.RecordDone
	return eng.Run(ctx, links)
}

// defaultSinks opens the CSV output and, when a DSN is configured, Postgres
func (a *Application) defaultSinks(ctx context.Context) (store.RecordSink, error) {
	cfg := a.Config
	csvSink, err := store.OpenCSV(cfg.OutputFile, cfg.FlushEvery)
	if err != nil {
		return nil, err
	}
	if cfg.PostgresDSN == "" {
		return csvSink, nil
	}

	pg, err := store.OpenPostgres(ctx, store.PostgresOptions{
		DSN:       cfg.PostgresDSN,
		Table:     cfg.PostgresTable,
		BatchSize: cfg.FlushEvery,
	})
	if err != nil {
		csvSink.Close()
		return nil, err
	}
	a.Logger.Debug().Str("table", cfg.PostgresTable).Msg("Postgres sink enabled")
	return store.MultiSink{csvSink, pg}, nil
}

// observers returns the receivers of pipeline events: metrics, then the
// terminal display when one is attached
func (a *Application) observers() observers {
	var obs observers
	if a.Metrics != nil {
		obs = append(obs, a.Metrics)
	}
	if a.Progress != nil {
		obs = append(obs, a.Progress)
	}
	return obs
}

// Close stops the metrics endpoint and releases idle connections. It is safe
// to call more than once.
func (a *Application) Close(ctx context.Context) error {
	if a.stopMetrics != nil {
		a.stopMetrics()
	}
	if a.HTTPClient != nil {
		a.HTTPClient.CloseIdleConnections()
	}
	a.Logger.Debug().Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
