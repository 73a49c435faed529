// Package metrics exposes pipeline progress as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/immocrawl/internal/discover"
	"github.com/law-makers/immocrawl/internal/ingest"
)

const (
	// Namespace prefixes every metric name
	Namespace = "immocrawl"

	subsystemDiscovery = "discovery"
	subsystemIngest    = "ingest"
)

// Metrics holds the pipeline counters. Its methods match the application's
// progress observer so it can be attached next to the terminal display.
type Metrics struct {
	registry *prometheus.Registry

	// Discovery
	PagesTotal *prometheus.CounterVec
	NewLinks   prometheus.Counter
	LinkSet    prometheus.Gauge

	// Ingestion
	Queued       prometheus.Gauge
	RecordsTotal *prometheus.CounterVec
}

// New creates the metrics on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}

	m.PagesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemDiscovery,
			Name:      "pages_total",
			Help:      "Index pages visited, by result",
		},
		[]string{"result"},
	)
	m.NewLinks = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemDiscovery,
			Name:      "new_links_total",
			Help:      "Listing links added to the link set",
		},
	)
	m.LinkSet = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: subsystemDiscovery,
			Name:      "link_set_size",
			Help:      "Current size of the link set",
		},
	)

	m.Queued = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: subsystemIngest,
			Name:      "links_queued",
			Help:      "Links handed to ingestion in the current run",
		},
	)
	m.RecordsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemIngest,
			Name:      "records_total",
			Help:      "Records persisted, by outcome",
		},
		[]string{"outcome"},
	)

	return m
}

// PageDone records one visited index page
func (m *Metrics) PageDone(res discover.PageResult) {
	result := "ok"
	switch {
	case res.Err != nil:
		result = "error"
	case res.Found == 0:
		result = "empty"
	}
	m.PagesTotal.WithLabelValues(result).Inc()
	m.NewLinks.Add(float64(res.New))
	m.LinkSet.Set(float64(res.Total))
}

// IngestStarted records the size of the ingestion queue
func (m *Metrics) IngestStarted(total int) {
	m.Queued.Set(float64(total))
}

// RecordDone records one persisted record
func (m *Metrics) RecordDone(out ingest.Outcome) {
	outcome := "extracted"
	if out.Degraded() {
		outcome = "degraded"
	}
	m.RecordsTotal.WithLabelValues(outcome).Inc()
}

// Handler serves the metrics in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Debug().Str("addr", addr).Msg("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
