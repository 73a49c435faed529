// Package pipeline sequences link discovery and detail ingestion.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/law-makers/immocrawl/internal/discover"
	"github.com/law-makers/immocrawl/internal/ingest"
	"github.com/law-makers/immocrawl/internal/runctx"
	"github.com/law-makers/immocrawl/pkg/models"
)

// ErrNoLinks is returned when ingestion has no snapshot to read links from
var ErrNoLinks = errors.New("no link snapshot found, run discovery first")

// DiscoverFunc grows seed by walking the listing index
type DiscoverFunc func(ctx context.Context, seed *discover.LinkSet) (*discover.LinkSet, error)

// IngestFunc persists one record per link
type IngestFunc func(ctx context.Context, links []models.ListingLink) (ingest.Summary, error)

// LinkReader loads the persisted link snapshot
type LinkReader interface {
	ReadLinks() ([]string, error)
}

// Pipeline runs one or both phases
type Pipeline struct {
	Discover DiscoverFunc
	Ingest   IngestFunc
	Links    LinkReader

	// Fresh starts discovery from an empty set instead of the snapshot
	Fresh bool
}

// Report summarizes a run
type Report struct {
	RunID    string
	Mode     models.Mode
	Links    int // size of the link set at the end of discovery, or links read
	NewLinks int
	Ingest   ingest.Summary
	Ingested bool
	Duration time.Duration
}

// Run executes mode. The report reflects the work done even when an error
// (including cancellation) is returned.
func (p *Pipeline) Run(ctx context.Context, mode models.Mode) (Report, error) {
	if runctx.FromContext(ctx).RunID == "unknown" {
		ctx = runctx.WithRun(ctx)
	}
	rc := runctx.FromContext(ctx)
	logger := runctx.Logger(ctx)

	rep := Report{RunID: rc.RunID, Mode: mode}
	logger.Info().Str("mode", string(mode)).Msg("Pipeline started")

	var err error
	switch mode {
	case models.ModeDiscover:
		_, err = p.discover(ctx, &rep)
	case models.ModeIngest:
		var links []string
		if links, err = p.readLinks(); err == nil {
			rep.Links = len(links)
			err = p.ingest(ctx, &rep, links)
		}
	case models.ModeRun:
		var set *discover.LinkSet
		if set, err = p.discover(ctx, &rep); err == nil {
			err = p.ingest(ctx, &rep, set.Sorted())
		}
	default:
		err = fmt.Errorf("unknown mode %q", mode)
	}

	rep.Duration = time.Since(rc.StartTime)
	if err != nil {
		return rep, runctx.Wrap(ctx, err)
	}

	logger.Info().
		Int("links", rep.Links).
		Int("new", rep.NewLinks).
		Int("records", rep.Ingest.Attempted).
		Dur("duration", rep.Duration).
		Msg("Pipeline finished")
	return rep, nil
}

func (p *Pipeline) discover(ctx context.Context, rep *Report) (*discover.LinkSet, error) {
	if p.Discover == nil {
		return nil, errors.New("discovery is not configured")
	}

	seed := discover.NewLinkSet()
	if !p.Fresh && p.Links != nil {
		prior, err := p.Links.ReadLinks()
		switch {
		case err == nil:
			seed = discover.NewLinkSet(prior...)
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("load existing links: %w", err)
		}
	}
	before := seed.Len()

	set, err := p.Discover(ctx, seed)
	if set != nil {
		rep.Links = set.Len()
		rep.NewLinks = set.Len() - before
	}
	if err != nil {
		return set, fmt.Errorf("discovery: %w", err)
	}
	return set, nil
}

func (p *Pipeline) readLinks() ([]string, error) {
	if p.Links == nil {
		return nil, ErrNoLinks
	}
	links, err := p.Links.ReadLinks()
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoLinks
	}
	return links, err
}

func (p *Pipeline) ingest(ctx context.Context, rep *Report, links []models.ListingLink) error {
	if p.Ingest == nil {
		return errors.New("ingestion is not configured")
	}
	sum, err := p.Ingest(ctx, links)
	rep.Ingest = sum
	rep.Ingested = true
	if err != nil {
		return fmt.Errorf("ingestion: %w", err)
	}
	return nil
}
