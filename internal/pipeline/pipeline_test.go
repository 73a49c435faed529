package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/law-makers/immocrawl/internal/discover"
	"github.com/law-makers/immocrawl/internal/ingest"
	"github.com/law-makers/immocrawl/internal/store"
	"github.com/law-makers/immocrawl/pkg/models"
)

type staticLinks struct {
	links []string
	err   error
}

func (s staticLinks) ReadLinks() ([]string, error) { return s.links, s.err }

func addLinks(add ...string) DiscoverFunc {
	return func(ctx context.Context, seed *discover.LinkSet) (*discover.LinkSet, error) {
		seed.Merge(add)
		return seed, nil
	}
}

type ingestRecorder struct {
	calls [][]string
}

func (r *ingestRecorder) fn(ctx context.Context, links []models.ListingLink) (ingest.Summary, error) {
	r.calls = append(r.calls, links)
	return ingest.Summary{Attempted: len(links), Extracted: len(links)}, nil
}

func TestPipeline_DiscoverOnly(t *testing.T) {
	rec := &ingestRecorder{}
	p := &Pipeline{
		Discover: addLinks("b", "c"),
		Ingest:   rec.fn,
		Links:    staticLinks{links: []string{"a", "b"}},
	}

	rep, err := p.Run(context.Background(), models.ModeDiscover)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if rep.Links != 3 || rep.NewLinks != 1 {
		t.Errorf("Expected 3 links with 1 new, got %+v", rep)
	}
	if len(rec.calls) != 0 || rep.Ingested {
		t.Errorf("Discover mode must not ingest")
	}
	if rep.RunID == "" || rep.RunID == "unknown" {
		t.Errorf("Expected a run ID, got %q", rep.RunID)
	}
}

func TestPipeline_FreshIgnoresSnapshot(t *testing.T) {
	p := &Pipeline{
		Discover: addLinks("x"),
		Links:    staticLinks{links: []string{"a", "b"}},
		Fresh:    true,
	}
	rep, err := p.Run(context.Background(), models.ModeDiscover)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Links != 1 || rep.NewLinks != 1 {
		t.Errorf("Expected fresh set, got %+v", rep)
	}
}

func TestPipeline_MissingSnapshotSeedsEmpty(t *testing.T) {
	p := &Pipeline{
		Discover: addLinks("x"),
		Links:    store.LinkFile{Path: filepath.Join(t.TempDir(), "links.csv")},
	}
	if _, err := p.Run(context.Background(), models.ModeDiscover); err != nil {
		t.Fatalf("Missing snapshot should not fail discovery: %v", err)
	}
}

func TestPipeline_IngestOnly(t *testing.T) {
	rec := &ingestRecorder{}
	p := &Pipeline{
		Ingest: rec.fn,
		Links:  staticLinks{links: []string{"u1", "u2"}},
	}

	rep, err := p.Run(context.Background(), models.ModeIngest)
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.calls) != 1 || !reflect.DeepEqual(rec.calls[0], []string{"u1", "u2"}) {
		t.Errorf("Unexpected ingest calls %v", rec.calls)
	}
	if rep.Links != 2 || rep.Ingest.Attempted != 2 {
		t.Errorf("Unexpected report %+v", rep)
	}
}

func TestPipeline_IngestWithoutSnapshot(t *testing.T) {
	p := &Pipeline{
		Ingest: (&ingestRecorder{}).fn,
		Links:  staticLinks{err: fs.ErrNotExist},
	}
	if _, err := p.Run(context.Background(), models.ModeIngest); !errors.Is(err, ErrNoLinks) {
		t.Errorf("Expected ErrNoLinks, got %v", err)
	}
}

func TestPipeline_RunFeedsDiscoveredSet(t *testing.T) {
	rec := &ingestRecorder{}
	p := &Pipeline{
		Discover: addLinks("z", "y"),
		Ingest:   rec.fn,
		Links:    staticLinks{links: []string{"x"}},
	}

	rep, err := p.Run(context.Background(), models.ModeRun)
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.calls) != 1 || !reflect.DeepEqual(rec.calls[0], []string{"x", "y", "z"}) {
		t.Errorf("Expected sorted discovered set to be ingested, got %v", rec.calls)
	}
	if !rep.Ingested || rep.Ingest.Attempted != 3 {
		t.Errorf("Unexpected report %+v", rep)
	}
}

func TestPipeline_RunStopsWhenDiscoveryCancelled(t *testing.T) {
	rec := &ingestRecorder{}
	p := &Pipeline{
		Discover: func(ctx context.Context, seed *discover.LinkSet) (*discover.LinkSet, error) {
			seed.Add("a")
			return seed, context.Canceled
		},
		Ingest: rec.fn,
	}

	rep, err := p.Run(context.Background(), models.ModeRun)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("Ingestion must not start after cancelled discovery")
	}
	if rep.Links != 1 {
		t.Errorf("Expected partial discovery in report, got %+v", rep)
	}
}

func TestPipeline_UnknownMode(t *testing.T) {
	if _, err := (&Pipeline{}).Run(context.Background(), models.Mode("bogus")); err == nil {
		t.Error("Expected error for unknown mode")
	}
}

// indexPages serves a listing box with two fresh links on every index page
// and records which pages were requested
type indexPages struct {
	visited []string
}

func (p *indexPages) Get(ctx context.Context, url string) ([]byte, error) {
	p.visited = append(p.visited, url)
	page := url[strings.LastIndex(url, ":")+1:]
	return []byte(fmt.Sprintf(
		`<html><body><div class="listingBox"><a href="/fr/a/%[1]s1">a</a></div><div class="listingBox"><a href="/fr/a/%[1]s2">b</a></div></body></html>`,
		page)), nil
}

func TestPipeline_SeededDiscoveryStopsAfterWarmup(t *testing.T) {
	links := store.LinkFile{Path: filepath.Join(t.TempDir(), "links.csv")}
	pages := &indexPages{}
	eng := discover.NewEngine(
		discover.Config{BaseURL: "https://site.example/list", MaxPages: 10, Warmup: 5},
		pages,
		links,
		discover.Normalizer{Origin: "https://site.example"},
	)
	p := &Pipeline{Discover: eng.Run, Links: links}

	rep, err := p.Run(context.Background(), models.ModeDiscover)
	if err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	if len(pages.visited) != 10 || rep.Links != 20 || rep.NewLinks != 20 {
		t.Fatalf("First run: visited %d pages, report %+v", len(pages.visited), rep)
	}

	// the snapshot already holds every link, so nothing is new past warm-up
	pages.visited = nil
	rep, err = p.Run(context.Background(), models.ModeDiscover)
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if len(pages.visited) != 6 {
		t.Errorf("Expected seeded run to stop after page 6, visited %d", len(pages.visited))
	}
	if rep.Links != 20 || rep.NewLinks != 0 {
		t.Errorf("Unexpected seeded report %+v", rep)
	}

	pages.visited = nil
	p.Fresh = true
	if _, err := p.Run(context.Background(), models.ModeDiscover); err != nil {
		t.Fatalf("Fresh run failed: %v", err)
	}
	if len(pages.visited) != 10 {
		t.Errorf("Expected fresh run to visit every page, visited %d", len(pages.visited))
	}
}
