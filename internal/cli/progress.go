package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/law-makers/immocrawl/internal/discover"
	"github.com/law-makers/immocrawl/internal/ingest"
)

// progressDisplay draws one bar for index pages and one for listings
type progressDisplay struct {
	mu       sync.Mutex
	out      io.Writer
	maxPages int
	pages    *progressbar.ProgressBar
	records  *progressbar.ProgressBar
	degraded int
}

func newProgressDisplay(out io.Writer, maxPages int) *progressDisplay {
	return &progressDisplay{out: out, maxPages: maxPages}
}

func (p *progressDisplay) newBar(total int, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(p.out) }),
	)
}

func (p *progressDisplay) PageDone(res discover.PageResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pages == nil {
		p.pages = p.newBar(p.maxPages, "Index pages")
	}
	p.pages.Describe(fmt.Sprintf("Index pages (%d links)", res.Total))
	_ = p.pages.Add(1)
}

func (p *progressDisplay) IngestStarted(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.finishPages()
	p.records = p.newBar(total, "Listings")
}

func (p *progressDisplay) RecordDone(out ingest.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.records == nil {
		return
	}
	if out.Degraded() {
		p.degraded++
		p.records.Describe(fmt.Sprintf("Listings (%d degraded)", p.degraded))
	}
	_ = p.records.Add(1)
}

// Close completes any bar still drawing
func (p *progressDisplay) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.finishPages()
	if p.records != nil && !p.records.IsFinished() {
		_ = p.records.Finish()
	}
}

// finishPages completes the page bar, which stays short of max on early stop
func (p *progressDisplay) finishPages() {
	if p.pages != nil && !p.pages.IsFinished() {
		_ = p.pages.Finish()
	}
}
