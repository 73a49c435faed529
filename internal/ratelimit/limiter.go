// internal/ratelimit/limiter.go
package ratelimit

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Limiter defines the interface for politeness controls.
//
// Implementations are shared by every worker of a run, so one Wait call
// must be made per outbound request to keep the aggregate rate unchanged.
type Limiter interface {
	// Wait blocks until a request for the given URL can proceed.
	// If the context is cancelled first, the context error is returned.
	Wait(ctx context.Context, urlStr string) error
}

// Interval is a closed range of delays drawn uniformly between requests
type Interval struct {
	Min time.Duration
	Max time.Duration
}

// Validate checks that the interval is well formed
func (i Interval) Validate() error {
	if i.Min < 0 || i.Max < 0 {
		return fmt.Errorf("delay interval must be non-negative, got %s-%s", i.Min, i.Max)
	}
	if i.Min > i.Max {
		return fmt.Errorf("delay interval min %s exceeds max %s", i.Min, i.Max)
	}
	return nil
}

func (i Interval) String() string {
	return fmt.Sprintf("%s-%s", i.Min, i.Max)
}

// DomainLimiter provides per-domain token bucket rate limiting.
type DomainLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	perHost  rate.Limit // Requests per second per host
	burst    int        // Burst capacity
}

// NewDomainLimiter creates a new rate limiter with the specified per-host rate
func NewDomainLimiter(requestsPerSecond float64, burst int) *DomainLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1.0
	}
	if burst <= 0 {
		burst = 1
	}

	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		perHost:  rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// Wait blocks until the request for the given URL can proceed according to rate limits
func (dl *DomainLimiter) Wait(ctx context.Context, urlStr string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	domain := extractDomain(urlStr)
	if domain == "" {
		// Invalid URL, let it proceed (will fail in the fetcher)
		return nil
	}

	return dl.getLimiter(domain).Wait(ctx)
}

// getLimiter returns or creates a rate limiter for the given domain
func (dl *DomainLimiter) getLimiter(domain string) *rate.Limiter {
	dl.mu.RLock()
	limiter, exists := dl.limiters[domain]
	dl.mu.RUnlock()

	if exists {
		return limiter
	}

	dl.mu.Lock()
	defer dl.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := dl.limiters[domain]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(dl.perHost, dl.burst)
	dl.limiters[domain] = limiter

	return limiter
}

// Schedule hands out request slots per host. Consecutive slots on a host are
// separated by the gap the caller asks for, whichever goroutine asks; the
// first request on a host gets the current time.
type Schedule struct {
	mu   sync.Mutex
	last map[string]time.Time
}

// NewSchedule creates an empty schedule
func NewSchedule() *Schedule {
	return &Schedule{last: make(map[string]time.Time)}
}

// Reserve books the next slot for host at least gap after the previous one
// and returns it
func (s *Schedule) Reserve(host string, gap time.Duration, now time.Time) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot := now
	if prev, ok := s.last[host]; ok {
		if next := prev.Add(gap); next.After(now) {
			slot = next
		}
	}
	s.last[host] = slot
	return slot
}

// Politeness consumes a per-host token and then waits for a slot on the
// host's schedule. Slots are spaced by a random delay drawn from its
// interval, so requests never follow a fixed period and concurrent callers
// share one pace.
type Politeness struct {
	tokens *DomainLimiter
	sched  *Schedule
	delay  Interval

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewPoliteness creates a politeness limiter with its own schedule. A nil
// tokens limiter disables the token bucket.
func NewPoliteness(tokens *DomainLimiter, delay Interval) *Politeness {
	return &Politeness{
		tokens: tokens,
		sched:  NewSchedule(),
		delay:  delay,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithSchedule makes p book slots on s, shared with other limiters
func (p *Politeness) WithSchedule(s *Schedule) *Politeness {
	p.sched = s
	return p
}

// WithSeed replaces the random source, used by tests for reproducible delays
func (p *Politeness) WithSeed(seed int64) *Politeness {
	p.mu.Lock()
	p.rnd = rand.New(rand.NewSource(seed))
	p.mu.Unlock()
	return p
}

// Next draws the next delay from the interval
func (p *Politeness) Next() time.Duration {
	span := p.delay.Max - p.delay.Min
	if span <= 0 {
		return p.delay.Min
	}

	p.mu.Lock()
	n := p.rnd.Int63n(int64(span) + 1)
	p.mu.Unlock()

	return p.delay.Min + time.Duration(n)
}

// Wait consumes a token for urlStr, then sleeps until the slot booked for it
func (p *Politeness) Wait(ctx context.Context, urlStr string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if p.tokens != nil {
		if err := p.tokens.Wait(ctx, urlStr); err != nil {
			return err
		}
	}

	now := time.Now()
	slot := p.sched.Reserve(extractDomain(urlStr), p.Next(), now)
	d := slot.Sub(now)
	if d <= 0 {
		return ctx.Err()
	}

	log.Debug().
		Str("url", urlStr).
		Dur("delay", d).
		Msg("Politeness delay")

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// extractDomain extracts the domain from a URL string
func extractDomain(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Host
}
