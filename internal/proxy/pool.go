package proxy

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// failureCooldown is how long a failed proxy is skipped
const failureCooldown = 5 * time.Minute

// Pool rotates outbound proxies and skips recently failed ones
type Pool struct {
	proxies []string
	index   int
	mu      sync.Mutex
	failed  map[string]time.Time
}

// NewPool creates a new Pool. An empty list means direct connections.
func NewPool(proxies []string) *Pool {
	return &Pool{
		proxies: proxies,
		failed:  make(map[string]time.Time),
	}
}

// Len returns the number of configured proxies
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.proxies)
}

// Next returns the next healthy proxy from the pool, or "" when none is configured
func (p *Pool) Next() string {
	if p == nil {
		return ""
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	start := p.index
	for {
		candidate := p.proxies[p.index]
		p.index = (p.index + 1) % len(p.proxies)

		failTime, ok := p.failed[candidate]
		if !ok {
			return candidate
		}
		if time.Since(failTime) >= failureCooldown {
			delete(p.failed, candidate)
			return candidate
		}
		if p.index == start {
			// every proxy is cooling down; use this one anyway
			return candidate
		}
	}
}

// MarkFailed marks a proxy as failed so it will be skipped for a while
func (p *Pool) MarkFailed(proxy string) {
	if p == nil || proxy == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed[proxy] = time.Now()
}

// MarkHealthy clears the failure status of a proxy
func (p *Pool) MarkHealthy(proxy string) {
	if p == nil || proxy == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.failed, proxy)
}

type ctxKey struct{}

// WithProxy records the proxy chosen for one request
func WithProxy(ctx context.Context, proxy string) context.Context {
	return context.WithValue(ctx, ctxKey{}, proxy)
}

// FromRequest is an http.Transport Proxy func that routes the request through
// the proxy recorded with WithProxy, or connects directly when none is set.
func FromRequest(req *http.Request) (*url.URL, error) {
	proxy, _ := req.Context().Value(ctxKey{}).(string)
	if proxy == "" {
		return nil, nil
	}
	return url.Parse(proxy)
}
