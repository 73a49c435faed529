// internal/fetch/fetcher.go
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/law-makers/immocrawl/internal/proxy"
	"github.com/rs/zerolog/log"
)

// Fetcher performs a single GET and returns the page markup.
// Implementations must not retry internally.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Options configures the HTTP fetcher
type Options struct {
	UserAgent      string
	AcceptLanguage string
	Headers        map[string]string
	Timeout        time.Duration
	MaxBodyBytes   int64
}

const defaultMaxBodyBytes = 16 << 20

// HTTPFetcher implements Fetcher over net/http
type HTTPFetcher struct {
	client  *http.Client
	proxies *proxy.Pool
	opts    Options
}

// New creates an HTTPFetcher. A nil proxies pool connects directly.
func New(client *http.Client, proxies *proxy.Pool, opts Options) *HTTPFetcher {
	if client == nil {
		client = NewHTTPClient()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &HTTPFetcher{
		client:  client,
		proxies: proxies,
		opts:    opts,
	}
}

// NewHTTPClient returns a keep-alive client whose transport honors per-request proxies
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               proxy.FromRequest,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			DisableKeepAlives:   false,
		},
	}
}

// Fetch retrieves one page. Non-2xx responses, network failures and timeouts
// are returned as *Error; no markup is returned with an error.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()

	if f.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.Timeout)
		defer cancel()
	}

	via := f.proxies.Next()
	if via != "" {
		ctx = proxy.WithProxy(ctx, via)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, newUnreachableError(url, fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if f.opts.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", f.opts.AcceptLanguage)
	}
	for key, value := range f.opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.proxies.MarkFailed(via)
		return nil, classify(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, newStatusError(url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBodyBytes))
	if err != nil {
		return nil, classify(url, err)
	}

	f.proxies.MarkHealthy(via)

	log.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Int64("response_time_ms", time.Since(start).Milliseconds()).
		Msg("Fetch completed")

	return body, nil
}

// classify maps a transport error to a fetch error kind
func classify(url string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newTimeoutError(url, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newTimeoutError(url, err)
	}
	return newUnreachableError(url, err)
}
