package fetch

import (
	"context"

	"github.com/law-makers/immocrawl/internal/ratelimit"
	"github.com/law-makers/immocrawl/internal/retry"
	"github.com/rs/zerolog/log"
)

// Client is the polite entry point used by the engines. It waits on the
// limiter before every attempt and applies a bounded retry.
type Client struct {
	fetcher Fetcher
	limiter ratelimit.Limiter
	retry   retry.Config
}

// NewClient wires a fetcher with politeness and retry. lim may be nil.
func NewClient(f Fetcher, lim ratelimit.Limiter, rc retry.Config) *Client {
	return &Client{
		fetcher: f,
		limiter: lim,
		retry:   rc,
	}
}

// Get returns the markup for url, or the last fetch error
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	attempt := 0
	err := retry.WithRetry(ctx, c.retry, func() error {
		attempt++
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx, url); err != nil {
				return retry.Permanent(err)
			}
		}

		b, err := c.fetcher.Fetch(ctx, url)
		if err != nil {
			log.Debug().Err(err).Str("url", url).Int("attempt", attempt).Msg("Fetch attempt failed")
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
