package config

import (
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	urlutil "github.com/law-makers/immocrawl/internal/utils/url"
)

func validate(c *Config) error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if err := urlutil.ValidateURL(c.BaseURL); err != nil {
		return fmt.Errorf("base url: %w", err)
	}
	if err := urlutil.ValidateURL(c.Origin); err != nil {
		return fmt.Errorf("origin: %w", err)
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be > 0")
	}
	if c.WarmupPages < 0 {
		return fmt.Errorf("warm-up pages must be >= 0")
	}
	if err := validateInterval("listing delay", c.ListingDelayMin, c.ListingDelayMax); err != nil {
		return err
	}
	if err := validateInterval("detail delay", c.DetailDelayMin, c.DetailDelayMax); err != nil {
		return err
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit must be > 0")
	}
	if c.RateLimitBurst <= 0 {
		return fmt.Errorf("burst must be > 0")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be > 0")
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must be >= 0")
	}
	if c.Workers <= 0 || c.Workers > DefaultMaxWorkers {
		return fmt.Errorf("workers must be between 1 and %d", DefaultMaxWorkers)
	}
	if c.FlushEvery <= 0 {
		return fmt.Errorf("flush interval must be > 0")
	}
	if c.AmenityStyle != "oui-non" && c.AmenityStyle != "binary" {
		return fmt.Errorf("amenity style must be oui-non or binary, got %q", c.AmenityStyle)
	}
	if c.LinksFile == "" || c.OutputFile == "" {
		return fmt.Errorf("links and output files must be set")
	}
	if c.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(c.MetricsAddr); err != nil {
			return fmt.Errorf("metrics address: %w", err)
		}
	}
	for _, p := range c.Proxies {
		if err := validateProxy(p); err != nil {
			return err
		}
	}
	return nil
}

func validateInterval(name string, lo, hi time.Duration) error {
	if lo < 0 || hi < 0 {
		return fmt.Errorf("%s must not be negative", name)
	}
	if lo > hi {
		return fmt.Errorf("%s minimum %s exceeds maximum %s", name, lo, hi)
	}
	return nil
}

func validateProxy(p string) error {
	u, err := url.Parse(p)
	if err != nil {
		return fmt.Errorf("invalid proxy %q: %w", p, err)
	}
	switch u.Scheme {
	case "http", "https", "socks5":
	default:
		return fmt.Errorf("invalid proxy %q: scheme must be http, https or socks5", p)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid proxy %q: missing host", p)
	}
	return nil
}
